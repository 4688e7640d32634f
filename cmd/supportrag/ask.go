package main

import (
	"context"
	"fmt"
	"strings"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/kailas-cloud/supportrag/internal/logger"
)

func newAskCmd(flags *globalFlags) *cobra.Command {
	var verbose bool

	cmd := &cobra.Command{
		Use:   `ask "<question>"`,
		Short: "Answer one question and print the reply",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			if ctx == nil {
				ctx = context.Background()
			}
			a, err := newApp(ctx, flags.env)
			if err != nil {
				return err
			}
			defer a.Close(context.Background())

			p, err := a.buildPipeline(ctx)
			if err != nil {
				return err
			}

			ctx = logger.ContextWithLogger(ctx, a.logger.With(zap.String("command", "ask")))
			res, err := p.controller.Answer(ctx, strings.Join(args, " "))
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			fmt.Fprintln(out, res.Answer)
			if verbose {
				fmt.Fprintf(out, "\nknowledge base: %s\niterations: %d\nresolved: %t\nchunks: %s\n",
					res.KnowledgeBase, res.Iterations, res.Resolved, strings.Join(res.ChunkIDs, ", "))
			}
			return nil
		},
	}
	cmd.Flags().BoolVarP(&verbose, "verbose", "v", false, "print the knowledge base and chunks used")
	return cmd
}

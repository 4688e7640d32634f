// Command supportrag answers support questions from the changelog and user-review knowledge bases.
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	_ "go.uber.org/automaxprocs"

	"github.com/kailas-cloud/supportrag/internal/config"
	"github.com/kailas-cloud/supportrag/internal/version"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// globalFlags are shared by every subcommand.
type globalFlags struct {
	env string
}

func newRootCmd() *cobra.Command {
	flags := &globalFlags{}

	cmd := &cobra.Command{
		Use:           "supportrag",
		Short:         "Answer support questions from the changelog, escalating to user reviews",
		Version:       version.String(),
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	cmd.PersistentFlags().StringVarP(&flags.env, "env", "e", config.GetEnv(),
		"environment name; loads config/<env>.yaml")

	cmd.AddCommand(
		newServeCmd(flags),
		newAskCmd(flags),
		newIndexCmd(flags),
	)
	return cmd
}

package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	chiTransport "github.com/kailas-cloud/supportrag/internal/transport/chi"
	usageuc "github.com/kailas-cloud/supportrag/internal/usecase/usage"
	"github.com/kailas-cloud/supportrag/internal/version"
)

func newServeCmd(flags *globalFlags) *cobra.Command {
	var port int

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve POST /v1/answers over HTTP",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runServe(cmd.Context(), flags, port)
		},
	}
	cmd.Flags().IntVarP(&port, "port", "p", 0, "override http.port from config")
	return cmd
}

func runServe(ctx context.Context, flags *globalFlags, port int) error {
	if ctx == nil {
		ctx = context.Background()
	}
	a, err := newApp(ctx, flags.env)
	if err != nil {
		return err
	}
	defer a.Close(context.Background())

	logger := a.logger
	if port > 0 {
		a.cfg.HTTP.Port = port
	}
	logger.Info("Starting supportrag API server",
		zap.String("version", version.Version),
		zap.String("commit", version.Commit),
		zap.String("env", a.env),
		zap.Int("http_port", a.cfg.HTTP.Port),
	)

	p, err := a.buildPipeline(ctx)
	if err != nil {
		return err
	}

	var readers []usageuc.BudgetReader
	if a.embeddingBudget != nil {
		readers = append(readers, a.embeddingBudget)
	}
	if a.llmBudget != nil {
		readers = append(readers, a.llmBudget)
	}

	server := chiTransport.NewServer(p.controller, usageuc.New(readers...), p.health, logger)

	addr := fmt.Sprintf(":%d", a.cfg.HTTP.Port)
	srv := &http.Server{
		Addr:         addr,
		Handler:      chiTransport.NewRouter(server, a.cfg.Auth.APIKeys, logger),
		ReadTimeout:  time.Duration(a.cfg.HTTP.ReadTimeoutSec) * time.Second,
		WriteTimeout: time.Duration(a.cfg.HTTP.WriteTimeoutSec) * time.Second,
	}

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)
	defer signal.Stop(quit)

	serveErr := make(chan error, 1)
	go func() {
		logger.Info("Starting HTTP server", zap.String("addr", addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serveErr <- err
		}
		close(serveErr)
	}()

	select {
	case err := <-serveErr:
		if err != nil {
			return fmt.Errorf("http server: %w", err)
		}
		return nil
	case <-quit:
		logger.Info("Received shutdown signal")
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), time.Duration(a.cfg.HTTP.ShutdownSec)*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("Error during shutdown", zap.Error(err))
	}
	logger.Info("Server stopped gracefully")
	return nil
}

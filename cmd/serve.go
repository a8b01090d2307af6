package cmd

import (
	"context"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"

	"github.com/locallook/context-bridge/internal/browser"
	"github.com/locallook/context-bridge/internal/capture"
	"github.com/locallook/context-bridge/internal/config"
	"github.com/locallook/context-bridge/internal/interact"
	"github.com/locallook/context-bridge/internal/observability"
	"github.com/locallook/context-bridge/internal/server"
)

// cleanupTimeout bounds the browser teardown after the HTTP server has
// drained.
const cleanupTimeout = 20 * time.Second

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the context bridge HTTP service.",
	Long: `Launches the shared headless browser session and serves the capture,
interact and quick-analyze endpoints until interrupted.`,
	RunE: runServe,
}

func init() {
	rootCmd.AddCommand(serveCmd)
}

func runServe(cmd *cobra.Command, args []string) error {
	logger := observability.GetLogger()
	defer observability.Sync()

	cfg, err := config.NewConfigFromViper(viper.GetViper())
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	manager := browser.NewManager(logger, cfg)
	if err := manager.Initialize(ctx); err != nil {
		// Without a browser the service has nothing to offer.
		return err
	}
	defer func() {
		cctx, cancel := context.WithTimeout(context.Background(), cleanupTimeout)
		defer cancel()
		manager.Cleanup(cctx)
	}()

	capturer := capture.New(manager, cfg, logger)
	interactor := interact.New(manager, cfg, logger)
	srv := server.New(cfg, logger, capturer, interactor, manager, Version)

	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.Start()
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
		logger.Info("Shutdown signal received")
	}

	if err := srv.Shutdown(context.Background()); err != nil {
		logger.Error("HTTP server shutdown failed", zap.Error(err))
	}
	return nil
}

package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"cosmossdk.io/log"
	"github.com/spf13/cobra"

	"github.com/openalpha/launchpad/api"
	"github.com/openalpha/launchpad/internal/config"
	"github.com/openalpha/launchpad/metrics"
)

const shutdownTimeout = 10 * time.Second

func main() {
	if err := newRootCmd().Execute(); err != nil {
		log.NewLogger(os.Stderr).Error("failure when running launchpad-api", "err", err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	var cfgFile string

	cmd := &cobra.Command{
		Use:          "launchpad-api",
		Short:        "Standalone launchpad pools over HTTP and websocket",
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := config.Load(cfgFile, cmd.Flags())
			if err != nil {
				return err
			}
			return run(cmd.Context(), cfg)
		},
	}
	cmd.Flags().StringVar(&cfgFile, "config", "", "config file (yaml, toml or json)")
	config.RegisterFlags(cmd.Flags())
	return cmd
}

func run(parent context.Context, cfg config.Config) error {
	lvl, err := cfg.Level()
	if err != nil {
		return err
	}
	logger := log.NewLogger(os.Stderr, log.LevelOption(lvl))
	collector := metrics.GetCollector()

	service, err := api.NewService(cfg.Service(), logger, collector)
	if err != nil {
		return err
	}
	server := api.NewServer(cfg.Server(), service, logger, collector)

	ctx, stop := signal.NotifyContext(parent, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	errCh := make(chan error, 1)
	go func() {
		errCh <- server.Start(ctx)
	}()

	logger.Info("launchpad-api started",
		"addr", fmt.Sprintf("%s:%d", cfg.Host, cfg.Port),
		"backend", cfg.Backend,
		"tick", service.Tick(),
	)

	select {
	case err = <-errCh:
		stop()
	case <-ctx.Done():
		logger.Info("Shutting down server...")
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if stopErr := server.Stop(shutdownCtx); stopErr != nil {
		logger.Error("Server shutdown error", "err", stopErr)
	}
	if closeErr := service.Close(); closeErr != nil {
		logger.Error("Failed to close state", "err", closeErr)
	}
	return err
}

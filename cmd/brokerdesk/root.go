package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"

	"github.com/aretw0/brokerdesk"
	"github.com/aretw0/brokerdesk/internal/config"
	"github.com/aretw0/brokerdesk/internal/logging"
	"github.com/aretw0/brokerdesk/internal/telemetry"
	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "brokerdesk",
	Short: "BrokerDesk is a disability services brokerage backend",
	Long: `BrokerDesk tracks the clients of a brokerage organization on a kanban
pipeline, validates every stage move against the pipeline graph and runs the
automated actions attached to each stage.`,
	SilenceUsage: true,
}

// Execute adds all child commands to the root command and sets flags appropriately.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringP("config", "c", "", "Path to the configuration file (default brokerdesk.yaml)")
	rootCmd.PersistentFlags().String("log-level", "", "Log level: debug, info, warn, error (overrides config)")
}

// loadConfig reads the configuration and builds the logger it describes.
func loadConfig(cmd *cobra.Command) (*config.Config, *slog.Logger, error) {
	path, _ := cmd.Flags().GetString("config")
	cfg, err := config.Load(path)
	if err != nil {
		return nil, nil, err
	}
	if lvl, _ := cmd.Flags().GetString("log-level"); lvl != "" {
		cfg.Log.Level = lvl
	}

	level := logging.ParseLevel(cfg.Log.Level)
	logger := logging.New(level)
	if cfg.Log.Format == "json" {
		logger = logging.NewJSON(os.Stderr, level)
	}
	slog.SetDefault(logger)
	return cfg, logger, nil
}

// openApp builds the App and, when enabled, the tracer provider.
// The returned cleanup flushes both.
func openApp(ctx context.Context, cmd *cobra.Command) (*brokerdesk.App, func(), error) {
	cfg, logger, err := loadConfig(cmd)
	if err != nil {
		return nil, nil, err
	}

	var shutdownTracer telemetry.ShutdownFunc
	if cfg.Telemetry.Enabled {
		shutdownTracer, err = telemetry.InitTracer(cfg.Telemetry.ServiceName, version(), os.Stderr, logger)
		if err != nil {
			return nil, nil, fmt.Errorf("failed to initialize tracer: %w", err)
		}
	}

	app, err := brokerdesk.New(ctx, cfg, brokerdesk.WithLogger(logger))
	if err != nil {
		return nil, nil, err
	}

	cleanup := func() {
		if err := app.Close(context.Background()); err != nil {
			logger.Warn("close failed", "err", err)
		}
		if shutdownTracer != nil {
			if err := shutdownTracer(context.Background()); err != nil {
				logger.Warn("tracer shutdown failed", "err", err)
			}
		}
	}
	return app, cleanup, nil
}

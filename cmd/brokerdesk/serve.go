package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/aretw0/brokerdesk/internal/presentation/tui"
	"github.com/spf13/cobra"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the HTTP API server",
	Long:  `Starts the brokerage JSON API, the board event stream and the /metrics endpoint.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		app, cleanup, err := openApp(ctx, cmd)
		if err != nil {
			return err
		}
		defer cleanup()

		port := app.Config().Server.Port
		if cmd.Flags().Changed("port") {
			port, _ = cmd.Flags().GetInt("port")
		}

		srv := &http.Server{
			Addr:              fmt.Sprintf(":%d", port),
			Handler:           app.Handler(),
			ReadHeaderTimeout: 10 * time.Second,
		}
		srv.RegisterOnShutdown(app.Streams.Close)

		tui.PrintBanner(cmd.ErrOrStderr(), version())

		serverErrors := make(chan error, 1)
		go func() {
			slog.Default().Info("Starting BrokerDesk server", "address", srv.Addr, "storage", app.Config().Storage.Type)
			serverErrors <- srv.ListenAndServe()
		}()

		select {
		case err := <-serverErrors:
			if errors.Is(err, http.ErrServerClosed) {
				return nil
			}
			return fmt.Errorf("server error: %w", err)

		case <-ctx.Done():
			slog.Default().Info("Start shutdown...")

			shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()

			if err := srv.Shutdown(shutdownCtx); err != nil {
				slog.Default().Warn("Graceful shutdown did not complete", "timeout", 5*time.Second, "err", err)
				if err := srv.Close(); err != nil {
					return fmt.Errorf("error killing server: %w", err)
				}
			}
			slog.Default().Info("BrokerDesk server stopped gracefully")
			return nil
		}
	},
}

func init() {
	rootCmd.AddCommand(serveCmd)
	serveCmd.Flags().IntP("port", "p", 8080, "Port to listen on (overrides server.port)")
}

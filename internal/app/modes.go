package app

import (
	"context"
	"os/signal"
	"syscall"
	"time"

	"capstan/pkg/logging"
)

const shutdownTimeout = 10 * time.Second

// runServeMode starts the manifest watcher and the server, then blocks
// until ctx is cancelled or SIGINT/SIGTERM arrives.
//
// A watcher that fails to start is logged and skipped; the server still
// serves the catalog as loaded.
func runServeMode(ctx context.Context, services *Services) error {
	ctx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if services.Watcher != nil {
		if err := services.Watcher.Start(ctx); err != nil {
			logging.Warn("Serve", "Manifest watcher disabled: %v", err)
		} else {
			defer func() {
				if err := services.Watcher.Stop(); err != nil {
					logging.Warn("Serve", "Failed to stop manifest watcher: %v", err)
				}
			}()
		}
	}

	if err := services.Server.Start(ctx); err != nil {
		logging.Error("Serve", err, "Failed to start server")
		return err
	}
	if endpoint := services.Server.Endpoint(); endpoint != "" {
		logging.Info("Serve", "Serving capabilities at %s. Press Ctrl+C to stop.", endpoint)
	}

	<-ctx.Done()

	logging.Info("Serve", "Shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	return services.Server.Stop(shutdownCtx)
}

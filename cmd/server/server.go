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
)

// sessionSweepInterval is how often expired session rows are removed.
const sessionSweepInterval = time.Hour

// startHTTPServer runs the HTTP server until SIGINT/SIGTERM, then shuts it
// down gracefully within the configured timeout. The heartbeat goroutine
// that keeps WebSocket peers alive shares the server's lifetime.
func (app *application) startHTTPServer(router http.Handler) error {
	server := &http.Server{
		Addr:    fmt.Sprintf(":%d", app.config.Server.Port),
		Handler: router,
	}

	serverCtx, cancelServer := context.WithCancel(context.Background())
	defer cancelServer()

	go app.dispatcher.RunHeartbeat(serverCtx, app.config.Realtime.HeartbeatInterval)
	go app.runSessionSweeper(serverCtx)

	shutdownCh := make(chan os.Signal, 1)
	signal.Notify(shutdownCh, syscall.SIGINT, syscall.SIGTERM)

	errCh := make(chan error, 1)
	go func() {
		app.logger.Info("starting server", "port", app.config.Server.Port)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	select {
	case sig := <-shutdownCh:
		app.logger.Info("shutdown signal received", "signal", sig.String())
	case err := <-errCh:
		return fmt.Errorf("server failed: %w", err)
	}

	shutdownCtx, shutdownCancel := context.WithTimeout(
		context.Background(),
		app.config.Server.ShutdownTimeout,
	)
	defer shutdownCancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("server shutdown failed: %w", err)
	}

	app.logger.Info("server stopped")
	return nil
}

// runSessionSweeper periodically removes expired session rows so the
// sessions table does not grow without bound. Open WebSocket connections
// already authenticated against a swept session stay connected.
func (app *application) runSessionSweeper(ctx context.Context) {
	ticker := time.NewTicker(sessionSweepInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			removed, err := app.sessionStore.DeleteExpired(ctx, time.Now().UTC())
			if err != nil {
				app.logger.Warn("session sweep failed", "error", err)
				continue
			}
			if removed > 0 {
				app.logger.Info("expired sessions removed", "count", removed)
			}
		}
	}
}

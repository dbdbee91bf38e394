package builder

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"
)

const shutdownTimeout = 30 * time.Second

// App is the HTTP backend with the resources it owns
type App struct {
	server     *http.Server
	components *components
}

// Run serves until SIGINT or SIGTERM, then shuts down gracefully.
// In-flight streams get shutdownTimeout to finish.
func (a *App) Run() error {
	logger := a.components.logger

	errChan := make(chan error, 1)
	go func() {
		logger.Info("Starting HTTP server", zap.String("addr", a.server.Addr))
		if err := a.server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errChan <- err
		}
	}()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)

	select {
	case err := <-errChan:
		logger.Error("Server error", zap.Error(err))
		a.components.close(context.Background())
		return err
	case sig := <-sigChan:
		logger.Info("Received shutdown signal", zap.String("signal", sig.String()))
	}

	return a.shutdown()
}

func (a *App) shutdown() error {
	ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	logger := a.components.logger
	logger.Info("Shutting down server gracefully")

	err := a.server.Shutdown(ctx)
	if err != nil {
		logger.Error("Server shutdown error", zap.Error(err))
	}

	a.components.close(ctx)
	logger.Info("Application stopped")
	return err
}

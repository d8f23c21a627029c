package bootstrap

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/yanqian/surgecast/internal/infra/config"
)

const shutdownTimeout = 10 * time.Second

// Worker is a background loop that runs alongside the HTTP server until ctx
// is cancelled.
type Worker struct {
	Name string
	Run  func(ctx context.Context) error
}

// App encapsulates the HTTP server and worker lifecycle.
type App struct {
	cfg     *config.Config
	logger  *slog.Logger
	server  *http.Server
	workers []Worker
}

// NewApp is used by Wire to build the runnable app.
func NewApp(cfg *config.Config, logger *slog.Logger, server *http.Server, workers []Worker) *App {
	return &App{cfg: cfg, logger: logger.With("component", "bootstrap"), server: server, workers: workers}
}

// Run starts the HTTP server and workers and blocks until shutdown. A failing
// worker stops the whole app.
func (a *App) Run(ctx context.Context) error {
	g, gctx := errgroup.WithContext(ctx)

	for _, w := range a.workers {
		if w.Run == nil {
			continue
		}
		g.Go(func() error {
			a.logger.Info("worker starting", "worker", w.Name)
			if err := w.Run(gctx); err != nil && !errors.Is(err, context.Canceled) {
				return fmt.Errorf("worker %s: %w", w.Name, err)
			}
			a.logger.Info("worker stopped", "worker", w.Name)
			return nil
		})
	}

	g.Go(func() error {
		a.logger.Info("http server starting", "address", a.cfg.HTTP.Address)
		if err := a.server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})

	g.Go(func() error {
		<-gctx.Done()
		a.logger.Info("shutdown signal received")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		return a.server.Shutdown(shutdownCtx)
	})

	return g.Wait()
}

package commands

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/gin-gonic/gin"
	"golang.org/x/sync/errgroup"

	"github.com/allisson/pubflow/internal/app"
	"github.com/allisson/pubflow/internal/config"
)

// RunServer starts the API server, the metrics server, the event poller and the
// producer scheduler, each when enabled. It blocks until SIGINT/SIGTERM or until
// one component fails, then stops the rest within DBConnMaxLifetime.
func RunServer(ctx context.Context, version string) error {
	cfg := config.Load()

	gin.SetMode(cfg.GetGinMode())

	container := app.NewContainer(cfg)

	logger := container.Logger()
	logger.Info("starting server",
		slog.String("version", version),
		slog.String("db_driver", cfg.DBDriver),
	)

	defer closeContainer(container, logger)

	ctx, cancel := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer cancel()

	group, groupCtx := errgroup.WithContext(ctx)

	server, err := container.SetupHTTPServer(groupCtx)
	if err != nil {
		return fmt.Errorf("failed to initialize HTTP server: %w", err)
	}
	group.Go(func() error {
		if err := server.Start(groupCtx); err != nil {
			return fmt.Errorf("api server error: %w", err)
		}
		return nil
	})

	if cfg.MetricsEnabled {
		metricsServer, err := container.MetricsServer()
		if err != nil {
			return fmt.Errorf("failed to initialize metrics server: %w", err)
		}
		group.Go(func() error {
			if err := metricsServer.Start(groupCtx); err != nil {
				return fmt.Errorf("metrics server error: %w", err)
			}
			return nil
		})
	}

	if cfg.EventPollerEnabled {
		poller, err := container.Poller()
		if err != nil {
			return fmt.Errorf("failed to initialize event poller: %w", err)
		}
		group.Go(func() error {
			return poller.Start(groupCtx)
		})
	}

	if cfg.SchedulerEnabled {
		scheduler, err := container.Scheduler()
		if err != nil {
			return fmt.Errorf("failed to initialize scheduler: %w", err)
		}
		group.Go(func() error {
			return scheduler.Start(groupCtx)
		})
	}

	// Servers only return on failure or Shutdown, so they are stopped once the
	// group context is done.
	group.Go(func() error {
		<-groupCtx.Done()
		logger.Info("shutdown signal received")

		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), cfg.DBConnMaxLifetime)
		defer shutdownCancel()

		return container.Shutdown(shutdownCtx)
	})

	if err := group.Wait(); err != nil && !errors.Is(err, context.Canceled) {
		return err
	}

	logger.Info("server stopped")
	return nil
}

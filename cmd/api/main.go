package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/engmung/portfolio-Nat/domain/events"
	"github.com/engmung/portfolio-Nat/infrastructure/config"
	"github.com/engmung/portfolio-Nat/infrastructure/di"
	"github.com/engmung/portfolio-Nat/interfaces/http/rest"
	"github.com/engmung/portfolio-Nat/interfaces/websocket"
	"github.com/engmung/portfolio-Nat/pkg/extensions"
)

const (
	shutdownTimeout    = 30 * time.Second
	cloudWatchInterval = time.Minute
)

func main() {
	if err := run(); err != nil {
		log.Fatalf("graph service: %v", err)
	}
}

func run() error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cfg, err := config.LoadConfig()
	if err != nil {
		return fmt.Errorf("load configuration: %w", err)
	}

	container, cleanup, err := di.InitializeContainer(ctx, cfg)
	if err != nil {
		return fmt.Errorf("initialize container: %w", err)
	}
	defer cleanup()
	logger := container.Logger

	hub := websocket.NewHub(container.Metrics, logger)
	container.Hooks.Register(extensions.HookGraphPublished, hub.OnGraphPublished)

	wsConfig := websocket.DefaultConfig()
	wsConfig.AllowedOrigins = cfg.CORSOrigins
	wsHandler := websocket.NewHandler(hub, container.Refresher, wsConfig, logger)

	router := rest.NewRouter(rest.DependenciesFrom(container, wsHandler))

	srv := &http.Server{
		Addr:         cfg.ServerAddress,
		Handler:      router.Setup(),
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	g, ctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		logger.Info("Starting server",
			zap.String("address", cfg.ServerAddress),
			zap.String("environment", cfg.Environment),
			zap.String("instance", cfg.InstanceID),
		)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("http server: %w", err)
		}
		return nil
	})

	g.Go(func() error {
		<-ctx.Done()
		logger.Info("Shutting down server...")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("server shutdown: %w", err)
		}
		return nil
	})

	g.Go(func() error {
		return hub.Run(ctx)
	})

	// /ready reports not_ready until the first build lands
	g.Go(func() error {
		container.Refresher.RefreshInBackground(ctx, "startup")
		return container.Refresher.Run(ctx, cfg.RefreshInterval)
	})

	if container.ChangeBus != nil {
		g.Go(func() error {
			err := container.ChangeBus.Run(ctx, func(ctx context.Context, change events.KnowledgeChanged) {
				container.Refresher.RefreshInBackground(ctx, "peer_"+string(change.Kind))
			})
			return optional(logger, "change bus", err)
		})
	}

	if container.PaletteWatcher != nil {
		g.Go(func() error {
			return optional(logger, "palette watcher", container.PaletteWatcher.Run(ctx))
		})
	}

	if container.CloudWatch != nil {
		g.Go(func() error {
			return container.CloudWatch.Run(ctx, cloudWatchInterval)
		})
	}

	err = g.Wait()

	flushCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	container.Flush(flushCtx)

	if err != nil {
		return err
	}
	logger.Info("Server exited")
	return nil
}

// optional logs a failed auxiliary loop instead of stopping the server
func optional(logger *zap.Logger, name string, err error) error {
	if err != nil {
		logger.Warn("Auxiliary loop stopped", zap.String("component", name), zap.Error(err))
	}
	return nil
}

// cmd/preview-server/main.go
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	"card-preview/internal/common/config"
	"card-preview/internal/common/database"
	"card-preview/internal/common/logger"
	"card-preview/internal/common/observability"
	"card-preview/internal/preview/server"
	"card-preview/pkg/registry"
)

// retryWithBackoff attempts to execute a function with exponential backoff
func retryWithBackoff(operation func() error, maxRetries int, initialDelay time.Duration, log *zap.Logger, operationName string) error {
	var err error
	delay := initialDelay

	for i := 0; i < maxRetries; i++ {
		err = operation()
		if err == nil {
			return nil
		}

		if i < maxRetries-1 {
			log.Warn(fmt.Sprintf("%s failed, retrying...", operationName),
				zap.Error(err),
				zap.Int("attempt", i+1),
				zap.Int("maxRetries", maxRetries),
				zap.Duration("nextRetryIn", delay),
			)
			time.Sleep(delay)
			delay *= 2
		}
	}

	return fmt.Errorf("%s failed after %d attempts: %w", operationName, maxRetries, err)
}

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "config load failed: %v\n", err)
		os.Exit(1)
	}

	zapLog := logger.NewWithOptions(logger.Options{
		Level:     cfg.Logging.Level,
		Format:    cfg.Logging.Format,
		Output:    cfg.Logging.Output,
		MaxSizeMB: cfg.Logging.MaxSizeMB,
	})
	defer zapLog.Sync()
	log := logger.NewZapAdapter(zapLog)

	zapLog.Info("Starting preview server...",
		zap.String("version", cfg.App.Version),
		zap.String("environment", cfg.App.Environment),
	)

	var obsOpts []observability.Option
	if cfg.Tracing.Enabled {
		obsOpts = append(obsOpts, observability.WithJaeger(cfg.Tracing.JaegerEndpoint))
	}
	obs := observability.New(cfg.Tracing.ServiceName, obsOpts...)
	defer obs.Shutdown()

	ctx := context.Background()
	deps := server.Dependencies{Obs: obs}

	// --- Card store with retry ---
	err = retryWithBackoff(func() error {
		var err error
		deps.SQL, err = database.Open(cfg.Database)
		if err != nil {
			return err
		}
		return deps.SQL.Ping(ctx)
	}, 15, 2*time.Second, zapLog, "Card store connection")
	if err != nil {
		zapLog.Fatal("card store failed after retries", zap.Error(err))
	}
	defer deps.SQL.Close()
	zapLog.Info("Card store connected", zap.String("driver", deps.SQL.Driver))

	// --- Redis domain cache (optional) ---
	if cfg.Database.Redis.Enabled {
		err = retryWithBackoff(func() error {
			var err error
			deps.Redis, err = database.NewRedis(cfg.Database.Redis)
			if err != nil {
				return err
			}
			return deps.Redis.Ping(ctx)
		}, 5, time.Second, zapLog, "Redis connection")
		if err != nil {
			// The cache is an optimization; run without it.
			zapLog.Warn("redis unavailable, domain cache disabled", zap.Error(err))
			if deps.Redis != nil {
				deps.Redis.Close()
			}
			deps.Redis = nil
		} else {
			defer deps.Redis.Close()
			zapLog.Info("Redis connected successfully")
		}
	}

	// --- Elasticsearch signal counter ---
	if cfg.Preview.EngagementSource == "elasticsearch" {
		err = retryWithBackoff(func() error {
			var err error
			deps.Elasticsearch, err = database.NewElasticsearch(cfg.Database.Elasticsearch)
			if err != nil {
				return err
			}
			return deps.Elasticsearch.Ping(ctx)
		}, 10, 2*time.Second, zapLog, "Elasticsearch connection")
		if err != nil {
			zapLog.Fatal("elasticsearch failed after retries", zap.Error(err))
		}
		zapLog.Info("Elasticsearch connected successfully")
	}

	if path := cfg.Assets.RegistryPath; path != "" {
		deps.Registry, err = registry.LoadRegistry(path)
		if err != nil {
			zapLog.Fatal("font registry load failed", zap.String("path", path), zap.Error(err))
		}
	}

	srv, err := server.New(cfg, deps, log)
	if err != nil {
		zapLog.Fatal("server wiring failed", zap.Error(err))
	}
	srv.Warm(ctx)

	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.ListenAndServe()
	}()

	// --- Graceful Shutdown ---
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)

	select {
	case sig := <-sigCh:
		zapLog.Info("Shutdown signal received", zap.String("signal", sig.String()))
	case err := <-errCh:
		if err != nil {
			zapLog.Error("HTTP server failed", zap.Error(err))
		}
	}

	if err := srv.Shutdown(context.Background()); err != nil {
		zapLog.Error("Error during shutdown", zap.Error(err))
	}
	zapLog.Info("Preview server stopped")
}

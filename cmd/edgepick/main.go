package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"edgepick/internal/api"
	"edgepick/internal/config"
	"edgepick/internal/logger"
	"edgepick/internal/prober"
	"edgepick/internal/session"
	"edgepick/internal/site"
	"edgepick/internal/storage"
	"edgepick/internal/storage/mysql"
	"edgepick/internal/storage/postgres"
	"edgepick/internal/storage/redis"
	"edgepick/internal/storage/sqlite"
)

func main() {
	if err := run(); err != nil {
		slog.Error("application failed", "error", err)
		os.Exit(1)
	}
}

func run() error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	log := logger.New(logger.Config{
		Environment: cfg.Environment,
		Level:       cfg.LogLevel,
		AppName:     "edgepick",
	})
	slog.SetDefault(log)

	// Canceled on SIGINT or SIGTERM.
	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	store, err := openStore(ctx, cfg, log)
	if err != nil {
		return err
	}
	if store != nil {
		defer store.Close()
	}

	policy, err := prober.ParseOpaquePolicy(cfg.OpaquePolicy)
	if err != nil {
		return err
	}

	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))

	p := prober.New(cfg.Endpoints,
		prober.WithTimeout(cfg.ProbeTimeout),
		prober.WithStrategies(prober.DefaultChain(cfg.BypassHeader, prober.DefaultMarkers)...),
		prober.WithOpaquePolicy(policy),
		prober.WithMaxConcurrency(cfg.ProbeMaxConcurrency),
		prober.WithMetrics(prober.NewMetrics(reg)),
		prober.WithLogger(log),
	)

	recorder := storage.NewRecorder(store, log)
	sessions := session.NewManager(p, cfg.SessionTTL,
		session.WithOnComplete(recorder.Record),
		session.WithLogger(log),
	)

	server := api.NewServer(cfg.HTTPPort, api.Deps{
		Scanner:  p,
		Sessions: sessions,
		Store:    store,
		Catalog:  site.Default(),
		Metrics:  promhttp.HandlerFor(reg, promhttp.HandlerOpts{}),
		Log:      log,
	})

	sessions.Start()
	serverErr := server.Start()

	log.Info("application is running",
		"endpoints", len(cfg.Endpoints),
		"timeout", cfg.ProbeTimeout,
		"opaque_policy", policy.String(),
		"storage", cfg.DatabaseDriver,
	)

	select {
	case <-ctx.Done():
		log.Info("shutdown signal received, starting graceful shutdown")
	case err := <-serverErr:
		if err != nil {
			sessions.Stop()
			return fmt.Errorf("could not start HTTP server: %w", err)
		}
	}

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), cfg.ShutdownGrace)
	defer shutdownCancel()

	// Stop sessions first so in-flight scans are abandoned, not recorded.
	sessions.Stop()

	if err := server.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("http server shutdown error: %w", err)
	}
	log.Info("application shut down gracefully")
	return nil
}

// openStore returns the configured scan history backend, or nil when
// history is disabled.
func openStore(ctx context.Context, cfg *config.Config, log *slog.Logger) (storage.Storer, error) {
	log.Info("initializing storage", "driver", cfg.DatabaseDriver)
	switch cfg.DatabaseDriver {
	case "none":
		return nil, nil
	case "sqlite":
		s, err := sqlite.New(ctx, cfg.DatabaseURL)
		if err != nil {
			return nil, fmt.Errorf("failed to initialize sqlite storage: %w", err)
		}
		return s, nil
	case "postgres":
		s, err := postgres.New(ctx, cfg.DatabaseURL)
		if err != nil {
			return nil, fmt.Errorf("failed to initialize postgres storage: %w", err)
		}
		return s, nil
	case "mysql":
		s, err := mysql.New(ctx, cfg.DatabaseURL)
		if err != nil {
			return nil, fmt.Errorf("failed to initialize mysql storage: %w", err)
		}
		return s, nil
	case "redis":
		s, err := redis.New(ctx, cfg.RedisAddr, cfg.RedisPassword, cfg.RedisDB)
		if err != nil {
			return nil, fmt.Errorf("failed to initialize redis storage: %w", err)
		}
		return s, nil
	default:
		return nil, fmt.Errorf("unknown database driver %q", cfg.DatabaseDriver)
	}
}

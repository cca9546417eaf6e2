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

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"

	"github.com/jcmexdev/laundry-intake/internal/laundry/core/intake"
	"github.com/jcmexdev/laundry-intake/internal/laundry/core/orders"
	"github.com/jcmexdev/laundry-intake/internal/laundry/core/ports"
	"github.com/jcmexdev/laundry-intake/internal/laundry/core/pricing"
	"github.com/jcmexdev/laundry-intake/internal/laundry/core/receipt"
	"github.com/jcmexdev/laundry-intake/internal/laundry/core/service"
	"github.com/jcmexdev/laundry-intake/internal/laundry/infra/httpx"
	"github.com/jcmexdev/laundry-intake/internal/laundry/infra/httpx/middlewares"
	"github.com/jcmexdev/laundry-intake/internal/laundry/infra/store/memory"
	"github.com/jcmexdev/laundry-intake/internal/laundry/infra/store/postgres"
	"github.com/jcmexdev/laundry-intake/internal/laundry/infra/store/sqlite"
	"github.com/jcmexdev/laundry-intake/internal/pkg/config"
	"github.com/jcmexdev/laundry-intake/internal/pkg/telemetry"
)

func main() {
	if err := run(); err != nil {
		slog.Error("laundry service stopped", "error", err)
		os.Exit(1)
	}
}

func run() error {
	cfg, err := config.Load(config.ResolvePath())
	if err != nil {
		return err
	}

	logCloser, err := telemetry.InitLogger(telemetry.LoggerConfig{
		Level:   cfg.Log.Level,
		Service: cfg.App.Name,
		File: telemetry.LogFile{
			Path:       cfg.Log.File.Path,
			MaxSizeMB:  cfg.Log.File.MaxSizeMB,
			MaxBackups: cfg.Log.File.MaxBackups,
			MaxAgeDays: cfg.Log.File.MaxAgeDays,
			Compress:   cfg.Log.File.Compress,
		},
	})
	if err != nil {
		return err
	}
	defer logCloser.Close()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if cfg.Tracing.Enabled {
		shutdown, err := telemetry.SetupTracer(ctx, telemetry.TracerConfig{
			ServiceName: cfg.App.Name,
			Endpoint:    cfg.Tracing.Endpoint,
			Environment: cfg.App.Env,
			SampleRatio: cfg.Tracing.SampleRatio,
		})
		if err != nil {
			return fmt.Errorf("failed to initialise tracer: %w", err)
		}
		defer func() {
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			if err := shutdown(shutdownCtx); err != nil {
				slog.Error("tracer shutdown error", "error", err)
			}
		}()
	}

	repo, closeRepo, err := openRepository(ctx, cfg)
	if err != nil {
		return err
	}
	defer closeRepo()

	prices, err := cfg.PriceTable()
	if err != nil {
		return err
	}
	calculator, err := pricing.NewCalculator(prices)
	if err != nil {
		return err
	}
	location, err := cfg.Location()
	if err != nil {
		return err
	}
	renderer, err := receipt.NewRenderer(receipt.Options{
		ShopName:     cfg.Receipt.ShopName,
		Currency:     cfg.Pricing.Currency,
		ContactPhone: cfg.Receipt.ContactPhone,
		Location:     location,
	})
	if err != nil {
		return err
	}

	store := orders.NewStore(repo, orders.WithMaxCodeAttempts(cfg.Store.CodeAttempts))
	intakeService := service.NewIntakeService(intake.NewValidator(), calculator, store)

	registry := prometheus.NewRegistry()
	registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	metrics := middlewares.NewMetrics(registry)

	handler := httpx.NewHandler(intakeService, renderer, prices, cfg.Receipt.ShopName,
		httpx.WithMetrics(metrics),
		httpx.WithMaxFormBytes(cfg.HTTP.MaxFormBytes),
	)

	srv := &http.Server{
		Addr:              cfg.HTTP.Addr,
		Handler:           httpx.NewRouter(handler, metrics, registry),
		ReadTimeout:       cfg.HTTP.ReadTimeout,
		ReadHeaderTimeout: cfg.HTTP.ReadTimeout,
		WriteTimeout:      cfg.HTTP.WriteTimeout,
		IdleTimeout:       cfg.HTTP.IdleTimeout,
	}

	serveErr := make(chan error, 1)
	go func() {
		slog.Info("laundry service HTTP running", "addr", cfg.HTTP.Addr, "store", cfg.Store.Driver)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serveErr <- err
		}
		close(serveErr)
	}()

	select {
	case err := <-serveErr:
		if err != nil {
			return fmt.Errorf("http server failed: %w", err)
		}
		return nil
	case <-ctx.Done():
	}

	slog.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.HTTP.ShutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("http shutdown: %w", err)
	}
	return nil
}

func openRepository(ctx context.Context, cfg config.Config) (ports.OrderRepository, func(), error) {
	switch cfg.Store.Driver {
	case config.DriverSQLite:
		repo, err := sqlite.Open(cfg.Store.SQLite.Path)
		if err != nil {
			return nil, nil, err
		}
		slog.Info("using sqlite store", "path", cfg.Store.SQLite.Path)
		return repo, func() {
			if err := repo.Close(); err != nil {
				slog.Error("sqlite close error", "error", err)
			}
		}, nil
	case config.DriverPostgres:
		repo, err := postgres.Open(ctx, cfg.Store.Postgres.URL)
		if err != nil {
			return nil, nil, err
		}
		slog.Info("using postgres store")
		return repo, repo.Close, nil
	case config.DriverMemory:
		slog.Warn("using in-memory store, orders are lost on restart")
		return memory.New(), func() {}, nil
	}
	return nil, nil, fmt.Errorf("unknown store driver %q", cfg.Store.Driver)
}

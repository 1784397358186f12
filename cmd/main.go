// cmd/main.go is the application entry point.
// It wires together all layers and starts the HTTP server.
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

	"go.opentelemetry.io/otel"

	"github.com/Shivanand-hulikatti/explore-events/internal/config"
	"github.com/Shivanand-hulikatti/explore-events/internal/database"
	"github.com/Shivanand-hulikatti/explore-events/internal/handler"
	"github.com/Shivanand-hulikatti/explore-events/internal/metrics"
	"github.com/Shivanand-hulikatti/explore-events/internal/ratelimit"
	"github.com/Shivanand-hulikatti/explore-events/internal/repository"
	"github.com/Shivanand-hulikatti/explore-events/internal/repository/memory"
	"github.com/Shivanand-hulikatti/explore-events/internal/service"
	"github.com/Shivanand-hulikatti/explore-events/internal/stats"
	"github.com/Shivanand-hulikatti/explore-events/internal/tracing"
)

type stores struct {
	events    repository.EventStore
	requests  repository.RequestStore
	directory repository.Directory
	close     func()
}

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "explore-events: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	cfg, err := config.Load(os.Getenv("CONFIG_FILE"))
	if err != nil {
		return err
	}
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: cfg.SlogLevel()}))

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// ── 1. Storage ───────────────────────────────────────────────────────
	st, err := openStores(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer st.close()

	// ── 2. Telemetry ─────────────────────────────────────────────────────
	httpMetrics := metrics.NewHTTP(cfg.AppName)
	mp, err := metrics.NewMeterProvider(httpMetrics, cfg.AppName)
	if err != nil {
		return fmt.Errorf("metrics: %w", err)
	}
	otel.SetMeterProvider(mp)
	defer shutdown(logger, "meter provider", mp.Shutdown)
	rec, err := metrics.New(mp)
	if err != nil {
		return fmt.Errorf("metrics: %w", err)
	}

	tp, err := tracing.NewProvider(ctx, cfg.Tracing, cfg.AppName, os.Stderr)
	if err != nil {
		return fmt.Errorf("tracing: %w", err)
	}
	tracing.Install(tp)
	if tp != nil {
		defer shutdown(logger, "tracer provider", tp.Shutdown)
	}

	// ── 3. Wire up layers ────────────────────────────────────────────────
	statsClient := stats.NewClient(cfg.Stats.URL, cfg.Stats.Timeout, stats.WithMetrics(rec))
	opts := []service.Option{service.WithLogger(logger), service.WithMetrics(rec)}
	listing := service.NewListing(st.events, st.requests, statsClient, cfg.Stats.Timeout, opts...)
	h := handler.New(handler.Services{
		Lifecycle: service.NewLifecycle(st.events, st.directory, listing, opts...),
		Admission: service.NewAdmission(st.events, st.requests, st.directory, opts...),
		Listing:   listing,
		Directory: service.NewDirectory(st.directory, opts...),
	}, statsClient, cfg.AppName, logger)

	var limiter *ratelimit.RateLimiter
	if cfg.RateLimit.RPS > 0 {
		limiter = ratelimit.New(cfg.RateLimit.RPS, cfg.RateLimit.Burst)
		go limiter.Run(ctx, 10*time.Minute)
	}

	// ── 4. Start server with graceful shutdown ────────────────────────────
	srv := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      handler.NewRouter(h, logger, limiter, httpMetrics),
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}
	return serve(ctx, srv, logger)
}

func openStores(ctx context.Context, cfg config.Config, logger *slog.Logger) (stores, error) {
	if cfg.Storage == config.StorageMemory {
		logger.Warn("using in-memory storage, data is lost on exit")
		s := memory.NewStore()
		return stores{events: s, requests: s, directory: s, close: func() {}}, nil
	}

	pool, err := database.NewPool(ctx, cfg.Database, logger)
	if err != nil {
		return stores{}, fmt.Errorf("database: %w", err)
	}
	if err := database.Migrate(ctx, pool); err != nil {
		pool.Close()
		return stores{}, fmt.Errorf("migrate: %w", err)
	}
	logger.Info("connected to postgres",
		slog.String("host", cfg.Database.Host),
		slog.String("database", cfg.Database.Name),
	)
	return stores{
		events:    repository.NewEventRepository(pool),
		requests:  repository.NewRequestRepository(pool),
		directory: repository.NewDirectoryRepository(pool),
		close:     pool.Close,
	}, nil
}

// shutdown flushes a telemetry provider on exit.
func shutdown(logger *slog.Logger, name string, fn func(context.Context) error) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := fn(ctx); err != nil {
		logger.Warn(name+" shutdown", slog.String("error", err.Error()))
	}
}

// serve runs srv until ctx is done, then drains connections.
func serve(ctx context.Context, srv *http.Server, logger *slog.Logger) error {
	errCh := make(chan error, 1)
	go func() {
		logger.Info("server listening", slog.String("addr", srv.Addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("server error: %w", err)
		}
		return nil
	case <-ctx.Done():
	}

	logger.Info("shutting down server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("graceful shutdown failed: %w", err)
	}
	logger.Info("server stopped")
	return nil
}

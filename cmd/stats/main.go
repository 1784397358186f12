// cmd/stats/main.go runs the statistics collector that stores endpoint
// hits and serves view counts to the events service.
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

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"go.opentelemetry.io/otel"

	"github.com/Shivanand-hulikatti/explore-events/internal/config"
	"github.com/Shivanand-hulikatti/explore-events/internal/handler"
	"github.com/Shivanand-hulikatti/explore-events/internal/metrics"
	"github.com/Shivanand-hulikatti/explore-events/internal/ratelimit"
	"github.com/Shivanand-hulikatti/explore-events/internal/statsserver"
	"github.com/Shivanand-hulikatti/explore-events/internal/tracing"
)

const serviceName = "stats-collector"

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "%s: %v\n", serviceName, err)
		os.Exit(1)
	}
}

func run() error {
	cfg, err := config.Load(os.Getenv("CONFIG_FILE"))
	if err != nil {
		return err
	}
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: cfg.SlogLevel()})).
		With(slog.String("service", serviceName))

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	store, err := statsserver.OpenStore(ctx, cfg.Collector.DBPath)
	if err != nil {
		return err
	}
	defer store.Close()
	logger.Info("hit store ready", slog.String("path", cfg.Collector.DBPath))

	tp, err := tracing.NewProvider(ctx, cfg.Tracing, serviceName, os.Stderr)
	if err != nil {
		return fmt.Errorf("tracing: %w", err)
	}
	tracing.Install(tp)
	if tp != nil {
		defer func() {
			flushCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			if err := tp.Shutdown(flushCtx); err != nil {
				logger.Warn("tracer provider shutdown", slog.String("error", err.Error()))
			}
		}()
	}

	httpMetrics := metrics.NewHTTP(serviceName)
	r := chi.NewRouter()
	r.Use(chimiddleware.Recoverer)
	r.Use(chimiddleware.RequestID)
	r.Use(chimiddleware.RealIP)
	r.Use(handler.Logger(logger))
	r.Use(httpMetrics.Middleware)
	r.Use(statsserver.Tracing(otel.Tracer(serviceName)))

	r.Get("/health", handler.HealthCheck)
	r.Handle("/metrics", httpMetrics.Handler())

	var hitLimiter func(http.Handler) http.Handler
	if cfg.RateLimit.RPS > 0 {
		limiter := ratelimit.New(cfg.RateLimit.RPS, cfg.RateLimit.Burst)
		go limiter.Run(ctx, 10*time.Minute)
		hitLimiter = limiter.Middleware
	}
	statsserver.NewHandler(store, logger).Routes(r, hitLimiter)

	srv := &http.Server{
		Addr:         ":" + cfg.Collector.Port,
		Handler:      r,
		ReadTimeout:  5 * time.Second,
		WriteTimeout: 10 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("collector listening", slog.String("addr", srv.Addr))
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

	logger.Info("shutting down collector")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}

package handler

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"

	"github.com/Shivanand-hulikatti/explore-events/internal/metrics"
	"github.com/Shivanand-hulikatti/explore-events/internal/ratelimit"
)

// NewRouter builds the service router. limiter and httpMetrics are
// optional.
func NewRouter(h *Handler, logger *slog.Logger, limiter *ratelimit.RateLimiter, httpMetrics *metrics.HTTP) http.Handler {
	r := chi.NewRouter()

	r.Use(chimiddleware.Recoverer)
	r.Use(chimiddleware.RequestID)
	r.Use(chimiddleware.RealIP)
	r.Use(Logger(logger))
	r.Use(CORS)
	if httpMetrics != nil {
		r.Use(httpMetrics.Middleware)
		r.Handle("/metrics", httpMetrics.Handler())
	}

	var public func(http.Handler) http.Handler
	if limiter != nil {
		public = limiter.Middleware
	}
	h.Routes(r, public)
	return r
}

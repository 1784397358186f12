// Package handler contains chi HTTP handlers that translate HTTP
// requests/responses to and from the service layer.
package handler

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/Shivanand-hulikatti/explore-events/internal/apperr"
	"github.com/Shivanand-hulikatti/explore-events/internal/model"
	"github.com/Shivanand-hulikatti/explore-events/internal/ratelimit"
	"github.com/Shivanand-hulikatti/explore-events/internal/service"
	"github.com/Shivanand-hulikatti/explore-events/internal/stats"
)

// HitRecorder sends endpoint hits to the stats collector.
type HitRecorder interface {
	Hit(ctx context.Context, hit stats.EndpointHit) error
}

// Services bundles the service layer.
type Services struct {
	Lifecycle *service.Lifecycle
	Admission *service.Admission
	Listing   *service.Listing
	Directory *service.Directory
}

// Handler holds all HTTP handlers for the events API.
type Handler struct {
	svc     Services
	hits    HitRecorder
	appName string
	logger  *slog.Logger
	now     func() time.Time
}

// New constructs a Handler. hits may be nil to disable hit recording.
func New(svc Services, hits HitRecorder, appName string, logger *slog.Logger) *Handler {
	return &Handler{
		svc:     svc,
		hits:    hits,
		appName: appName,
		logger:  logger,
		now:     time.Now,
	}
}

// ─── Helper utilities ─────────────────────────────────────────────────────────

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg, reason string) {
	writeJSON(w, status, model.ErrorResponse{Error: msg, Reason: reason})
}

func decodeJSON(w http.ResponseWriter, r *http.Request, dst any) error {
	r.Body = http.MaxBytesReader(w, r.Body, 1<<20) // 1 MB limit
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	return dec.Decode(dst)
}

// statusOf maps the error taxonomy onto HTTP status codes.
func statusOf(err error) int {
	switch {
	case errors.Is(err, apperr.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, apperr.ErrValidation):
		return http.StatusBadRequest
	case errors.Is(err, apperr.ErrForbidden):
		return http.StatusForbidden
	case errors.Is(err, apperr.ErrConflict):
		return http.StatusConflict
	case errors.Is(err, apperr.ErrUpstreamUnavailable):
		return http.StatusServiceUnavailable
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

func (h *Handler) fail(w http.ResponseWriter, r *http.Request, err error) {
	status := statusOf(err)
	if status == http.StatusInternalServerError {
		h.logger.ErrorContext(r.Context(), "request failed",
			slog.String("path", r.URL.Path),
			slog.String("error", err.Error()),
		)
		writeError(w, status, http.StatusText(status), "")
		return
	}
	writeError(w, status, http.StatusText(status), apperr.Message(err))
}

func badRequest(w http.ResponseWriter, reason string) {
	writeError(w, http.StatusBadRequest, http.StatusText(http.StatusBadRequest), reason)
}

// recordHit reports a public view to the collector. Failures are logged
// and never reach the caller.
func (h *Handler) recordHit(r *http.Request) {
	if h.hits == nil {
		return
	}
	err := h.hits.Hit(r.Context(), stats.EndpointHit{
		App:       h.appName,
		URI:       r.URL.Path,
		IP:        ratelimit.ClientIP(r),
		Timestamp: model.FormatDateTime(h.now()),
	})
	if err != nil {
		h.logger.WarnContext(r.Context(), "record hit failed",
			slog.String("uri", r.URL.Path),
			slog.String("error", err.Error()),
		)
	}
}

// Routes mounts every endpoint on r. public wraps the unauthenticated
// /events routes; pass nil to leave them unthrottled.
func (h *Handler) Routes(r chi.Router, public func(http.Handler) http.Handler) {
	r.Get("/health", HealthCheck)

	r.Route("/events", func(r chi.Router) {
		if public != nil {
			r.Use(public)
		}
		r.Get("/", h.ListPublic)
		r.Get("/{eventId}", h.PublicEvent)
	})

	r.Route("/users/{userId}", func(r chi.Router) {
		r.Get("/events", h.OwnerEvents)
		r.Post("/events", h.CreateEvent)
		r.Patch("/events", h.EditByOwner)
		r.Get("/events/{eventId}", h.OwnerEvent)
		r.Patch("/events/{eventId}", h.CancelByOwner)
		r.Get("/events/{eventId}/requests", h.EventRequests)
		r.Patch("/events/{eventId}/requests/{reqId}/confirm", h.ConfirmRequest)
		r.Patch("/events/{eventId}/requests/{reqId}/reject", h.RejectRequest)

		r.Get("/requests", h.RequesterRequests)
		r.Post("/requests", h.CreateRequest)
		r.Patch("/requests/{reqId}/cancel", h.CancelRequest)
	})

	r.Route("/admin", func(r chi.Router) {
		r.Get("/events", h.SearchAdmin)
		r.Put("/events/{eventId}", h.EditByAdmin)
		r.Patch("/events/{eventId}/publish", h.Publish)
		r.Patch("/events/{eventId}/reject", h.RejectEvent)
		r.Post("/users", h.CreateUser)
		r.Post("/categories", h.CreateCategory)
	})
}

// ─── Health check ─────────────────────────────────────────────────────────────

// HealthCheck handles GET /health
func HealthCheck(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

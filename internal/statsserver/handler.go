package statsserver

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/Shivanand-hulikatti/explore-events/internal/model"
	"github.com/Shivanand-hulikatti/explore-events/internal/stats"
)

// HitStore is the persistence the handlers need. *Store implements it.
type HitStore interface {
	Save(ctx context.Context, h Hit) error
	Stats(ctx context.Context, q stats.Query) ([]stats.ViewStats, error)
}

// Handler serves the collector API.
type Handler struct {
	store  HitStore
	logger *slog.Logger
}

// NewHandler constructs a Handler.
func NewHandler(store HitStore, logger *slog.Logger) *Handler {
	return &Handler{store: store, logger: logger}
}

// Routes mounts the collector endpoints. hitLimiter, when non-nil, wraps
// POST /hit.
func (h *Handler) Routes(r chi.Router, hitLimiter func(http.Handler) http.Handler) {
	r.Group(func(r chi.Router) {
		if hitLimiter != nil {
			r.Use(hitLimiter)
		}
		r.Post("/hit", h.SaveHit)
	})
	r.Get("/stats", h.GetStats)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, model.ErrorResponse{Error: msg})
}

// SaveHit handles POST /hit
func (h *Handler) SaveHit(w http.ResponseWriter, r *http.Request) {
	var in stats.EndpointHit
	r.Body = http.MaxBytesReader(w, r.Body, 64<<10)
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(&in); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body: "+err.Error())
		return
	}
	if strings.TrimSpace(in.App) == "" || strings.TrimSpace(in.URI) == "" || strings.TrimSpace(in.IP) == "" {
		writeError(w, http.StatusBadRequest, "app, uri and ip are required")
		return
	}
	created, err := model.ParseDateTime(in.Timestamp)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	if err := h.store.Save(r.Context(), Hit{App: in.App, URI: in.URI, IP: in.IP, Created: created}); err != nil {
		h.logger.ErrorContext(r.Context(), "save hit failed", slog.String("error", err.Error()))
		writeError(w, http.StatusInternalServerError, "failed to save hit")
		return
	}
	writeJSON(w, http.StatusCreated, in)
}

// GetStats handles GET /stats?start=&end=&uris=&unique=
func (h *Handler) GetStats(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()

	start, err := model.ParseDateTime(q.Get("start"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "start: "+err.Error())
		return
	}
	end, err := model.ParseDateTime(q.Get("end"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "end: "+err.Error())
		return
	}
	if end.Before(start) {
		writeError(w, http.StatusBadRequest, "end is before start")
		return
	}

	unique := false
	if v := q.Get("unique"); v != "" {
		unique, err = strconv.ParseBool(v)
		if err != nil {
			writeError(w, http.StatusBadRequest, "unique must be a boolean")
			return
		}
	}

	var uris []string
	for _, v := range q["uris"] {
		for _, u := range strings.Split(v, ",") {
			if u = strings.TrimSpace(u); u != "" {
				uris = append(uris, u)
			}
		}
	}

	out, err := h.store.Stats(r.Context(), stats.Query{Start: start, End: end, URIs: uris, Unique: unique})
	if err != nil {
		h.logger.ErrorContext(r.Context(), "query stats failed", slog.String("error", err.Error()))
		writeError(w, http.StatusInternalServerError, "failed to query stats")
		return
	}
	writeJSON(w, http.StatusOK, out)
}

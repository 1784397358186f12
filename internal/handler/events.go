package handler

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/Shivanand-hulikatti/explore-events/internal/model"
)

// ListPublic handles GET /events
// Published events filtered by text, categories, paid, date range and
// availability. Responds 404 when nothing matches.
func (h *Handler) ListPublic(w http.ResponseWriter, r *http.Request) {
	f, err := publicFilter(r.URL.Query())
	if err != nil {
		badRequest(w, err.Error())
		return
	}
	h.recordHit(r)

	events, err := h.svc.Listing.ListPublic(r.Context(), f)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, events)
}

// PublicEvent handles GET /events/{eventId}
func (h *Handler) PublicEvent(w http.ResponseWriter, r *http.Request) {
	event, err := h.svc.Listing.PublicEvent(r.Context(), chi.URLParam(r, "eventId"))
	if err != nil {
		h.fail(w, r, err)
		return
	}
	// Only views of an existing published event are counted.
	h.recordHit(r)
	writeJSON(w, http.StatusOK, event)
}

// CreateEvent handles POST /users/{userId}/events
func (h *Handler) CreateEvent(w http.ResponseWriter, r *http.Request) {
	var req model.NewEventRequest
	if err := decodeJSON(w, r, &req); err != nil {
		badRequest(w, "invalid request body: "+err.Error())
		return
	}

	event, err := h.svc.Lifecycle.Create(r.Context(), chi.URLParam(r, "userId"), req)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, event)
}

// EditByOwner handles PATCH /users/{userId}/events
// The body carries the event id and the fields to change.
func (h *Handler) EditByOwner(w http.ResponseWriter, r *http.Request) {
	var req model.UpdateEventRequest
	if err := decodeJSON(w, r, &req); err != nil {
		badRequest(w, "invalid request body: "+err.Error())
		return
	}

	event, err := h.svc.Lifecycle.EditByOwner(r.Context(), chi.URLParam(r, "userId"), req)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, event)
}

// CancelByOwner handles PATCH /users/{userId}/events/{eventId}
func (h *Handler) CancelByOwner(w http.ResponseWriter, r *http.Request) {
	event, err := h.svc.Lifecycle.CancelByOwner(r.Context(), chi.URLParam(r, "userId"), chi.URLParam(r, "eventId"))
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, event)
}

// OwnerEvents handles GET /users/{userId}/events
func (h *Handler) OwnerEvents(w http.ResponseWriter, r *http.Request) {
	page, err := pageParams(r.URL.Query())
	if err != nil {
		badRequest(w, err.Error())
		return
	}

	events, err := h.svc.Lifecycle.OwnerEvents(r.Context(), chi.URLParam(r, "userId"), page)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, events)
}

// OwnerEvent handles GET /users/{userId}/events/{eventId}
func (h *Handler) OwnerEvent(w http.ResponseWriter, r *http.Request) {
	event, err := h.svc.Lifecycle.OwnerEvent(r.Context(), chi.URLParam(r, "userId"), chi.URLParam(r, "eventId"))
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, event)
}

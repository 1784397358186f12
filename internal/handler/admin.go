package handler

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/Shivanand-hulikatti/explore-events/internal/model"
)

// SearchAdmin handles GET /admin/events
func (h *Handler) SearchAdmin(w http.ResponseWriter, r *http.Request) {
	f, err := adminFilter(r.URL.Query())
	if err != nil {
		badRequest(w, err.Error())
		return
	}

	events, err := h.svc.Listing.SearchAdmin(r.Context(), f)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, events)
}

// EditByAdmin handles PUT /admin/events/{eventId}
func (h *Handler) EditByAdmin(w http.ResponseWriter, r *http.Request) {
	var req model.AdminUpdateEventRequest
	if err := decodeJSON(w, r, &req); err != nil {
		badRequest(w, "invalid request body: "+err.Error())
		return
	}

	event, err := h.svc.Lifecycle.EditByAdmin(r.Context(), chi.URLParam(r, "eventId"), req)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, event)
}

// Publish handles PATCH /admin/events/{eventId}/publish
func (h *Handler) Publish(w http.ResponseWriter, r *http.Request) {
	event, err := h.svc.Lifecycle.PublishByAdmin(r.Context(), chi.URLParam(r, "eventId"))
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, event)
}

// RejectEvent handles PATCH /admin/events/{eventId}/reject
func (h *Handler) RejectEvent(w http.ResponseWriter, r *http.Request) {
	event, err := h.svc.Lifecycle.RejectByAdmin(r.Context(), chi.URLParam(r, "eventId"))
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, event)
}

// CreateUser handles POST /admin/users
func (h *Handler) CreateUser(w http.ResponseWriter, r *http.Request) {
	var req model.NewUserRequest
	if err := decodeJSON(w, r, &req); err != nil {
		badRequest(w, "invalid request body: "+err.Error())
		return
	}

	user, err := h.svc.Directory.CreateUser(r.Context(), req)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, user)
}

// CreateCategory handles POST /admin/categories
func (h *Handler) CreateCategory(w http.ResponseWriter, r *http.Request) {
	var req model.NewCategoryRequest
	if err := decodeJSON(w, r, &req); err != nil {
		badRequest(w, "invalid request body: "+err.Error())
		return
	}

	category, err := h.svc.Directory.CreateCategory(r.Context(), req)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, category)
}

package handler

import (
	"net/http"

	"github.com/go-chi/chi/v5"
)

// CreateRequest handles POST /users/{userId}/requests?eventId=
func (h *Handler) CreateRequest(w http.ResponseWriter, r *http.Request) {
	eventID := r.URL.Query().Get("eventId")
	if eventID == "" {
		badRequest(w, "eventId query parameter is required")
		return
	}

	req, err := h.svc.Admission.CreateRequest(r.Context(), chi.URLParam(r, "userId"), eventID)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, req)
}

// RequesterRequests handles GET /users/{userId}/requests
func (h *Handler) RequesterRequests(w http.ResponseWriter, r *http.Request) {
	reqs, err := h.svc.Admission.RequesterRequests(r.Context(), chi.URLParam(r, "userId"))
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, reqs)
}

// CancelRequest handles PATCH /users/{userId}/requests/{reqId}/cancel
func (h *Handler) CancelRequest(w http.ResponseWriter, r *http.Request) {
	req, err := h.svc.Admission.CancelOwn(r.Context(), chi.URLParam(r, "userId"), chi.URLParam(r, "reqId"))
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, req)
}

// EventRequests handles GET /users/{userId}/events/{eventId}/requests
func (h *Handler) EventRequests(w http.ResponseWriter, r *http.Request) {
	reqs, err := h.svc.Admission.EventRequests(r.Context(), chi.URLParam(r, "userId"), chi.URLParam(r, "eventId"))
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, reqs)
}

// ConfirmRequest handles PATCH /users/{userId}/events/{eventId}/requests/{reqId}/confirm
// The response lists the requests rejected because the event became full.
func (h *Handler) ConfirmRequest(w http.ResponseWriter, r *http.Request) {
	res, err := h.svc.Admission.Confirm(r.Context(),
		chi.URLParam(r, "userId"), chi.URLParam(r, "eventId"), chi.URLParam(r, "reqId"))
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, res)
}

// RejectRequest handles PATCH /users/{userId}/events/{eventId}/requests/{reqId}/reject
func (h *Handler) RejectRequest(w http.ResponseWriter, r *http.Request) {
	req, err := h.svc.Admission.Reject(r.Context(),
		chi.URLParam(r, "userId"), chi.URLParam(r, "eventId"), chi.URLParam(r, "reqId"))
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, req)
}

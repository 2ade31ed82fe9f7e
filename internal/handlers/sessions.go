package handlers

import (
	"net/http"

	"openjudge/internal/middleware"
	"openjudge/internal/response"
	"openjudge/internal/session"
)

// Sessions exposes the per-user session registry.
type Sessions struct {
	registry *session.Registry
}

// NewSessions creates the Sessions handler group.
func NewSessions(registry *session.Registry) *Sessions {
	return &Sessions{registry: registry}
}

// List enumerates the caller's active sessions, marking the one backing
// this request. Identifiers whose store entry has expired are pruned as a
// side effect, permanently.
func (h *Sessions) List(w http.ResponseWriter, r *http.Request) {
	entries, err := h.registry.List(r.Context(), principal(r), middleware.SessionIDFromCtx(r.Context()))
	if err != nil {
		response.ServerError(w, err)
		return
	}
	response.Success(w, entries)
}

// Revoke terminates one of the caller's sessions by identifier, taken
// from the session_key query parameter.
func (h *Sessions) Revoke(w http.ResponseWriter, r *http.Request) {
	key := r.URL.Query().Get("session_key")
	if key == "" {
		response.Error(w, "Parameter Error")
		return
	}

	if err := h.registry.Revoke(r.Context(), principal(r), key); err != nil {
		response.Err(w, err)
		return
	}
	response.Succeeded(w)
}

package api

import (
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/learnhub/sessionguard/pkg/client"
	"github.com/learnhub/sessionguard/pkg/sessions"
)

// Handler handles HTTP requests for session management
type Handler struct {
	service *sessions.Service
}

// NewHandler creates a new session handler
func NewHandler(service *sessions.Service) *Handler {
	return &Handler{
		service: service,
	}
}

// RegisterRoutes registers the session management routes.
// These routes should be mounted under an authenticated route group.
func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Get("/", h.ListSessions)
}

// ListSessionsResponse wraps the session list
type ListSessionsResponse struct {
	Sessions []sessions.SessionSummary `json:"sessions"`
	Current  string                    `json:"current,omitempty"`
}

// ListSessions handles GET / - list sessions for the current account, newest
// first. The entry backing the presented token is flagged as current.
func (h *Handler) ListSessions(w http.ResponseWriter, r *http.Request) {
	authUser, ok := client.GetAuthUser(r)
	if !ok {
		http.Error(w, "Unauthorized", http.StatusUnauthorized)
		return
	}

	summaries, err := h.service.ListForAccount(r.Context(), authUser.AccountID)
	if err != nil {
		slog.Error("Failed to list sessions", "accountID", authUser.AccountID, "err", err)
		http.Error(w, "Failed to list sessions", http.StatusInternalServerError)
		return
	}

	response := ListSessionsResponse{Sessions: summaries}
	if current, err := h.service.Validate(r.Context(), authUser.Token, authUser.AccountID); err == nil {
		response.Current = current.ID.String()
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(response)
}

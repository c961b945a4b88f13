package api

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/learnhub/sessionguard/pkg/client"
	"github.com/learnhub/sessionguard/pkg/device"
)

// Handler handles HTTP requests for the device log
type Handler struct {
	repo device.Repository
}

// NewHandler creates a new device log handler
func NewHandler(repo device.Repository) *Handler {
	return &Handler{
		repo: repo,
	}
}

// RegisterRoutes registers the device log routes.
// These routes should be mounted under an authenticated route group.
func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Get("/", h.ListDevices)
}

// DeviceEntry is the device log entry returned to clients. The raw
// fingerprint hash is included so support staff can correlate entries with
// rejected logins.
type DeviceEntry struct {
	Fingerprint  string            `json:"fingerprint"`
	DeviceInfo   device.DeviceInfo `json:"device_info"`
	FirstLoginAt time.Time         `json:"first_login_at"`
	LastLoginAt  time.Time         `json:"last_login_at"`
	LoginCount   int               `json:"login_count"`
	Blocked      bool              `json:"blocked"`
}

// ListDevicesResponse wraps the device list
type ListDevicesResponse struct {
	Devices []DeviceEntry `json:"devices"`
}

// ListDevices handles GET / - list all devices the current account has
// logged in from
func (h *Handler) ListDevices(w http.ResponseWriter, r *http.Request) {
	authUser, ok := client.GetAuthUser(r)
	if !ok {
		http.Error(w, "Unauthorized", http.StatusUnauthorized)
		return
	}

	entries, err := h.repo.ListByAccount(r.Context(), authUser.AccountID)
	if err != nil {
		slog.Error("Failed to list devices", "accountID", authUser.AccountID, "err", err)
		http.Error(w, "Failed to list devices", http.StatusInternalServerError)
		return
	}

	response := ListDevicesResponse{Devices: make([]DeviceEntry, 0, len(entries))}
	for _, entry := range entries {
		response.Devices = append(response.Devices, DeviceEntry{
			Fingerprint:  entry.Fingerprint,
			DeviceInfo:   entry.DeviceInfo,
			FirstLoginAt: entry.FirstLoginAt,
			LastLoginAt:  entry.LastLoginAt,
			LoginCount:   entry.LoginCount,
			Blocked:      entry.Blocked,
		})
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(response)
}

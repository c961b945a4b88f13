package sessions

import (
	"errors"
	"time"

	"github.com/google/uuid"

	"github.com/learnhub/sessionguard/pkg/device"
)

// ErrNotFound is returned when no session matches the lookup
var ErrNotFound = errors.New("session not found")

// Session binds one login credential to one device fingerprint. A session
// stays active until it is superseded by a later login for the same account
// or explicitly logged out; it is soft-revoked, never deleted.
type Session struct {
	ID             uuid.UUID         `json:"id"`
	AccountID      uuid.UUID         `json:"account_id"`
	Token          string            `json:"-"` // credential token this session is bound to, unique per session
	Fingerprint    string            `json:"fingerprint"`
	DeviceInfo     device.DeviceInfo `json:"device_info"`
	Active         bool              `json:"active"`
	LastActivityAt time.Time         `json:"last_activity_at"`
	CreatedAt      time.Time         `json:"created_at"`
}

// CreateSessionParams carries the inputs for session creation
type CreateSessionParams struct {
	AccountID   uuid.UUID
	Token       string
	Fingerprint string
	DeviceInfo  device.DeviceInfo
	At          time.Time
}

// SessionSummary is a simplified session view for listing
type SessionSummary struct {
	ID             uuid.UUID         `json:"id"`
	Fingerprint    string            `json:"fingerprint"`
	DeviceInfo     device.DeviceInfo `json:"device_info"`
	Active         bool              `json:"active"`
	LastActivityAt time.Time         `json:"last_activity_at"`
	CreatedAt      time.Time         `json:"created_at"`
}

// Summary converts a session to its listing view
func (s *Session) Summary() SessionSummary {
	return SessionSummary{
		ID:             s.ID,
		Fingerprint:    s.Fingerprint,
		DeviceInfo:     s.DeviceInfo,
		Active:         s.Active,
		LastActivityAt: s.LastActivityAt,
		CreatedAt:      s.CreatedAt,
	}
}

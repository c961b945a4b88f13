package device

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
)

// ErrNotFound is returned when no device log entry matches the lookup
var ErrNotFound = errors.New("device log entry not found")

// DeviceLogEntry records that an account has logged in from a fingerprint.
// One entry exists per (account, fingerprint) pair; it is upserted on every
// login and never deleted by this subsystem.
type DeviceLogEntry struct {
	AccountID    uuid.UUID  `json:"account_id"`
	Fingerprint  string     `json:"fingerprint"`
	DeviceInfo   DeviceInfo `json:"device_info"`
	FirstLoginAt time.Time  `json:"first_login_at"`
	LastLoginAt  time.Time  `json:"last_login_at"`
	LoginCount   int        `json:"login_count"`
	// Blocked is set by external moderation and is read-only here
	Blocked bool `json:"blocked"`
}

// RecordLoginParams carries the inputs for the login upsert
type RecordLoginParams struct {
	AccountID   uuid.UUID
	Fingerprint string
	DeviceInfo  DeviceInfo
	At          time.Time
}

// Repository defines the interface for device log storage operations
type Repository interface {
	// RecordLogin upserts the entry for (account, fingerprint) as a single
	// atomic operation: on insert FirstLoginAt is set to the login time; on
	// every call DeviceInfo and LastLoginAt are replaced and LoginCount is
	// incremented by one. The increment must not lose updates under
	// concurrent logins from the same fingerprint.
	RecordLogin(ctx context.Context, params RecordLoginParams) (DeviceLogEntry, error)

	// ListRecent returns the non-blocked entries for an account whose
	// LastLoginAt is after since, used for monthly-cap accounting
	ListRecent(ctx context.Context, accountID uuid.UUID, since time.Time) ([]DeviceLogEntry, error)

	// GetByFingerprint returns the entry for (account, fingerprint),
	// or ErrNotFound
	GetByFingerprint(ctx context.Context, accountID uuid.UUID, fingerprint string) (DeviceLogEntry, error)

	// ListByAccount returns all entries for an account, most recent first
	ListByAccount(ctx context.Context, accountID uuid.UUID) ([]DeviceLogEntry, error)

	// SetBlocked marks an entry as blocked or unblocked (moderation hook)
	SetBlocked(ctx context.Context, accountID uuid.UUID, fingerprint string, blocked bool) error
}

package sessions

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// Repository defines the interface for session data access
type Repository interface {
	// Create persists a new active session
	Create(ctx context.Context, params CreateSessionParams) (*Session, error)

	// FindActiveByToken returns the active session bound to (token, account),
	// or ErrNotFound. Scoping by both fields prevents one account's token
	// from resolving another account's session.
	FindActiveByToken(ctx context.Context, token string, accountID uuid.UUID) (*Session, error)

	// LatestExcludingFingerprint returns the most recently created session
	// for an account whose fingerprint differs from the given one (active or
	// not), or ErrNotFound when the account has never used another device
	LatestExcludingFingerprint(ctx context.Context, accountID uuid.UUID, fingerprint string) (*Session, error)

	// DeactivateAllByAccount soft-revokes every active session for an
	// account and reports how many were revoked
	DeactivateAllByAccount(ctx context.Context, accountID uuid.UUID) (int, error)

	// Deactivate soft-revokes the session bound to (token, account).
	// Idempotent: deactivating a missing or already-inactive session is not
	// an error.
	Deactivate(ctx context.Context, token string, accountID uuid.UUID) error

	// TouchActivity updates a session's last activity timestamp
	TouchActivity(ctx context.Context, id uuid.UUID, at time.Time) error

	// ListByAccount returns all sessions for an account, newest first
	ListByAccount(ctx context.Context, accountID uuid.UUID) ([]Session, error)

	// CountActiveByAccount counts active sessions for an account
	CountActiveByAccount(ctx context.Context, accountID uuid.UUID) (int, error)
}

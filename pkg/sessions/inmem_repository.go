package sessions

import (
	"context"
	"log/slog"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
)

// InMemRepository implements Repository using an in-memory map
type InMemRepository struct {
	sessions map[uuid.UUID]Session
	mu       sync.Mutex
}

// NewInMemRepository creates a new in-memory session repository
func NewInMemRepository() *InMemRepository {
	return &InMemRepository{
		sessions: make(map[uuid.UUID]Session),
	}
}

// Create persists a new active session
func (r *InMemRepository) Create(ctx context.Context, params CreateSessionParams) (*Session, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	session := Session{
		ID:             uuid.New(),
		AccountID:      params.AccountID,
		Token:          params.Token,
		Fingerprint:    params.Fingerprint,
		DeviceInfo:     params.DeviceInfo,
		Active:         true,
		LastActivityAt: params.At,
		CreatedAt:      params.At,
	}
	r.sessions[session.ID] = session

	slog.Debug("Session created", "sessionID", session.ID, "accountID", params.AccountID)
	return &session, nil
}

// FindActiveByToken returns the active session bound to (token, account)
func (r *InMemRepository) FindActiveByToken(ctx context.Context, token string, accountID uuid.UUID) (*Session, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	for _, session := range r.sessions {
		if session.Token == token && session.AccountID == accountID && session.Active {
			found := session
			return &found, nil
		}
	}

	return nil, ErrNotFound
}

// LatestExcludingFingerprint returns the most recently created session with
// a different fingerprint
func (r *InMemRepository) LatestExcludingFingerprint(ctx context.Context, accountID uuid.UUID, fingerprint string) (*Session, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	var latest *Session
	for _, session := range r.sessions {
		if session.AccountID != accountID || session.Fingerprint == fingerprint {
			continue
		}
		if latest == nil || session.CreatedAt.After(latest.CreatedAt) {
			found := session
			latest = &found
		}
	}

	if latest == nil {
		return nil, ErrNotFound
	}
	return latest, nil
}

// DeactivateAllByAccount soft-revokes every active session for an account
func (r *InMemRepository) DeactivateAllByAccount(ctx context.Context, accountID uuid.UUID) (int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	revoked := 0
	for id, session := range r.sessions {
		if session.AccountID == accountID && session.Active {
			session.Active = false
			r.sessions[id] = session
			revoked++
		}
	}

	slog.Debug("Deactivated sessions for account", "accountID", accountID, "revoked", revoked)
	return revoked, nil
}

// Deactivate soft-revokes the session bound to (token, account), idempotently
func (r *InMemRepository) Deactivate(ctx context.Context, token string, accountID uuid.UUID) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	for id, session := range r.sessions {
		if session.Token == token && session.AccountID == accountID && session.Active {
			session.Active = false
			r.sessions[id] = session
			slog.Debug("Session deactivated", "sessionID", id, "accountID", accountID)
			return nil
		}
	}

	// No match is fine: logout is idempotent
	return nil
}

// TouchActivity updates a session's last activity timestamp
func (r *InMemRepository) TouchActivity(ctx context.Context, id uuid.UUID, at time.Time) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	session, exists := r.sessions[id]
	if !exists {
		return ErrNotFound
	}

	session.LastActivityAt = at
	r.sessions[id] = session
	return nil
}

// ListByAccount returns all sessions for an account, newest first
func (r *InMemRepository) ListByAccount(ctx context.Context, accountID uuid.UUID) ([]Session, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	var sessions []Session
	for _, session := range r.sessions {
		if session.AccountID == accountID {
			sessions = append(sessions, session)
		}
	}
	sort.Slice(sessions, func(i, j int) bool {
		return sessions[i].CreatedAt.After(sessions[j].CreatedAt)
	})

	return sessions, nil
}

// CountActiveByAccount counts active sessions for an account
func (r *InMemRepository) CountActiveByAccount(ctx context.Context, accountID uuid.UUID) (int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	count := 0
	for _, session := range r.sessions {
		if session.AccountID == accountID && session.Active {
			count++
		}
	}

	return count, nil
}

package device

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
	entries map[string]DeviceLogEntry
	mu      sync.Mutex
}

// NewInMemRepository creates a new in-memory device log repository
func NewInMemRepository() *InMemRepository {
	return &InMemRepository{
		entries: make(map[string]DeviceLogEntry),
	}
}

func entryKey(accountID uuid.UUID, fingerprint string) string {
	return accountID.String() + ":" + fingerprint
}

// RecordLogin upserts the entry for (account, fingerprint). The whole
// read-modify-write runs under the repository lock, so concurrent logins
// from the same fingerprint never lose an increment.
func (r *InMemRepository) RecordLogin(ctx context.Context, params RecordLoginParams) (DeviceLogEntry, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	key := entryKey(params.AccountID, params.Fingerprint)

	entry, exists := r.entries[key]
	if !exists {
		entry = DeviceLogEntry{
			AccountID:    params.AccountID,
			Fingerprint:  params.Fingerprint,
			FirstLoginAt: params.At,
		}
		slog.Debug("Creating device log entry", "accountID", params.AccountID, "fingerprint", params.Fingerprint)
	}

	entry.DeviceInfo = params.DeviceInfo
	entry.LastLoginAt = params.At
	entry.LoginCount++
	r.entries[key] = entry

	return entry, nil
}

// ListRecent returns non-blocked entries with LastLoginAt after since
func (r *InMemRepository) ListRecent(ctx context.Context, accountID uuid.UUID, since time.Time) ([]DeviceLogEntry, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	var entries []DeviceLogEntry
	for _, entry := range r.entries {
		if entry.AccountID == accountID && !entry.Blocked && entry.LastLoginAt.After(since) {
			entries = append(entries, entry)
		}
	}

	slog.Debug("Found recent device log entries", "accountID", accountID, "count", len(entries))
	return entries, nil
}

// GetByFingerprint returns the entry for (account, fingerprint)
func (r *InMemRepository) GetByFingerprint(ctx context.Context, accountID uuid.UUID, fingerprint string) (DeviceLogEntry, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	entry, exists := r.entries[entryKey(accountID, fingerprint)]
	if !exists {
		return DeviceLogEntry{}, ErrNotFound
	}
	return entry, nil
}

// ListByAccount returns all entries for an account, most recent login first
func (r *InMemRepository) ListByAccount(ctx context.Context, accountID uuid.UUID) ([]DeviceLogEntry, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	var entries []DeviceLogEntry
	for _, entry := range r.entries {
		if entry.AccountID == accountID {
			entries = append(entries, entry)
		}
	}
	sort.Slice(entries, func(i, j int) bool {
		return entries[i].LastLoginAt.After(entries[j].LastLoginAt)
	})

	return entries, nil
}

// SetBlocked marks an entry as blocked or unblocked
func (r *InMemRepository) SetBlocked(ctx context.Context, accountID uuid.UUID, fingerprint string, blocked bool) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	key := entryKey(accountID, fingerprint)
	entry, exists := r.entries[key]
	if !exists {
		return ErrNotFound
	}

	entry.Blocked = blocked
	r.entries[key] = entry
	slog.Debug("Device log entry block flag updated", "accountID", accountID, "fingerprint", fingerprint, "blocked", blocked)
	return nil
}

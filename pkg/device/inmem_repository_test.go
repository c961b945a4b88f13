package device

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestInMemRepository_RecordLogin(t *testing.T) {
	repo := NewInMemRepository()
	ctx := context.Background()

	accountID := uuid.New()
	first := time.Date(2025, 6, 1, 10, 0, 0, 0, time.UTC)

	entry, err := repo.RecordLogin(ctx, RecordLoginParams{
		AccountID:   accountID,
		Fingerprint: "fp-1",
		DeviceInfo:  DeviceInfo{BrowserName: "Chrome", IPAddress: "203.0.113.9"},
		At:          first,
	})
	require.NoError(t, err)
	assert.Equal(t, 1, entry.LoginCount)
	assert.Equal(t, first, entry.FirstLoginAt)
	assert.Equal(t, first, entry.LastLoginAt)

	// Second login from the same fingerprint updates in place
	second := first.Add(2 * time.Hour)
	entry, err = repo.RecordLogin(ctx, RecordLoginParams{
		AccountID:   accountID,
		Fingerprint: "fp-1",
		DeviceInfo:  DeviceInfo{BrowserName: "Chrome", IPAddress: "198.51.100.7"},
		At:          second,
	})
	require.NoError(t, err)
	assert.Equal(t, 2, entry.LoginCount)
	assert.Equal(t, first, entry.FirstLoginAt, "first login time must not change on upsert")
	assert.Equal(t, second, entry.LastLoginAt)
	assert.Equal(t, "198.51.100.7", entry.DeviceInfo.IPAddress, "device info reflects latest observation")

	// Still exactly one entry for the pair
	entries, err := repo.ListByAccount(ctx, accountID)
	require.NoError(t, err)
	assert.Len(t, entries, 1)
}

func TestInMemRepository_RecordLogin_Concurrent(t *testing.T) {
	repo := NewInMemRepository()
	ctx := context.Background()
	accountID := uuid.New()

	const logins = 50
	var wg sync.WaitGroup
	for i := 0; i < logins; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := repo.RecordLogin(ctx, RecordLoginParams{
				AccountID:   accountID,
				Fingerprint: "fp-1",
				At:          time.Now().UTC(),
			})
			assert.NoError(t, err)
		}()
	}
	wg.Wait()

	entry, err := repo.GetByFingerprint(ctx, accountID, "fp-1")
	require.NoError(t, err)
	assert.Equal(t, logins, entry.LoginCount, "no increments may be lost under concurrent logins")
}

func TestInMemRepository_ListRecent(t *testing.T) {
	repo := NewInMemRepository()
	ctx := context.Background()
	accountID := uuid.New()
	now := time.Date(2025, 6, 15, 12, 0, 0, 0, time.UTC)

	record := func(fp string, at time.Time) {
		_, err := repo.RecordLogin(ctx, RecordLoginParams{AccountID: accountID, Fingerprint: fp, At: at})
		require.NoError(t, err)
	}

	record("fp-recent", now.Add(-24*time.Hour))
	record("fp-edge", now.AddDate(0, -1, 0)) // exactly on the boundary, excluded
	record("fp-old", now.AddDate(0, -2, 0))

	entries, err := repo.ListRecent(ctx, accountID, now.AddDate(0, -1, 0))
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, "fp-recent", entries[0].Fingerprint)

	// Another account's entries are invisible
	otherEntries, err := repo.ListRecent(ctx, uuid.New(), now.AddDate(0, -1, 0))
	require.NoError(t, err)
	assert.Empty(t, otherEntries)
}

func TestInMemRepository_ListRecent_ExcludesBlocked(t *testing.T) {
	repo := NewInMemRepository()
	ctx := context.Background()
	accountID := uuid.New()
	now := time.Now().UTC()

	_, err := repo.RecordLogin(ctx, RecordLoginParams{AccountID: accountID, Fingerprint: "fp-ok", At: now})
	require.NoError(t, err)
	_, err = repo.RecordLogin(ctx, RecordLoginParams{AccountID: accountID, Fingerprint: "fp-bad", At: now})
	require.NoError(t, err)

	require.NoError(t, repo.SetBlocked(ctx, accountID, "fp-bad", true))

	entries, err := repo.ListRecent(ctx, accountID, now.AddDate(0, -1, 0))
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, "fp-ok", entries[0].Fingerprint)
}

func TestInMemRepository_SetBlocked_NotFound(t *testing.T) {
	repo := NewInMemRepository()
	err := repo.SetBlocked(context.Background(), uuid.New(), "missing", true)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestInMemRepository_GetByFingerprint_NotFound(t *testing.T) {
	repo := NewInMemRepository()
	_, err := repo.GetByFingerprint(context.Background(), uuid.New(), "missing")
	assert.ErrorIs(t, err, ErrNotFound)
}

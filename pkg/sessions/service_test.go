package sessions

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	sgerrors "github.com/learnhub/sessionguard/pkg/errors"
)

type fakeClock struct {
	current time.Time
}

func (c *fakeClock) Now() time.Time {
	return c.current
}

func (c *fakeClock) Advance(d time.Duration) {
	c.current = c.current.Add(d)
}

func TestService_Validate(t *testing.T) {
	repo := NewInMemRepository()
	clock := &fakeClock{current: time.Date(2025, 6, 1, 10, 0, 0, 0, time.UTC)}
	service := NewService(repo, WithClock(clock.Now))
	ctx := context.Background()
	accountID := uuid.New()

	created, err := repo.Create(ctx, CreateSessionParams{
		AccountID: accountID, Token: "t-1", Fingerprint: "fp", At: clock.Now(),
	})
	require.NoError(t, err)

	session, err := service.Validate(ctx, "t-1", accountID)
	require.NoError(t, err)
	assert.Equal(t, created.ID, session.ID)
}

func TestService_Validate_Revoked(t *testing.T) {
	repo := NewInMemRepository()
	service := NewService(repo)
	ctx := context.Background()
	accountID := uuid.New()

	_, err := repo.Create(ctx, CreateSessionParams{AccountID: accountID, Token: "t-1", Fingerprint: "fp", At: time.Now().UTC()})
	require.NoError(t, err)

	_, err = repo.DeactivateAllByAccount(ctx, accountID)
	require.NoError(t, err)

	_, err = service.Validate(ctx, "t-1", accountID)
	require.Error(t, err)
	assert.True(t, sgerrors.IsCode(err, sgerrors.ErrCodeSessionRevoked))
}

func TestService_Validate_ActivityThrottle(t *testing.T) {
	repo := NewInMemRepository()
	clock := &fakeClock{current: time.Date(2025, 6, 1, 10, 0, 0, 0, time.UTC)}
	service := NewService(repo, WithClock(clock.Now))
	ctx := context.Background()
	accountID := uuid.New()

	createdAt := clock.Now()
	_, err := repo.Create(ctx, CreateSessionParams{AccountID: accountID, Token: "t-1", Fingerprint: "fp", At: createdAt})
	require.NoError(t, err)

	// Within five minutes the stored timestamp is left alone
	clock.Advance(3 * time.Minute)
	session, err := service.Validate(ctx, "t-1", accountID)
	require.NoError(t, err)
	assert.Equal(t, createdAt, session.LastActivityAt)

	// Past the threshold it is refreshed
	clock.Advance(3 * time.Minute)
	session, err = service.Validate(ctx, "t-1", accountID)
	require.NoError(t, err)
	assert.Equal(t, clock.Now(), session.LastActivityAt)
}

func TestService_Deactivate_Idempotent(t *testing.T) {
	repo := NewInMemRepository()
	service := NewService(repo)
	ctx := context.Background()
	accountID := uuid.New()

	_, err := repo.Create(ctx, CreateSessionParams{AccountID: accountID, Token: "t-1", Fingerprint: "fp", At: time.Now().UTC()})
	require.NoError(t, err)

	require.NoError(t, service.Deactivate(ctx, "t-1", accountID))
	require.NoError(t, service.Deactivate(ctx, "t-1", accountID))

	count, err := repo.CountActiveByAccount(ctx, accountID)
	require.NoError(t, err)
	assert.Zero(t, count)
}

func TestService_ListForAccount(t *testing.T) {
	repo := NewInMemRepository()
	service := NewService(repo)
	ctx := context.Background()
	accountID := uuid.New()
	now := time.Now().UTC()

	_, err := repo.Create(ctx, CreateSessionParams{AccountID: accountID, Token: "t-1", Fingerprint: "fp-a", At: now})
	require.NoError(t, err)
	_, err = repo.Create(ctx, CreateSessionParams{AccountID: accountID, Token: "t-2", Fingerprint: "fp-b", At: now.Add(time.Minute)})
	require.NoError(t, err)

	summaries, err := service.ListForAccount(ctx, accountID)
	require.NoError(t, err)
	require.Len(t, summaries, 2)
	assert.Equal(t, "fp-b", summaries[0].Fingerprint, "newest first")
}

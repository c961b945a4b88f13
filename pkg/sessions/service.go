package sessions

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/google/uuid"

	sgerrors "github.com/learnhub/sessionguard/pkg/errors"
)

// activityTouchInterval throttles last-activity writes: the timestamp is
// only updated when the stored value is older than this, so validation does
// not cost a write on every request
const activityTouchInterval = 5 * time.Minute

// Service provides session validation and logout on top of a Repository
type Service struct {
	repo Repository
	now  func() time.Time
}

// Option is a function that configures a Service
type Option func(*Service)

// WithClock overrides the time source, used by tests to simulate elapsed time
func WithClock(now func() time.Time) Option {
	return func(s *Service) {
		s.now = now
	}
}

// NewService creates a new session service
func NewService(repo Repository, options ...Option) *Service {
	s := &Service{
		repo: repo,
		now:  func() time.Time { return time.Now().UTC() },
	}
	for _, option := range options {
		option(s)
	}
	return s
}

// Validate confirms that the presented credential still maps to a live,
// non-superseded session for the account. A miss means the session was
// revoked by a later login elsewhere (or logged out) and yields
// SESSION_REVOKED; the caller's only remedy is to re-authenticate.
func (s *Service) Validate(ctx context.Context, token string, accountID uuid.UUID) (*Session, error) {
	session, err := s.repo.FindActiveByToken(ctx, token, accountID)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			slog.Warn("Session no longer active", "accountID", accountID)
			return nil, sgerrors.New(sgerrors.ErrCodeSessionRevoked,
				"session has been revoked by a login from another device")
		}
		return nil, sgerrors.InternalWrap(err, "failed to look up session")
	}

	now := s.now()
	if now.Sub(session.LastActivityAt) > activityTouchInterval {
		if err := s.repo.TouchActivity(ctx, session.ID, now); err != nil {
			// Activity tracking is best effort, never fail the request for it
			slog.Error("Failed to touch session activity", "sessionID", session.ID, "err", err)
		} else {
			session.LastActivityAt = now
		}
	}

	return session, nil
}

// Deactivate is the logout hook: it soft-revokes the session bound to
// (token, account). Calling it again, or with a token that matches nothing,
// is not an error.
func (s *Service) Deactivate(ctx context.Context, token string, accountID uuid.UUID) error {
	if err := s.repo.Deactivate(ctx, token, accountID); err != nil {
		return sgerrors.InternalWrap(err, "failed to deactivate session")
	}

	slog.Info("Session deactivated", "accountID", accountID)
	return nil
}

// ListForAccount returns listing views of all sessions for an account
func (s *Service) ListForAccount(ctx context.Context, accountID uuid.UUID) ([]SessionSummary, error) {
	sessions, err := s.repo.ListByAccount(ctx, accountID)
	if err != nil {
		return nil, sgerrors.InternalWrap(err, "failed to list sessions")
	}

	summaries := make([]SessionSummary, len(sessions))
	for i := range sessions {
		summaries[i] = sessions[i].Summary()
	}
	return summaries, nil
}

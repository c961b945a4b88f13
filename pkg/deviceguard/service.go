package deviceguard

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math"
	"net/http"
	"time"

	"github.com/google/uuid"

	"github.com/learnhub/sessionguard/pkg/device"
	sgerrors "github.com/learnhub/sessionguard/pkg/errors"
	"github.com/learnhub/sessionguard/pkg/sessions"
)

// Config contains the device protection policy limits. It is immutable once
// the service is constructed. The maximum number of concurrently active
// sessions per account is always exactly one and is not configurable.
type Config struct {
	// MaxDevicesPerMonth caps how many distinct devices an account may log
	// in from within a trailing calendar month
	MaxDevicesPerMonth int

	// SwitchCooldown is the minimum elapsed time between logins from two
	// different devices
	SwitchCooldown time.Duration
}

// DefaultConfig returns the default policy limits
func DefaultConfig() Config {
	return Config{
		MaxDevicesPerMonth: 2,
		SwitchCooldown:     4 * time.Hour,
	}
}

// Service is the login-time policy engine. It runs after credential
// verification succeeds and before the login response is returned, checking
// the monthly device cap and the switch cooldown before revoking superseded
// sessions and persisting the new one.
type Service struct {
	sessions sessions.Repository
	devices  device.Repository
	cfg      Config
	now      func() time.Time
}

// Option is a function that configures a Service
type Option func(*Service)

// WithClock overrides the time source, used by tests to simulate elapsed time
func WithClock(now func() time.Time) Option {
	return func(s *Service) {
		s.now = now
	}
}

// NewService creates a new device protection service
func NewService(sessionRepo sessions.Repository, deviceRepo device.Repository, cfg Config, options ...Option) *Service {
	s := &Service{
		sessions: sessionRepo,
		devices:  deviceRepo,
		cfg:      cfg,
		now:      func() time.Time { return time.Now().UTC() },
	}
	for _, option := range options {
		option(s)
	}
	return s
}

// LoginParams carries the inputs for login enforcement
type LoginParams struct {
	AccountID uuid.UUID

	// Token is the freshly issued credential token the new session binds to
	Token string

	// Exempt skips all policy layers; resolved from the account's role at
	// the authentication boundary
	Exempt bool

	Fingerprint string
	DeviceInfo  device.DeviceInfo
}

// EnforceLogin runs the device protection layers for a login and, when they
// pass, revokes all prior active sessions and persists the new session plus
// the device log upsert. The first failing layer aborts with no writes:
// both rejection paths are side-effect free.
func (s *Service) EnforceLogin(ctx context.Context, params LoginParams) (*sessions.Session, error) {
	now := s.now()

	if !params.Exempt {
		if err := s.checkMonthlyDeviceCap(ctx, params.AccountID, params.Fingerprint, now); err != nil {
			return nil, err
		}
		if err := s.checkSwitchCooldown(ctx, params.AccountID, params.Fingerprint, now); err != nil {
			return nil, err
		}

		revoked, err := s.sessions.DeactivateAllByAccount(ctx, params.AccountID)
		if err != nil {
			return nil, sgerrors.InternalWrap(err, "failed to revoke prior sessions")
		}
		if revoked > 0 {
			slog.Info("Superseded sessions revoked", "accountID", params.AccountID, "revoked", revoked)
		}
	}

	entry, err := s.devices.RecordLogin(ctx, device.RecordLoginParams{
		AccountID:   params.AccountID,
		Fingerprint: params.Fingerprint,
		DeviceInfo:  params.DeviceInfo,
		At:          now,
	})
	if err != nil {
		return nil, sgerrors.InternalWrap(err, "failed to record device login")
	}

	session, err := s.sessions.Create(ctx, sessions.CreateSessionParams{
		AccountID:   params.AccountID,
		Token:       params.Token,
		Fingerprint: params.Fingerprint,
		DeviceInfo:  params.DeviceInfo,
		At:          now,
	})
	if err != nil {
		return nil, sgerrors.InternalWrap(err, "failed to create session")
	}

	slog.Info("Session created",
		"sessionID", session.ID,
		"accountID", params.AccountID,
		"fingerprint", params.Fingerprint,
		"deviceLoginCount", entry.LoginCount,
		"exempt", params.Exempt)

	return session, nil
}

// EnforceLoginFromRequest derives the fingerprint and device info from the
// request and runs EnforceLogin
func (s *Service) EnforceLoginFromRequest(ctx context.Context, accountID uuid.UUID, token string, exempt bool, r *http.Request) (*sessions.Session, error) {
	return s.EnforceLogin(ctx, LoginParams{
		AccountID:   accountID,
		Token:       token,
		Exempt:      exempt,
		Fingerprint: device.RequestFingerprint(r),
		DeviceInfo:  device.DeviceInfoFromRequest(r),
	})
}

// checkMonthlyDeviceCap rejects logins from a device the account has not
// used within the trailing month once the distinct-device cap is reached.
// The window is computed by calendar-month subtraction (same day-of-month
// one month ago). Known devices always pass regardless of count; blocked
// devices do not count toward the cap.
func (s *Service) checkMonthlyDeviceCap(ctx context.Context, accountID uuid.UUID, fingerprint string, now time.Time) error {
	since := now.AddDate(0, -1, 0)
	entries, err := s.devices.ListRecent(ctx, accountID, since)
	if err != nil {
		return sgerrors.InternalWrap(err, "failed to list recent devices")
	}

	for _, entry := range entries {
		if entry.Fingerprint == fingerprint {
			return nil
		}
	}

	if len(entries) >= s.cfg.MaxDevicesPerMonth {
		slog.Warn("Login rejected: monthly device limit reached",
			"accountID", accountID,
			"fingerprint", fingerprint,
			"recentDevices", len(entries),
			"maxDevicesPerMonth", s.cfg.MaxDevicesPerMonth)
		return sgerrors.Newf(sgerrors.ErrCodeMaxDevicesReached,
			"device limit reached: at most %d different devices may be used per month", s.cfg.MaxDevicesPerMonth).
			WithDetail("max_devices_per_month", s.cfg.MaxDevicesPerMonth)
	}

	return nil
}

// checkSwitchCooldown rejects logins from a different device than the most
// recent session's until the cooldown since that session's creation has
// elapsed
func (s *Service) checkSwitchCooldown(ctx context.Context, accountID uuid.UUID, fingerprint string, now time.Time) error {
	last, err := s.sessions.LatestExcludingFingerprint(ctx, accountID, fingerprint)
	if err != nil {
		if errors.Is(err, sessions.ErrNotFound) {
			// Never logged in from another device
			return nil
		}
		return sgerrors.InternalWrap(err, "failed to look up last session")
	}

	elapsed := now.Sub(last.CreatedAt)
	if elapsed >= s.cfg.SwitchCooldown {
		return nil
	}

	remaining := s.cfg.SwitchCooldown - elapsed
	wait := formatRemainingWait(remaining)
	slog.Warn("Login rejected: device switch cooldown",
		"accountID", accountID,
		"fingerprint", fingerprint,
		"lastFingerprint", last.Fingerprint,
		"remainingWait", wait)
	return sgerrors.Newf(sgerrors.ErrCodeDeviceSwitchCooldown,
		"device switched too recently, please wait %s before logging in from this device", wait).
		WithDetail("retry_after", wait)
}

// formatRemainingWait renders the remaining cooldown in whole hours
// (rounded up) when at least an hour remains, otherwise in whole minutes
// (rounded up)
func formatRemainingWait(remaining time.Duration) string {
	if remaining >= time.Hour {
		hours := int(math.Ceil(remaining.Hours()))
		if hours == 1 {
			return "1 hour"
		}
		return fmt.Sprintf("%d hours", hours)
	}

	minutes := int(math.Ceil(remaining.Minutes()))
	if minutes < 1 {
		minutes = 1
	}
	if minutes == 1 {
		return "1 minute"
	}
	return fmt.Sprintf("%d minutes", minutes)
}

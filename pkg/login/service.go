package login

import (
	"context"
	"errors"
	"log/slog"

	"github.com/google/uuid"

	sgerrors "github.com/learnhub/sessionguard/pkg/errors"
)

// Service verifies login credentials against the account store
type Service struct {
	accounts AccountRepository
	hasher   PasswordHasher
}

// Option is a function that configures a Service
type Option func(*Service)

// WithPasswordHasher overrides the password hasher
func WithPasswordHasher(hasher PasswordHasher) Option {
	return func(s *Service) {
		s.hasher = hasher
	}
}

// NewService creates a new login service
func NewService(accounts AccountRepository, options ...Option) *Service {
	s := &Service{
		accounts: accounts,
		hasher:   &BcryptHasher{},
	}
	for _, option := range options {
		option(s)
	}
	return s
}

// Login verifies the username and password and returns the account. Unknown
// usernames and wrong passwords produce the same error so the response does
// not leak which accounts exist.
func (s *Service) Login(ctx context.Context, username, password string) (*Account, error) {
	account, err := s.accounts.FindByUsername(ctx, username)
	if err != nil {
		if errors.Is(err, ErrAccountNotFound) {
			slog.Warn("Login failed: unknown username", "username", username)
			return nil, sgerrors.New(sgerrors.ErrCodeInvalidCredentials, "invalid username or password")
		}
		return nil, sgerrors.InternalWrap(err, "failed to look up account")
	}

	match, err := s.hasher.Verify(password, account.PasswordHash)
	if err != nil {
		return nil, sgerrors.InternalWrap(err, "failed to verify password")
	}
	if !match {
		slog.Warn("Login failed: wrong password", "username", username)
		return nil, sgerrors.New(sgerrors.ErrCodeInvalidCredentials, "invalid username or password")
	}

	return account, nil
}

// Register hashes the password and stores a new account
func (s *Service) Register(ctx context.Context, username, password string, roles []string) (*Account, error) {
	hash, err := s.hasher.Hash(password)
	if err != nil {
		return nil, sgerrors.InternalWrap(err, "failed to hash password")
	}

	account := Account{
		ID:           uuid.New(),
		Username:     username,
		PasswordHash: hash,
		Roles:        roles,
	}
	if err := s.accounts.Create(ctx, account); err != nil {
		return nil, sgerrors.Wrap(err, sgerrors.ErrCodeInvalidInput, "failed to create account")
	}

	slog.Info("Account registered", "accountID", account.ID, "username", username, "roles", roles)
	return &account, nil
}

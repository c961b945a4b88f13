package login

import (
	"context"
	"errors"
	"strings"
	"sync"

	"github.com/google/uuid"
)

// ErrAccountNotFound is returned when no account matches the lookup
var ErrAccountNotFound = errors.New("account not found")

// Account is a login-capable account record
type Account struct {
	ID           uuid.UUID
	Username     string
	PasswordHash string
	Roles        []string
}

// AccountRepository provides account lookup for credential verification
type AccountRepository interface {
	FindByUsername(ctx context.Context, username string) (*Account, error)
	Create(ctx context.Context, account Account) error
}

// InMemAccountRepository implements AccountRepository using an in-memory map
type InMemAccountRepository struct {
	accounts map[string]Account
	mu       sync.RWMutex
}

// NewInMemAccountRepository creates a new in-memory account repository
func NewInMemAccountRepository() *InMemAccountRepository {
	return &InMemAccountRepository{
		accounts: make(map[string]Account),
	}
}

// FindByUsername looks an account up by its username, case-insensitively
func (r *InMemAccountRepository) FindByUsername(ctx context.Context, username string) (*Account, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	account, exists := r.accounts[strings.ToLower(username)]
	if !exists {
		return nil, ErrAccountNotFound
	}
	found := account
	return &found, nil
}

// Create adds an account
func (r *InMemAccountRepository) Create(ctx context.Context, account Account) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	key := strings.ToLower(account.Username)
	if _, exists := r.accounts[key]; exists {
		return errors.New("username already taken")
	}
	r.accounts[key] = account
	return nil
}

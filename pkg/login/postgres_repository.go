package login

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/learnhub/sessionguard/pkg/device"
)

// PostgresAccountRepository implements AccountRepository backed by PostgreSQL
type PostgresAccountRepository struct {
	db device.DBTX
}

// NewPostgresAccountRepository creates a new PostgreSQL account repository
func NewPostgresAccountRepository(db device.DBTX) *PostgresAccountRepository {
	return &PostgresAccountRepository{db: db}
}

// FindByUsername looks an account up by its username, case-insensitively
func (r *PostgresAccountRepository) FindByUsername(ctx context.Context, username string) (*Account, error) {
	const query = `
		SELECT id, username, password_hash, roles
		FROM account
		WHERE lower(username) = lower($1)
	`

	var account Account
	err := r.db.QueryRow(ctx, query, username).Scan(
		&account.ID, &account.Username, &account.PasswordHash, &account.Roles)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrAccountNotFound
		}
		return nil, fmt.Errorf("failed to find account: %w", err)
	}

	return &account, nil
}

// Create adds an account
func (r *PostgresAccountRepository) Create(ctx context.Context, account Account) error {
	const query = `
		INSERT INTO account (id, username, password_hash, roles)
		VALUES ($1, $2, $3, $4)
	`

	_, err := r.db.Exec(ctx, query, account.ID, account.Username, account.PasswordHash, account.Roles)
	if err != nil {
		return fmt.Errorf("failed to create account: %w", err)
	}
	return nil
}

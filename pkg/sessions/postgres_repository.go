package sessions

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/learnhub/sessionguard/pkg/device"
)

// PostgresRepository implements Repository using PostgreSQL
type PostgresRepository struct {
	db device.DBTX
}

// NewPostgresRepository creates a new PostgreSQL session repository
func NewPostgresRepository(db device.DBTX) *PostgresRepository {
	return &PostgresRepository{
		db: db,
	}
}

const sessionColumns = `
	id, account_id, token, fingerprint, browser_name, browser_version,
	os_name, os_version, user_agent, ip_address, active, last_activity_at, created_at
`

// Create persists a new active session
func (r *PostgresRepository) Create(ctx context.Context, params CreateSessionParams) (*Session, error) {
	query := `
		INSERT INTO sessions (
			account_id, token, fingerprint, browser_name, browser_version,
			os_name, os_version, user_agent, ip_address, active, last_activity_at, created_at
		) VALUES (
			$1, $2, $3, $4, $5, $6, $7, $8, $9, TRUE, $10, $10
		) RETURNING ` + sessionColumns

	session, err := scanSession(r.db.QueryRow(ctx, query,
		params.AccountID,
		params.Token,
		params.Fingerprint,
		params.DeviceInfo.BrowserName,
		params.DeviceInfo.BrowserVersion,
		params.DeviceInfo.OSName,
		params.DeviceInfo.OSVersion,
		params.DeviceInfo.UserAgent,
		params.DeviceInfo.IPAddress,
		params.At,
	))
	if err != nil {
		return nil, fmt.Errorf("failed to create session: %w", err)
	}

	return session, nil
}

// FindActiveByToken returns the active session bound to (token, account)
func (r *PostgresRepository) FindActiveByToken(ctx context.Context, token string, accountID uuid.UUID) (*Session, error) {
	query := `
		SELECT ` + sessionColumns + `
		FROM sessions
		WHERE token = $1
		  AND account_id = $2
		  AND active
	`

	session, err := scanSession(r.db.QueryRow(ctx, query, token, accountID))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to find active session: %w", err)
	}

	return session, nil
}

// LatestExcludingFingerprint returns the most recently created session with
// a different fingerprint
func (r *PostgresRepository) LatestExcludingFingerprint(ctx context.Context, accountID uuid.UUID, fingerprint string) (*Session, error) {
	query := `
		SELECT ` + sessionColumns + `
		FROM sessions
		WHERE account_id = $1
		  AND fingerprint != $2
		ORDER BY created_at DESC
		LIMIT 1
	`

	session, err := scanSession(r.db.QueryRow(ctx, query, accountID, fingerprint))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to find latest session for other device: %w", err)
	}

	return session, nil
}

// DeactivateAllByAccount soft-revokes every active session for an account
func (r *PostgresRepository) DeactivateAllByAccount(ctx context.Context, accountID uuid.UUID) (int, error) {
	query := `
		UPDATE sessions
		SET active = FALSE
		WHERE account_id = $1
		  AND active
	`

	result, err := r.db.Exec(ctx, query, accountID)
	if err != nil {
		return 0, fmt.Errorf("failed to deactivate sessions: %w", err)
	}

	return int(result.RowsAffected()), nil
}

// Deactivate soft-revokes the session bound to (token, account), idempotently
func (r *PostgresRepository) Deactivate(ctx context.Context, token string, accountID uuid.UUID) error {
	query := `
		UPDATE sessions
		SET active = FALSE
		WHERE token = $1
		  AND account_id = $2
		  AND active
	`

	// Zero rows affected is fine: logout is idempotent
	_, err := r.db.Exec(ctx, query, token, accountID)
	if err != nil {
		return fmt.Errorf("failed to deactivate session: %w", err)
	}

	return nil
}

// TouchActivity updates a session's last activity timestamp
func (r *PostgresRepository) TouchActivity(ctx context.Context, id uuid.UUID, at time.Time) error {
	query := `
		UPDATE sessions
		SET last_activity_at = $2
		WHERE id = $1
	`

	_, err := r.db.Exec(ctx, query, id, at)
	if err != nil {
		return fmt.Errorf("failed to touch session activity: %w", err)
	}

	return nil
}

// ListByAccount returns all sessions for an account, newest first
func (r *PostgresRepository) ListByAccount(ctx context.Context, accountID uuid.UUID) ([]Session, error) {
	query := `
		SELECT ` + sessionColumns + `
		FROM sessions
		WHERE account_id = $1
		ORDER BY created_at DESC
	`

	rows, err := r.db.Query(ctx, query, accountID)
	if err != nil {
		return nil, fmt.Errorf("failed to list sessions: %w", err)
	}
	defer rows.Close()

	var sessions []Session
	for rows.Next() {
		session, err := scanSession(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan session: %w", err)
		}
		sessions = append(sessions, *session)
	}

	if rows.Err() != nil {
		return nil, fmt.Errorf("error iterating sessions: %w", rows.Err())
	}

	return sessions, nil
}

// CountActiveByAccount counts active sessions for an account
func (r *PostgresRepository) CountActiveByAccount(ctx context.Context, accountID uuid.UUID) (int, error) {
	query := `
		SELECT COUNT(*)
		FROM sessions
		WHERE account_id = $1
		  AND active
	`

	var count int
	err := r.db.QueryRow(ctx, query, accountID).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("failed to count active sessions: %w", err)
	}

	return count, nil
}

func scanSession(row pgx.Row) (*Session, error) {
	session := &Session{}
	err := row.Scan(
		&session.ID,
		&session.AccountID,
		&session.Token,
		&session.Fingerprint,
		&session.DeviceInfo.BrowserName,
		&session.DeviceInfo.BrowserVersion,
		&session.DeviceInfo.OSName,
		&session.DeviceInfo.OSVersion,
		&session.DeviceInfo.UserAgent,
		&session.DeviceInfo.IPAddress,
		&session.Active,
		&session.LastActivityAt,
		&session.CreatedAt,
	)
	if err != nil {
		return nil, err
	}
	return session, nil
}

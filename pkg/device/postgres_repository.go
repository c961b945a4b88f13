package device

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

// DBTX is an interface that allows us to use either a database connection or a transaction
type DBTX interface {
	Exec(context.Context, string, ...interface{}) (pgconn.CommandTag, error)
	Query(context.Context, string, ...interface{}) (pgx.Rows, error)
	QueryRow(context.Context, string, ...interface{}) pgx.Row
}

// PostgresRepository implements Repository using PostgreSQL
type PostgresRepository struct {
	db DBTX
}

// NewPostgresRepository creates a new PostgreSQL device log repository
func NewPostgresRepository(db DBTX) *PostgresRepository {
	return &PostgresRepository{
		db: db,
	}
}

const deviceLogColumns = `
	account_id, fingerprint, browser_name, browser_version, os_name, os_version,
	user_agent, ip_address, first_login_at, last_login_at, login_count, blocked
`

// RecordLogin upserts the entry for (account, fingerprint). The conditional
// insert with an in-database increment keeps the login count correct under
// concurrent logins from the same fingerprint.
func (r *PostgresRepository) RecordLogin(ctx context.Context, params RecordLoginParams) (DeviceLogEntry, error) {
	query := `
		INSERT INTO device_log (
			account_id, fingerprint, browser_name, browser_version, os_name, os_version,
			user_agent, ip_address, first_login_at, last_login_at, login_count
		) VALUES (
			$1, $2, $3, $4, $5, $6, $7, $8, $9, $9, 1
		)
		ON CONFLICT (account_id, fingerprint) DO UPDATE SET
			browser_name = EXCLUDED.browser_name,
			browser_version = EXCLUDED.browser_version,
			os_name = EXCLUDED.os_name,
			os_version = EXCLUDED.os_version,
			user_agent = EXCLUDED.user_agent,
			ip_address = EXCLUDED.ip_address,
			last_login_at = EXCLUDED.last_login_at,
			login_count = device_log.login_count + 1
		RETURNING ` + deviceLogColumns

	entry, err := scanDeviceLogEntry(r.db.QueryRow(ctx, query,
		params.AccountID,
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
		return DeviceLogEntry{}, fmt.Errorf("failed to record device login: %w", err)
	}

	return entry, nil
}

// ListRecent returns non-blocked entries with LastLoginAt after since
func (r *PostgresRepository) ListRecent(ctx context.Context, accountID uuid.UUID, since time.Time) ([]DeviceLogEntry, error) {
	query := `
		SELECT ` + deviceLogColumns + `
		FROM device_log
		WHERE account_id = $1
		  AND last_login_at > $2
		  AND NOT blocked
		ORDER BY last_login_at DESC
	`

	rows, err := r.db.Query(ctx, query, accountID, since)
	if err != nil {
		return nil, fmt.Errorf("failed to list recent device log entries: %w", err)
	}
	defer rows.Close()

	return collectDeviceLogEntries(rows)
}

// GetByFingerprint returns the entry for (account, fingerprint)
func (r *PostgresRepository) GetByFingerprint(ctx context.Context, accountID uuid.UUID, fingerprint string) (DeviceLogEntry, error) {
	query := `
		SELECT ` + deviceLogColumns + `
		FROM device_log
		WHERE account_id = $1
		  AND fingerprint = $2
	`

	entry, err := scanDeviceLogEntry(r.db.QueryRow(ctx, query, accountID, fingerprint))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return DeviceLogEntry{}, ErrNotFound
		}
		return DeviceLogEntry{}, fmt.Errorf("failed to get device log entry: %w", err)
	}

	return entry, nil
}

// ListByAccount returns all entries for an account, most recent login first
func (r *PostgresRepository) ListByAccount(ctx context.Context, accountID uuid.UUID) ([]DeviceLogEntry, error) {
	query := `
		SELECT ` + deviceLogColumns + `
		FROM device_log
		WHERE account_id = $1
		ORDER BY last_login_at DESC
	`

	rows, err := r.db.Query(ctx, query, accountID)
	if err != nil {
		return nil, fmt.Errorf("failed to list device log entries: %w", err)
	}
	defer rows.Close()

	return collectDeviceLogEntries(rows)
}

// SetBlocked marks an entry as blocked or unblocked
func (r *PostgresRepository) SetBlocked(ctx context.Context, accountID uuid.UUID, fingerprint string, blocked bool) error {
	query := `
		UPDATE device_log
		SET blocked = $3
		WHERE account_id = $1
		  AND fingerprint = $2
	`

	result, err := r.db.Exec(ctx, query, accountID, fingerprint, blocked)
	if err != nil {
		return fmt.Errorf("failed to update device log block flag: %w", err)
	}

	if result.RowsAffected() == 0 {
		return ErrNotFound
	}

	return nil
}

func scanDeviceLogEntry(row pgx.Row) (DeviceLogEntry, error) {
	var entry DeviceLogEntry
	err := row.Scan(
		&entry.AccountID,
		&entry.Fingerprint,
		&entry.DeviceInfo.BrowserName,
		&entry.DeviceInfo.BrowserVersion,
		&entry.DeviceInfo.OSName,
		&entry.DeviceInfo.OSVersion,
		&entry.DeviceInfo.UserAgent,
		&entry.DeviceInfo.IPAddress,
		&entry.FirstLoginAt,
		&entry.LastLoginAt,
		&entry.LoginCount,
		&entry.Blocked,
	)
	if err != nil {
		return DeviceLogEntry{}, err
	}
	return entry, nil
}

func collectDeviceLogEntries(rows pgx.Rows) ([]DeviceLogEntry, error) {
	var entries []DeviceLogEntry
	for rows.Next() {
		entry, err := scanDeviceLogEntry(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan device log entry: %w", err)
		}
		entries = append(entries, entry)
	}

	if rows.Err() != nil {
		return nil, fmt.Errorf("error iterating device log entries: %w", rows.Err())
	}

	return entries, nil
}

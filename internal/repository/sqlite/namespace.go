package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/sakif/daily-code/internal/apperror"
	"github.com/sakif/daily-code/internal/repository"
)

// Compile-time check that *DB implements repository.Namespace.
var _ repository.Namespace = (*DB)(nil)

// Get returns the value stored under key.
//
// sql.ErrNoRows is translated into apperror.NotFound so callers above the
// storage layer never see database/sql types.
func (db *DB) Get(ctx context.Context, key string) (string, error) {
	var value string
	err := db.conn.QueryRowContext(ctx,
		`SELECT value FROM entries WHERE key = ?`,
		key,
	).Scan(&value)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return "", apperror.NotFound("entry", key)
		}
		return "", fmt.Errorf("sqlite: getting %s: %w", key, err)
	}
	return value, nil
}

// Set stores value under key, replacing any previous value.
//
// When a quota is configured, the size check and the write run in one
// transaction: the bytes already used by OTHER keys plus the new entry must
// fit, otherwise repository.ErrQuotaExceeded is returned and nothing changes.
func (db *DB) Set(ctx context.Context, key, value string) error {
	tx, err := db.conn.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("sqlite: beginning write of %s: %w", key, err)
	}
	// Rollback after Commit is a no-op, so this is safe on every path.
	defer tx.Rollback()

	if db.quota > 0 {
		var used int64
		err := tx.QueryRowContext(ctx,
			`SELECT COALESCE(SUM(LENGTH(CAST(key AS BLOB)) + LENGTH(CAST(value AS BLOB))), 0)
			 FROM entries
			 WHERE key != ?`,
			key,
		).Scan(&used)
		if err != nil {
			return fmt.Errorf("sqlite: measuring usage: %w", err)
		}
		if used+int64(len(key))+int64(len(value)) > db.quota {
			return repository.ErrQuotaExceeded
		}
	}

	// UPSERT: insert a new row, or overwrite the value if the key exists.
	_, err = tx.ExecContext(ctx,
		`INSERT INTO entries (key, value, updated_at) VALUES (?, ?, ?)
		 ON CONFLICT(key) DO UPDATE SET value = excluded.value, updated_at = excluded.updated_at`,
		key,
		value,
		time.Now().UTC(),
	)
	if err != nil {
		return fmt.Errorf("sqlite: setting %s: %w", key, err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("sqlite: committing %s: %w", key, err)
	}
	return nil
}

// Delete removes key. Deleting a missing key is not an error.
func (db *DB) Delete(ctx context.Context, key string) error {
	if _, err := db.conn.ExecContext(ctx, `DELETE FROM entries WHERE key = ?`, key); err != nil {
		return fmt.Errorf("sqlite: deleting %s: %w", key, err)
	}
	return nil
}

// Keys lists every key that starts with prefix.
//
// LIKE is avoided on purpose: "_" and "%" are wildcards there, and the
// snippet prefix itself contains underscores. Comparing the leading
// substring matches the prefix literally.
func (db *DB) Keys(ctx context.Context, prefix string) ([]string, error) {
	rows, err := db.conn.QueryContext(ctx,
		`SELECT key FROM entries WHERE substr(key, 1, length(?)) = ?`,
		prefix,
		prefix,
	)
	if err != nil {
		return nil, fmt.Errorf("sqlite: listing keys: %w", err)
	}
	// CRITICAL: always close rows when done, they hold a pooled connection.
	defer rows.Close()

	var keys []string
	for rows.Next() {
		var key string
		if err := rows.Scan(&key); err != nil {
			return nil, fmt.Errorf("sqlite: scanning key row: %w", err)
		}
		keys = append(keys, key)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("sqlite: iterating keys: %w", err)
	}

	return keys, nil
}

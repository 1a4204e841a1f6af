// Package sqlite implements repository.Namespace using SQLite as the storage backend.
//
// SQLite is an embedded database: it lives inside the binary and keeps
// everything in a single file, which makes it a natural home for a
// single-user editor's saved snippets. Use ":memory:" for an in-memory
// database (tests, throwaway sessions).
//
// modernc.org/sqlite is a pure Go translation of the SQLite C code, so no
// C compiler is needed to build or cross-compile.
//
// DATABASE/SQL OVERVIEW:
// Go's standard library provides "database/sql", a generic interface for SQL databases.
// Key types:
//   - sql.DB      : a connection pool (NOT a single connection!)
//   - sql.Tx      : a transaction
//   - sql.Row     : a single result row
//   - sql.Rows    : multiple result rows (must be closed!)
package sqlite

import (
	"database/sql"
	"fmt"

	// The blank import registers the "sqlite" driver with database/sql in its init().
	_ "modernc.org/sqlite"
)

// DB wraps a sql.DB connection pool and implements repository.Namespace.
type DB struct {
	conn *sql.DB

	// quota is the maximum number of bytes (keys + values) the namespace may
	// hold. Zero disables the limit.
	quota int64
}

// Option configures a DB.
type Option func(*DB)

// WithQuota caps the total size of stored keys and values, in bytes.
// Writes that would exceed it fail with repository.ErrQuotaExceeded.
func WithQuota(bytes int64) Option {
	return func(db *DB) {
		db.quota = bytes
	}
}

// New opens the SQLite database at dbPath and runs migrations.
//
// dbPath examples:
//   - "data/dailycode.db"  → file-based database (persistent)
//   - ":memory:"           → in-memory database (lost on close)
//
// sql.Open() does NOT open a connection; it creates a pool manager.
// We call Ping() to force an immediate connection and surface bad paths early.
func New(dbPath string, opts ...Option) (*DB, error) {
	conn, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("sqlite: opening database: %w", err)
	}

	// SQLite allows a single writer. Pinning the pool to one connection also
	// keeps ":memory:" databases alive: every new connection would otherwise
	// see its own empty database.
	conn.SetMaxOpenConns(1)

	if err := conn.Ping(); err != nil {
		conn.Close()
		return nil, fmt.Errorf("sqlite: pinging database: %w", err)
	}

	// WAL (Write-Ahead Logging) lets readers proceed while a write is happening.
	if _, err := conn.Exec("PRAGMA journal_mode=WAL"); err != nil {
		conn.Close()
		return nil, fmt.Errorf("sqlite: setting WAL mode: %w", err)
	}

	db := &DB{conn: conn}
	for _, opt := range opts {
		opt(db)
	}

	if err := db.migrate(); err != nil {
		conn.Close()
		return nil, fmt.Errorf("sqlite: running migrations: %w", err)
	}

	return db, nil
}

// Close closes the database connection pool.
//
// Wherever you call New(), immediately defer Close():
//
//	db, err := sqlite.New("data/dailycode.db")
//	if err != nil { ... }
//	defer db.Close()
func (db *DB) Close() error {
	return db.conn.Close()
}

// migrate creates the entries table.
// CREATE TABLE IF NOT EXISTS is safe to run on every start.
func (db *DB) migrate() error {
	_, err := db.conn.Exec(`
		CREATE TABLE IF NOT EXISTS entries (
			key        TEXT PRIMARY KEY,
			value      TEXT NOT NULL,
			updated_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
		);
	`)
	if err != nil {
		return fmt.Errorf("creating entries table: %w", err)
	}
	return nil
}

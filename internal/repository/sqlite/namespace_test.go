package sqlite

import (
	"context"
	"errors"
	"path/filepath"
	"sort"
	"strings"
	"testing"

	"github.com/sakif/daily-code/internal/apperror"
	"github.com/sakif/daily-code/internal/repository"
)

// newTestDB opens a fresh in-memory database that lives for the duration of
// the test. t.Cleanup closes it even when the test fails.
func newTestDB(t *testing.T, opts ...Option) *DB {
	t.Helper()
	db, err := New(":memory:", opts...)
	if err != nil {
		t.Fatalf("failed to create test db: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	return db
}

// mustSet stores a value and fails the test if it errors.
func mustSet(t *testing.T, db *DB, key, value string) {
	t.Helper()
	if err := db.Set(context.Background(), key, value); err != nil {
		t.Fatalf("Set(%q) error = %v", key, err)
	}
}

// =========================================================================
// GET / SET TESTS
// =========================================================================

func TestSetThenGet(t *testing.T) {
	db := newTestDB(t)
	mustSet(t, db, "code_widget_hello.py", `{"code":"print(1)"}`)

	got, err := db.Get(context.Background(), "code_widget_hello.py")
	if err != nil {
		t.Fatalf("Get() error = %v", err)
	}
	if got != `{"code":"print(1)"}` {
		t.Errorf("Get() = %q, want %q", got, `{"code":"print(1)"}`)
	}
}

func TestSet_Overwrites(t *testing.T) {
	db := newTestDB(t)
	mustSet(t, db, "k", "first")
	mustSet(t, db, "k", "second")

	got, err := db.Get(context.Background(), "k")
	if err != nil {
		t.Fatalf("Get() error = %v", err)
	}
	if got != "second" {
		t.Errorf("Get() = %q, want %q", got, "second")
	}

	keys, err := db.Keys(context.Background(), "")
	if err != nil {
		t.Fatalf("Keys() error = %v", err)
	}
	if len(keys) != 1 {
		t.Errorf("Keys() returned %d keys, want 1", len(keys))
	}
}

func TestGet_NotFound(t *testing.T) {
	db := newTestDB(t)

	_, err := db.Get(context.Background(), "missing")
	if err == nil {
		t.Fatal("Get() should have returned an error for a missing key")
	}
	// We get our own NotFound error, not a raw sql.ErrNoRows.
	if !errors.Is(err, apperror.ErrNotFound) {
		t.Errorf("Get() error = %v, want ErrNotFound", err)
	}
}

// =========================================================================
// DELETE TESTS
// =========================================================================

func TestDelete(t *testing.T) {
	db := newTestDB(t)
	mustSet(t, db, "k", "v")

	if err := db.Delete(context.Background(), "k"); err != nil {
		t.Fatalf("Delete() error = %v", err)
	}

	_, err := db.Get(context.Background(), "k")
	if !errors.Is(err, apperror.ErrNotFound) {
		t.Errorf("Get() after Delete() error = %v, want ErrNotFound", err)
	}
}

func TestDelete_MissingKeyIsNotAnError(t *testing.T) {
	db := newTestDB(t)

	if err := db.Delete(context.Background(), "never-stored"); err != nil {
		t.Errorf("Delete() error = %v, want nil", err)
	}
}

// =========================================================================
// KEYS TESTS
// =========================================================================

func TestKeys_MatchesPrefixLiterally(t *testing.T) {
	db := newTestDB(t)
	mustSet(t, db, "code_widget_a.js", "1")
	mustSet(t, db, "code_widget_b.js", "2")
	mustSet(t, db, "codeXwidgetXc.js", "3") // would match LIKE 'code_widget_%'
	mustSet(t, db, "groq_api_key", "secret")

	keys, err := db.Keys(context.Background(), "code_widget_")
	if err != nil {
		t.Fatalf("Keys() error = %v", err)
	}
	sort.Strings(keys)

	want := []string{"code_widget_a.js", "code_widget_b.js"}
	if strings.Join(keys, ",") != strings.Join(want, ",") {
		t.Errorf("Keys() = %v, want %v", keys, want)
	}
}

func TestKeys_Empty(t *testing.T) {
	db := newTestDB(t)

	keys, err := db.Keys(context.Background(), "code_widget_")
	if err != nil {
		t.Fatalf("Keys() error = %v", err)
	}
	if len(keys) != 0 {
		t.Errorf("Keys() returned %d keys, want 0", len(keys))
	}
}

// =========================================================================
// QUOTA TESTS
// =========================================================================

func TestSet_QuotaExceeded(t *testing.T) {
	db := newTestDB(t, WithQuota(16))
	mustSet(t, db, "a", "0123456789") // 11 bytes

	err := db.Set(context.Background(), "b", "0123456789")
	if !errors.Is(err, repository.ErrQuotaExceeded) {
		t.Fatalf("Set() error = %v, want ErrQuotaExceeded", err)
	}

	// The rejected write must not be visible.
	if _, err := db.Get(context.Background(), "b"); !errors.Is(err, apperror.ErrNotFound) {
		t.Errorf("Get() after rejected Set() error = %v, want ErrNotFound", err)
	}
}

func TestSet_QuotaIgnoresValueBeingReplaced(t *testing.T) {
	db := newTestDB(t, WithQuota(16))
	mustSet(t, db, "a", "0123456789")

	// Replacing "a" frees its old bytes, so a same-sized value still fits.
	if err := db.Set(context.Background(), "a", "9876543210"); err != nil {
		t.Errorf("Set() overwrite error = %v, want nil", err)
	}
}

// =========================================================================
// PERSISTENCE
// =========================================================================

func TestNew_FileDatabasePersists(t *testing.T) {
	path := filepath.Join(t.TempDir(), "dailycode.db")

	db, err := New(path)
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	mustSet(t, db, "k", "v")
	if err := db.Close(); err != nil {
		t.Fatalf("Close() error = %v", err)
	}

	reopened := func() *DB {
		db, err := New(path)
		if err != nil {
			t.Fatalf("New() reopen error = %v", err)
		}
		t.Cleanup(func() { db.Close() })
		return db
	}()

	got, err := reopened.Get(context.Background(), "k")
	if err != nil {
		t.Fatalf("Get() after reopen error = %v", err)
	}
	if got != "v" {
		t.Errorf("Get() after reopen = %q, want %q", got, "v")
	}
}

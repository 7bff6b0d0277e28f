package runs

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	_ "modernc.org/sqlite"

	"stayscope/internal/config"
)

// Store is the run registry backed by SQLite. It owns the runs, artifacts,
// audit check, and materialized audit tables.
type Store struct {
	db   *sql.DB
	path string
}

const registryFileName = "stayscope.db"

const (
	sqliteBusy       = 5
	maxBusyRetries   = 5
	busyBackoffStart = 10 * time.Millisecond
	busyBackoffCap   = 200 * time.Millisecond
)

func ctxOrBackground(ctx context.Context) context.Context {
	if ctx == nil {
		return context.Background()
	}
	return ctx
}

// isBusy matches the modernc driver's busy/locked condition, via its
// Code() accessor or the message text.
func isBusy(err error) bool {
	if err == nil {
		return false
	}
	var coded interface{ Code() int }
	if errors.As(err, &coded) && coded.Code() == sqliteBusy {
		return true
	}
	msg := err.Error()
	if strings.Contains(msg, "SQLITE_BUSY") {
		return true
	}
	return strings.Contains(msg, "database is locked")
}

// withBusyRetry re-runs op with doubling backoff while it reports a busy
// database, up to maxBusyRetries total attempts.
func withBusyRetry(ctx context.Context, op func() error) error {
	backoff := busyBackoffStart
	for attempt := 1; ; attempt++ {
		err := op()
		if err == nil || !isBusy(err) || attempt == maxBusyRetries {
			return err
		}
		select {
		case <-time.After(backoff):
		case <-ctx.Done():
			return ctx.Err()
		}
		backoff = min(backoff*2, busyBackoffCap)
	}
}

func (s *Store) exec(ctx context.Context, query string, args ...any) (sql.Result, error) {
	ctx = ctxOrBackground(ctx)
	var res sql.Result
	err := withBusyRetry(ctx, func() error {
		var execErr error
		res, execErr = s.db.ExecContext(ctx, query, args...)
		return execErr
	})
	if err != nil {
		return nil, err
	}
	return res, nil
}

// withTx runs fn inside a transaction, retrying the whole transaction on
// SQLITE_BUSY. fn must be safe to re-run.
func (s *Store) withTx(ctx context.Context, op string, fn func(tx *sql.Tx) error) error {
	ctx = ctxOrBackground(ctx)
	err := withBusyRetry(ctx, func() error {
		tx, err := s.db.BeginTx(ctx, nil)
		if err != nil {
			return fmt.Errorf("begin tx: %w", err)
		}
		defer func() { _ = tx.Rollback() }()

		if err := fn(tx); err != nil {
			return err
		}
		if err := tx.Commit(); err != nil {
			return fmt.Errorf("commit: %w", err)
		}
		return nil
	})
	return storageErr(op, err)
}

// RegistryPath returns the database file location under the config's data
// directory.
func RegistryPath(cfg *config.Config) string {
	return filepath.Join(cfg.Paths.DataDir, registryFileName)
}

// Open initializes or connects to the run registry database.
func Open(cfg *config.Config) (*Store, error) {
	if err := cfg.EnsureDirectories(); err != nil {
		return nil, storageErr("ensure directories", err)
	}

	return OpenPath(RegistryPath(cfg))
}

// OpenPath opens the registry at an explicit database path.
func OpenPath(dbPath string) (*Store, error) {
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, storageErr("open sqlite db", err)
	}

	for _, pragma := range []string{
		"PRAGMA journal_mode = WAL",
		"PRAGMA foreign_keys = ON",
		"PRAGMA busy_timeout = 5000",
	} {
		if _, execErr := db.Exec(pragma); execErr != nil {
			_ = db.Close()
			return nil, storageErr(fmt.Sprintf("apply pragma %q", pragma), execErr)
		}
	}

	store := &Store{db: db, path: dbPath}
	if err := store.ensureSchema(context.Background()); err != nil {
		_ = db.Close()
		return nil, storageErr("init schema", err)
	}

	return store, nil
}

// Close releases the underlying database handle.
func (s *Store) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}

// Path returns the registry database file path.
func (s *Store) Path() string {
	if s == nil {
		return ""
	}
	return s.path
}

// nullableString maps empty strings to SQL NULL on insert.
func nullableString(value string) sql.NullString {
	return sql.NullString{String: value, Valid: value != ""}
}

// timeLayouts covers the formats the registry has ever written; started_at
// and friends are stored as RFC3339Nano text.
var timeLayouts = []string{time.RFC3339Nano, "2006-01-02 15:04:05"}

func parseDBTime(value string) (time.Time, error) {
	for _, layout := range timeLayouts {
		if t, err := time.Parse(layout, value); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("unrecognized time %q", value)
}

func placeholders(count int) string {
	if count <= 0 {
		return ""
	}
	return strings.TrimSuffix(strings.Repeat("?,", count), ",")
}

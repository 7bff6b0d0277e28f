package runs

import (
	"context"
	"database/sql"
	_ "embed"
	"errors"
	"fmt"
)

//go:embed schema.sql
var schemaSQL string

// schemaVersion is bumped on any table change. There is no migration
// machinery; a mismatched registry has to be deleted and rebuilt.
const schemaVersion = 1

// ErrSchemaMismatch reports a registry created by an incompatible version.
var ErrSchemaMismatch = errors.New("registry schema version mismatch")

// ensureSchema applies schema.sql and stamps the schema version, all in one
// transaction. Every statement is IF NOT EXISTS, so reopening an existing
// registry only verifies the stored version.
func (s *Store) ensureSchema(ctx context.Context) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin schema init: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	if _, err := tx.ExecContext(ctx, schemaSQL); err != nil {
		return fmt.Errorf("apply schema: %w", err)
	}

	var version int
	row := tx.QueryRowContext(ctx, "SELECT version FROM schema_version LIMIT 1")
	switch err := row.Scan(&version); {
	case errors.Is(err, sql.ErrNoRows):
		if _, err := tx.ExecContext(ctx, "INSERT INTO schema_version (version) VALUES (?)", schemaVersion); err != nil {
			return fmt.Errorf("stamp schema version: %w", err)
		}
	case err != nil:
		return fmt.Errorf("query schema version: %w", err)
	case version != schemaVersion:
		return fmt.Errorf("%w: registry has version %d, this build expects %d (delete %s to rebuild)",
			ErrSchemaMismatch, version, schemaVersion, s.path)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit schema init: %w", err)
	}
	return nil
}

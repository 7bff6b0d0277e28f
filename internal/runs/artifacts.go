package runs

import (
	"context"
	"database/sql"
	"errors"
	"time"
)

const artifactColumns = "id, run_id, name, path, kind, created_at"

// LogArtifact records an artifact row for a run, replacing any prior row
// with the same name. Returns NotFoundError when the run is unknown.
func (s *Store) LogArtifact(ctx context.Context, runID, name, path string, kind ArtifactKind) (*Artifact, error) {
	if _, err := s.GetRun(ctx, runID); err != nil {
		return nil, err
	}

	_, err := s.exec(
		ctx,
		`INSERT INTO artifacts (run_id, name, path, kind, created_at)
         VALUES (?, ?, ?, ?, ?)
         ON CONFLICT (run_id, name)
         DO UPDATE SET path = excluded.path, kind = excluded.kind, created_at = excluded.created_at`,
		runID,
		name,
		path,
		kind,
		time.Now().UTC().Format(time.RFC3339Nano),
	)
	if err != nil {
		return nil, storageErr("log artifact", err)
	}

	return s.GetArtifact(ctx, runID, name)
}

// GetArtifact fetches one artifact row. Returns NotFoundError when absent.
func (s *Store) GetArtifact(ctx context.Context, runID, name string) (*Artifact, error) {
	row := s.db.QueryRowContext(
		ctxOrBackground(ctx),
		`SELECT `+artifactColumns+` FROM artifacts WHERE run_id = ? AND name = ?`,
		runID,
		name,
	)
	artifact, err := scanArtifact(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, &NotFoundError{Entity: "artifact", Key: runID + "/" + name}
	}
	if err != nil {
		return nil, storageErr("get artifact", err)
	}
	return artifact, nil
}

// ListArtifacts returns a run's artifact rows ordered by name. An unknown
// run yields an empty list.
func (s *Store) ListArtifacts(ctx context.Context, runID string) ([]*Artifact, error) {
	rows, err := s.db.QueryContext(
		ctxOrBackground(ctx),
		`SELECT `+artifactColumns+` FROM artifacts WHERE run_id = ? ORDER BY name`,
		runID,
	)
	if err != nil {
		return nil, storageErr("list artifacts", err)
	}
	defer rows.Close()

	var artifacts []*Artifact
	for rows.Next() {
		artifact, err := scanArtifact(rows)
		if err != nil {
			return nil, storageErr("scan artifact", err)
		}
		artifacts = append(artifacts, artifact)
	}
	return artifacts, rows.Err()
}

func scanArtifact(scanner interface{ Scan(dest ...any) error }) (*Artifact, error) {
	var (
		id         int64
		runID      string
		name       string
		path       string
		kindStr    string
		createdRaw sql.NullString
	)

	if err := scanner.Scan(&id, &runID, &name, &path, &kindStr, &createdRaw); err != nil {
		return nil, err
	}

	artifact := &Artifact{
		ID:    id,
		RunID: runID,
		Name:  name,
		Path:  path,
		Kind:  ArtifactKind(kindStr),
	}
	if created, err := parseDBTime(createdRaw.String); err == nil {
		artifact.CreatedAt = created
	}
	return artifact, nil
}

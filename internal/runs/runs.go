package runs

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"
)

const runColumns = "run_id, kind, status, started_at, ended_at, metrics_json"

// StartRun allocates a fresh run identifier and inserts a running row.
func (s *Store) StartRun(ctx context.Context, kind Kind) (*Run, error) {
	if _, ok := kindSet[kind]; !ok {
		return nil, fmt.Errorf("unknown run kind %q", kind)
	}

	now := time.Now().UTC()
	runID := NewRunID(now)
	_, err := s.exec(
		ctx,
		`INSERT INTO runs (run_id, kind, status, started_at, ended_at, metrics_json)
         VALUES (?, ?, ?, ?, NULL, NULL)`,
		runID,
		kind,
		StatusRunning,
		now.Format(time.RFC3339Nano),
	)
	if err != nil {
		return nil, storageErr("insert run", err)
	}

	return s.GetRun(ctx, runID)
}

// EndRun moves a running run to a terminal status and records its metrics.
// Returns NotFoundError for an unknown run and InvalidStateError when the
// run has already ended.
func (s *Store) EndRun(ctx context.Context, runID string, status Status, metricsJSON string) error {
	if !status.Terminal() {
		return fmt.Errorf("end run: status %q is not terminal", status)
	}

	res, err := s.exec(
		ctx,
		`UPDATE runs SET status = ?, ended_at = ?, metrics_json = ? WHERE run_id = ? AND status = ?`,
		status,
		time.Now().UTC().Format(time.RFC3339Nano),
		nullableString(metricsJSON),
		runID,
		StatusRunning,
	)
	if err != nil {
		return storageErr("end run", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return storageErr("end run rows affected", err)
	}
	if affected > 0 {
		return nil
	}

	run, err := s.GetRun(ctx, runID)
	if err != nil {
		return err
	}
	return &InvalidStateError{RunID: runID, State: run.Status, Reason: "already ended"}
}

// GetRun fetches a single run. Returns NotFoundError when absent.
func (s *Store) GetRun(ctx context.Context, runID string) (*Run, error) {
	row := s.db.QueryRowContext(ctxOrBackground(ctx), `SELECT `+runColumns+` FROM runs WHERE run_id = ?`, runID)
	run, err := scanRun(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, &NotFoundError{Entity: "run", Key: runID}
	}
	if err != nil {
		return nil, storageErr("get run", err)
	}
	return run, nil
}

// LatestRun returns the most recent ended run of a kind, ordered by
// started_at with run_id breaking ties. Running rows are never eligible.
// Returns (nil, nil) when no ended run exists.
func (s *Store) LatestRun(ctx context.Context, kind Kind) (*Run, error) {
	row := s.db.QueryRowContext(
		ctxOrBackground(ctx),
		`SELECT `+runColumns+` FROM runs
         WHERE kind = ? AND status IN (?, ?)
         ORDER BY started_at DESC, run_id DESC LIMIT 1`,
		kind,
		StatusCompleted,
		StatusFailed,
	)
	run, err := scanRun(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, storageErr("latest run", err)
	}
	return run, nil
}

// RunsHistory returns up to limit runs of any status, newest first. An
// empty kind matches every kind; limit <= 0 returns all rows.
func (s *Store) RunsHistory(ctx context.Context, kind Kind, limit int) ([]*Run, error) {
	query := `SELECT ` + runColumns + ` FROM runs`
	var args []any
	if kind != "" {
		query += ` WHERE kind = ?`
		args = append(args, kind)
	}
	query += ` ORDER BY started_at DESC, run_id DESC`
	if limit > 0 {
		query += ` LIMIT ?`
		args = append(args, limit)
	}

	rows, err := s.db.QueryContext(ctxOrBackground(ctx), query, args...)
	if err != nil {
		return nil, storageErr("list runs", err)
	}
	defer rows.Close()

	var runs []*Run
	for rows.Next() {
		run, err := scanRun(rows)
		if err != nil {
			return nil, storageErr("scan run", err)
		}
		runs = append(runs, run)
	}
	return runs, rows.Err()
}

// Stats returns a count of runs grouped by status.
func (s *Store) Stats(ctx context.Context) (map[Status]int, error) {
	rows, err := s.db.QueryContext(ctxOrBackground(ctx), `SELECT status, COUNT(1) FROM runs GROUP BY status`)
	if err != nil {
		return nil, storageErr("run stats", err)
	}
	defer rows.Close()

	stats := make(map[Status]int)
	for rows.Next() {
		var status Status
		var count int
		if err := rows.Scan(&status, &count); err != nil {
			return nil, storageErr("scan run stats", err)
		}
		stats[status] = count
	}
	return stats, rows.Err()
}

func scanRun(scanner interface{ Scan(dest ...any) error }) (*Run, error) {
	var (
		runID      string
		kindStr    string
		statusStr  string
		startedRaw sql.NullString
		endedRaw   sql.NullString
		metrics    sql.NullString
	)

	if err := scanner.Scan(&runID, &kindStr, &statusStr, &startedRaw, &endedRaw, &metrics); err != nil {
		return nil, err
	}

	run := &Run{
		ID:          runID,
		Kind:        Kind(kindStr),
		Status:      Status(statusStr),
		MetricsJSON: metrics.String,
	}
	if started, err := parseDBTime(startedRaw.String); err == nil {
		run.StartedAt = started
	}
	if endedRaw.Valid {
		if ended, err := parseDBTime(endedRaw.String); err == nil {
			run.EndedAt = &ended
		}
	}
	return run, nil
}

package runs

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	"stayscope/internal/audit"
	"stayscope/internal/dataset"
	"stayscope/internal/model"
)

// PersistHealthAudit upserts the fixed-schema health_checks row for the run
// and materializes every audit table, all inside one transaction. Re-running
// for the same run replaces prior rows. Returns NotFoundError when the run
// is unknown.
func (s *Store) PersistHealthAudit(ctx context.Context, runID string, result *audit.HealthResult) error {
	if result == nil {
		return errors.New("health result is nil")
	}
	if _, err := s.GetRun(ctx, runID); err != nil {
		return err
	}

	metricsJSON, err := json.Marshal(result.Metrics)
	if err != nil {
		return fmt.Errorf("marshal health metrics: %w", err)
	}
	computedAt := time.Now().UTC().Format(time.RFC3339Nano)
	metrics := result.Metrics

	return s.withTx(ctx, "persist health audit", func(tx *sql.Tx) error {
		_, err := tx.ExecContext(
			ctx,
			`INSERT INTO health_checks (
                run_id, computed_at, listings_rows, calendar_rows, reviews_rows,
                duplicate_listing_ids, referential_violations, price_mean, price_median, metrics_json
            ) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
            ON CONFLICT (run_id) DO UPDATE SET
                computed_at = excluded.computed_at,
                listings_rows = excluded.listings_rows,
                calendar_rows = excluded.calendar_rows,
                reviews_rows = excluded.reviews_rows,
                duplicate_listing_ids = excluded.duplicate_listing_ids,
                referential_violations = excluded.referential_violations,
                price_mean = excluded.price_mean,
                price_median = excluded.price_median,
                metrics_json = excluded.metrics_json`,
			runID,
			computedAt,
			metrics.RowsCols.Listings.Rows,
			metrics.RowsCols.Calendar.Rows,
			metrics.RowsCols.Reviews.Rows,
			metrics.Duplicates.DuplicateListingIDs,
			metrics.Referential.Total,
			metrics.PriceSummary.Mean,
			metrics.PriceSummary.Median,
			string(metricsJSON),
		)
		if err != nil {
			return fmt.Errorf("upsert health check: %w", err)
		}

		for _, key := range audit.HealthTableKeys() {
			if err := materializeTable(ctx, tx, "health_"+key, runID, result.Tables[key]); err != nil {
				return err
			}
		}
		return nil
	})
}

// PersistDeepDiveAudit is the deep-dive counterpart of PersistHealthAudit.
func (s *Store) PersistDeepDiveAudit(ctx context.Context, runID string, result *audit.DeepDiveResult) error {
	if result == nil {
		return errors.New("deep dive result is nil")
	}
	if _, err := s.GetRun(ctx, runID); err != nil {
		return err
	}

	metricsJSON, err := json.Marshal(result.Metrics)
	if err != nil {
		return fmt.Errorf("marshal deep dive metrics: %w", err)
	}
	computedAt := time.Now().UTC().Format(time.RFC3339Nano)
	metrics := result.Metrics

	return s.withTx(ctx, "persist deep dive audit", func(tx *sql.Tx) error {
		_, err := tx.ExecContext(
			ctx,
			`INSERT INTO deep_dive_checks (
                run_id, computed_at, occupancy_rate, booking_gap_mean,
                review_listings, rating_mean, neighborhoods, metrics_json
            ) VALUES (?, ?, ?, ?, ?, ?, ?, ?)
            ON CONFLICT (run_id) DO UPDATE SET
                computed_at = excluded.computed_at,
                occupancy_rate = excluded.occupancy_rate,
                booking_gap_mean = excluded.booking_gap_mean,
                review_listings = excluded.review_listings,
                rating_mean = excluded.rating_mean,
                neighborhoods = excluded.neighborhoods,
                metrics_json = excluded.metrics_json`,
			runID,
			computedAt,
			metrics.Occupancy.OverallRate,
			metrics.BookingGaps.Mean,
			metrics.ReviewVolume.ListingsWithReviews,
			metrics.Ratings.Mean,
			metrics.Neighborhoods.Count,
			string(metricsJSON),
		)
		if err != nil {
			return fmt.Errorf("upsert deep dive check: %w", err)
		}

		for _, key := range audit.DeepDiveTableKeys() {
			if err := materializeTable(ctx, tx, "deep_dive_"+key, runID, result.Tables[key]); err != nil {
				return err
			}
		}
		return nil
	})
}

// PersistModelResult replaces the run's model_metrics rows with the
// collaborator result's metrics. Returns NotFoundError when the run is
// unknown.
func (s *Store) PersistModelResult(ctx context.Context, runID string, kind Kind, result *model.Result) error {
	if result == nil {
		return errors.New("model result is nil")
	}
	if _, err := s.GetRun(ctx, runID); err != nil {
		return err
	}

	names := make([]string, 0, len(result.Metrics))
	for name := range result.Metrics {
		names = append(names, name)
	}
	sort.Strings(names)
	createdAt := time.Now().UTC().Format(time.RFC3339Nano)

	return s.withTx(ctx, "persist model result", func(tx *sql.Tx) error {
		if _, err := tx.ExecContext(ctx, `DELETE FROM model_metrics WHERE run_id = ?`, runID); err != nil {
			return fmt.Errorf("clear model metrics: %w", err)
		}
		for _, name := range names {
			_, err := tx.ExecContext(
				ctx,
				`INSERT INTO model_metrics (run_id, kind, name, value, created_at) VALUES (?, ?, ?, ?, ?)`,
				runID,
				kind,
				name,
				result.Metrics[name],
				createdAt,
			)
			if err != nil {
				return fmt.Errorf("insert model metric %q: %w", name, err)
			}
		}
		return nil
	})
}

// HealthCheck fetches the persisted health_checks row for a run.
// Returns NotFoundError when absent.
func (s *Store) HealthCheck(ctx context.Context, runID string) (*HealthCheckRow, error) {
	row := s.db.QueryRowContext(
		ctxOrBackground(ctx),
		`SELECT run_id, computed_at, listings_rows, calendar_rows, reviews_rows,
                duplicate_listing_ids, referential_violations, price_mean, price_median, metrics_json
         FROM health_checks WHERE run_id = ?`,
		runID,
	)

	var (
		check       HealthCheckRow
		computedRaw sql.NullString
	)
	err := row.Scan(
		&check.RunID,
		&computedRaw,
		&check.ListingsRows,
		&check.CalendarRows,
		&check.ReviewsRows,
		&check.DuplicateListingIDs,
		&check.ReferentialViolations,
		&check.PriceMean,
		&check.PriceMedian,
		&check.MetricsJSON,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, &NotFoundError{Entity: "health check", Key: runID}
	}
	if err != nil {
		return nil, storageErr("get health check", err)
	}
	if computed, err := parseDBTime(computedRaw.String); err == nil {
		check.ComputedAt = computed
	}
	return &check, nil
}

// DeepDiveCheck fetches the persisted deep_dive_checks row for a run.
// Returns NotFoundError when absent.
func (s *Store) DeepDiveCheck(ctx context.Context, runID string) (*DeepDiveCheckRow, error) {
	row := s.db.QueryRowContext(
		ctxOrBackground(ctx),
		`SELECT run_id, computed_at, occupancy_rate, booking_gap_mean,
                review_listings, rating_mean, neighborhoods, metrics_json
         FROM deep_dive_checks WHERE run_id = ?`,
		runID,
	)

	var (
		check       DeepDiveCheckRow
		computedRaw sql.NullString
	)
	err := row.Scan(
		&check.RunID,
		&computedRaw,
		&check.OccupancyRate,
		&check.BookingGapMean,
		&check.ReviewListings,
		&check.RatingMean,
		&check.Neighborhoods,
		&check.MetricsJSON,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, &NotFoundError{Entity: "deep dive check", Key: runID}
	}
	if err != nil {
		return nil, storageErr("get deep dive check", err)
	}
	if computed, err := parseDBTime(computedRaw.String); err == nil {
		check.ComputedAt = computed
	}
	return &check, nil
}

// ModelMetrics returns the persisted metric rows for a run, ordered by name.
func (s *Store) ModelMetrics(ctx context.Context, runID string) ([]ModelMetric, error) {
	rows, err := s.db.QueryContext(
		ctxOrBackground(ctx),
		`SELECT run_id, kind, name, value FROM model_metrics WHERE run_id = ? ORDER BY name`,
		runID,
	)
	if err != nil {
		return nil, storageErr("list model metrics", err)
	}
	defer rows.Close()

	var metrics []ModelMetric
	for rows.Next() {
		var metric ModelMetric
		if err := rows.Scan(&metric.RunID, &metric.Kind, &metric.Name, &metric.Value); err != nil {
			return nil, storageErr("scan model metric", err)
		}
		metrics = append(metrics, metric)
	}
	return metrics, rows.Err()
}

// MaterializedRows reads back a materialized audit table for one run,
// preserving insert order.
func (s *Store) MaterializedRows(ctx context.Context, table, runID string) ([]map[string]any, error) {
	rows, err := s.db.QueryContext(
		ctxOrBackground(ctx),
		`SELECT * FROM "`+table+`" WHERE run_id = ? ORDER BY rowid`,
		runID,
	)
	if err != nil {
		return nil, storageErr("query materialized table", err)
	}
	defer rows.Close()

	columns, err := rows.Columns()
	if err != nil {
		return nil, storageErr("materialized table columns", err)
	}

	var out []map[string]any
	for rows.Next() {
		values := make([]any, len(columns))
		ptrs := make([]any, len(columns))
		for i := range values {
			ptrs[i] = &values[i]
		}
		if err := rows.Scan(ptrs...); err != nil {
			return nil, storageErr("scan materialized row", err)
		}
		record := make(map[string]any, len(columns))
		for i, col := range columns {
			record[col] = values[i]
		}
		out = append(out, record)
	}
	return out, rows.Err()
}

// materializeTable mirrors one audit table into its own relational table,
// replacing any rows previously written for the run.
func materializeTable(ctx context.Context, tx *sql.Tx, name, runID string, table *dataset.Table) error {
	if table == nil {
		table = &dataset.Table{}
	}

	if _, err := tx.ExecContext(ctx, materializedTableDDL(name, table.Columns)); err != nil {
		return fmt.Errorf("create table %s: %w", name, err)
	}
	if _, err := tx.ExecContext(ctx, `DELETE FROM "`+name+`" WHERE run_id = ?`, runID); err != nil {
		return fmt.Errorf("clear table %s: %w", name, err)
	}
	if table.NumRows() == 0 || table.NumColumns() == 0 {
		return nil
	}

	stmt, err := tx.PrepareContext(ctx, materializedTableInsert(name, table.Columns))
	if err != nil {
		return fmt.Errorf("prepare insert %s: %w", name, err)
	}
	defer stmt.Close()

	for _, row := range table.Rows {
		args := make([]any, 0, len(row)+1)
		args = append(args, runID)
		for _, cell := range row {
			args = append(args, sqlCell(cell))
		}
		if _, err := stmt.ExecContext(ctx, args...); err != nil {
			return fmt.Errorf("insert into %s: %w", name, err)
		}
	}
	return nil
}

func materializedTableDDL(name string, columns []dataset.Column) string {
	var b strings.Builder
	b.WriteString(`CREATE TABLE IF NOT EXISTS "`)
	b.WriteString(name)
	b.WriteString(`" (run_id TEXT NOT NULL`)
	for _, col := range columns {
		b.WriteString(`, "`)
		b.WriteString(col.Name)
		b.WriteString(`" `)
		b.WriteString(sqliteType(col.Type))
	}
	b.WriteString(`)`)
	return b.String()
}

func materializedTableInsert(name string, columns []dataset.Column) string {
	var b strings.Builder
	b.WriteString(`INSERT INTO "`)
	b.WriteString(name)
	b.WriteString(`" (run_id`)
	for _, col := range columns {
		b.WriteString(`, "`)
		b.WriteString(col.Name)
		b.WriteString(`"`)
	}
	b.WriteString(`) VALUES (`)
	b.WriteString(placeholders(len(columns) + 1))
	b.WriteString(`)`)
	return b.String()
}

func sqliteType(t dataset.Type) string {
	switch t {
	case dataset.TypeInteger, dataset.TypeBool:
		return "INTEGER"
	case dataset.TypeReal:
		return "REAL"
	default:
		return "TEXT"
	}
}

func sqlCell(cell any) any {
	switch v := cell.(type) {
	case nil:
		return nil
	case bool:
		if v {
			return 1
		}
		return 0
	case time.Time:
		return dataset.FormatCell(v)
	default:
		return v
	}
}

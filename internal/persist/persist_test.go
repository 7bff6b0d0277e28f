package persist_test

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"testing"

	"stayscope/internal/audit"
	"stayscope/internal/dataset"
	"stayscope/internal/model"
	"stayscope/internal/persist"
	"stayscope/internal/runs"
	"stayscope/internal/testsupport"
)

func healthFixture() *audit.HealthResult {
	violations := dataset.NewTable(
		dataset.Column{Name: "source", Type: dataset.TypeText},
		dataset.Column{Name: "listing_id", Type: dataset.TypeInteger},
	)
	violations.AppendRow("calendar", int64(99))

	return &audit.HealthResult{
		Metrics: audit.HealthMetrics{
			RowsCols: audit.RowsCols{
				Listings: audit.TableShape{Rows: 2, Columns: 6},
				Calendar: audit.TableShape{Rows: 3, Columns: 3},
				Reviews:  audit.TableShape{Rows: 3, Columns: 3},
			},
			Referential: audit.ReferentialSummary{Total: 1, Calendar: 1, SampleIDs: []int64{99}},
			PriceSummary: audit.PriceSummary{
				Count: 2, Min: 50, Mean: 75, Median: 75, P25: 62.5, P75: 87.5, Max: 100,
			},
		},
		Tables: map[string]*dataset.Table{
			"referential_violations": violations,
		},
	}
}

func deepDiveFixture() *audit.DeepDiveResult {
	occupancy := dataset.NewTable(
		dataset.Column{Name: "listing_id", Type: dataset.TypeInteger},
		dataset.Column{Name: "days", Type: dataset.TypeInteger},
		dataset.Column{Name: "unavailable", Type: dataset.TypeInteger},
		dataset.Column{Name: "occupancy_rate", Type: dataset.TypeReal},
	)
	occupancy.AppendRow(int64(1), int64(2), int64(1), 0.5)

	return &audit.DeepDiveResult{
		Metrics: audit.DeepDiveMetrics{
			Occupancy:     audit.OccupancySummary{OverallRate: 0.5, ListingCount: 1, MeanRate: 0.5, MinRate: 0.5, MaxRate: 0.5},
			BookingGaps:   audit.BookingGapSummary{Count: 1, Mean: 1, Median: 1, Max: 1},
			ReviewVolume:  audit.ReviewVolumeSummary{ListingsWithReviews: 2, TotalReviews: 3, MeanPerListing: 1.5, MaxPerListing: 2},
			Ratings:       audit.RatingSummary{Count: 2, Min: 80, Mean: 87.5, Median: 87.5, Max: 95},
			Neighborhoods: audit.NeighborhoodOverview{Count: 2},
		},
		Tables: map[string]*dataset.Table{
			"listing_occupancy": occupancy,
		},
	}
}

func artifactNames(artifacts []*runs.Artifact) []string {
	names := make([]string, 0, len(artifacts))
	for _, artifact := range artifacts {
		names = append(names, artifact.Name)
	}
	return names
}

func TestHealthAuditFreshRun(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	store := testsupport.MustOpenStore(t, cfg)
	files := testsupport.NewArtifactStore(t, cfg)
	ctx := context.Background()

	run, err := persist.HealthAudit(ctx, store, files, "", healthFixture())
	if err != nil {
		t.Fatalf("HealthAudit: %v", err)
	}
	if run.Kind != runs.KindHealth {
		t.Errorf("run kind = %s, want %s", run.Kind, runs.KindHealth)
	}
	if run.Status != runs.StatusCompleted {
		t.Errorf("run status = %s, want %s", run.Status, runs.StatusCompleted)
	}
	if run.EndedAt == nil {
		t.Error("completed run has no ended_at")
	}

	var metrics audit.HealthMetrics
	if err := json.Unmarshal([]byte(run.MetricsJSON), &metrics); err != nil {
		t.Fatalf("unmarshal run metrics: %v", err)
	}
	if metrics.PriceSummary.Mean != 75 {
		t.Errorf("metrics price mean = %v, want 75", metrics.PriceSummary.Mean)
	}

	logged, err := store.ListArtifacts(ctx, run.ID)
	if err != nil {
		t.Fatalf("ListArtifacts: %v", err)
	}
	names := artifactNames(logged)
	want := []string{"metrics.json", "referential_violations.csv"}
	if len(names) != len(want) {
		t.Fatalf("artifact names = %v, want %v", names, want)
	}
	for i, name := range want {
		if names[i] != name {
			t.Fatalf("artifact names = %v, want %v", names, want)
		}
	}
	for _, artifact := range logged {
		payload, err := files.Read(artifact.Path)
		if err != nil {
			t.Fatalf("read artifact %s: %v", artifact.Name, err)
		}
		if len(payload) == 0 {
			t.Errorf("artifact %s is empty", artifact.Name)
		}
	}

	check, err := store.HealthCheck(ctx, run.ID)
	if err != nil {
		t.Fatalf("HealthCheck: %v", err)
	}
	if check.ListingsRows != 2 || check.ReferentialViolations != 1 {
		t.Errorf("health check rows = %d violations = %d, want 2 and 1", check.ListingsRows, check.ReferentialViolations)
	}
	if check.PriceMean != 75 || check.PriceMedian != 75 {
		t.Errorf("health check prices = %v/%v, want 75/75", check.PriceMean, check.PriceMedian)
	}

	rows, err := store.MaterializedRows(ctx, "health_referential_violations", run.ID)
	if err != nil {
		t.Fatalf("MaterializedRows: %v", err)
	}
	if len(rows) != 1 {
		t.Fatalf("materialized rows = %d, want 1", len(rows))
	}
	if rows[0]["listing_id"] != int64(99) {
		t.Errorf("materialized listing_id = %v, want 99", rows[0]["listing_id"])
	}
}

func TestDeepDiveAuditFreshRun(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	store := testsupport.MustOpenStore(t, cfg)
	files := testsupport.NewArtifactStore(t, cfg)
	ctx := context.Background()

	run, err := persist.DeepDiveAudit(ctx, store, files, "", deepDiveFixture())
	if err != nil {
		t.Fatalf("DeepDiveAudit: %v", err)
	}
	if run.Kind != runs.KindDeepDive || run.Status != runs.StatusCompleted {
		t.Fatalf("run = %s/%s, want %s/%s", run.Kind, run.Status, runs.KindDeepDive, runs.StatusCompleted)
	}

	check, err := store.DeepDiveCheck(ctx, run.ID)
	if err != nil {
		t.Fatalf("DeepDiveCheck: %v", err)
	}
	if check.OccupancyRate != 0.5 || check.Neighborhoods != 2 {
		t.Errorf("deep dive check = %v/%d, want 0.5/2", check.OccupancyRate, check.Neighborhoods)
	}

	rows, err := store.MaterializedRows(ctx, "deep_dive_listing_occupancy", run.ID)
	if err != nil {
		t.Fatalf("MaterializedRows: %v", err)
	}
	if len(rows) != 1 || rows[0]["occupancy_rate"] != 0.5 {
		t.Fatalf("materialized occupancy rows = %v, want one row at 0.5", rows)
	}
}

func TestModelResultReusesCallerRun(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	store := testsupport.MustOpenStore(t, cfg)
	files := testsupport.NewArtifactStore(t, cfg)
	ctx := context.Background()

	opened, err := store.StartRun(ctx, runs.KindRegression)
	if err != nil {
		t.Fatalf("StartRun: %v", err)
	}

	predictions := dataset.NewTable(
		dataset.Column{Name: "listing_id", Type: dataset.TypeInteger},
		dataset.Column{Name: "predicted", Type: dataset.TypeReal},
	)
	predictions.AppendRow(int64(1), 75.0)
	result := &model.Result{
		Metrics: map[string]float64{"mae": 25, "train_rows": 2},
		Tables:  map[string]*dataset.Table{"predictions": predictions},
		Model:   []byte(`{"type":"mean_regression"}`),
	}

	run, err := persist.ModelResult(ctx, store, files, opened.ID, runs.KindRegression, result)
	if err != nil {
		t.Fatalf("ModelResult: %v", err)
	}
	if run.ID != opened.ID {
		t.Errorf("run id = %s, want reused %s", run.ID, opened.ID)
	}
	if run.Status != runs.StatusCompleted {
		t.Errorf("run status = %s, want %s", run.Status, runs.StatusCompleted)
	}

	history, err := store.RunsHistory(ctx, runs.KindRegression, 10)
	if err != nil {
		t.Fatalf("RunsHistory: %v", err)
	}
	if len(history) != 1 {
		t.Errorf("history length = %d, want 1 reused run", len(history))
	}

	logged, err := store.ListArtifacts(ctx, run.ID)
	if err != nil {
		t.Fatalf("ListArtifacts: %v", err)
	}
	names := artifactNames(logged)
	want := []string{"metrics.json", "model.bin", "predictions.csv"}
	if len(names) != len(want) {
		t.Fatalf("artifact names = %v, want %v", names, want)
	}
	for i, name := range want {
		if names[i] != name {
			t.Fatalf("artifact names = %v, want %v", names, want)
		}
	}

	modelArtifact, err := store.GetArtifact(ctx, run.ID, "model.bin")
	if err != nil {
		t.Fatalf("GetArtifact: %v", err)
	}
	if modelArtifact.Kind != runs.ArtifactModel {
		t.Errorf("model artifact kind = %s, want %s", modelArtifact.Kind, runs.ArtifactModel)
	}
	payload, err := files.Read(modelArtifact.Path)
	if err != nil {
		t.Fatalf("read model artifact: %v", err)
	}
	if string(payload) != `{"type":"mean_regression"}` {
		t.Errorf("model payload = %q", payload)
	}

	metrics, err := store.ModelMetrics(ctx, run.ID)
	if err != nil {
		t.Fatalf("ModelMetrics: %v", err)
	}
	if len(metrics) != 2 || metrics[0].Name != "mae" || metrics[1].Name != "train_rows" {
		t.Fatalf("model metrics = %+v, want mae then train_rows", metrics)
	}
	if metrics[0].Value != 25 || metrics[0].Kind != runs.KindRegression {
		t.Errorf("mae metric = %+v", metrics[0])
	}
}

func TestModelResultKindMismatch(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	store := testsupport.MustOpenStore(t, cfg)
	files := testsupport.NewArtifactStore(t, cfg)
	ctx := context.Background()

	opened, err := store.StartRun(ctx, runs.KindHealth)
	if err != nil {
		t.Fatalf("StartRun: %v", err)
	}

	result := &model.Result{Metrics: map[string]float64{"mae": 1}}
	_, err = persist.ModelResult(ctx, store, files, opened.ID, runs.KindRegression, result)
	if !runs.IsInvalidState(err) {
		t.Fatalf("error = %v, want invalid state", err)
	}

	run, err := store.GetRun(ctx, opened.ID)
	if err != nil {
		t.Fatalf("GetRun: %v", err)
	}
	if run.Status != runs.StatusRunning {
		t.Errorf("run status = %s, want untouched %s", run.Status, runs.StatusRunning)
	}
}

func TestHealthAuditEndedRunRejected(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	store := testsupport.MustOpenStore(t, cfg)
	files := testsupport.NewArtifactStore(t, cfg)
	ctx := context.Background()

	opened, err := store.StartRun(ctx, runs.KindHealth)
	if err != nil {
		t.Fatalf("StartRun: %v", err)
	}
	if err := store.EndRun(ctx, opened.ID, runs.StatusCompleted, "{}"); err != nil {
		t.Fatalf("EndRun: %v", err)
	}

	_, err = persist.HealthAudit(ctx, store, files, opened.ID, healthFixture())
	if !runs.IsInvalidState(err) {
		t.Fatalf("error = %v, want invalid state", err)
	}
}

func TestModelResultFailureMarksRunFailed(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	store := testsupport.MustOpenStore(t, cfg)
	files := testsupport.NewArtifactStore(t, cfg)
	ctx := context.Background()

	opened, err := store.StartRun(ctx, runs.KindKMeans)
	if err != nil {
		t.Fatalf("StartRun: %v", err)
	}

	// The table key becomes the artifact file name, so a separator in it
	// fails artifact validation partway through persistence.
	bad := dataset.NewTable(dataset.Column{Name: "x", Type: dataset.TypeInteger})
	bad.AppendRow(int64(1))
	result := &model.Result{
		Metrics: map[string]float64{"inertia": 125},
		Tables:  map[string]*dataset.Table{"clusters/bad": bad},
	}

	_, err = persist.ModelResult(ctx, store, files, opened.ID, runs.KindKMeans, result)
	if err == nil {
		t.Fatal("expected persistence failure")
	}
	if !strings.Contains(err.Error(), opened.ID) {
		t.Errorf("error %q does not name the run", err)
	}

	run, err := store.GetRun(ctx, opened.ID)
	if err != nil {
		t.Fatalf("GetRun: %v", err)
	}
	if run.Status != runs.StatusFailed {
		t.Fatalf("run status = %s, want %s", run.Status, runs.StatusFailed)
	}
	if run.EndedAt == nil {
		t.Error("failed run has no ended_at")
	}
	var payload map[string]string
	if err := json.Unmarshal([]byte(run.MetricsJSON), &payload); err != nil {
		t.Fatalf("unmarshal failure payload: %v", err)
	}
	if payload["error"] == "" {
		t.Errorf("failure payload = %q, want error text", run.MetricsJSON)
	}
}

func TestFailRun(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	store := testsupport.MustOpenStore(t, cfg)
	ctx := context.Background()

	opened, err := store.StartRun(ctx, runs.KindNLP)
	if err != nil {
		t.Fatalf("StartRun: %v", err)
	}

	persist.FailRun(ctx, store, opened.ID, errors.New("no reviews with comments to score"))

	run, err := store.GetRun(ctx, opened.ID)
	if err != nil {
		t.Fatalf("GetRun: %v", err)
	}
	if run.Status != runs.StatusFailed {
		t.Fatalf("run status = %s, want %s", run.Status, runs.StatusFailed)
	}
	if !strings.Contains(run.MetricsJSON, "no reviews with comments to score") {
		t.Errorf("failure payload = %q, want cause text", run.MetricsJSON)
	}
}

func TestPersistNilResults(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	store := testsupport.MustOpenStore(t, cfg)
	files := testsupport.NewArtifactStore(t, cfg)
	ctx := context.Background()

	if _, err := persist.HealthAudit(ctx, store, files, "", nil); err == nil {
		t.Error("nil health result accepted")
	}
	if _, err := persist.DeepDiveAudit(ctx, store, files, "", nil); err == nil {
		t.Error("nil deep-dive result accepted")
	}
	if _, err := persist.ModelResult(ctx, store, files, "", runs.KindNLP, nil); err == nil {
		t.Error("nil model result accepted")
	}

	stats, err := store.Stats(ctx)
	if err != nil {
		t.Fatalf("Stats: %v", err)
	}
	if len(stats) != 0 {
		t.Errorf("stats = %v, want no runs opened", stats)
	}
}

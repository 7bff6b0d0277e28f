package runs_test

import (
	"context"
	"strings"
	"testing"
	"time"

	"stayscope/internal/runs"
	"stayscope/internal/testsupport"
)

// startSpaced starts a run after a short pause so started_at ordering
// between consecutive runs is unambiguous.
func startSpaced(t *testing.T, store *runs.Store, kind runs.Kind) *runs.Run {
	t.Helper()

	time.Sleep(2 * time.Millisecond)
	run, err := store.StartRun(context.Background(), kind)
	if err != nil {
		t.Fatalf("StartRun failed: %v", err)
	}
	return run
}

func TestStartEndRunLifecycle(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	store := testsupport.MustOpenStore(t, cfg)
	ctx := context.Background()

	run, err := store.StartRun(ctx, runs.KindHealth)
	if err != nil {
		t.Fatalf("StartRun failed: %v", err)
	}
	if run.ID == "" {
		t.Fatal("expected run ID to be assigned")
	}
	if run.Status != runs.StatusRunning {
		t.Errorf("status = %s, want %s", run.Status, runs.StatusRunning)
	}
	if run.StartedAt.IsZero() {
		t.Error("started_at not recorded")
	}
	if run.EndedAt != nil {
		t.Errorf("ended_at = %v on a running run", run.EndedAt)
	}
	if run.Ended() {
		t.Error("running run reports ended")
	}

	if err := store.EndRun(ctx, run.ID, runs.StatusCompleted, `{"rows":2}`); err != nil {
		t.Fatalf("EndRun failed: %v", err)
	}
	ended, err := store.GetRun(ctx, run.ID)
	if err != nil {
		t.Fatalf("GetRun failed: %v", err)
	}
	if ended.Status != runs.StatusCompleted {
		t.Errorf("status = %s, want %s", ended.Status, runs.StatusCompleted)
	}
	if ended.EndedAt == nil || ended.EndedAt.Before(ended.StartedAt) {
		t.Errorf("ended_at = %v, want at or after %v", ended.EndedAt, ended.StartedAt)
	}
	if ended.MetricsJSON != `{"rows":2}` {
		t.Errorf("metrics_json = %q", ended.MetricsJSON)
	}
	if !ended.Ended() {
		t.Error("completed run reports not ended")
	}
}

func TestStartRunRejectsUnknownKind(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	store := testsupport.MustOpenStore(t, cfg)

	if _, err := store.StartRun(context.Background(), runs.Kind("bogus")); err == nil {
		t.Fatal("expected error for unknown kind")
	}
}

func TestEndRunTwice(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	store := testsupport.MustOpenStore(t, cfg)
	ctx := context.Background()

	run, err := store.StartRun(ctx, runs.KindNLP)
	if err != nil {
		t.Fatalf("StartRun failed: %v", err)
	}
	if err := store.EndRun(ctx, run.ID, runs.StatusFailed, `{"error":"boom"}`); err != nil {
		t.Fatalf("EndRun failed: %v", err)
	}

	err = store.EndRun(ctx, run.ID, runs.StatusCompleted, "{}")
	if !runs.IsInvalidState(err) {
		t.Fatalf("second EndRun error = %v, want invalid state", err)
	}

	// The first terminal status stays put.
	ended, err := store.GetRun(ctx, run.ID)
	if err != nil {
		t.Fatalf("GetRun failed: %v", err)
	}
	if ended.Status != runs.StatusFailed {
		t.Errorf("status = %s, want %s", ended.Status, runs.StatusFailed)
	}
}

func TestEndRunErrors(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	store := testsupport.MustOpenStore(t, cfg)
	ctx := context.Background()

	if err := store.EndRun(ctx, "missing", runs.StatusCompleted, "{}"); !runs.IsNotFound(err) {
		t.Errorf("unknown run error = %v, want not found", err)
	}

	run, err := store.StartRun(ctx, runs.KindHealth)
	if err != nil {
		t.Fatalf("StartRun failed: %v", err)
	}
	if err := store.EndRun(ctx, run.ID, runs.StatusRunning, ""); err == nil {
		t.Error("expected error for non-terminal status")
	}
}

func TestGetRunUnknown(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	store := testsupport.MustOpenStore(t, cfg)

	_, err := store.GetRun(context.Background(), "missing")
	if !runs.IsNotFound(err) {
		t.Fatalf("error = %v, want not found", err)
	}
	if kind := runs.ErrorKindOf(err); kind != "not_found" {
		t.Errorf("error kind = %q, want not_found", kind)
	}
}

func TestLatestRunEligibility(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	store := testsupport.MustOpenStore(t, cfg)
	ctx := context.Background()

	latest, err := store.LatestRun(ctx, runs.KindHealth)
	if err != nil {
		t.Fatalf("LatestRun failed: %v", err)
	}
	if latest != nil {
		t.Fatalf("latest = %+v, want nil with no runs", latest)
	}

	running := startSpaced(t, store, runs.KindHealth)
	latest, err = store.LatestRun(ctx, runs.KindHealth)
	if err != nil {
		t.Fatalf("LatestRun failed: %v", err)
	}
	if latest != nil {
		t.Fatalf("latest = %+v, want nil while only run is still running", latest)
	}

	if err := store.EndRun(ctx, running.ID, runs.StatusFailed, `{"error":"bad input"}`); err != nil {
		t.Fatalf("EndRun failed: %v", err)
	}
	latest, err = store.LatestRun(ctx, runs.KindHealth)
	if err != nil {
		t.Fatalf("LatestRun failed: %v", err)
	}
	if latest == nil || latest.ID != running.ID {
		t.Fatalf("latest = %+v, want failed run %s", latest, running.ID)
	}

	completed := startSpaced(t, store, runs.KindHealth)
	if err := store.EndRun(ctx, completed.ID, runs.StatusCompleted, "{}"); err != nil {
		t.Fatalf("EndRun failed: %v", err)
	}
	latest, err = store.LatestRun(ctx, runs.KindHealth)
	if err != nil {
		t.Fatalf("LatestRun failed: %v", err)
	}
	if latest == nil || latest.ID != completed.ID {
		t.Fatalf("latest = %+v, want newer completed run %s", latest, completed.ID)
	}

	// A newer running run does not displace the latest ended one.
	startSpaced(t, store, runs.KindHealth)
	latest, err = store.LatestRun(ctx, runs.KindHealth)
	if err != nil {
		t.Fatalf("LatestRun failed: %v", err)
	}
	if latest == nil || latest.ID != completed.ID {
		t.Fatalf("latest = %+v, want %s unchanged", latest, completed.ID)
	}

	// Other kinds are invisible to this one.
	other, err := store.LatestRun(ctx, runs.KindForecast)
	if err != nil {
		t.Fatalf("LatestRun failed: %v", err)
	}
	if other != nil {
		t.Errorf("forecast latest = %+v, want nil", other)
	}
}

func TestRunsHistory(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	store := testsupport.MustOpenStore(t, cfg)
	ctx := context.Background()

	first := startSpaced(t, store, runs.KindHealth)
	second := startSpaced(t, store, runs.KindHealth)
	third := startSpaced(t, store, runs.KindDeepDive)

	health, err := store.RunsHistory(ctx, runs.KindHealth, 0)
	if err != nil {
		t.Fatalf("RunsHistory failed: %v", err)
	}
	if len(health) != 2 || health[0].ID != second.ID || health[1].ID != first.ID {
		t.Fatalf("health history = %v, want [%s %s]", runIDs(health), second.ID, first.ID)
	}

	all, err := store.RunsHistory(ctx, "", 0)
	if err != nil {
		t.Fatalf("RunsHistory failed: %v", err)
	}
	if len(all) != 3 || all[0].ID != third.ID {
		t.Fatalf("all history = %v, want newest %s first", runIDs(all), third.ID)
	}

	limited, err := store.RunsHistory(ctx, runs.KindHealth, 1)
	if err != nil {
		t.Fatalf("RunsHistory failed: %v", err)
	}
	if len(limited) != 1 || limited[0].ID != second.ID {
		t.Fatalf("limited history = %v, want [%s]", runIDs(limited), second.ID)
	}
}

func runIDs(list []*runs.Run) []string {
	ids := make([]string, 0, len(list))
	for _, run := range list {
		ids = append(ids, run.ID)
	}
	return ids
}

func TestStats(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	store := testsupport.MustOpenStore(t, cfg)
	ctx := context.Background()

	a := startSpaced(t, store, runs.KindHealth)
	b := startSpaced(t, store, runs.KindRegression)
	startSpaced(t, store, runs.KindKMeans)
	if err := store.EndRun(ctx, a.ID, runs.StatusCompleted, "{}"); err != nil {
		t.Fatalf("EndRun failed: %v", err)
	}
	if err := store.EndRun(ctx, b.ID, runs.StatusFailed, "{}"); err != nil {
		t.Fatalf("EndRun failed: %v", err)
	}

	stats, err := store.Stats(ctx)
	if err != nil {
		t.Fatalf("Stats failed: %v", err)
	}
	want := map[runs.Status]int{
		runs.StatusRunning:   1,
		runs.StatusCompleted: 1,
		runs.StatusFailed:    1,
	}
	for status, count := range want {
		if stats[status] != count {
			t.Errorf("stats[%s] = %d, want %d", status, stats[status], count)
		}
	}
}

func TestNewRunID(t *testing.T) {
	now := time.Date(2025, 5, 15, 12, 0, 0, 0, time.UTC)
	id := runs.NewRunID(now)
	if !strings.HasPrefix(id, "20250515T120000.000000000Z-") {
		t.Errorf("run id = %q, want timestamp prefix", id)
	}
	if other := runs.NewRunID(now); other == id {
		t.Error("two run ids from the same instant collided")
	}

	later := runs.NewRunID(now.Add(time.Second))
	if !(id < later) {
		t.Errorf("ids not ordered by time: %q vs %q", id, later)
	}
}

func TestParseKindAndStatus(t *testing.T) {
	if kind, ok := runs.ParseKind(" Deep_Dive "); !ok || kind != runs.KindDeepDive {
		t.Errorf("ParseKind = %q/%v", kind, ok)
	}
	if _, ok := runs.ParseKind("ensemble"); ok {
		t.Error("unknown kind accepted")
	}
	if status, ok := runs.ParseStatus("FAILED"); !ok || status != runs.StatusFailed {
		t.Errorf("ParseStatus = %q/%v", status, ok)
	}
	if _, ok := runs.ParseStatus(""); ok {
		t.Error("empty status accepted")
	}
	if len(runs.AllKinds()) != 7 {
		t.Errorf("kinds = %v", runs.AllKinds())
	}
	for _, status := range runs.AllStatuses() {
		if parsed, ok := runs.ParseStatus(string(status)); !ok || parsed != status {
			t.Errorf("ParseStatus(%q) = %q/%v", status, parsed, ok)
		}
	}
}

// Package persist implements the run-persistence template shared by every
// pipeline kind: open or reuse a run, write file artifacts, record registry
// rows, then end the run. Any failure after the run opens marks it failed
// best-effort before the error propagates, so a run never stays running
// because persistence broke.
package persist

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"strings"

	"stayscope/internal/artifacts"
	"stayscope/internal/audit"
	"stayscope/internal/dataset"
	"stayscope/internal/model"
	"stayscope/internal/runs"
)

// HealthAudit persists a health audit result. An empty runID opens a fresh
// run; otherwise the caller's running run is reused.
func HealthAudit(ctx context.Context, store *runs.Store, files *artifacts.Store, runID string, result *audit.HealthResult) (*runs.Run, error) {
	if result == nil {
		return nil, errors.New("persist health audit: nil result")
	}
	run, err := openRun(ctx, store, runs.KindHealth, runID)
	if err != nil {
		return nil, err
	}
	metricsJSON, err := writeOutputs(ctx, store, files, run, result.Metrics, result.Tables, nil)
	if err == nil {
		err = store.PersistHealthAudit(ctx, run.ID, result)
	}
	return finishRun(ctx, store, run, metricsJSON, err)
}

// DeepDiveAudit persists a deep-dive audit result.
func DeepDiveAudit(ctx context.Context, store *runs.Store, files *artifacts.Store, runID string, result *audit.DeepDiveResult) (*runs.Run, error) {
	if result == nil {
		return nil, errors.New("persist deep-dive audit: nil result")
	}
	run, err := openRun(ctx, store, runs.KindDeepDive, runID)
	if err != nil {
		return nil, err
	}
	metricsJSON, err := writeOutputs(ctx, store, files, run, result.Metrics, result.Tables, nil)
	if err == nil {
		err = store.PersistDeepDiveAudit(ctx, run.ID, result)
	}
	return finishRun(ctx, store, run, metricsJSON, err)
}

// ModelResult persists a collaborator result, including the serialized
// model when the result carries one.
func ModelResult(ctx context.Context, store *runs.Store, files *artifacts.Store, runID string, kind runs.Kind, result *model.Result) (*runs.Run, error) {
	if result == nil {
		return nil, errors.New("persist model result: nil result")
	}
	run, err := openRun(ctx, store, kind, runID)
	if err != nil {
		return nil, err
	}
	metricsJSON, err := writeOutputs(ctx, store, files, run, result.Metrics, result.Tables, result.Model)
	if err == nil {
		err = store.PersistModelResult(ctx, run.ID, kind, result)
	}
	return finishRun(ctx, store, run, metricsJSON, err)
}

// openRun validates a caller-supplied run or starts a new one.
func openRun(ctx context.Context, store *runs.Store, kind runs.Kind, runID string) (*runs.Run, error) {
	if strings.TrimSpace(runID) == "" {
		return store.StartRun(ctx, kind)
	}
	run, err := store.GetRun(ctx, runID)
	if err != nil {
		return nil, err
	}
	if run.Kind != kind {
		return nil, &runs.InvalidStateError{
			RunID:  run.ID,
			State:  run.Status,
			Reason: fmt.Sprintf("run kind is %s, expected %s", run.Kind, kind),
		}
	}
	if run.Status != runs.StatusRunning {
		return nil, &runs.InvalidStateError{RunID: run.ID, State: run.Status, Reason: "already ended"}
	}
	return run, nil
}

// writeOutputs stores metrics.json, the optional serialized model, and one
// CSV per result table, logging each as an artifact row. Returns the
// serialized metrics for EndRun.
func writeOutputs(ctx context.Context, store *runs.Store, files *artifacts.Store, run *runs.Run, metrics any, tables map[string]*dataset.Table, modelBytes []byte) (string, error) {
	metricsJSON, err := json.Marshal(metrics)
	if err != nil {
		return "", fmt.Errorf("marshal metrics: %w", err)
	}

	modelType := string(run.Kind)
	relPath, err := files.WriteJSON(modelType, run.ID, "metrics.json", metrics)
	if err != nil {
		return "", err
	}
	if _, err := store.LogArtifact(ctx, run.ID, "metrics.json", relPath, runs.ArtifactJSON); err != nil {
		return "", err
	}

	if len(modelBytes) > 0 {
		relPath, err := files.Write(modelType, run.ID, "model.bin", modelBytes)
		if err != nil {
			return "", err
		}
		if _, err := store.LogArtifact(ctx, run.ID, "model.bin", relPath, runs.ArtifactModel); err != nil {
			return "", err
		}
	}

	keys := make([]string, 0, len(tables))
	for key := range tables {
		keys = append(keys, key)
	}
	sort.Strings(keys)
	for _, key := range keys {
		table := tables[key]
		if table == nil {
			continue
		}
		name := key + ".csv"
		relPath, err := files.WriteTableCSV(modelType, run.ID, name, table)
		if err != nil {
			return "", err
		}
		if _, err := store.LogArtifact(ctx, run.ID, name, relPath, runs.ArtifactTable); err != nil {
			return "", err
		}
	}

	return string(metricsJSON), nil
}

// finishRun ends the run: completed with the metrics payload on success,
// otherwise best-effort failed with the error text before returning the
// original failure.
func finishRun(ctx context.Context, store *runs.Store, run *runs.Run, metricsJSON string, persistErr error) (*runs.Run, error) {
	if persistErr != nil {
		markFailed(ctx, store, run.ID, persistErr)
		return nil, fmt.Errorf("persist %s run %s: %w", run.Kind, run.ID, persistErr)
	}
	if err := store.EndRun(ctx, run.ID, runs.StatusCompleted, metricsJSON); err != nil {
		return nil, err
	}
	return store.GetRun(ctx, run.ID)
}

// markFailed records the failure on the run. Best effort: the original
// error matters more than a second one while writing it down.
func markFailed(ctx context.Context, store *runs.Store, runID string, cause error) {
	payload, err := json.Marshal(map[string]string{"error": cause.Error()})
	if err != nil {
		payload = []byte(`{"error":"persistence failure"}`)
	}
	_ = store.EndRun(ctx, runID, runs.StatusFailed, string(payload))
}

// FailRun marks a caller-opened run failed with the given cause. Used by
// the pipeline when the computation itself fails before anything persists.
func FailRun(ctx context.Context, store *runs.Store, runID string, cause error) {
	markFailed(ctx, store, runID, cause)
}

package api

import (
	"encoding/json"

	"stayscope/internal/runs"
)

// FromRun converts a registry run into its transport representation.
func FromRun(run *runs.Run) Run {
	if run == nil {
		return Run{}
	}
	out := Run{
		ID:        run.ID,
		Kind:      string(run.Kind),
		Status:    string(run.Status),
		StartedAt: run.StartedAt.Format(dateTimeFormat),
	}
	if run.EndedAt != nil {
		out.EndedAt = run.EndedAt.Format(dateTimeFormat)
	}
	if run.MetricsJSON != "" {
		out.Metrics = json.RawMessage(run.MetricsJSON)
	}
	return out
}

// FromArtifact converts an artifact row into its transport representation.
func FromArtifact(artifact *runs.Artifact) Artifact {
	if artifact == nil {
		return Artifact{}
	}
	return Artifact{
		Name:      artifact.Name,
		Path:      artifact.Path,
		Kind:      string(artifact.Kind),
		CreatedAt: artifact.CreatedAt.Format(dateTimeFormat),
	}
}

// FromRuns converts a run history slice, newest first, preserving order.
func FromRuns(history []*runs.Run) []Run {
	out := make([]Run, 0, len(history))
	for _, run := range history {
		out = append(out, FromRun(run))
	}
	return out
}

// FromArtifacts converts an artifact listing, preserving name order.
func FromArtifacts(rows []*runs.Artifact) []Artifact {
	out := make([]Artifact, 0, len(rows))
	for _, artifact := range rows {
		out = append(out, FromArtifact(artifact))
	}
	return out
}

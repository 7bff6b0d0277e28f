package api

import "encoding/json"

// dateTimeFormat is used for RFC3339 timestamps in API payloads.
const dateTimeFormat = "2006-01-02T15:04:05.000Z07:00"

// Run describes a registry run in a transport-friendly format. Metrics
// carries the stored metrics document verbatim, absent while the run is
// still open.
type Run struct {
	ID        string          `json:"id"`
	Kind      string          `json:"kind"`
	Status    string          `json:"status"`
	StartedAt string          `json:"startedAt"`
	EndedAt   string          `json:"endedAt,omitempty"`
	Metrics   json.RawMessage `json:"metrics,omitempty"`
}

// Artifact describes one logged artifact row.
type Artifact struct {
	Name      string `json:"name"`
	Path      string `json:"path"`
	Kind      string `json:"kind"`
	CreatedAt string `json:"createdAt"`
}

// Model describes a registered collaborator together with its most recent
// ended run, when one exists.
type Model struct {
	ID          string `json:"id"`
	DisplayName string `json:"displayName"`
	Target      string `json:"target"`
	LatestRun   *Run   `json:"latestRun,omitempty"`
}

// RunResponse wraps a single run.
type RunResponse struct {
	Run Run `json:"run"`
}

// RunListResponse wraps a collection of runs for API responses.
type RunListResponse struct {
	Runs []Run `json:"runs"`
}

// ModelListResponse wraps the collaborator registry.
type ModelListResponse struct {
	Models []Model `json:"models"`
}

// ArtifactListResponse lists the artifacts of one run.
type ArtifactListResponse struct {
	RunID     string     `json:"runId"`
	Artifacts []Artifact `json:"artifacts"`
}

// Package api serves the run registry and the audit pipelines over HTTP.
//
// # Routes
//
// Pipeline triggers (POST /api/health/run, /api/deep-dive/run,
// /api/train/{model_id}) run synchronously and answer with the persisted
// run, metrics document included. Read endpoints (/api/models, /api/runs,
// /api/runs/latest, /api/artifacts/{model_id}) serve registry rows.
// GET / lists the routes; /healthz and /metrics sit outside the /api
// prefix.
//
// # Design Notes
//
// DTOs use camelCase JSON tags. Run kinds, statuses, and artifact kinds are
// exposed as lowercase strings. Timestamps use RFC3339 with milliseconds.
// Stored metrics documents are passed through as json.RawMessage to avoid
// double-encoding. Registry and pipeline errors map to status codes through
// their error kinds; every error body is {"error": "..."}.
package api

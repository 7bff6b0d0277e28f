// Package main hosts the stayscope CLI entrypoint and command graph.
//
// The Cobra-based command tree runs dataset audits and model training
// pipelines, queries the run registry and artifact store, serves the HTTP
// API, and scaffolds configuration. Configuration resolution and logging
// setup happen once, in the shared command context, before any subcommand
// body runs.
//
// Command implementations stay thin; behavior belongs in the internal
// packages and is surfaced here through flags and subcommands.
package main

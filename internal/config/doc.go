// Package config loads, normalizes, and validates Stayscope configuration data.
//
// Configuration comes from a TOML file resolved against the XDG config home,
// with every omitted key backfilled from repository defaults. Tilde and
// relative paths are expanded during load, so the rest of the codebase only
// ever sees absolute locations for the data, artifact, log, and dataset
// files. Model tunables and logging choices live here too; the CLI and the
// API server consume the same Config value.
package config

// Package preflight validates the local environment before pipelines run:
// directory permissions, dataset files, and the run registry database. The
// status command renders its results.
package preflight

package model

import (
	"context"
	"errors"
	"fmt"

	"stayscope/internal/dataset"
)

// Inputs carries the loaded datasets a collaborator trains on.
type Inputs struct {
	Listings *dataset.Table
	Calendar *dataset.Table
	Reviews  *dataset.Table
}

// Config carries collaborator tunables.
type Config struct {
	// Clusters is the cluster count for the kmeans collaborator.
	Clusters int
	// Horizon is the number of days the forecast collaborator predicts.
	Horizon int
	// Window is the trailing-average window for the forecast collaborator.
	Window int
}

// DefaultConfig returns the tunables used when a caller passes the zero value.
func DefaultConfig() Config {
	return Config{Clusters: 3, Horizon: 7, Window: 14}
}

// Result is a collaborator's output: scalar metrics, derived tables, and an
// optional serialized model.
type Result struct {
	Metrics map[string]float64
	Tables  map[string]*dataset.Table
	Model   []byte
}

// Collaborator computes a model result from the inputs. Implementations
// must be deterministic: identical inputs produce identical results.
type Collaborator func(ctx context.Context, inputs *Inputs, cfg Config) (*Result, error)

// ComputationError wraps a failure inside a collaborator. The pipeline
// attaches it before marking the run failed.
type ComputationError struct {
	Kind string
	Err  error
}

func (e *ComputationError) Error() string {
	return fmt.Sprintf("%s computation: %v", e.Kind, e.Err)
}

func (e *ComputationError) Unwrap() error { return e.Err }

// ErrorKind classifies the error for presentation mapping.
func (e *ComputationError) ErrorKind() string { return "computation" }

// IsComputation reports whether err is (or wraps) a ComputationError.
func IsComputation(err error) bool {
	var target *ComputationError
	return errors.As(err, &target)
}

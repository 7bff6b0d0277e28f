package runs

import (
	"errors"
	"fmt"
)

// ErrorClassifier allows errors to declare their classification for
// presentation mapping. The CLI and HTTP layers translate kinds into exit
// codes and status codes without depending on concrete error types.
type ErrorClassifier interface {
	// ErrorKind returns a string classification of the error.
	// Known kinds: "storage", "not_found", "invalid_state", "schema",
	// "computation".
	ErrorKind() string
}

// StorageError wraps database failures inside the registry: the file cannot
// be opened, a write fails, or the busy retry budget is exhausted.
type StorageError struct {
	Op  string
	Err error
}

func (e *StorageError) Error() string {
	if e.Err == nil {
		return e.Op
	}
	return e.Op + ": " + e.Err.Error()
}

func (e *StorageError) Unwrap() error { return e.Err }

func (e *StorageError) ErrorKind() string { return "storage" }

// NotFoundError reports a missing run, artifact, or check row.
type NotFoundError struct {
	Entity string
	Key    string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("%s %q not found", e.Entity, e.Key)
}

func (e *NotFoundError) ErrorKind() string { return "not_found" }

// InvalidStateError reports a lifecycle violation such as ending a run twice.
type InvalidStateError struct {
	RunID  string
	State  Status
	Reason string
}

func (e *InvalidStateError) Error() string {
	return fmt.Sprintf("run %q is %s: %s", e.RunID, e.State, e.Reason)
}

func (e *InvalidStateError) ErrorKind() string { return "invalid_state" }

// storageErr wraps err in a StorageError unless it already carries one or
// is a registry error with its own classification.
func storageErr(op string, err error) error {
	if err == nil {
		return nil
	}
	var classifier ErrorClassifier
	if errors.As(err, &classifier) {
		return err
	}
	return &StorageError{Op: op, Err: err}
}

// IsStorage reports whether err is (or wraps) a StorageError.
func IsStorage(err error) bool {
	var target *StorageError
	return errors.As(err, &target)
}

// IsNotFound reports whether err is (or wraps) a NotFoundError.
func IsNotFound(err error) bool {
	var target *NotFoundError
	return errors.As(err, &target)
}

// IsInvalidState reports whether err is (or wraps) an InvalidStateError.
func IsInvalidState(err error) bool {
	var target *InvalidStateError
	return errors.As(err, &target)
}

// ErrorKindOf returns the classification of err, or "" when it has none.
func ErrorKindOf(err error) string {
	var classifier ErrorClassifier
	if errors.As(err, &classifier) {
		return classifier.ErrorKind()
	}
	return ""
}

package logging

import (
	"log/slog"
	"time"
)

// FieldComponent tags the subsystem emitting a record; the console handler
// renders it as a message prefix instead of a key=value pair.
const FieldComponent = "component"

// Attr aliases slog.Attr so call sites need only this package.
type Attr = slog.Attr

func String(key, value string) Attr { return slog.String(key, value) }

func Int(key string, value int) Attr { return slog.Int(key, value) }

func Float64(key string, value float64) Attr { return slog.Float64(key, value) }

func Duration(key string, value time.Duration) Attr { return slog.Duration(key, value) }

// Group nests attrs under a shared key; text output flattens the group to
// dotted keys.
func Group(key string, attrs ...Attr) Attr {
	args := make([]any, len(attrs))
	for i, attr := range attrs {
		args[i] = attr
	}
	return slog.Group(key, args...)
}

// Error records err under the conventional "error" key, tolerating nil.
func Error(err error) Attr {
	if err == nil {
		return slog.String("error", "<nil>")
	}
	return slog.Any("error", err)
}

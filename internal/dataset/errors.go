package dataset

import (
	"errors"
	"fmt"
	"strings"
)

// SchemaError reports required columns missing from an input dataset.
type SchemaError struct {
	Dataset string
	Missing []string
}

func (e *SchemaError) Error() string {
	return fmt.Sprintf("%s: missing required columns: %s", e.Dataset, strings.Join(e.Missing, ", "))
}

// ErrorKind classifies the error for presentation mapping.
func (e *SchemaError) ErrorKind() string { return "schema" }

// IsSchema reports whether err is (or wraps) a SchemaError.
func IsSchema(err error) bool {
	var schemaErr *SchemaError
	return errors.As(err, &schemaErr)
}

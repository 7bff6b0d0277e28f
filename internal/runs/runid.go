package runs

import (
	"strings"
	"time"

	"github.com/google/uuid"
)

// runIDTimeLayout keeps run identifiers lexically sortable by start time.
const runIDTimeLayout = "20060102T150405.000000000Z"

// NewRunID returns a run identifier ordered by timestamp with a random
// suffix so concurrent starts in one process never collide.
func NewRunID(now time.Time) string {
	suffix := strings.ReplaceAll(uuid.New().String(), "-", "")[:8]
	return now.UTC().Format(runIDTimeLayout) + "-" + suffix
}

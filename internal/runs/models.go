package runs

import (
	"strings"
	"time"
)

// Kind tags which pipeline produced a run.
type Kind string

const (
	KindHealth     Kind = "health"
	KindDeepDive   Kind = "deep_dive"
	KindRegression Kind = "regression"
	KindLogistic   Kind = "logistic"
	KindKMeans     Kind = "kmeans"
	KindForecast   Kind = "forecast"
	KindNLP        Kind = "nlp"
)

var allKinds = []Kind{
	KindHealth,
	KindDeepDive,
	KindRegression,
	KindLogistic,
	KindKMeans,
	KindForecast,
	KindNLP,
}

var kindSet = func() map[Kind]struct{} {
	set := make(map[Kind]struct{}, len(allKinds))
	for _, kind := range allKinds {
		set[kind] = struct{}{}
	}
	return set
}()

// AllKinds returns the ordered list of known pipeline kinds.
func AllKinds() []Kind {
	cp := make([]Kind, len(allKinds))
	copy(cp, allKinds)
	return cp
}

// ParseKind converts a string into a known Kind.
func ParseKind(value string) (Kind, bool) {
	normalized := Kind(strings.ToLower(strings.TrimSpace(value)))
	if normalized == "" {
		return "", false
	}
	_, ok := kindSet[normalized]
	return normalized, ok
}

// Status represents the lifecycle of a run.
type Status string

const (
	StatusRunning   Status = "running"
	StatusCompleted Status = "completed"
	StatusFailed    Status = "failed"
)

var allStatuses = []Status{
	StatusRunning,
	StatusCompleted,
	StatusFailed,
}

var statusSet = func() map[Status]struct{} {
	set := make(map[Status]struct{}, len(allStatuses))
	for _, status := range allStatuses {
		set[status] = struct{}{}
	}
	return set
}()

// AllStatuses returns the ordered list of known statuses.
func AllStatuses() []Status {
	cp := make([]Status, len(allStatuses))
	copy(cp, allStatuses)
	return cp
}

// ParseStatus converts a string into a known Status.
func ParseStatus(value string) (Status, bool) {
	normalized := Status(strings.ToLower(strings.TrimSpace(value)))
	if normalized == "" {
		return "", false
	}
	_, ok := statusSet[normalized]
	return normalized, ok
}

// Terminal reports whether the status marks an ended run.
func (s Status) Terminal() bool {
	return s == StatusCompleted || s == StatusFailed
}

// ArtifactKind classifies stored artifact files.
type ArtifactKind string

const (
	ArtifactModel  ArtifactKind = "model"
	ArtifactTable  ArtifactKind = "table"
	ArtifactJSON   ArtifactKind = "json"
	ArtifactFigure ArtifactKind = "figure"
)

// Run is one pipeline invocation persisted in SQLite.
type Run struct {
	ID          string
	Kind        Kind
	Status      Status
	StartedAt   time.Time
	EndedAt     *time.Time
	MetricsJSON string
}

// Ended reports whether the run reached a terminal status.
func (r *Run) Ended() bool {
	return r != nil && r.Status.Terminal()
}

// Artifact is a named file produced by a run.
type Artifact struct {
	ID        int64
	RunID     string
	Name      string
	Path      string
	Kind      ArtifactKind
	CreatedAt time.Time
}

// HealthCheckRow is the fixed-schema health_checks row for one run.
type HealthCheckRow struct {
	RunID                 string
	ComputedAt            time.Time
	ListingsRows          int
	CalendarRows          int
	ReviewsRows           int
	DuplicateListingIDs   int
	ReferentialViolations int
	PriceMean             float64
	PriceMedian           float64
	MetricsJSON           string
}

// DeepDiveCheckRow is the fixed-schema deep_dive_checks row for one run.
type DeepDiveCheckRow struct {
	RunID          string
	ComputedAt     time.Time
	OccupancyRate  float64
	BookingGapMean float64
	ReviewListings int
	RatingMean     float64
	Neighborhoods  int
	MetricsJSON    string
}

// ModelMetric is one named scalar persisted from a collaborator result.
type ModelMetric struct {
	RunID string
	Kind  Kind
	Name  string
	Value float64
}

package model

import (
	"sort"
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// Spec describes one registered collaborator.
type Spec struct {
	Kind        string
	DisplayName string
	Target      string
	Run         Collaborator
}

var titleCaser = cases.Title(language.English)

func displayName(phrase string) string {
	return titleCaser.String(phrase)
}

var registry = map[string]Spec{
	"regression": {
		Kind:        "regression",
		DisplayName: displayName("mean price regression"),
		Target:      "price",
		Run:         TrainRegression,
	},
	"logistic": {
		Kind:        "logistic",
		DisplayName: displayName("price tier classifier"),
		Target:      "price_tier",
		Run:         TrainLogistic,
	},
	"kmeans": {
		Kind:        "kmeans",
		DisplayName: displayName("price quantile clusters"),
		Target:      "price",
		Run:         TrainKMeans,
	},
	"forecast": {
		Kind:        "forecast",
		DisplayName: displayName("availability forecast"),
		Target:      "availability",
		Run:         TrainForecast,
	},
	"nlp": {
		Kind:        "nlp",
		DisplayName: displayName("review sentiment"),
		Target:      "review_sentiment",
		Run:         TrainSentiment,
	},
}

// Registry returns every registered collaborator spec, ordered by kind.
func Registry() []Spec {
	specs := make([]Spec, 0, len(registry))
	for _, spec := range registry {
		specs = append(specs, spec)
	}
	sort.Slice(specs, func(i, j int) bool { return specs[i].Kind < specs[j].Kind })
	return specs
}

// Lookup returns the spec registered for a kind.
func Lookup(kind string) (Spec, bool) {
	spec, ok := registry[strings.ToLower(strings.TrimSpace(kind))]
	return spec, ok
}

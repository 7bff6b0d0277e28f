package model

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"math"

	"stayscope/internal/dataset"
)

// TrainKMeans seeds cluster centers at evenly spaced price quantiles and
// assigns every listing to its nearest center in a single pass. No
// iterative refinement: the quantile seeding is already the fixed point for
// one-dimensional, sorted data and keeps the result deterministic.
func TrainKMeans(ctx context.Context, inputs *Inputs, cfg Config) (*Result, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	priced := pricedListings(tableOrEmpty(inputs.Listings))
	if len(priced) == 0 {
		return nil, errors.New("no listings with parsable prices")
	}

	k := cfg.Clusters
	if k <= 0 {
		k = DefaultConfig().Clusters
	}
	if k > len(priced) {
		k = len(priced)
	}

	prices := make([]float64, len(priced))
	for i, p := range priced {
		prices[i] = p.price
	}
	sorted := sortedCopy(prices)

	centers := make([]float64, k)
	for i := 0; i < k; i++ {
		centers[i] = quantile(sorted, (float64(i)+0.5)/float64(k))
	}

	assign := func(price float64) int {
		best := 0
		bestDist := math.Abs(price - centers[0])
		for i := 1; i < k; i++ {
			if dist := math.Abs(price - centers[i]); dist < bestDist {
				best = i
				bestDist = dist
			}
		}
		return best
	}

	type clusterAgg struct {
		size int
		min  float64
		max  float64
	}
	aggs := make([]clusterAgg, k)

	assignments := dataset.NewTable(
		dataset.Column{Name: "listing_id", Type: dataset.TypeInteger},
		dataset.Column{Name: "price", Type: dataset.TypeReal},
		dataset.Column{Name: "cluster", Type: dataset.TypeInteger},
	)
	var inertia float64
	for _, p := range priced {
		cluster := assign(p.price)
		diff := p.price - centers[cluster]
		inertia += diff * diff

		agg := &aggs[cluster]
		if agg.size == 0 || p.price < agg.min {
			agg.min = p.price
		}
		if agg.size == 0 || p.price > agg.max {
			agg.max = p.price
		}
		agg.size++

		assignments.AppendRow(p.id, p.price, int64(cluster))
	}

	clusters := dataset.NewTable(
		dataset.Column{Name: "cluster", Type: dataset.TypeInteger},
		dataset.Column{Name: "center", Type: dataset.TypeReal},
		dataset.Column{Name: "size", Type: dataset.TypeInteger},
		dataset.Column{Name: "price_min", Type: dataset.TypeReal},
		dataset.Column{Name: "price_max", Type: dataset.TypeReal},
	)
	for i := 0; i < k; i++ {
		clusters.AppendRow(int64(i), round2(centers[i]), int64(aggs[i].size), round2(aggs[i].min), round2(aggs[i].max))
	}

	modelBytes, err := json.Marshal(map[string]any{
		"type":    "quantile_kmeans",
		"target":  "price",
		"centers": centers,
	})
	if err != nil {
		return nil, fmt.Errorf("serialize model: %w", err)
	}

	return &Result{
		Metrics: map[string]float64{
			"train_rows": float64(len(priced)),
			"clusters":   float64(k),
			"inertia":    round2(inertia),
		},
		Tables: map[string]*dataset.Table{
			"clusters":    clusters,
			"assignments": assignments,
		},
		Model: modelBytes,
	}, nil
}

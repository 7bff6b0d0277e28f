package model

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"stayscope/internal/dataset"
)

const (
	tierPremium  = "premium"
	tierStandard = "standard"
)

// TrainLogistic is the majority-class baseline for the price tier: listings
// priced above the median are "premium", and the classifier predicts
// whichever tier is more common. Accuracy is therefore the majority share.
func TrainLogistic(ctx context.Context, inputs *Inputs, cfg Config) (*Result, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	priced := pricedListings(tableOrEmpty(inputs.Listings))
	if len(priced) == 0 {
		return nil, errors.New("no listings with parsable prices")
	}

	prices := make([]float64, len(priced))
	for i, p := range priced {
		prices[i] = p.price
	}
	threshold := quantile(sortedCopy(prices), 0.5)

	premium := 0
	for _, p := range priced {
		if p.price > threshold {
			premium++
		}
	}
	total := len(priced)
	predicted := tierStandard
	if premium*2 > total {
		predicted = tierPremium
	}

	classes := dataset.NewTable(
		dataset.Column{Name: "listing_id", Type: dataset.TypeInteger},
		dataset.Column{Name: "price", Type: dataset.TypeReal},
		dataset.Column{Name: "tier", Type: dataset.TypeText},
		dataset.Column{Name: "predicted", Type: dataset.TypeText},
	)
	correct := 0
	for _, p := range priced {
		tier := tierStandard
		if p.price > threshold {
			tier = tierPremium
		}
		if tier == predicted {
			correct++
		}
		classes.AppendRow(p.id, p.price, tier, predicted)
	}

	modelBytes, err := json.Marshal(map[string]any{
		"type":      "majority_class",
		"target":    "price_tier",
		"threshold": threshold,
		"predicted": predicted,
	})
	if err != nil {
		return nil, fmt.Errorf("serialize model: %w", err)
	}

	return &Result{
		Metrics: map[string]float64{
			"train_rows":    float64(total),
			"threshold":     round2(threshold),
			"premium_share": round4(float64(premium) / float64(total)),
			"accuracy":      round4(float64(correct) / float64(total)),
		},
		Tables: map[string]*dataset.Table{"classes": classes},
		Model:  modelBytes,
	}, nil
}

package model

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"math"

	"stayscope/internal/dataset"
)

// TrainRegression fits the mean-price baseline: every listing's price is
// predicted as the training mean, with MAE and RMSE reported against the
// observed values.
func TrainRegression(ctx context.Context, inputs *Inputs, cfg Config) (*Result, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	priced := pricedListings(tableOrEmpty(inputs.Listings))
	if len(priced) == 0 {
		return nil, errors.New("no listings with parsable prices")
	}

	var sum float64
	for _, p := range priced {
		sum += p.price
	}
	prediction := sum / float64(len(priced))

	predictions := dataset.NewTable(
		dataset.Column{Name: "listing_id", Type: dataset.TypeInteger},
		dataset.Column{Name: "price", Type: dataset.TypeReal},
		dataset.Column{Name: "predicted", Type: dataset.TypeReal},
		dataset.Column{Name: "residual", Type: dataset.TypeReal},
	)
	var absSum, sqSum float64
	for _, p := range priced {
		residual := p.price - prediction
		absSum += math.Abs(residual)
		sqSum += residual * residual
		predictions.AppendRow(p.id, p.price, round2(prediction), round2(residual))
	}
	mae := absSum / float64(len(priced))
	rmse := math.Sqrt(sqSum / float64(len(priced)))

	modelBytes, err := json.Marshal(map[string]any{
		"type":       "mean_predictor",
		"target":     "price",
		"prediction": prediction,
	})
	if err != nil {
		return nil, fmt.Errorf("serialize model: %w", err)
	}

	return &Result{
		Metrics: map[string]float64{
			"train_rows": float64(len(priced)),
			"prediction": round2(prediction),
			"mae":        round2(mae),
			"rmse":       round2(rmse),
		},
		Tables: map[string]*dataset.Table{"predictions": predictions},
		Model:  modelBytes,
	}, nil
}

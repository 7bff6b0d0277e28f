package model

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"sort"
	"time"

	"stayscope/internal/dataset"
)

// TrainForecast predicts the share of available calendar slots per day as
// the trailing average over the most recent window, and backtests the same
// rule against the observed series.
func TrainForecast(ctx context.Context, inputs *Inputs, cfg Config) (*Result, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	calendar := tableOrEmpty(inputs.Calendar)
	dateIdx := calendar.ColumnIndex("date")
	availableIdx := calendar.ColumnIndex("available")
	if dateIdx < 0 || availableIdx < 0 {
		return nil, errors.New("calendar dataset has no date/available columns")
	}

	type dayAgg struct {
		slots     int
		available int
	}
	byDay := make(map[time.Time]*dayAgg)
	for _, row := range calendar.Rows {
		date, ok := dataset.ParseDate(row[dateIdx])
		if !ok {
			continue
		}
		available, ok := dataset.ParseBool(row[availableIdx])
		if !ok {
			continue
		}
		day := date.Truncate(24 * time.Hour)
		agg := byDay[day]
		if agg == nil {
			agg = &dayAgg{}
			byDay[day] = agg
		}
		agg.slots++
		if available {
			agg.available++
		}
	}
	if len(byDay) == 0 {
		return nil, errors.New("calendar has no parsable date/available rows")
	}

	days := make([]time.Time, 0, len(byDay))
	for day := range byDay {
		days = append(days, day)
	}
	sort.Slice(days, func(i, j int) bool { return days[i].Before(days[j]) })

	rates := make([]float64, len(days))
	daily := dataset.NewTable(
		dataset.Column{Name: "date", Type: dataset.TypeDate},
		dataset.Column{Name: "slots", Type: dataset.TypeInteger},
		dataset.Column{Name: "available", Type: dataset.TypeInteger},
		dataset.Column{Name: "rate", Type: dataset.TypeReal},
	)
	for i, day := range days {
		agg := byDay[day]
		rates[i] = float64(agg.available) / float64(agg.slots)
		daily.AppendRow(day, int64(agg.slots), int64(agg.available), round4(rates[i]))
	}

	window := cfg.Window
	if window <= 0 {
		window = DefaultConfig().Window
	}
	if window > len(rates) {
		window = len(rates)
	}
	horizon := cfg.Horizon
	if horizon <= 0 {
		horizon = DefaultConfig().Horizon
	}

	prediction := mean(rates[len(rates)-window:])

	var backtestMAE float64
	backtested := 0
	for i := window; i < len(rates); i++ {
		predicted := mean(rates[i-window : i])
		backtestMAE += math.Abs(rates[i] - predicted)
		backtested++
	}
	if backtested > 0 {
		backtestMAE /= float64(backtested)
	}

	forecast := dataset.NewTable(
		dataset.Column{Name: "date", Type: dataset.TypeDate},
		dataset.Column{Name: "predicted_rate", Type: dataset.TypeReal},
	)
	lastDay := days[len(days)-1]
	for i := 1; i <= horizon; i++ {
		forecast.AppendRow(lastDay.AddDate(0, 0, i), round4(prediction))
	}

	modelBytes, err := json.Marshal(map[string]any{
		"type":       "trailing_average",
		"target":     "availability",
		"window":     window,
		"prediction": prediction,
	})
	if err != nil {
		return nil, fmt.Errorf("serialize model: %w", err)
	}

	return &Result{
		Metrics: map[string]float64{
			"days_observed": float64(len(days)),
			"window":        float64(window),
			"horizon":       float64(horizon),
			"prediction":    round4(prediction),
			"backtest_mae":  round4(backtestMAE),
		},
		Tables: map[string]*dataset.Table{
			"daily_availability": daily,
			"forecast":           forecast,
		},
		Model: modelBytes,
	}, nil
}

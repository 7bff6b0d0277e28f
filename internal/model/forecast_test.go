package model

import (
	"context"
	"reflect"
	"testing"

	"stayscope/internal/dataset"
)

func forecastCalendar() *dataset.Table {
	t := dataset.NewTable(
		dataset.Column{Name: "listing_id", Type: dataset.TypeInteger},
		dataset.Column{Name: "date", Type: dataset.TypeDate},
		dataset.Column{Name: "available", Type: dataset.TypeBool},
	)
	t.AppendRow(int64(1), "2025-01-01", "t")
	t.AppendRow(int64(2), "2025-01-01", "f")
	t.AppendRow(int64(1), "2025-01-02", "t")
	t.AppendRow(int64(2), "2025-01-02", "t")
	t.AppendRow(int64(1), "2025-01-03", "f")
	t.AppendRow(int64(2), "2025-01-03", "f")
	t.AppendRow(int64(1), "2025-01-04", "t")
	return t
}

func TestTrainForecast(t *testing.T) {
	inputs := &Inputs{Calendar: forecastCalendar()}

	result, err := TrainForecast(context.Background(), inputs, Config{Window: 2, Horizon: 3})
	if err != nil {
		t.Fatalf("TrainForecast: %v", err)
	}

	wantMetrics := map[string]float64{
		"days_observed": 4,
		"window":        2,
		"horizon":       3,
		"prediction":    0.5,
		"backtest_mae":  0.625,
	}
	if !reflect.DeepEqual(result.Metrics, wantMetrics) {
		t.Errorf("metrics: got %v, want %v", result.Metrics, wantMetrics)
	}

	daily := result.Tables["daily_availability"]
	if daily == nil {
		t.Fatal("expected daily_availability table")
	}
	if daily.NumRows() != 4 {
		t.Fatalf("expected 4 daily rows, got %d", daily.NumRows())
	}
	rateIdx := daily.ColumnIndex("rate")
	wantRates := []float64{0.5, 1, 0, 1}
	for i, want := range wantRates {
		if got := daily.Rows[i][rateIdx]; got != want {
			t.Errorf("day %d rate: got %v, want %v", i, got, want)
		}
	}

	forecast := result.Tables["forecast"]
	if forecast == nil {
		t.Fatal("expected forecast table")
	}
	if forecast.NumRows() != 3 {
		t.Fatalf("expected 3 forecast rows, got %d", forecast.NumRows())
	}
	wantDates := []string{"2025-01-05", "2025-01-06", "2025-01-07"}
	for i, want := range wantDates {
		if got := dataset.FormatCell(forecast.Rows[i][0]); got != want {
			t.Errorf("forecast row %d date: got %q, want %q", i, got, want)
		}
		if got := forecast.Rows[i][1]; got != 0.5 {
			t.Errorf("forecast row %d rate: got %v, want 0.5", i, got)
		}
	}
}

func TestTrainForecastDefaultWindow(t *testing.T) {
	inputs := &Inputs{Calendar: forecastCalendar()}

	result, err := TrainForecast(context.Background(), inputs, Config{})
	if err != nil {
		t.Fatalf("TrainForecast: %v", err)
	}

	// The default 14-day window clamps to the 4 observed days, so the
	// backtest has nothing to score.
	wantMetrics := map[string]float64{
		"days_observed": 4,
		"window":        4,
		"horizon":       7,
		"prediction":    0.625,
		"backtest_mae":  0,
	}
	if !reflect.DeepEqual(result.Metrics, wantMetrics) {
		t.Errorf("metrics: got %v, want %v", result.Metrics, wantMetrics)
	}
	if rows := result.Tables["forecast"].NumRows(); rows != 7 {
		t.Errorf("forecast rows: got %d, want 7", rows)
	}
}

func TestTrainForecastNoCalendar(t *testing.T) {
	if _, err := TrainForecast(context.Background(), &Inputs{}, Config{}); err == nil {
		t.Fatal("expected error for missing calendar")
	}

	unparsable := dataset.NewTable(
		dataset.Column{Name: "date", Type: dataset.TypeDate},
		dataset.Column{Name: "available", Type: dataset.TypeBool},
	)
	unparsable.AppendRow("not a date", "maybe")
	if _, err := TrainForecast(context.Background(), &Inputs{Calendar: unparsable}, Config{}); err == nil {
		t.Fatal("expected error when no rows parse")
	}
}

package model

import (
	"context"
	"reflect"
	"testing"

	"stayscope/internal/dataset"
)

func priceListings(prices ...string) *dataset.Table {
	t := dataset.NewTable(
		dataset.Column{Name: "id", Type: dataset.TypeInteger},
		dataset.Column{Name: "price", Type: dataset.TypeText},
	)
	for i, price := range prices {
		t.AppendRow(int64(i+1), price)
	}
	return t
}

func TestTrainRegression(t *testing.T) {
	inputs := &Inputs{Listings: priceListings("$100.00", "$50")}

	result, err := TrainRegression(context.Background(), inputs, Config{})
	if err != nil {
		t.Fatalf("TrainRegression: %v", err)
	}

	wantMetrics := map[string]float64{
		"train_rows": 2,
		"prediction": 75,
		"mae":        25,
		"rmse":       25,
	}
	if !reflect.DeepEqual(result.Metrics, wantMetrics) {
		t.Errorf("metrics: got %v, want %v", result.Metrics, wantMetrics)
	}

	predictions := result.Tables["predictions"]
	if predictions == nil {
		t.Fatal("expected predictions table")
	}
	wantRows := [][]any{
		{int64(1), 100.0, 75.0, 25.0},
		{int64(2), 50.0, 75.0, -25.0},
	}
	if !reflect.DeepEqual(predictions.Rows, wantRows) {
		t.Errorf("predictions rows: got %v, want %v", predictions.Rows, wantRows)
	}
	if len(result.Model) == 0 {
		t.Error("expected serialized model bytes")
	}
}

func TestTrainRegressionNoPrices(t *testing.T) {
	cases := []struct {
		name   string
		inputs *Inputs
	}{
		{"nil listings", &Inputs{}},
		{"unparsable prices", &Inputs{Listings: priceListings("n/a", "")}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if _, err := TrainRegression(context.Background(), tc.inputs, Config{}); err == nil {
				t.Fatal("expected error for listings without prices")
			}
		})
	}
}

func TestTrainLogistic(t *testing.T) {
	inputs := &Inputs{Listings: priceListings("$50", "$100", "$150")}

	result, err := TrainLogistic(context.Background(), inputs, Config{})
	if err != nil {
		t.Fatalf("TrainLogistic: %v", err)
	}

	wantMetrics := map[string]float64{
		"train_rows":    3,
		"threshold":     100,
		"premium_share": 0.3333,
		"accuracy":      0.6667,
	}
	if !reflect.DeepEqual(result.Metrics, wantMetrics) {
		t.Errorf("metrics: got %v, want %v", result.Metrics, wantMetrics)
	}

	classes := result.Tables["classes"]
	if classes == nil {
		t.Fatal("expected classes table")
	}
	wantRows := [][]any{
		{int64(1), 50.0, tierStandard, tierStandard},
		{int64(2), 100.0, tierStandard, tierStandard},
		{int64(3), 150.0, tierPremium, tierStandard},
	}
	if !reflect.DeepEqual(classes.Rows, wantRows) {
		t.Errorf("classes rows: got %v, want %v", classes.Rows, wantRows)
	}
}

func TestTrainKMeans(t *testing.T) {
	inputs := &Inputs{Listings: priceListings("$10", "$20", "$30", "$40")}

	result, err := TrainKMeans(context.Background(), inputs, Config{Clusters: 2})
	if err != nil {
		t.Fatalf("TrainKMeans: %v", err)
	}

	wantMetrics := map[string]float64{
		"train_rows": 4,
		"clusters":   2,
		"inertia":    125,
	}
	if !reflect.DeepEqual(result.Metrics, wantMetrics) {
		t.Errorf("metrics: got %v, want %v", result.Metrics, wantMetrics)
	}

	clusters := result.Tables["clusters"]
	if clusters == nil {
		t.Fatal("expected clusters table")
	}
	wantClusters := [][]any{
		{int64(0), 17.5, int64(2), 10.0, 20.0},
		{int64(1), 32.5, int64(2), 30.0, 40.0},
	}
	if !reflect.DeepEqual(clusters.Rows, wantClusters) {
		t.Errorf("clusters rows: got %v, want %v", clusters.Rows, wantClusters)
	}

	assignments := result.Tables["assignments"]
	if assignments == nil {
		t.Fatal("expected assignments table")
	}
	wantAssignments := [][]any{
		{int64(1), 10.0, int64(0)},
		{int64(2), 20.0, int64(0)},
		{int64(3), 30.0, int64(1)},
		{int64(4), 40.0, int64(1)},
	}
	if !reflect.DeepEqual(assignments.Rows, wantAssignments) {
		t.Errorf("assignments rows: got %v, want %v", assignments.Rows, wantAssignments)
	}
}

func TestTrainKMeansClampsClusters(t *testing.T) {
	inputs := &Inputs{Listings: priceListings("$10", "$20")}

	result, err := TrainKMeans(context.Background(), inputs, Config{Clusters: 5})
	if err != nil {
		t.Fatalf("TrainKMeans: %v", err)
	}
	if got := result.Metrics["clusters"]; got != 2 {
		t.Errorf("clusters: got %v, want 2", got)
	}
	if rows := result.Tables["clusters"].NumRows(); rows != 2 {
		t.Errorf("clusters table rows: got %d, want 2", rows)
	}
}

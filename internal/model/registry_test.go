package model

import (
	"context"
	"errors"
	"fmt"
	"reflect"
	"testing"
)

func TestRegistryOrderedByKind(t *testing.T) {
	specs := Registry()
	wantKinds := []string{"forecast", "kmeans", "logistic", "nlp", "regression"}
	if len(specs) != len(wantKinds) {
		t.Fatalf("expected %d specs, got %d", len(wantKinds), len(specs))
	}
	for i, want := range wantKinds {
		spec := specs[i]
		if spec.Kind != want {
			t.Errorf("spec %d: got kind %q, want %q", i, spec.Kind, want)
		}
		if spec.DisplayName == "" {
			t.Errorf("spec %q: empty display name", spec.Kind)
		}
		if spec.Target == "" {
			t.Errorf("spec %q: empty target", spec.Kind)
		}
		if spec.Run == nil {
			t.Errorf("spec %q: nil collaborator", spec.Kind)
		}
	}
}

func TestLookup(t *testing.T) {
	spec, ok := Lookup("regression")
	if !ok {
		t.Fatal("expected regression to be registered")
	}
	if spec.DisplayName != "Mean Price Regression" {
		t.Errorf("display name: got %q, want %q", spec.DisplayName, "Mean Price Regression")
	}

	if _, ok := Lookup("  Regression "); !ok {
		t.Error("expected lookup to normalize case and whitespace")
	}
	if _, ok := Lookup("gradient_boost"); ok {
		t.Error("expected unknown kind to miss")
	}
}

func TestCollaboratorsDeterministic(t *testing.T) {
	inputs := &Inputs{
		Listings: priceListings("$50", "$100", "$150", "$200"),
		Calendar: forecastCalendar(),
		Reviews:  sentimentReviews(),
	}

	for _, spec := range Registry() {
		t.Run(spec.Kind, func(t *testing.T) {
			first, err := spec.Run(context.Background(), inputs, DefaultConfig())
			if err != nil {
				t.Fatalf("first run: %v", err)
			}
			second, err := spec.Run(context.Background(), inputs, DefaultConfig())
			if err != nil {
				t.Fatalf("second run: %v", err)
			}
			if !reflect.DeepEqual(first.Metrics, second.Metrics) {
				t.Errorf("metrics differ: %v vs %v", first.Metrics, second.Metrics)
			}
			if !reflect.DeepEqual(first.Tables, second.Tables) {
				t.Error("tables differ between runs")
			}
			if string(first.Model) != string(second.Model) {
				t.Errorf("model bytes differ: %s vs %s", first.Model, second.Model)
			}
		})
	}
}

func TestCollaboratorsHonorContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	inputs := &Inputs{Listings: priceListings("$50")}
	for _, spec := range Registry() {
		if _, err := spec.Run(ctx, inputs, DefaultConfig()); !errors.Is(err, context.Canceled) {
			t.Errorf("%s: got %v, want context.Canceled", spec.Kind, err)
		}
	}
}

func TestComputationError(t *testing.T) {
	cause := errors.New("no listings with parsable prices")
	err := &ComputationError{Kind: "regression", Err: cause}

	if got := err.Error(); got != "regression computation: no listings with parsable prices" {
		t.Errorf("message: got %q", got)
	}
	if err.ErrorKind() != "computation" {
		t.Errorf("kind: got %q, want computation", err.ErrorKind())
	}

	wrapped := fmt.Errorf("train: %w", err)
	if !IsComputation(wrapped) {
		t.Error("expected IsComputation to match through wrapping")
	}
	if !errors.Is(wrapped, cause) {
		t.Error("expected cause to survive unwrapping")
	}
	if IsComputation(cause) {
		t.Error("bare cause should not classify as computation")
	}
}

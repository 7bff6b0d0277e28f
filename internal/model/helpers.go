package model

import (
	"math"
	"sort"

	"stayscope/internal/dataset"
)

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}

func round4(v float64) float64 {
	return math.Round(v*10000) / 10000
}

func mean(values []float64) float64 {
	if len(values) == 0 {
		return 0
	}
	var sum float64
	for _, v := range values {
		sum += v
	}
	return sum / float64(len(values))
}

// quantile interpolates between closest ranks; values must be sorted.
func quantile(sorted []float64, q float64) float64 {
	switch len(sorted) {
	case 0:
		return 0
	case 1:
		return sorted[0]
	}
	pos := q * float64(len(sorted)-1)
	lower := int(math.Floor(pos))
	upper := int(math.Ceil(pos))
	if lower == upper {
		return sorted[lower]
	}
	frac := pos - float64(lower)
	return sorted[lower]*(1-frac) + sorted[upper]*frac
}

func sortedCopy(values []float64) []float64 {
	cp := make([]float64, len(values))
	copy(cp, values)
	sort.Float64s(cp)
	return cp
}

func tableOrEmpty(t *dataset.Table) *dataset.Table {
	if t == nil {
		return &dataset.Table{}
	}
	return t
}

// pricedListing is one listings row with a parsable id and price.
type pricedListing struct {
	id    int64
	price float64
}

func pricedListings(listings *dataset.Table) []pricedListing {
	idIdx := listings.ColumnIndex("id")
	priceIdx := listings.ColumnIndex("price")
	if idIdx < 0 || priceIdx < 0 {
		return nil
	}
	var out []pricedListing
	for _, row := range listings.Rows {
		id, ok := dataset.ParseInt(row[idIdx])
		if !ok {
			continue
		}
		price, ok := dataset.ParsePrice(row[priceIdx])
		if !ok {
			continue
		}
		out = append(out, pricedListing{id: id, price: price})
	}
	return out
}

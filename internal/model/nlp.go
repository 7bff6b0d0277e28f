package model

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"strings"
	"unicode"

	"stayscope/internal/dataset"
)

var positiveWords = map[string]struct{}{
	"amazing": {}, "beautiful": {}, "clean": {}, "comfortable": {}, "convenient": {},
	"excellent": {}, "fantastic": {}, "friendly": {}, "great": {}, "helpful": {},
	"lovely": {}, "nice": {}, "perfect": {}, "quiet": {}, "recommend": {},
	"spacious": {}, "spotless": {}, "welcoming": {}, "wonderful": {}, "cozy": {},
}

var negativeWords = map[string]struct{}{
	"awful": {}, "bad": {}, "broken": {}, "cold": {}, "dirty": {},
	"disappointing": {}, "loud": {}, "noisy": {}, "poor": {}, "problem": {},
	"rude": {}, "small": {}, "smell": {}, "terrible": {}, "uncomfortable": {},
	"cancelled": {}, "cramped": {}, "damp": {}, "late": {}, "worst": {},
}

// TrainSentiment scores review comments against small positive/negative
// lexicons and aggregates the per-review scores by listing.
func TrainSentiment(ctx context.Context, inputs *Inputs, cfg Config) (*Result, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	reviews := tableOrEmpty(inputs.Reviews)
	commentsIdx := reviews.ColumnIndex("comments")
	if commentsIdx < 0 {
		return nil, errors.New("reviews dataset has no comments column")
	}
	listingIdx := reviews.ColumnIndex("listing_id")

	type listingAgg struct {
		reviews int
		total   float64
	}
	byListing := make(map[int64]*listingAgg)

	scored := 0
	positive := 0
	negative := 0
	var scoreSum float64
	for _, row := range reviews.Rows {
		if dataset.IsMissing(row[commentsIdx]) {
			continue
		}
		score := sentimentScore(dataset.FormatCell(row[commentsIdx]))
		scored++
		scoreSum += float64(score)
		switch {
		case score > 0:
			positive++
		case score < 0:
			negative++
		}
		if listingIdx < 0 {
			continue
		}
		id, ok := dataset.ParseInt(row[listingIdx])
		if !ok {
			continue
		}
		agg := byListing[id]
		if agg == nil {
			agg = &listingAgg{}
			byListing[id] = agg
		}
		agg.reviews++
		agg.total += float64(score)
	}
	if scored == 0 {
		return nil, errors.New("no reviews with comments to score")
	}

	ids := make([]int64, 0, len(byListing))
	for id := range byListing {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })

	sentiment := dataset.NewTable(
		dataset.Column{Name: "listing_id", Type: dataset.TypeInteger},
		dataset.Column{Name: "reviews", Type: dataset.TypeInteger},
		dataset.Column{Name: "score_mean", Type: dataset.TypeReal},
	)
	for _, id := range ids {
		agg := byListing[id]
		sentiment.AppendRow(id, int64(agg.reviews), round4(agg.total/float64(agg.reviews)))
	}

	modelBytes, err := json.Marshal(map[string]any{
		"type":           "lexicon_sentiment",
		"target":         "review_sentiment",
		"positive_words": len(positiveWords),
		"negative_words": len(negativeWords),
	})
	if err != nil {
		return nil, fmt.Errorf("serialize model: %w", err)
	}

	return &Result{
		Metrics: map[string]float64{
			"reviews_scored": float64(scored),
			"positive_share": round4(float64(positive) / float64(scored)),
			"negative_share": round4(float64(negative) / float64(scored)),
			"score_mean":     round4(scoreSum / float64(scored)),
		},
		Tables: map[string]*dataset.Table{
			"listing_sentiment": sentiment,
		},
		Model: modelBytes,
	}, nil
}

// sentimentScore counts lexicon hits: +1 per positive word, -1 per negative.
func sentimentScore(comment string) int {
	words := strings.FieldsFunc(strings.ToLower(comment), func(r rune) bool {
		return !unicode.IsLetter(r)
	})
	score := 0
	for _, word := range words {
		if _, ok := positiveWords[word]; ok {
			score++
		}
		if _, ok := negativeWords[word]; ok {
			score--
		}
	}
	return score
}

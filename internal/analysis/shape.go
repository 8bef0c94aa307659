// Copyright Amazon.com, Inc. or its affiliates. All Rights Reserved.
// SPDX-License-Identifier: Apache-2.0

package analysis

import (
	"fmt"
	"strings"

	"reviewlens/internal/batchio"
	"reviewlens/internal/review"
)

// Output columns.
const (
	ColumnSentiment        = "sentiment"
	ColumnSentimentScore   = "sentimentScore"
	ColumnEmbeddings       = "embeddings"
	ColumnSentence         = "sentence"
	ColumnAspect           = "aspect"
	ColumnConfidence       = "confidence"
	ColumnTopic            = "topic"
	ColumnTopicLabel       = "topic_label"
	ColumnTopicProbability = "topic_probability"
)

var sentimentLabels = map[string]string{
	"LABEL_1": "Positive",
	"LABEL_0": "Negative",
}

// SentimentLabel maps raw binary classifier labels to Positive or Negative.
// Other labels pass through.
func SentimentLabel(raw string) string {
	if mapped, ok := sentimentLabels[raw]; ok {
		return mapped
	}
	return raw
}

// ShapeRecord builds the output row for one review. Every row leads with
// reviewId so later stages can join on it.
func ShapeRecord(kind review.AnalysisType, rev review.Review, res Result) (batchio.Record, error) {
	rec := batchio.NewRecord()
	set := func(key string, v interface{}) error { return rec.Set(key, v) }

	if err := set(batchio.ColumnReviewID, rev.ReviewID); err != nil {
		return rec, err
	}

	switch kind {
	case review.Sentiment:
		if err := set(ColumnSentiment, SentimentLabel(res.Label)); err != nil {
			return rec, err
		}
		if err := set(ColumnSentimentScore, res.Score); err != nil {
			return rec, err
		}
		if err := set(batchio.ColumnMovieID, rev.MovieID); err != nil {
			return rec, err
		}

	case review.Emotion, review.Argument:
		for _, ls := range res.Scores {
			if err := set(ls.Label, ls.Score); err != nil {
				return rec, err
			}
		}
		if err := set(batchio.ColumnMovieID, rev.MovieID); err != nil {
			return rec, err
		}

	case review.Aspects:
		a := res.Aspects
		if a == nil {
			a = &AspectResult{Sentence: rev.Text}
		}
		fields := []struct {
			key string
			v   interface{}
		}{
			{ColumnSentence, a.Sentence},
			{ColumnAspect, nonNil(a.Aspect)},
			{ColumnSentiment, nonNil(a.Sentiment)},
			{"probs", nonNil(a.Probs)},
			{ColumnConfidence, nonNil(a.Confidence)},
			{"tokens", nonNil(a.Tokens)},
			{"position", nonNil(a.Position)},
			{"IOB", nonNil(a.IOB)},
			{batchio.ColumnMovieID, rev.MovieID},
		}
		for _, f := range fields {
			if err := set(f.key, f.v); err != nil {
				return rec, err
			}
		}

	default:
		return rec, &review.ValidationError{Field: "analysis type", Value: string(kind), Allowed: analysisNames()}
	}
	return rec, nil
}

// ShapeEmbedding builds the output row for one embedded review.
func ShapeEmbedding(rev review.Review, vector []float64) (batchio.Record, error) {
	rec := batchio.NewRecord()
	if err := rec.Set(batchio.ColumnMovieID, rev.MovieID); err != nil {
		return rec, err
	}
	if err := rec.Set(batchio.ColumnReviewID, rev.ReviewID); err != nil {
		return rec, err
	}
	if err := rec.Set(ColumnEmbeddings, nonNil(vector)); err != nil {
		return rec, fmt.Errorf("review %s: %w", rev.ReviewID, err)
	}
	return rec, nil
}

// AspectRow is one extracted aspect of a review.
type AspectRow struct {
	ReviewID   string
	MovieID    string
	Sentence   string
	Aspect     string
	Sentiment  string
	Confidence *float64
}

// ExplodeAspects turns aspect-extraction rows, which hold parallel lists of
// aspects, sentiments and confidences, into one row per aspect. Blank
// aspects are dropped, so a review without aspects yields no rows. A column
// that is not a list counts as empty.
func ExplodeAspects(path string, records []batchio.Record) ([]AspectRow, error) {
	if len(records) > 0 && !hasColumn(records, ColumnAspect) {
		return nil, &batchio.MissingColumnError{Path: path, Expected: []string{ColumnAspect}}
	}

	var out []AspectRow
	for i, rec := range records {
		var aspects, sentiments []string
		var confidences []float64
		_ = rec.Decode(ColumnAspect, &aspects)
		_ = rec.Decode(ColumnSentiment, &sentiments)
		_ = rec.Decode(ColumnConfidence, &confidences)

		base := AspectRow{}
		for _, f := range []struct {
			col string
			dst *string
		}{
			{batchio.ColumnReviewID, &base.ReviewID},
			{batchio.ColumnMovieID, &base.MovieID},
			{ColumnSentence, &base.Sentence},
		} {
			v, err := rec.Text(f.col)
			if err != nil {
				return nil, fmt.Errorf("%s row %d: %w", path, i, err)
			}
			*f.dst = v
		}

		for j, aspect := range aspects {
			if strings.TrimSpace(aspect) == "" {
				continue
			}
			row := base
			row.Aspect = aspect
			if j < len(sentiments) {
				row.Sentiment = sentiments[j]
			}
			if j < len(confidences) {
				c := confidences[j]
				row.Confidence = &c
			}
			out = append(out, row)
		}
	}
	return out, nil
}

// ShapeTopic builds the topic-assignment row for one aspect. The label is
// null when the model has no name for the topic, and the probability is null
// for the outlier topic.
func ShapeTopic(row AspectRow, res Result) (batchio.Record, error) {
	var label interface{}
	if res.Label != "" {
		label = res.Label
	}
	var probability interface{}
	if res.Topic != OutlierTopic {
		probability = res.Score
	}

	rec := batchio.NewRecord()
	fields := []struct {
		key string
		v   interface{}
	}{
		{batchio.ColumnReviewID, row.ReviewID},
		{batchio.ColumnMovieID, row.MovieID},
		{ColumnSentence, row.Sentence},
		{ColumnAspect, row.Aspect},
		{ColumnSentiment, row.Sentiment},
		{ColumnConfidence, row.Confidence},
		{ColumnTopic, res.Topic},
		{ColumnTopicLabel, label},
		{ColumnTopicProbability, probability},
	}
	for _, f := range fields {
		if err := rec.Set(f.key, f.v); err != nil {
			return rec, fmt.Errorf("review %s: %w", row.ReviewID, err)
		}
	}
	return rec, nil
}

func hasColumn(records []batchio.Record, column string) bool {
	for _, r := range records {
		if r.Has(column) {
			return true
		}
	}
	return false
}

func nonNil[T any](s []T) []T {
	if s == nil {
		return []T{}
	}
	return s
}

func analysisNames() []string {
	var names []string
	for _, a := range review.AnalysisTypes() {
		names = append(names, string(a))
	}
	return names
}

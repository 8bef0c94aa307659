// Copyright Amazon.com, Inc. or its affiliates. All Rights Reserved.
// SPDX-License-Identifier: Apache-2.0

// Package aggregate reduces per-review analysis rows to per-movie and
// per-topic summaries.
package aggregate

import (
	"fmt"
	"regexp"
	"sort"
	"strings"
)

// SentimentRow is one review's sentiment prediction.
type SentimentRow struct {
	MovieID string
	Label   string
	Score   float64
}

// Valence is the mean signed sentiment of a movie's reviews.
type Valence struct {
	MovieID    string
	AvgValence float64
	Reviews    int
}

// Valences negates scores labelled Negative and averages per movie. The
// result is ordered by movie id.
func Valences(rows []SentimentRow) []Valence {
	type acc struct {
		sum float64
		n   int
	}
	byMovie := make(map[string]*acc)
	for _, r := range rows {
		score := r.Score
		if r.Label == "Negative" {
			score = -score
		}
		a := byMovie[r.MovieID]
		if a == nil {
			a = &acc{}
			byMovie[r.MovieID] = a
		}
		a.sum += score
		a.n++
	}

	out := make([]Valence, 0, len(byMovie))
	for _, id := range sortedKeys(byMovie) {
		a := byMovie[id]
		out = append(out, Valence{MovieID: id, AvgValence: a.sum / float64(a.n), Reviews: a.n})
	}
	return out
}

// EmbeddingRow is one review's embedding vector.
type EmbeddingRow struct {
	MovieID string
	Vector  []float64
}

// Embedding is the element-wise mean vector of a movie's reviews.
type Embedding struct {
	MovieID string
	Vector  []float64
	Reviews int
}

// DimensionError reports vectors of different lengths within one movie.
type DimensionError struct {
	MovieID  string
	Expected int
	Got      int
}

func (e *DimensionError) Error() string {
	return fmt.Sprintf("movie %s: embedding has %d dimensions, expected %d", e.MovieID, e.Got, e.Expected)
}

// Embeddings averages vectors per movie, ordered by movie id.
func Embeddings(rows []EmbeddingRow) ([]Embedding, error) {
	type acc struct {
		sum []float64
		n   int
	}
	byMovie := make(map[string]*acc)
	for _, r := range rows {
		a := byMovie[r.MovieID]
		if a == nil {
			a = &acc{sum: make([]float64, len(r.Vector))}
			byMovie[r.MovieID] = a
		}
		if len(r.Vector) != len(a.sum) {
			return nil, &DimensionError{MovieID: r.MovieID, Expected: len(a.sum), Got: len(r.Vector)}
		}
		for i, v := range r.Vector {
			a.sum[i] += v
		}
		a.n++
	}

	out := make([]Embedding, 0, len(byMovie))
	for _, id := range sortedKeys(byMovie) {
		a := byMovie[id]
		mean := make([]float64, len(a.sum))
		for i, s := range a.sum {
			mean[i] = s / float64(a.n)
		}
		out = append(out, Embedding{MovieID: id, Vector: mean, Reviews: a.n})
	}
	return out, nil
}

// TopicRow is one review's topic assignment.
type TopicRow struct {
	Topic int
	Label string
}

// TopicCount is the number of reviews assigned to a topic. Label is the
// first label seen for the topic.
type TopicCount struct {
	Topic int
	Label string
	Count int
}

// Topics counts reviews per topic, ordered by topic id. The outlier topic -1
// is counted like any other.
func Topics(rows []TopicRow) []TopicCount {
	byTopic := make(map[int]*TopicCount)
	for _, r := range rows {
		tc := byTopic[r.Topic]
		if tc == nil {
			tc = &TopicCount{Topic: r.Topic, Label: r.Label}
			byTopic[r.Topic] = tc
		}
		if tc.Label == "" {
			tc.Label = r.Label
		}
		tc.Count++
	}

	ids := make([]int, 0, len(byTopic))
	for id := range byTopic {
		ids = append(ids, id)
	}
	sort.Ints(ids)

	out := make([]TopicCount, 0, len(ids))
	for _, id := range ids {
		out = append(out, *byTopic[id])
	}
	return out
}

var filmWord = regexp.MustCompile(`(?i)\bfilm\b`)

// StringifyAspects joins aspect terms with spaces and rewrites the word
// "film" as "movie" so both spellings group together.
func StringifyAspects(aspects []string) string {
	return filmWord.ReplaceAllString(strings.Join(aspects, " "), "movie")
}

func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// Copyright Amazon.com, Inc. or its affiliates. All Rights Reserved.
// SPDX-License-Identifier: Apache-2.0

package redactors

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"reviewlens/internal/review"
)

func sampleReviews() []review.Review {
	return []review.Review{
		{RowID: "0", MovieID: "m1", Title: "The Dark Knight", Text: "The Dark Knight is a masterpiece!"},
		{RowID: "1", MovieID: "m2", Title: "Inception", Text: "Great cinematography and pacing."},
		{RowID: "2", MovieID: "m1", Title: "The Dark Knight", Text: "Robert De Niro was great"},
		{RowID: "3", MovieID: "m2", Title: "Inception", Text: "Inception, again: mind-bending."},
	}
}

func TestTitleRedactorPartition(t *testing.T) {
	r, err := NewPartitionRedactor(review.ReplaceMovies, DefaultOptions())
	require.NoError(t, err)
	assert.Equal(t, "movies", r.Name())

	got, err := r.RedactPartition(sampleReviews())
	require.NoError(t, err)
	assert.Equal(t, map[string]string{
		"0": "the [movie] is a masterpiece",
		"1": "great cinematography and pacing",
		"2": "robert de niro was great",
		"3": "[movie] again mindbending",
	}, got)
}

func TestActorRedactorPartition(t *testing.T) {
	opts := DefaultOptions()
	opts.Actors = testActors

	r, err := NewPartitionRedactor(review.ReplaceActors, opts)
	require.NoError(t, err)
	assert.Equal(t, "actors", r.Name())

	got, err := r.RedactPartition(sampleReviews())
	require.NoError(t, err)
	assert.Len(t, got, 4)
	assert.Equal(t, "[actor] was great", got["2"])
	assert.Equal(t, "great cinematography and pacing", got["1"])
}

func TestActorRedactorEmbeddedList(t *testing.T) {
	r, err := NewActorRedactor(DefaultOptions())
	require.NoError(t, err)
	assert.Greater(t, r.Index().Len(), 10)

	got, err := r.RedactPartition([]review.Review{{RowID: "a", MovieID: "m", Text: "Meryl Streep shines"}})
	require.NoError(t, err)
	assert.Equal(t, "[actor] shines", got["a"])
}

func TestCustomPlaceholder(t *testing.T) {
	opts := DefaultOptions()
	opts.MoviePlaceholder = "[title]"

	r, err := NewTitleRedactor(opts)
	require.NoError(t, err)

	got, err := r.RedactPartition([]review.Review{{RowID: "x", MovieID: "m", Title: "Heat", Text: "Heat rules"}})
	require.NoError(t, err)
	assert.Equal(t, "[title] rules", got["x"])
}

func TestRedactPartitionEmpty(t *testing.T) {
	r, err := NewTitleRedactor(DefaultOptions())
	require.NoError(t, err)

	got, err := r.RedactPartition(nil)
	require.NoError(t, err)
	assert.Empty(t, got)
}

func TestRedactPartitionDuplicateRow(t *testing.T) {
	r, err := NewTitleRedactor(DefaultOptions())
	require.NoError(t, err)

	_, err = r.RedactPartition([]review.Review{
		{RowID: "1", MovieID: "m", Title: "Heat", Text: "a"},
		{RowID: "1", MovieID: "m", Title: "Heat", Text: "b"},
	})
	var rerr *RedactionError
	require.True(t, errors.As(err, &rerr))
	assert.Equal(t, ErrorValidation, rerr.Type)
	assert.Equal(t, "m", rerr.MovieID)
}

func TestNewPartitionRedactorErrors(t *testing.T) {
	opts := DefaultOptions()
	opts.TitleScorer = "soundex"
	_, err := NewPartitionRedactor(review.ReplaceMovies, opts)
	var rerr *RedactionError
	require.ErrorAs(t, err, &rerr)
	assert.Equal(t, ErrorConfiguration, rerr.Type)

	opts = DefaultOptions()
	opts.Threshold = 120
	_, err = NewPartitionRedactor(review.ReplaceActors, opts)
	require.ErrorAs(t, err, &rerr)
	assert.Contains(t, err.Error(), "outside 0-100")

	_, err = NewPartitionRedactor(review.ReplaceType(9), DefaultOptions())
	assert.Error(t, err)
}

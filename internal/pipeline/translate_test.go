// Copyright Amazon.com, Inc. or its affiliates. All Rights Reserved.
// SPDX-License-Identifier: Apache-2.0

package pipeline

import (
	"context"
	"errors"
	"path/filepath"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"reviewlens/internal/analysis"
	"reviewlens/internal/batchio"
	"reviewlens/internal/language"
	"reviewlens/internal/review"
)

const preTranslationBatch = `[
  {"id": "heat", "reviewId": 1, "title": "Heat", "reviewText": "A tense masterpiece", "ratingOutOfTen": 9},
  {"id": "heat", "reviewId": 2, "title": "Heat", "reviewText": "Ein spannendes Meisterwerk", "ratingOutOfTen": 8},
  {"id": "up", "reviewId": 3, "title": "Up", "reviewText": "ok", "ratingOutOfTen": 6},
  {"id": "up", "reviewId": 4, "title": "Up", "reviewText": "Un film magnifique", "ratingOutOfTen": 10}
]`

// prefixDetector tags texts by their first word.
var prefixDetector = language.DetectorFunc(func(text string) string {
	switch {
	case len(strings.TrimSpace(text)) < language.MinTextLength:
		return language.Unknown
	case strings.HasPrefix(text, "Ein"):
		return "de"
	case strings.HasPrefix(text, "Un"):
		return "fr"
	default:
		return language.English
	}
})

type recordingTranslator struct {
	mu    sync.Mutex
	calls [][]string
}

func (r *recordingTranslator) Classify(_ context.Context, texts []string) ([]analysis.Result, error) {
	r.mu.Lock()
	r.calls = append(r.calls, append([]string(nil), texts...))
	r.mu.Unlock()

	out := make([]analysis.Result, len(texts))
	for i, text := range texts {
		out[i] = analysis.Result{Text: "EN: " + text}
	}
	return out, nil
}

func translateOpts(tr analysis.Classifier) TranslateOptions {
	return TranslateOptions{
		ReviewType:   "Critic",
		ChunkSize:    1,
		Workers:      2,
		SkipExisting: true,
		Detector:     prefixDetector,
		Translator:   tr,
	}
}

func TestTranslateOnlyNonEnglishReviews(t *testing.T) {
	env := newEnv(t)
	writeJSON(t, filepath.Join(env.Layout.PreTranslationDir(review.Critic), "rt_critic_reviews_pre_translation_3.json"), preTranslationBatch)

	tr := &recordingTranslator{}
	report, err := Translate(context.Background(), env, translateOpts(tr))
	require.NoError(t, err)
	require.Len(t, report.Batches, 1)
	assert.Equal(t, 4, report.Batches[0].Reviews)
	require.NotNil(t, report.Batches[0].Dispatch)

	// Chunks of one, and only the German and French rows are sent.
	assert.Equal(t, [][]string{{"Ein spannendes Meisterwerk"}, {"Un film magnifique"}}, tr.calls)

	out := filepath.Join(env.Layout.TranslatedDir(review.Critic), "rt_critic_reviews_translated_0.json")
	assert.Equal(t, []string{
		"A tense masterpiece",
		"EN: Ein spannendes Meisterwerk",
		"ok",
		"EN: Un film magnifique",
	}, column(t, out, batchio.ColumnText))
	assert.Equal(t, []string{
		"A tense masterpiece",
		"Ein spannendes Meisterwerk",
		"ok",
		"Un film magnifique",
	}, column(t, out, ColumnOriginalReview))
	assert.Equal(t, []string{"en", "de", "unknown", "fr"}, column(t, out, ColumnLanguage))

	records, err := batchio.ReadRecords(out)
	require.NoError(t, err)
	assert.Equal(t, []string{"id", "reviewId", "title", "reviewText", "originalReview", "language", "ratingOutOfTen"}, records[0].Keys())
}

func TestTranslateEnglishOnlyBatchSkipsTranslator(t *testing.T) {
	env := newEnv(t)
	writeJSON(t, filepath.Join(env.Layout.PreTranslationDir(review.Audience), "rt_audience_reviews_pre_translation_0.json"), `[
  {"id": "heat", "reviewId": 1, "title": "Heat", "reviewText": "A tense masterpiece"}
]`)

	failing := analysis.ClassifierFunc(func(context.Context, []string) ([]analysis.Result, error) {
		return nil, errors.New("translator must not be called")
	})
	opts := translateOpts(failing)
	opts.ReviewType = "Audience"
	_, err := Translate(context.Background(), env, opts)
	require.NoError(t, err)

	out := filepath.Join(env.Layout.TranslatedDir(review.Audience), "rt_audience_reviews_translated_0.json")
	assert.Equal(t, []string{"en"}, column(t, out, ColumnLanguage))
	assert.Equal(t, []string{"A tense masterpiece"}, column(t, out, ColumnOriginalReview))
}

func TestTranslateSkipsExistingOutputs(t *testing.T) {
	env := newEnv(t)
	writeJSON(t, filepath.Join(env.Layout.PreTranslationDir(review.Critic), "rt_critic_reviews_pre_translation_0.json"), preTranslationBatch)
	done := filepath.Join(env.Layout.TranslatedDir(review.Critic), "rt_critic_reviews_translated_0.json")
	writeJSON(t, done, `[]`)

	tr := &recordingTranslator{}
	report, err := Translate(context.Background(), env, translateOpts(tr))
	require.NoError(t, err)
	require.Len(t, report.Batches, 1)
	assert.True(t, report.Batches[0].Skipped)
	assert.Empty(t, tr.calls)
	assert.Empty(t, column(t, done, batchio.ColumnText))
}

func TestTranslateFailsBatchOnTranslatorError(t *testing.T) {
	env := newEnv(t)
	writeJSON(t, filepath.Join(env.Layout.PreTranslationDir(review.Critic), "rt_critic_reviews_pre_translation_0.json"), preTranslationBatch)

	broken := analysis.ClassifierFunc(func(context.Context, []string) ([]analysis.Result, error) {
		return nil, errors.New("quota exceeded")
	})
	_, err := Translate(context.Background(), env, translateOpts(broken))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "quota exceeded")
	assert.False(t, batchio.Exists(filepath.Join(env.Layout.TranslatedDir(review.Critic), "rt_critic_reviews_translated_0.json")))
}

func TestTranslateRequiresReviewText(t *testing.T) {
	env := newEnv(t)
	writeJSON(t, filepath.Join(env.Layout.PreTranslationDir(review.Critic), "rt_critic_reviews_pre_translation_0.json"), `[
  {"id": "heat", "reviewId": 1, "title": "Heat", "cleanedReviews": "[movie] rules"}
]`)

	_, err := Translate(context.Background(), env, translateOpts(&recordingTranslator{}))
	var missing *batchio.MissingColumnError
	require.ErrorAs(t, err, &missing)
	assert.Equal(t, []string{batchio.ColumnText}, missing.Expected)
}

func TestTranslateValidation(t *testing.T) {
	env := newEnv(t)
	tr := &recordingTranslator{}

	opts := translateOpts(tr)
	opts.Detector = nil
	_, err := Translate(context.Background(), env, opts)
	assert.ErrorContains(t, err, "language detector")

	opts = translateOpts(nil)
	_, err = Translate(context.Background(), env, opts)
	assert.ErrorContains(t, err, "translator")

	opts = translateOpts(tr)
	opts.Workers = 0
	_, err = Translate(context.Background(), env, opts)
	assert.ErrorContains(t, err, "workers must be at least 1")
}

func TestTruncateRunes(t *testing.T) {
	assert.Equal(t, "héll", truncateRunes("héllo", 4))
	assert.Equal(t, "héllo", truncateRunes("héllo", 10))
	assert.Equal(t, "héllo", truncateRunes("héllo", 0))
}

// Copyright Amazon.com, Inc. or its affiliates. All Rights Reserved.
// SPDX-License-Identifier: Apache-2.0

package pipeline

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/gofrs/flock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"reviewlens/internal/batchio"
	"reviewlens/internal/ledger"
	"reviewlens/internal/redactors"
	"reviewlens/internal/review"
)

const cleanBatch = `[
  {"reviewId": 1, "id": "heat", "title": "Heat", "reviewText": "Heat is a masterpiece", "source": "rt"},
  {"reviewId": 2, "id": "up", "title": "Up", "reviewText": "I loved Up so much", "source": "rt"},
  {"reviewId": 3, "id": "heat", "title": "Heat", "reviewText": "Al Pacino and Robert De Niro", "source": "rt"}
]`

func writeJSON(t *testing.T, path, content string) {
	t.Helper()
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
}

func newEnv(t *testing.T) Env {
	t.Helper()
	return Env{Layout: NewLayout(t.TempDir())}
}

func column(t *testing.T, path, col string) []string {
	t.Helper()
	records, err := batchio.ReadRecords(path)
	require.NoError(t, err)
	out := make([]string, len(records))
	for i, r := range records {
		v, err := r.Text(col)
		require.NoError(t, err)
		out[i] = v
	}
	return out
}

func preprocessOpts(replace string) PreprocessOptions {
	opts := PreprocessOptions{
		ReviewType:  "Critic",
		ReplaceType: replace,
		Workers:     2,
		Redaction:   redactors.DefaultOptions(),
	}
	opts.Redaction.Actors = []string{"al pacino", "robert de niro"}
	return opts
}

func TestPreprocessMasksTitlesThenActors(t *testing.T) {
	ctx := context.Background()
	env := newEnv(t)
	l, err := ledger.Open(ctx, filepath.Join(env.Layout.Root, "reviewlens.db"))
	require.NoError(t, err)
	defer l.Close()
	env.Ledger = l

	writeJSON(t, filepath.Join(env.Layout.CleanDir(review.Critic), "rt_critic_reviews_clean_0.json"), cleanBatch)

	report, err := Preprocess(ctx, env, preprocessOpts("movies"))
	require.NoError(t, err)
	assert.Equal(t, env.Layout.CleanDir(review.Critic), report.InputDir)
	require.Len(t, report.Batches, 1)
	assert.Equal(t, 3, report.Reviews())
	require.NotNil(t, report.Batches[0].Dispatch)
	assert.Equal(t, 2, report.Batches[0].Dispatch.Partitions)

	out := filepath.Join(env.Layout.PreprocessedDir(review.Critic), "rt_critic_reviews_preprocessed_0.json")
	// "up" is a stopword: a match made only of stopwords keeps its words
	// and gets no placeholder.
	assert.Equal(t, []string{
		"[movie] is a masterpiece",
		"i loved up so much",
		"al pacino and robert de niro",
	}, column(t, out, batchio.ColumnCleaned))

	records, err := batchio.ReadRecords(out)
	require.NoError(t, err)
	assert.Equal(t, []string{"reviewId", "id", "title", "reviewText", "source", "cleanedReviews"}, records[0].Keys())

	// The second pass reads the first pass's output.
	report, err = Preprocess(ctx, env, preprocessOpts("actors"))
	require.NoError(t, err)
	assert.Equal(t, env.Layout.PreprocessedDir(review.Critic), report.InputDir)

	cleaned := column(t, out, batchio.ColumnCleaned)
	assert.Equal(t, "[movie] is a masterpiece", cleaned[0])
	assert.Equal(t, "i loved up so much", cleaned[1])
	assert.Equal(t, "[actor] and [actor]", cleaned[2])
	assert.Equal(t, "Al Pacino and Robert De Niro", column(t, out, batchio.ColumnText)[2])

	history, err := l.History(ctx, ledger.Filter{Stage: StagePreprocessed})
	require.NoError(t, err)
	require.Len(t, history, 2)
	assert.Equal(t, ledger.StatusDone, history[0].Status)
	assert.Equal(t, 3, history[0].ReviewCount)
}

func TestPreprocessValidatesBeforeTouchingDisk(t *testing.T) {
	env := newEnv(t)

	opts := preprocessOpts("movies")
	opts.ReviewType = "Viewer"
	_, err := Preprocess(context.Background(), env, opts)
	var verr *review.ValidationError
	require.ErrorAs(t, err, &verr)
	assert.Equal(t, "review type", verr.Field)

	opts = preprocessOpts("directors")
	_, err = Preprocess(context.Background(), env, opts)
	require.ErrorAs(t, err, &verr)
	assert.Equal(t, "replace type", verr.Field)

	_, statErr := os.Stat(env.Layout.PreprocessedDir(review.Critic))
	assert.True(t, os.IsNotExist(statErr))
}

func TestPreprocessMissingTextColumn(t *testing.T) {
	env := newEnv(t)
	writeJSON(t, filepath.Join(env.Layout.CleanDir(review.Critic), "rt_critic_reviews_clean_0.json"),
		`[{"reviewId": 1, "id": "heat", "title": "Heat"}]`)

	_, err := Preprocess(context.Background(), env, preprocessOpts("movies"))
	var missing *batchio.MissingColumnError
	require.ErrorAs(t, err, &missing)
	assert.Contains(t, missing.Path, "rt_critic_reviews_clean_0.json")

	assert.False(t, batchio.Exists(filepath.Join(env.Layout.PreprocessedDir(review.Critic), "rt_critic_reviews_preprocessed_0.json")))
}

func TestPreprocessRefusesLockedFolder(t *testing.T) {
	env := newEnv(t)
	writeJSON(t, filepath.Join(env.Layout.CleanDir(review.Critic), "rt_critic_reviews_clean_0.json"), cleanBatch)

	dir := env.Layout.PreprocessedDir(review.Critic)
	require.NoError(t, os.MkdirAll(dir, 0o755))
	held := flock.New(filepath.Join(dir, lockFileName))
	ok, err := held.TryLock()
	require.NoError(t, err)
	require.True(t, ok)
	defer held.Unlock()

	_, err = Preprocess(context.Background(), env, preprocessOpts("movies"))
	require.ErrorIs(t, err, ErrLocked)
}

func TestPreprocessStopsWhenCancelled(t *testing.T) {
	env := newEnv(t)
	writeJSON(t, filepath.Join(env.Layout.CleanDir(review.Critic), "rt_critic_reviews_clean_0.json"), cleanBatch)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	report, err := Preprocess(ctx, env, preprocessOpts("movies"))
	require.ErrorIs(t, err, context.Canceled)
	assert.Empty(t, report.Batches)
}

func TestPreprocessNumbersOutputsByPosition(t *testing.T) {
	env := newEnv(t)
	clean := env.Layout.CleanDir(review.Audience)
	writeJSON(t, filepath.Join(clean, "rt_audience_reviews_clean_10.json"), cleanBatch)
	writeJSON(t, filepath.Join(clean, "rt_audience_reviews_clean_2.json"), `[]`)

	opts := preprocessOpts("movies")
	opts.ReviewType = "audience"
	report, err := Preprocess(context.Background(), env, opts)
	require.NoError(t, err)
	require.Len(t, report.Batches, 2)
	assert.Equal(t, 0, report.Batches[0].Reviews)
	assert.Equal(t, 3, report.Batches[1].Reviews)

	out := env.Layout.PreprocessedDir(review.Audience)
	assert.True(t, batchio.Exists(filepath.Join(out, "rt_audience_reviews_preprocessed_0.json")))
	assert.True(t, batchio.Exists(filepath.Join(out, "rt_audience_reviews_preprocessed_1.json")))
}

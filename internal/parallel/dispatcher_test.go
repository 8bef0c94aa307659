// Copyright Amazon.com, Inc. or its affiliates. All Rights Reserved.
// SPDX-License-Identifier: Apache-2.0

package parallel

import (
	"bytes"
	"encoding/json"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"reviewlens/internal/observability"
	"reviewlens/internal/review"
)

var upper = RedactorFunc(func(reviews []review.Review) (map[string]string, error) {
	out := make(map[string]string, len(reviews))
	for _, r := range reviews {
		out[r.RowID] = strings.ToUpper(r.Text)
	}
	return out, nil
})

func TestDispatchConservesRowIdentity(t *testing.T) {
	reviews := makeBatch(7, 1, 4, 4, 9, 2, 3, 1, 6)

	for _, workers := range []int{1, 2, 3, 5, 8, 20} {
		got, err := Dispatch(reviews, workers, upper)
		require.NoError(t, err, "workers=%d", workers)
		require.Len(t, got, len(reviews))
		for _, r := range reviews {
			assert.Equal(t, strings.ToUpper(r.Text), got[r.RowID])
		}
	}
}

func TestDispatchWorkerCountInvariance(t *testing.T) {
	reviews := makeBatch(4, 6, 1, 3, 2)

	one, err := Dispatch(reviews, 1, upper)
	require.NoError(t, err)
	five, err := Dispatch(reviews, 5, upper)
	require.NoError(t, err)
	assert.Equal(t, one, five)
}

func TestDispatchEachPartitionIsMovieAtomic(t *testing.T) {
	reviews := makeBatch(3, 3, 3, 3, 3)

	var mu sync.Mutex
	seen := make(map[string]int)
	calls := 0
	redactor := RedactorFunc(func(part []review.Review) (map[string]string, error) {
		mu.Lock()
		defer mu.Unlock()
		calls++
		for _, r := range part {
			if prev, ok := seen[r.MovieID]; ok && prev != calls {
				t.Errorf("movie %s seen in two partitions", r.MovieID)
			}
			seen[r.MovieID] = calls
		}
		return upper(part)
	})

	_, err := Dispatch(reviews, 3, redactor)
	require.NoError(t, err)
	assert.Equal(t, 3, calls)
}

func TestDispatchPropagatesPartitionFailure(t *testing.T) {
	reviews := makeBatch(2, 2, 2)
	boom := errors.New("model unavailable")

	redactor := RedactorFunc(func(part []review.Review) (map[string]string, error) {
		for _, r := range part {
			if r.MovieID == "m1" {
				return nil, boom
			}
		}
		return upper(part)
	})

	got, stats, err := NewDispatcher(3, nil).Dispatch(reviews, redactor)
	require.Error(t, err)
	assert.Nil(t, got)
	assert.ErrorIs(t, err, boom)
	assert.Equal(t, 1, stats.Failed)

	var derr *DispatchError
	require.ErrorAs(t, err, &derr)
	require.Len(t, derr.Failures, 1)
	assert.Equal(t, []string{"m1"}, derr.MovieIDs())
	assert.Equal(t, 1, derr.Failures[0].Partition)

	var perr *PartitionError
	require.ErrorAs(t, err, &perr)
	assert.Contains(t, perr.Error(), "movies m1")
}

func TestDispatchRecoversPanics(t *testing.T) {
	reviews := makeBatch(1, 1)
	redactor := RedactorFunc(func(part []review.Review) (map[string]string, error) {
		if part[0].MovieID == "m0" {
			panic("index out of range")
		}
		return upper(part)
	})

	got, err := Dispatch(reviews, 2, redactor)
	assert.Nil(t, got)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "panic in partition redactor: index out of range")
}

func TestDispatchRejectsIncompletePartition(t *testing.T) {
	reviews := makeBatch(3)
	dropping := RedactorFunc(func(part []review.Review) (map[string]string, error) {
		out, _ := upper(part)
		delete(out, part[0].RowID)
		return out, nil
	})

	got, err := Dispatch(reviews, 2, dropping)
	assert.Nil(t, got)
	assert.ErrorIs(t, err, ErrIncompleteMerge)
}

func TestDispatchRejectsForeignRows(t *testing.T) {
	reviews := makeBatch(1, 1)
	leaking := RedactorFunc(func(part []review.Review) (map[string]string, error) {
		out, _ := upper(part)
		out["ghost"] = "boo"
		return out, nil
	})

	_, err := Dispatch(reviews, 2, leaking)
	assert.ErrorIs(t, err, ErrIncompleteMerge)
}

func TestDispatchRejectsDuplicateRows(t *testing.T) {
	reviews := []review.Review{
		{RowID: "1", MovieID: "a"},
		{RowID: "1", MovieID: "b"},
	}
	_, err := Dispatch(reviews, 2, upper)
	assert.ErrorIs(t, err, ErrDuplicateRow)
}

func TestDispatchEmptyBatch(t *testing.T) {
	got, stats, err := NewDispatcher(4, nil).Dispatch(nil, upper)
	require.NoError(t, err)
	assert.Empty(t, got)
	assert.Equal(t, 0, stats.Partitions)
	assert.Equal(t, []int{0, 0, 0, 0}, stats.Loads)
}

func TestDispatchStatsAndLogging(t *testing.T) {
	var buf bytes.Buffer
	obs := observability.NewStandardObserver(observability.ObservabilityDebug, &buf)

	d := NewDispatcher(2, obs)
	_, stats, err := d.Dispatch(makeBatch(3, 2, 1), upper)
	require.NoError(t, err)

	assert.Equal(t, 6, stats.Reviews)
	assert.Equal(t, 3, stats.Movies)
	assert.Equal(t, 2, stats.Partitions)
	assert.Equal(t, []int{3, 3}, stats.Loads)
	assert.Contains(t, buf.String(), `"operation":"dispatch"`)
	assert.Contains(t, buf.String(), "partition redacted")
}

func TestDispatchStatsReportsMilliseconds(t *testing.T) {
	slow := RedactorFunc(func(reviews []review.Review) (map[string]string, error) {
		time.Sleep(25 * time.Millisecond)
		return upper(reviews)
	})

	_, stats, err := NewDispatcher(2, nil).Dispatch(makeBatch(2, 2), slow)
	require.NoError(t, err)
	assert.Equal(t, stats.Duration.Milliseconds(), stats.DurationMs)

	encoded, err := json.Marshal(stats)
	require.NoError(t, err)
	var decoded map[string]interface{}
	require.NoError(t, json.Unmarshal(encoded, &decoded))

	ms, ok := decoded["duration_ms"].(float64)
	require.True(t, ok, "duration_ms missing from %s", encoded)
	assert.GreaterOrEqual(t, ms, 25.0)
	assert.Less(t, ms, float64(time.Minute.Milliseconds()))
	assert.NotContains(t, decoded, "Duration")
}

// Copyright Amazon.com, Inc. or its affiliates. All Rights Reserved.
// SPDX-License-Identifier: Apache-2.0

package parallel

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"reviewlens/internal/review"
)

// makeBatch builds reviews for movies with the given review counts. RowIDs
// are positions in the batch and movies are interleaved.
func makeBatch(counts ...int) []review.Review {
	var out []review.Review
	remaining := append([]int(nil), counts...)
	for row := 0; ; {
		added := false
		for m := range remaining {
			if remaining[m] == 0 {
				continue
			}
			remaining[m]--
			added = true
			out = append(out, review.Review{
				RowID:   fmt.Sprint(row),
				MovieID: fmt.Sprintf("m%d", m),
				Title:   fmt.Sprintf("Movie %d", m),
				Text:    fmt.Sprintf("review %d of movie %d", row, m),
			})
			row++
		}
		if !added {
			return out
		}
	}
}

func TestBalanceLeastLoaded(t *testing.T) {
	reviews := makeBatch(5, 3, 2, 2)
	parts := Balance(reviews, 2)
	require.Len(t, parts, 2)

	// m0(5) -> p0, m1(3) -> p1, m2(2) -> p1 (3<5), m3(2) -> p0 (5==5, lowest index)
	assert.Equal(t, []string{"m0", "m3"}, parts[0].MovieIDs)
	assert.Equal(t, []string{"m1", "m2"}, parts[1].MovieIDs)
	assert.Equal(t, 7, parts[0].Load())
	assert.Equal(t, 5, parts[1].Load())
}

func TestBalanceMoreWorkersThanMovies(t *testing.T) {
	parts := Balance(makeBatch(2, 1), 4)
	require.Len(t, parts, 4)
	assert.Equal(t, 2, parts[0].Load())
	assert.Equal(t, 1, parts[1].Load())
	assert.Zero(t, parts[2].Load())
	assert.Zero(t, parts[3].Load())
	for i, p := range parts {
		assert.Equal(t, i, p.Index)
	}
}

func TestBalanceMovieAtomicity(t *testing.T) {
	reviews := makeBatch(7, 1, 4, 4, 9, 2, 3, 1, 6)
	for workers := 1; workers <= 6; workers++ {
		parts := Balance(reviews, workers)

		owner := make(map[string]int)
		total := 0
		for _, p := range parts {
			total += p.Load()
			for _, r := range p.Reviews {
				if prev, ok := owner[r.MovieID]; ok {
					assert.Equal(t, prev, p.Index, "movie %s split across partitions", r.MovieID)
				}
				owner[r.MovieID] = p.Index
			}
		}
		assert.Equal(t, len(reviews), total)
	}
}

func TestBalanceZeroWorkers(t *testing.T) {
	parts := Balance(makeBatch(1, 1), 0)
	require.Len(t, parts, 1)
	assert.Equal(t, 2, parts[0].Load())
}

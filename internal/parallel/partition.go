// Copyright Amazon.com, Inc. or its affiliates. All Rights Reserved.
// SPDX-License-Identifier: Apache-2.0

package parallel

import "reviewlens/internal/review"

// Partition is a movie-atomic slice of a review batch assigned to one worker.
type Partition struct {
	Index    int
	Reviews  []review.Review
	MovieIDs []string
}

// Load is the number of reviews in the partition.
func (p Partition) Load() int {
	return len(p.Reviews)
}

// Balance splits reviews into exactly workers partitions. Reviews are grouped
// by movie and each group, taken in first-appearance order, goes whole to the
// partition with the fewest reviews so far (lowest index on ties). Some
// partitions are empty when there are fewer movies than workers.
func Balance(reviews []review.Review, workers int) []Partition {
	workers = max(workers, 1)

	parts := make([]Partition, workers)
	for i := range parts {
		parts[i].Index = i
	}

	for _, g := range review.GroupByMovie(reviews) {
		target := 0
		for i := 1; i < workers; i++ {
			if parts[i].Load() < parts[target].Load() {
				target = i
			}
		}
		parts[target].Reviews = append(parts[target].Reviews, g.Reviews...)
		parts[target].MovieIDs = append(parts[target].MovieIDs, g.MovieID)
	}
	return parts
}

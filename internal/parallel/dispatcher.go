// Copyright Amazon.com, Inc. or its affiliates. All Rights Reserved.
// SPDX-License-Identifier: Apache-2.0

// Package parallel fans a review batch out to partition workers and merges
// their results back by row identity.
package parallel

import (
	"fmt"
	"sort"
	"time"

	"go.uber.org/zap"

	"reviewlens/internal/observability"
	"reviewlens/internal/review"
)

// PartitionRedactor redacts one partition and returns text keyed by RowID.
// Implementations must not keep state between calls.
type PartitionRedactor interface {
	RedactPartition(reviews []review.Review) (map[string]string, error)
}

// RedactorFunc adapts a function to PartitionRedactor.
type RedactorFunc func(reviews []review.Review) (map[string]string, error)

// RedactPartition calls f.
func (f RedactorFunc) RedactPartition(reviews []review.Review) (map[string]string, error) {
	return f(reviews)
}

// DispatchStats tracks one dispatch.
type DispatchStats struct {
	Reviews    int           `json:"reviews"`
	Movies     int           `json:"movies"`
	Workers    int           `json:"workers"`
	Partitions int           `json:"partitions"`
	Loads      []int         `json:"loads"`
	Failed     int           `json:"failed"`
	Duration   time.Duration `json:"-"`
	DurationMs int64         `json:"duration_ms"`
}

// Dispatcher owns partitioning, the worker pool and the merge barrier.
type Dispatcher struct {
	workers  int
	observer *observability.StandardObserver
}

// NewDispatcher creates a dispatcher with a fixed worker count. Counts below
// one are treated as one.
func NewDispatcher(workers int, observer *observability.StandardObserver) *Dispatcher {
	return &Dispatcher{workers: max(workers, 1), observer: observer}
}

// Workers returns the configured worker count.
func (d *Dispatcher) Workers() int {
	return d.workers
}

// Dispatch redacts reviews in parallel and blocks until every partition is
// done. On success the result holds exactly one entry per input RowID. If any
// partition fails the result is nil and the error is a *DispatchError naming
// each failed partition; results of healthy partitions are discarded rather
// than returned as a partial mapping.
func (d *Dispatcher) Dispatch(reviews []review.Review, redactor PartitionRedactor) (map[string]string, *DispatchStats, error) {
	start := time.Now()
	finishTiming := d.observer.StartTiming("dispatcher", "dispatch", fmt.Sprintf("%d reviews", len(reviews)))

	stats := &DispatchStats{Reviews: len(reviews), Workers: d.workers}

	expected, err := rowSet(reviews)
	if err != nil {
		finishTiming(false, map[string]interface{}{"error": err.Error()})
		return nil, stats, err
	}

	parts := Balance(reviews, d.workers)
	var active []Partition
	for _, p := range parts {
		stats.Loads = append(stats.Loads, p.Load())
		stats.Movies += len(p.MovieIDs)
		if p.Load() > 0 {
			active = append(active, p)
		}
	}
	stats.Partitions = len(active)

	merged := make(map[string]string, len(reviews))
	var failures []*PartitionError

	if len(active) > 0 {
		pool := NewWorkerPool(len(active), redactor, d.observer)
		pool.Start()

		go func() {
			for _, p := range active {
				pool.Submit(&Job{Partition: p})
			}
			pool.Close()
		}()

		for res := range pool.Results() {
			if perr := mergeResult(merged, res); perr != nil {
				failures = append(failures, perr)
				continue
			}
			d.observer.Logger().Debug("partition redacted",
				zap.Int("partition", res.Partition.Index),
				zap.Int("worker_id", res.WorkerID),
				zap.Int("reviews", res.Partition.Load()),
				zap.Int("movies", len(res.Partition.MovieIDs)),
				zap.Duration("duration", res.Duration),
			)
		}
	}

	stats.Duration = time.Since(start)
	stats.DurationMs = stats.Duration.Milliseconds()
	stats.Failed = len(failures)

	if len(failures) > 0 {
		sort.Slice(failures, func(i, j int) bool { return failures[i].Partition < failures[j].Partition })
		derr := &DispatchError{Failures: failures}
		finishTiming(false, map[string]interface{}{"failed_partitions": len(failures), "error": derr.Error()})
		return nil, stats, derr
	}

	if err := checkCoverage(expected, merged); err != nil {
		finishTiming(false, map[string]interface{}{"error": err.Error()})
		return nil, stats, err
	}

	finishTiming(true, map[string]interface{}{
		"reviews":    stats.Reviews,
		"movies":     stats.Movies,
		"partitions": stats.Partitions,
		"loads":      stats.Loads,
	})
	return merged, stats, nil
}

// Dispatch is a convenience wrapper for callers that need no observer or
// stats.
func Dispatch(reviews []review.Review, workers int, redactor PartitionRedactor) (map[string]string, error) {
	out, _, err := NewDispatcher(workers, nil).Dispatch(reviews, redactor)
	return out, err
}

// mergeResult folds one partition's output into merged. The partition's
// output must hold exactly its own rows; anything else fails the partition.
func mergeResult(merged map[string]string, res *Result) *PartitionError {
	fail := func(cause error) *PartitionError {
		return &PartitionError{
			Partition: res.Partition.Index,
			MovieIDs:  res.Partition.MovieIDs,
			Reviews:   res.Partition.Load(),
			Cause:     cause,
		}
	}

	if res.Error != nil {
		return fail(res.Error)
	}

	own, _ := rowSet(res.Partition.Reviews)
	var missing, foreign int
	for id := range own {
		if _, ok := res.Redacted[id]; !ok {
			missing++
		}
	}
	for id := range res.Redacted {
		if _, ok := own[id]; !ok {
			foreign++
		}
	}
	if missing > 0 || foreign > 0 {
		return fail(fmt.Errorf("%w: %d missing, %d unexpected", ErrIncompleteMerge, missing, foreign))
	}

	for id, text := range res.Redacted {
		merged[id] = text
	}
	return nil
}

func rowSet(reviews []review.Review) (map[string]struct{}, error) {
	set := make(map[string]struct{}, len(reviews))
	for _, r := range reviews {
		if _, dup := set[r.RowID]; dup {
			return nil, fmt.Errorf("%w: %q", ErrDuplicateRow, r.RowID)
		}
		set[r.RowID] = struct{}{}
	}
	return set, nil
}

func checkCoverage(expected map[string]struct{}, merged map[string]string) error {
	if len(expected) != len(merged) {
		return fmt.Errorf("%w: %d input rows, %d merged", ErrIncompleteMerge, len(expected), len(merged))
	}
	for id := range expected {
		if _, ok := merged[id]; !ok {
			return fmt.Errorf("%w: row %q missing", ErrIncompleteMerge, id)
		}
	}
	return nil
}

// Copyright Amazon.com, Inc. or its affiliates. All Rights Reserved.
// SPDX-License-Identifier: Apache-2.0

// Package pipeline runs the batch stages over a dataset folder: masking
// entities in reviews, calling analysis models, and aggregating their output
// per movie.
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/gofrs/flock"
	"go.uber.org/zap"

	"reviewlens/internal/batchio"
	"reviewlens/internal/ledger"
	"reviewlens/internal/observability"
	"reviewlens/internal/parallel"
)

const lockFileName = ".reviewlens.lock"

// ErrLocked is returned when another run holds the dataset lock.
var ErrLocked = errors.New("another reviewlens run is using this folder")

// BatchReport describes one processed batch file.
type BatchReport struct {
	Index    int
	Input    string
	Output   string
	Reviews  int
	Skipped  bool
	Duration time.Duration
	Dispatch *parallel.DispatchStats
}

// RunReport summarizes one stage run.
type RunReport struct {
	Stage      string
	ReviewType string
	InputDir   string
	OutputDir  string
	Batches    []BatchReport
	Duration   time.Duration
}

// Processed counts batches that were not skipped.
func (r *RunReport) Processed() int {
	n := 0
	for _, b := range r.Batches {
		if !b.Skipped {
			n++
		}
	}
	return n
}

// Reviews counts reviews across processed batches.
func (r *RunReport) Reviews() int {
	n := 0
	for _, b := range r.Batches {
		n += b.Reviews
	}
	return n
}

// Env carries what every stage shares.
type Env struct {
	Layout   Layout
	Observer *observability.StandardObserver
	Ledger   *ledger.Ledger

	// LockFile overrides the per-folder lock location.
	LockFile string
}

func (e Env) logger() *zap.Logger {
	return e.Observer.Logger()
}

// debug returns the step printer when running with --debug.
func (e Env) debug() *observability.DebugObserver {
	if e.Observer == nil {
		return nil
	}
	return e.Observer.DebugObserver
}

// lock takes the exclusive run lock for outputDir.
func (e Env) lock(outputDir string) (*flock.Flock, error) {
	path := e.LockFile
	if path == "" {
		path = filepath.Join(outputDir, lockFileName)
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("create lock dir: %w", err)
	}

	lk := flock.New(path)
	ok, err := lk.TryLock()
	if err != nil {
		return nil, fmt.Errorf("acquire lock %s: %w", path, err)
	}
	if !ok {
		return nil, fmt.Errorf("%w (lock %s)", ErrLocked, path)
	}
	return lk, nil
}

func (e Env) unlock(lk *flock.Flock) {
	if err := lk.Unlock(); err != nil {
		e.logger().Warn("failed to release lock", zap.String("lock", lk.Path()), zap.Error(err))
	}
}

// record writes a ledger entry. Ledger failures are logged, never fatal.
func (e Env) record(ctx context.Context, entry ledger.Entry) {
	if err := e.Ledger.Record(ctx, entry); err != nil {
		e.logger().Warn("failed to record batch in ledger", zap.Error(err))
	}
}

// batchFunc processes one input batch. It returns the number of reviews
// written.
type batchFunc func(ctx context.Context, b batchio.Batch, output string) (int, *parallel.DispatchStats, error)

type stageRun struct {
	env        Env
	stage      string
	reviewType string
	inputs     []batchio.Batch
	outputPath func(i int) string
	skip       bool
}

// run walks the input batches in order. Output i is derived from the batch's
// position, so gaps in the input numbering are closed up. Cancellation is
// checked between batches; a batch in flight always completes.
func (s stageRun) run(ctx context.Context, report *RunReport, fn batchFunc) error {
	start := time.Now()
	defer func() { report.Duration = time.Since(start) }()

	log := s.env.logger()
	for i, b := range s.inputs {
		if err := ctx.Err(); err != nil {
			return err
		}

		output := s.outputPath(i)
		br := BatchReport{Index: i, Input: b.Path, Output: output}
		entry := ledger.Entry{
			Stage:      s.stage,
			ReviewType: s.reviewType,
			BatchIndex: i,
			InputPath:  b.Path,
			OutputPath: output,
		}

		if s.skip && batchio.Exists(output) {
			log.Info("skipping batch, output exists",
				zap.String("stage", s.stage),
				zap.Int("batch", i),
				zap.String("output", output))
			br.Skipped = true
			report.Batches = append(report.Batches, br)
			entry.Status = ledger.StatusSkipped
			s.env.record(ctx, entry)
			continue
		}

		log.Info("processing batch",
			zap.String("stage", s.stage),
			zap.Int("batch", i),
			zap.Int("of", len(s.inputs)),
			zap.String("input", filepath.Base(b.Path)))

		finish := s.env.Observer.StartTiming("pipeline", s.stage, b.Path)
		batchStart := time.Now()
		n, stats, err := fn(ctx, b, output)
		br.Duration = time.Since(batchStart)
		br.Reviews = n
		br.Dispatch = stats

		entry.ReviewCount = n
		entry.Duration = br.Duration
		if err != nil {
			finish(false, map[string]interface{}{"error": err.Error()})
			entry.Status = ledger.StatusFailed
			entry.Error = err.Error()
			s.env.record(ctx, entry)
			return fmt.Errorf("batch %d (%s): %w", i, filepath.Base(b.Path), err)
		}

		finish(true, map[string]interface{}{"reviews": n, "output": output})
		if d := s.env.debug(); d != nil && stats != nil {
			d.LogMetric("pipeline", "partition_loads", stats.Loads)
		}
		entry.Status = ledger.StatusDone
		s.env.record(ctx, entry)
		report.Batches = append(report.Batches, br)
		log.Info("batch done",
			zap.String("stage", s.stage),
			zap.Int("batch", i),
			zap.Int("reviews", n),
			zap.Duration("duration", br.Duration))
	}
	return nil
}

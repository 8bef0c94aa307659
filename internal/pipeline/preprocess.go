// Copyright Amazon.com, Inc. or its affiliates. All Rights Reserved.
// SPDX-License-Identifier: Apache-2.0

package pipeline

import (
	"context"
	"fmt"
	"os"

	"go.uber.org/zap"

	"reviewlens/internal/batchio"
	"reviewlens/internal/parallel"
	"reviewlens/internal/redactors"
	"reviewlens/internal/review"
)

// PreprocessOptions configures a masking run.
type PreprocessOptions struct {
	ReviewType  string
	ReplaceType string
	Workers     int
	Redaction   redactors.Options
}

// Preprocess masks movie titles or actor names in every review batch of a
// dataset and writes the result to the preprocessed folder, one output per
// input batch, with the masked text in the cleanedReviews column.
//
// Input comes from the preprocessed folder when it already holds batches, so
// a second run (actors after movies) builds on the first; otherwise from the
// clean folder.
func Preprocess(ctx context.Context, env Env, opts PreprocessOptions) (*RunReport, error) {
	reviewType, err := review.ParseReviewType(opts.ReviewType)
	if err != nil {
		return nil, err
	}
	replaceType, err := review.ParseReplaceType(opts.ReplaceType)
	if err != nil {
		return nil, err
	}
	if opts.Workers < 1 {
		return nil, fmt.Errorf("workers must be at least 1, got %d", opts.Workers)
	}

	redactor, err := redactors.NewPartitionRedactor(replaceType, opts.Redaction)
	if err != nil {
		return nil, err
	}

	outputDir := env.Layout.PreprocessedDir(reviewType)
	inputDir, inputs, err := preprocessInputs(env.Layout, reviewType)
	if err != nil {
		return nil, err
	}
	if err := os.MkdirAll(outputDir, 0o755); err != nil {
		return nil, fmt.Errorf("create output folder: %w", err)
	}

	lk, err := env.lock(outputDir)
	if err != nil {
		return nil, err
	}
	defer env.unlock(lk)

	env.logger().Info("preprocessing reviews",
		zap.String("review_type", reviewType.String()),
		zap.String("replace", replaceType.String()),
		zap.String("input", inputDir),
		zap.Int("batches", len(inputs)),
		zap.Int("workers", opts.Workers))

	report := &RunReport{
		Stage:      StagePreprocessed,
		ReviewType: reviewType.String(),
		InputDir:   inputDir,
		OutputDir:  outputDir,
	}
	dispatcher := parallel.NewDispatcher(opts.Workers, env.Observer)

	run := stageRun{
		env:        env,
		stage:      StagePreprocessed,
		reviewType: reviewType.String(),
		inputs:     inputs,
		outputPath: func(i int) string {
			return env.Layout.OutputPath(outputDir, reviewType, StagePreprocessed, i)
		},
	}
	err = run.run(ctx, report, func(ctx context.Context, b batchio.Batch, output string) (int, *parallel.DispatchStats, error) {
		return maskBatch(dispatcher, redactor, b.Path, output)
	})
	return report, err
}

// preprocessInputs picks the input folder and lists its batches.
func preprocessInputs(l Layout, t review.ReviewType) (string, []batchio.Batch, error) {
	dir := l.PreprocessedDir(t)
	batches, err := batchio.ListBatches(dir, batchio.BatchPrefix(t, StagePreprocessed))
	if err != nil {
		return "", nil, err
	}
	if len(batches) > 0 {
		return dir, batches, nil
	}

	dir = l.CleanDir(t)
	batches, err = batchio.ListBatches(dir, batchio.BatchPrefix(t, StageClean))
	if err != nil {
		return "", nil, err
	}
	return dir, batches, nil
}

// maskBatch redacts one batch file. The output is written only after every
// row has been masked, so a failed batch never leaves a partial file.
func maskBatch(d *parallel.Dispatcher, redactor parallel.PartitionRedactor, input, output string) (int, *parallel.DispatchStats, error) {
	records, err := batchio.ReadRecords(input)
	if err != nil {
		return 0, nil, err
	}
	reviews, err := batchio.ExtractReviews(input, records)
	if err != nil {
		return 0, nil, err
	}

	masked, stats, err := d.Dispatch(reviews, redactor)
	if err != nil {
		return 0, stats, err
	}
	if err := batchio.MergeColumn(records, batchio.ColumnCleaned, masked); err != nil {
		return 0, stats, err
	}
	if err := batchio.WriteRecords(output, records); err != nil {
		return 0, stats, err
	}
	return len(reviews), stats, nil
}

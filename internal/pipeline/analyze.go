// Copyright Amazon.com, Inc. or its affiliates. All Rights Reserved.
// SPDX-License-Identifier: Apache-2.0

package pipeline

import (
	"context"
	"errors"
	"fmt"
	"os"

	"go.uber.org/zap"

	"reviewlens/internal/analysis"
	"reviewlens/internal/batchio"
	"reviewlens/internal/parallel"
	"reviewlens/internal/review"
)

// AnalyzeOptions configures an analysis run.
type AnalyzeOptions struct {
	ReviewType   string
	AnalysisType string
	ChunkSize    int
	SkipExisting bool
	Classifier   analysis.Classifier
}

// Analyze runs one analysis over every preprocessed batch and writes
// rt_{type}_reviews_{analysis}_{i}.json rows tagged with reviewId and id.
// Batches whose output already exists are skipped when SkipExisting is set.
func Analyze(ctx context.Context, env Env, opts AnalyzeOptions) (*RunReport, error) {
	reviewType, err := review.ParseReviewType(opts.ReviewType)
	if err != nil {
		return nil, err
	}
	kind, err := review.ParseAnalysisType(opts.AnalysisType)
	if err != nil {
		return nil, err
	}
	if opts.Classifier == nil {
		return nil, errors.New("analysis requires a classifier")
	}

	outputDir := env.Layout.AnalysisDir(reviewType, kind)
	run, report, release, err := prepareModelStage(env, reviewType, string(kind), preprocessedInput(env, reviewType), outputDir, opts.SkipExisting)
	if err != nil {
		return nil, err
	}
	defer release()

	err = run.run(ctx, report, func(ctx context.Context, b batchio.Batch, output string) (int, *parallel.DispatchStats, error) {
		reviews, err := readReviews(b.Path)
		if err != nil {
			return 0, nil, err
		}
		results, err := analysis.RunChunked(ctx, opts.Classifier, texts(reviews), opts.ChunkSize, chunkLogger(env, b.Path))
		if err != nil {
			return 0, nil, err
		}

		rows := make([]batchio.Record, len(reviews))
		for i, rev := range reviews {
			if rows[i], err = analysis.ShapeRecord(kind, rev, results[i]); err != nil {
				return 0, nil, err
			}
		}
		return len(rows), nil, batchio.WriteRecords(output, rows)
	})
	return report, err
}

// EmbedOptions configures an embedding run.
type EmbedOptions struct {
	ReviewType   string
	ChunkSize    int
	SkipExisting bool
	Embedder     analysis.Embedder
}

// Embed computes a vector per review for every preprocessed batch and
// writes rt_{type}_reviews_embeddings_{i}.json rows of id, reviewId and
// embeddings.
func Embed(ctx context.Context, env Env, opts EmbedOptions) (*RunReport, error) {
	reviewType, err := review.ParseReviewType(opts.ReviewType)
	if err != nil {
		return nil, err
	}
	if opts.Embedder == nil {
		return nil, errors.New("embedding requires an embedder")
	}

	outputDir := env.Layout.EmbeddingsDir(reviewType)
	run, report, release, err := prepareModelStage(env, reviewType, StageEmbeddings, preprocessedInput(env, reviewType), outputDir, opts.SkipExisting)
	if err != nil {
		return nil, err
	}
	defer release()

	err = run.run(ctx, report, func(ctx context.Context, b batchio.Batch, output string) (int, *parallel.DispatchStats, error) {
		reviews, err := readReviews(b.Path)
		if err != nil {
			return 0, nil, err
		}
		vectors, err := analysis.EmbedChunked(ctx, opts.Embedder, texts(reviews), opts.ChunkSize, chunkLogger(env, b.Path))
		if err != nil {
			return 0, nil, err
		}

		rows := make([]batchio.Record, len(reviews))
		for i, rev := range reviews {
			if rows[i], err = analysis.ShapeEmbedding(rev, vectors[i]); err != nil {
				return 0, nil, err
			}
		}
		return len(rows), nil, batchio.WriteRecords(output, rows)
	})
	return report, err
}

// stageInput names the folder and file prefix a stage reads.
type stageInput struct {
	dir    string
	prefix string
}

func preprocessedInput(env Env, t review.ReviewType) stageInput {
	return stageInput{dir: env.Layout.PreprocessedDir(t), prefix: batchio.BatchPrefix(t, StagePreprocessed)}
}

// prepareModelStage lists the input batches, creates outputDir and takes its
// lock. The returned release func unlocks it.
func prepareModelStage(env Env, t review.ReviewType, stage string, in stageInput, outputDir string, skip bool) (stageRun, *RunReport, func(), error) {
	inputDir := in.dir
	inputs, err := batchio.ListBatches(inputDir, in.prefix)
	if err != nil {
		return stageRun{}, nil, nil, err
	}
	if err := os.MkdirAll(outputDir, 0o755); err != nil {
		return stageRun{}, nil, nil, fmt.Errorf("create output folder: %w", err)
	}
	lk, err := env.lock(outputDir)
	if err != nil {
		return stageRun{}, nil, nil, err
	}

	env.logger().Info("running model stage",
		zap.String("stage", stage),
		zap.String("review_type", t.String()),
		zap.String("input", inputDir),
		zap.Int("batches", len(inputs)))

	run := stageRun{
		env:        env,
		stage:      stage,
		reviewType: t.String(),
		inputs:     inputs,
		skip:       skip,
		outputPath: func(i int) string {
			return env.Layout.OutputPath(outputDir, t, stage, i)
		},
	}
	report := &RunReport{Stage: stage, ReviewType: t.String(), InputDir: inputDir, OutputDir: outputDir}
	return run, report, func() { env.unlock(lk) }, nil
}

func readReviews(path string) ([]review.Review, error) {
	records, err := batchio.ReadRecords(path)
	if err != nil {
		return nil, err
	}
	return batchio.ExtractReviews(path, records)
}

func texts(reviews []review.Review) []string {
	out := make([]string, len(reviews))
	for i, r := range reviews {
		out[i] = r.Text
	}
	return out
}

func chunkLogger(env Env, path string) func(done, total int) {
	log := env.logger()
	return func(done, total int) {
		log.Debug("chunk done", zap.String("input", path), zap.Int("chunk", done), zap.Int("of", total))
	}
}

// Copyright Amazon.com, Inc. or its affiliates. All Rights Reserved.
// SPDX-License-Identifier: Apache-2.0

package pipeline

import (
	"context"
	"errors"

	"reviewlens/internal/analysis"
	"reviewlens/internal/batchio"
	"reviewlens/internal/parallel"
	"reviewlens/internal/review"
)

// InferTopicsOptions configures topic inference.
type InferTopicsOptions struct {
	ReviewType   string
	ChunkSize    int
	SkipExisting bool
	Classifier   analysis.Classifier
}

// InferTopics assigns a topic to every aspect found by aspect extraction.
// Each aspects batch becomes rt_{type}_reviews_topics_{i}.json in the topic
// folder with one row per non-blank aspect, which is what AggregateTopics
// reads.
func InferTopics(ctx context.Context, env Env, opts InferTopicsOptions) (*RunReport, error) {
	reviewType, err := review.ParseReviewType(opts.ReviewType)
	if err != nil {
		return nil, err
	}
	if opts.Classifier == nil {
		return nil, errors.New("topic inference requires a topic model")
	}

	in := stageInput{
		dir:    env.Layout.AnalysisDir(reviewType, review.Aspects),
		prefix: batchio.BatchPrefix(reviewType, string(review.Aspects)),
	}
	run, report, release, err := prepareModelStage(env, reviewType, StageTopics, in, env.Layout.TopicsDir(reviewType), opts.SkipExisting)
	if err != nil {
		return nil, err
	}
	defer release()

	err = run.run(ctx, report, func(ctx context.Context, b batchio.Batch, output string) (int, *parallel.DispatchStats, error) {
		records, err := batchio.ReadRecords(b.Path)
		if err != nil {
			return 0, nil, err
		}
		rows, err := analysis.ExplodeAspects(b.Path, records)
		if err != nil {
			return 0, nil, err
		}

		aspects := make([]string, len(rows))
		for i, row := range rows {
			aspects[i] = row.Aspect
		}
		results, err := analysis.RunChunked(ctx, opts.Classifier, aspects, opts.ChunkSize, chunkLogger(env, b.Path))
		if err != nil {
			return 0, nil, err
		}

		out := make([]batchio.Record, len(rows))
		for i, row := range rows {
			if out[i], err = analysis.ShapeTopic(row, results[i]); err != nil {
				return 0, nil, err
			}
		}
		return len(out), nil, batchio.WriteRecords(output, out)
	})
	return report, err
}

// Copyright Amazon.com, Inc. or its affiliates. All Rights Reserved.
// SPDX-License-Identifier: Apache-2.0

package pipeline

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"reviewlens/internal/aggregate"
	"reviewlens/internal/batchio"
	"reviewlens/internal/review"
)

// AggregateResult holds what an aggregation produced.
type AggregateResult struct {
	Output  string
	Batches int
	Rows    int
}

// readBatches loads every batch of stage in dir and hands each to fn.
func readBatches(ctx context.Context, dir, prefix string, fn func(path string, records []batchio.Record) error) (int, error) {
	batches, err := batchio.ListBatches(dir, prefix)
	if err != nil {
		return 0, err
	}
	if len(batches) == 0 {
		return 0, fmt.Errorf("no %s_*.json batches in %s", prefix, dir)
	}
	for _, b := range batches {
		if err := ctx.Err(); err != nil {
			return 0, err
		}
		records, err := batchio.ReadRecords(b.Path)
		if err != nil {
			return 0, err
		}
		if err := fn(b.Path, records); err != nil {
			return 0, err
		}
	}
	return len(batches), nil
}

// AggregateValence averages signed sentiment per movie across all sentiment
// batches and writes rt_{type}_valence_aggregated.json next to them.
func AggregateValence(ctx context.Context, env Env, reviewType string) ([]aggregate.Valence, *AggregateResult, error) {
	t, err := review.ParseReviewType(reviewType)
	if err != nil {
		return nil, nil, err
	}
	finish := env.Observer.StartTiming("aggregate", StageValence, t.String())

	dir := env.Layout.AnalysisDir(t, review.Sentiment)
	var rows []aggregate.SentimentRow
	n, err := readBatches(ctx, dir, batchio.BatchPrefix(t, string(review.Sentiment)), func(path string, records []batchio.Record) error {
		got, err := aggregate.SentimentRows(path, records)
		rows = append(rows, got...)
		return err
	})
	if err != nil {
		finish(false, map[string]interface{}{"error": err.Error()})
		return nil, nil, err
	}

	valences := aggregate.Valences(rows)
	records, err := aggregate.ValenceRecords(valences)
	if err != nil {
		return nil, nil, err
	}
	res := &AggregateResult{Output: env.Layout.AggregatePath(dir, t, StageValence), Batches: n, Rows: len(rows)}
	if err := batchio.WriteRecords(res.Output, records); err != nil {
		finish(false, map[string]interface{}{"error": err.Error()})
		return nil, nil, err
	}

	finish(true, map[string]interface{}{"reviews": len(rows), "movies": len(valences)})
	env.logger().Info("aggregated valence",
		zap.Int("reviews", len(rows)),
		zap.Int("movies", len(valences)),
		zap.String("output", res.Output))
	return valences, res, nil
}

// AggregateEmbeddings averages embedding vectors per movie and writes
// rt_{type}_embeddings_aggregated.json.
func AggregateEmbeddings(ctx context.Context, env Env, reviewType string) ([]aggregate.Embedding, *AggregateResult, error) {
	t, err := review.ParseReviewType(reviewType)
	if err != nil {
		return nil, nil, err
	}
	finish := env.Observer.StartTiming("aggregate", StageEmbeddings, t.String())

	dir := env.Layout.EmbeddingsDir(t)
	var rows []aggregate.EmbeddingRow
	n, err := readBatches(ctx, dir, batchio.BatchPrefix(t, StageEmbeddings), func(path string, records []batchio.Record) error {
		got, err := aggregate.EmbeddingRows(path, records)
		rows = append(rows, got...)
		return err
	})
	if err != nil {
		finish(false, map[string]interface{}{"error": err.Error()})
		return nil, nil, err
	}

	means, err := aggregate.Embeddings(rows)
	if err != nil {
		finish(false, map[string]interface{}{"error": err.Error()})
		return nil, nil, err
	}
	records, err := aggregate.EmbeddingRecords(means)
	if err != nil {
		return nil, nil, err
	}
	res := &AggregateResult{Output: env.Layout.AggregatePath(dir, t, StageEmbeddings), Batches: n, Rows: len(rows)}
	if err := batchio.WriteRecords(res.Output, records); err != nil {
		finish(false, map[string]interface{}{"error": err.Error()})
		return nil, nil, err
	}

	finish(true, map[string]interface{}{"reviews": len(rows), "movies": len(means)})
	return means, res, nil
}

// AggregateTopics counts reviews per topic and writes
// rt_{type}_topics_aggregated.json into the topic folder.
func AggregateTopics(ctx context.Context, env Env, reviewType string) ([]aggregate.TopicCount, *AggregateResult, error) {
	t, err := review.ParseReviewType(reviewType)
	if err != nil {
		return nil, nil, err
	}
	finish := env.Observer.StartTiming("aggregate", StageTopics, t.String())

	dir := env.Layout.TopicsDir(t)
	var rows []aggregate.TopicRow
	n, err := readBatches(ctx, dir, batchio.BatchPrefix(t, StageTopics), func(path string, records []batchio.Record) error {
		got, err := aggregate.TopicRows(path, records)
		rows = append(rows, got...)
		return err
	})
	if err != nil {
		finish(false, map[string]interface{}{"error": err.Error()})
		return nil, nil, err
	}

	counts := aggregate.Topics(rows)
	records, err := aggregate.TopicRecords(counts)
	if err != nil {
		return nil, nil, err
	}
	res := &AggregateResult{Output: env.Layout.AggregatePath(dir, t, StageTopics), Batches: n, Rows: len(rows)}
	if err := batchio.WriteRecords(res.Output, records); err != nil {
		finish(false, map[string]interface{}{"error": err.Error()})
		return nil, nil, err
	}

	finish(true, map[string]interface{}{"reviews": len(rows), "topics": len(counts)})
	return counts, res, nil
}

// StringifyAspects adds an aspectString column to every aspects batch,
// rewriting the files in place.
func StringifyAspects(ctx context.Context, env Env, reviewType string) (*AggregateResult, error) {
	t, err := review.ParseReviewType(reviewType)
	if err != nil {
		return nil, err
	}
	finish := env.Observer.StartTiming("aggregate", StageAspectString, t.String())

	dir := env.Layout.AnalysisDir(t, review.Aspects)
	lk, err := env.lock(dir)
	if err != nil {
		return nil, err
	}
	defer env.unlock(lk)

	res := &AggregateResult{Output: dir}
	res.Batches, err = readBatches(ctx, dir, batchio.BatchPrefix(t, string(review.Aspects)), func(path string, records []batchio.Record) error {
		if err := aggregate.AddAspectStrings(records); err != nil {
			return fmt.Errorf("%s: %w", path, err)
		}
		res.Rows += len(records)
		if err := batchio.WriteRecords(path, records); err != nil {
			return err
		}
		env.logger().Info("added aspect strings", zap.String("file", path), zap.Int("rows", len(records)))
		return nil
	})
	if err != nil {
		finish(false, map[string]interface{}{"error": err.Error()})
		return nil, err
	}
	finish(true, map[string]interface{}{"rows": res.Rows, "batches": res.Batches})
	return res, nil
}

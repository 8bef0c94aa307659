// Copyright Amazon.com, Inc. or its affiliates. All Rights Reserved.
// SPDX-License-Identifier: Apache-2.0

// Package analysis runs review text through model-inference collaborators
// (sentiment, emotion, argument, aspect and embedding models) and shapes
// their answers into batch records.
package analysis

import (
	"context"
	"fmt"
)

// LabelScore is one label of a multi-label prediction.
type LabelScore struct {
	Label string  `json:"label"`
	Score float64 `json:"score"`
}

// AspectResult is the aspect-term extraction output for one review.
type AspectResult struct {
	Sentence   string      `json:"sentence"`
	Aspect     []string    `json:"aspect"`
	Sentiment  []string    `json:"sentiment"`
	Probs      [][]float64 `json:"probs"`
	Confidence []float64   `json:"confidence"`
	Tokens     []string    `json:"tokens"`
	Position   [][]int     `json:"position"`
	IOB        []string    `json:"IOB"`
}

// Result is the model output for one text. Which fields are set depends on
// the task: Label and Score for sentiment, Scores for emotion and argument,
// Aspects for aspect extraction, Text for translation. Topic inference sets
// Topic, Label (the topic name, possibly empty) and Score (its probability).
type Result struct {
	Label   string
	Score   float64
	Scores  []LabelScore
	Aspects *AspectResult
	Text    string
	Topic   int
}

// OutlierTopic is the topic assigned to texts that fit no topic.
const OutlierTopic = -1

// Classifier labels a batch of texts. The i-th result belongs to the i-th
// text.
type Classifier interface {
	Classify(ctx context.Context, texts []string) ([]Result, error)
}

// ClassifierFunc adapts a function to Classifier.
type ClassifierFunc func(ctx context.Context, texts []string) ([]Result, error)

func (f ClassifierFunc) Classify(ctx context.Context, texts []string) ([]Result, error) {
	return f(ctx, texts)
}

// Embedder maps texts to fixed-length vectors.
type Embedder interface {
	Embed(ctx context.Context, texts []string) ([][]float64, error)
}

// EmbedderFunc adapts a function to Embedder.
type EmbedderFunc func(ctx context.Context, texts []string) ([][]float64, error)

func (f EmbedderFunc) Embed(ctx context.Context, texts []string) ([][]float64, error) {
	return f(ctx, texts)
}

// AlignmentError reports a collaborator that answered with the wrong number
// of results for a chunk.
type AlignmentError struct {
	Offset   int
	Expected int
	Got      int
}

func (e *AlignmentError) Error() string {
	return fmt.Sprintf("chunk at offset %d: expected %d results, got %d", e.Offset, e.Expected, e.Got)
}

// RunChunked classifies texts chunkSize at a time and concatenates the
// results in input order. A chunkSize below one processes everything at once.
func RunChunked(ctx context.Context, clf Classifier, texts []string, chunkSize int, onChunk func(done, total int)) ([]Result, error) {
	return runChunked(ctx, texts, chunkSize, onChunk, clf.Classify)
}

// EmbedChunked is RunChunked for an Embedder.
func EmbedChunked(ctx context.Context, emb Embedder, texts []string, chunkSize int, onChunk func(done, total int)) ([][]float64, error) {
	return runChunked(ctx, texts, chunkSize, onChunk, emb.Embed)
}

func runChunked[T any](ctx context.Context, texts []string, chunkSize int, onChunk func(done, total int),
	call func(context.Context, []string) ([]T, error)) ([]T, error) {
	if len(texts) == 0 {
		return nil, nil
	}
	if chunkSize < 1 {
		chunkSize = len(texts)
	}
	total := (len(texts) + chunkSize - 1) / chunkSize

	out := make([]T, 0, len(texts))
	for n, start := 0, 0; start < len(texts); n, start = n+1, start+chunkSize {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		end := min(start+chunkSize, len(texts))
		got, err := call(ctx, texts[start:end])
		if err != nil {
			return nil, fmt.Errorf("chunk %d/%d: %w", n+1, total, err)
		}
		if len(got) != end-start {
			return nil, &AlignmentError{Offset: start, Expected: end - start, Got: len(got)}
		}
		out = append(out, got...)
		if onChunk != nil {
			onChunk(n+1, total)
		}
	}
	return out, nil
}

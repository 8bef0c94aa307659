// Copyright Amazon.com, Inc. or its affiliates. All Rights Reserved.
// SPDX-License-Identifier: Apache-2.0

package pipeline

import (
	"fmt"
	"path/filepath"

	"reviewlens/internal/batchio"
	"reviewlens/internal/review"
)

// Stage names used in batch file names and the ledger.
const (
	StagePreTranslation = "pre_translation"
	StageTranslated     = "translated"
	StageClean          = "clean"
	StagePreprocessed   = "preprocessed"
	StageEmbeddings     = "embeddings"
	StageTopics         = "topics"
	StageAspectString   = "aspect_string"
	StageValence        = "valence"
)

// Layout maps the dataset folder structure under a root directory:
//
//	Rotten Tomatoes Reviews/{Type} Reviews pre Translation/
//	Rotten Tomatoes Reviews/{Type} Reviews Translated/
//	Rotten Tomatoes Reviews/{Type} Reviews Clean/
//	Rotten Tomatoes Reviews/{Type} Reviews Preprocessed for NLP/
//	NLP Data/{Type} {Analysis} Data/
//	NLP Data/{Type} Embeddings/
//	NLP Data/{Type} Topic Data/
type Layout struct {
	Root string
}

// NewLayout returns the layout rooted at root.
func NewLayout(root string) Layout {
	if root == "" {
		root = "."
	}
	return Layout{Root: root}
}

func (l Layout) reviewsDir() string {
	return filepath.Join(l.Root, "Rotten Tomatoes Reviews")
}

func (l Layout) nlpDir() string {
	return filepath.Join(l.Root, "NLP Data")
}

// PreTranslationDir holds scraped batches before language detection.
func (l Layout) PreTranslationDir(t review.ReviewType) string {
	return filepath.Join(l.reviewsDir(), fmt.Sprintf("%s Reviews pre Translation", t))
}

// TranslatedDir holds batches with non-English reviews translated.
func (l Layout) TranslatedDir(t review.ReviewType) string {
	return filepath.Join(l.reviewsDir(), fmt.Sprintf("%s Reviews Translated", t))
}

// CleanDir holds the scraped and cleaned review batches.
func (l Layout) CleanDir(t review.ReviewType) string {
	return filepath.Join(l.reviewsDir(), fmt.Sprintf("%s Reviews Clean", t))
}

// PreprocessedDir holds masked review batches.
func (l Layout) PreprocessedDir(t review.ReviewType) string {
	return filepath.Join(l.reviewsDir(), fmt.Sprintf("%s Reviews Preprocessed for NLP", t))
}

// AnalysisDir holds the per-review output of one analysis.
func (l Layout) AnalysisDir(t review.ReviewType, a review.AnalysisType) string {
	return filepath.Join(l.nlpDir(), fmt.Sprintf("%s %s Data", t, a.Title()))
}

// EmbeddingsDir holds per-review embedding vectors.
func (l Layout) EmbeddingsDir(t review.ReviewType) string {
	return filepath.Join(l.nlpDir(), fmt.Sprintf("%s Embeddings", t))
}

// TopicsDir holds topic assignments produced by the topic model.
func (l Layout) TopicsDir(t review.ReviewType) string {
	return filepath.Join(l.nlpDir(), fmt.Sprintf("%s Topic Data", t))
}

// AggregatePath is where a per-movie or per-topic summary is written, for
// example rt_critic_valence_aggregated.json.
func (l Layout) AggregatePath(dir string, t review.ReviewType, kind string) string {
	return filepath.Join(dir, fmt.Sprintf("rt_%s_%s_aggregated.json", t.Slug(), kind))
}

// OutputPath names batch i of stage in dir.
func (l Layout) OutputPath(dir string, t review.ReviewType, stage string, i int) string {
	return filepath.Join(dir, batchio.BatchFileName(t, stage, i))
}

// Copyright Amazon.com, Inc. or its affiliates. All Rights Reserved.
// SPDX-License-Identifier: Apache-2.0

// Package redactors masks movie titles and actor names in review text.
package redactors

import (
	"fmt"

	"reviewlens/internal/fuzzy"
	"reviewlens/internal/reference"
	"reviewlens/internal/review"
	"reviewlens/internal/textnorm"
)

// Placeholders inserted in place of a masked span.
const (
	MoviePlaceholder = "[movie]"
	ActorPlaceholder = "[actor]"
)

// DefaultThreshold is the minimum similarity, on a 0-100 scale, for a window
// to count as a match.
const DefaultThreshold = 85

// Options configures the partition redactors.
type Options struct {
	Threshold float64

	// TitleScorer and ActorScorer name a fuzzy.Scorer.
	TitleScorer string
	ActorScorer string

	MoviePlaceholder string
	ActorPlaceholder string

	// LenTolerance widens the n-gram search beyond the reference word count.
	LenTolerance int

	// Actors is the normalized reference list. Only used for actor masking;
	// when empty the embedded list is loaded.
	Actors []string
}

// DefaultOptions returns the options used when nothing is configured.
func DefaultOptions() Options {
	return Options{
		Threshold:        DefaultThreshold,
		TitleScorer:      fuzzy.ScorerPartialRatio,
		ActorScorer:      fuzzy.ScorerRatio,
		MoviePlaceholder: MoviePlaceholder,
		ActorPlaceholder: ActorPlaceholder,
	}
}

// PartitionRedactor masks every review of a partition and returns the masked
// text keyed by RowID.
type PartitionRedactor interface {
	Name() string
	RedactPartition(reviews []review.Review) (map[string]string, error)
}

// NewPartitionRedactor builds the redactor for replaceType. Reference data is
// loaded here, once, and shared read-only by every partition.
func NewPartitionRedactor(replaceType review.ReplaceType, opts Options) (PartitionRedactor, error) {
	if opts.Threshold < 0 || opts.Threshold > 100 {
		return nil, NewRedactionError(ErrorConfiguration,
			fmt.Sprintf("threshold %.1f outside 0-100", opts.Threshold), "", "factory", nil)
	}

	switch replaceType {
	case review.ReplaceMovies:
		return NewTitleRedactor(opts)
	case review.ReplaceActors:
		return NewActorRedactor(opts)
	default:
		return nil, NewRedactionError(ErrorConfiguration,
			fmt.Sprintf("unsupported replace type %s", replaceType), "", "factory", nil)
	}
}

func buildMatcher(scorerName, placeholder, fallback string, threshold float64) (Matcher, error) {
	scorer, err := fuzzy.ParseScorer(scorerName)
	if err != nil {
		return Matcher{}, NewRedactionError(ErrorConfiguration, "invalid scorer", "", "factory", err)
	}
	if placeholder == "" {
		placeholder = fallback
	}
	return Matcher{Scorer: scorer, Threshold: threshold, Placeholder: placeholder}, nil
}

// normalizeTokens is the per-review preparation shared by both redactors.
func normalizeTokens(text string) []string {
	return textnorm.Tokenize(textnorm.Normalize(text))
}

// TitleRedactor masks each movie's own title in its reviews.
type TitleRedactor struct {
	matcher      Matcher
	lenTolerance int
}

// NewTitleRedactor creates a title redactor.
func NewTitleRedactor(opts Options) (*TitleRedactor, error) {
	m, err := buildMatcher(opts.TitleScorer, opts.MoviePlaceholder, MoviePlaceholder, opts.Threshold)
	if err != nil {
		return nil, err
	}
	return &TitleRedactor{matcher: m, lenTolerance: opts.LenTolerance}, nil
}

// Name returns the redactor name.
func (r *TitleRedactor) Name() string { return "movies" }

// RedactPartition masks titles movie by movie.
func (r *TitleRedactor) RedactPartition(reviews []review.Review) (map[string]string, error) {
	out := make(map[string]string, len(reviews))
	for _, g := range review.GroupByMovie(reviews) {
		ix := reference.NewTitleIndex(g.Title, r.lenTolerance)
		if err := redactGroup(out, g, r.matcher, ix, r.Name()); err != nil {
			return nil, err
		}
	}
	return out, nil
}

// ActorRedactor masks names from one shared actor list.
type ActorRedactor struct {
	matcher Matcher
	index   *reference.Index
}

// NewActorRedactor creates an actor redactor. The embedded list is used when
// opts.Actors is empty.
func NewActorRedactor(opts Options) (*ActorRedactor, error) {
	m, err := buildMatcher(opts.ActorScorer, opts.ActorPlaceholder, ActorPlaceholder, opts.Threshold)
	if err != nil {
		return nil, err
	}

	actors := opts.Actors
	if len(actors) == 0 {
		actors, err = reference.DefaultActorList()
		if err != nil {
			return nil, NewRedactionError(ErrorReference, "failed to load actor list", "", "actors", err)
		}
	}
	if len(actors) == 0 {
		return nil, NewRedactionError(ErrorReference, "actor list is empty", "", "actors", nil)
	}
	return &ActorRedactor{matcher: m, index: reference.NewActorIndex(actors, opts.LenTolerance)}, nil
}

// Name returns the redactor name.
func (r *ActorRedactor) Name() string { return "actors" }

// Index returns the actor index in use.
func (r *ActorRedactor) Index() *reference.Index { return r.index }

// RedactPartition masks actor names in every review of the partition.
func (r *ActorRedactor) RedactPartition(reviews []review.Review) (map[string]string, error) {
	out := make(map[string]string, len(reviews))
	for _, g := range review.GroupByMovie(reviews) {
		if err := redactGroup(out, g, r.matcher, r.index, r.Name()); err != nil {
			return nil, err
		}
	}
	return out, nil
}

func redactGroup(out map[string]string, g review.Group, m Matcher, ix *reference.Index, component string) error {
	for _, rv := range g.Reviews {
		if _, dup := out[rv.RowID]; dup {
			return NewRedactionError(ErrorValidation,
				fmt.Sprintf("duplicate row %q", rv.RowID), g.MovieID, component, nil)
		}
		out[rv.RowID] = m.MatchAndMask(normalizeTokens(rv.Text), ix)
	}
	return nil
}

// Copyright Amazon.com, Inc. or its affiliates. All Rights Reserved.
// SPDX-License-Identifier: Apache-2.0

// Package review defines review records and the run options that select what
// the pipeline does with them.
package review

import (
	"fmt"
	"strings"
)

// Review is one movie review as read from an input batch.
type Review struct {
	// RowID identifies the review within its batch. It survives partitioning
	// and merging unchanged.
	RowID string

	// ReviewID is the source site's review identifier, when present.
	ReviewID string

	MovieID string
	Title   string
	Text    string
}

// ValidationError reports an unsupported run option.
type ValidationError struct {
	Field   string
	Value   string
	Allowed []string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid %s %q: must be one of %s", e.Field, e.Value, strings.Join(e.Allowed, ", "))
}

// ReviewType selects the audience or critic corpus.
type ReviewType int

const (
	Audience ReviewType = iota
	Critic
)

func (t ReviewType) String() string {
	switch t {
	case Audience:
		return "Audience"
	case Critic:
		return "Critic"
	default:
		return "Unknown"
	}
}

// Slug is the lowercase form used in file names.
func (t ReviewType) Slug() string {
	return strings.ToLower(t.String())
}

// ParseReviewType accepts "Audience" or "Critic" in any case.
func ParseReviewType(s string) (ReviewType, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "audience":
		return Audience, nil
	case "critic":
		return Critic, nil
	default:
		return 0, &ValidationError{Field: "review type", Value: s, Allowed: []string{"Audience", "Critic"}}
	}
}

// ReplaceType selects which entities are masked.
type ReplaceType int

const (
	ReplaceMovies ReplaceType = iota
	ReplaceActors
)

func (t ReplaceType) String() string {
	switch t {
	case ReplaceMovies:
		return "movies"
	case ReplaceActors:
		return "actors"
	default:
		return "unknown"
	}
}

// ParseReplaceType accepts "movies" or "actors" in any case.
func ParseReplaceType(s string) (ReplaceType, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "movies":
		return ReplaceMovies, nil
	case "actors":
		return ReplaceActors, nil
	default:
		return 0, &ValidationError{Field: "replace type", Value: s, Allowed: []string{"movies", "actors"}}
	}
}

// AnalysisType selects an NLP analysis.
type AnalysisType string

const (
	Sentiment AnalysisType = "sentiment"
	Emotion   AnalysisType = "emotion"
	Argument  AnalysisType = "argument"
	Aspects   AnalysisType = "aspects"
)

// AnalysisTypes lists the supported analyses in run order.
func AnalysisTypes() []AnalysisType {
	return []AnalysisType{Sentiment, Emotion, Argument, Aspects}
}

// Title is the capitalized form used in folder names ("Sentiment").
func (a AnalysisType) Title() string {
	if a == "" {
		return ""
	}
	return strings.ToUpper(string(a[:1])) + string(a[1:])
}

// ParseAnalysisType accepts a supported analysis name in any case.
func ParseAnalysisType(s string) (AnalysisType, error) {
	candidate := AnalysisType(strings.ToLower(strings.TrimSpace(s)))
	for _, a := range AnalysisTypes() {
		if a == candidate {
			return a, nil
		}
	}
	allowed := make([]string, 0, len(AnalysisTypes()))
	for _, a := range AnalysisTypes() {
		allowed = append(allowed, string(a))
	}
	return "", &ValidationError{Field: "analysis type", Value: s, Allowed: allowed}
}

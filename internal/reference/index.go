// Copyright Amazon.com, Inc. or its affiliates. All Rights Reserved.
// SPDX-License-Identifier: Apache-2.0

// Package reference holds the read-only name lists that entity masking
// matches review text against.
package reference

import (
	"strings"

	"reviewlens/internal/textnorm"
)

// Index is an immutable list of normalized reference names together with the
// widest n-gram the matcher needs to try. It is safe for concurrent use.
type Index struct {
	names     []string
	maxWindow int
}

// NewActorIndex builds an index over an actor list that is already
// normalized and deduplicated. The window is the longest name's word count
// plus lenTolerance.
func NewActorIndex(names []string, lenTolerance int) *Index {
	copied := make([]string, len(names))
	copy(copied, names)

	widest := 0
	for _, n := range copied {
		widest = max(widest, wordCount(n))
	}
	return &Index{names: copied, maxWindow: windowWithTolerance(widest, lenTolerance)}
}

// NewTitleIndex builds a single-entry index for one movie title. The title is
// normalized here. A title that normalizes to nothing yields a zero window,
// so nothing is ever matched against it.
func NewTitleIndex(title string, lenTolerance int) *Index {
	normalized := textnorm.Normalize(title)
	return &Index{
		names:     []string{normalized},
		maxWindow: windowWithTolerance(wordCount(normalized), lenTolerance),
	}
}

// Names returns the reference names. Callers must not modify the slice.
func (ix *Index) Names() []string {
	return ix.names
}

// MaxWindow is the largest n-gram width worth searching.
func (ix *Index) MaxWindow() int {
	return ix.maxWindow
}

// Len returns the number of reference names.
func (ix *Index) Len() int {
	return len(ix.names)
}

func wordCount(s string) int {
	return len(strings.Fields(s))
}

func windowWithTolerance(words, tolerance int) int {
	if words == 0 {
		return 0
	}
	return max(words+tolerance, 1)
}

// Copyright Amazon.com, Inc. or its affiliates. All Rights Reserved.
// SPDX-License-Identifier: Apache-2.0

package redactors

import (
	"strings"

	"reviewlens/internal/fuzzy"
	"reviewlens/internal/reference"
	"reviewlens/internal/textnorm"
)

// Matcher masks fuzzy occurrences of reference names in a token sequence.
// A Matcher holds no mutable state and may be shared between goroutines.
type Matcher struct {
	Scorer      fuzzy.Scorer
	Threshold   float64
	Placeholder string

	// IsStopword decides which boundary tokens of a match are kept verbatim.
	// Defaults to textnorm.IsStopword.
	IsStopword func(string) bool
}

// MatchAndMask scans tokens left to right. At each position it tries the
// widest window first and accepts the first one whose score reaches the
// threshold. Stopwords at either end of an accepted window are emitted as-is
// and the rest of the window collapses into a single placeholder; a window
// made only of stopwords emits just the stopwords. The cursor always moves
// past the whole window.
func (m Matcher) MatchAndMask(tokens []string, ix *reference.Index) string {
	if len(tokens) == 0 {
		return ""
	}

	out := make([]string, 0, len(tokens))
	for i := 0; i < len(tokens); {
		n := m.longestMatch(tokens[i:], ix)
		if n == 0 {
			out = append(out, tokens[i])
			i++
			continue
		}
		out = m.mask(out, tokens[i:i+n])
		i += n
	}
	return strings.Join(out, " ")
}

// longestMatch returns the width of the widest accepted window at the start
// of rest, or 0.
func (m Matcher) longestMatch(rest []string, ix *reference.Index) int {
	if ix == nil || ix.Len() == 0 {
		return 0
	}
	for n := min(ix.MaxWindow(), len(rest)); n >= 1; n-- {
		phrase := strings.Join(rest[:n], " ")
		if m.score(phrase, ix.Names()) >= m.Threshold {
			return n
		}
	}
	return 0
}

func (m Matcher) score(phrase string, names []string) float64 {
	if len(names) == 1 {
		return m.Scorer.Score(phrase, names[0])
	}
	best := fuzzy.ExtractOne(phrase, names, m.Scorer, m.Threshold)
	if best.Index < 0 {
		return 0
	}
	return best.Score
}

func (m Matcher) mask(out, span []string) []string {
	isStop := m.IsStopword
	if isStop == nil {
		isStop = textnorm.IsStopword
	}

	start, end := 0, len(span)
	for start < end && isStop(span[start]) {
		start++
	}
	for end > start && isStop(span[end-1]) {
		end--
	}

	out = append(out, span[:start]...)
	if start < end {
		out = append(out, m.Placeholder)
	}
	return append(out, span[end:]...)
}

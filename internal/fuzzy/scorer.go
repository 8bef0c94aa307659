// Copyright Amazon.com, Inc. or its affiliates. All Rights Reserved.
// SPDX-License-Identifier: Apache-2.0

// Package fuzzy scores string similarity on a 0-100 scale.
package fuzzy

import (
	"fmt"
	"sort"
	"strings"

	"github.com/agnivade/levenshtein"
	"github.com/antzucaro/matchr"
)

// Scorer compares two strings and returns a similarity in [0, 100].
type Scorer struct {
	// Name is the configuration key of the scorer.
	Name string

	// Score computes the similarity.
	Score func(a, b string) float64

	// UpperBound, when set, returns the best score any pair of strings with
	// the given rune lengths could reach. ExtractOne uses it to skip choices
	// that cannot clear the cutoff.
	UpperBound func(lenA, lenB int) float64
}

// Scorer names accepted by ParseScorer.
const (
	ScorerRatio        = "ratio"
	ScorerPartialRatio = "partial_ratio"
	ScorerLevenshtein  = "levenshtein"
	ScorerJaroWinkler  = "jaro_winkler"
)

var scorers = map[string]Scorer{
	ScorerRatio: {
		Name:       ScorerRatio,
		Score:      Ratio,
		UpperBound: ratioUpperBound,
	},
	ScorerPartialRatio: {
		Name:  ScorerPartialRatio,
		Score: PartialRatio,
	},
	ScorerLevenshtein: {
		Name:       ScorerLevenshtein,
		Score:      LevenshteinRatio,
		UpperBound: levenshteinUpperBound,
	},
	ScorerJaroWinkler: {
		Name:  ScorerJaroWinkler,
		Score: JaroWinkler,
	},
}

// ParseScorer returns the scorer registered under name.
func ParseScorer(name string) (Scorer, error) {
	s, ok := scorers[strings.ToLower(strings.TrimSpace(name))]
	if !ok {
		return Scorer{}, fmt.Errorf("unsupported scorer %q (available: %s)", name, strings.Join(ScorerNames(), ", "))
	}
	return s, nil
}

// MustScorer is ParseScorer for names known at compile time.
func MustScorer(name string) Scorer {
	s, err := ParseScorer(name)
	if err != nil {
		panic(err)
	}
	return s
}

// ScorerNames lists the registered scorer names in sorted order.
func ScorerNames() []string {
	names := make([]string, 0, len(scorers))
	for name := range scorers {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Ratio is the normalized Indel similarity of a and b:
// 100 * 2*LCS(a, b) / (len(a) + len(b)), measured in runes.
func Ratio(a, b string) float64 {
	return indelRatio([]rune(a), []rune(b))
}

// PartialRatio aligns the shorter string against every window of the longer
// one, including windows that hang off either edge, and returns the best
// Ratio. A perfect substring scores 100.
func PartialRatio(a, b string) float64 {
	short, long := []rune(a), []rune(b)
	if len(short) > len(long) {
		short, long = long, short
	}
	if len(short) == 0 {
		if len(long) == 0 {
			return 100
		}
		return 0
	}

	best := bestWindow(short, long)
	if best < 100 && len(short) == len(long) {
		best = max(best, bestWindow(long, short))
	}
	return best
}

// bestWindow slides needle across hay. Edge windows shorter than the needle
// cover partial overlaps at the start and end of hay.
func bestWindow(needle, hay []rune) float64 {
	n, m := len(needle), len(hay)
	best := 0.0

	score := func(window []rune) bool {
		if r := indelRatio(needle, window); r > best {
			best = r
		}
		return best >= 100
	}

	for i := 1; i < n; i++ {
		if score(hay[:i]) {
			return best
		}
	}
	for i := 0; i+n <= m; i++ {
		if score(hay[i : i+n]) {
			return best
		}
	}
	for i := m - n + 1; i < m; i++ {
		if score(hay[i:]) {
			return best
		}
	}
	return best
}

// LevenshteinRatio is 100 * (1 - distance/maxLen) using uniform edit costs.
func LevenshteinRatio(a, b string) float64 {
	la, lb := len([]rune(a)), len([]rune(b))
	longest := max(la, lb)
	if longest == 0 {
		return 100
	}
	d := levenshtein.ComputeDistance(a, b)
	return 100 * (1 - float64(d)/float64(longest))
}

// JaroWinkler scales the Jaro-Winkler similarity to 0-100.
func JaroWinkler(a, b string) float64 {
	if a == b {
		return 100
	}
	return 100 * matchr.JaroWinkler(a, b, false)
}

func indelRatio(a, b []rune) float64 {
	total := len(a) + len(b)
	if total == 0 {
		return 100
	}
	return 200 * float64(lcsLength(a, b)) / float64(total)
}

// lcsLength returns the length of the longest common subsequence using a
// single rolling row.
func lcsLength(a, b []rune) int {
	if len(a) == 0 || len(b) == 0 {
		return 0
	}
	if len(b) > len(a) {
		a, b = b, a
	}
	row := make([]int, len(b)+1)
	for i := 1; i <= len(a); i++ {
		diag := 0
		for j := 1; j <= len(b); j++ {
			up := row[j]
			if a[i-1] == b[j-1] {
				row[j] = diag + 1
			} else if row[j-1] > row[j] {
				row[j] = row[j-1]
			}
			diag = up
		}
	}
	return row[len(b)]
}

func ratioUpperBound(lenA, lenB int) float64 {
	total := lenA + lenB
	if total == 0 {
		return 100
	}
	return 200 * float64(min(lenA, lenB)) / float64(total)
}

func levenshteinUpperBound(lenA, lenB int) float64 {
	longest := max(lenA, lenB)
	if longest == 0 {
		return 100
	}
	return 100 * float64(min(lenA, lenB)) / float64(longest)
}

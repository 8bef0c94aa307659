// Copyright Amazon.com, Inc. or its affiliates. All Rights Reserved.
// SPDX-License-Identifier: Apache-2.0

package fuzzy

import "unicode/utf8"

// Match is the best-scoring choice returned by ExtractOne.
type Match struct {
	Choice string
	Score  float64
	Index  int
}

// ExtractOne scores query against every choice and returns the best one.
// Ties keep the earliest choice. Choices whose UpperBound falls below cutoff
// are skipped without scoring; pass 0 to score everything. Index is -1 when
// choices is empty.
func ExtractOne(query string, choices []string, scorer Scorer, cutoff float64) Match {
	best := Match{Index: -1}
	queryLen := utf8.RuneCountInString(query)

	for i, choice := range choices {
		if scorer.UpperBound != nil && cutoff > 0 {
			if scorer.UpperBound(queryLen, utf8.RuneCountInString(choice)) < cutoff {
				continue
			}
		}
		score := scorer.Score(query, choice)
		if best.Index < 0 || score > best.Score {
			best = Match{Choice: choice, Score: score, Index: i}
			if score >= 100 {
				break
			}
		}
	}
	return best
}

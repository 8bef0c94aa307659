// Copyright Amazon.com, Inc. or its affiliates. All Rights Reserved.
// SPDX-License-Identifier: Apache-2.0

package redactors

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"reviewlens/internal/fuzzy"
	"reviewlens/internal/reference"
	"reviewlens/internal/textnorm"
)

var testActors = []string{"tom hanks", "robert de niro", "meryl streep"}

func actorMatcher() Matcher {
	return Matcher{
		Scorer:      fuzzy.MustScorer(fuzzy.ScorerRatio),
		Threshold:   DefaultThreshold,
		Placeholder: ActorPlaceholder,
	}
}

func titleMatcher() Matcher {
	return Matcher{
		Scorer:      fuzzy.MustScorer(fuzzy.ScorerPartialRatio),
		Threshold:   DefaultThreshold,
		Placeholder: MoviePlaceholder,
	}
}

func TestMatchAndMaskLongestMatchWins(t *testing.T) {
	ix := reference.NewActorIndex(testActors, 0)
	tokens := []string{"robert", "de", "niro", "was", "great"}

	got := actorMatcher().MatchAndMask(tokens, ix)
	assert.Equal(t, "[actor] was great", got)
}

func TestMatchAndMaskToleratesTypos(t *testing.T) {
	ix := reference.NewActorIndex(testActors, 0)
	tokens := textnorm.Tokenize("i love tom hankss and meryl streep")

	got := actorMatcher().MatchAndMask(tokens, ix)
	assert.Equal(t, "i love [actor] and [actor]", got)
}

func TestMatchAndMaskKeepsLeadingStopword(t *testing.T) {
	tokens := []string{"the", "dark", "knight"}

	for _, tolerance := range []int{0, 1} {
		ix := reference.NewTitleIndex("Dark Knight", tolerance)
		assert.Equal(t, "the [movie]", titleMatcher().MatchAndMask(tokens, ix), "tolerance %d", tolerance)
	}

	full := reference.NewTitleIndex("The Dark Knight", 0)
	assert.Equal(t, "the [movie]", titleMatcher().MatchAndMask(tokens, full))
}

func TestMatchAndMaskKeepsTrailingStopword(t *testing.T) {
	stop := map[string]bool{"of": true, "the": true}
	m := titleMatcher()
	m.IsStopword = func(s string) bool { return stop[s] }

	ix := reference.NewTitleIndex("heat of", 0)
	got := m.MatchAndMask([]string{"heat", "of", "the", "night"}, ix)
	assert.Equal(t, "[movie] of the night", got)
}

// A window made only of stopwords emits the stopwords without a placeholder,
// and the cursor still jumps past the whole window: "it heat" is never tried
// as a window, so "heat" is left alone.
func TestMatchAndMaskStopwordOnlySpan(t *testing.T) {
	stop := map[string]bool{"the": true, "it": true}
	m := titleMatcher()
	m.IsStopword = func(s string) bool { return stop[s] }

	ix := reference.NewTitleIndex("It", 1)
	got := m.MatchAndMask([]string{"the", "it", "heat"}, ix)
	assert.Equal(t, "the it heat", got)
	assert.NotContains(t, got, MoviePlaceholder)
}

func TestMatchAndMaskNoMatchPassThrough(t *testing.T) {
	ix := reference.NewTitleIndex("Inception", 0)
	normalized := textnorm.Normalize("Great cinematography and pacing")

	got := titleMatcher().MatchAndMask(textnorm.Tokenize(normalized), ix)
	assert.Equal(t, normalized, got)
}

func TestMatchAndMaskEmpty(t *testing.T) {
	ix := reference.NewActorIndex(testActors, 0)
	assert.Equal(t, "", actorMatcher().MatchAndMask(nil, ix))
	assert.Equal(t, "", actorMatcher().MatchAndMask([]string{}, ix))
}

func TestMatchAndMaskEmptyTitleNeverMatches(t *testing.T) {
	ix := reference.NewTitleIndex("", 3)
	tokens := []string{"a", "fine", "film"}
	assert.Equal(t, "a fine film", titleMatcher().MatchAndMask(tokens, ix))
}

func TestMatchAndMaskPlaceholderTokensSurvive(t *testing.T) {
	ix := reference.NewActorIndex(testActors, 0)
	tokens := textnorm.Tokenize(textnorm.Normalize("[movie] stars Tom Hanks"))

	got := actorMatcher().MatchAndMask(tokens, ix)
	assert.Equal(t, "[movie] stars [actor]", got)
}

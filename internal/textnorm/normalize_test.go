// Copyright Amazon.com, Inc. or its affiliates. All Rights Reserved.
// SPDX-License-Identifier: Apache-2.0

package textnorm

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNormalize(t *testing.T) {
	cases := []struct {
		name  string
		input string
		want  string
	}{
		{"placeholder survives", "The [movie] was great!", "the [movie] was great"},
		{"digit separator", "Made 10,000 dollars.", "made 10000 dollars"},
		{"punctuation dropped", "Wow... it's \"fine\" - really?", "wow its fine  really"},
		{"accents folded", "Penélope Cruz & Zoë", "penelope cruz  zoe"},
		{"empty", "", ""},
		{"whitespace kept", "a\tb\nc", "a\tb\nc"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, Normalize(tc.input))
		})
	}
}

func TestNormalizeIdempotent(t *testing.T) {
	inputs := []string{
		"The [movie] was great!",
		"Robert De Niro, 10,000 times: BRILLIANT",
		"Amélie (2001) — a café story",
		"İstanbul ŞEHİR",
		"[actor][movie]]][[",
		"",
		"   ",
		"日本語のレビュー、最高！",
	}
	for _, in := range inputs {
		once := Normalize(in)
		assert.Equal(t, once, Normalize(once), "input %q", in)
	}
}

func TestTokenize(t *testing.T) {
	assert.Equal(t, []string{"the", "[movie]", "was", "great"}, Tokenize("the  [movie]\twas great "))
	assert.Empty(t, Tokenize(""))
	assert.Empty(t, Tokenize("   "))
}

func TestIsStopword(t *testing.T) {
	for _, w := range []string{"the", "of", "and", "was", "didn", "ll"} {
		assert.True(t, IsStopword(w), w)
	}
	for _, w := range []string{"dark", "knight", "niro", "[movie]"} {
		assert.False(t, IsStopword(w), w)
	}
}

// Copyright Amazon.com, Inc. or its affiliates. All Rights Reserved.
// SPDX-License-Identifier: Apache-2.0

// Package textnorm canonicalizes review text before fuzzy matching.
package textnorm

import (
	"strings"
	"unicode"

	"golang.org/x/text/unicode/norm"
)

// Normalize lowercases text and removes every rune that is not a letter, a
// digit, whitespace, or one of the placeholder brackets '[' and ']'.
//
// The text is decomposed (NFD) before filtering so accented letters keep their
// base letter while the combining mark is dropped. Digit group separators such
// as the comma in "10,000" are punctuation and disappear with the rest, which
// collapses the number to "10000".
func Normalize(text string) string {
	if text == "" {
		return ""
	}

	decomposed := norm.NFD.String(strings.ToLower(text))

	var b strings.Builder
	b.Grow(len(decomposed))
	for _, r := range decomposed {
		if keepRune(r) {
			b.WriteRune(r)
		}
	}
	return b.String()
}

func keepRune(r rune) bool {
	switch {
	case r == '[' || r == ']':
		return true
	case unicode.IsLetter(r), unicode.IsDigit(r), unicode.IsSpace(r):
		return true
	default:
		return false
	}
}

// Tokenize splits normalized text into word tokens. Placeholders such as
// "[movie]" stay single tokens.
func Tokenize(text string) []string {
	return strings.Fields(text)
}

// NormalizeAll normalizes every entry of texts into a new slice.
func NormalizeAll(texts []string) []string {
	out := make([]string, len(texts))
	for i, t := range texts {
		out[i] = Normalize(t)
	}
	return out
}

// Copyright Amazon.com, Inc. or its affiliates. All Rights Reserved.
// SPDX-License-Identifier: Apache-2.0

package textnorm

import "github.com/kljensen/snowball/english"

// contractionFragments are the stopword entries that remain after apostrophes
// are stripped from English contractions ("didn't" -> "didn", "you'll" -> "ll").
// The snowball list does not carry them.
var contractionFragments = map[string]struct{}{
	"ain": {}, "aren": {}, "couldn": {}, "didn": {}, "doesn": {}, "hadn": {},
	"hasn": {}, "haven": {}, "isn": {}, "ma": {}, "mightn": {}, "mustn": {},
	"needn": {}, "shan": {}, "shouldn": {}, "wasn": {}, "weren": {}, "won": {},
	"wouldn": {}, "d": {}, "ll": {}, "m": {}, "o": {}, "re": {}, "ve": {}, "y": {},
}

// IsStopword reports whether a normalized token is an English stopword.
// Matched spans keep stopwords at their edges unredacted.
func IsStopword(token string) bool {
	if english.IsStopWord(token) {
		return true
	}
	_, ok := contractionFragments[token]
	return ok
}

// Copyright Amazon.com, Inc. or its affiliates. All Rights Reserved.
// SPDX-License-Identifier: Apache-2.0

// Package language tags review text with the language it is written in.
package language

import (
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/pemistahl/lingua-go"
)

const (
	// Unknown is the tag for text that is too short or ambiguous to detect.
	Unknown = "unknown"
	// English is the ISO 639-1 code of the target language.
	English = "en"

	// MinTextLength is the shortest trimmed text, in characters, that is
	// worth detecting.
	MinTextLength = 5
)

// Detector returns a lowercase ISO 639-1 code for text, or Unknown.
type Detector interface {
	Detect(text string) string
}

// DetectorFunc adapts a function to Detector.
type DetectorFunc func(text string) string

func (f DetectorFunc) Detect(text string) string { return f(text) }

// NeedsTranslation reports whether text tagged code should be sent to the
// translator.
func NeedsTranslation(code string) bool {
	return code != English && code != Unknown && code != ""
}

// LinguaDetector detects languages with lingua's statistical models. It is
// safe for concurrent use.
type LinguaDetector struct {
	detector lingua.LanguageDetector
}

// NewLinguaDetector builds a detector restricted to the given ISO 639-1
// codes. No codes means every language lingua knows. A restricted set must
// name at least two languages.
func NewLinguaDetector(codes ...string) (*LinguaDetector, error) {
	unconfigured := lingua.NewLanguageDetectorBuilder()
	var builder lingua.LanguageDetectorBuilder
	if len(codes) == 0 {
		builder = unconfigured.FromAllLanguages()
	} else {
		langs, err := resolve(codes)
		if err != nil {
			return nil, err
		}
		if len(langs) < 2 {
			return nil, fmt.Errorf("language detection needs at least two languages, got %d", len(langs))
		}
		builder = unconfigured.FromLanguages(langs...)
	}
	return &LinguaDetector{detector: builder.Build()}, nil
}

// Detect implements Detector. Texts shorter than MinTextLength characters
// and texts lingua cannot decide on are Unknown.
func (d *LinguaDetector) Detect(text string) string {
	text = strings.TrimSpace(text)
	if utf8.RuneCountInString(text) < MinTextLength {
		return Unknown
	}
	lang, ok := d.detector.DetectLanguageOf(text)
	if !ok {
		return Unknown
	}
	return strings.ToLower(lang.IsoCode639_1().String())
}

// resolve maps ISO 639-1 codes onto lingua languages. Duplicates collapse.
func resolve(codes []string) ([]lingua.Language, error) {
	byCode := make(map[string]lingua.Language)
	for _, l := range lingua.AllLanguages() {
		byCode[strings.ToLower(l.IsoCode639_1().String())] = l
	}

	seen := make(map[lingua.Language]bool)
	var out []lingua.Language
	for _, code := range codes {
		l, ok := byCode[strings.ToLower(strings.TrimSpace(code))]
		if !ok {
			return nil, fmt.Errorf("unsupported language code %q", code)
		}
		if !seen[l] {
			seen[l] = true
			out = append(out, l)
		}
	}
	return out, nil
}

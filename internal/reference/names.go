// Copyright Amazon.com, Inc. or its affiliates. All Rights Reserved.
// SPDX-License-Identifier: Apache-2.0

package reference

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strings"

	"reviewlens/internal/textnorm"
)

// lastNameParticles are short middle words that belong to the last name
// ("de niro", "van damme").
var lastNameParticles = map[string]bool{
	"de": true, "van": true, "von": true, "da": true, "di": true,
}

// SplitActorName splits a full name into a first name and a last name.
// Middle names and initials are dropped, except for particles such as "de" or
// "van" which stay with the last name. A trailing "jr" pairs the first name
// with itself.
func SplitActorName(fullName string) (first, last string) {
	parts := strings.Fields(fullName)
	switch len(parts) {
	case 0:
		return "", ""
	case 1:
		return parts[0], ""
	case 2:
		return parts[0], parts[1]
	}

	if parts[len(parts)-1] == "jr" {
		return parts[0], parts[0]
	}

	var lastParts []string
	for _, p := range parts[1 : len(parts)-1] {
		if lastNameParticles[strings.ToLower(p)] {
			lastParts = append(lastParts, p)
		}
	}
	lastParts = append(lastParts, parts[len(parts)-1])
	return parts[0], strings.Join(lastParts, " ")
}

// BuildActorList normalizes every name from the given sources and returns them
// in first-seen order with duplicates and blank entries removed.
func BuildActorList(sources ...[]string) []string {
	seen := make(map[string]struct{})
	var out []string
	for _, src := range sources {
		for _, name := range src {
			n := strings.TrimSpace(textnorm.Normalize(name))
			if n == "" {
				continue
			}
			if _, dup := seen[n]; dup {
				continue
			}
			seen[n] = struct{}{}
			out = append(out, n)
		}
	}
	return out
}

// ReadNames reads one name per record. Plain text (one name per line) and
// single-column CSV exports with a leading index column are both accepted;
// the name is always the last field. A header row whose first field is empty
// is skipped.
func ReadNames(r io.Reader) ([]string, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1
	reader.LazyQuotes = true
	reader.TrimLeadingSpace = true

	var names []string
	for line := 0; ; line++ {
		record, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("read names: %w", err)
		}
		if len(record) == 0 {
			continue
		}
		if line == 0 && len(record) > 1 && strings.TrimSpace(record[0]) == "" {
			continue
		}
		names = append(names, record[len(record)-1])
	}
	return names, nil
}

// LoadActorList reads names from r and returns the normalized, deduplicated
// reference list.
func LoadActorList(r io.Reader) ([]string, error) {
	names, err := ReadNames(r)
	if err != nil {
		return nil, err
	}
	return BuildActorList(names), nil
}

// WriteActorList writes one name per line.
func WriteActorList(w io.Writer, names []string) error {
	for _, n := range names {
		if _, err := io.WriteString(w, n+"\n"); err != nil {
			return fmt.Errorf("write actor list: %w", err)
		}
	}
	return nil
}

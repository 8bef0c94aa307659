// Copyright Amazon.com, Inc. or its affiliates. All Rights Reserved.
// SPDX-License-Identifier: Apache-2.0

package csv

import (
	"encoding/csv"
	"fmt"
	"strings"

	"reviewlens/internal/formatters"
	"reviewlens/internal/formatters/shared"
)

// Formatter implements CSV output formatting
type Formatter struct{}

// NewFormatter creates a new CSV formatter
func NewFormatter() *Formatter {
	return &Formatter{}
}

func (f *Formatter) Name() string {
	return "csv"
}

func (f *Formatter) Description() string {
	return "Comma-separated values for spreadsheet import"
}

func (f *Formatter) FileExtension() string {
	return ".csv"
}

// Format writes a header row followed by one row per result. Vectors are
// written in full so the file can be loaded back.
func (f *Formatter) Format(report formatters.Report, options formatters.FormatterOptions) (string, error) {
	options.Verbose = true

	var sb strings.Builder
	w := csv.NewWriter(&sb)
	if err := w.Write(report.Columns); err != nil {
		return "", fmt.Errorf("formatting CSV: %w", err)
	}
	for _, row := range report.Rows {
		record := make([]string, len(report.Columns))
		for i := range record {
			if i < len(row) {
				record[i] = shared.FormatCell(row[i], options)
			}
		}
		if err := w.Write(record); err != nil {
			return "", fmt.Errorf("formatting CSV: %w", err)
		}
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return "", fmt.Errorf("formatting CSV: %w", err)
	}
	return sb.String(), nil
}

// Register the formatter during package initialization
func init() {
	formatters.Register(NewFormatter())
}

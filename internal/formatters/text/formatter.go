// Copyright Amazon.com, Inc. or its affiliates. All Rights Reserved.
// SPDX-License-Identifier: Apache-2.0

package text

import (
	"fmt"
	"strings"

	"reviewlens/internal/formatters"
	"reviewlens/internal/formatters/shared"

	"github.com/fatih/color"
	"github.com/jedib0t/go-pretty/v6/table"
	pretty "github.com/jedib0t/go-pretty/v6/text"
)

// Formatter implements text-based output formatting
type Formatter struct {
	colors map[string]*color.Color
}

// NewFormatter creates a new text formatter
func NewFormatter() *Formatter {
	return &Formatter{
		colors: map[string]*color.Color{
			"title": color.New(color.FgCyan, color.Bold),
			"note":  color.New(color.FgYellow),
			"empty": color.New(color.FgWhite, color.Bold),
		},
	}
}

func (f *Formatter) Name() string {
	return "text"
}

func (f *Formatter) Description() string {
	return "Human-readable text output with colors and tables"
}

func (f *Formatter) FileExtension() string {
	return ".txt"
}

func (f *Formatter) Format(report formatters.Report, options formatters.FormatterOptions) (string, error) {
	// Disable colors if requested
	if options.NoColor {
		color.NoColor = true
	}

	var builder strings.Builder
	if report.Title != "" {
		builder.WriteString(f.colors["title"].Sprint(report.Title))
		builder.WriteString("\n")
	}

	if len(report.Rows) == 0 {
		builder.WriteString(f.colors["empty"].Sprint("No results."))
		builder.WriteString("\n")
	} else {
		builder.WriteString(f.renderTable(report, options))
		builder.WriteString("\n")
	}

	for _, note := range report.Notes {
		builder.WriteString(f.colors["note"].Sprint(note))
		builder.WriteString("\n")
	}
	return builder.String(), nil
}

func (f *Formatter) renderTable(report formatters.Report, options formatters.FormatterOptions) string {
	columns := len(report.Columns)

	tw := table.NewWriter()
	tw.SetStyle(table.StyleRounded)
	tw.Style().Format.Header = pretty.FormatDefault
	tw.Style().Format.Footer = pretty.FormatDefault

	header := make(table.Row, columns)
	for i, c := range report.Columns {
		header[i] = c
	}
	tw.AppendHeader(header)

	numeric := make([]bool, columns)
	for _, row := range report.Rows {
		r := make(table.Row, columns)
		for i := 0; i < columns; i++ {
			if i >= len(row) {
				r[i] = ""
				continue
			}
			r[i] = shared.FormatCell(row[i], options)
			if isNumber(row[i]) {
				numeric[i] = true
			}
		}
		tw.AppendRow(r)
	}

	configs := make([]table.ColumnConfig, 0, columns)
	for i := 0; i < columns; i++ {
		align := pretty.AlignLeft
		if numeric[i] {
			align = pretty.AlignRight
		}
		configs = append(configs, table.ColumnConfig{
			Number:      i + 1,
			Align:       align,
			AlignHeader: pretty.AlignLeft,
		})
	}
	tw.SetColumnConfigs(configs)
	tw.AppendFooter(table.Row{fmt.Sprintf("%d rows", len(report.Rows))})

	return tw.Render()
}

func isNumber(v interface{}) bool {
	switch v.(type) {
	case int, int64, float64, float32:
		return true
	default:
		return false
	}
}

// Register the formatter during package initialization
func init() {
	formatters.Register(NewFormatter())
}

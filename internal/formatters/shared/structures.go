// Copyright Amazon.com, Inc. or its affiliates. All Rights Reserved.
// SPDX-License-Identifier: Apache-2.0

package shared

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"

	"reviewlens/internal/formatters"
)

const (
	defaultPrecision = 4
	vectorPreview    = 3
)

// Document is the structure shared by the JSON and YAML formatters.
type Document struct {
	Title string       `json:"title" yaml:"title"`
	Rows  []OrderedRow `json:"rows" yaml:"rows"`
	Notes []string     `json:"notes,omitempty" yaml:"notes,omitempty"`
}

// OrderedRow marshals as an object whose keys follow the report's column
// order.
type OrderedRow struct {
	Keys   []string
	Values []interface{}
}

// MarshalJSON keeps column order.
func (r OrderedRow) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, key := range r.Keys {
		if i > 0 {
			buf.WriteByte(',')
		}
		k, err := json.Marshal(key)
		if err != nil {
			return nil, err
		}
		v, err := json.Marshal(r.Values[i])
		if err != nil {
			return nil, fmt.Errorf("column %q: %w", key, err)
		}
		buf.Write(k)
		buf.WriteByte(':')
		buf.Write(v)
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

// MarshalYAML keeps column order.
func (r OrderedRow) MarshalYAML() (interface{}, error) {
	node := &yaml.Node{Kind: yaml.MappingNode}
	for i, key := range r.Keys {
		var value yaml.Node
		if err := value.Encode(r.Values[i]); err != nil {
			return nil, fmt.Errorf("column %q: %w", key, err)
		}
		node.Content = append(node.Content,
			&yaml.Node{Kind: yaml.ScalarNode, Tag: "!!str", Value: key},
			&value)
	}
	return node, nil
}

// ConvertReport builds the JSON/YAML document for a report.
func ConvertReport(report formatters.Report) Document {
	doc := Document{Title: report.Title, Rows: make([]OrderedRow, 0, len(report.Rows)), Notes: report.Notes}
	for _, row := range report.Rows {
		values := make([]interface{}, len(report.Columns))
		copy(values, row)
		doc.Rows = append(doc.Rows, OrderedRow{Keys: report.Columns, Values: values})
	}
	return doc
}

// FormatCell renders one value for the text and CSV formatters.
func FormatCell(v interface{}, options formatters.FormatterOptions) string {
	precision := options.Precision
	if precision <= 0 {
		precision = defaultPrecision
	}

	switch x := v.(type) {
	case nil:
		return ""
	case string:
		return x
	case float64:
		return strconv.FormatFloat(x, 'f', precision, 64)
	case float32:
		return strconv.FormatFloat(float64(x), 'f', precision, 32)
	case []float64:
		return formatVector(x, precision, options.Verbose)
	default:
		return fmt.Sprint(x)
	}
}

func formatVector(v []float64, precision int, full bool) string {
	n := len(v)
	if !full && n > vectorPreview {
		n = vectorPreview
	}
	parts := make([]string, 0, n+1)
	for _, f := range v[:n] {
		parts = append(parts, strconv.FormatFloat(f, 'f', precision, 64))
	}
	if n < len(v) {
		parts = append(parts, fmt.Sprintf("... %d dims", len(v)))
	}
	return "[" + strings.Join(parts, " ") + "]"
}

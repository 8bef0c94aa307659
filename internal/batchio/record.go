// Copyright Amazon.com, Inc. or its affiliates. All Rights Reserved.
// SPDX-License-Identifier: Apache-2.0

package batchio

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"
)

// Record is one JSON object from a batch file. Key order and the raw encoding
// of every value are kept, so columns this tool does not know about round
// trip unchanged.
type Record struct {
	keys   []string
	fields map[string]json.RawMessage
}

// NewRecord returns an empty record.
func NewRecord() Record {
	return Record{fields: make(map[string]json.RawMessage)}
}

// Keys returns the column names in file order.
func (r Record) Keys() []string {
	return r.keys
}

// Has reports whether the column is present, even if null.
func (r Record) Has(key string) bool {
	_, ok := r.fields[key]
	return ok
}

// Raw returns the undecoded value of a column.
func (r Record) Raw(key string) (json.RawMessage, bool) {
	v, ok := r.fields[key]
	return v, ok
}

// Text returns a string or number column as text. Missing and null
// columns give "".
func (r Record) Text(key string) (string, error) {
	raw, ok := r.fields[key]
	if !ok {
		return "", nil
	}
	trimmed := bytes.TrimSpace(raw)
	switch {
	case len(trimmed) == 0 || bytes.Equal(trimmed, []byte("null")):
		return "", nil
	case trimmed[0] == '"':
		var s string
		if err := json.Unmarshal(trimmed, &s); err != nil {
			return "", fmt.Errorf("column %q: %w", key, err)
		}
		return s, nil
	default:
		dec := json.NewDecoder(bytes.NewReader(trimmed))
		dec.UseNumber()
		var v interface{}
		if err := dec.Decode(&v); err != nil {
			return "", fmt.Errorf("column %q: %w", key, err)
		}
		if n, ok := v.(json.Number); ok {
			return n.String(), nil
		}
		return "", fmt.Errorf("column %q: expected string or number, got %s", key, trimmed)
	}
}

// Decode unmarshals a column into v.
func (r Record) Decode(key string, v interface{}) error {
	raw, ok := r.fields[key]
	if !ok {
		return fmt.Errorf("column %q not present", key)
	}
	return json.Unmarshal(raw, v)
}

// Set stores v under key. New keys are appended after the existing ones.
func (r *Record) Set(key string, v interface{}) error {
	raw, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("encode column %q: %w", key, err)
	}
	if r.fields == nil {
		r.fields = make(map[string]json.RawMessage)
	}
	if _, exists := r.fields[key]; !exists {
		r.keys = append(r.keys, key)
	}
	r.fields[key] = raw
	return nil
}

// UnmarshalJSON decodes an object while recording key order.
func (r *Record) UnmarshalJSON(data []byte) error {
	dec := json.NewDecoder(bytes.NewReader(data))
	tok, err := dec.Token()
	if err != nil {
		return err
	}
	if delim, ok := tok.(json.Delim); !ok || delim != '{' {
		return fmt.Errorf("record must be a JSON object, got %v", tok)
	}

	*r = NewRecord()
	for dec.More() {
		tok, err := dec.Token()
		if err != nil {
			return err
		}
		key, ok := tok.(string)
		if !ok {
			return fmt.Errorf("unexpected record key %v", tok)
		}
		var value json.RawMessage
		if err := dec.Decode(&value); err != nil {
			return fmt.Errorf("column %q: %w", key, err)
		}
		if _, dup := r.fields[key]; !dup {
			r.keys = append(r.keys, key)
		}
		r.fields[key] = value
	}
	_, err = dec.Token()
	return err
}

// MarshalJSON encodes the record with its keys in order.
func (r Record) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, key := range r.keys {
		if i > 0 {
			buf.WriteByte(',')
		}
		k, err := json.Marshal(key)
		if err != nil {
			return nil, err
		}
		buf.Write(k)
		buf.WriteByte(':')
		buf.Write(r.fields[key])
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

// GoString helps test failure output.
func (r Record) GoString() string {
	parts := make([]string, 0, len(r.keys))
	for _, k := range r.keys {
		parts = append(parts, fmt.Sprintf("%s=%s", k, r.fields[k]))
	}
	return "Record{" + strings.Join(parts, ", ") + "}"
}

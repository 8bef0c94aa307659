// Copyright Amazon.com, Inc. or its affiliates. All Rights Reserved.
// SPDX-License-Identifier: Apache-2.0

package aggregate

import (
	"fmt"
	"strconv"

	"reviewlens/internal/batchio"
	"reviewlens/internal/formatters"
)

// Column names of analysis and aggregate rows.
const (
	ColumnSentiment      = "sentiment"
	ColumnSentimentScore = "sentimentScore"
	ColumnEmbeddings     = "embeddings"
	ColumnTopic          = "topic"
	ColumnTopicLabel     = "topic_label"
	ColumnAspect         = "aspect"
	ColumnAspectString   = "aspectString"

	ColumnAvgValence = "AvgValence"
	ColumnTopicOut   = "Topic"
	ColumnTopicLbl   = "TopicLabel"
	ColumnTopicCount = "TopicCount"
)

func requireColumns(path string, records []batchio.Record, columns ...string) error {
	if len(records) == 0 {
		return nil
	}
	for _, col := range columns {
		found := false
		for _, r := range records {
			if r.Has(col) {
				found = true
				break
			}
		}
		if !found {
			return &batchio.MissingColumnError{Path: path, Expected: []string{col}}
		}
	}
	return nil
}

// SentimentRows reads sentiment batch records.
func SentimentRows(path string, records []batchio.Record) ([]SentimentRow, error) {
	if err := requireColumns(path, records, batchio.ColumnMovieID, ColumnSentiment, ColumnSentimentScore); err != nil {
		return nil, err
	}
	rows := make([]SentimentRow, 0, len(records))
	for i, rec := range records {
		var row SentimentRow
		var err error
		if row.MovieID, err = rec.Text(batchio.ColumnMovieID); err != nil {
			return nil, fmt.Errorf("%s row %d: %w", path, i, err)
		}
		if row.Label, err = rec.Text(ColumnSentiment); err != nil {
			return nil, fmt.Errorf("%s row %d: %w", path, i, err)
		}
		if err := rec.Decode(ColumnSentimentScore, &row.Score); err != nil {
			return nil, fmt.Errorf("%s row %d: %s: %w", path, i, ColumnSentimentScore, err)
		}
		rows = append(rows, row)
	}
	return rows, nil
}

// EmbeddingRows reads embedding batch records.
func EmbeddingRows(path string, records []batchio.Record) ([]EmbeddingRow, error) {
	if err := requireColumns(path, records, batchio.ColumnMovieID, ColumnEmbeddings); err != nil {
		return nil, err
	}
	rows := make([]EmbeddingRow, 0, len(records))
	for i, rec := range records {
		var row EmbeddingRow
		var err error
		if row.MovieID, err = rec.Text(batchio.ColumnMovieID); err != nil {
			return nil, fmt.Errorf("%s row %d: %w", path, i, err)
		}
		if err := rec.Decode(ColumnEmbeddings, &row.Vector); err != nil {
			return nil, fmt.Errorf("%s row %d: %s: %w", path, i, ColumnEmbeddings, err)
		}
		rows = append(rows, row)
	}
	return rows, nil
}

// TopicRows reads topic assignment records.
func TopicRows(path string, records []batchio.Record) ([]TopicRow, error) {
	if err := requireColumns(path, records, ColumnTopic); err != nil {
		return nil, err
	}
	rows := make([]TopicRow, 0, len(records))
	for i, rec := range records {
		var row TopicRow
		raw, err := rec.Text(ColumnTopic)
		if err != nil {
			return nil, fmt.Errorf("%s row %d: %w", path, i, err)
		}
		if row.Topic, err = strconv.Atoi(raw); err != nil {
			return nil, fmt.Errorf("%s row %d: topic %q: %w", path, i, raw, err)
		}
		if row.Label, err = rec.Text(ColumnTopicLabel); err != nil {
			return nil, fmt.Errorf("%s row %d: %w", path, i, err)
		}
		rows = append(rows, row)
	}
	return rows, nil
}

// AddAspectStrings sets aspectString on every record from its aspect list.
// Records without a list get an empty string.
func AddAspectStrings(records []batchio.Record) error {
	for i := range records {
		var aspects []string
		if records[i].Has(ColumnAspect) {
			// A non-list value is treated as no aspects.
			_ = records[i].Decode(ColumnAspect, &aspects)
		}
		if err := records[i].Set(ColumnAspectString, StringifyAspects(aspects)); err != nil {
			return err
		}
	}
	return nil
}

// ValenceRecords is the on-disk form of Valences output.
func ValenceRecords(vs []Valence) ([]batchio.Record, error) {
	out := make([]batchio.Record, 0, len(vs))
	for _, v := range vs {
		rec := batchio.NewRecord()
		if err := rec.Set(batchio.ColumnMovieID, v.MovieID); err != nil {
			return nil, err
		}
		if err := rec.Set(ColumnAvgValence, v.AvgValence); err != nil {
			return nil, err
		}
		out = append(out, rec)
	}
	return out, nil
}

// EmbeddingRecords is the on-disk form of Embeddings output.
func EmbeddingRecords(es []Embedding) ([]batchio.Record, error) {
	out := make([]batchio.Record, 0, len(es))
	for _, e := range es {
		rec := batchio.NewRecord()
		if err := rec.Set(batchio.ColumnMovieID, e.MovieID); err != nil {
			return nil, err
		}
		if err := rec.Set(ColumnEmbeddings, e.Vector); err != nil {
			return nil, err
		}
		out = append(out, rec)
	}
	return out, nil
}

// TopicRecords is the on-disk form of Topics output.
func TopicRecords(ts []TopicCount) ([]batchio.Record, error) {
	out := make([]batchio.Record, 0, len(ts))
	for _, t := range ts {
		rec := batchio.NewRecord()
		for _, kv := range []struct {
			k string
			v interface{}
		}{
			{ColumnTopicOut, t.Topic},
			{ColumnTopicLbl, t.Label},
			{ColumnTopicCount, t.Count},
		} {
			if err := rec.Set(kv.k, kv.v); err != nil {
				return nil, err
			}
		}
		out = append(out, rec)
	}
	return out, nil
}

// ValenceReport renders valences for the formatters.
func ValenceReport(title string, vs []Valence) formatters.Report {
	rep := formatters.Report{Title: title, Columns: []string{batchio.ColumnMovieID, ColumnAvgValence, "Reviews"}}
	total := 0
	for _, v := range vs {
		rep.Rows = append(rep.Rows, []interface{}{v.MovieID, v.AvgValence, v.Reviews})
		total += v.Reviews
	}
	rep.Notes = append(rep.Notes, fmt.Sprintf("Processed %d reviews across %d movies.", total, len(vs)))
	return rep
}

// EmbeddingReport renders mean embeddings for the formatters.
func EmbeddingReport(title string, es []Embedding) formatters.Report {
	rep := formatters.Report{Title: title, Columns: []string{batchio.ColumnMovieID, ColumnEmbeddings, "Reviews"}}
	total := 0
	for _, e := range es {
		rep.Rows = append(rep.Rows, []interface{}{e.MovieID, e.Vector, e.Reviews})
		total += e.Reviews
	}
	rep.Notes = append(rep.Notes, fmt.Sprintf("Processed %d reviews across %d movies.", total, len(es)))
	return rep
}

// TopicReport renders topic counts for the formatters.
func TopicReport(title string, ts []TopicCount) formatters.Report {
	rep := formatters.Report{Title: title, Columns: []string{ColumnTopicOut, ColumnTopicLbl, ColumnTopicCount}}
	for _, t := range ts {
		rep.Rows = append(rep.Rows, []interface{}{t.Topic, t.Label, t.Count})
	}
	return rep
}

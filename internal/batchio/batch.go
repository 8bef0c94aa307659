// Copyright Amazon.com, Inc. or its affiliates. All Rights Reserved.
// SPDX-License-Identifier: Apache-2.0

// Package batchio reads and writes the numbered JSON batch files that each
// pipeline stage consumes and produces.
package batchio

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"sort"
	"strconv"
	"strings"

	"reviewlens/internal/review"
)

var batchIndexPattern = regexp.MustCompile(`_(\d+)\.json$`)

// Batch is one numbered file in a stage directory.
type Batch struct {
	Index int
	Path  string
}

// BatchFileName builds names like rt_critic_reviews_preprocessed_3.json.
func BatchFileName(reviewType review.ReviewType, stage string, index int) string {
	return fmt.Sprintf("%s_%d.json", BatchPrefix(reviewType, stage), index)
}

// BatchPrefix is the file name up to the batch number.
func BatchPrefix(reviewType review.ReviewType, stage string) string {
	return fmt.Sprintf("rt_%s_reviews_%s", reviewType.Slug(), stage)
}

// ListBatches returns the files in dir named prefix_<n>.json, ordered by n.
// A missing directory yields no batches.
func ListBatches(dir, prefix string) ([]Batch, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, nil
		}
		return nil, fmt.Errorf("list batches in %s: %w", dir, err)
	}

	var batches []Batch
	for _, entry := range entries {
		name := entry.Name()
		if entry.IsDir() || !strings.HasPrefix(name, prefix+"_") {
			continue
		}
		m := batchIndexPattern.FindStringSubmatch(name)
		if m == nil || len(name) != len(prefix)+len(m[0]) {
			continue
		}
		n, err := strconv.Atoi(m[1])
		if err != nil {
			continue
		}
		batches = append(batches, Batch{Index: n, Path: filepath.Join(dir, name)})
	}

	sort.Slice(batches, func(i, j int) bool { return batches[i].Index < batches[j].Index })
	return batches, nil
}

// Exists reports whether path names a regular file.
func Exists(path string) bool {
	info, err := os.Stat(path)
	return err == nil && info.Mode().IsRegular()
}

// ReadRecords loads a batch file holding a JSON array of objects.
func ReadRecords(path string) ([]Record, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read batch %s: %w", path, err)
	}
	var records []Record
	if err := json.Unmarshal(data, &records); err != nil {
		return nil, fmt.Errorf("decode batch %s: %w", path, err)
	}
	return records, nil
}

// WriteRecords writes records as an indented JSON array. The file is written
// to a temporary name in the same directory and renamed into place, so a
// reader never sees a partial batch.
func WriteRecords(path string, records []Record) error {
	if records == nil {
		records = []Record{}
	}
	data, err := json.MarshalIndent(records, "", "  ")
	if err != nil {
		return fmt.Errorf("encode batch %s: %w", path, err)
	}

	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("create %s: %w", dir, err)
	}

	tmp, err := os.CreateTemp(dir, "."+filepath.Base(path)+".*.tmp")
	if err != nil {
		return fmt.Errorf("create temp file for %s: %w", path, err)
	}
	tmpName := tmp.Name()
	cleanup := func() { _ = os.Remove(tmpName) }

	if _, err := tmp.Write(append(data, '\n')); err != nil {
		_ = tmp.Close()
		cleanup()
		return fmt.Errorf("write %s: %w", path, err)
	}
	if err := tmp.Close(); err != nil {
		cleanup()
		return fmt.Errorf("write %s: %w", path, err)
	}
	if err := os.Chmod(tmpName, 0o644); err != nil {
		cleanup()
		return fmt.Errorf("write %s: %w", path, err)
	}
	if err := os.Rename(tmpName, path); err != nil {
		cleanup()
		return fmt.Errorf("write %s: %w", path, err)
	}
	return nil
}

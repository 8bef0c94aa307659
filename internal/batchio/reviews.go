// Copyright Amazon.com, Inc. or its affiliates. All Rights Reserved.
// SPDX-License-Identifier: Apache-2.0

package batchio

import (
	"fmt"
	"strconv"
	"strings"

	"reviewlens/internal/review"
)

// Column names used by the review batch files.
const (
	ColumnReviewID = "reviewId"
	ColumnMovieID  = "id"
	ColumnTitle    = "title"
	ColumnText     = "reviewText"
	ColumnCleaned  = "cleanedReviews"
)

// MissingColumnError reports a batch that lacks a required column.
type MissingColumnError struct {
	Path     string
	Expected []string
}

func (e *MissingColumnError) Error() string {
	return fmt.Sprintf("%s: no %s column", e.Path, strings.Join(e.Expected, " or "))
}

// TextColumn picks the column holding review text: cleanedReviews when any
// record has it, otherwise reviewText.
func TextColumn(path string, records []Record) (string, error) {
	if anyHas(records, ColumnCleaned) {
		return ColumnCleaned, nil
	}
	if anyHas(records, ColumnText) {
		return ColumnText, nil
	}
	return "", &MissingColumnError{Path: path, Expected: []string{ColumnCleaned, ColumnText}}
}

// ExtractReviews turns batch records into reviews. RowID is the record's
// position in the batch, which is what MergeColumn keys on.
func ExtractReviews(path string, records []Record) ([]review.Review, error) {
	if len(records) == 0 {
		return nil, nil
	}
	textCol, err := TextColumn(path, records)
	if err != nil {
		return nil, err
	}
	for _, col := range []string{ColumnMovieID, ColumnTitle} {
		if !anyHas(records, col) {
			return nil, &MissingColumnError{Path: path, Expected: []string{col}}
		}
	}

	reviews := make([]review.Review, 0, len(records))
	for i, rec := range records {
		var r review.Review
		r.RowID = strconv.Itoa(i)
		fields := []struct {
			col string
			dst *string
		}{
			{ColumnReviewID, &r.ReviewID},
			{ColumnMovieID, &r.MovieID},
			{ColumnTitle, &r.Title},
			{textCol, &r.Text},
		}
		for _, f := range fields {
			v, err := rec.Text(f.col)
			if err != nil {
				return nil, fmt.Errorf("%s row %d: %w", path, i, err)
			}
			*f.dst = v
		}
		reviews = append(reviews, r)
	}
	return reviews, nil
}

// MergeColumn sets column on every record from byRowID. Every row must have
// a value and every value must name a row.
func MergeColumn(records []Record, column string, byRowID map[string]string) error {
	if len(byRowID) != len(records) {
		return fmt.Errorf("merge %s: %d values for %d rows", column, len(byRowID), len(records))
	}
	for i := range records {
		v, ok := byRowID[strconv.Itoa(i)]
		if !ok {
			return fmt.Errorf("merge %s: no value for row %d", column, i)
		}
		if err := records[i].Set(column, v); err != nil {
			return err
		}
	}
	return nil
}

func anyHas(records []Record, column string) bool {
	for _, r := range records {
		if r.Has(column) {
			return true
		}
	}
	return false
}

// Copyright Amazon.com, Inc. or its affiliates. All Rights Reserved.
// SPDX-License-Identifier: Apache-2.0

package parallel

import (
	"errors"
	"fmt"
	"strings"
)

// ErrIncompleteMerge means the merged output does not cover the input rows
// exactly once.
var ErrIncompleteMerge = errors.New("redaction output does not match input rows")

// ErrDuplicateRow means two input reviews share a RowID.
var ErrDuplicateRow = errors.New("duplicate row identity in batch")

// PartitionError is the failure of one partition. It names the movies in the
// partition so the unit can be re-run on its own.
type PartitionError struct {
	Partition int
	MovieIDs  []string
	Reviews   int
	Cause     error
}

func (e *PartitionError) Error() string {
	return fmt.Sprintf("partition %d (%d reviews, movies %s): %v",
		e.Partition, e.Reviews, strings.Join(e.MovieIDs, ","), e.Cause)
}

func (e *PartitionError) Unwrap() error {
	return e.Cause
}

// DispatchError collects every failed partition of one dispatch.
type DispatchError struct {
	Failures []*PartitionError
}

func (e *DispatchError) Error() string {
	msgs := make([]string, 0, len(e.Failures))
	for _, f := range e.Failures {
		msgs = append(msgs, f.Error())
	}
	return fmt.Sprintf("%d partition(s) failed: %s", len(e.Failures), strings.Join(msgs, "; "))
}

// Unwrap exposes the partition failures to errors.Is and errors.As.
func (e *DispatchError) Unwrap() []error {
	errs := make([]error, 0, len(e.Failures))
	for _, f := range e.Failures {
		errs = append(errs, f)
	}
	return errs
}

// MovieIDs lists the movies of every failed partition.
func (e *DispatchError) MovieIDs() []string {
	var ids []string
	for _, f := range e.Failures {
		ids = append(ids, f.MovieIDs...)
	}
	return ids
}

// Copyright Amazon.com, Inc. or its affiliates. All Rights Reserved.
// SPDX-License-Identifier: Apache-2.0

package observability

import (
	"fmt"
	"io"
	"strings"
	"sync"
	"time"
)

// DebugObserver provides detailed step-by-step debugging
type DebugObserver struct {
	*StandardObserver
	mu     sync.Mutex
	indent int
	out    io.Writer
}

// NewDebugObserver creates a debug observer. Steps are printed to out and
// JSON operation records go to logs.
func NewDebugObserver(out, logs io.Writer) *DebugObserver {
	d := &DebugObserver{
		StandardObserver: NewStandardObserver(ObservabilityDebug, logs),
		out:              out,
	}
	d.StandardObserver.DebugObserver = d
	return d
}

// StartStep begins a processing step with indentation
func (d *DebugObserver) StartStep(component, step, target string) func(success bool, details string) {
	start := time.Now()

	d.mu.Lock()
	fmt.Fprintf(d.out, "%s> %s: %s (%s)\n", strings.Repeat("  ", d.indent), component, step, target)
	d.indent++
	d.mu.Unlock()

	return func(success bool, details string) {
		d.mu.Lock()
		defer d.mu.Unlock()
		d.indent--
		status := "done"
		if !success {
			status = "FAILED"
		}
		fmt.Fprintf(d.out, "%s< %s: %s %s (%dms) %s\n",
			strings.Repeat("  ", d.indent), component, step, status, time.Since(start).Milliseconds(), details)
	}
}

// LogDetail logs a detail within the current step
func (d *DebugObserver) LogDetail(component, detail string) {
	d.mu.Lock()
	defer d.mu.Unlock()
	fmt.Fprintf(d.out, "%s   - %s: %s\n", strings.Repeat("  ", d.indent), component, detail)
}

// LogMetric logs a metric value
func (d *DebugObserver) LogMetric(component, metric string, value interface{}) {
	d.mu.Lock()
	defer d.mu.Unlock()
	fmt.Fprintf(d.out, "%s   # %s: %s = %v\n", strings.Repeat("  ", d.indent), component, metric, value)
}

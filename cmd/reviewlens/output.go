// Copyright Amazon.com, Inc. or its affiliates. All Rights Reserved.
// SPDX-License-Identifier: Apache-2.0

package main

import (
	"fmt"
	"io"
	"path/filepath"
	"time"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"reviewlens/internal/formatters"
	_ "reviewlens/internal/formatters/csv"
	_ "reviewlens/internal/formatters/json"
	_ "reviewlens/internal/formatters/text"
	_ "reviewlens/internal/formatters/yaml"
	"reviewlens/internal/pipeline"
)

var (
	successColor = color.New(color.FgGreen, color.Bold)
	warnColor    = color.New(color.FgYellow)
)

// Status lines go to stderr so stdout stays parseable for json, yaml and csv.
func successf(w io.Writer, format string, args ...interface{}) {
	_, _ = successColor.Fprintf(w, format+"\n", args...)
}

func warnf(w io.Writer, format string, args ...interface{}) {
	_, _ = warnColor.Fprintf(w, "Warning: "+format+"\n", args...)
}

// render writes report to stdout in the configured format.
func (c *commandContext) render(cmd *cobra.Command, report formatters.Report) error {
	out, err := formatters.Export(c.configValue().Defaults.Format, report, formatters.FormatterOptions{
		NoColor: color.NoColor,
		Verbose: c.flags.verbose,
	})
	if err != nil {
		return err
	}
	_, err = fmt.Fprint(cmd.OutOrStdout(), out)
	return err
}

// runReportTable lists the batches of a stage run.
func runReportTable(r *pipeline.RunReport) formatters.Report {
	report := formatters.Report{
		Title:   fmt.Sprintf("%s %s", r.ReviewType, r.Stage),
		Columns: []string{"Batch", "Input", "Output", "Reviews", "Partitions", "Status", "Duration"},
	}
	for _, b := range r.Batches {
		status := "done"
		if b.Skipped {
			status = "skipped"
		}
		partitions := 0
		if b.Dispatch != nil {
			partitions = b.Dispatch.Partitions
		}
		report.Rows = append(report.Rows, []interface{}{
			b.Index,
			filepath.Base(b.Input),
			filepath.Base(b.Output),
			b.Reviews,
			partitions,
			status,
			b.Duration.Round(time.Millisecond).String(),
		})
	}
	report.Notes = append(report.Notes,
		fmt.Sprintf("Processed %d of %d batches (%d reviews) in %s.",
			r.Processed(), len(r.Batches), r.Reviews(), r.Duration.Round(time.Millisecond)))
	return report
}

// finishRun renders whatever a stage completed, then reports err.
func (c *commandContext) finishRun(cmd *cobra.Command, r *pipeline.RunReport, err error) error {
	if r != nil && len(r.Batches) > 0 {
		if renderErr := c.render(cmd, runReportTable(r)); renderErr != nil && err == nil {
			err = renderErr
		}
	}
	if err != nil {
		return err
	}
	successf(cmd.ErrOrStderr(), "%s finished: %d reviews written to %s", r.Stage, r.Reviews(), r.OutputDir)
	return nil
}

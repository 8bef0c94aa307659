// Copyright Amazon.com, Inc. or its affiliates. All Rights Reserved.
// SPDX-License-Identifier: Apache-2.0

package main

import (
	"fmt"
	"path/filepath"
	"time"

	"github.com/spf13/cobra"

	"reviewlens/internal/formatters"
	"reviewlens/internal/ledger"
)

func newHistoryCommand(ctx *commandContext) *cobra.Command {
	var filter ledger.Filter

	cmd := &cobra.Command{
		Use:   "history",
		Short: "List processed batches from the run history",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := ctx.configValue()
			l, err := ledger.Open(cmd.Context(), cfg.LedgerPath())
			if err != nil {
				return err
			}
			defer l.Close()

			entries, err := l.History(cmd.Context(), filter)
			if err != nil {
				return err
			}
			return ctx.render(cmd, historyReport(entries))
		},
	}

	cmd.Flags().StringVar(&filter.RunID, "run", "", "Only entries from this run id")
	cmd.Flags().StringVar(&filter.Stage, "stage", "", "Only entries for this stage (preprocessed, sentiment, ...)")
	cmd.Flags().StringVarP(&filter.ReviewType, "review-type", "t", "", "Only entries for this review type")
	cmd.Flags().IntVarP(&filter.Limit, "limit", "n", 50, "Maximum entries to show, 0 for all")
	return cmd
}

func historyReport(entries []ledger.Entry) formatters.Report {
	report := formatters.Report{
		Title:   "Run history",
		Columns: []string{"Finished", "Run", "Stage", "Type", "Batch", "Input", "Reviews", "Status", "Duration", "Error"},
	}
	for _, e := range entries {
		run := e.RunID
		if len(run) > 8 {
			run = run[:8]
		}
		report.Rows = append(report.Rows, []interface{}{
			e.FinishedAt.Local().Format(time.DateTime),
			run,
			e.Stage,
			e.ReviewType,
			e.BatchIndex,
			filepath.Base(e.InputPath),
			e.ReviewCount,
			string(e.Status),
			e.Duration.Round(time.Millisecond).String(),
			e.Error,
		})
	}
	report.Notes = append(report.Notes, fmt.Sprintf("%d entries.", len(entries)))
	return report
}

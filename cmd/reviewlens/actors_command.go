// Copyright Amazon.com, Inc. or its affiliates. All Rights Reserved.
// SPDX-License-Identifier: Apache-2.0

package main

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"reviewlens/internal/formatters"
	"reviewlens/internal/reference"
)

func newActorsCommand(ctx *commandContext) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "actors",
		Short: "Build and inspect the actor reference list",
	}
	cmd.AddCommand(newActorsBuildCommand())
	cmd.AddCommand(newActorsSplitCommand(ctx))
	return cmd
}

func newActorsBuildCommand() *cobra.Command {
	var output string

	cmd := &cobra.Command{
		Use:   "build SOURCE...",
		Short: "Merge name lists into one normalized, deduplicated actor list",
		Long: `Reads each SOURCE (one name per line, or a CSV export whose last column is the
name) and writes the merged list in source order. Names already seen in an
earlier source are dropped, so list the preferred source first.`,
		Args:        cobra.MinimumNArgs(1),
		Annotations: map[string]string{"skipConfigLoad": "true"},
		RunE: func(cmd *cobra.Command, args []string) error {
			sources := make([][]string, 0, len(args))
			for _, path := range args {
				names, err := readNamesFile(path)
				if err != nil {
					return err
				}
				sources = append(sources, names)
			}
			merged := reference.BuildActorList(sources...)

			if output == "" || output == "-" {
				return reference.WriteActorList(cmd.OutOrStdout(), merged)
			}
			if err := writeActorFile(output, merged); err != nil {
				return err
			}
			successf(cmd.ErrOrStderr(), "Wrote %d names to %s", len(merged), output)
			return nil
		},
	}
	cmd.Flags().StringVarP(&output, "output", "o", "", "Destination file (default stdout)")
	return cmd
}

func newActorsSplitCommand(ctx *commandContext) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "split",
		Short: "Show how each actor name splits into first and last name",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			names, err := reference.LoadActorFile(ctx.configValue().Redaction.ActorList)
			if err != nil {
				return err
			}
			report := formatters.Report{Title: "Actor names", Columns: []string{"Name", "First", "Last"}}
			for _, n := range names {
				first, last := reference.SplitActorName(n)
				report.Rows = append(report.Rows, []interface{}{n, first, last})
			}
			report.Notes = append(report.Notes, fmt.Sprintf("%d names.", len(names)))
			return ctx.render(cmd, report)
		},
	}
	return cmd
}

func readNamesFile(path string) ([]string, error) {
	f, err := os.Open(filepath.Clean(path))
	if err != nil {
		return nil, fmt.Errorf("open name list: %w", err)
	}
	defer f.Close()

	names, err := reference.ReadNames(f)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return names, nil
}

func writeActorFile(path string, names []string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("create output directory: %w", err)
	}
	f, err := os.Create(filepath.Clean(path))
	if err != nil {
		return fmt.Errorf("create actor list: %w", err)
	}
	if err := reference.WriteActorList(f, names); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}

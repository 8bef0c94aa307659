// Copyright Amazon.com, Inc. or its affiliates. All Rights Reserved.
// SPDX-License-Identifier: Apache-2.0

package main

import (
	"github.com/spf13/cobra"

	"reviewlens/internal/version"
)

func newRootCommand() *cobra.Command {
	flags := &globalFlags{}
	ctx := newCommandContext(flags)

	rootCmd := &cobra.Command{
		Use:           "reviewlens",
		Short:         "Entity masking and analysis for movie review datasets",
		Version:       version.Short(),
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if !shouldSkipConfig(cmd) {
				if _, err := ctx.ensureConfig(cmd); err != nil {
					return err
				}
			}
			ctx.setupColor(cmd)
			return nil
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			return cmd.Help()
		},
	}

	pf := rootCmd.PersistentFlags()
	pf.StringVarP(&flags.config, "config", "c", "", "Configuration file path (YAML or TOML)")
	pf.StringVar(&flags.profile, "profile", "", "Named profile from the configuration file")
	pf.StringVar(&flags.dataRoot, "data-root", "", "Dataset root holding 'Rotten Tomatoes Reviews' and 'NLP Data'")
	pf.StringVarP(&flags.format, "format", "f", "", "Report format: text, json, yaml or csv")
	pf.IntVarP(&flags.workers, "workers", "w", 0, "Parallel masking workers")
	pf.BoolVar(&flags.debug, "debug", false, "Print step-by-step debug output and debug-level logs")
	pf.BoolVar(&flags.noColor, "no-color", false, "Disable colored output")
	pf.BoolVarP(&flags.verbose, "verbose", "v", false, "Print vectors in full in reports")

	rootCmd.AddCommand(newTranslateCommand(ctx))
	rootCmd.AddCommand(newPreprocessCommand(ctx))
	rootCmd.AddCommand(newAnalyzeCommand(ctx))
	rootCmd.AddCommand(newEmbedCommand(ctx))
	rootCmd.AddCommand(newInferTopicsCommand(ctx))
	rootCmd.AddCommand(newAggregateCommand(ctx))
	rootCmd.AddCommand(newActorsCommand(ctx))
	rootCmd.AddCommand(newHistoryCommand(ctx))
	rootCmd.AddCommand(newConfigCommand(ctx))
	rootCmd.AddCommand(newVersionCommand())

	return rootCmd
}

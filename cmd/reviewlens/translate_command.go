// Copyright Amazon.com, Inc. or its affiliates. All Rights Reserved.
// SPDX-License-Identifier: Apache-2.0

package main

import (
	"github.com/spf13/cobra"

	"reviewlens/internal/analysis"
	"reviewlens/internal/language"
	"reviewlens/internal/pipeline"
)

func newTranslateCommand(ctx *commandContext) *cobra.Command {
	flags := &modelFlags{}
	var languages []string

	cmd := &cobra.Command{
		Use:   "translate",
		Short: "Detect review languages and translate non-English reviews to English",
		Long: `Reads every batch in '{Type} Reviews pre Translation', tags each review with
its language and sends the non-English ones to the model server's translation
task. Results go to '{Type} Reviews Translated' with the text each review came
with kept in originalReview.

Detection considers every language unless --languages (or translation.languages
in the config) narrows it to a list of ISO 639-1 codes.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := ctx.configValue()
			flags.resolve(cfg)
			if len(languages) == 0 {
				languages = cfg.Translate.Languages
			}

			detector, err := language.NewLinguaDetector(languages...)
			if err != nil {
				return err
			}
			clientCfg, err := httpConfig(cfg, flags.endpoint)
			if err != nil {
				return err
			}

			env, closeEnv := ctx.env(cmd)
			defer closeEnv()

			translator, err := analysis.NewHTTPClassifier(analysis.TaskTranslation, clientCfg, analysis.WithLogger(env.Observer.Logger()))
			if err != nil {
				return err
			}
			report, err := pipeline.Translate(cmd.Context(), env, pipeline.TranslateOptions{
				ReviewType:   flags.reviewType,
				ChunkSize:    flags.chunkSize,
				Workers:      cfg.Defaults.Workers,
				MaxChars:     cfg.Translate.MaxChars,
				SkipExisting: flags.skipExisting(cfg),
				Detector:     detector,
				Translator:   translator,
			})
			return ctx.finishRun(cmd, report, err)
		},
	}

	flags.register(cmd)
	cmd.Flags().StringSliceVar(&languages, "languages", nil, "ISO 639-1 codes to detect between, e.g. en,de,fr (default: all)")
	return cmd
}

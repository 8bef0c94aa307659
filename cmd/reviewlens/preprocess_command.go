// Copyright Amazon.com, Inc. or its affiliates. All Rights Reserved.
// SPDX-License-Identifier: Apache-2.0

package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"reviewlens/internal/config"
	"reviewlens/internal/pipeline"
	"reviewlens/internal/redactors"
	"reviewlens/internal/reference"
	"reviewlens/internal/review"
)

func newPreprocessCommand(ctx *commandContext) *cobra.Command {
	var reviewType string
	var replace string

	cmd := &cobra.Command{
		Use:   "preprocess",
		Short: "Mask movie titles or actor names in review batches",
		Long: `Reads every batch in the clean review folder (or the preprocessed folder when
an earlier pass already wrote there) and writes the masked text to the
cleanedReviews column of the preprocessed batches.

Run once with --replace movies and again with --replace actors to mask both.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := ctx.configValue()
			if reviewType == "" {
				reviewType = cfg.Defaults.ReviewType
			}
			replaceType, err := review.ParseReplaceType(replace)
			if err != nil {
				return err
			}
			opts, err := redactionOptions(cfg, replaceType)
			if err != nil {
				return err
			}

			env, closeEnv := ctx.env(cmd)
			defer closeEnv()

			report, err := pipeline.Preprocess(cmd.Context(), env, pipeline.PreprocessOptions{
				ReviewType:  reviewType,
				ReplaceType: replace,
				Workers:     cfg.Defaults.Workers,
				Redaction:   opts,
			})
			return ctx.finishRun(cmd, report, err)
		},
	}

	cmd.Flags().StringVarP(&reviewType, "review-type", "t", "", "Audience or Critic (default from config)")
	cmd.Flags().StringVarP(&replace, "replace", "r", "", "Entities to mask: movies or actors")
	_ = cmd.MarkFlagRequired("replace")
	return cmd
}

// redactionOptions maps the redaction config section onto redactor options.
// The actor list is only loaded for actor masking.
func redactionOptions(cfg *config.Config, replace review.ReplaceType) (redactors.Options, error) {
	opts := redactors.DefaultOptions()
	opts.Threshold = cfg.Redaction.Threshold
	opts.TitleScorer = cfg.Redaction.TitleScorer
	opts.ActorScorer = cfg.Redaction.ActorScorer
	opts.MoviePlaceholder = cfg.Redaction.MoviePlaceholder
	opts.ActorPlaceholder = cfg.Redaction.ActorPlaceholder
	opts.LenTolerance = cfg.Redaction.LenTolerance

	if replace == review.ReplaceActors {
		names, err := reference.LoadActorFile(cfg.Redaction.ActorList)
		if err != nil {
			return opts, fmt.Errorf("load actor list: %w", err)
		}
		opts.Actors = names
	}
	return opts, nil
}

// Copyright Amazon.com, Inc. or its affiliates. All Rights Reserved.
// SPDX-License-Identifier: Apache-2.0

package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"reviewlens/internal/aggregate"
	"reviewlens/internal/pipeline"
)

func newAggregateCommand(ctx *commandContext) *cobra.Command {
	var reviewType string

	cmd := &cobra.Command{
		Use:   "aggregate",
		Short: "Summarize analysis output per movie or per topic",
	}
	cmd.PersistentFlags().StringVarP(&reviewType, "review-type", "t", "", "Audience or Critic (default from config)")

	resolve := func() string {
		if reviewType == "" {
			return ctx.configValue().Defaults.ReviewType
		}
		return reviewType
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "valence",
		Short: "Average signed sentiment per movie",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			env, closeEnv := ctx.env(cmd)
			defer closeEnv()

			valences, res, err := pipeline.AggregateValence(cmd.Context(), env, resolve())
			if err != nil {
				return err
			}
			if err := ctx.render(cmd, aggregate.ValenceReport("Average valence", valences)); err != nil {
				return err
			}
			successf(cmd.ErrOrStderr(), "Wrote %s", res.Output)
			return nil
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "embeddings",
		Short: "Average review embeddings per movie",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			env, closeEnv := ctx.env(cmd)
			defer closeEnv()

			means, res, err := pipeline.AggregateEmbeddings(cmd.Context(), env, resolve())
			if err != nil {
				return err
			}
			if err := ctx.render(cmd, aggregate.EmbeddingReport("Mean embeddings", means)); err != nil {
				return err
			}
			successf(cmd.ErrOrStderr(), "Wrote %s", res.Output)
			return nil
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "topics",
		Short: "Count reviews per topic",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			env, closeEnv := ctx.env(cmd)
			defer closeEnv()

			counts, res, err := pipeline.AggregateTopics(cmd.Context(), env, resolve())
			if err != nil {
				return err
			}
			report := aggregate.TopicReport("Topics", counts)
			report.Notes = append(report.Notes, fmt.Sprintf("Processed %d reviews from %d batches.", res.Rows, res.Batches))
			if err := ctx.render(cmd, report); err != nil {
				return err
			}
			successf(cmd.ErrOrStderr(), "Wrote %s", res.Output)
			return nil
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "aspects",
		Short: "Add an aspectString column to the aspect analysis batches",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			env, closeEnv := ctx.env(cmd)
			defer closeEnv()

			res, err := pipeline.StringifyAspects(cmd.Context(), env, resolve())
			if err != nil {
				return err
			}
			successf(cmd.ErrOrStderr(), "Updated %d rows in %d batches under %s", res.Rows, res.Batches, res.Output)
			return nil
		},
	})

	return cmd
}

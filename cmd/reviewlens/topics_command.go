// Copyright Amazon.com, Inc. or its affiliates. All Rights Reserved.
// SPDX-License-Identifier: Apache-2.0

package main

import (
	"github.com/spf13/cobra"

	"reviewlens/internal/analysis"
	"reviewlens/internal/pipeline"
)

func newInferTopicsCommand(ctx *commandContext) *cobra.Command {
	flags := &modelFlags{}

	cmd := &cobra.Command{
		Use:   "infer-topics",
		Short: "Assign a topic to every extracted aspect",
		Long: `Reads the aspect batches written by 'analyze --analysis aspects', splits them
into one row per aspect and asks the model server's topics task for each
aspect's topic, label and probability. Results go to 'NLP Data/{Type} Topic
Data', where 'aggregate topics' picks them up.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := ctx.configValue()
			flags.resolve(cfg)

			clientCfg, err := httpConfig(cfg, flags.endpoint)
			if err != nil {
				return err
			}

			env, closeEnv := ctx.env(cmd)
			defer closeEnv()

			model, err := analysis.NewHTTPClassifier(analysis.TaskTopics, clientCfg, analysis.WithLogger(env.Observer.Logger()))
			if err != nil {
				return err
			}
			report, err := pipeline.InferTopics(cmd.Context(), env, pipeline.InferTopicsOptions{
				ReviewType:   flags.reviewType,
				ChunkSize:    flags.chunkSize,
				SkipExisting: flags.skipExisting(cfg),
				Classifier:   model,
			})
			return ctx.finishRun(cmd, report, err)
		},
	}

	flags.register(cmd)
	return cmd
}

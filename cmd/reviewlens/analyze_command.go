// Copyright Amazon.com, Inc. or its affiliates. All Rights Reserved.
// SPDX-License-Identifier: Apache-2.0

package main

import (
	"strings"

	"github.com/spf13/cobra"

	"reviewlens/internal/analysis"
	"reviewlens/internal/config"
	"reviewlens/internal/pipeline"
	"reviewlens/internal/resilience"
	"reviewlens/internal/review"
)

// modelFlags are shared by the commands that call the model server.
type modelFlags struct {
	reviewType string
	endpoint   string
	chunkSize  int
	force      bool
}

func (f *modelFlags) register(cmd *cobra.Command) {
	cmd.Flags().StringVarP(&f.reviewType, "review-type", "t", "", "Audience or Critic (default from config)")
	cmd.Flags().StringVar(&f.endpoint, "endpoint", "", "Model server URL (default from config)")
	cmd.Flags().IntVar(&f.chunkSize, "chunk-size", 0, "Reviews sent per request (default from config)")
	cmd.Flags().BoolVar(&f.force, "force", false, "Recompute batches whose output already exists")
}

// resolve fills unset flags from the configuration.
func (f *modelFlags) resolve(cfg *config.Config) {
	if f.reviewType == "" {
		f.reviewType = cfg.Defaults.ReviewType
	}
	if f.endpoint == "" {
		f.endpoint = cfg.Analysis.Endpoint
	}
	if f.chunkSize <= 0 {
		f.chunkSize = cfg.Analysis.ChunkSize
	}
}

func (f *modelFlags) skipExisting(cfg *config.Config) bool {
	return cfg.Analysis.SkipExisting && !f.force
}

// httpConfig builds the model client settings from the analysis section.
func httpConfig(cfg *config.Config, endpoint string) (analysis.HTTPConfig, error) {
	timeout, err := cfg.Analysis.TimeoutDuration()
	if err != nil {
		return analysis.HTTPConfig{}, err
	}
	retry := resilience.ModelServerRetryConfig()
	retry.MaxRetries = cfg.Analysis.MaxRetries
	return analysis.HTTPConfig{
		Endpoint:  endpoint,
		Timeout:   timeout,
		Retry:     retry,
		Breaker:   resilience.DefaultCircuitBreakerConfig("model-server"),
		BatchSize: cfg.Analysis.BatchSize,
	}, nil
}

func newAnalyzeCommand(ctx *commandContext) *cobra.Command {
	flags := &modelFlags{}
	var kinds string

	cmd := &cobra.Command{
		Use:   "analyze",
		Short: "Run sentiment, emotion, argument or aspect analysis over preprocessed reviews",
		Long: `Sends the cleaned review text of every preprocessed batch to the model server
and writes one output batch per input under 'NLP Data/{Type} {Analysis} Data'.

--analysis takes one analysis, a comma separated list, or "all".`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := ctx.configValue()
			flags.resolve(cfg)

			selected, err := parseAnalyses(kinds)
			if err != nil {
				return err
			}
			clientCfg, err := httpConfig(cfg, flags.endpoint)
			if err != nil {
				return err
			}

			env, closeEnv := ctx.env(cmd)
			defer closeEnv()

			for _, kind := range selected {
				clf, err := analysis.NewHTTPClassifier(string(kind), clientCfg, analysis.WithLogger(env.Observer.Logger()))
				if err != nil {
					return err
				}
				report, err := pipeline.Analyze(cmd.Context(), env, pipeline.AnalyzeOptions{
					ReviewType:   flags.reviewType,
					AnalysisType: string(kind),
					ChunkSize:    flags.chunkSize,
					SkipExisting: flags.skipExisting(cfg),
					Classifier:   clf,
				})
				if err := ctx.finishRun(cmd, report, err); err != nil {
					return err
				}
			}
			return nil
		},
	}

	flags.register(cmd)
	cmd.Flags().StringVarP(&kinds, "analysis", "a", "", "sentiment, emotion, argument, aspects or all")
	_ = cmd.MarkFlagRequired("analysis")
	return cmd
}

// parseAnalyses accepts "all" or a comma separated list of analysis types.
func parseAnalyses(s string) ([]review.AnalysisType, error) {
	if strings.EqualFold(strings.TrimSpace(s), "all") {
		return review.AnalysisTypes(), nil
	}
	var out []review.AnalysisType
	for _, part := range strings.Split(s, ",") {
		kind, err := review.ParseAnalysisType(part)
		if err != nil {
			return nil, err
		}
		out = append(out, kind)
	}
	return out, nil
}

func newEmbedCommand(ctx *commandContext) *cobra.Command {
	flags := &modelFlags{}

	cmd := &cobra.Command{
		Use:   "embed",
		Short: "Compute review embeddings for the topic model",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := ctx.configValue()
			flags.resolve(cfg)

			clientCfg, err := httpConfig(cfg, flags.endpoint)
			if err != nil {
				return err
			}

			env, closeEnv := ctx.env(cmd)
			defer closeEnv()

			embedder, err := analysis.NewHTTPClassifier(analysis.TaskEmbeddings, clientCfg, analysis.WithLogger(env.Observer.Logger()))
			if err != nil {
				return err
			}
			report, err := pipeline.Embed(cmd.Context(), env, pipeline.EmbedOptions{
				ReviewType:   flags.reviewType,
				ChunkSize:    flags.chunkSize,
				SkipExisting: flags.skipExisting(cfg),
				Embedder:     embedder,
			})
			return ctx.finishRun(cmd, report, err)
		},
	}

	flags.register(cmd)
	return cmd
}

// Copyright Amazon.com, Inc. or its affiliates. All Rights Reserved.
// SPDX-License-Identifier: Apache-2.0

package main

import (
	"fmt"
	"io"
	"os"
	"strings"
	"sync"

	"github.com/fatih/color"
	"github.com/spf13/cobra"
	"golang.org/x/term"

	"reviewlens/internal/config"
	"reviewlens/internal/ledger"
	"reviewlens/internal/observability"
	"reviewlens/internal/paths"
	"reviewlens/internal/pipeline"
)

// globalFlags are the persistent flags shared by every command.
type globalFlags struct {
	config   string
	profile  string
	dataRoot string
	format   string
	workers  int
	debug    bool
	noColor  bool
	verbose  bool
}

type commandContext struct {
	flags *globalFlags

	configOnce sync.Once
	config     *config.Config
	configErr  error
}

func newCommandContext(flags *globalFlags) *commandContext {
	return &commandContext{flags: flags}
}

// ensureConfig loads the configuration once, applies the selected profile
// and then the command-line overrides.
func (c *commandContext) ensureConfig(cmd *cobra.Command) (*config.Config, error) {
	c.configOnce.Do(func() {
		path := strings.TrimSpace(c.flags.config)
		cfg, err := config.LoadConfigOrDefault(path)
		if err != nil {
			if path != "" {
				c.configErr = err
				return
			}
			fmt.Fprintf(cmd.ErrOrStderr(), "Warning: %v; using defaults\n", err)
		}

		if c.flags.profile != "" {
			if err := cfg.ApplyProfile(c.flags.profile); err != nil {
				c.configErr = err
				return
			}
		}
		c.applyFlags(cfg)
		if err := config.ValidateConfig(cfg); err != nil {
			c.configErr = err
			return
		}
		c.config = cfg
	})
	return c.config, c.configErr
}

func (c *commandContext) applyFlags(cfg *config.Config) {
	if c.flags.dataRoot != "" {
		cfg.Paths.DataRoot = paths.NormalizePath(c.flags.dataRoot)
	}
	if c.flags.format != "" {
		cfg.Defaults.Format = strings.ToLower(c.flags.format)
	}
	if c.flags.workers > 0 {
		cfg.Defaults.Workers = c.flags.workers
	}
	cfg.Defaults.Debug = cfg.Defaults.Debug || c.flags.debug
	cfg.Defaults.NoColor = cfg.Defaults.NoColor || c.flags.noColor
}

func (c *commandContext) configValue() *config.Config {
	if c.config == nil {
		return config.Default()
	}
	return c.config
}

// env opens the observer and ledger for a pipeline run. The returned func
// closes them. A ledger that cannot be opened is reported and skipped.
func (c *commandContext) env(cmd *cobra.Command) (pipeline.Env, func()) {
	cfg := c.configValue()
	stderr := cmd.ErrOrStderr()

	var observer *observability.StandardObserver
	if cfg.Defaults.Debug {
		observer = observability.NewDebugObserver(stderr, stderr).StandardObserver
	} else {
		observer = observability.NewStandardObserver(observability.ObservabilityMetrics, stderr)
	}

	l, err := ledger.Open(cmd.Context(), cfg.LedgerPath())
	if err != nil {
		warnf(stderr, "run history disabled: %v", err)
		l = nil
	}

	env := pipeline.Env{
		Layout:   pipeline.NewLayout(cfg.Paths.DataRoot),
		Observer: observer,
		Ledger:   l,
		LockFile: cfg.Paths.LockFile,
	}
	return env, func() {
		if err := l.Close(); err != nil {
			warnf(stderr, "close run history: %v", err)
		}
		observer.Sync()
	}
}

// setupColor disables color unless stdout is a terminal and color was not
// turned off.
func (c *commandContext) setupColor(cmd *cobra.Command) {
	color.NoColor = c.configValue().Defaults.NoColor || !isTerminal(cmd.OutOrStdout())
}

func isTerminal(w io.Writer) bool {
	f, ok := w.(*os.File)
	return ok && term.IsTerminal(int(f.Fd()))
}

func shouldSkipConfig(cmd *cobra.Command) bool {
	for c := cmd; c != nil; c = c.Parent() {
		if c.Annotations != nil && c.Annotations["skipConfigLoad"] == "true" {
			return true
		}
	}
	return false
}

// Copyright Amazon.com, Inc. or its affiliates. All Rights Reserved.
// SPDX-License-Identifier: Apache-2.0

package config

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/pelletier/go-toml/v2"
	"gopkg.in/yaml.v3"

	"reviewlens/internal/fuzzy"
	"reviewlens/internal/paths"
	"reviewlens/internal/review"
	"reviewlens/internal/textnorm"
)

// Config represents the application configuration
type Config struct {
	Defaults  DefaultsConfig     `yaml:"defaults" toml:"defaults"`
	Redaction RedactionConfig    `yaml:"redaction" toml:"redaction"`
	Analysis  AnalysisConfig     `yaml:"analysis" toml:"analysis"`
	Translate TranslationConfig  `yaml:"translation" toml:"translation"`
	Paths     PathsConfig        `yaml:"paths" toml:"paths"`
	Profiles  map[string]Profile `yaml:"profiles" toml:"profiles"`
}

// DefaultsConfig holds run defaults that CLI flags override.
type DefaultsConfig struct {
	ReviewType string `yaml:"review_type" toml:"review_type"`
	Workers    int    `yaml:"workers" toml:"workers"`
	Format     string `yaml:"format" toml:"format"`
	Debug      bool   `yaml:"debug" toml:"debug"`
	NoColor    bool   `yaml:"no_color" toml:"no_color"`
}

// RedactionConfig tunes entity masking.
type RedactionConfig struct {
	Threshold        float64 `yaml:"threshold" toml:"threshold"`
	TitleScorer      string  `yaml:"title_scorer" toml:"title_scorer"`
	ActorScorer      string  `yaml:"actor_scorer" toml:"actor_scorer"`
	MoviePlaceholder string  `yaml:"movie_placeholder" toml:"movie_placeholder"`
	ActorPlaceholder string  `yaml:"actor_placeholder" toml:"actor_placeholder"`
	ActorList        string  `yaml:"actor_list" toml:"actor_list"` // empty means the built-in list
	LenTolerance     int     `yaml:"len_tolerance" toml:"len_tolerance"`
}

// AnalysisConfig configures the model-inference client.
type AnalysisConfig struct {
	ChunkSize    int    `yaml:"chunk_size" toml:"chunk_size"`
	BatchSize    int    `yaml:"batch_size" toml:"batch_size"`
	Endpoint     string `yaml:"endpoint" toml:"endpoint"`
	Timeout      string `yaml:"timeout" toml:"timeout"`
	MaxRetries   int    `yaml:"max_retries" toml:"max_retries"`
	SkipExisting bool   `yaml:"skip_existing" toml:"skip_existing"`
}

// TranslationConfig configures language detection and translation.
type TranslationConfig struct {
	Languages []string `yaml:"languages" toml:"languages"` // ISO 639-1 codes; empty means every language
	MaxChars  int      `yaml:"max_chars" toml:"max_chars"`
}

// TimeoutDuration parses Timeout.
func (a AnalysisConfig) TimeoutDuration() (time.Duration, error) {
	if strings.TrimSpace(a.Timeout) == "" {
		return 0, nil
	}
	d, err := time.ParseDuration(a.Timeout)
	if err != nil {
		return 0, fmt.Errorf("invalid analysis timeout %q: %w", a.Timeout, err)
	}
	return d, nil
}

// PathsConfig locates the dataset and run bookkeeping.
type PathsConfig struct {
	DataRoot   string `yaml:"data_root" toml:"data_root"`
	LedgerFile string `yaml:"ledger_file" toml:"ledger_file"` // empty means <data_root>/reviewlens.db
	LockFile   string `yaml:"lock_file" toml:"lock_file"`     // empty means one lock per output folder
}

// Profile is a named set of overrides. Zero values leave the base setting
// untouched.
type Profile struct {
	Description string  `yaml:"description" toml:"description"`
	ReviewType  string  `yaml:"review_type" toml:"review_type"`
	Workers     int     `yaml:"workers" toml:"workers"`
	Format      string  `yaml:"format" toml:"format"`
	Debug       bool    `yaml:"debug" toml:"debug"`
	NoColor     bool    `yaml:"no_color" toml:"no_color"`
	Threshold   float64 `yaml:"threshold" toml:"threshold"`
	ChunkSize   int     `yaml:"chunk_size" toml:"chunk_size"`
	Endpoint    string  `yaml:"endpoint" toml:"endpoint"`
}

// Supported output formats.
var outputFormats = []string{"text", "json", "yaml", "csv"}

// Default returns the built-in configuration.
func Default() *Config {
	config := &Config{Profiles: make(map[string]Profile)}

	config.Defaults.ReviewType = review.Critic.String()
	config.Defaults.Workers = 8
	config.Defaults.Format = "text"

	config.Redaction.Threshold = 85
	config.Redaction.TitleScorer = fuzzy.ScorerPartialRatio
	config.Redaction.ActorScorer = fuzzy.ScorerRatio
	config.Redaction.MoviePlaceholder = "[movie]"
	config.Redaction.ActorPlaceholder = "[actor]"

	config.Analysis.ChunkSize = 1000
	config.Analysis.BatchSize = 32
	config.Analysis.Timeout = "60s"
	config.Analysis.MaxRetries = 3
	config.Analysis.SkipExisting = true

	config.Translate.MaxChars = 5000

	config.Paths.DataRoot = "."

	config.Profiles["quick"] = Profile{
		Description: "Single worker, small chunks; for trying a change on one batch",
		Workers:     1,
		ChunkSize:   100,
		Debug:       true,
	}
	return config
}

// LoadConfig loads configuration from the specified file path. Files ending
// in .toml are decoded as TOML, everything else as YAML. Settings absent from
// the file keep their defaults.
func LoadConfig(configPath string) (*Config, error) {
	config := Default()
	if configPath == "" {
		return config, nil
	}

	data, err := os.ReadFile(filepath.Clean(configPath))
	if err != nil {
		return nil, fmt.Errorf("error reading config file: %w", err)
	}

	format := formatOf(configPath)
	defaultSkipExisting := config.Analysis.SkipExisting

	switch format {
	case "toml":
		err = toml.Unmarshal(data, config)
	default:
		err = decodeYAML(data, config)
	}
	if err != nil {
		return nil, fmt.Errorf("error parsing config file: %w", err)
	}
	if config.Profiles == nil {
		config.Profiles = make(map[string]Profile)
	}

	if !containsField(data, format, "analysis", "skip_existing") {
		config.Analysis.SkipExisting = defaultSkipExisting
	}

	ApplyPathDefaults(config)

	if err := ValidateConfig(config); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}
	return config, nil
}

// LoadConfigOrDefault loads configFile, or the first file FindConfigFile
// reports when configFile is empty. On failure it falls back to defaults and
// returns the load error alongside so callers can warn.
func LoadConfigOrDefault(configFile string) (*Config, error) {
	configPath := configFile
	if configPath == "" {
		configPath = FindConfigFile()
	}

	cfg, err := LoadConfig(configPath)
	if err != nil {
		return Default(), err
	}
	return cfg, nil
}

// candidateNames are checked in the working directory, in order.
var candidateNames = []string{
	"reviewlens.yaml", "reviewlens.yml", "reviewlens.toml",
	".reviewlens.yaml", ".reviewlens.yml", ".reviewlens.toml",
}

// FindConfigFile looks for a configuration file in the working directory and
// then in the user configuration directory. It returns "" when none exists.
func FindConfigFile() string {
	for _, name := range candidateNames {
		if fileExists(name) {
			return name
		}
	}

	dir := paths.GetConfigDir()
	for _, name := range []string{"config.yaml", "config.yml", "config.toml"} {
		candidate := filepath.Join(dir, name)
		if fileExists(candidate) {
			return candidate
		}
	}
	return ""
}

// decodeYAML decodes a YAML document into config. The document must be a
// mapping; an empty document leaves config unchanged.
func decodeYAML(data []byte, config *Config) error {
	var doc yaml.Node
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return err
	}
	if len(doc.Content) == 0 {
		return nil
	}
	if root := doc.Content[0]; root.Kind != yaml.MappingNode {
		return fmt.Errorf("line %d: top level must be a mapping of settings", root.Line)
	}
	return doc.Decode(config)
}

func formatOf(path string) string {
	if strings.EqualFold(filepath.Ext(path), ".toml") {
		return "toml"
	}
	return "yaml"
}

// fileExists checks if a file exists and is not a directory
func fileExists(filename string) bool {
	info, err := os.Stat(filename)
	if err != nil {
		return false
	}
	return !info.IsDir()
}

// containsField checks if a nested key is present in the raw document.
func containsField(data []byte, format string, path ...string) bool {
	var doc map[string]interface{}
	var err error
	if format == "toml" {
		err = toml.Unmarshal(data, &doc)
	} else {
		err = yaml.Unmarshal(data, &doc)
	}
	if err != nil {
		return false
	}

	current := doc
	for i, key := range path {
		if i == len(path)-1 {
			_, exists := current[key]
			return exists
		}
		next, ok := current[key].(map[string]interface{})
		if !ok {
			return false
		}
		current = next
	}
	return false
}

// ListProfiles returns the profile names in sorted order.
func (c *Config) ListProfiles() []string {
	names := make([]string, 0, len(c.Profiles))
	for name := range c.Profiles {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// GetProfile returns a profile by name, or nil if not found
func (c *Config) GetProfile(name string) *Profile {
	if profile, exists := c.Profiles[name]; exists {
		return &profile
	}
	return nil
}

// ApplyProfile overlays the named profile on the base settings.
func (c *Config) ApplyProfile(name string) error {
	p := c.GetProfile(name)
	if p == nil {
		return fmt.Errorf("unknown profile %q (available: %s)", name, strings.Join(c.ListProfiles(), ", "))
	}

	if p.ReviewType != "" {
		c.Defaults.ReviewType = p.ReviewType
	}
	if p.Workers > 0 {
		c.Defaults.Workers = p.Workers
	}
	if p.Format != "" {
		c.Defaults.Format = p.Format
	}
	c.Defaults.Debug = c.Defaults.Debug || p.Debug
	c.Defaults.NoColor = c.Defaults.NoColor || p.NoColor
	if p.Threshold > 0 {
		c.Redaction.Threshold = p.Threshold
	}
	if p.ChunkSize > 0 {
		c.Analysis.ChunkSize = p.ChunkSize
	}
	if p.Endpoint != "" {
		c.Analysis.Endpoint = p.Endpoint
	}
	return ValidateConfig(c)
}

// ApplyPathDefaults normalizes configured paths.
func ApplyPathDefaults(config *Config) {
	if config == nil {
		return
	}
	if config.Paths.DataRoot == "" {
		config.Paths.DataRoot = "."
	}
	config.Paths.DataRoot = paths.NormalizePath(config.Paths.DataRoot)
	config.Paths.LedgerFile = paths.NormalizePath(config.Paths.LedgerFile)
	config.Paths.LockFile = paths.NormalizePath(config.Paths.LockFile)
	config.Redaction.ActorList = paths.NormalizePath(config.Redaction.ActorList)
}

// LedgerPath is the effective ledger database location.
func (c *Config) LedgerPath() string {
	if c.Paths.LedgerFile != "" {
		return c.Paths.LedgerFile
	}
	return filepath.Join(c.Paths.DataRoot, "reviewlens.db")
}

// ValidateConfig checks every setting that would otherwise fail mid-run.
func ValidateConfig(config *Config) error {
	if config == nil {
		return fmt.Errorf("configuration cannot be nil")
	}

	if config.Defaults.ReviewType != "" {
		if _, err := review.ParseReviewType(config.Defaults.ReviewType); err != nil {
			return err
		}
	}
	if config.Defaults.Workers < 1 {
		return fmt.Errorf("workers must be at least 1, got %d", config.Defaults.Workers)
	}
	if !contains(outputFormats, config.Defaults.Format) {
		return fmt.Errorf("unsupported format %q (available: %s)", config.Defaults.Format, strings.Join(outputFormats, ", "))
	}

	if err := validateRedaction(config.Redaction); err != nil {
		return fmt.Errorf("redaction: %w", err)
	}

	if config.Analysis.ChunkSize < 1 {
		return fmt.Errorf("analysis: chunk_size must be at least 1, got %d", config.Analysis.ChunkSize)
	}
	if config.Analysis.BatchSize < 1 {
		return fmt.Errorf("analysis: batch_size must be at least 1, got %d", config.Analysis.BatchSize)
	}
	if config.Analysis.MaxRetries < 0 {
		return fmt.Errorf("analysis: max_retries cannot be negative")
	}
	if _, err := config.Analysis.TimeoutDuration(); err != nil {
		return fmt.Errorf("analysis: %w", err)
	}

	if config.Translate.MaxChars < 1 {
		return fmt.Errorf("translation: max_chars must be at least 1, got %d", config.Translate.MaxChars)
	}
	if len(config.Translate.Languages) == 1 {
		return fmt.Errorf("translation: languages must list at least two codes or be empty")
	}

	for name, p := range map[string]string{
		"data root":   config.Paths.DataRoot,
		"ledger file": config.Paths.LedgerFile,
		"lock file":   config.Paths.LockFile,
		"actor list":  config.Redaction.ActorList,
	} {
		if err := paths.ValidatePath(p); err != nil {
			return fmt.Errorf("invalid %s: %w", name, err)
		}
	}

	for name, profile := range config.Profiles {
		if profile.ReviewType != "" {
			if _, err := review.ParseReviewType(profile.ReviewType); err != nil {
				return fmt.Errorf("profile %q: %w", name, err)
			}
		}
		if profile.Format != "" && !contains(outputFormats, profile.Format) {
			return fmt.Errorf("profile %q: unsupported format %q", name, profile.Format)
		}
	}
	return nil
}

func validateRedaction(r RedactionConfig) error {
	if r.Threshold < 0 || r.Threshold > 100 {
		return fmt.Errorf("threshold must be within 0-100, got %v", r.Threshold)
	}
	for _, s := range []string{r.TitleScorer, r.ActorScorer} {
		if _, err := fuzzy.ParseScorer(s); err != nil {
			return err
		}
	}
	for _, p := range []string{r.MoviePlaceholder, r.ActorPlaceholder} {
		if err := validatePlaceholder(p); err != nil {
			return err
		}
	}
	if r.LenTolerance < 0 {
		return fmt.Errorf("len_tolerance cannot be negative")
	}
	return nil
}

// validatePlaceholder requires a single token that normalization leaves
// unchanged, so masked text can be masked again.
func validatePlaceholder(p string) error {
	if p == "" || strings.ContainsAny(p, " \t\n") || textnorm.Normalize(p) != p {
		return fmt.Errorf("placeholder %q must be one lowercase token of letters, digits and brackets", p)
	}
	return nil
}

func contains(list []string, s string) bool {
	for _, v := range list {
		if v == s {
			return true
		}
	}
	return false
}

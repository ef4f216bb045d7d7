// Package config loads run configuration for corpus generation.
//
// Configuration comes from .argsfuzz.yaml (or an explicit path), merged
// over defaults; CLI flags override both.
package config

import (
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

// DefaultConfigFile is the per-project configuration filename.
const DefaultConfigFile = ".argsfuzz.yaml"

// Config represents generation run options.
type Config struct {
	// NumCases is the number of command lines to generate.
	NumCases int `yaml:"num_cases"`

	// Seed fixes the random seed; nil means derive one from the clock.
	Seed *int64 `yaml:"seed"`

	// InvalidRatio is the fraction of cases mutated into invalid variants
	// (0.0 = all valid, 1.0 = all invalid).
	InvalidRatio float64 `yaml:"invalid_ratio"`

	// MinArgs / MaxArgs override the schema's argument-count window when
	// nonzero.
	MinArgs int `yaml:"min_args"`
	MaxArgs int `yaml:"max_args"`

	// OutputFormat is "file", "directory", or "sqlite".
	OutputFormat string `yaml:"output_format"`

	// OutputPath is the corpus file, directory, or manifest database path.
	OutputPath string `yaml:"output_path"`

	// Workers is the number of parallel generation workers (0 = all CPUs).
	Workers int `yaml:"workers"`

	// LogLevel sets logging verbosity (trace, debug, info, warn, error).
	LogLevel string `yaml:"log_level"`

	// CreateDummyFiles makes the host tool touch synthesized file and
	// directory paths after generation.
	CreateDummyFiles bool `yaml:"create_dummy_files"`
}

// DefaultConfig returns a Config with sensible default values.
func DefaultConfig() *Config {
	return &Config{
		NumCases:     100,
		InvalidRatio: 0,
		OutputFormat: "file",
		OutputPath:   "corpus.txt",
		Workers:      0,
		LogLevel:     "info",
	}
}

// LoadConfig loads configuration from the specified file path. A missing
// file yields defaults without error; a malformed file is an error.
func LoadConfig(path string) (*Config, error) {
	cfg := DefaultConfig()

	if _, err := os.Stat(path); os.IsNotExist(err) {
		return cfg, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	var fileCfg Config
	if err := yaml.Unmarshal(data, &fileCfg); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	// Apply non-zero values from the file over defaults.
	if fileCfg.NumCases != 0 {
		cfg.NumCases = fileCfg.NumCases
	}
	if fileCfg.Seed != nil {
		cfg.Seed = fileCfg.Seed
	}
	if fileCfg.InvalidRatio != 0 {
		cfg.InvalidRatio = fileCfg.InvalidRatio
	}
	if fileCfg.MinArgs != 0 {
		cfg.MinArgs = fileCfg.MinArgs
	}
	if fileCfg.MaxArgs != 0 {
		cfg.MaxArgs = fileCfg.MaxArgs
	}
	if fileCfg.OutputFormat != "" {
		cfg.OutputFormat = fileCfg.OutputFormat
	}
	if fileCfg.OutputPath != "" {
		cfg.OutputPath = fileCfg.OutputPath
	}
	if fileCfg.Workers != 0 {
		cfg.Workers = fileCfg.Workers
	}
	if fileCfg.LogLevel != "" {
		cfg.LogLevel = fileCfg.LogLevel
	}
	if fileCfg.CreateDummyFiles {
		cfg.CreateDummyFiles = true
	}

	return cfg, nil
}

// LoadConfigFromDir loads configuration from dir/.argsfuzz.yaml.
func LoadConfigFromDir(dir string) (*Config, error) {
	return LoadConfig(filepath.Join(dir, DefaultConfigFile))
}

// Validate checks the merged configuration for consistency.
func (c *Config) Validate() error {
	if c.NumCases < 1 {
		return fmt.Errorf("num_cases must be >= 1, got %d", c.NumCases)
	}
	if c.InvalidRatio < 0 || c.InvalidRatio > 1 {
		return fmt.Errorf("invalid_ratio must be in [0,1], got %v", c.InvalidRatio)
	}
	if c.MinArgs < 0 || c.MaxArgs < 0 {
		return fmt.Errorf("min_args and max_args must be >= 0")
	}
	if c.MaxArgs > 0 && c.MinArgs > c.MaxArgs {
		return fmt.Errorf("min_args %d > max_args %d", c.MinArgs, c.MaxArgs)
	}
	switch c.OutputFormat {
	case "file", "directory", "sqlite":
	default:
		return fmt.Errorf("unknown output_format %q", c.OutputFormat)
	}
	if c.Workers < 0 {
		return fmt.Errorf("workers must be >= 0, got %d", c.Workers)
	}
	return nil
}

// MergeWithFlags applies CLI flag values over the loaded configuration.
// Nil pointers leave the corresponding field unchanged.
func (c *Config) MergeWithFlags(numCases *int, seed *int64, invalidRatio *float64,
	minArgs, maxArgs *int, format, output *string, workers *int, dummyFiles *bool) {

	if numCases != nil {
		c.NumCases = *numCases
	}
	if seed != nil {
		c.Seed = seed
	}
	if invalidRatio != nil {
		c.InvalidRatio = *invalidRatio
	}
	if minArgs != nil {
		c.MinArgs = *minArgs
	}
	if maxArgs != nil {
		c.MaxArgs = *maxArgs
	}
	if format != nil {
		c.OutputFormat = *format
	}
	if output != nil {
		c.OutputPath = *output
	}
	if workers != nil {
		c.Workers = *workers
	}
	if dummyFiles != nil {
		c.CreateDummyFiles = *dummyFiles
	}
}

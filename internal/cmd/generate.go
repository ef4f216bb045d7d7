package cmd

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/spf13/cobra"

	"github.com/rmarinbe/argsfuzz/internal/config"
	"github.com/rmarinbe/argsfuzz/internal/fuzzer"
	"github.com/rmarinbe/argsfuzz/internal/logger"
	"github.com/rmarinbe/argsfuzz/internal/parser"
	"github.com/rmarinbe/argsfuzz/internal/values"
	"github.com/rmarinbe/argsfuzz/internal/writer"
)

// NewGenerateCommand creates the generate command
func NewGenerateCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "generate <schema-file>",
		Short: "Generate a fuzzing corpus from a schema",
		Long: `Generate command-line invocations from a schema file (JSON or YAML).

Each case is produced from an independent seeded random stream derived from
the run seed and the case index, so a fixed seed reproduces the identical
corpus regardless of worker count.

Configuration is loaded from .argsfuzz.yaml if present.
CLI flags override configuration file settings.

Examples:
  # Generate 100 valid test cases
  argsfuzz generate tool.json -n 100

  # Generate with 20% invalid cases
  argsfuzz generate tool.json -n 500 --invalid-ratio 0.2

  # Output to directory (one file per case)
  argsfuzz generate tool.json -n 100 -f directory -o corpus/

  # Record cases in a SQLite manifest
  argsfuzz generate tool.json -f sqlite -o corpus.db

  # Reproducible generation with seed
  argsfuzz generate tool.json -n 100 --seed 42`,
		Args: cobra.ExactArgs(1),
		RunE: runGenerate,
	}

	cmd.Flags().String("config", "", "Path to config file (default: .argsfuzz.yaml)")
	cmd.Flags().IntP("num-cases", "n", 0, "Number of test cases to generate")
	cmd.Flags().Int64("seed", 0, "Random seed for reproducibility")
	cmd.Flags().Float64("invalid-ratio", 0, "Ratio of invalid test cases (0.0-1.0)")
	cmd.Flags().Int("min-args", 0, "Minimum number of arguments per case")
	cmd.Flags().Int("max-args", 0, "Maximum number of arguments per case")
	cmd.Flags().StringP("format", "f", "", "Output format: file, directory, or sqlite")
	cmd.Flags().StringP("output", "o", "", "Output path (file, directory, or database)")
	cmd.Flags().Int("workers", 0, "Parallel generation workers (0 = all CPUs)")
	cmd.Flags().Bool("create-dummy-files", false, "Create synthesized file/directory paths on disk")
	cmd.Flags().BoolP("quiet", "q", false, "Suppress progress output")

	return cmd
}

// runGenerate implements the generate command logic
func runGenerate(cmd *cobra.Command, args []string) error {
	cfg, err := loadMergedConfig(cmd)
	if err != nil {
		return err
	}
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}

	quiet, _ := cmd.Flags().GetBool("quiet")
	logLevel := cfg.LogLevel
	if quiet {
		logLevel = "warn"
	}
	log := logger.NewConsoleLogger(os.Stderr, logLevel)

	result, err := parser.ParseFile(args[0])
	if err != nil {
		return err
	}
	for _, warning := range result.Warnings {
		log.Warnf("%s", warning)
	}
	schema := result.Schema

	seed := time.Now().UnixNano()
	if cfg.Seed != nil {
		seed = *cfg.Seed
	}

	log.Infof("Tool: %s", schema.Metadata.ToolName)
	log.Infof("Seed: %d", seed)
	log.Infof("Target: %d cases (invalid ratio %.1f%%)", cfg.NumCases, cfg.InvalidRatio*100)

	fz := fuzzer.New(schema, values.NewRegistry(), values.NewCachedLister(), fuzzer.Options{
		NumCases:     cfg.NumCases,
		Seed:         seed,
		InvalidRatio: cfg.InvalidRatio,
		MinArgs:      cfg.MinArgs,
		MaxArgs:      cfg.MaxArgs,
		Workers:      cfg.Workers,
	})

	w, err := writer.New(writer.Format(cfg.OutputFormat), cfg.OutputPath)
	if err != nil {
		return err
	}
	if mw, ok := w.(*writer.ManifestWriter); ok {
		mw.SetSeed(seed)
		log.Infof("Manifest run: %s", mw.RunID())
	}

	bar := logger.NewProgressBar(cfg.NumCases, 30, !quiet && logLevel != "warn")
	var synthesized []string

	stats, runErr := fz.Run(func(res *fuzzer.CaseResult) error {
		if err := w.Write(res); err != nil {
			return err
		}
		synthesized = append(synthesized, res.Synthesized...)
		bar.Increment()
		if !quiet && bar.Current()%10 == 0 {
			fmt.Fprintf(os.Stderr, "\r%s", bar.Render())
		}
		return nil
	})

	count, closeErr := w.Close()
	if !quiet {
		fmt.Fprintf(os.Stderr, "\r%s\n", bar.Render())
	}
	if runErr != nil {
		return runErr
	}
	if closeErr != nil {
		return fmt.Errorf("finalize output: %w", closeErr)
	}

	if cfg.CreateDummyFiles {
		created := createDummyPaths(synthesized, log)
		log.Infof("Dummy paths created: %d", created)
	}

	log.Infof("Generation complete: %d cases (%d valid, %d invalid) -> %s",
		count, stats.Valid, stats.Invalid, cfg.OutputPath)
	if stats.SkippedMutations > 0 {
		log.Infof("Cases emitted valid because no violation strategy applied: %d", stats.SkippedMutations)
	}
	if stats.PatternFallbacks > 0 {
		log.Debugf("Pattern generations served by fallback: %d", stats.PatternFallbacks)
	}

	return nil
}

// loadMergedConfig loads the config file and applies changed CLI flags.
func loadMergedConfig(cmd *cobra.Command) (*config.Config, error) {
	configPath, _ := cmd.Flags().GetString("config")

	var cfg *config.Config
	var err error
	if configPath != "" {
		cfg, err = config.LoadConfig(configPath)
		if err != nil {
			return nil, fmt.Errorf("failed to load config from %s: %w", configPath, err)
		}
	} else {
		cfg, err = config.LoadConfigFromDir(".")
		if err != nil {
			return nil, fmt.Errorf("failed to load config: %w", err)
		}
	}

	var numCasesPtr *int
	if cmd.Flags().Changed("num-cases") {
		v, _ := cmd.Flags().GetInt("num-cases")
		numCasesPtr = &v
	}
	var seedPtr *int64
	if cmd.Flags().Changed("seed") {
		v, _ := cmd.Flags().GetInt64("seed")
		seedPtr = &v
	}
	var invalidPtr *float64
	if cmd.Flags().Changed("invalid-ratio") {
		v, _ := cmd.Flags().GetFloat64("invalid-ratio")
		invalidPtr = &v
	}
	var minArgsPtr, maxArgsPtr *int
	if cmd.Flags().Changed("min-args") {
		v, _ := cmd.Flags().GetInt("min-args")
		minArgsPtr = &v
	}
	if cmd.Flags().Changed("max-args") {
		v, _ := cmd.Flags().GetInt("max-args")
		maxArgsPtr = &v
	}
	var formatPtr, outputPtr *string
	if cmd.Flags().Changed("format") {
		v, _ := cmd.Flags().GetString("format")
		formatPtr = &v
	}
	if cmd.Flags().Changed("output") {
		v, _ := cmd.Flags().GetString("output")
		outputPtr = &v
	}
	var workersPtr *int
	if cmd.Flags().Changed("workers") {
		v, _ := cmd.Flags().GetInt("workers")
		workersPtr = &v
	}
	var dummyPtr *bool
	if cmd.Flags().Changed("create-dummy-files") {
		v, _ := cmd.Flags().GetBool("create-dummy-files")
		dummyPtr = &v
	}

	cfg.MergeWithFlags(numCasesPtr, seedPtr, invalidPtr, minArgsPtr, maxArgsPtr,
		formatPtr, outputPtr, workersPtr, dummyPtr)
	return cfg, nil
}

// createDummyPaths touches synthesized file paths and creates synthesized
// directories so generated command lines point at something real. Failures
// are logged and skipped.
func createDummyPaths(paths []string, log *logger.ConsoleLogger) int {
	created := 0
	for _, path := range paths {
		if filepath.Ext(path) == "" {
			if err := os.MkdirAll(path, 0755); err != nil {
				log.Debugf("create dummy directory %s: %v", path, err)
				continue
			}
			created++
			continue
		}
		if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
			log.Debugf("create dummy parent for %s: %v", path, err)
			continue
		}
		f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY, 0644)
		if err != nil {
			log.Debugf("create dummy file %s: %v", path, err)
			continue
		}
		f.Close()
		created++
	}
	return created
}

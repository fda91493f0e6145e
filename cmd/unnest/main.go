package main

import (
	"errors"
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/kdrayer/unnest/internal/config"
	"github.com/kdrayer/unnest/internal/extract"
	"github.com/kdrayer/unnest/internal/stats"
	"github.com/kdrayer/unnest/internal/ui"
)

var version = "dev"

func main() {
	os.Exit(run())
}

func run() int {
	var (
		maxDepth    int
		quiet       bool
		verbose     bool
		digest      bool
		logFile     string
		showVersion bool
	)

	rootCmd := &cobra.Command{
		Use:   "unnest [flags] <input> <output_dir>",
		Short: "Safely extract nested tar/gzip archives",
		Long: `unnest extracts a tar/gzip archive and then repeatedly rescans the
output directory for nested archives, unpacking each into a uniquely
named sibling directory. Member paths are validated against traversal
before anything is written, link and device members are never
materialized, and completed archives are recorded in an append-only log
inside the output directory so re-runs are incremental.`,
		Args: func(cmd *cobra.Command, args []string) error {
			if showVersion {
				return nil
			}
			return cobra.ExactArgs(2)(cmd, args)
		},
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			if showVersion {
				fmt.Fprintf(os.Stdout, "unnest %s\n", version)
				return nil
			}

			// Load optional config file.
			cfg, err := config.Load()
			if err != nil {
				slog.Warn("failed to load config", "error", err)
			}
			applyConfigDefaults(cmd, cfg.Defaults, &maxDepth, &quiet, &digest)

			// Configure logging.
			logLevel := slog.LevelInfo
			if verbose {
				logLevel = slog.LevelDebug
			} else if quiet {
				logLevel = slog.LevelWarn
			}
			textHandler := slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
				Level: logLevel,
			})
			var logHandler slog.Handler = textHandler
			if logFile != "" {
				lf, lfErr := os.Create(logFile)
				if lfErr != nil {
					return fmt.Errorf("open log file: %w", lfErr)
				}
				defer lf.Close()
				jsonHandler := slog.NewJSONHandler(lf, &slog.HandlerOptions{
					Level: slog.LevelDebug,
				})
				logHandler = ui.NewMultiHandler(textHandler, jsonHandler)
			}
			logger := slog.New(logHandler)
			slog.SetDefault(logger)

			presenter := ui.New(ui.Config{Writer: os.Stdout, Quiet: quiet})
			collector := stats.NewCollector()

			runner := extract.NewRunner(extract.Config{
				Input:     args[0],
				OutputDir: args[1],
				MaxDepth:  maxDepth,
				Digest:    digest,
				Log:       logger,
				Stats:     collector,
				Reporter:  presenter,
			})

			if err := runner.Run(); err != nil {
				var inputErr *extract.InputError
				if errors.As(err, &inputErr) {
					fmt.Fprintf(os.Stderr, "Error: %v\n", err)
					return &exitError{code: 1}
				}
				slog.Error("extraction failed", "error", err)
				return &exitError{code: 2}
			}

			if !quiet {
				if summary := presenter.Summary(); summary != "" {
					fmt.Fprintln(os.Stderr, summary)
				}
			}
			return nil
		},
	}

	rootCmd.Flags().BoolVar(&showVersion, "version", false, "print version and exit")
	rootCmd.Flags().
		IntVar(&maxDepth, "max-depth", 8, "maximum number of nested-archive discovery passes")
	rootCmd.Flags().BoolVarP(&quiet, "quiet", "q", false, "suppress progress output (errors still reported)")
	rootCmd.Flags().BoolVarP(&verbose, "verbose", "v", false, "verbose output")
	rootCmd.Flags().BoolVar(&digest, "digest", false, "log a BLAKE3 digest for every extracted file")
	rootCmd.Flags().StringVar(&logFile, "log", "", "write structured JSON log to FILE")

	rootCmd.AddCommand(talkersCmd())

	if err := rootCmd.Execute(); err != nil {
		if exitErr, ok := err.(*exitError); ok {
			return exitErr.code
		}
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return 1
	}

	return 0
}

// applyConfigDefaults applies config file defaults for flags not explicitly set on the CLI.
func applyConfigDefaults(
	cmd *cobra.Command,
	defaults config.DefaultsConfig,
	maxDepth *int,
	quiet *bool,
	digest *bool,
) {
	if !cmd.Flags().Changed("max-depth") && defaults.MaxDepth != nil {
		*maxDepth = *defaults.MaxDepth
	}
	if !cmd.Flags().Changed("quiet") && defaults.Quiet != nil {
		*quiet = *defaults.Quiet
	}
	if !cmd.Flags().Changed("digest") && defaults.Digest != nil {
		*digest = *defaults.Digest
	}
}

type exitError struct {
	code int
}

func (e *exitError) Error() string {
	return fmt.Sprintf("exit code %d", e.code)
}

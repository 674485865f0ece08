package main

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/kisanseva/pagetrans/internal/config"
	"github.com/kisanseva/pagetrans/internal/logger"
	"github.com/kisanseva/pagetrans/internal/pipeline"
	"github.com/kisanseva/pagetrans/internal/prompt"
	"github.com/kisanseva/pagetrans/internal/translator"
	"github.com/spf13/cobra"
)

type translateOptions struct {
	common     *commonOptions
	yes        bool
	showErrors bool
}

func newTranslateOptions() *translateOptions {
	return &translateOptions{common: newCommonOptions()}
}

func newTranslateCmd() *cobra.Command {
	opts := newTranslateOptions()
	cmd := &cobra.Command{
		Use:   "translate <input.html> <output.html>",
		Short: "Translate an HTML page",
		RunE: func(cmd *cobra.Command, args []string) error {
			if len(args) < 2 {
				_ = cmd.Usage()
				return fmt.Errorf("input and output files are required")
			}
			return runTranslate(cmd, args, opts)
		},
		SilenceUsage: true,
	}

	cmd.SetUsageTemplate(subcommandUsageTemplate)
	addTranslateFlags(cmd, opts)
	return cmd
}

func addTranslateFlags(cmd *cobra.Command, opts *translateOptions) {
	fs := cmd.Flags()
	cfg := &opts.common.cfg
	addCommonFlags(fs, opts.common)
	fs.StringVar(&cfg.SourceLang, "source", "", "Source language code (default: auto-detect)")
	fs.StringVar(&cfg.TargetLang, "target", "", "Target language code or name")
	fs.IntVar(&cfg.MaxBatchSize, config.FlagMaxBatchSize, cfg.MaxBatchSize, "Maximum texts per batch (1-50)")
	fs.DurationVar(&cfg.BatchDelay, config.FlagBatchDelay, cfg.BatchDelay, "Pause between batches")
	fs.IntVar(&cfg.MaxRetries, config.FlagMaxRetries, cfg.MaxRetries, "Retries per batch for transient errors (0-10)")
	fs.DurationVar(&cfg.BaseDelay, config.FlagBaseDelay, cfg.BaseDelay, "Base delay for exponential backoff")
	fs.IntVar(&cfg.MaxLogSize, config.FlagMaxLogSize, cfg.MaxLogSize, "Number of errors kept in the recovery log")
	fs.StringSliceVar(&cfg.ExcludeSelectors, config.FlagExcludeSelectors, nil, "CSS selectors whose text is never translated")
	fs.StringVar(&cfg.MarkerAttribute, config.FlagMarkerAttribute, cfg.MarkerAttribute, "Attribute that marks a subtree as not translatable")
	fs.BoolVarP(&opts.yes, "yes", "y", false, "Overwrite output file without asking")
	fs.StringVar(&cfg.ReportPath, "report", "", "Path for the error report (default: <output>_errors.json)")
	fs.BoolVar(&cfg.NoReport, "no-report", false, "Do not write an error report when batches fail")
	fs.StringVar(&cfg.MetricsPath, "metrics-file", "", "Write Prometheus metrics in text format to this file")
	fs.BoolVar(&opts.showErrors, "show-errors", false, "Print the recovery log after the run")
}

func runTranslate(cmd *cobra.Command, args []string, opts *translateOptions) error {
	if len(args) < 2 {
		return fmt.Errorf("input and output files are required")
	}
	if len(args) > 2 {
		fmt.Fprintf(os.Stderr, "Warning: expected 2 arguments but got %d. Did you forget quotes around file paths?\n", len(args))
		fmt.Fprintf(os.Stderr, "  Using input: %s\n", args[0])
		fmt.Fprintf(os.Stderr, "  Using output: %s\n", args[1])
	}
	cfg, err := prepareTranslateConfig(cmd, args[0], args[1], opts)
	if err != nil {
		return err
	}
	cfg.OnConfirmOverwrite = func(path string) bool {
		confirmed, err := prompt.DefaultConfirmer().ConfirmOverwrite(path, opts.yes)
		if err != nil {
			logger.Error("Overwrite confirmation failed", "error", err)
			return false
		}
		return confirmed
	}

	startTime := time.Now()
	ctx, stop := signalContext()
	defer stop()
	result, err := pipeline.RunPageTranslation(ctx, cfg)
	if err != nil {
		if ctx.Err() != nil {
			logger.Warn("Translation canceled", "error", err)
			return nil
		}
		return err
	}

	logger.Info("Translation finished",
		"status", result.Status,
		"applied", result.Applied,
		"units", result.Units,
		"failed_batches", result.FailedBatches,
	)
	printUsageStats(cmd, result, time.Since(startTime))
	if opts.showErrors {
		printErrors(cmd, result)
	}
	return translationStatusError(result)
}

// prepareTranslateConfig resolves the layered configuration for one
// input/output pair.
func prepareTranslateConfig(cmd *cobra.Command, input, output string, opts *translateOptions) (pipeline.Config, error) {
	if err := validatePagePathExtensions(input, output); err != nil {
		return pipeline.Config{}, err
	}
	if err := initLogging(opts.common); err != nil {
		return pipeline.Config{}, err
	}

	cfg, err := resolveConfig(cmd, opts.common)
	if err != nil {
		return pipeline.Config{}, err
	}
	if strings.TrimSpace(cfg.TargetLang) == "" {
		return pipeline.Config{}, fmt.Errorf("target language is required (use --target)")
	}
	if cfg.TargetLang, err = resolveLanguageCode(cfg.TargetLang); err != nil {
		return pipeline.Config{}, err
	}
	if cfg.SourceLang != "" {
		if cfg.SourceLang, err = resolveLanguageCode(cfg.SourceLang); err != nil {
			return pipeline.Config{}, err
		}
	}

	cfg.InputPath = input
	cfg.OutputPath = output
	cfg.Overwrite = opts.yes
	cfg.OnProgress = logProgress
	return cfg, nil
}

func logProgress(p translator.Progress) {
	switch p.State {
	case translator.BatchCompleted:
		logger.Info("Batch completed", "index", p.BatchIndex, "total", p.TotalBatches)
	case translator.BatchRetrying:
		logger.Warn("Batch retry", "index", p.BatchIndex, "attempt", p.Attempt+1, "delay", p.Delay, "error", p.Error)
	case translator.BatchFellBack:
		logger.Warn("Batch kept original text", "index", p.BatchIndex, "error", p.Error)
	case translator.BatchStarted:
		logger.Debug("Batch started", "index", p.BatchIndex, "total", p.TotalBatches)
	}
}

func printUsageStats(cmd *cobra.Command, result pipeline.TranslationResult, duration time.Duration) {
	out := cmd.OutOrStdout()
	fmt.Fprintln(out, "\n--- Execution Stats ---")
	fmt.Fprintf(out, "Time: %s\n", duration.Round(time.Millisecond))
	fmt.Fprintf(out, "Texts: %d (applied %d, batches %d, failed %d)\n", result.Units, result.Applied, result.TotalBatches, result.FailedBatches)
	if result.CacheHits > 0 {
		fmt.Fprintf(out, "Cache hits: %d\n", result.CacheHits)
	}
	if result.Model == "" {
		return
	}
	fmt.Fprintf(out, "Model: %s\n", result.Model)
	fmt.Fprintf(out, "Tokens: In=%d, Out=%d\n", result.Usage.InputTokens, result.Usage.OutputTokens)
	fmt.Fprintf(out, "Estimated Cost: $%.5f\n", result.EstimatedCost)
}

func printErrors(cmd *cobra.Command, result pipeline.TranslationResult) {
	out := cmd.OutOrStdout()
	if len(result.Errors) == 0 {
		fmt.Fprintln(out, "No errors recorded.")
		return
	}
	fmt.Fprintf(out, "Recovery log (%d):\n", len(result.Errors))
	for _, rec := range result.Errors {
		status := "-"
		if rec.Status != 0 {
			status = fmt.Sprint(rec.Status)
		}
		retried := ""
		if rec.Retried {
			retried = " (retried)"
		}
		fmt.Fprintf(out, "  %s  %-10s %-20s %s: %s%s\n",
			rec.Timestamp.Format(time.RFC3339), status, rec.Kind, rec.Context, rec.Message, retried)
	}
}

func validatePagePathExtensions(inputPath, outputPath string) error {
	if !isPagePath(inputPath) {
		return fmt.Errorf("input file must have .html or .htm extension")
	}
	if !isPagePath(outputPath) {
		return fmt.Errorf("output file must have .html or .htm extension")
	}
	return nil
}

func isPagePath(path string) bool {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".html", ".htm":
		return true
	default:
		return false
	}
}

func translationStatusError(result pipeline.TranslationResult) error {
	switch result.Status {
	case pipeline.TranslationStatusSuccess:
		return nil
	case pipeline.TranslationStatusSkipped:
		if result.Reason != "" {
			logger.Info("Translation skipped", "reason", result.Reason)
		}
		return nil
	case pipeline.TranslationStatusPartialSuccess, pipeline.TranslationStatusFailure:
		if result.ReportPath != "" {
			return fmt.Errorf("translation finished with status: %s (error report: %s)", result.Status, result.ReportPath)
		}
		return fmt.Errorf("translation finished with status: %s", result.Status)
	default:
		return fmt.Errorf("translation finished with unknown status: %q", result.Status)
	}
}

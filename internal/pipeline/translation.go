package pipeline

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"slices"

	"github.com/kisanseva/pagetrans/internal/document"
	"github.com/kisanseva/pagetrans/internal/files"
	"github.com/kisanseva/pagetrans/internal/language"
	"github.com/kisanseva/pagetrans/internal/logger"
	"github.com/kisanseva/pagetrans/internal/metrics"
	"github.com/kisanseva/pagetrans/internal/recovery"
	"github.com/kisanseva/pagetrans/internal/translation"
	"github.com/kisanseva/pagetrans/internal/translator"
)

// RunPageTranslation translates one HTML file into cfg.TargetLang and
// writes the result to cfg.OutputPath.
func RunPageTranslation(ctx context.Context, cfg Config) (TranslationResult, error) {
	var notes []string
	cfg, notes = cfg.Normalize()
	for _, note := range notes {
		logger.Warn("Config normalized", "detail", note)
	}
	if err := cfg.Validate(); err != nil {
		return TranslationResult{}, fmt.Errorf("invalid configuration: %w", err)
	}

	// 1. Validation & Setup
	absIn, err := filepath.Abs(cfg.InputPath)
	if err != nil {
		return TranslationResult{}, fmt.Errorf("failed to resolve input path: %w", err)
	}
	absOut, err := filepath.Abs(cfg.OutputPath)
	if err != nil {
		return TranslationResult{}, fmt.Errorf("failed to resolve output path: %w", err)
	}
	if absIn == absOut {
		return TranslationResult{}, fmt.Errorf("input and output files are the same (%s)", absIn)
	}
	inInfo, err := os.Stat(absIn)
	if err != nil {
		return TranslationResult{}, fmt.Errorf("failed to stat input path: %w", err)
	}
	if outInfo, err := os.Stat(absOut); err == nil {
		if os.SameFile(inInfo, outInfo) {
			return TranslationResult{}, fmt.Errorf("input and output files are the same (%s)", absIn)
		}
	} else if !os.IsNotExist(err) {
		return TranslationResult{}, fmt.Errorf("failed to stat output path: %w", err)
	}
	if err := files.RejectSymlinkPaths(cfg.OutputPath, cfg.ReportPath, cfg.MetricsPath); err != nil {
		return TranslationResult{}, err
	}

	if err := checkLanguages(cfg); err != nil {
		return TranslationResult{}, err
	}

	shouldOverwrite := cfg.Overwrite
	outputExists := false
	if _, err := os.Stat(cfg.OutputPath); err == nil {
		outputExists = true
		if !shouldOverwrite && cfg.OnConfirmOverwrite != nil {
			shouldOverwrite = cfg.OnConfirmOverwrite(cfg.OutputPath)
		}
		if !shouldOverwrite {
			logger.Info("Output file exists. Aborted by user.", "path", cfg.OutputPath)
			return TranslationResult{Status: TranslationStatusSkipped, Reason: "output exists"}, nil
		}
		logger.Info("Overwriting output file", "path", cfg.OutputPath)
	}

	// 2. Load page
	in, err := os.Open(absIn)
	if err != nil {
		return TranslationResult{}, fmt.Errorf("failed to open page: %w", err)
	}
	doc, err := document.Parse(in,
		document.WithExcludeSelectors(cfg.ExcludeSelectors...),
		document.WithMarkerAttribute(cfg.MarkerAttribute),
	)
	in.Close()
	if err != nil {
		return TranslationResult{}, fmt.Errorf("failed to load page: %w", err)
	}
	logger.Info("Loaded page", "path", cfg.InputPath)

	// 3. Initialize client & orchestrator
	m := metrics.New()
	client, closeClient, err := OpenClient(ctx, cfg, m)
	if err != nil {
		return TranslationResult{}, err
	}
	defer closeClient()

	orch, err := translator.New(doc, client, cfg.orchestratorConfig(),
		translator.WithMetrics(m),
		translator.WithProgress(cfg.OnProgress),
	)
	if err != nil {
		return TranslationResult{}, fmt.Errorf("failed to initialize translator: %w", err)
	}

	// 4. Translate
	logger.Info("Starting translation", "backend", client.BackendName(), "target", cfg.TargetLang)
	orch.SetLanguage(cfg.TargetLang)
	page := orch.TranslatePage(ctx)

	result := TranslationResult{
		Status:        translationStatusFromCycle(page.Status),
		Reason:        page.Reason,
		CycleID:       page.CycleID,
		Units:         page.Units,
		Applied:       page.Applied,
		SkippedWrites: page.Skipped,
		TotalBatches:  page.Batches,
		FailedBatches: len(page.FailedBatches),
		Errors:        orch.RecentErrors(0),
	}
	logErrorHistory(result.Errors)
	if usage, cost, ok := usageCost(cfg, client); ok {
		result.Model = cfg.model()
		result.Usage = usage
		result.EstimatedCost = cost
	}

	// 5. Handle results
	effectiveOutputPath := cfg.OutputPath
	if result.Status == TranslationStatusSuccess || result.Status == TranslationStatusPartialSuccess {
		if !(outputExists && shouldOverwrite) {
			safePath, changed, err := files.SafePath(cfg.OutputPath)
			if err != nil {
				return result, fmt.Errorf("failed to resolve output path: %w", err)
			}
			if changed {
				logger.Warn("Output path adjusted to avoid overwrite", "original", cfg.OutputPath, "effective", safePath)
				effectiveOutputPath = safePath
			}
		}
		if err := files.AtomicWriteFunc(effectiveOutputPath, 0644, doc.Render); err != nil {
			return result, fmt.Errorf("failed to save output file: %w", err)
		}
		result.OutputPath = effectiveOutputPath
		logger.Info("Saved results", "path", effectiveOutputPath)
	}

	if !cfg.NoReport && (result.Status == TranslationStatusPartialSuccess || result.Status == TranslationStatusFailure) {
		reportPath, err := writeReport(cfg, absIn, effectiveOutputPath, client.BackendName(), page, result.Errors)
		if err != nil {
			logger.Error("Failed to save error report", "error", err)
		} else {
			result.ReportPath = reportPath
			if result.Status == TranslationStatusPartialSuccess {
				logger.Warn("Partial success - error report saved", "path", reportPath)
			} else {
				logger.Error("Translation failed - error report saved", "path", reportPath)
			}
		}
	}

	if cfg.MetricsPath != "" {
		if err := m.WriteTextfile(cfg.MetricsPath); err != nil {
			logger.Warn("Failed to write metrics file", "path", cfg.MetricsPath, "error", err)
		}
	}
	if totals, err := m.Totals(); err == nil {
		result.CacheHits = int(totals.CacheHits)
		logger.Debug("Run metrics", "batches", totals.Batches, "retries", totals.Retries, "errors", totals.Errors, "applied", totals.Applied, "cache_hits", totals.CacheHits)
	}

	logger.Info("Translation finished", "status", result.Status, "reason", result.Reason)
	return result, nil
}

func checkLanguages(cfg Config) error {
	if cfg.SourceLang != "" && cfg.SourceLang != translation.AutoSource {
		if _, ok := language.GetLanguage(cfg.SourceLang); !ok {
			return fmt.Errorf("unsupported source language: %s", cfg.SourceLang)
		}
		if cfg.SourceLang == cfg.TargetLang {
			return fmt.Errorf("source and target languages must be different (%s)", cfg.SourceLang)
		}
	}
	if !slices.Contains(cfg.supportedCodes(), cfg.TargetLang) {
		return fmt.Errorf("unsupported target language: %s", cfg.TargetLang)
	}
	return nil
}

func writeReport(cfg Config, absIn, outputPath, backend string, page translator.PageResult, errs []recovery.ErrorRecord) (string, error) {
	path := cfg.ReportPath
	if path == "" {
		path = recovery.GenerateReportPath(outputPath)
	}
	inputHash, err := recovery.HashFileHex(absIn)
	if err != nil {
		return "", fmt.Errorf("failed to hash input: %w", err)
	}
	relIn, err := recovery.RelativeToReport(path, absIn)
	if err != nil {
		return "", fmt.Errorf("failed to convert input path to relative: %w", err)
	}
	relOut, err := recovery.RelativeToReport(path, outputPath)
	if err != nil {
		return "", fmt.Errorf("failed to convert output path to relative: %w", err)
	}
	report := &recovery.Report{
		ReportVersion: recovery.CurrentReportVersion,
		InputPath:     relIn,
		InputHash:     inputHash,
		OutputPath:    relOut,
		Backend:       backend,
		SourceLang:    cfg.SourceLang,
		TargetLang:    cfg.TargetLang,
		CycleID:       page.CycleID,
		Status:        page.Status,
		StatusReason:  page.Reason,
		TotalBatches:  page.Batches,
		FailedBatches: page.FailedBatches,
		Skipped:       page.Skipped,
		Errors:        errs,
	}
	return recovery.SaveReport(path, report)
}

func logErrorHistory(errs []recovery.ErrorRecord) {
	for _, e := range errs {
		logger.Debug("Recorded failure",
			"cycle_id", e.CycleID,
			"where", e.Context,
			"kind", e.Kind,
			"status", e.Status,
			"attempt", e.Attempt,
			"retried", e.Retried,
		)
	}
}

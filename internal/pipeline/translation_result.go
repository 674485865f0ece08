package pipeline

import (
	"github.com/kisanseva/pagetrans/internal/recovery"
	"github.com/kisanseva/pagetrans/internal/translation"
	"github.com/kisanseva/pagetrans/internal/translator"
)

// TranslationStatus is the terminal state of a page translation run.
type TranslationStatus string

const (
	TranslationStatusSuccess        TranslationStatus = translator.StatusSuccess
	TranslationStatusPartialSuccess TranslationStatus = translator.StatusPartialSuccess
	TranslationStatusFailure        TranslationStatus = translator.StatusFailure
	TranslationStatusSkipped        TranslationStatus = translator.StatusSkipped
)

// TranslationResult contains structured outputs from RunPageTranslation.
type TranslationResult struct {
	Status        TranslationStatus
	Reason        string
	CycleID       string
	OutputPath    string
	ReportPath    string
	Units         int
	Applied       int
	SkippedWrites int
	TotalBatches  int
	FailedBatches int
	// CacheHits counts texts served from the translation cache.
	CacheHits int
	// Errors holds the recovery log of the run, oldest first.
	Errors []recovery.ErrorRecord

	// Model, Usage and EstimatedCost are set for LLM backends.
	Model         string
	Usage         translation.Usage
	EstimatedCost float64
}

func translationStatusFromCycle(status string) TranslationStatus {
	switch status {
	case translator.StatusSuccess:
		return TranslationStatusSuccess
	case translator.StatusPartialSuccess:
		return TranslationStatusPartialSuccess
	case translator.StatusSkipped:
		return TranslationStatusSkipped
	default:
		return TranslationStatusFailure
	}
}

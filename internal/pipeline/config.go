package pipeline

import (
	"fmt"
	"strings"
	"time"

	"github.com/kisanseva/pagetrans/internal/cache"
	"github.com/kisanseva/pagetrans/internal/catalog"
	"github.com/kisanseva/pagetrans/internal/chunker"
	"github.com/kisanseva/pagetrans/internal/language"
	"github.com/kisanseva/pagetrans/internal/recovery"
	"github.com/kisanseva/pagetrans/internal/translator"
)

// Backend names accepted in Config.Backend.
const (
	BackendLibreTranslate = "libretranslate"
	BackendGemini         = "gemini"
	BackendOpenAI         = "openai"
)

const (
	DefaultRequestTimeout = 10 * time.Second
	MaxRetriesLimit       = 10
)

// Config holds everything needed to translate one page file.
type Config struct {
	// IO Paths
	InputPath   string
	OutputPath  string
	ReportPath  string // Optional: defaults to [output]_errors.json when batches fail
	NoReport    bool
	MetricsPath string // Optional: Prometheus text-format file written after the run

	// Backend
	Backend        string
	BackendURL     string // LibreTranslate server or OpenAI-compatible base URL; empty uses the backend default
	APIKey         string
	Model          string
	RequestTimeout time.Duration
	BatchEndpoint  bool

	// Cache
	CacheURL string // "memory", a redis:// URL, or empty for no cache
	CacheTTL time.Duration

	// Languages
	SourceLang         string // empty means auto-detect on the backend
	TargetLang         string
	BaselineLang       string
	SupportedLanguages []string

	// Batching and recovery
	MaxBatchSize int
	BatchDelay   time.Duration
	MaxRetries   int
	BaseDelay    time.Duration
	MaxLogSize   int

	// Extraction
	ExcludeSelectors []string
	MarkerAttribute  string

	Overwrite bool

	// OnProgress receives per-batch progress.
	OnProgress func(translator.Progress)

	// OnConfirmOverwrite is called when the output file exists and
	// Overwrite is false. Returning false skips the run.
	OnConfirmOverwrite func(path string) bool
}

// DefaultConfig returns the built-in defaults, the lowest configuration layer.
func DefaultConfig() Config {
	policy := recovery.DefaultPolicy()
	return Config{
		Backend:         BackendLibreTranslate,
		RequestTimeout:  DefaultRequestTimeout,
		BaselineLang:    language.Baseline,
		MaxBatchSize:    translator.DefaultMaxBatchSize,
		BatchDelay:      translator.DefaultBatchDelay,
		MaxRetries:      policy.MaxRetries,
		BaseDelay:       policy.BaseDelay,
		MaxLogSize:      recovery.DefaultMaxLogSize,
		MarkerAttribute: catalog.DefaultMarkerAttribute,
		CacheTTL:        cache.DefaultTTL,
	}
}

// Normalize applies safe bounds to config values and returns any adjustments.
func (c Config) Normalize() (Config, []string) {
	var notes []string
	c.Backend = strings.ToLower(strings.TrimSpace(c.Backend))
	c.TargetLang = strings.ToLower(strings.TrimSpace(c.TargetLang))
	c.SourceLang = strings.ToLower(strings.TrimSpace(c.SourceLang))
	c.BaselineLang = strings.ToLower(strings.TrimSpace(c.BaselineLang))

	if clamped := chunker.ClampBatchSize(c.MaxBatchSize); clamped != c.MaxBatchSize {
		notes = append(notes, fmt.Sprintf("max-batch-size clamped from %d to %d (range 1..%d)", c.MaxBatchSize, clamped, chunker.MaxBatchSize))
		c.MaxBatchSize = clamped
	}
	if c.MaxRetries > MaxRetriesLimit {
		notes = append(notes, fmt.Sprintf("max-retries clamped from %d to %d", c.MaxRetries, MaxRetriesLimit))
		c.MaxRetries = MaxRetriesLimit
	}
	if c.MaxLogSize <= 0 {
		notes = append(notes, fmt.Sprintf("max-log-size %d replaced by default %d", c.MaxLogSize, recovery.DefaultMaxLogSize))
		c.MaxLogSize = recovery.DefaultMaxLogSize
	}
	if c.RequestTimeout <= 0 {
		notes = append(notes, fmt.Sprintf("request-timeout %s replaced by default %s", c.RequestTimeout, DefaultRequestTimeout))
		c.RequestTimeout = DefaultRequestTimeout
	}
	return c, notes
}

// Validate checks if the configuration is valid.
func (c Config) Validate() error {
	switch c.Backend {
	case BackendLibreTranslate:
	case BackendGemini, BackendOpenAI:
		if c.APIKey == "" {
			return fmt.Errorf("API key is required for %s", c.Backend)
		}
	default:
		return fmt.Errorf("unknown backend %q (want %s, %s or %s)", c.Backend, BackendLibreTranslate, BackendGemini, BackendOpenAI)
	}
	if c.TargetLang == "" {
		return fmt.Errorf("target language is required")
	}
	if c.BaselineLang == "" {
		return fmt.Errorf("baseline language is required")
	}
	if c.MaxBatchSize <= 0 {
		return fmt.Errorf("max batch size must be greater than 0, got %d", c.MaxBatchSize)
	}
	if c.MaxRetries < 0 {
		return fmt.Errorf("max retries must be 0 or greater, got %d", c.MaxRetries)
	}
	if c.BatchDelay < 0 || c.BaseDelay < 0 {
		return fmt.Errorf("delays must not be negative")
	}
	return nil
}

// supportedCodes returns the configured supported set, or the built-in table.
func (c Config) supportedCodes() []string {
	if len(c.SupportedLanguages) > 0 {
		return c.SupportedLanguages
	}
	return language.Codes()
}

func (c Config) orchestratorConfig() translator.Config {
	tc := translator.DefaultConfig()
	tc.Baseline = c.BaselineLang
	tc.Source = c.SourceLang
	tc.MaxBatchSize = c.MaxBatchSize
	tc.BatchDelay = c.BatchDelay
	tc.Policy = recovery.Policy{MaxRetries: c.MaxRetries, BaseDelay: c.BaseDelay}
	tc.MaxLogSize = c.MaxLogSize
	tc.Rules.MarkerAttribute = c.MarkerAttribute
	return tc
}

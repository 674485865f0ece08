package pipeline

import (
	"context"
	"fmt"
	"net/url"

	"github.com/kisanseva/pagetrans/internal/cache"
	"github.com/kisanseva/pagetrans/internal/gemini"
	"github.com/kisanseva/pagetrans/internal/libretranslate"
	"github.com/kisanseva/pagetrans/internal/logger"
	"github.com/kisanseva/pagetrans/internal/metadata"
	"github.com/kisanseva/pagetrans/internal/metrics"
	"github.com/kisanseva/pagetrans/internal/openai"
	"github.com/kisanseva/pagetrans/internal/translation"
)

// OpenClient builds the translation client for cfg's backend, behind a
// translation cache when cfg.CacheURL is set. The returned close function
// releases backend and cache resources and is never nil. m may be nil.
func OpenClient(ctx context.Context, cfg Config, m *metrics.Metrics) (*translation.Client, func(), error) {
	var (
		backend translation.Backend
		closeFn = func() {}
	)
	switch cfg.Backend {
	case BackendLibreTranslate:
		backend = libretranslate.NewClient(cfg.BackendURL, cfg.APIKey, cfg.RequestTimeout)
	case BackendGemini:
		gc, err := gemini.NewClient(ctx, cfg.APIKey, cfg.model(), cfg.RequestTimeout)
		if err != nil {
			return nil, closeFn, fmt.Errorf("failed to create Gemini client: %w", err)
		}
		backend = gc
		closeFn = func() { gc.Close() }
	case BackendOpenAI:
		backend = openai.NewClient(cfg.APIKey, cfg.model(), cfg.RequestTimeout).WithBaseURL(cfg.BackendURL)
	default:
		return nil, closeFn, fmt.Errorf("unknown backend %q", cfg.Backend)
	}

	store, err := cache.Open(ctx, cfg.CacheURL)
	if err != nil {
		closeFn()
		return nil, func() {}, fmt.Errorf("failed to open cache: %w", err)
	}
	if store != nil {
		closeBackend := closeFn
		closeFn = func() {
			if err := store.Close(); err != nil {
				logger.Warn("Failed to close cache", "error", err)
			}
			closeBackend()
		}
		backend = cache.Wrap(backend, store, cfg.CacheTTL, cache.WithMetrics(m))
		logger.Debug("Translation cache enabled", "cache", cacheLabel(cfg.CacheURL), "ttl", cfg.CacheTTL)
	}

	client := translation.NewClient(backend,
		translation.WithBatchEndpoint(cfg.BatchEndpoint),
		translation.WithSupportedLanguages(cfg.supportedCodes()...),
		translation.WithDefaultLanguage(cfg.BaselineLang),
	)
	return client, closeFn, nil
}

// cacheLabel strips credentials from a cache URL for logging.
func cacheLabel(raw string) string {
	u, err := url.Parse(raw)
	if err != nil || u.Host == "" {
		return raw
	}
	u.User = nil
	return u.String()
}

// model returns the configured model or the backend's default.
func (c Config) model() string {
	if c.Model != "" {
		return c.Model
	}
	return metadata.DefaultModel(c.Backend)
}

// usageCost estimates the run's backend cost from the client's token usage.
func usageCost(cfg Config, client *translation.Client) (translation.Usage, float64, bool) {
	usage, ok := client.Usage()
	if !ok {
		return translation.Usage{}, 0, false
	}
	// Unknown models fall back to the backend's default prices.
	pricing, _ := metadata.Pricing(cfg.Backend, cfg.model())
	return usage, pricing.EstimateCost(usage.InputTokens, usage.OutputTokens), true
}

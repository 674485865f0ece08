package cache

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/kisanseva/pagetrans/internal/apperrors"
	"github.com/kisanseva/pagetrans/internal/logger"
	"github.com/kisanseva/pagetrans/internal/metrics"
	"github.com/kisanseva/pagetrans/internal/translation"
)

// Backend serves translations from a Store and forwards misses to the
// wrapped backend. Store failures count as misses.
type Backend struct {
	inner   translation.Backend
	store   Store
	ttl     time.Duration
	metrics *metrics.Metrics
}

var (
	_ translation.Backend      = (*Backend)(nil)
	_ translation.BatchBackend = (*Backend)(nil)
)

type Option func(*Backend)

func WithMetrics(m *metrics.Metrics) Option {
	return func(b *Backend) { b.metrics = m }
}

// Wrap returns inner with a translation cache in front of it. A ttl of zero
// or less uses DefaultTTL.
func Wrap(inner translation.Backend, store Store, ttl time.Duration, opts ...Option) *Backend {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	b := &Backend{inner: inner, store: store, ttl: ttl}
	for _, opt := range opts {
		opt(b)
	}
	return b
}

func (b *Backend) Name() string { return b.inner.Name() }

// Unwrap returns the wrapped backend.
func (b *Backend) Unwrap() translation.Backend { return b.inner }

func (b *Backend) Translate(ctx context.Context, text, source, target string) (string, error) {
	key := Key(b.inner.Name(), source, target, text)
	if v, ok := b.lookup(ctx, key); ok {
		return v, nil
	}
	out, err := b.inner.Translate(ctx, text, source, target)
	if err != nil {
		return "", err
	}
	b.save(ctx, key, out)
	return out, nil
}

// TranslateBatch sends only the uncached texts to the wrapped backend and
// merges the results back in input order. Backends without a batch
// endpoint get one Translate call per miss.
func (b *Backend) TranslateBatch(ctx context.Context, texts []string, source, target string) ([]string, error) {
	out := make([]string, len(texts))
	keys := make([]string, len(texts))
	var missIdx []int
	var missTexts []string
	for i, text := range texts {
		keys[i] = Key(b.inner.Name(), source, target, text)
		if v, ok := b.lookup(ctx, keys[i]); ok {
			out[i] = v
			continue
		}
		missIdx = append(missIdx, i)
		missTexts = append(missTexts, text)
	}
	if len(missTexts) == 0 {
		return out, nil
	}

	var results []string
	if bb, ok := b.inner.(translation.BatchBackend); ok {
		var err error
		results, err = bb.TranslateBatch(ctx, missTexts, source, target)
		if err != nil {
			return nil, err
		}
		if len(results) != len(missTexts) {
			return nil, apperrors.Generic(fmt.Errorf("batch result count mismatch: expected %d, got %d", len(missTexts), len(results)))
		}
	} else {
		results = make([]string, len(missTexts))
		for i, text := range missTexts {
			if err := ctx.Err(); err != nil {
				return nil, err
			}
			r, err := b.inner.Translate(ctx, text, source, target)
			if err != nil {
				return nil, err
			}
			results[i] = r
		}
	}

	for j, i := range missIdx {
		out[i] = results[j]
		b.save(ctx, keys[i], results[j])
	}
	return out, nil
}

func (b *Backend) Detect(ctx context.Context, text string) ([]translation.Detection, error) {
	return b.inner.Detect(ctx, text)
}

func (b *Backend) Languages(ctx context.Context) ([]translation.Language, error) {
	return b.inner.Languages(ctx)
}

func (b *Backend) lookup(ctx context.Context, key string) (string, bool) {
	v, ok, err := b.store.Get(ctx, key)
	if err != nil {
		logger.Warn("Cache lookup failed", "backend", b.inner.Name(), "error", err)
		ok = false
	}
	b.metrics.ObserveCacheLookup(ok)
	return v, ok
}

// save saves one result. Blank results are never cached.
func (b *Backend) save(ctx context.Context, key, value string) {
	if strings.TrimSpace(value) == "" {
		return
	}
	if err := b.store.Set(ctx, key, value, b.ttl); err != nil {
		logger.Warn("Cache write failed", "backend", b.inner.Name(), "error", err)
	}
}

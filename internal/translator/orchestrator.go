// Package translator drives page-wide translation cycles: it extracts the
// page catalog, sends it in sequential batches, recovers from failures and
// writes the results back in document order.
package translator

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/kisanseva/pagetrans/internal/catalog"
	"github.com/kisanseva/pagetrans/internal/chunker"
	"github.com/kisanseva/pagetrans/internal/language"
	"github.com/kisanseva/pagetrans/internal/logger"
	"github.com/kisanseva/pagetrans/internal/metrics"
	"github.com/kisanseva/pagetrans/internal/recovery"
)

const (
	DefaultMaxBatchSize = 25
	DefaultBatchDelay   = 100 * time.Millisecond
)

// Client is the translation capability the orchestrator needs.
// *translation.Client implements it.
type Client interface {
	TranslateOne(ctx context.Context, text, target, source string) (string, error)
	TranslateBatch(ctx context.Context, texts []string, target, source string) ([]string, error)
}

// Config holds the static settings of an Orchestrator.
type Config struct {
	Baseline     string
	Source       string
	MaxBatchSize int
	BatchDelay   time.Duration
	Policy       recovery.Policy
	MaxLogSize   int
	Rules        catalog.Rules
}

func DefaultConfig() Config {
	return Config{
		Baseline:     language.Baseline,
		MaxBatchSize: DefaultMaxBatchSize,
		BatchDelay:   DefaultBatchDelay,
		Policy:       recovery.DefaultPolicy(),
		MaxLogSize:   recovery.DefaultMaxLogSize,
		Rules:        catalog.DefaultRules(),
	}
}

type Option func(*Orchestrator)

func WithMetrics(m *metrics.Metrics) Option {
	return func(o *Orchestrator) { o.metrics = m }
}

func WithProgress(fn func(Progress)) Option {
	return func(o *Orchestrator) { o.onProgress = fn }
}

// WithSleep replaces the timer used for batch delays and retry backoff.
func WithSleep(fn func(ctx context.Context, d time.Duration) error) Option {
	return func(o *Orchestrator) { o.sleep = fn }
}

// WithCycleIDs replaces the cycle ID generator.
func WithCycleIDs(fn func() string) Option {
	return func(o *Orchestrator) { o.newID = fn }
}

// Orchestrator owns the session state. Observers read it through Snapshot
// and Subscribe; only the orchestrator mutates it.
type Orchestrator struct {
	doc       catalog.Document
	extractor *catalog.Extractor
	client    Client
	cfg       Config
	recovery  *recovery.Handler

	metrics    *metrics.Metrics
	onProgress func(Progress)
	sleep      func(ctx context.Context, d time.Duration) error
	newID      func() string

	mu             sync.Mutex
	state          State
	current        string
	translating    bool
	lastTranslated string
	cycleID        string
	subscribers    map[int]chan Snapshot
	nextSubscriber int
}

// New creates an Orchestrator for doc.
func New(doc catalog.Document, client Client, cfg Config, opts ...Option) (*Orchestrator, error) {
	if doc == nil {
		return nil, fmt.Errorf("document is required")
	}
	if client == nil {
		return nil, fmt.Errorf("translation client is required")
	}
	cfg.Baseline = normalizeCode(cfg.Baseline)
	if cfg.Baseline == "" {
		return nil, fmt.Errorf("baseline language is required")
	}
	if cfg.MaxBatchSize <= 0 || cfg.MaxBatchSize > chunker.MaxBatchSize {
		return nil, fmt.Errorf("max batch size must be between 1 and %d, got %d", chunker.MaxBatchSize, cfg.MaxBatchSize)
	}
	if cfg.BatchDelay < 0 {
		return nil, fmt.Errorf("batch delay must not be negative, got %s", cfg.BatchDelay)
	}
	if cfg.Policy.MaxRetries < 0 {
		return nil, fmt.Errorf("max retries must not be negative, got %d", cfg.Policy.MaxRetries)
	}

	o := &Orchestrator{
		doc:         doc,
		extractor:   catalog.NewExtractor(doc, cfg.Rules),
		client:      client,
		cfg:         cfg,
		recovery:    recovery.NewHandler(cfg.Policy, recovery.NewErrorLog(cfg.MaxLogSize)),
		sleep:       sleepContext,
		newID:       uuid.NewString,
		subscribers: make(map[int]chan Snapshot),
	}
	for _, opt := range opts {
		opt(o)
	}
	return o, nil
}

// SetLanguage selects the target language of the next cycle.
func (o *Orchestrator) SetLanguage(code string) {
	o.mu.Lock()
	defer o.mu.Unlock()
	code = normalizeCode(code)
	if code == o.current {
		return
	}
	o.current = code
	o.notifyLocked()
}

// Reset forgets the last translated language, for a reloaded document.
func (o *Orchestrator) Reset() {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.lastTranslated = ""
	o.notifyLocked()
}

func (o *Orchestrator) IsTranslating() bool {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.translating
}

func (o *Orchestrator) Snapshot() Snapshot {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.snapshotLocked()
}

// Subscribe delivers a Snapshot after every state change. A slow receiver
// misses intermediate snapshots rather than blocking the cycle. The
// returned function unsubscribes and closes the channel.
func (o *Orchestrator) Subscribe(buffer int) (<-chan Snapshot, func()) {
	if buffer < 1 {
		buffer = 1
	}
	ch := make(chan Snapshot, buffer)
	o.mu.Lock()
	id := o.nextSubscriber
	o.nextSubscriber++
	o.subscribers[id] = ch
	o.mu.Unlock()

	var once sync.Once
	return ch, func() {
		once.Do(func() {
			o.mu.Lock()
			delete(o.subscribers, id)
			o.mu.Unlock()
			close(ch)
		})
	}
}

// RecentErrors returns up to limit of the most recent failures, oldest first.
func (o *Orchestrator) RecentErrors(limit int) []recovery.ErrorRecord {
	return o.recovery.Log.Recent(limit)
}

// TranslatePage runs one cycle for the current target language. It never
// returns an error: failed batches keep their original text.
func (o *Orchestrator) TranslatePage(ctx context.Context) (result PageResult) {
	o.mu.Lock()
	target := o.current
	result.Target = target
	switch {
	case target == "" || target == o.cfg.Baseline:
		o.mu.Unlock()
		result.Status, result.Reason = StatusSkipped, ReasonBaseline
		return result
	case o.translating:
		o.mu.Unlock()
		result.Status, result.Reason = StatusSkipped, ReasonBusy
		return result
	case o.lastTranslated == target:
		o.mu.Unlock()
		result.Status, result.Reason = StatusSkipped, ReasonAlreadyTranslated
		return result
	}
	cycleID := o.newID()
	o.translating = true
	o.cycleID = cycleID
	o.state = StateExtracting
	o.notifyLocked()
	o.mu.Unlock()

	result.CycleID = cycleID
	log := logger.With("cycle_id", cycleID, "target", target)

	// applied is set once the cycle wrote its results back, fallbacks
	// included. Only such cycles make the target a no-op next time.
	applied := false
	defer func() {
		if r := recover(); r != nil {
			log.Error("Translation cycle aborted", "panic", r)
			result.Status = StatusFailure
			result.Reason = fmt.Sprint(r)
		}
		o.mu.Lock()
		o.translating = false
		o.state = StateIdle
		o.cycleID = ""
		if applied && result.Reason != ReasonCanceled {
			o.lastTranslated = target
		}
		o.notifyLocked()
		o.mu.Unlock()
		if result.Status != StatusSkipped {
			o.metrics.ObserveCycle(result.Status)
		}
	}()

	applied = o.runCycle(ctx, log, cycleID, target, &result)
	return result
}

// runCycle reports whether it reached the apply step.
func (o *Orchestrator) runCycle(ctx context.Context, log *slog.Logger, cycleID, target string, result *PageResult) bool {
	cat := o.extractor.Extract()
	result.Units = len(cat)
	o.metrics.SetCatalogUnits(len(cat))
	if len(cat) == 0 {
		result.Status, result.Reason = StatusSkipped, ReasonEmptyCatalog
		log.Info("No translatable text found")
		return false
	}

	o.setState(StateBatching)
	texts := catalog.PrepareBatchTexts(cat)
	batches := chunker.SplitIntoBatches(texts, o.cfg.MaxBatchSize)
	result.Batches = len(batches)
	log.Debug("Catalog extracted", "units", len(cat), "batches", len(batches))

	o.setState(StateTranslating)
	results := make([]string, 0, len(texts))
	for i, b := range batches {
		if i > 0 && ctx.Err() == nil {
			// Politeness delay between requests to the backend.
			_ = o.sleep(ctx, o.cfg.BatchDelay)
		}
		out, ok := o.translateBatch(ctx, log, cycleID, target, b, len(batches))
		if !ok {
			result.FailedBatches = append(result.FailedBatches, b.Index)
		}
		results = append(results, out...)
	}
	if ctx.Err() != nil {
		result.Reason = ReasonCanceled
	}

	o.setState(StateApplying)
	mapped, err := catalog.MapResultsBack(cat, results)
	if err != nil {
		log.Error("Failed to map results back to the document", "error", err)
		result.Status = StatusFailure
		result.FailedBatches = allIndexes(len(batches))
		return false
	}
	applied := o.extractor.Apply(mapped)
	result.Applied, result.Skipped = applied.Applied, applied.Skipped
	o.metrics.ObserveApply(applied.Applied, applied.Skipped)
	for _, f := range applied.Failures {
		o.recovery.Handle(f, 0, nil, "apply", cycleID)
		o.metrics.ObserveError(string(kindOf(f)), false)
	}
	if ls, ok := o.doc.(interface{ SetLanguage(code string, rtl bool) }); ok && len(result.FailedBatches) < len(batches) {
		ls.SetLanguage(target, language.IsRTL(target))
	}

	result.Status = recovery.CalculateStatus(len(result.FailedBatches), len(batches))
	log.Info("Page translation finished",
		"status", result.Status,
		"units", result.Units,
		"batches", result.Batches,
		"failed_batches", len(result.FailedBatches),
		"applied", result.Applied,
		"skipped_writes", result.Skipped,
	)
	return true
}

// translateBatch sends one batch with bounded retry. On final failure it
// returns the batch's original texts and false.
func (o *Orchestrator) translateBatch(ctx context.Context, log *slog.Logger, cycleID, target string, b chunker.Batch, total int) ([]string, bool) {
	label := fmt.Sprintf("batch %d/%d", b.Index+1, total)
	o.report(Progress{CycleID: cycleID, BatchIndex: b.Index, TotalBatches: total, State: BatchStarted})

	out, d, err := o.withRetry(ctx, label, cycleID, b.Texts, func() ([]string, error) {
		return o.client.TranslateBatch(ctx, b.Texts, target, o.cfg.Source)
	}, func(attempt int, err error, delay time.Duration) {
		log.Warn("Batch failed, retrying", "batch", b.Index, "attempt", attempt+1, "kind", kindOf(err), "status", statusOf(err), "delay", delay)
		o.report(Progress{CycleID: cycleID, BatchIndex: b.Index, TotalBatches: total, Attempt: attempt + 1, State: BatchRetrying, Error: err, Delay: delay})
	})
	if err == nil {
		o.metrics.ObserveBatch("translated")
		o.report(Progress{CycleID: cycleID, BatchIndex: b.Index, TotalBatches: total, Attempt: d.attempt, State: BatchCompleted})
		return out, true
	}

	o.metrics.ObserveBatch("fallback")
	log.Error("Batch fell back to original text", "batch", b.Index, "attempts", d.attempt+1, "kind", kindOf(err), "status", statusOf(err), "error", err)
	o.report(Progress{CycleID: cycleID, BatchIndex: b.Index, TotalBatches: total, Attempt: d.attempt, State: BatchFellBack, Error: err})
	return out, false
}

type retryOutcome struct {
	attempt int
}

// withRetry runs call until it succeeds, the policy refuses another attempt
// or ctx is done. On failure the returned texts are the fallback copies of
// originals.
func (o *Orchestrator) withRetry(ctx context.Context, label, cycleID string, originals []string, call func() ([]string, error), onRetry func(attempt int, err error, delay time.Duration)) ([]string, retryOutcome, error) {
	var lastErr error
	for attempt := 0; ; attempt++ {
		if err := ctx.Err(); err != nil {
			if lastErr == nil {
				lastErr = err
			}
			return append([]string(nil), originals...), retryOutcome{attempt: attempt}, lastErr
		}

		start := time.Now()
		out, err := call()
		o.metrics.ObserveRequest(o.backendName(), time.Since(start))
		if err == nil {
			return out, retryOutcome{attempt: attempt}, nil
		}
		lastErr = err
		if ctx.Err() != nil {
			return append([]string(nil), originals...), retryOutcome{attempt: attempt}, err
		}

		d := o.recovery.Handle(err, attempt, originals, label, cycleID)
		o.metrics.ObserveError(string(d.Kind), d.ShouldRetry)
		if !d.ShouldRetry {
			return d.Fallback, retryOutcome{attempt: attempt}, err
		}
		if onRetry != nil {
			onRetry(attempt, err, d.RetryDelay)
		}
		if err := o.sleep(ctx, d.RetryDelay); err != nil {
			return d.Fallback, retryOutcome{attempt: attempt}, lastErr
		}
	}
}

// TranslateText translates a single string outside of any page cycle. An
// empty target uses the current language. Failures return text unchanged.
func (o *Orchestrator) TranslateText(ctx context.Context, text, target string) string {
	target = normalizeCode(target)
	if target == "" {
		o.mu.Lock()
		target = o.current
		o.mu.Unlock()
	}
	if target == "" || target == o.cfg.Baseline || strings.TrimSpace(text) == "" {
		return text
	}

	out, _, err := o.withRetry(ctx, "text", "", []string{text}, func() ([]string, error) {
		s, err := o.client.TranslateOne(ctx, text, target, o.cfg.Source)
		if err != nil {
			return nil, err
		}
		return []string{s}, nil
	}, nil)
	if err != nil {
		logger.Warn("Text translation fell back to original", "target", target, "kind", kindOf(err), "status", statusOf(err))
		return text
	}
	return out[0]
}

func (o *Orchestrator) setState(s State) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.state = s
	o.notifyLocked()
}

func (o *Orchestrator) snapshotLocked() Snapshot {
	return Snapshot{
		State:                  o.state,
		CurrentTargetLanguage:  o.current,
		IsTranslating:          o.translating,
		LastTranslatedLanguage: o.lastTranslated,
		CycleID:                o.cycleID,
	}
}

func (o *Orchestrator) notifyLocked() {
	if len(o.subscribers) == 0 {
		return
	}
	snap := o.snapshotLocked()
	for _, ch := range o.subscribers {
		select {
		case ch <- snap:
		default:
		}
	}
}

func (o *Orchestrator) report(p Progress) {
	if o.onProgress != nil {
		o.onProgress(p)
	}
}

func (o *Orchestrator) backendName() string {
	if n, ok := o.client.(interface{ BackendName() string }); ok {
		return n.BackendName()
	}
	return "unknown"
}

func sleepContext(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

func allIndexes(n int) []int {
	out := make([]int, n)
	for i := range out {
		out[i] = i
	}
	return out
}

func normalizeCode(code string) string {
	return strings.ToLower(strings.TrimSpace(code))
}

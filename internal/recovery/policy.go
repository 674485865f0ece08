// Package recovery decides how a failed translation request is recovered
// and keeps a bounded history of the failures it has seen.
package recovery

import (
	"time"

	"github.com/kisanseva/pagetrans/internal/apperrors"
)

const (
	DefaultMaxRetries = 3
	DefaultBaseDelay  = 1 * time.Second
	// maxShift keeps base<<attempt from overflowing.
	maxShift = 20
)

// Policy is a pure retry policy. It does not count attempts; callers pass
// the number of attempts already made for the operation.
type Policy struct {
	MaxRetries int
	BaseDelay  time.Duration
}

func DefaultPolicy() Policy {
	return Policy{MaxRetries: DefaultMaxRetries, BaseDelay: DefaultBaseDelay}
}

// Decision is the outcome of classifying one failure.
type Decision struct {
	// Fallback holds the texts to use when the operation is abandoned.
	// It is always a copy of the originals.
	Fallback    []string
	ShouldRetry bool
	RetryDelay  time.Duration
	Kind        apperrors.Kind
	Status      int
}

// FallbackText returns the first fallback text, for single-text operations.
func (d Decision) FallbackText() string {
	if len(d.Fallback) == 0 {
		return ""
	}
	return d.Fallback[0]
}

// Decide classifies err after the given zero-based attempt failed.
// Only network, timeout, 429 and 503 failures are retried, and only
// while attempt < MaxRetries, so an operation runs at most MaxRetries+1
// times. The delay is BaseDelay*2^attempt, with the base doubled for 429.
func (p Policy) Decide(err error, attempt int, originals []string) Decision {
	kind, _ := apperrors.KindOf(err)
	d := Decision{
		Fallback: append([]string(nil), originals...),
		Kind:     kind,
		Status:   apperrors.StatusOf(err),
	}
	if err == nil || attempt < 0 || attempt >= p.MaxRetries || !apperrors.IsRetryable(err) {
		return d
	}
	d.ShouldRetry = true
	d.RetryDelay = p.Backoff(attempt, apperrors.IsRateLimit(err))
	return d
}

// Backoff returns the delay before retrying after the given attempt.
func (p Policy) Backoff(attempt int, rateLimited bool) time.Duration {
	base := p.BaseDelay
	if base <= 0 {
		base = DefaultBaseDelay
	}
	if rateLimited {
		base *= 2
	}
	if attempt > maxShift {
		attempt = maxShift
	}
	if attempt < 0 {
		attempt = 0
	}
	return base << uint(attempt)
}

// CalculateStatus determines the cycle status from failed and total batches.
func CalculateStatus(failedCount, totalCount int) string {
	if failedCount == 0 {
		return "Success"
	}
	if failedCount < totalCount {
		return "Partial Success"
	}
	return "Failure"
}

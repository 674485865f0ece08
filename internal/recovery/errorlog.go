package recovery

import (
	"sync"
	"time"

	"github.com/kisanseva/pagetrans/internal/apperrors"
)

const DefaultMaxLogSize = 100

// ErrorRecord is one classified failure.
type ErrorRecord struct {
	Timestamp time.Time      `json:"timestamp"`
	Kind      apperrors.Kind `json:"kind"`
	Status    int            `json:"status,omitempty"`
	// Message is the safe, user-facing message; it never carries page text.
	Message string `json:"message"`
	// Context names the operation, e.g. "batch 2/3" or "text".
	Context string `json:"context"`
	CycleID string `json:"cycle_id,omitempty"`
	Attempt int    `json:"attempt"`
	Retried bool   `json:"retried"`
}

// ErrorLog is a fixed-capacity ring of ErrorRecords. When full, the oldest
// record is evicted first.
type ErrorLog struct {
	mu      sync.Mutex
	records []ErrorRecord
	start   int
	size    int
}

func NewErrorLog(capacity int) *ErrorLog {
	if capacity <= 0 {
		capacity = DefaultMaxLogSize
	}
	return &ErrorLog{records: make([]ErrorRecord, capacity)}
}

func (l *ErrorLog) Record(r ErrorRecord) {
	l.mu.Lock()
	defer l.mu.Unlock()
	capacity := len(l.records)
	if l.size < capacity {
		l.records[(l.start+l.size)%capacity] = r
		l.size++
		return
	}
	l.records[l.start] = r
	l.start = (l.start + 1) % capacity
}

// Recent returns up to limit of the most recent records, oldest first.
// A limit <= 0 returns every retained record.
func (l *ErrorLog) Recent(limit int) []ErrorRecord {
	l.mu.Lock()
	defer l.mu.Unlock()
	n := l.size
	if limit > 0 && limit < n {
		n = limit
	}
	out := make([]ErrorRecord, n)
	skip := l.size - n
	for i := 0; i < n; i++ {
		out[i] = l.records[(l.start+skip+i)%len(l.records)]
	}
	return out
}

func (l *ErrorLog) Len() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.size
}

func (l *ErrorLog) Capacity() int { return len(l.records) }

// Handler applies a Policy and records every failure it classifies,
// whatever the decision.
type Handler struct {
	Policy Policy
	Log    *ErrorLog
	now    func() time.Time
}

func NewHandler(p Policy, log *ErrorLog) *Handler {
	if log == nil {
		log = NewErrorLog(DefaultMaxLogSize)
	}
	return &Handler{Policy: p, Log: log, now: time.Now}
}

// Handle decides how to recover from err and appends an ErrorRecord.
func (h *Handler) Handle(err error, attempt int, originals []string, context, cycleID string) Decision {
	d := h.Policy.Decide(err, attempt, originals)
	h.Log.Record(ErrorRecord{
		Timestamp: h.now(),
		Kind:      d.Kind,
		Status:    d.Status,
		Message:   apperrors.PublicMessage(err),
		Context:   context,
		CycleID:   cycleID,
		Attempt:   attempt,
		Retried:   d.ShouldRetry,
	})
	return d
}

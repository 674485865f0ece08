package recovery

import (
	"errors"
	"fmt"
	"net/http"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"testing"
	"time"

	"github.com/kisanseva/pagetrans/internal/apperrors"
)

func TestDecide_RetryableKinds(t *testing.T) {
	p := Policy{MaxRetries: 3, BaseDelay: 100 * time.Millisecond}
	tests := []struct {
		name  string
		err   error
		retry bool
	}{
		{"network", apperrors.Network(errors.New("dial")), true},
		{"timeout", apperrors.Timeout(errors.New("deadline")), true},
		{"rate limited", apperrors.Service(http.StatusTooManyRequests, "", nil), true},
		{"unavailable", apperrors.Service(http.StatusServiceUnavailable, "", nil), true},
		{"malformed", apperrors.Service(http.StatusBadRequest, "", nil), false},
		{"server error", apperrors.Service(http.StatusInternalServerError, "", nil), false},
		{"bad gateway", apperrors.Service(http.StatusBadGateway, "", nil), false},
		{"unsupported pair", apperrors.UnsupportedLanguage(nil), false},
		{"generic", apperrors.Generic(errors.New("boom")), false},
		{"plain error", errors.New("plain"), false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			d := p.Decide(tt.err, 0, []string{"Hello"})
			if d.ShouldRetry != tt.retry {
				t.Fatalf("ShouldRetry = %v, want %v", d.ShouldRetry, tt.retry)
			}
			if d.FallbackText() != "Hello" {
				t.Fatalf("fallback must be the original text, got %q", d.FallbackText())
			}
			if !tt.retry && d.RetryDelay != 0 {
				t.Fatalf("expected zero delay for terminal failure, got %v", d.RetryDelay)
			}
		})
	}
}

func TestDecide_BoundedAndIncreasing(t *testing.T) {
	p := Policy{MaxRetries: 3, BaseDelay: 100 * time.Millisecond}
	err := apperrors.Service(http.StatusTooManyRequests, "", nil)

	var delays []time.Duration
	attempts := 0
	for attempt := 0; ; attempt++ {
		attempts++
		d := p.Decide(err, attempt, nil)
		if !d.ShouldRetry {
			break
		}
		delays = append(delays, d.RetryDelay)
	}
	if attempts != p.MaxRetries+1 {
		t.Fatalf("expected %d attempts, got %d", p.MaxRetries+1, attempts)
	}
	want := []time.Duration{200 * time.Millisecond, 400 * time.Millisecond, 800 * time.Millisecond}
	for i, d := range delays {
		if d != want[i] {
			t.Errorf("delay %d = %v, want %v", i, d, want[i])
		}
		if i > 0 && delays[i] <= delays[i-1] {
			t.Errorf("delays not strictly increasing: %v", delays)
		}
	}
}

func TestDecide_FallbackIsCopy(t *testing.T) {
	originals := []string{"a1", "b2"}
	d := DefaultPolicy().Decide(apperrors.Generic(nil), 0, originals)
	d.Fallback[0] = "changed"
	if originals[0] != "a1" {
		t.Fatalf("decision must not alias the originals")
	}
}

func TestBackoff(t *testing.T) {
	p := Policy{BaseDelay: time.Second}
	if got := p.Backoff(0, false); got != time.Second {
		t.Errorf("Backoff(0) = %v", got)
	}
	if got := p.Backoff(2, false); got != 4*time.Second {
		t.Errorf("Backoff(2) = %v", got)
	}
	if got := p.Backoff(2, true); got != 8*time.Second {
		t.Errorf("Backoff(2, rate limited) = %v", got)
	}
}

func TestCalculateStatus(t *testing.T) {
	tests := []struct {
		failed, total int
		want          string
	}{
		{0, 3, "Success"},
		{0, 0, "Success"},
		{1, 3, "Partial Success"},
		{3, 3, "Failure"},
	}
	for _, tt := range tests {
		if got := CalculateStatus(tt.failed, tt.total); got != tt.want {
			t.Errorf("CalculateStatus(%d, %d) = %q, want %q", tt.failed, tt.total, got, tt.want)
		}
	}
}

func TestErrorLog_FIFOEviction(t *testing.T) {
	log := NewErrorLog(100)
	for i := 0; i < 150; i++ {
		log.Record(ErrorRecord{Context: fmt.Sprintf("e%d", i)})
	}
	if log.Len() != 100 {
		t.Fatalf("expected 100 records, got %d", log.Len())
	}
	all := log.Recent(0)
	if all[0].Context != "e50" || all[99].Context != "e149" {
		t.Fatalf("unexpected retained range: %s..%s", all[0].Context, all[99].Context)
	}
	last := log.Recent(3)
	if len(last) != 3 || last[0].Context != "e147" || last[2].Context != "e149" {
		t.Fatalf("Recent(3) = %+v", last)
	}
}

func TestErrorLog_PartiallyFilled(t *testing.T) {
	log := NewErrorLog(5)
	log.Record(ErrorRecord{Context: "one"})
	log.Record(ErrorRecord{Context: "two"})
	got := log.Recent(10)
	if len(got) != 2 || got[0].Context != "one" || got[1].Context != "two" {
		t.Fatalf("Recent(10) = %+v", got)
	}
}

func TestHandler_RecordsEveryDecision(t *testing.T) {
	h := NewHandler(Policy{MaxRetries: 1, BaseDelay: time.Millisecond}, NewErrorLog(10))
	fixed := time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)
	h.now = func() time.Time { return fixed }

	err := apperrors.Service(http.StatusServiceUnavailable, "", nil)
	first := h.Handle(err, 0, []string{"x"}, "batch 1/1", "cycle-1")
	second := h.Handle(err, 1, []string{"x"}, "batch 1/1", "cycle-1")
	if !first.ShouldRetry || second.ShouldRetry {
		t.Fatalf("unexpected decisions: %+v %+v", first, second)
	}

	records := h.Log.Recent(0)
	if len(records) != 2 {
		t.Fatalf("expected 2 records, got %d", len(records))
	}
	r := records[1]
	if r.Kind != apperrors.KindService || r.Status != 503 || r.Retried || r.Attempt != 1 {
		t.Fatalf("unexpected record: %+v", r)
	}
	if !r.Timestamp.Equal(fixed) || r.CycleID != "cycle-1" {
		t.Fatalf("unexpected record metadata: %+v", r)
	}
	if !strings.Contains(r.Message, "503") {
		t.Fatalf("expected safe message, got %q", r.Message)
	}
}

func TestSaveReport_Permissions(t *testing.T) {
	if runtime.GOOS == "windows" {
		t.Skip("Skipping permission test on Windows")
	}
	path := filepath.Join(t.TempDir(), "page_errors.json")
	r := &Report{
		CycleID:       "c-1",
		Status:        "Partial Success",
		TotalBatches:  2,
		FailedBatches: []int{1},
		Errors:        []ErrorRecord{{Kind: apperrors.KindService, Status: 503}},
	}
	written, err := SaveReport(path, r)
	if err != nil {
		t.Fatalf("SaveReport failed: %v", err)
	}
	if written != path {
		t.Fatalf("expected %q, got %q", path, written)
	}

	loaded, err := LoadReport(path)
	if err != nil {
		t.Fatalf("LoadReport failed: %v", err)
	}
	if loaded.ReportVersion != CurrentReportVersion || len(loaded.Errors) != 1 || loaded.FailedBatches[0] != 1 {
		t.Fatalf("unexpected report: %+v", loaded)
	}

	info, err := os.Stat(path)
	if err != nil {
		t.Fatalf("Stat failed: %v", err)
	}
	if mode := info.Mode().Perm(); mode != 0600 {
		t.Errorf("expected permission 0600, got %o", mode)
	}
}

func TestReport_Validate(t *testing.T) {
	valid := Report{CycleID: "c", Status: "Failure", TotalBatches: 1, FailedBatches: []int{0}}

	t.Run("valid", func(t *testing.T) {
		r := valid
		if err := r.Validate(); err != nil {
			t.Fatalf("expected valid report, got %v", err)
		}
	})
	t.Run("index out of range", func(t *testing.T) {
		r := valid
		r.FailedBatches = []int{3}
		if err := r.Validate(); err == nil || !strings.Contains(err.Error(), "out of range") {
			t.Fatalf("expected range error, got %v", err)
		}
	})
	t.Run("missing cycle id", func(t *testing.T) {
		r := valid
		r.CycleID = ""
		if err := r.Validate(); err == nil {
			t.Fatalf("expected error for missing cycle_id")
		}
	})
}

func TestGenerateReportPath(t *testing.T) {
	dir := t.TempDir()
	out := filepath.Join(dir, "index.hi.html")

	first := GenerateReportPath(out)
	if filepath.Base(first) != "index.hi_errors.json" {
		t.Fatalf("unexpected primary path %q", first)
	}
	if err := os.WriteFile(first, []byte("{}"), 0600); err != nil {
		t.Fatalf("write failed: %v", err)
	}
	second := GenerateReportPath(out)
	if filepath.Base(second) != "index.hi_errors_0.json" {
		t.Fatalf("unexpected second path %q", second)
	}
}

func TestReportPaths_RoundTrip(t *testing.T) {
	dir := t.TempDir()
	reportPath := filepath.Join(dir, "reports", "page_errors.json")
	input := filepath.Join(dir, "site", "index.html")

	rel, err := RelativeToReport(reportPath, input)
	if err != nil {
		t.Fatalf("RelativeToReport failed: %v", err)
	}
	if filepath.IsAbs(rel) {
		t.Fatalf("expected relative path, got %q", rel)
	}
	if got := ResolveFromReport(reportPath, rel); got != input {
		t.Fatalf("ResolveFromReport() = %q, want %q", got, input)
	}
}

func TestHashFileHex(t *testing.T) {
	path := filepath.Join(t.TempDir(), "page.html")
	if err := os.WriteFile(path, []byte("abc"), 0600); err != nil {
		t.Fatalf("write failed: %v", err)
	}
	got, err := HashFileHex(path)
	if err != nil {
		t.Fatalf("HashFileHex failed: %v", err)
	}
	want := "sha256:ba7816bf8f01cfea414140de5dae2223b00361a396177a9cb410ff61f20015ad"
	if got != want {
		t.Fatalf("HashFileHex() = %q, want %q", got, want)
	}
}

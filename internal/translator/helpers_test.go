package translator

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/kisanseva/pagetrans/internal/document"
	"github.com/kisanseva/pagetrans/internal/recovery"
)

// fakeClient records every request. By default it prefixes texts with the
// target code.
type fakeClient struct {
	mu        sync.Mutex
	batches   [][]string
	oneCalls  []string
	batchFunc func(call int, texts []string) ([]string, error)
	oneFunc   func(text string) (string, error)
}

func (c *fakeClient) TranslateBatch(ctx context.Context, texts []string, target, source string) ([]string, error) {
	c.mu.Lock()
	call := len(c.batches)
	c.batches = append(c.batches, append([]string(nil), texts...))
	fn := c.batchFunc
	c.mu.Unlock()
	if fn != nil {
		return fn(call, texts)
	}
	out := make([]string, len(texts))
	for i, t := range texts {
		out[i] = "[" + target + "] " + t
	}
	return out, nil
}

func (c *fakeClient) TranslateOne(ctx context.Context, text, target, source string) (string, error) {
	c.mu.Lock()
	c.oneCalls = append(c.oneCalls, text)
	fn := c.oneFunc
	c.mu.Unlock()
	if fn != nil {
		return fn(text)
	}
	return "[" + target + "] " + text, nil
}

func (c *fakeClient) batchCalls() [][]string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([][]string(nil), c.batches...)
}

func (c *fakeClient) singleCalls() []string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]string(nil), c.oneCalls...)
}

type sleepRecorder struct {
	mu     sync.Mutex
	delays []time.Duration
}

func (s *sleepRecorder) sleep(ctx context.Context, d time.Duration) error {
	s.mu.Lock()
	s.delays = append(s.delays, d)
	s.mu.Unlock()
	return ctx.Err()
}

func (s *sleepRecorder) recorded() []time.Duration {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]time.Duration(nil), s.delays...)
}

func newPage(t *testing.T, n int) *document.HTML {
	t.Helper()
	var b strings.Builder
	b.WriteString("<html lang=\"en\"><body>")
	for i := 0; i < n; i++ {
		fmt.Fprintf(&b, "<p>text-%d</p>", i)
	}
	b.WriteString("</body></html>")
	doc, err := document.Parse(strings.NewReader(b.String()))
	if err != nil {
		t.Fatalf("Parse failed: %v", err)
	}
	return doc
}

// pageTexts returns the non-blank text nodes of doc in document order.
func pageTexts(t *testing.T, doc *document.HTML) []string {
	t.Helper()
	var out []string
	for _, n := range doc.TextNodes() {
		s, err := doc.ReadText(n)
		if err != nil {
			t.Fatalf("ReadText failed: %v", err)
		}
		if strings.TrimSpace(s) != "" {
			out = append(out, s)
		}
	}
	return out
}

func testConfig(batchSize int) Config {
	cfg := DefaultConfig()
	cfg.MaxBatchSize = batchSize
	cfg.Policy = recovery.Policy{MaxRetries: 3, BaseDelay: 100 * time.Millisecond}
	return cfg
}

func newTestOrchestrator(t *testing.T, doc *document.HTML, client Client, cfg Config, opts ...Option) (*Orchestrator, *sleepRecorder) {
	t.Helper()
	rec := &sleepRecorder{}
	ids := 0
	opts = append([]Option{
		WithSleep(rec.sleep),
		WithCycleIDs(func() string {
			ids++
			return fmt.Sprintf("cycle-%d", ids)
		}),
	}, opts...)
	o, err := New(doc, client, cfg, opts...)
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}
	return o, rec
}

package translation

import (
	"context"
	"strings"
	"sync"
)

// MockBackend is a scriptable Backend for tests. TranslateFunc defaults to
// prefixing the text with "[target] ".
type MockBackend struct {
	TranslateFunc func(ctx context.Context, text, source, target string) (string, error)
	DetectResult  []Detection
	DetectError   error
	LanguageList  []Language

	mu    sync.Mutex
	calls []string
}

func (m *MockBackend) Name() string { return "mock" }

func (m *MockBackend) Translate(ctx context.Context, text, source, target string) (string, error) {
	m.mu.Lock()
	m.calls = append(m.calls, text)
	m.mu.Unlock()
	if m.TranslateFunc != nil {
		return m.TranslateFunc(ctx, text, source, target)
	}
	return "[" + target + "] " + text, nil
}

func (m *MockBackend) Detect(ctx context.Context, text string) ([]Detection, error) {
	return m.DetectResult, m.DetectError
}

func (m *MockBackend) Languages(ctx context.Context) ([]Language, error) {
	return m.LanguageList, nil
}

// Calls returns the texts passed to Translate, in call order.
func (m *MockBackend) Calls() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]string(nil), m.calls...)
}

// MockBatchBackend adds a batch endpoint to MockBackend and records the
// size of every batch request.
type MockBatchBackend struct {
	MockBackend
	BatchFunc func(ctx context.Context, texts []string, source, target string) ([]string, error)

	batchMu    sync.Mutex
	batchSizes []int
}

func (m *MockBatchBackend) TranslateBatch(ctx context.Context, texts []string, source, target string) ([]string, error) {
	m.batchMu.Lock()
	m.batchSizes = append(m.batchSizes, len(texts))
	m.batchMu.Unlock()
	if m.BatchFunc != nil {
		return m.BatchFunc(ctx, texts, source, target)
	}
	out := make([]string, len(texts))
	for i, t := range texts {
		out[i] = strings.ToUpper(t)
	}
	return out, nil
}

func (m *MockBatchBackend) BatchSizes() []int {
	m.batchMu.Lock()
	defer m.batchMu.Unlock()
	return append([]int(nil), m.batchSizes...)
}

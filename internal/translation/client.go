// Package translation is the stateless adapter between the orchestrator and
// a translation backend. It raises typed failures and never falls back on
// its own.
package translation

import (
	"context"
	"fmt"
	"strings"

	"github.com/kisanseva/pagetrans/internal/apperrors"
)

// AutoSource asks the backend to detect the source language.
const AutoSource = "auto"

// Detection is one candidate language for a detected text.
type Detection struct {
	Language   string  `json:"language"`
	Confidence float64 `json:"confidence"`
}

// Language is a language advertised by a backend.
type Language struct {
	Code    string   `json:"code"`
	Name    string   `json:"name"`
	Targets []string `json:"targets,omitempty"`
}

// Backend performs single translations against a remote service.
type Backend interface {
	Name() string
	Translate(ctx context.Context, text, source, target string) (string, error)
	Detect(ctx context.Context, text string) ([]Detection, error)
	Languages(ctx context.Context) ([]Language, error)
}

// BatchBackend is implemented by backends that translate several texts in
// one request. Results must be aligned with texts.
type BatchBackend interface {
	TranslateBatch(ctx context.Context, texts []string, source, target string) ([]string, error)
}

// Usage is token usage reported by LLM backends.
type Usage struct {
	InputTokens  int
	OutputTokens int
}

// UsageReporter is implemented by backends that count tokens.
type UsageReporter interface {
	TokenUsage() Usage
}

// Unwrapper is implemented by decorators around a Backend.
type Unwrapper interface {
	Unwrap() Backend
}

type Client struct {
	backend         Backend
	useBatch        bool
	supported       map[string]bool
	defaultLanguage string
}

type Option func(*Client)

// WithBatchEndpoint makes TranslateBatch use the backend's batch request
// when it has one.
func WithBatchEndpoint(enabled bool) Option {
	return func(c *Client) { c.useBatch = enabled }
}

// WithSupportedLanguages restricts accepted target codes. Without it every
// target is passed to the backend.
func WithSupportedLanguages(codes ...string) Option {
	return func(c *Client) {
		if len(codes) == 0 {
			return
		}
		c.supported = make(map[string]bool, len(codes))
		for _, code := range codes {
			c.supported[normalizeCode(code)] = true
		}
	}
}

// WithDefaultLanguage sets the code DetectLanguage returns when detection fails.
func WithDefaultLanguage(code string) Option {
	return func(c *Client) {
		if code != "" {
			c.defaultLanguage = normalizeCode(code)
		}
	}
}

func NewClient(backend Backend, opts ...Option) *Client {
	c := &Client{backend: backend, defaultLanguage: "en"}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

func (c *Client) BackendName() string { return c.backend.Name() }

// Usage returns the backend's accumulated token usage. ok is false for
// backends that do not count tokens.
func (c *Client) Usage() (Usage, bool) {
	b := c.backend
	for {
		if r, ok := b.(UsageReporter); ok {
			return r.TokenUsage(), true
		}
		u, ok := b.(Unwrapper)
		if !ok {
			return Usage{}, false
		}
		b = u.Unwrap()
	}
}

// TranslateOne translates a single text. Blank input is returned unchanged
// without contacting the backend.
func (c *Client) TranslateOne(ctx context.Context, text, target, source string) (string, error) {
	if strings.TrimSpace(text) == "" {
		return text, nil
	}
	if err := c.checkTarget(target); err != nil {
		return "", err
	}
	out, err := c.backend.Translate(ctx, text, sourceOrAuto(source), normalizeCode(target))
	if err != nil {
		return "", err
	}
	if strings.TrimSpace(out) == "" {
		return "", apperrors.Generic(fmt.Errorf("%s returned an empty translation", c.backend.Name()))
	}
	return out, nil
}

// TranslateBatch translates texts and returns results in the same order.
// The first failing text aborts the whole call.
func (c *Client) TranslateBatch(ctx context.Context, texts []string, target, source string) ([]string, error) {
	if len(texts) == 0 {
		return nil, nil
	}
	if err := c.checkTarget(target); err != nil {
		return nil, err
	}
	if bb, ok := c.backend.(BatchBackend); ok && c.useBatch {
		return c.translateBatchRequest(ctx, bb, texts, target, source)
	}

	out := make([]string, len(texts))
	for i, text := range texts {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		translated, err := c.TranslateOne(ctx, text, target, source)
		if err != nil {
			return nil, err
		}
		out[i] = translated
	}
	return out, nil
}

func (c *Client) translateBatchRequest(ctx context.Context, bb BatchBackend, texts []string, target, source string) ([]string, error) {
	out, err := bb.TranslateBatch(ctx, texts, sourceOrAuto(source), normalizeCode(target))
	if err != nil {
		return nil, err
	}
	if len(out) != len(texts) {
		return nil, apperrors.Generic(fmt.Errorf("batch result count mismatch: expected %d, got %d", len(texts), len(out)))
	}
	for i, s := range out {
		if strings.TrimSpace(s) == "" && strings.TrimSpace(texts[i]) != "" {
			return nil, apperrors.Generic(fmt.Errorf("empty translation for batch item %d", i))
		}
	}
	return out, nil
}

// DetectLanguage returns the most likely language of text, or the default
// language when detection fails for any reason.
func (c *Client) DetectLanguage(ctx context.Context, text string) string {
	if strings.TrimSpace(text) == "" {
		return c.defaultLanguage
	}
	detections, err := c.backend.Detect(ctx, text)
	if err != nil || len(detections) == 0 {
		return c.defaultLanguage
	}
	best := detections[0]
	for _, d := range detections[1:] {
		if d.Confidence > best.Confidence {
			best = d
		}
	}
	if best.Language == "" {
		return c.defaultLanguage
	}
	return normalizeCode(best.Language)
}

func (c *Client) Languages(ctx context.Context) ([]Language, error) {
	return c.backend.Languages(ctx)
}

func (c *Client) checkTarget(target string) error {
	code := normalizeCode(target)
	if code == "" || code == AutoSource {
		return apperrors.UnsupportedLanguage(fmt.Errorf("invalid target language %q", target))
	}
	if c.supported != nil && !c.supported[code] {
		return apperrors.UnsupportedLanguage(fmt.Errorf("target language %q is not supported", target))
	}
	return nil
}

func sourceOrAuto(source string) string {
	if s := normalizeCode(source); s != "" {
		return s
	}
	return AutoSource
}

func normalizeCode(code string) string {
	return strings.ToLower(strings.TrimSpace(code))
}

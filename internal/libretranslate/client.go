// Package libretranslate is a translation.Backend for LibreTranslate
// compatible servers.
package libretranslate

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/kisanseva/pagetrans/internal/apperrors"
	"github.com/kisanseva/pagetrans/internal/httpclient"
	"github.com/kisanseva/pagetrans/internal/translation"
)

const DefaultBaseURL = "http://localhost:5000"

type translateRequest struct {
	Q      any    `json:"q"`
	Source string `json:"source"`
	Target string `json:"target"`
	Format string `json:"format"`
	APIKey string `json:"api_key,omitempty"`
}

type translateResponse struct {
	TranslatedText json.RawMessage `json:"translatedText"`
}

type detectRequest struct {
	Q      string `json:"q"`
	APIKey string `json:"api_key,omitempty"`
}

type errorEnvelope struct {
	Error string `json:"error"`
}

type Client struct {
	apiKey     string
	baseURL    string
	httpClient *http.Client
}

var (
	_ translation.Backend      = (*Client)(nil)
	_ translation.BatchBackend = (*Client)(nil)
)

// NewClient returns a client for the server at baseURL. A timeout <= 0
// uses the shared default client.
func NewClient(baseURL, apiKey string, timeout time.Duration) *Client {
	if strings.TrimSpace(baseURL) == "" {
		baseURL = DefaultBaseURL
	}
	hc := httpclient.GetDefaultClient()
	if timeout > 0 && timeout != httpclient.DefaultTimeout {
		hc = httpclient.NewClient(timeout)
	}
	return &Client{
		apiKey:     apiKey,
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: hc,
	}
}

func (c *Client) Name() string { return "libretranslate" }

func (c *Client) Translate(ctx context.Context, text, source, target string) (string, error) {
	raw, err := c.translate(ctx, text, source, target)
	if err != nil {
		return "", err
	}
	var out string
	if err := json.Unmarshal(raw, &out); err != nil {
		return "", apperrors.New(apperrors.KindGeneric, "LibreTranslate response format was invalid.", fmt.Errorf("failed to decode translatedText: %w", err))
	}
	return out, nil
}

// TranslateBatch sends all texts in one request using the array form of q.
func (c *Client) TranslateBatch(ctx context.Context, texts []string, source, target string) ([]string, error) {
	raw, err := c.translate(ctx, texts, source, target)
	if err != nil {
		return nil, err
	}
	var out []string
	if err := json.Unmarshal(raw, &out); err != nil {
		return nil, apperrors.New(apperrors.KindGeneric, "LibreTranslate response format was invalid.", fmt.Errorf("failed to decode translatedText array: %w", err))
	}
	return out, nil
}

func (c *Client) translate(ctx context.Context, q any, source, target string) (json.RawMessage, error) {
	req := translateRequest{
		Q:      q,
		Source: source,
		Target: target,
		Format: "text",
		APIKey: c.apiKey,
	}
	body, err := c.post(ctx, "/translate", req)
	if err != nil {
		return nil, err
	}
	var result translateResponse
	if err := json.Unmarshal(body, &result); err != nil || len(result.TranslatedText) == 0 {
		if err == nil {
			err = fmt.Errorf("translatedText missing")
		}
		return nil, apperrors.New(apperrors.KindGeneric, "LibreTranslate response format was invalid.", fmt.Errorf("failed to decode response: %w", err))
	}
	return result.TranslatedText, nil
}

func (c *Client) Detect(ctx context.Context, text string) ([]translation.Detection, error) {
	body, err := c.post(ctx, "/detect", detectRequest{Q: text, APIKey: c.apiKey})
	if err != nil {
		return nil, err
	}
	var out []translation.Detection
	if err := json.Unmarshal(body, &out); err != nil {
		return nil, apperrors.New(apperrors.KindGeneric, "LibreTranslate response format was invalid.", fmt.Errorf("failed to decode detections: %w", err))
	}
	return out, nil
}

func (c *Client) Languages(ctx context.Context) ([]translation.Language, error) {
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/languages", nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	body, err := c.do(httpReq)
	if err != nil {
		return nil, err
	}
	var out []translation.Language
	if err := json.Unmarshal(body, &out); err != nil {
		return nil, apperrors.New(apperrors.KindGeneric, "LibreTranslate response format was invalid.", fmt.Errorf("failed to decode languages: %w", err))
	}
	return out, nil
}

func (c *Client) post(ctx context.Context, path string, payload any) ([]byte, error) {
	jsonData, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal request: %w", err)
	}
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, bytes.NewReader(jsonData))
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	return c.do(httpReq)
}

func (c *Client) do(httpReq *http.Request) ([]byte, error) {
	httpReq.Header.Set("Accept", "application/json")
	start := time.Now()
	body, resp, err := httpclient.DoAndRead(c.httpClient, httpReq)
	if err != nil {
		if resp == nil {
			return nil, httpclient.ClassifyTransportError(err)
		}
		return nil, apperrors.Network(err)
	}
	slog.Debug("LibreTranslate response", "path", httpReq.URL.Path, "status", resp.StatusCode, "elapsed", time.Since(start))

	if resp.StatusCode != http.StatusOK {
		return nil, classifyLibreError(resp.StatusCode, body)
	}
	return body, nil
}

// classifyLibreError maps an error response to the failure taxonomy. The
// server reports unsupported language pairs as 400 with a descriptive
// message; those are not malformed requests.
func classifyLibreError(statusCode int, body []byte) error {
	var envelope errorEnvelope
	_ = json.Unmarshal(body, &envelope)
	msg := strings.ToLower(envelope.Error)

	if statusCode == http.StatusBadRequest && strings.Contains(msg, "not supported") {
		return apperrors.UnsupportedLanguage(fmt.Errorf("libretranslate status=%d message=%s", statusCode, envelope.Error))
	}
	switch statusCode {
	case http.StatusUnauthorized, http.StatusForbidden:
		return apperrors.Service(statusCode,
			fmt.Sprintf("LibreTranslate rejected the API key (%d): please verify it.", statusCode),
			fmt.Errorf("libretranslate status=%d message=%s", statusCode, envelope.Error))
	}
	return httpclient.ClassifyStatus(statusCode, body)
}

// Package openai is a translation.Backend that asks an OpenAI model, through
// the Responses API, to translate whole batches with a strict JSON schema.
package openai

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/kisanseva/pagetrans/internal/apperrors"
	"github.com/kisanseva/pagetrans/internal/httpclient"
	"github.com/kisanseva/pagetrans/internal/language"
	"github.com/kisanseva/pagetrans/internal/translation"
)

const DefaultBaseURL = "https://api.openai.com/v1"

const instructions = `You translate short user-interface texts of a farmer-services website.
The user message is a JSON object with 'source', 'target' and 'texts'.
- 'source' is a language code or "auto".
- Translate every element of 'texts' into the 'target' language.
- Keep numbers, units, product names and scheme names unchanged.
Return exactly one translation per input text, in the same order.
If the message has 'task' set to "detect", return the language code of its 'text' and a confidence between 0 and 1.`

// requestData is the body of a Responses API call.
type requestData struct {
	Model        string       `json:"model"`
	Instructions string       `json:"instructions,omitempty"`
	Input        []inputItem  `json:"input"`
	Text         *textOptions `json:"text,omitempty"`
}

type inputItem struct {
	Type    string `json:"type"`
	Role    string `json:"role,omitempty"`
	Content string `json:"content,omitempty"`
}

type textOptions struct {
	Format *responseFormat `json:"format,omitempty"`
}

type responseFormat struct {
	Type   string `json:"type"`
	Name   string `json:"name,omitempty"`
	Strict bool   `json:"strict,omitempty"`
	Schema any    `json:"schema,omitempty"`
}

type responseData struct {
	ID                string             `json:"id"`
	Status            string             `json:"status"`
	IncompleteDetails *incompleteDetails `json:"incomplete_details,omitempty"`
	Output            []outputItem       `json:"output"`
	Usage             Usage              `json:"usage"`
}

type incompleteDetails struct {
	Reason string `json:"reason"`
}

type outputItem struct {
	Type    string            `json:"type"`
	Content []responseContent `json:"content,omitempty"`
}

type responseContent struct {
	Type string `json:"type"`
	Text string `json:"text,omitempty"`
}

// Usage is the token usage reported by the API.
type Usage struct {
	InputTokens  int `json:"input_tokens"`
	OutputTokens int `json:"output_tokens"`
	TotalTokens  int `json:"total_tokens"`
}

type errorEnvelope struct {
	Error errorDetails `json:"error"`
}

type errorDetails struct {
	Message string `json:"message"`
	Type    string `json:"type"`
	Code    any    `json:"code"`
}

func (e errorDetails) codeString() string {
	if e.Code == nil {
		return ""
	}
	return fmt.Sprint(e.Code)
}

type batchRequest struct {
	Source string   `json:"source"`
	Target string   `json:"target"`
	Texts  []string `json:"texts"`
}

type batchResponse struct {
	Translations []string `json:"translations"`
}

type detectRequest struct {
	Task string `json:"task"`
	Text string `json:"text"`
}

type detectResponse struct {
	Language   string  `json:"language"`
	Confidence float64 `json:"confidence"`
}

var batchSchema = map[string]any{
	"type": "object",
	"properties": map[string]any{
		"translations": map[string]any{"type": "array", "items": map[string]any{"type": "string"}},
	},
	"required":             []string{"translations"},
	"additionalProperties": false,
}

var detectSchema = map[string]any{
	"type": "object",
	"properties": map[string]any{
		"language":   map[string]any{"type": "string"},
		"confidence": map[string]any{"type": "number"},
	},
	"required":             []string{"language", "confidence"},
	"additionalProperties": false,
}

type Client struct {
	apiKey     string
	model      string
	baseURL    string
	httpClient *http.Client

	usageMu sync.Mutex
	usage   Usage
}

var (
	_ translation.Backend       = (*Client)(nil)
	_ translation.BatchBackend  = (*Client)(nil)
	_ translation.UsageReporter = (*Client)(nil)
)

// NewClient returns a client for model. A timeout <= 0 uses the shared
// default client.
func NewClient(apiKey, model string, timeout time.Duration) *Client {
	hc := httpclient.GetDefaultClient()
	if timeout > 0 && timeout != httpclient.DefaultTimeout {
		hc = httpclient.NewClient(timeout)
	}
	return &Client{
		apiKey:     apiKey,
		model:      model,
		baseURL:    DefaultBaseURL,
		httpClient: hc,
	}
}

// WithBaseURL points the client at an OpenAI-compatible server.
func (c *Client) WithBaseURL(baseURL string) *Client {
	if baseURL = strings.TrimSpace(baseURL); baseURL != "" {
		c.baseURL = strings.TrimRight(baseURL, "/")
	}
	return c
}

func (c *Client) Name() string { return "openai" }

// GetModelID returns the configured model identifier.
func (c *Client) GetModelID() string {
	return c.model
}

func (c *Client) Translate(ctx context.Context, text, source, target string) (string, error) {
	out, err := c.TranslateBatch(ctx, []string{text}, source, target)
	if err != nil {
		return "", err
	}
	return out[0], nil
}

// TranslateBatch translates texts in one request. A response whose length
// differs from the input is rejected as a whole.
func (c *Client) TranslateBatch(ctx context.Context, texts []string, source, target string) ([]string, error) {
	var resp batchResponse
	if err := c.generateJSON(ctx, batchRequest{Source: source, Target: target, Texts: texts}, "translations", batchSchema, &resp); err != nil {
		return nil, err
	}
	if len(resp.Translations) != len(texts) {
		return nil, apperrors.Generic(fmt.Errorf("translation count mismatch: expected %d, got %d", len(texts), len(resp.Translations)))
	}
	return resp.Translations, nil
}

func (c *Client) Detect(ctx context.Context, text string) ([]translation.Detection, error) {
	var resp detectResponse
	if err := c.generateJSON(ctx, detectRequest{Task: "detect", Text: text}, "detection", detectSchema, &resp); err != nil {
		return nil, err
	}
	if resp.Language == "" {
		return nil, nil
	}
	return []translation.Detection{{Language: resp.Language, Confidence: resp.Confidence * 100}}, nil
}

// Languages lists the built-in language table.
func (c *Client) Languages(context.Context) ([]translation.Language, error) {
	entries := language.GetSupportedLanguages()
	out := make([]translation.Language, 0, len(entries))
	for _, e := range entries {
		out = append(out, translation.Language{Code: e.Code, Name: e.Name})
	}
	return out, nil
}

func (c *Client) generateJSON(ctx context.Context, request any, schemaName string, schema any, out any) error {
	payload, err := json.Marshal(request)
	if err != nil {
		return fmt.Errorf("failed to marshal request: %w", err)
	}
	resp, err := c.generate(ctx, requestData{
		Instructions: instructions,
		Input:        []inputItem{{Type: "message", Role: "user", Content: string(payload)}},
		Text: &textOptions{Format: &responseFormat{
			Type:   "json_schema",
			Name:   schemaName,
			Strict: true,
			Schema: schema,
		}},
	})
	if err != nil {
		return err
	}
	if resp.Status == "incomplete" {
		reason := ""
		if resp.IncompleteDetails != nil {
			reason = resp.IncompleteDetails.Reason
		}
		return apperrors.New(apperrors.KindGeneric, "OpenAI response was incomplete.", fmt.Errorf("incomplete response: %s", reason))
	}
	text := outputText(resp)
	if text == "" {
		return apperrors.Generic(fmt.Errorf("no output text in OpenAI response"))
	}
	if err := json.Unmarshal([]byte(text), out); err != nil {
		// The raw text is page content; keep it out of the error.
		return apperrors.New(apperrors.KindGeneric, "OpenAI response format was invalid.", fmt.Errorf("failed to unmarshal response: %w", err))
	}
	return nil
}

func (c *Client) generate(ctx context.Context, req requestData) (*responseData, error) {
	req.Model = c.model

	jsonData, err := json.Marshal(req)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/responses", bytes.NewReader(jsonData))
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Authorization", "Bearer "+c.apiKey)

	body, resp, err := httpclient.DoAndRead(c.httpClient, httpReq)
	if err != nil {
		return nil, httpclient.ClassifyTransportError(err)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, classifyOpenAIError(resp.StatusCode, resp.Status, parseErrorDetails(body))
	}

	var result responseData
	if err := json.Unmarshal(body, &result); err != nil {
		return nil, apperrors.New(apperrors.KindGeneric, "OpenAI response format was invalid.", fmt.Errorf("failed to decode response: %w", err))
	}
	c.usageMu.Lock()
	c.usage.InputTokens += result.Usage.InputTokens
	c.usage.OutputTokens += result.Usage.OutputTokens
	c.usage.TotalTokens += result.Usage.TotalTokens
	c.usageMu.Unlock()

	slog.Debug("OpenAI API Response", "status", resp.Status, "usage_total", result.Usage.TotalTokens, "response_id", result.ID)
	return &result, nil
}

// GetUsage returns the total token usage.
func (c *Client) GetUsage() Usage {
	c.usageMu.Lock()
	defer c.usageMu.Unlock()
	return c.usage
}

func (c *Client) TokenUsage() translation.Usage {
	u := c.GetUsage()
	return translation.Usage{InputTokens: u.InputTokens, OutputTokens: u.OutputTokens}
}

func outputText(resp *responseData) string {
	var b strings.Builder
	for _, item := range resp.Output {
		if item.Type != "message" {
			continue
		}
		for _, c := range item.Content {
			if c.Type == "output_text" {
				b.WriteString(c.Text)
			}
		}
	}
	return b.String()
}

func parseErrorDetails(body []byte) errorDetails {
	var envelope errorEnvelope
	if err := json.Unmarshal(body, &envelope); err != nil {
		return errorDetails{}
	}
	return envelope.Error
}

func classifyOpenAIError(statusCode int, status string, details errorDetails) error {
	cause := fmt.Errorf("openai status=%s type=%s code=%s message=%s", status, details.Type, details.codeString(), details.Message)

	switch statusCode {
	case http.StatusTooManyRequests:
		return apperrors.Service(statusCode, "OpenAI API rate limit exceeded (429). Please try again later.", cause)
	case http.StatusUnauthorized, http.StatusForbidden:
		return apperrors.Service(statusCode, fmt.Sprintf("OpenAI API authentication/authorization failed (%d): please verify your API key and permissions.", statusCode), cause)
	case http.StatusNotFound:
		if isModelNotFound(details) {
			return apperrors.Service(statusCode, "The model does not exist or you do not have access to it.", cause)
		}
		return apperrors.Service(statusCode, "OpenAI resource not found (404).", cause)
	case http.StatusGatewayTimeout:
		return apperrors.Timeout(cause)
	default:
		if statusCode >= 500 {
			return apperrors.Service(statusCode, fmt.Sprintf("OpenAI server error (%d): please try again later.", statusCode), cause)
		}
		return apperrors.Service(statusCode, fmt.Sprintf("OpenAI API error (%d).", statusCode), cause)
	}
}

func isModelNotFound(details errorDetails) bool {
	needle := strings.ToLower(details.codeString() + " " + details.Type + " " + details.Message)
	if strings.Contains(needle, "model_not_found") {
		return true
	}
	return strings.Contains(needle, "does not exist or you do not have access to it")
}

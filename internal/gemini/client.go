// Package gemini is a translation.Backend that asks a Gemini model to
// translate whole batches in one JSON-mode request.
package gemini

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/google/generative-ai-go/genai"
	"github.com/kisanseva/pagetrans/internal/apperrors"
	"github.com/kisanseva/pagetrans/internal/httpclient"
	"github.com/kisanseva/pagetrans/internal/language"
	"github.com/kisanseva/pagetrans/internal/metadata"
	"github.com/kisanseva/pagetrans/internal/translation"
	"google.golang.org/api/option"
)

const systemPrompt = `You translate short user-interface texts of a farmer-services website.
The input is a JSON object with 'source', 'target' and 'texts'.
- 'source' is a language code or "auto".
- Translate every element of 'texts' into the 'target' language.
- Keep numbers, units, product names and scheme names unchanged.
- Respond ONLY with a JSON object {"translations": [...]} holding exactly one string per input text, in the same order.
If the input has 'task' set to "detect", respond ONLY with {"language": "<code>", "confidence": <0..1>} for its 'text'.`

// generator is the part of *genai.GenerativeModel the client uses.
type generator interface {
	GenerateContent(ctx context.Context, parts ...genai.Part) (*genai.GenerateContentResponse, error)
}

// Client handles communication with the Gemini API.
type Client struct {
	client  *genai.Client
	model   generator
	timeout time.Duration

	usageMu sync.Mutex
	usage   UsageMetadata
}

var (
	_ translation.Backend       = (*Client)(nil)
	_ translation.BatchBackend  = (*Client)(nil)
	_ translation.UsageReporter = (*Client)(nil)
)

// NewClient creates a new Gemini client.
func NewClient(ctx context.Context, apiKey, modelName string, timeout time.Duration) (*Client, error) {
	// option.WithHTTPClient interferes with the genai library's API key
	// header injection, so timeouts are enforced through the context.
	client, err := genai.NewClient(ctx, option.WithAPIKey(apiKey))
	if err != nil {
		return nil, err
	}
	if modelName == "" {
		modelName = metadata.DefaultModel("gemini")
	}

	model := client.GenerativeModel(modelName)
	model.ResponseMIMEType = "application/json"
	model.SetTemperature(0.1)
	model.SystemInstruction = &genai.Content{
		Parts: []genai.Part{genai.Text(systemPrompt)},
	}

	return newClient(client, model, timeout), nil
}

func newClient(client *genai.Client, model generator, timeout time.Duration) *Client {
	if timeout <= 0 {
		timeout = httpclient.DefaultTimeout
	}
	return &Client{client: client, model: model, timeout: timeout}
}

// Close closes the underlying genai client.
func (c *Client) Close() error {
	if c.client == nil {
		return nil
	}
	return c.client.Close()
}

func (c *Client) Name() string { return "gemini" }

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
	if err := c.generateJSON(ctx, batchRequest{Source: source, Target: target, Texts: texts}, &resp); err != nil {
		return nil, err
	}
	if len(resp.Translations) != len(texts) {
		return nil, apperrors.Generic(fmt.Errorf("translation count mismatch: expected %d, got %d", len(texts), len(resp.Translations)))
	}
	return resp.Translations, nil
}

func (c *Client) Detect(ctx context.Context, text string) ([]translation.Detection, error) {
	var resp detectResponse
	if err := c.generateJSON(ctx, detectRequest{Task: "detect", Text: text}, &resp); err != nil {
		return nil, err
	}
	if resp.Language == "" {
		return nil, nil
	}
	// Scale to the 0..100 range LibreTranslate uses.
	return []translation.Detection{{Language: resp.Language, Confidence: resp.Confidence * 100}}, nil
}

// Languages lists the built-in language table; Gemini has no language endpoint.
func (c *Client) Languages(context.Context) ([]translation.Language, error) {
	entries := language.GetSupportedLanguages()
	out := make([]translation.Language, 0, len(entries))
	for _, e := range entries {
		out = append(out, translation.Language{Code: e.Code, Name: e.Name})
	}
	return out, nil
}

// GetUsage returns the total token usage.
func (c *Client) GetUsage() UsageMetadata {
	c.usageMu.Lock()
	defer c.usageMu.Unlock()
	return c.usage
}

func (c *Client) generateJSON(ctx context.Context, request any, out any) error {
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	requestJSON, err := json.Marshal(request)
	if err != nil {
		return fmt.Errorf("failed to marshal request: %w", err)
	}

	resp, err := c.model.GenerateContent(ctx, genai.Text(string(requestJSON)))
	if err != nil {
		return classifyGeminiError(err)
	}
	c.addUsage(resp)

	text, err := extractResponseText(resp)
	if err != nil {
		return apperrors.Generic(err)
	}
	if err := json.Unmarshal([]byte(text), out); err != nil {
		// The raw text is page content; keep it out of the error.
		return apperrors.New(apperrors.KindGeneric, "Gemini response format was invalid.", fmt.Errorf("failed to unmarshal response: %w", err))
	}
	return nil
}

// TokenUsage reports usage for cost estimates. Reasoning tokens are billed
// as output.
func (c *Client) TokenUsage() translation.Usage {
	u := c.GetUsage()
	output := u.TotalTokenCount - u.PromptTokenCount
	if output < u.CandidatesTokenCount {
		output = u.CandidatesTokenCount
	}
	return translation.Usage{InputTokens: u.PromptTokenCount, OutputTokens: output}
}

func (c *Client) addUsage(resp *genai.GenerateContentResponse) {
	if resp == nil || resp.UsageMetadata == nil {
		return
	}
	c.usageMu.Lock()
	defer c.usageMu.Unlock()
	c.usage.PromptTokenCount += int(resp.UsageMetadata.PromptTokenCount)
	c.usage.CandidatesTokenCount += int(resp.UsageMetadata.CandidatesTokenCount)
	c.usage.TotalTokenCount += int(resp.UsageMetadata.TotalTokenCount)
}

func extractResponseText(resp *genai.GenerateContentResponse) (string, error) {
	if resp == nil {
		return "", fmt.Errorf("no response received from Gemini")
	}
	if len(resp.Candidates) == 0 {
		return "", fmt.Errorf("no candidates returned from Gemini")
	}
	for _, candidate := range resp.Candidates {
		if candidate.Content == nil || len(candidate.Content.Parts) == 0 {
			continue
		}
		var combined string
		for _, part := range candidate.Content.Parts {
			text, ok := part.(genai.Text)
			if !ok {
				continue
			}
			combined += string(text)
		}
		if combined != "" {
			return combined, nil
		}
	}
	return "", fmt.Errorf("no text parts found in Gemini response")
}

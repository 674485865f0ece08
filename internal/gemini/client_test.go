package gemini

import (
	"context"
	"encoding/json"
	"strings"
	"testing"

	"github.com/google/generative-ai-go/genai"
	"github.com/kisanseva/pagetrans/internal/apperrors"
	"google.golang.org/api/googleapi"
)

type fakeModel struct {
	reply    string
	err      error
	requests []string
}

func (f *fakeModel) GenerateContent(ctx context.Context, parts ...genai.Part) (*genai.GenerateContentResponse, error) {
	for _, p := range parts {
		if text, ok := p.(genai.Text); ok {
			f.requests = append(f.requests, string(text))
		}
	}
	if f.err != nil {
		return nil, f.err
	}
	return &genai.GenerateContentResponse{
		Candidates: []*genai.Candidate{
			{Content: &genai.Content{Parts: []genai.Part{genai.Text(f.reply)}}},
		},
		UsageMetadata: &genai.UsageMetadata{PromptTokenCount: 10, CandidatesTokenCount: 5, TotalTokenCount: 15},
	}, nil
}

func TestTranslateBatch(t *testing.T) {
	model := &fakeModel{reply: `{"translations": ["गेहूं", "चावल"]}`}
	c := newClient(nil, model, 0)

	out, err := c.TranslateBatch(context.Background(), []string{"Wheat", "Rice"}, "auto", "hi")
	if err != nil {
		t.Fatalf("TranslateBatch failed: %v", err)
	}
	if len(out) != 2 || out[0] != "गेहूं" || out[1] != "चावल" {
		t.Fatalf("unexpected output %v", out)
	}

	var req batchRequest
	if err := json.Unmarshal([]byte(model.requests[0]), &req); err != nil {
		t.Fatalf("request is not JSON: %v", err)
	}
	if req.Target != "hi" || req.Source != "auto" || len(req.Texts) != 2 {
		t.Fatalf("unexpected request %+v", req)
	}
	if usage := c.GetUsage(); usage.TotalTokenCount != 15 {
		t.Fatalf("expected usage to accumulate, got %+v", usage)
	}
	if u := c.TokenUsage(); u.InputTokens != 10 || u.OutputTokens != 5 {
		t.Fatalf("unexpected token usage %+v", u)
	}
}

func TestTranslateBatch_CountMismatch(t *testing.T) {
	c := newClient(nil, &fakeModel{reply: `{"translations": ["only one"]}`}, 0)
	_, err := c.TranslateBatch(context.Background(), []string{"a1", "b2"}, "auto", "hi")
	assertErrorKind(t, err, apperrors.KindGeneric)
}

func TestTranslate_InvalidJSONDoesNotLeakText(t *testing.T) {
	c := newClient(nil, &fakeModel{reply: `SECRET_PAGE_TEXT not json`}, 0)
	_, err := c.Translate(context.Background(), "Hello", "auto", "hi")
	assertErrorKind(t, err, apperrors.KindGeneric)
	if strings.Contains(err.Error(), "SECRET_PAGE_TEXT") {
		t.Fatalf("error leaks response text: %q", err.Error())
	}
}

func TestTranslate_RateLimited(t *testing.T) {
	c := newClient(nil, &fakeModel{err: &googleapi.Error{Code: 429}}, 0)
	_, err := c.Translate(context.Background(), "Hello", "auto", "hi")
	if !apperrors.IsRateLimit(err) {
		t.Fatalf("expected rate limit error, got %v", err)
	}
}

func TestDetect(t *testing.T) {
	c := newClient(nil, &fakeModel{reply: `{"language": "ta", "confidence": 0.5}`}, 0)
	got, err := c.Detect(context.Background(), "வணக்கம்")
	if err != nil {
		t.Fatalf("Detect failed: %v", err)
	}
	if len(got) != 1 || got[0].Language != "ta" || got[0].Confidence != 50 {
		t.Fatalf("unexpected detections %+v", got)
	}
}

func TestLanguages_UsesBuiltInTable(t *testing.T) {
	langs, err := newClient(nil, &fakeModel{}, 0).Languages(context.Background())
	if err != nil || len(langs) == 0 {
		t.Fatalf("Languages = %v, %v", langs, err)
	}
	found := false
	for _, l := range langs {
		if l.Code == "hi" {
			found = true
		}
	}
	if !found {
		t.Fatalf("expected hi in language list")
	}
}

func TestExtractResponseText(t *testing.T) {
	t.Run("NilResponse", func(t *testing.T) {
		_, err := extractResponseText(nil)
		if err == nil || err.Error() != "no response received from Gemini" {
			t.Fatalf("expected nil response error, got: %v", err)
		}
	})

	t.Run("EmptyCandidates", func(t *testing.T) {
		_, err := extractResponseText(&genai.GenerateContentResponse{})
		if err == nil || err.Error() != "no candidates returned from Gemini" {
			t.Fatalf("expected empty candidates error, got: %v", err)
		}
	})

	t.Run("NonTextParts", func(t *testing.T) {
		resp := &genai.GenerateContentResponse{
			Candidates: []*genai.Candidate{
				{Content: &genai.Content{Parts: []genai.Part{
					genai.Blob{MIMEType: "application/octet-stream", Data: []byte{0x01}},
				}}},
			},
		}
		_, err := extractResponseText(resp)
		if err == nil || err.Error() != "no text parts found in Gemini response" {
			t.Fatalf("expected no text parts error, got: %v", err)
		}
	})

	t.Run("MultiPartText", func(t *testing.T) {
		resp := &genai.GenerateContentResponse{
			Candidates: []*genai.Candidate{
				{Content: &genai.Content{Parts: []genai.Part{
					genai.Text(`{"translations":`),
					genai.Text(`["x"]}`),
				}}},
			},
		}
		text, err := extractResponseText(resp)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if text != `{"translations":["x"]}` {
			t.Fatalf("expected concatenated text, got: %q", text)
		}
	})
}

// Package metadata lists the LLM models known to the gemini and openai
// backends, with the prices used for run cost estimates.
package metadata

// Model describes one model of a backend.
type Model struct {
	Backend          string
	ID               string
	Label            string
	InputPerMillion  float64
	OutputPerMillion float64
}

var Models = []Model{
	{Backend: "gemini", ID: "gemini-2.5-flash", Label: "Gemini 2.5 Flash", InputPerMillion: 0.30, OutputPerMillion: 2.50},
	{Backend: "gemini", ID: "gemini-2.5-flash-lite", Label: "Gemini 2.5 Flash-Lite", InputPerMillion: 0.10, OutputPerMillion: 0.40},
	{Backend: "gemini", ID: "gemini-2.5-pro", Label: "Gemini 2.5 Pro", InputPerMillion: 1.25, OutputPerMillion: 10.00},
	{Backend: "openai", ID: "gpt-4.1-mini", Label: "GPT-4.1 mini", InputPerMillion: 0.40, OutputPerMillion: 1.60},
	{Backend: "openai", ID: "gpt-4.1", Label: "GPT-4.1", InputPerMillion: 2.00, OutputPerMillion: 8.00},
}

const (
	DefaultGeminiInputPerMillion  = 1.25
	DefaultGeminiOutputPerMillion = 10.00
	DefaultOpenAIInputPerMillion  = 2.00
	DefaultOpenAIOutputPerMillion = 8.00
)

var defaultModels = map[string]string{
	"gemini": "gemini-2.5-flash",
	"openai": "gpt-4.1-mini",
}

// DefaultModel returns the model used when none is configured, or "" for
// backends without models.
func DefaultModel(backend string) string {
	return defaultModels[backend]
}

// ModelIDs returns the known model IDs of backend in table order.
func ModelIDs(backend string) []string {
	var ids []string
	for _, m := range Models {
		if m.Backend == backend {
			ids = append(ids, m.ID)
		}
	}
	return ids
}

// Pricing returns the model entry for id. Unknown models get the backend's
// default prices and ok=false.
func Pricing(backend, id string) (Model, bool) {
	for _, m := range Models {
		if m.Backend == backend && m.ID == id {
			return m, true
		}
	}
	m := Model{Backend: backend, ID: "default"}
	switch backend {
	case "gemini":
		m.Label, m.InputPerMillion, m.OutputPerMillion = "Default Gemini", DefaultGeminiInputPerMillion, DefaultGeminiOutputPerMillion
	case "openai":
		m.Label, m.InputPerMillion, m.OutputPerMillion = "Default OpenAI", DefaultOpenAIInputPerMillion, DefaultOpenAIOutputPerMillion
	}
	return m, false
}

// EstimateCost returns the USD cost of the given token counts.
func (m Model) EstimateCost(inputTokens, outputTokens int) float64 {
	return float64(inputTokens)/1e6*m.InputPerMillion + float64(outputTokens)/1e6*m.OutputPerMillion
}

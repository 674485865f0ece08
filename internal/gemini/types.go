package gemini

// batchRequest is the JSON payload sent as the user turn.
type batchRequest struct {
	Source string   `json:"source"`
	Target string   `json:"target"`
	Texts  []string `json:"texts"`
}

// batchResponse is the JSON object the model is instructed to return.
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

// UsageMetadata holds token usage accumulated over the client's lifetime.
type UsageMetadata struct {
	PromptTokenCount     int
	CandidatesTokenCount int
	TotalTokenCount      int
}

package schema

type FinishReason string

const (
	FinishStop          FinishReason = "stop"
	FinishLength        FinishReason = "length"
	FinishContentFilter FinishReason = "content_filter"
	FinishToolCalls     FinishReason = "tool_calls"
	FinishUnspecified   FinishReason = "unspecified"
)

// Usage carries token counters as reported by the upstream provider.
// Zero-filled when the provider reports nothing; never fabricated.
type Usage struct {
	PromptTokens     int `json:"prompt_tokens"`
	CompletionTokens int `json:"completion_tokens"`
	TotalTokens      int `json:"total_tokens"`
}

type CompletionResult struct {
	Model        string       `json:"model"`
	Provider     string       `json:"provider"`
	Content      string       `json:"content"`
	FinishReason FinishReason `json:"finish_reason"`
	Usage        Usage        `json:"usage"`
}

type VisionResult struct {
	Model        string       `json:"model"`
	Provider     string       `json:"provider"`
	Content      string       `json:"content"`
	FinishReason FinishReason `json:"finish_reason"`
	Usage        Usage        `json:"usage"`
}

type GeneratedImage struct {
	URL string `json:"url,omitempty"`
	B64 string `json:"b64,omitempty"`
}

type ImageGenerationResult struct {
	Model    string           `json:"model"`
	Provider string           `json:"provider"`
	Images   []GeneratedImage `json:"images"`
}

type EmbeddingResult struct {
	Model      string      `json:"model"`
	Provider   string      `json:"provider"`
	Embeddings [][]float64 `json:"embeddings"`
	Usage      Usage       `json:"usage"`
}

// StreamEvent is one normalized chunk of a streaming completion. Providers
// reframe their native event syntax into this shape; the relay forwards it
// without interpreting it further.
type StreamEvent struct {
	Content      string       `json:"content,omitempty"`
	FinishReason FinishReason `json:"finish_reason,omitempty"`
}

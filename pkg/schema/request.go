package schema

type Action string

const (
	ActionComplete      Action = "complete"
	ActionStream        Action = "stream"
	ActionVision        Action = "vision"
	ActionGenerateImage Action = "generate_image"
	ActionEmbed         Action = "embed"
)

// Request is the transport-agnostic gateway envelope.
type Request struct {
	Action  Action  `json:"action" binding:"required,oneof=complete stream vision generate_image embed"`
	Payload Payload `json:"payload" binding:"required"`
}

type Payload struct {
	Messages []UnifiedMessage `json:"messages,omitempty"`

	// Model routing. Model is an explicit key like "openai/gpt-4o-mini";
	// Provider and Capability drive auto-selection when Model is empty.
	Model      string `json:"model,omitempty"`
	Provider   string `json:"provider,omitempty"`
	Capability string `json:"capability,omitempty"`

	Options Options `json:"options,omitempty"`

	// Vision
	Image  *ImageRef `json:"image,omitempty"`
	Prompt string    `json:"prompt,omitempty"`

	// Embed
	Texts []string `json:"texts,omitempty"`
}

// Response is the single envelope shape all actions return. Status carries
// the HTTP code the transport should answer with; it never serializes.
type Response struct {
	Success bool          `json:"success"`
	Data    *ResponseData `json:"data,omitempty"`
	Error   string        `json:"error,omitempty"`
	Status  int           `json:"-"`
}

type ResponseData struct {
	Model        string           `json:"model"`
	Provider     string           `json:"provider"`
	Content      string           `json:"content,omitempty"`
	Images       []GeneratedImage `json:"images,omitempty"`
	Embeddings   [][]float64      `json:"embeddings,omitempty"`
	FinishReason FinishReason     `json:"finish_reason,omitempty"`
	Usage        *Usage           `json:"usage,omitempty"`
}

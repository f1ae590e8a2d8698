package ports

import (
	"context"

	"github.com/nulzo/ai-gateway/internal/core/domain"
	"github.com/nulzo/ai-gateway/pkg/schema"
)

// ModelProvider is the contract every upstream implementation satisfies. An
// instance is bound to exactly one model descriptor; capability-gated methods
// reject up front when the bound model lacks the tag, before any upstream I/O.
type ModelProvider interface {
	Key() string  // provider key, e.g. "openai"
	Type() string // wire shape, e.g. "openai", "anthropic", "google"

	Complete(ctx context.Context, messages []schema.UnifiedMessage, opts schema.Options) (*schema.CompletionResult, error)
	Stream(ctx context.Context, messages []schema.UnifiedMessage, opts schema.Options) (<-chan StreamChunk, error)
	AnalyzeImage(ctx context.Context, image schema.ImageRef, prompt string, opts schema.Options) (*schema.VisionResult, error)
	GenerateImage(ctx context.Context, prompt string, opts schema.Options) (*schema.ImageGenerationResult, error)
	Embed(ctx context.Context, texts []string, opts schema.Options) (*schema.EmbeddingResult, error)

	Supports(c domain.Capability) bool
}

// StreamChunk is one element of a provider's caller-facing stream. Exactly one
// of Event or Err is set; an Err chunk is terminal.
type StreamChunk struct {
	Event *schema.StreamEvent
	Err   error
}

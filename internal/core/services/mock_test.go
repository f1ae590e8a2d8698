package services_test

import (
	"context"
	"sync"

	"github.com/nulzo/ai-gateway/internal/core/domain"
	"github.com/nulzo/ai-gateway/internal/core/ports"
	"github.com/nulzo/ai-gateway/internal/registry"
	"github.com/nulzo/ai-gateway/pkg/schema"
)

// mockRegistry serves descriptors straight from a map.
type mockRegistry struct {
	models map[string]*domain.ModelDescriptor
}

func (r *mockRegistry) Get(ctx context.Context, key string) (*domain.ModelDescriptor, error) {
	if m, ok := r.models[key]; ok {
		return m, nil
	}
	return nil, domain.ErrUnknownModel(key, nil)
}

func (r *mockRegistry) DefaultFor(ctx context.Context, c domain.Capability, providerKey string) (*domain.ModelDescriptor, error) {
	for _, m := range r.models {
		if !m.Default || !m.HasCapability(c) {
			continue
		}
		if providerKey != "" && m.ProviderKey() != providerKey {
			continue
		}
		return m, nil
	}
	return nil, domain.ErrNoModelForCapability(c)
}

func (r *mockRegistry) ListFor(ctx context.Context, c domain.Capability) ([]*domain.ModelDescriptor, error) {
	var out []*domain.ModelDescriptor
	for _, m := range r.models {
		if m.HasCapability(c) {
			out = append(out, m)
		}
	}
	return out, nil
}

func (r *mockRegistry) List(ctx context.Context) ([]*domain.ModelDescriptor, error) {
	var out []*domain.ModelDescriptor
	for _, m := range r.models {
		out = append(out, m)
	}
	return out, nil
}

func (r *mockRegistry) Reload(ctx context.Context) error { return nil }

// mockProvider records upstream calls so tests can assert that gating and
// selection errors never reach a provider.
type mockProvider struct {
	provider *domain.ProviderDescriptor
	model    *domain.ModelDescriptor

	mu    sync.Mutex
	calls int

	completeErr error
	embedCalls  int
}

func (p *mockProvider) Key() string  { return p.provider.Key }
func (p *mockProvider) Type() string { return p.provider.Type }

func (p *mockProvider) Supports(c domain.Capability) bool { return p.model.HasCapability(c) }

func (p *mockProvider) record() {
	p.mu.Lock()
	p.calls++
	p.mu.Unlock()
}

func (p *mockProvider) callCount() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.calls
}

func (p *mockProvider) Complete(ctx context.Context, messages []schema.UnifiedMessage, opts schema.Options) (*schema.CompletionResult, error) {
	p.record()
	if p.completeErr != nil {
		return nil, p.completeErr
	}
	return &schema.CompletionResult{
		Model:        p.model.Key,
		Provider:     p.provider.Key,
		Content:      "mock completion",
		FinishReason: schema.FinishStop,
		Usage:        schema.Usage{PromptTokens: 5, CompletionTokens: 2, TotalTokens: 7},
	}, nil
}

func (p *mockProvider) Stream(ctx context.Context, messages []schema.UnifiedMessage, opts schema.Options) (<-chan ports.StreamChunk, error) {
	p.record()
	ch := make(chan ports.StreamChunk, 3)
	ch <- ports.StreamChunk{Event: &schema.StreamEvent{Content: "mock "}}
	ch <- ports.StreamChunk{Event: &schema.StreamEvent{Content: "stream", FinishReason: schema.FinishStop}}
	close(ch)
	return ch, nil
}

func (p *mockProvider) AnalyzeImage(ctx context.Context, image schema.ImageRef, prompt string, opts schema.Options) (*schema.VisionResult, error) {
	p.record()
	return &schema.VisionResult{
		Model: p.model.Key, Provider: p.provider.Key,
		Content: "a cat", FinishReason: schema.FinishStop,
	}, nil
}

func (p *mockProvider) GenerateImage(ctx context.Context, prompt string, opts schema.Options) (*schema.ImageGenerationResult, error) {
	p.record()
	return &schema.ImageGenerationResult{
		Model: p.model.Key, Provider: p.provider.Key,
		Images: []schema.GeneratedImage{{URL: "https://img.example/1.png"}},
	}, nil
}

func (p *mockProvider) Embed(ctx context.Context, texts []string, opts schema.Options) (*schema.EmbeddingResult, error) {
	p.record()
	p.mu.Lock()
	p.embedCalls++
	p.mu.Unlock()
	out := make([][]float64, len(texts))
	for i := range texts {
		out[i] = []float64{0.1, 0.2, 0.3}
	}
	return &schema.EmbeddingResult{
		Model: p.model.Key, Provider: p.provider.Key, Embeddings: out,
	}, nil
}

var registerStubOnce sync.Once

// lastStub exposes the most recently constructed stub provider to assertions.
var lastStub *mockProvider

func registerStubFactory() {
	registerStubOnce.Do(func() {
		registry.Register("stub", func(p *domain.ProviderDescriptor, m *domain.ModelDescriptor, secret string) (ports.ModelProvider, error) {
			lastStub = &mockProvider{provider: p, model: m}
			return lastStub, nil
		})
	})
}

func stubProviderDescriptor() *domain.ProviderDescriptor {
	return &domain.ProviderDescriptor{
		Key:       "stubco",
		Name:      "Stub Co",
		Type:      "stub",
		SecretEnv: "STUBCO_API_KEY",
		Priority:  50,
	}
}

func stubModel(key string, def bool, caps ...domain.Capability) *domain.ModelDescriptor {
	return &domain.ModelDescriptor{
		Key:          key,
		UpstreamID:   key,
		Capabilities: caps,
		Default:      def,
		Provider:     stubProviderDescriptor(),
	}
}

package anthropic

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/nulzo/ai-gateway/internal/adapters/providers"
	"github.com/nulzo/ai-gateway/internal/adapters/providers/utils"
	"github.com/nulzo/ai-gateway/internal/core/domain"
	"github.com/nulzo/ai-gateway/internal/core/ports"
	"github.com/nulzo/ai-gateway/internal/registry"
	"github.com/nulzo/ai-gateway/pkg/schema"
)

const defaultVersion = "2023-06-01"

func init() {
	registry.Register("anthropic", New)
}

type Adapter struct {
	providers.Binding
	client *http.Client
}

func New(p *domain.ProviderDescriptor, m *domain.ModelDescriptor, secret string) (ports.ModelProvider, error) {
	if p.BaseURL == "" {
		c := *p
		c.BaseURL = "https://api.anthropic.com/v1"
		p = &c
	}
	return &Adapter{
		Binding: providers.Binding{Provider: p, Model: m, Secret: secret},
		client:  &http.Client{Timeout: 120 * time.Second},
	}, nil
}

func (a *Adapter) headers() map[string]string {
	name := a.Provider.AuthHeader
	if name == "" {
		name = "x-api-key"
	}
	version := defaultVersion
	if v, ok := a.Provider.Extra["version"]; ok {
		version = v
	}
	return map[string]string{
		name:                a.Provider.AuthPrefix + a.Secret,
		"anthropic-version": version,
	}
}

func (a *Adapter) url(path string) string {
	return strings.TrimRight(a.Provider.BaseURL, "/") + path
}

// --- Native request/response shapes ---

type messagesRequest struct {
	Model       string        `json:"model"`
	Messages    []wireMessage `json:"messages"`
	System      string        `json:"system,omitempty"`
	MaxTokens   int           `json:"max_tokens"`
	Temperature float64       `json:"temperature"`
	TopP        *float64      `json:"top_p,omitempty"`
	Stop        []string      `json:"stop_sequences,omitempty"`
	Stream      bool          `json:"stream,omitempty"`
}

type messagesResponse struct {
	ID         string `json:"id"`
	Model      string `json:"model"`
	Content    []struct {
		Type string `json:"type"`
		Text string `json:"text"`
	} `json:"content"`
	StopReason string `json:"stop_reason"`
	Usage      struct {
		InputTokens  int `json:"input_tokens"`
		OutputTokens int `json:"output_tokens"`
	} `json:"usage"`
}

type streamEvent struct {
	Type  string `json:"type"`
	Delta struct {
		Type       string `json:"type"`
		Text       string `json:"text"`
		StopReason string `json:"stop_reason"`
	} `json:"delta"`
}

type upstreamErrorResponse struct {
	Error struct {
		Type    string `json:"type"`
		Message string `json:"message"`
	} `json:"error"`
}

func (a *Adapter) wrapError(err error) error {
	var upstreamErr *domain.UpstreamError
	if !errors.As(err, &upstreamErr) {
		return domain.ErrUpstream(0, "request failed", err)
	}
	var apiErr upstreamErrorResponse
	if jsonErr := json.Unmarshal(upstreamErr.Body, &apiErr); jsonErr != nil || apiErr.Error.Message == "" {
		return domain.ErrUpstream(upstreamErr.StatusCode, "unparseable upstream error", err)
	}
	return domain.ErrUpstream(upstreamErr.StatusCode, apiErr.Error.Message, err)
}

const maxTokensFloor = 4096

func (a *Adapter) buildRequest(messages []schema.UnifiedMessage, opts schema.Options, stream bool) messagesRequest {
	system, wire := toWireMessages(messages)
	req := messagesRequest{
		Model:       a.Model.UpstreamID,
		Messages:    wire,
		System:      system,
		MaxTokens:   a.MaxTokens(opts.MaxTokens),
		Temperature: a.Temperature(opts.Temperature),
		TopP:        opts.TopP,
		Stop:        opts.Stop.Sequences(),
		Stream:      stream,
	}
	// max_tokens is mandatory on this API
	if req.MaxTokens == 0 {
		req.MaxTokens = maxTokensFloor
	}
	return req
}

func (a *Adapter) complete(ctx context.Context, messages []schema.UnifiedMessage, opts schema.Options) (*messagesResponse, error) {
	var resp messagesResponse
	body := a.buildRequest(messages, opts, false)
	if err := utils.SendRequest(ctx, a.client, "POST", a.url("/messages"), a.headers(), body, &resp); err != nil {
		return nil, a.wrapError(err)
	}
	return &resp, nil
}

func joinText(resp *messagesResponse) string {
	var b strings.Builder
	for _, c := range resp.Content {
		if c.Type == "text" {
			b.WriteString(c.Text)
		}
	}
	return b.String()
}

func (a *Adapter) Complete(ctx context.Context, messages []schema.UnifiedMessage, opts schema.Options) (*schema.CompletionResult, error) {
	if err := a.Gate(domain.CapCompletion); err != nil {
		return nil, err
	}

	resp, err := a.complete(ctx, messages, opts)
	if err != nil {
		return nil, err
	}

	return &schema.CompletionResult{
		Model:        a.Model.Key,
		Provider:     a.Key(),
		Content:      joinText(resp),
		FinishReason: mapStopReason(resp.StopReason),
		Usage: schema.Usage{
			PromptTokens:     resp.Usage.InputTokens,
			CompletionTokens: resp.Usage.OutputTokens,
			TotalTokens:      resp.Usage.InputTokens + resp.Usage.OutputTokens,
		},
	}, nil
}

// Stream reframes the native event syntax (content_block_delta, message_delta,
// message_stop) into normalized events so the relay can stay transparent.
func (a *Adapter) Stream(ctx context.Context, messages []schema.UnifiedMessage, opts schema.Options) (<-chan ports.StreamChunk, error) {
	if err := a.Gate(domain.CapStreaming); err != nil {
		return nil, err
	}

	ch := make(chan ports.StreamChunk)
	body := a.buildRequest(messages, opts, true)

	go func() {
		defer close(ch)

		send := func(event *schema.StreamEvent) error {
			select {
			case ch <- ports.StreamChunk{Event: event}:
				return nil
			case <-ctx.Done():
				return ctx.Err()
			}
		}

		err := utils.StreamRequest(ctx, a.client, "POST", a.url("/messages"), a.headers(), body, func(line string) error {
			if !strings.HasPrefix(line, "data: ") {
				return nil
			}

			var event streamEvent
			if err := json.Unmarshal([]byte(strings.TrimPrefix(line, "data: ")), &event); err != nil {
				return nil
			}

			switch event.Type {
			case "content_block_delta":
				if event.Delta.Type == "text_delta" {
					return send(&schema.StreamEvent{Content: event.Delta.Text})
				}
			case "message_delta":
				if event.Delta.StopReason != "" {
					return send(&schema.StreamEvent{FinishReason: mapStopReason(event.Delta.StopReason)})
				}
			}
			return nil
		})

		if err != nil && ctx.Err() == nil {
			select {
			case ch <- ports.StreamChunk{Err: a.wrapError(err)}:
			case <-ctx.Done():
			}
		}
	}()

	return ch, nil
}

func (a *Adapter) AnalyzeImage(ctx context.Context, image schema.ImageRef, prompt string, opts schema.Options) (*schema.VisionResult, error) {
	if err := a.Gate(domain.CapVision); err != nil {
		return nil, err
	}

	messages := []schema.UnifiedMessage{{
		Role: schema.User,
		Content: schema.Content{Parts: []schema.ContentPart{
			{Type: schema.PartImage, Image: &image},
			schema.TextPart(prompt),
		}},
	}}

	resp, err := a.complete(ctx, messages, opts)
	if err != nil {
		return nil, err
	}

	return &schema.VisionResult{
		Model:        a.Model.Key,
		Provider:     a.Key(),
		Content:      joinText(resp),
		FinishReason: mapStopReason(resp.StopReason),
		Usage: schema.Usage{
			PromptTokens:     resp.Usage.InputTokens,
			CompletionTokens: resp.Usage.OutputTokens,
			TotalTokens:      resp.Usage.InputTokens + resp.Usage.OutputTokens,
		},
	}, nil
}

// This API family has no image generation endpoint; the capability tag is
// never granted to its models, so the gate rejects before we get here.
func (a *Adapter) GenerateImage(ctx context.Context, prompt string, opts schema.Options) (*schema.ImageGenerationResult, error) {
	return nil, domain.ErrCapabilityNotSupported(a.Model.Key, domain.CapImageGeneration)
}

// No embedding endpoint either.
func (a *Adapter) Embed(ctx context.Context, texts []string, opts schema.Options) (*schema.EmbeddingResult, error) {
	return nil, domain.ErrCapabilityNotSupported(a.Model.Key, domain.CapEmbedding)
}

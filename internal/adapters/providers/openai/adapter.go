package openai

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
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

func init() {
	registry.Register("openai", New)
}

type Adapter struct {
	providers.Binding
	client *http.Client
}

func New(p *domain.ProviderDescriptor, m *domain.ModelDescriptor, secret string) (ports.ModelProvider, error) {
	if p.BaseURL == "" {
		p = cloneWithBaseURL(p, "https://api.openai.com/v1")
	}
	return &Adapter{
		Binding: providers.Binding{Provider: p, Model: m, Secret: secret},
		client:  &http.Client{Timeout: 120 * time.Second},
	}, nil
}

func cloneWithBaseURL(p *domain.ProviderDescriptor, url string) *domain.ProviderDescriptor {
	c := *p
	c.BaseURL = url
	return &c
}

func (a *Adapter) headers() map[string]string {
	name := a.Provider.AuthHeader
	if name == "" {
		name = "Authorization"
	}
	prefix := a.Provider.AuthPrefix
	if prefix == "" && name == "Authorization" {
		prefix = "Bearer "
	}

	h := map[string]string{name: prefix + a.Secret}
	if org, ok := a.Provider.Extra["organization"]; ok {
		h["OpenAI-Organization"] = org
	}
	return h
}

func (a *Adapter) url(path string) string {
	return strings.TrimRight(a.Provider.BaseURL, "/") + path
}

// --- Native request/response shapes ---

type completionRequest struct {
	Model          string              `json:"model"`
	Messages       []wireMessage       `json:"messages"`
	Temperature    float64             `json:"temperature"`
	MaxTokens      int                 `json:"max_tokens,omitempty"`
	TopP           *float64            `json:"top_p,omitempty"`
	Stop           []string            `json:"stop,omitempty"`
	Stream         bool                `json:"stream,omitempty"`
	ResponseFormat *wireResponseFormat `json:"response_format,omitempty"`
}

type wireResponseFormat struct {
	Type string `json:"type"`
}

type completionResponse struct {
	ID      string `json:"id"`
	Model   string `json:"model"`
	Choices []struct {
		Message struct {
			Role    string `json:"role"`
			Content string `json:"content"`
		} `json:"message"`
		Delta struct {
			Content string `json:"content"`
		} `json:"delta"`
		FinishReason string `json:"finish_reason"`
	} `json:"choices"`
	Usage *wireUsage `json:"usage"`
}

type wireUsage struct {
	PromptTokens     int `json:"prompt_tokens"`
	CompletionTokens int `json:"completion_tokens"`
	TotalTokens      int `json:"total_tokens"`
}

// upstreamErrorResponse mirrors the standard OpenAI error shape.
type upstreamErrorResponse struct {
	Error struct {
		Message string      `json:"message"`
		Type    string      `json:"type"`
		Code    interface{} `json:"code"`
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

func (a *Adapter) buildRequest(messages []schema.UnifiedMessage, opts schema.Options, stream bool) completionRequest {
	req := completionRequest{
		Model:       a.Model.UpstreamID,
		Messages:    toWireMessages(messages),
		Temperature: a.Temperature(opts.Temperature),
		MaxTokens:   a.MaxTokens(opts.MaxTokens),
		TopP:        opts.TopP,
		Stop:        opts.Stop.Sequences(),
		Stream:      stream,
	}
	if opts.ResponseFormat != "" {
		req.ResponseFormat = &wireResponseFormat{Type: opts.ResponseFormat}
	}
	return req
}

func (a *Adapter) Complete(ctx context.Context, messages []schema.UnifiedMessage, opts schema.Options) (*schema.CompletionResult, error) {
	if err := a.Gate(domain.CapCompletion); err != nil {
		return nil, err
	}

	var resp completionResponse
	body := a.buildRequest(messages, opts, false)
	if err := utils.SendRequest(ctx, a.client, "POST", a.url("/chat/completions"), a.headers(), body, &resp); err != nil {
		return nil, a.wrapError(err)
	}

	if len(resp.Choices) == 0 {
		return nil, domain.ErrUpstream(0, "no choices in response", nil)
	}

	result := &schema.CompletionResult{
		Model:        a.Model.Key,
		Provider:     a.Key(),
		Content:      resp.Choices[0].Message.Content,
		FinishReason: mapFinishReason(resp.Choices[0].FinishReason),
	}
	if resp.Usage != nil {
		result.Usage = schema.Usage(*resp.Usage)
	}
	return result, nil
}

func (a *Adapter) Stream(ctx context.Context, messages []schema.UnifiedMessage, opts schema.Options) (<-chan ports.StreamChunk, error) {
	if err := a.Gate(domain.CapStreaming); err != nil {
		return nil, err
	}

	ch := make(chan ports.StreamChunk)
	body := a.buildRequest(messages, opts, true)

	go func() {
		defer close(ch)

		err := utils.StreamRequest(ctx, a.client, "POST", a.url("/chat/completions"), a.headers(), body, func(line string) error {
			if !strings.HasPrefix(line, "data: ") {
				return nil
			}
			data := strings.TrimPrefix(line, "data: ")
			if data == "[DONE]" {
				return nil
			}

			var chunk completionResponse
			if err := json.Unmarshal([]byte(data), &chunk); err != nil {
				// skip unparseable keep-alive lines
				return nil
			}
			if len(chunk.Choices) == 0 {
				return nil
			}

			event := &schema.StreamEvent{
				Content:      chunk.Choices[0].Delta.Content,
				FinishReason: mapFinishReason(chunk.Choices[0].FinishReason),
			}
			select {
			case ch <- ports.StreamChunk{Event: event}:
				return nil
			case <-ctx.Done():
				return ctx.Err()
			}
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

	if opts.Detail != "" {
		image.Detail = opts.Detail
	}
	messages := []schema.UnifiedMessage{{
		Role: schema.User,
		Content: schema.Content{Parts: []schema.ContentPart{
			schema.TextPart(prompt),
			{Type: schema.PartImage, Image: &image},
		}},
	}}

	var resp completionResponse
	body := a.buildRequest(messages, opts, false)
	if err := utils.SendRequest(ctx, a.client, "POST", a.url("/chat/completions"), a.headers(), body, &resp); err != nil {
		return nil, a.wrapError(err)
	}
	if len(resp.Choices) == 0 {
		return nil, domain.ErrUpstream(0, "no choices in response", nil)
	}

	result := &schema.VisionResult{
		Model:        a.Model.Key,
		Provider:     a.Key(),
		Content:      resp.Choices[0].Message.Content,
		FinishReason: mapFinishReason(resp.Choices[0].FinishReason),
	}
	if resp.Usage != nil {
		result.Usage = schema.Usage(*resp.Usage)
	}
	return result, nil
}

type imageRequest struct {
	Model   string `json:"model"`
	Prompt  string `json:"prompt"`
	N       int    `json:"n,omitempty"`
	Size    string `json:"size,omitempty"`
	Quality string `json:"quality,omitempty"`
}

type imageResponse struct {
	Data []struct {
		URL     string `json:"url"`
		B64JSON string `json:"b64_json"`
	} `json:"data"`
}

func (a *Adapter) GenerateImage(ctx context.Context, prompt string, opts schema.Options) (*schema.ImageGenerationResult, error) {
	if err := a.Gate(domain.CapImageGeneration); err != nil {
		return nil, err
	}

	body := imageRequest{
		Model:   a.Model.UpstreamID,
		Prompt:  prompt,
		N:       opts.N,
		Size:    opts.Size,
		Quality: opts.Quality,
	}

	var resp imageResponse
	if err := utils.SendRequest(ctx, a.client, "POST", a.url("/images/generations"), a.headers(), body, &resp); err != nil {
		return nil, a.wrapError(err)
	}

	result := &schema.ImageGenerationResult{Model: a.Model.Key, Provider: a.Key()}
	for _, d := range resp.Data {
		result.Images = append(result.Images, schema.GeneratedImage{URL: d.URL, B64: d.B64JSON})
	}
	return result, nil
}

type embeddingRequest struct {
	Model string   `json:"model"`
	Input []string `json:"input"`
}

type embeddingResponse struct {
	Data []struct {
		Index     int       `json:"index"`
		Embedding []float64 `json:"embedding"`
	} `json:"data"`
	Usage *wireUsage `json:"usage"`
}

// Embed issues one batched upstream request for all texts; the API accepts an
// array input and returns indexed vectors.
func (a *Adapter) Embed(ctx context.Context, texts []string, opts schema.Options) (*schema.EmbeddingResult, error) {
	if err := a.Gate(domain.CapEmbedding); err != nil {
		return nil, err
	}

	var resp embeddingResponse
	body := embeddingRequest{Model: a.Model.UpstreamID, Input: texts}
	if err := utils.SendRequest(ctx, a.client, "POST", a.url("/embeddings"), a.headers(), body, &resp); err != nil {
		return nil, a.wrapError(err)
	}

	if len(resp.Data) != len(texts) {
		return nil, domain.ErrUpstream(0, fmt.Sprintf("expected %d embeddings, got %d", len(texts), len(resp.Data)), nil)
	}

	result := &schema.EmbeddingResult{
		Model:      a.Model.Key,
		Provider:   a.Key(),
		Embeddings: make([][]float64, len(texts)),
	}
	for _, d := range resp.Data {
		if d.Index < 0 || d.Index >= len(texts) {
			return nil, domain.ErrUpstream(0, "embedding index out of range", nil)
		}
		result.Embeddings[d.Index] = d.Embedding
	}
	if resp.Usage != nil {
		result.Usage = schema.Usage(*resp.Usage)
	}
	return result, nil
}

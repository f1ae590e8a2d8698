package google

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/nulzo/ai-gateway/internal/adapters/providers"
	"github.com/nulzo/ai-gateway/internal/adapters/providers/utils"
	"github.com/nulzo/ai-gateway/internal/core/domain"
	"github.com/nulzo/ai-gateway/internal/core/ports"
	"github.com/nulzo/ai-gateway/internal/platform/logger"
	"github.com/nulzo/ai-gateway/internal/registry"
	"github.com/nulzo/ai-gateway/pkg/schema"
)

func init() {
	registry.Register("google", New)
}

type Adapter struct {
	providers.Binding
	client *http.Client
}

func New(p *domain.ProviderDescriptor, m *domain.ModelDescriptor, secret string) (ports.ModelProvider, error) {
	if p.BaseURL == "" {
		c := *p
		c.BaseURL = "https://generativelanguage.googleapis.com/v1beta"
		p = &c
	}
	return &Adapter{
		Binding: providers.Binding{Provider: p, Model: m, Secret: secret},
		client:  &http.Client{Timeout: 120 * time.Second},
	}, nil
}

// The key travels in a header, not the query string, so request logs never
// carry it.
func (a *Adapter) headers() map[string]string {
	name := a.Provider.AuthHeader
	if name == "" {
		name = "x-goog-api-key"
	}
	return map[string]string{name: a.Provider.AuthPrefix + a.Secret}
}

func (a *Adapter) url(verb string) string {
	return fmt.Sprintf("%s/models/%s:%s",
		strings.TrimRight(a.Provider.BaseURL, "/"), a.Model.UpstreamID, verb)
}

// --- Native request/response shapes ---

type generateRequest struct {
	Contents          []wireContent     `json:"contents"`
	SystemInstruction *wireContent      `json:"systemInstruction,omitempty"`
	GenerationConfig  *generationConfig `json:"generationConfig,omitempty"`
}

type generationConfig struct {
	Temperature      float64  `json:"temperature"`
	MaxOutputTokens  int      `json:"maxOutputTokens,omitempty"`
	TopP             *float64 `json:"topP,omitempty"`
	StopSequences    []string `json:"stopSequences,omitempty"`
	ResponseMIMEType string   `json:"responseMimeType,omitempty"`
}

type generateResponse struct {
	Candidates []struct {
		Content      wireContent `json:"content"`
		FinishReason string      `json:"finishReason"`
	} `json:"candidates"`
	UsageMetadata *struct {
		PromptTokenCount     int `json:"promptTokenCount"`
		CandidatesTokenCount int `json:"candidatesTokenCount"`
		TotalTokenCount      int `json:"totalTokenCount"`
	} `json:"usageMetadata"`
}

type upstreamErrorResponse struct {
	Error struct {
		Code    int    `json:"code"`
		Message string `json:"message"`
		Status  string `json:"status"`
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

func (a *Adapter) buildRequest(messages []schema.UnifiedMessage, opts schema.Options) generateRequest {
	system, contents, warnings := toWireContents(messages)
	for _, w := range warnings {
		logger.Warn("Dropped message part", zap.String("provider", a.Key()), zap.String("reason", w))
	}

	cfg := &generationConfig{
		Temperature:     a.Temperature(opts.Temperature),
		MaxOutputTokens: a.MaxTokens(opts.MaxTokens),
		TopP:            opts.TopP,
		StopSequences:   opts.Stop.Sequences(),
	}
	if opts.ResponseFormat == "json_object" {
		cfg.ResponseMIMEType = "application/json"
	}

	return generateRequest{
		Contents:          contents,
		SystemInstruction: system,
		GenerationConfig:  cfg,
	}
}

func candidateText(resp *generateResponse) (string, schema.FinishReason, error) {
	if len(resp.Candidates) == 0 {
		return "", "", domain.ErrUpstream(0, "no candidates in response", nil)
	}
	var b strings.Builder
	for _, p := range resp.Candidates[0].Content.Parts {
		b.WriteString(p.Text)
	}
	return b.String(), mapFinishReason(resp.Candidates[0].FinishReason), nil
}

func usage(resp *generateResponse) schema.Usage {
	if resp.UsageMetadata == nil {
		return schema.Usage{}
	}
	return schema.Usage{
		PromptTokens:     resp.UsageMetadata.PromptTokenCount,
		CompletionTokens: resp.UsageMetadata.CandidatesTokenCount,
		TotalTokens:      resp.UsageMetadata.TotalTokenCount,
	}
}

func (a *Adapter) Complete(ctx context.Context, messages []schema.UnifiedMessage, opts schema.Options) (*schema.CompletionResult, error) {
	if err := a.Gate(domain.CapCompletion); err != nil {
		return nil, err
	}

	var resp generateResponse
	body := a.buildRequest(messages, opts)
	if err := utils.SendRequest(ctx, a.client, "POST", a.url("generateContent"), a.headers(), body, &resp); err != nil {
		return nil, a.wrapError(err)
	}

	text, finish, err := candidateText(&resp)
	if err != nil {
		return nil, err
	}

	return &schema.CompletionResult{
		Model:        a.Model.Key,
		Provider:     a.Key(),
		Content:      text,
		FinishReason: finish,
		Usage:        usage(&resp),
	}, nil
}

// Stream uses the SSE variant of the endpoint and reframes each candidate
// fragment into normalized events.
func (a *Adapter) Stream(ctx context.Context, messages []schema.UnifiedMessage, opts schema.Options) (<-chan ports.StreamChunk, error) {
	if err := a.Gate(domain.CapStreaming); err != nil {
		return nil, err
	}

	ch := make(chan ports.StreamChunk)
	body := a.buildRequest(messages, opts)
	url := a.url("streamGenerateContent") + "?alt=sse"

	go func() {
		defer close(ch)

		err := utils.StreamRequest(ctx, a.client, "POST", url, a.headers(), body, func(line string) error {
			if !strings.HasPrefix(line, "data: ") {
				return nil
			}

			var resp generateResponse
			if err := json.Unmarshal([]byte(strings.TrimPrefix(line, "data: ")), &resp); err != nil {
				return nil
			}
			if len(resp.Candidates) == 0 {
				return nil
			}

			var b strings.Builder
			for _, p := range resp.Candidates[0].Content.Parts {
				b.WriteString(p.Text)
			}
			event := &schema.StreamEvent{
				Content:      b.String(),
				FinishReason: mapFinishReason(resp.Candidates[0].FinishReason),
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

	messages := []schema.UnifiedMessage{{
		Role: schema.User,
		Content: schema.Content{Parts: []schema.ContentPart{
			schema.TextPart(prompt),
			{Type: schema.PartImage, Image: &image},
		}},
	}}

	var resp generateResponse
	body := a.buildRequest(messages, opts)
	if err := utils.SendRequest(ctx, a.client, "POST", a.url("generateContent"), a.headers(), body, &resp); err != nil {
		return nil, a.wrapError(err)
	}

	text, finish, err := candidateText(&resp)
	if err != nil {
		return nil, err
	}

	return &schema.VisionResult{
		Model:        a.Model.Key,
		Provider:     a.Key(),
		Content:      text,
		FinishReason: finish,
		Usage:        usage(&resp),
	}, nil
}

// No image generation on this endpoint family.
func (a *Adapter) GenerateImage(ctx context.Context, prompt string, opts schema.Options) (*schema.ImageGenerationResult, error) {
	return nil, domain.ErrCapabilityNotSupported(a.Model.Key, domain.CapImageGeneration)
}

type batchEmbedRequest struct {
	Requests []embedContentRequest `json:"requests"`
}

type embedContentRequest struct {
	Model   string      `json:"model"`
	Content wireContent `json:"content"`
}

type batchEmbedResponse struct {
	Embeddings []struct {
		Values []float64 `json:"values"`
	} `json:"embeddings"`
}

// Embed issues one batched upstream request via batchEmbedContents; response
// order matches request order.
func (a *Adapter) Embed(ctx context.Context, texts []string, opts schema.Options) (*schema.EmbeddingResult, error) {
	if err := a.Gate(domain.CapEmbedding); err != nil {
		return nil, err
	}

	body := batchEmbedRequest{Requests: make([]embedContentRequest, 0, len(texts))}
	for _, t := range texts {
		body.Requests = append(body.Requests, embedContentRequest{
			Model:   "models/" + a.Model.UpstreamID,
			Content: wireContent{Parts: []wirePart{{Text: t}}},
		})
	}

	var resp batchEmbedResponse
	if err := utils.SendRequest(ctx, a.client, "POST", a.url("batchEmbedContents"), a.headers(), body, &resp); err != nil {
		return nil, a.wrapError(err)
	}

	if len(resp.Embeddings) != len(texts) {
		return nil, domain.ErrUpstream(0, fmt.Sprintf("expected %d embeddings, got %d", len(texts), len(resp.Embeddings)), nil)
	}

	result := &schema.EmbeddingResult{
		Model:      a.Model.Key,
		Provider:   a.Key(),
		Embeddings: make([][]float64, len(texts)),
	}
	for i, e := range resp.Embeddings {
		result.Embeddings[i] = e.Values
	}
	return result, nil
}

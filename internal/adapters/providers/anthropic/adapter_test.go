package anthropic_test

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/nulzo/ai-gateway/internal/adapters/providers/anthropic"
	"github.com/nulzo/ai-gateway/internal/core/domain"
	"github.com/nulzo/ai-gateway/pkg/schema"
)

func descriptors(baseURL string, caps ...domain.Capability) (*domain.ProviderDescriptor, *domain.ModelDescriptor) {
	p := &domain.ProviderDescriptor{
		Key:     "anthropic",
		Name:    "Anthropic",
		Type:    "anthropic",
		BaseURL: baseURL,
	}
	m := &domain.ModelDescriptor{
		Key:          "anthropic/claude",
		UpstreamID:   "claude-3-5-sonnet-latest",
		Capabilities: caps,
		Temperature:  0.7,
		MaxTokens:    2048,
		Provider:     p,
	}
	return p, m
}

func TestCompleteHoistsSystemTurns(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/messages", r.URL.Path)
		assert.Equal(t, "test-key", r.Header.Get("x-api-key"))
		assert.Equal(t, "2023-06-01", r.Header.Get("anthropic-version"))

		var req struct {
			System    string `json:"system"`
			MaxTokens int    `json:"max_tokens"`
			Messages  []struct {
				Role string `json:"role"`
			} `json:"messages"`
		}
		body, _ := io.ReadAll(r.Body)
		assert.NoError(t, json.Unmarshal(body, &req))
		assert.Equal(t, "be brief", req.System)
		assert.Equal(t, 2048, req.MaxTokens)
		// system turns never stay in the array
		for _, m := range req.Messages {
			assert.NotEqual(t, "system", m.Role)
		}

		w.Write([]byte(`{
			"id": "msg_1",
			"content": [{"type": "text", "text": "Hi."}],
			"stop_reason": "end_turn",
			"usage": {"input_tokens": 10, "output_tokens": 2}
		}`))
	}))
	defer server.Close()

	p, m := descriptors(server.URL, domain.CapCompletion)
	adapter, err := anthropic.New(p, m, "test-key")
	assert.NoError(t, err)

	res, err := adapter.Complete(context.Background(), []schema.UnifiedMessage{
		schema.TextMessage(schema.System, "be brief"),
		schema.TextMessage(schema.User, "Hello"),
	}, schema.Options{})

	assert.NoError(t, err)
	assert.Equal(t, "Hi.", res.Content)
	assert.Equal(t, schema.FinishStop, res.FinishReason)
	assert.Equal(t, 10, res.Usage.PromptTokens)
	assert.Equal(t, 2, res.Usage.CompletionTokens)
	assert.Equal(t, 12, res.Usage.TotalTokens)
}

func TestCompleteMapsMaxTokensStop(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"content": [{"type": "text", "text": "truncat"}], "stop_reason": "max_tokens"}`))
	}))
	defer server.Close()

	p, m := descriptors(server.URL, domain.CapCompletion)
	adapter, _ := anthropic.New(p, m, "test-key")

	res, err := adapter.Complete(context.Background(), []schema.UnifiedMessage{
		schema.TextMessage(schema.User, "Hello"),
	}, schema.Options{})
	assert.NoError(t, err)
	assert.Equal(t, schema.FinishLength, res.FinishReason)
}

func TestStreamReframesNativeEvents(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/event-stream")
		flusher := w.(http.Flusher)
		lines := []string{
			`event: message_start`,
			`data: {"type":"message_start"}`,
			`event: content_block_delta`,
			`data: {"type":"content_block_delta","delta":{"type":"text_delta","text":"Hel"}}`,
			`data: {"type":"content_block_delta","delta":{"type":"text_delta","text":"lo"}}`,
			`data: {"type":"message_delta","delta":{"stop_reason":"end_turn"}}`,
			`data: {"type":"message_stop"}`,
		}
		for _, l := range lines {
			io.WriteString(w, l+"\n\n")
			flusher.Flush()
		}
	}))
	defer server.Close()

	p, m := descriptors(server.URL, domain.CapStreaming)
	adapter, _ := anthropic.New(p, m, "test-key")

	ch, err := adapter.Stream(context.Background(), []schema.UnifiedMessage{
		schema.TextMessage(schema.User, "Hi"),
	}, schema.Options{})
	assert.NoError(t, err)

	var content string
	var finish schema.FinishReason
	for chunk := range ch {
		assert.NoError(t, chunk.Err)
		content += chunk.Event.Content
		if chunk.Event.FinishReason != "" {
			finish = chunk.Event.FinishReason
		}
	}
	assert.Equal(t, "Hello", content)
	assert.Equal(t, schema.FinishStop, finish)
}

func TestGenerateImageNotSupported(t *testing.T) {
	p, m := descriptors("http://unused", domain.CapCompletion, domain.CapImageGeneration)
	adapter, _ := anthropic.New(p, m, "test-key")

	_, err := adapter.GenerateImage(context.Background(), "a lighthouse", schema.Options{})
	assert.True(t, domain.IsKind(err, domain.KindCapabilityNotSupported))
}

func TestEmbedNotSupported(t *testing.T) {
	p, m := descriptors("http://unused", domain.CapCompletion)
	adapter, _ := anthropic.New(p, m, "test-key")

	_, err := adapter.Embed(context.Background(), []string{"a"}, schema.Options{})
	assert.True(t, domain.IsKind(err, domain.KindCapabilityNotSupported))
}

func TestVersionOverrideFromExtra(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "2024-10-22", r.Header.Get("anthropic-version"))
		w.Write([]byte(`{"content": [{"type": "text", "text": "ok"}], "stop_reason": "end_turn"}`))
	}))
	defer server.Close()

	p, m := descriptors(server.URL, domain.CapCompletion)
	p.Extra = map[string]string{"version": "2024-10-22"}
	adapter, _ := anthropic.New(p, m, "test-key")

	_, err := adapter.Complete(context.Background(), []schema.UnifiedMessage{
		schema.TextMessage(schema.User, "Hi"),
	}, schema.Options{})
	assert.NoError(t, err)
}

// Message conversion is pure: the same message list must yield the same wire
// body on every call.
func TestCompleteRequestIsDeterministic(t *testing.T) {
	var bodies [][]byte
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		body, _ := io.ReadAll(r.Body)
		bodies = append(bodies, body)
		w.Write([]byte(`{"content": [{"type": "text", "text": "ok"}], "stop_reason": "end_turn"}`))
	}))
	defer server.Close()

	p, m := descriptors(server.URL, domain.CapCompletion, domain.CapVision)
	adapter, _ := anthropic.New(p, m, "test-key")

	messages := []schema.UnifiedMessage{
		schema.TextMessage(schema.System, "be brief"),
		{
			Role: schema.User,
			Content: schema.Content{Parts: []schema.ContentPart{
				schema.TextPart("what is this?"),
				{Type: schema.PartImage, Image: &schema.ImageRef{Data: "aGk=", MIMEType: "image/png"}},
			}},
		},
		schema.TextMessage(schema.Assistant, "a sketch"),
	}

	for i := 0; i < 2; i++ {
		_, err := adapter.Complete(context.Background(), messages, schema.Options{})
		assert.NoError(t, err)
	}
	assert.Len(t, bodies, 2)
	assert.JSONEq(t, string(bodies[0]), string(bodies[1]))
}

package google_test

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/nulzo/ai-gateway/internal/adapters/providers/google"
	"github.com/nulzo/ai-gateway/internal/core/domain"
	"github.com/nulzo/ai-gateway/pkg/schema"
)

func descriptors(baseURL string, caps ...domain.Capability) (*domain.ProviderDescriptor, *domain.ModelDescriptor) {
	p := &domain.ProviderDescriptor{
		Key:     "google",
		Name:    "Google Gemini",
		Type:    "google",
		BaseURL: baseURL,
	}
	m := &domain.ModelDescriptor{
		Key:          "google/gemini-flash",
		UpstreamID:   "gemini-1.5-flash",
		Capabilities: caps,
		Temperature:  0.7,
		MaxTokens:    1024,
		Provider:     p,
	}
	return p, m
}

func TestCompleteSendsKeyInHeaderOnly(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/models/gemini-1.5-flash:generateContent", r.URL.Path)
		assert.Equal(t, "test-key", r.Header.Get("x-goog-api-key"))
		// the credential never travels in the query string
		assert.Empty(t, r.URL.Query().Get("key"))

		var req struct {
			SystemInstruction *struct {
				Parts []struct {
					Text string `json:"text"`
				} `json:"parts"`
			} `json:"systemInstruction"`
			Contents []struct {
				Role  string `json:"role"`
				Parts []struct {
					Text string `json:"text"`
				} `json:"parts"`
			} `json:"contents"`
		}
		body, _ := io.ReadAll(r.Body)
		assert.NoError(t, json.Unmarshal(body, &req))
		assert.NotNil(t, req.SystemInstruction)
		assert.Equal(t, "be brief", req.SystemInstruction.Parts[0].Text)
		// assistant turns rename to "model"
		assert.Equal(t, "user", req.Contents[0].Role)
		assert.Equal(t, "model", req.Contents[1].Role)

		w.Write([]byte(`{
			"candidates": [{"content": {"role": "model", "parts": [{"text": "Hi."}]}, "finishReason": "STOP"}],
			"usageMetadata": {"promptTokenCount": 8, "candidatesTokenCount": 2, "totalTokenCount": 10}
		}`))
	}))
	defer server.Close()

	p, m := descriptors(server.URL, domain.CapCompletion)
	adapter, err := google.New(p, m, "test-key")
	assert.NoError(t, err)

	res, err := adapter.Complete(context.Background(), []schema.UnifiedMessage{
		schema.TextMessage(schema.System, "be brief"),
		schema.TextMessage(schema.User, "Hello"),
		schema.TextMessage(schema.Assistant, "Hey"),
	}, schema.Options{})

	assert.NoError(t, err)
	assert.Equal(t, "Hi.", res.Content)
	assert.Equal(t, schema.FinishStop, res.FinishReason)
	assert.Equal(t, 10, res.Usage.TotalTokens)
}

func TestCompleteSafetyFinishMapsToContentFilter(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"candidates": [{"content": {"parts": []}, "finishReason": "SAFETY"}]}`))
	}))
	defer server.Close()

	p, m := descriptors(server.URL, domain.CapCompletion)
	adapter, _ := google.New(p, m, "test-key")

	res, err := adapter.Complete(context.Background(), []schema.UnifiedMessage{
		schema.TextMessage(schema.User, "Hello"),
	}, schema.Options{})
	assert.NoError(t, err)
	assert.Equal(t, schema.FinishContentFilter, res.FinishReason)
}

func TestStream(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/models/gemini-1.5-flash:streamGenerateContent", r.URL.Path)
		assert.Equal(t, "sse", r.URL.Query().Get("alt"))

		w.Header().Set("Content-Type", "text/event-stream")
		flusher := w.(http.Flusher)
		lines := []string{
			`data: {"candidates":[{"content":{"parts":[{"text":"Hel"}]}}]}`,
			`data: {"candidates":[{"content":{"parts":[{"text":"lo"}]},"finishReason":"STOP"}]}`,
		}
		for _, l := range lines {
			io.WriteString(w, l+"\n\n")
			flusher.Flush()
		}
	}))
	defer server.Close()

	p, m := descriptors(server.URL, domain.CapStreaming)
	adapter, _ := google.New(p, m, "test-key")

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

func TestEmbedBatch(t *testing.T) {
	requests := 0
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		requests++
		assert.Equal(t, "/models/gemini-1.5-flash:batchEmbedContents", r.URL.Path)

		var req struct {
			Requests []struct {
				Model string `json:"model"`
			} `json:"requests"`
		}
		_ = json.NewDecoder(r.Body).Decode(&req)
		assert.Len(t, req.Requests, 2)
		assert.Equal(t, "models/gemini-1.5-flash", req.Requests[0].Model)

		w.Write([]byte(`{"embeddings": [{"values": [0.1, 0.2]}, {"values": [0.3, 0.4]}]}`))
	}))
	defer server.Close()

	p, m := descriptors(server.URL, domain.CapEmbedding)
	adapter, _ := google.New(p, m, "test-key")

	res, err := adapter.Embed(context.Background(), []string{"alpha", "beta"}, schema.Options{})
	assert.NoError(t, err)
	assert.Equal(t, 1, requests)
	assert.Equal(t, [][]float64{{0.1, 0.2}, {0.3, 0.4}}, res.Embeddings)
}

func TestGenerateImageNotSupported(t *testing.T) {
	p, m := descriptors("http://unused", domain.CapCompletion)
	adapter, _ := google.New(p, m, "test-key")

	_, err := adapter.GenerateImage(context.Background(), "a lighthouse", schema.Options{})
	assert.True(t, domain.IsKind(err, domain.KindCapabilityNotSupported))
}

// Message conversion is pure: the same message list must yield the same wire
// body on every call.
func TestCompleteRequestIsDeterministic(t *testing.T) {
	var bodies [][]byte
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		body, _ := io.ReadAll(r.Body)
		bodies = append(bodies, body)
		w.Write([]byte(`{"candidates": [{"content": {"parts": [{"text": "ok"}]}, "finishReason": "STOP"}]}`))
	}))
	defer server.Close()

	p, m := descriptors(server.URL, domain.CapCompletion, domain.CapVision)
	adapter, _ := google.New(p, m, "test-key")

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

func TestUpstreamErrorIsSanitized(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		w.Write([]byte(`{"error": {"code": 400, "message": "API key not valid", "status": "INVALID_ARGUMENT"}}`))
	}))
	defer server.Close()

	p, m := descriptors(server.URL, domain.CapCompletion)
	adapter, _ := google.New(p, m, "bad-key")

	_, err := adapter.Complete(context.Background(), []schema.UnifiedMessage{
		schema.TextMessage(schema.User, "Hi"),
	}, schema.Options{})
	assert.True(t, domain.IsKind(err, domain.KindUpstreamError))
	assert.Contains(t, err.Error(), "API key not valid")
}

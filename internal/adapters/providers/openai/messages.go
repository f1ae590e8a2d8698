package openai

import (
	"fmt"

	"github.com/nulzo/ai-gateway/pkg/schema"
)

// Wire shapes for the chat completions API. System turns stay inline in the
// messages array; image parts become image_url references (data URIs for
// inline bytes).

type wireMessage struct {
	Role    string      `json:"role"`
	Content interface{} `json:"content"` // string | []wirePart
}

type wirePart struct {
	Type     string        `json:"type"`
	Text     string        `json:"text,omitempty"`
	ImageURL *wireImageURL `json:"image_url,omitempty"`
}

type wireImageURL struct {
	URL    string `json:"url"`
	Detail string `json:"detail,omitempty"`
}

// toWireMessages converts unified messages into the native request fragment.
// Pure and deterministic: no I/O, no mutation of the input.
func toWireMessages(msgs []schema.UnifiedMessage) []wireMessage {
	out := make([]wireMessage, 0, len(msgs))
	for _, m := range msgs {
		if m.Content.Parts == nil {
			out = append(out, wireMessage{Role: string(m.Role), Content: m.Content.Text})
			continue
		}

		parts := make([]wirePart, 0, len(m.Content.Parts))
		for _, p := range m.Content.Parts {
			switch p.Type {
			case schema.PartText:
				parts = append(parts, wirePart{Type: "text", Text: p.Text})
			case schema.PartImage:
				parts = append(parts, wirePart{Type: "image_url", ImageURL: toImageURL(p.Image)})
			}
		}
		out = append(out, wireMessage{Role: string(m.Role), Content: parts})
	}
	return out
}

func toImageURL(img *schema.ImageRef) *wireImageURL {
	if img.URL != "" {
		return &wireImageURL{URL: img.URL, Detail: img.Detail}
	}
	return &wireImageURL{
		URL:    fmt.Sprintf("data:%s;base64,%s", img.MIMEType, img.Data),
		Detail: img.Detail,
	}
}

func mapFinishReason(s string) schema.FinishReason {
	switch s {
	case "stop":
		return schema.FinishStop
	case "length":
		return schema.FinishLength
	case "content_filter":
		return schema.FinishContentFilter
	case "tool_calls":
		return schema.FinishToolCalls
	case "":
		return ""
	default:
		return schema.FinishUnspecified
	}
}

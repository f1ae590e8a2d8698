package anthropic

import (
	"strings"

	"github.com/nulzo/ai-gateway/pkg/schema"
)

// Wire shapes for the messages API. System turns move to the top-level system
// field; only user/assistant turns stay in the array. Image parts become
// source blocks; the detail hint has no equivalent here and is dropped.

type wireMessage struct {
	Role    string      `json:"role"`
	Content interface{} `json:"content"` // string | []wireBlock
}

type wireBlock struct {
	Type   string      `json:"type"`
	Text   string      `json:"text,omitempty"`
	Source *wireSource `json:"source,omitempty"`
}

type wireSource struct {
	Type      string `json:"type"` // "base64" | "url"
	MediaType string `json:"media_type,omitempty"`
	Data      string `json:"data,omitempty"`
	URL       string `json:"url,omitempty"`
}

// toWireMessages partitions system turns into the system field and converts
// the rest. Pure and deterministic.
func toWireMessages(msgs []schema.UnifiedMessage) (system string, out []wireMessage) {
	var sys []string
	for _, m := range msgs {
		if m.Role == schema.System {
			sys = append(sys, flattenText(m))
			continue
		}

		if m.Content.Parts == nil {
			out = append(out, wireMessage{Role: string(m.Role), Content: m.Content.Text})
			continue
		}

		blocks := make([]wireBlock, 0, len(m.Content.Parts))
		for _, p := range m.Content.Parts {
			switch p.Type {
			case schema.PartText:
				blocks = append(blocks, wireBlock{Type: "text", Text: p.Text})
			case schema.PartImage:
				blocks = append(blocks, wireBlock{Type: "image", Source: toSource(p.Image)})
			}
		}
		out = append(out, wireMessage{Role: string(m.Role), Content: blocks})
	}
	return strings.Join(sys, "\n"), out
}

func flattenText(m schema.UnifiedMessage) string {
	if m.Content.Parts == nil {
		return m.Content.Text
	}
	var b strings.Builder
	for _, p := range m.Content.Parts {
		if p.Type == schema.PartText {
			b.WriteString(p.Text)
		}
	}
	return b.String()
}

func toSource(img *schema.ImageRef) *wireSource {
	if img.URL != "" {
		return &wireSource{Type: "url", URL: img.URL}
	}
	return &wireSource{Type: "base64", MediaType: img.MIMEType, Data: img.Data}
}

func mapStopReason(s string) schema.FinishReason {
	switch s {
	case "end_turn", "stop_sequence":
		return schema.FinishStop
	case "max_tokens":
		return schema.FinishLength
	case "tool_use":
		return schema.FinishToolCalls
	case "refusal":
		return schema.FinishContentFilter
	case "":
		return ""
	default:
		return schema.FinishUnspecified
	}
}

package google

import (
	"fmt"

	"github.com/nulzo/ai-gateway/pkg/schema"
)

// Wire shapes for the generateContent API. System turns become the top-level
// systemInstruction, assistant renames to "model", and content nests in parts.
// Image parts map to inline_data; URL-only images have no equivalent here and
// are dropped with a warning returned to the caller for logging.

type wireContent struct {
	Role  string     `json:"role,omitempty"`
	Parts []wirePart `json:"parts"`
}

type wirePart struct {
	Text       string          `json:"text,omitempty"`
	InlineData *wireInlineData `json:"inline_data,omitempty"`
}

type wireInlineData struct {
	MIMEType string `json:"mime_type"`
	Data     string `json:"data"`
}

// toWireContents converts unified messages. Pure and deterministic; warnings
// describe dropped parts instead of corrupting them.
func toWireContents(msgs []schema.UnifiedMessage) (system *wireContent, contents []wireContent, warnings []string) {
	var sysParts []wirePart
	for i, m := range msgs {
		role := "user"
		if m.Role == schema.Assistant {
			role = "model"
		}

		var parts []wirePart
		if m.Content.Parts == nil {
			parts = []wirePart{{Text: m.Content.Text}}
		} else {
			for j, p := range m.Content.Parts {
				switch p.Type {
				case schema.PartText:
					parts = append(parts, wirePart{Text: p.Text})
				case schema.PartImage:
					if p.Image.Data == "" {
						warnings = append(warnings, fmt.Sprintf("message %d part %d: URL image references are not supported, part dropped", i, j))
						continue
					}
					parts = append(parts, wirePart{InlineData: &wireInlineData{
						MIMEType: p.Image.MIMEType,
						Data:     p.Image.Data,
					}})
				}
			}
		}

		if m.Role == schema.System {
			sysParts = append(sysParts, parts...)
			continue
		}
		contents = append(contents, wireContent{Role: role, Parts: parts})
	}

	if sysParts != nil {
		system = &wireContent{Parts: sysParts}
	}
	return system, contents, warnings
}

func mapFinishReason(s string) schema.FinishReason {
	switch s {
	case "STOP":
		return schema.FinishStop
	case "MAX_TOKENS":
		return schema.FinishLength
	case "SAFETY", "BLOCKLIST", "PROHIBITED_CONTENT":
		return schema.FinishContentFilter
	case "":
		return ""
	default:
		return schema.FinishUnspecified
	}
}

package schema

import (
	"encoding/json"
	"fmt"
)

type Role string

const (
	System    Role = "system"
	User      Role = "user"
	Assistant Role = "assistant"
)

// UnifiedMessage is one conversational turn in the provider-agnostic format.
// Content is either plain text or an ordered list of typed parts.
type UnifiedMessage struct {
	Role    Role    `json:"role" binding:"required,oneof=system user assistant"`
	Content Content `json:"content"`
}

// Content handles the union type: string | []ContentPart
type Content struct {
	Text  string
	Parts []ContentPart
}

func (c *Content) UnmarshalJSON(data []byte) error {
	if len(data) > 0 && data[0] == '"' {
		return json.Unmarshal(data, &c.Text)
	}
	if len(data) > 0 && data[0] == '[' {
		return json.Unmarshal(data, &c.Parts)
	}
	return nil
}

func (c Content) MarshalJSON() ([]byte, error) {
	if c.Parts != nil {
		return json.Marshal(c.Parts)
	}
	return json.Marshal(c.Text)
}

type PartType string

const (
	PartText  PartType = "text"
	PartImage PartType = "image"
)

type ContentPart struct {
	Type  PartType   `json:"type"`
	Text  string     `json:"text,omitempty"`
	Image *ImageRef  `json:"image,omitempty"`
}

// ImageRef references an image either by URL or by inline base64 bytes.
// Exactly one of URL or Data must be set.
type ImageRef struct {
	URL      string `json:"url,omitempty"`
	Data     string `json:"base64,omitempty"`
	MIMEType string `json:"mime_type,omitempty"`
	Detail   string `json:"detail,omitempty"` // e.g. "low", "high", "auto"
}

func TextMessage(role Role, text string) UnifiedMessage {
	return UnifiedMessage{Role: role, Content: Content{Text: text}}
}

func TextPart(text string) ContentPart {
	return ContentPart{Type: PartText, Text: text}
}

func ImageURLPart(url, detail string) ContentPart {
	return ContentPart{Type: PartImage, Image: &ImageRef{URL: url, Detail: detail}}
}

func ImageDataPart(b64, mimeType, detail string) ContentPart {
	return ContentPart{Type: PartImage, Image: &ImageRef{Data: b64, MIMEType: mimeType, Detail: detail}}
}

// Validate rejects malformed messages up front so the per-provider adapters
// never have to deal with them.
func (m *UnifiedMessage) Validate() error {
	switch m.Role {
	case System, User, Assistant:
	default:
		return fmt.Errorf("invalid role %q", m.Role)
	}
	for i, p := range m.Content.Parts {
		switch p.Type {
		case PartText:
			// empty text parts are legal, some callers use them as separators
		case PartImage:
			if p.Image == nil {
				return fmt.Errorf("part %d: image part without image reference", i)
			}
			if err := p.Image.Validate(); err != nil {
				return fmt.Errorf("part %d: %w", i, err)
			}
		default:
			return fmt.Errorf("part %d: unknown part type %q", i, p.Type)
		}
	}
	return nil
}

func (r *ImageRef) Validate() error {
	if (r.URL == "") == (r.Data == "") {
		return fmt.Errorf("exactly one of url or base64 must be set")
	}
	if r.Data != "" && r.MIMEType == "" {
		return fmt.Errorf("inline image data requires a mime_type")
	}
	return nil
}

// ValidateMessages checks a whole conversation in order.
func ValidateMessages(msgs []UnifiedMessage) error {
	if len(msgs) == 0 {
		return fmt.Errorf("at least one message is required")
	}
	for i := range msgs {
		if err := msgs[i].Validate(); err != nil {
			return fmt.Errorf("message %d: %w", i, err)
		}
	}
	return nil
}

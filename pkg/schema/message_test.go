package schema_test

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/nulzo/ai-gateway/pkg/schema"
)

func TestContentUnmarshalString(t *testing.T) {
	var msg schema.UnifiedMessage
	err := json.Unmarshal([]byte(`{"role":"user","content":"Hello"}`), &msg)
	assert.NoError(t, err)
	assert.Equal(t, schema.User, msg.Role)
	assert.Equal(t, "Hello", msg.Content.Text)
	assert.Nil(t, msg.Content.Parts)
}

func TestContentUnmarshalParts(t *testing.T) {
	raw := `{"role":"user","content":[
		{"type":"text","text":"What is this?"},
		{"type":"image","image":{"url":"https://example.com/cat.png","detail":"high"}}
	]}`

	var msg schema.UnifiedMessage
	err := json.Unmarshal([]byte(raw), &msg)
	assert.NoError(t, err)
	assert.Len(t, msg.Content.Parts, 2)
	assert.Equal(t, schema.PartText, msg.Content.Parts[0].Type)
	assert.Equal(t, schema.PartImage, msg.Content.Parts[1].Type)
	assert.Equal(t, "https://example.com/cat.png", msg.Content.Parts[1].Image.URL)
}

func TestContentMarshalRoundTrip(t *testing.T) {
	msg := schema.TextMessage(schema.Assistant, "hi")
	data, err := json.Marshal(msg)
	assert.NoError(t, err)
	assert.JSONEq(t, `{"role":"assistant","content":"hi"}`, string(data))
}

func TestImageRefValidate(t *testing.T) {
	tests := []struct {
		name    string
		ref     schema.ImageRef
		wantErr bool
	}{
		{"url only", schema.ImageRef{URL: "https://example.com/a.png"}, false},
		{"data with mime", schema.ImageRef{Data: "aGk=", MIMEType: "image/png"}, false},
		{"neither", schema.ImageRef{}, true},
		{"both", schema.ImageRef{URL: "https://example.com/a.png", Data: "aGk=", MIMEType: "image/png"}, true},
		{"data without mime", schema.ImageRef{Data: "aGk="}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.ref.Validate()
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestValidateMessages(t *testing.T) {
	assert.Error(t, schema.ValidateMessages(nil))

	msgs := []schema.UnifiedMessage{
		schema.TextMessage(schema.System, "be brief"),
		schema.TextMessage(schema.User, "hi"),
	}
	assert.NoError(t, schema.ValidateMessages(msgs))

	bad := []schema.UnifiedMessage{{Role: "tool", Content: schema.Content{Text: "x"}}}
	assert.Error(t, schema.ValidateMessages(bad))

	badPart := []schema.UnifiedMessage{{
		Role:    schema.User,
		Content: schema.Content{Parts: []schema.ContentPart{{Type: schema.PartImage}}},
	}}
	assert.Error(t, schema.ValidateMessages(badPart))
}

func TestStopUnion(t *testing.T) {
	var single schema.Stop
	assert.NoError(t, json.Unmarshal([]byte(`"END"`), &single))
	assert.Equal(t, []string{"END"}, single.Sequences())

	var many schema.Stop
	assert.NoError(t, json.Unmarshal([]byte(`["a","b"]`), &many))
	assert.Equal(t, []string{"a", "b"}, many.Sequences())

	var unset *schema.Stop
	assert.Nil(t, unset.Sequences())
}

package schema

import "encoding/json"

// Options carries the caller-tunable sampling and output parameters.
// Zero values mean "use the model's configured default".
type Options struct {
	Temperature    *float64 `json:"temperature,omitempty"`
	MaxTokens      int      `json:"max_tokens,omitempty"`
	TopP           *float64 `json:"top_p,omitempty"`
	Stop           *Stop    `json:"stop,omitempty"`
	ResponseFormat string   `json:"response_format,omitempty"` // e.g. "json_object"

	// Vision
	Detail string `json:"detail,omitempty"`

	// Image generation
	Size    string `json:"size,omitempty"`
	Quality string `json:"quality,omitempty"`
	N       int    `json:"n,omitempty"`
}

// Stop accepts either a single string or an array of strings on the wire.
type Stop struct {
	Val []string
}

func (s *Stop) UnmarshalJSON(data []byte) error {
	if len(data) > 0 && data[0] == '[' {
		return json.Unmarshal(data, &s.Val)
	}
	var str string
	if err := json.Unmarshal(data, &str); err != nil {
		return err
	}
	s.Val = []string{str}
	return nil
}

func (s Stop) MarshalJSON() ([]byte, error) {
	if len(s.Val) == 1 {
		return json.Marshal(s.Val[0])
	}
	return json.Marshal(s.Val)
}

// Sequences returns the stop sequences, or nil when unset.
func (s *Stop) Sequences() []string {
	if s == nil {
		return nil
	}
	return s.Val
}

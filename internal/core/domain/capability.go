package domain

import "fmt"

// Capability is one feature tag from the closed vocabulary. Anything outside
// the vocabulary is a configuration error, never silently ignored.
type Capability string

const (
	CapCompletion       Capability = "completion"
	CapStreaming        Capability = "streaming"
	CapVision           Capability = "vision"
	CapImageGeneration  Capability = "image_generation"
	CapEmbedding        Capability = "embedding"
	CapFunctionCalling  Capability = "function_calling"
	CapStructuredOutput Capability = "structured_output"
	CapAudioInput       Capability = "audio_input"
	CapAudioOutput      Capability = "audio_output"
)

var allCapabilities = map[Capability]bool{
	CapCompletion:       true,
	CapStreaming:        true,
	CapVision:           true,
	CapImageGeneration:  true,
	CapEmbedding:        true,
	CapFunctionCalling:  true,
	CapStructuredOutput: true,
	CapAudioInput:       true,
	CapAudioOutput:      true,
}

func (c Capability) Valid() bool {
	return allCapabilities[c]
}

// ParseCapability validates a raw tag against the vocabulary.
func ParseCapability(s string) (Capability, error) {
	c := Capability(s)
	if !c.Valid() {
		return "", fmt.Errorf("unknown capability %q", s)
	}
	return c, nil
}

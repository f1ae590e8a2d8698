package providers

import (
	"github.com/nulzo/ai-gateway/internal/core/domain"
)

// Binding ties one provider descriptor, one model descriptor, and the secret
// resolved at bind time together. Adapters embed it for the parts of the
// provider contract that are pure descriptor lookups.
type Binding struct {
	Provider *domain.ProviderDescriptor
	Model    *domain.ModelDescriptor
	Secret   string
}

func (b *Binding) Key() string {
	return b.Provider.Key
}

func (b *Binding) Type() string {
	return b.Provider.Type
}

func (b *Binding) Supports(c domain.Capability) bool {
	return b.Model.HasCapability(c)
}

// Gate rejects a capability-specific call before any upstream I/O happens.
func (b *Binding) Gate(c domain.Capability) error {
	if !b.Model.HasCapability(c) {
		return domain.ErrCapabilityNotSupported(b.Model.Key, c)
	}
	return nil
}

// MaxTokens picks the caller's value, then the model default, then the cap.
func (b *Binding) MaxTokens(requested int) int {
	if requested > 0 {
		return requested
	}
	if b.Model.MaxTokens > 0 {
		return b.Model.MaxTokens
	}
	return b.Model.MaxOutput
}

// Temperature falls back to the model's configured default.
func (b *Binding) Temperature(requested *float64) float64 {
	if requested != nil {
		return *requested
	}
	return b.Model.Temperature
}

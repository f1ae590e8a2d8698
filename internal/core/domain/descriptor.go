package domain

// ProviderDescriptor identifies one upstream provider account. Descriptors are
// owned by the configuration store and read-only inside the gateway; SecretEnv
// names the environment variable holding the credential, never its value.
type ProviderDescriptor struct {
	Key        string // e.g. "openai"
	Name       string
	Type       string // wire shape: "openai", "anthropic", "google"
	BaseURL    string
	AuthHeader string // header name override, empty for the provider default
	AuthPrefix string // e.g. "Bearer "
	SecretEnv  string
	Priority   int // higher wins default-model tie breaks
	Extra      map[string]string
}

// ModelDescriptor describes one addressable model, bound to exactly one
// provider. The capability set must be non-empty.
type ModelDescriptor struct {
	Key        string // public key, "provider/model"
	UpstreamID string // the ID sent to the upstream API
	Name       string

	Capabilities []Capability

	ContextWindow int
	MaxOutput     int

	// Defaults applied when the caller leaves options unset.
	Temperature float64
	MaxTokens   int

	// Informational only, per 1M tokens.
	PriceInput  float64
	PriceOutput float64

	// Default marks this model as its provider's default for its capabilities.
	Default bool

	Provider *ProviderDescriptor
}

func (m *ModelDescriptor) HasCapability(c Capability) bool {
	for _, have := range m.Capabilities {
		if have == c {
			return true
		}
	}
	return false
}

func (m *ModelDescriptor) ProviderKey() string {
	if m.Provider == nil {
		return ""
	}
	return m.Provider.Key
}

package registry

import (
	"fmt"
	"sync"

	"github.com/nulzo/ai-gateway/internal/core/domain"
	"github.com/nulzo/ai-gateway/internal/core/ports"
)

// Factory constructs a provider instance bound to one model descriptor. The
// secret is resolved by the selector exactly once per binding, not per call.
type Factory func(p *domain.ProviderDescriptor, m *domain.ModelDescriptor, secret string) (ports.ModelProvider, error)

var (
	mu        sync.RWMutex
	factories = make(map[string]Factory)
)

// Register makes a provider factory available to the selector. Adapters call
// this from init(), keyed by wire shape (e.g. "openai", "anthropic").
func Register(providerType string, f Factory) {
	mu.Lock()
	defer mu.Unlock()
	if _, exists := factories[providerType]; exists {
		panic(fmt.Sprintf("provider factory %s already registered", providerType))
	}
	factories[providerType] = f
}

// Get retrieves a factory for a provider wire shape.
func Get(providerType string) (Factory, error) {
	mu.RLock()
	defer mu.RUnlock()
	f, ok := factories[providerType]
	if !ok {
		return nil, fmt.Errorf("provider factory not found for type: %s", providerType)
	}
	return f, nil
}

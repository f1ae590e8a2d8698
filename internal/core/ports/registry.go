package ports

import (
	"context"

	"github.com/nulzo/ai-gateway/internal/core/domain"
)

// ModelRegistry answers model lookups from a snapshot of the configuration
// store, reloading synchronously when the snapshot goes stale.
type ModelRegistry interface {
	// Get returns the descriptor for an exact model key.
	Get(ctx context.Context, modelKey string) (*domain.ModelDescriptor, error)

	// DefaultFor returns the default model for a capability, tie-broken by
	// provider priority. providerKey narrows the search when non-empty.
	DefaultFor(ctx context.Context, c domain.Capability, providerKey string) (*domain.ModelDescriptor, error)

	// ListFor returns every model exposing a capability.
	ListFor(ctx context.Context, c domain.Capability) ([]*domain.ModelDescriptor, error)

	// List returns every model in the current snapshot.
	List(ctx context.Context) ([]*domain.ModelDescriptor, error)

	// Reload discards the snapshot and rebuilds it from the store.
	Reload(ctx context.Context) error
}

// ProviderSelector resolves a request's routing hints to one bound provider.
type ProviderSelector interface {
	Select(ctx context.Context, modelKey, preferredProvider string, required domain.Capability) (ModelProvider, *domain.ModelDescriptor, error)
}

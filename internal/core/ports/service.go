package ports

import (
	"context"

	"github.com/nulzo/ai-gateway/internal/core/domain"
	"github.com/nulzo/ai-gateway/pkg/schema"
)

// ModelFilter narrows registry listings at the HTTP surface.
type ModelFilter struct {
	Provider   string
	Capability string
}

// GatewayService is the dispatcher's contract: it maps an inbound action to
// registry lookup, selection, the provider call and response normalization.
type GatewayService interface {
	// Dispatch handles every non-streaming action. Typed errors are folded
	// into the envelope here and nowhere else.
	Dispatch(ctx context.Context, req *schema.Request) *schema.Response

	// DispatchStream resolves and starts a streaming completion, returning
	// the chunk channel and the descriptor it was bound to.
	DispatchStream(ctx context.Context, req *schema.Request) (<-chan StreamChunk, *domain.ModelDescriptor, error)

	// ListModels returns the registry contents for the models surface.
	ListModels(ctx context.Context, filter ModelFilter) ([]*domain.ModelDescriptor, error)

	// ReloadModels forces a registry reload.
	ReloadModels(ctx context.Context) error
}

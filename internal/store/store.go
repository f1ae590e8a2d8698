package store

import (
	"context"

	"github.com/nulzo/ai-gateway/internal/store/model"
)

// ConfigStore is the read-only source the registry loads from. Descriptors are
// created and updated outside this process; the gateway only ever lists them.
type ConfigStore interface {
	// ListActive returns all enabled provider and model rows in one pass so
	// a registry snapshot is never built from two inconsistent reads.
	ListActive(ctx context.Context) ([]model.Provider, []model.Model, error)

	Close() error
}

package services

import (
	"context"
	"os"

	"go.uber.org/zap"

	"github.com/nulzo/ai-gateway/internal/core/domain"
	"github.com/nulzo/ai-gateway/internal/core/ports"
	"github.com/nulzo/ai-gateway/internal/registry"
)

// SecretResolver maps a secret's name to its value. Production uses the
// process environment; tests substitute a map.
type SecretResolver func(name string) string

// Selector resolves a request's routing hints to exactly one provider
// instance bound to one model descriptor.
type Selector struct {
	registry ports.ModelRegistry
	secrets  SecretResolver
	logger   *zap.Logger
}

func NewSelector(reg ports.ModelRegistry, secrets SecretResolver, logger *zap.Logger) *Selector {
	if secrets == nil {
		secrets = os.Getenv
	}
	return &Selector{registry: reg, secrets: secrets, logger: logger}
}

// Select applies the resolution order: explicit model key first, then the
// default model for the required capability (optionally narrowed to one
// provider), then the default completion model. An explicit key that lacks
// the required capability is a hard error, never silently substituted.
func (s *Selector) Select(ctx context.Context, modelKey, preferredProvider string, required domain.Capability) (ports.ModelProvider, *domain.ModelDescriptor, error) {
	var (
		m   *domain.ModelDescriptor
		err error
	)

	switch {
	case modelKey != "":
		m, err = s.registry.Get(ctx, modelKey)
		if err != nil {
			return nil, nil, err
		}
		if required != "" && !m.HasCapability(required) {
			return nil, nil, domain.ErrIncompatibleCapability(m.Key, required)
		}
	case required != "":
		m, err = s.registry.DefaultFor(ctx, required, preferredProvider)
		if err != nil {
			return nil, nil, err
		}
	default:
		m, err = s.registry.DefaultFor(ctx, domain.CapCompletion, preferredProvider)
		if err != nil {
			return nil, nil, err
		}
	}

	p, err := s.bind(m)
	if err != nil {
		return nil, nil, err
	}
	return p, m, nil
}

// bind constructs the concrete provider for a descriptor. The secret is
// resolved here, once per binding, and only its presence is ever logged.
func (s *Selector) bind(m *domain.ModelDescriptor) (ports.ModelProvider, error) {
	factory, err := registry.Get(m.Provider.Type)
	if err != nil {
		return nil, domain.ErrInternal("no adapter for provider type", err)
	}

	secret := ""
	if m.Provider.SecretEnv != "" {
		secret = s.secrets(m.Provider.SecretEnv)
	}
	if secret == "" {
		s.logger.Error("Provider credential missing", zap.String("provider", m.Provider.Key))
		return nil, domain.ErrMissingCredential(m.Provider.Key)
	}

	p, err := factory(m.Provider, m, secret)
	if err != nil {
		return nil, domain.ErrInternal("provider construction failed", err)
	}
	return p, nil
}

package main

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/nulzo/ai-gateway/internal/core/domain"
)

// The registry fails its whole load on a single bad capability tag, so a
// catalog typo would take the gateway down. Every seeded string must parse.
func TestSeedCapabilitiesParse(t *testing.T) {
	for _, m := range seedModels() {
		for _, tag := range strings.Split(m.Capabilities, ",") {
			_, err := domain.ParseCapability(strings.TrimSpace(tag))
			assert.NoError(t, err, "model %s carries tag %q", m.Key, tag)
		}
	}
}

func TestSeedModelsReferenceSeededProviders(t *testing.T) {
	known := make(map[string]bool)
	for _, p := range seedProviders() {
		known[p.Key] = true
	}
	for _, m := range seedModels() {
		assert.True(t, known[m.ProviderKey], "model %s references provider %q", m.Key, m.ProviderKey)
		assert.True(t, strings.HasPrefix(m.Key, m.ProviderKey+"/"), "model key %s not namespaced by provider", m.Key)
	}
}

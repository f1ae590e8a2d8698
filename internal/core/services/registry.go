package services

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"go.uber.org/zap"

	"github.com/nulzo/ai-gateway/internal/core/domain"
	"github.com/nulzo/ai-gateway/internal/store"
	"github.com/nulzo/ai-gateway/internal/store/model"
)

// snapshot is one immutable view of the configuration store. Readers hold it
// without locking; a reload builds a fresh one and swaps the pointer.
type snapshot struct {
	models   map[string]*domain.ModelDescriptor
	loadedAt time.Time
}

// Registry caches provider and model descriptors with a time-based expiry.
// Stale snapshots trigger a synchronous, coalesced reload on next access.
type Registry struct {
	store  store.ConfigStore
	ttl    time.Duration
	logger *zap.Logger

	cur      atomic.Pointer[snapshot]
	reloadMu sync.Mutex
}

func NewRegistry(cfgStore store.ConfigStore, ttl time.Duration, logger *zap.Logger) *Registry {
	if ttl <= 0 {
		ttl = 5 * time.Minute
	}
	return &Registry{
		store:  cfgStore,
		ttl:    ttl,
		logger: logger,
	}
}

// current returns a fresh snapshot, loading the store when the cache is cold
// or stale. Concurrent stale readers converge on one winning reload: losers
// find a fresh snapshot after acquiring the lock and reuse it.
func (r *Registry) current(ctx context.Context) (*snapshot, error) {
	if s := r.cur.Load(); s != nil && time.Since(s.loadedAt) < r.ttl {
		return s, nil
	}

	r.reloadMu.Lock()
	defer r.reloadMu.Unlock()

	if s := r.cur.Load(); s != nil && time.Since(s.loadedAt) < r.ttl {
		return s, nil
	}

	s, err := r.load(ctx)
	if err != nil {
		// keep serving the stale snapshot rather than failing reads outright
		if stale := r.cur.Load(); stale != nil {
			r.logger.Error("Registry reload failed, serving stale snapshot", zap.Error(err))
			return stale, nil
		}
		return nil, domain.ErrInternal("model registry unavailable", err)
	}

	r.cur.Store(s)
	return s, nil
}

// load fetches provider and model rows in one pass and joins them. A model
// whose provider row is missing or whose capability set is empty or invalid
// fails the whole load; half-good configuration is a configuration error.
func (r *Registry) load(ctx context.Context) (*snapshot, error) {
	providerRows, modelRows, err := r.store.ListActive(ctx)
	if err != nil {
		return nil, fmt.Errorf("list active descriptors: %w", err)
	}

	providers := make(map[string]*domain.ProviderDescriptor, len(providerRows))
	for _, row := range providerRows {
		providers[row.Key] = providerFromRow(row)
	}

	models := make(map[string]*domain.ModelDescriptor, len(modelRows))
	for _, row := range modelRows {
		p, ok := providers[row.ProviderKey]
		if !ok {
			return nil, fmt.Errorf("model %q references unknown provider %q", row.Key, row.ProviderKey)
		}
		m, err := modelFromRow(row, p)
		if err != nil {
			return nil, fmt.Errorf("model %q: %w", row.Key, err)
		}
		models[m.Key] = m
	}

	r.logger.Info("Registry loaded",
		zap.Int("providers", len(providers)),
		zap.Int("models", len(models)),
	)

	return &snapshot{models: models, loadedAt: time.Now()}, nil
}

func providerFromRow(row model.Provider) *domain.ProviderDescriptor {
	extra := map[string]string{}
	if row.ConfigJSON != "" {
		// extra config is advisory; a broken blob should not sink the provider
		_ = json.Unmarshal([]byte(row.ConfigJSON), &extra)
	}
	return &domain.ProviderDescriptor{
		Key:        row.Key,
		Name:       row.Name,
		Type:       row.Type,
		BaseURL:    row.BaseURL,
		AuthHeader: row.AuthHeader,
		AuthPrefix: row.AuthPrefix,
		SecretEnv:  row.SecretEnv,
		Priority:   row.Priority,
		Extra:      extra,
	}
}

func modelFromRow(row model.Model, p *domain.ProviderDescriptor) (*domain.ModelDescriptor, error) {
	var caps []domain.Capability
	for _, raw := range strings.Split(row.Capabilities, ",") {
		raw = strings.TrimSpace(raw)
		if raw == "" {
			continue
		}
		c, err := domain.ParseCapability(raw)
		if err != nil {
			return nil, err
		}
		caps = append(caps, c)
	}
	if len(caps) == 0 {
		return nil, fmt.Errorf("capability set must not be empty")
	}

	return &domain.ModelDescriptor{
		Key:           row.Key,
		UpstreamID:    row.UpstreamID,
		Name:          row.Name,
		Capabilities:  caps,
		ContextWindow: row.ContextWindow,
		MaxOutput:     row.MaxOutput,
		Temperature:   row.Temperature,
		MaxTokens:     row.MaxTokens,
		PriceInput:    row.PriceInput,
		PriceOutput:   row.PriceOutput,
		Default:       row.IsDefault,
		Provider:      p,
	}, nil
}

func (r *Registry) Get(ctx context.Context, modelKey string) (*domain.ModelDescriptor, error) {
	s, err := r.current(ctx)
	if err != nil {
		return nil, err
	}

	if m, ok := s.models[modelKey]; ok {
		return m, nil
	}

	known := make([]string, 0, len(s.models))
	for k := range s.models {
		known = append(known, k)
	}
	sort.Strings(known)
	return nil, domain.ErrUnknownModel(modelKey, known)
}

func (r *Registry) DefaultFor(ctx context.Context, c domain.Capability, providerKey string) (*domain.ModelDescriptor, error) {
	s, err := r.current(ctx)
	if err != nil {
		return nil, err
	}

	var best *domain.ModelDescriptor
	for _, m := range s.models {
		if !m.Default || !m.HasCapability(c) {
			continue
		}
		if providerKey != "" && m.ProviderKey() != providerKey {
			continue
		}
		if best == nil ||
			m.Provider.Priority > best.Provider.Priority ||
			(m.Provider.Priority == best.Provider.Priority && m.Key < best.Key) {
			best = m
		}
	}
	if best == nil {
		return nil, domain.ErrNoModelForCapability(c)
	}
	return best, nil
}

func (r *Registry) ListFor(ctx context.Context, c domain.Capability) ([]*domain.ModelDescriptor, error) {
	s, err := r.current(ctx)
	if err != nil {
		return nil, err
	}

	var out []*domain.ModelDescriptor
	for _, m := range s.models {
		if m.HasCapability(c) {
			out = append(out, m)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Key < out[j].Key })
	return out, nil
}

func (r *Registry) List(ctx context.Context) ([]*domain.ModelDescriptor, error) {
	s, err := r.current(ctx)
	if err != nil {
		return nil, err
	}

	out := make([]*domain.ModelDescriptor, 0, len(s.models))
	for _, m := range s.models {
		out = append(out, m)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Key < out[j].Key })
	return out, nil
}

// Reload forces a rebuild regardless of snapshot age.
func (r *Registry) Reload(ctx context.Context) error {
	r.reloadMu.Lock()
	defer r.reloadMu.Unlock()

	s, err := r.load(ctx)
	if err != nil {
		return domain.ErrInternal("registry reload failed", err)
	}
	r.cur.Store(s)
	return nil
}

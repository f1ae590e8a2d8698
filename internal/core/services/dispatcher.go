package services

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"net/http"
	"time"

	"go.uber.org/zap"

	"github.com/nulzo/ai-gateway/internal/core/domain"
	"github.com/nulzo/ai-gateway/internal/core/ports"
	"github.com/nulzo/ai-gateway/pkg/schema"
)

// Dispatcher maps an inbound action to the registry → selector → provider
// call sequence and is the single place typed errors become the envelope.
type Dispatcher struct {
	registry ports.ModelRegistry
	selector ports.ProviderSelector
	cache    ports.CacheService
	cacheTTL time.Duration
	logger   *zap.Logger
}

func NewDispatcher(reg ports.ModelRegistry, sel ports.ProviderSelector, cache ports.CacheService, cacheTTL time.Duration, logger *zap.Logger) *Dispatcher {
	if cacheTTL <= 0 {
		cacheTTL = time.Hour
	}
	return &Dispatcher{
		registry: reg,
		selector: sel,
		cache:    cache,
		cacheTTL: cacheTTL,
		logger:   logger,
	}
}

// actionCapability is the capability an action demands of the bound model.
func actionCapability(a schema.Action) domain.Capability {
	switch a {
	case schema.ActionStream:
		return domain.CapStreaming
	case schema.ActionVision:
		return domain.CapVision
	case schema.ActionGenerateImage:
		return domain.CapImageGeneration
	case schema.ActionEmbed:
		return domain.CapEmbedding
	default:
		return domain.CapCompletion
	}
}

// requiredCapability folds an explicit payload capability into the action's
// own demand. An explicit tag outside the vocabulary is rejected here.
func requiredCapability(req *schema.Request) (domain.Capability, error) {
	if req.Payload.Capability != "" {
		return domain.ParseCapability(req.Payload.Capability)
	}
	return actionCapability(req.Action), nil
}

func (d *Dispatcher) Dispatch(ctx context.Context, req *schema.Request) *schema.Response {
	data, err := d.dispatch(ctx, req)
	if err != nil {
		return d.fail(err)
	}
	return &schema.Response{Success: true, Data: data, Status: http.StatusOK}
}

func (d *Dispatcher) dispatch(ctx context.Context, req *schema.Request) (*schema.ResponseData, error) {
	required, err := requiredCapability(req)
	if err != nil {
		return nil, domain.ErrBadRequest(err.Error())
	}

	if err := validatePayload(req); err != nil {
		return nil, err
	}

	provider, model, err := d.selector.Select(ctx, req.Payload.Model, req.Payload.Provider, required)
	if err != nil {
		return nil, err
	}

	switch req.Action {
	case schema.ActionComplete:
		res, err := provider.Complete(ctx, req.Payload.Messages, req.Payload.Options)
		if err != nil {
			return nil, err
		}
		return &schema.ResponseData{
			Model:        res.Model,
			Provider:     res.Provider,
			Content:      res.Content,
			FinishReason: res.FinishReason,
			Usage:        &res.Usage,
		}, nil

	case schema.ActionVision:
		res, err := provider.AnalyzeImage(ctx, *req.Payload.Image, req.Payload.Prompt, req.Payload.Options)
		if err != nil {
			return nil, err
		}
		return &schema.ResponseData{
			Model:        res.Model,
			Provider:     res.Provider,
			Content:      res.Content,
			FinishReason: res.FinishReason,
			Usage:        &res.Usage,
		}, nil

	case schema.ActionGenerateImage:
		res, err := provider.GenerateImage(ctx, req.Payload.Prompt, req.Payload.Options)
		if err != nil {
			return nil, err
		}
		return &schema.ResponseData{
			Model:    res.Model,
			Provider: res.Provider,
			Images:   res.Images,
		}, nil

	case schema.ActionEmbed:
		res, err := d.embed(ctx, provider, model, req.Payload.Texts, req.Payload.Options)
		if err != nil {
			return nil, err
		}
		return &schema.ResponseData{
			Model:      res.Model,
			Provider:   res.Provider,
			Embeddings: res.Embeddings,
			Usage:      &res.Usage,
		}, nil

	default:
		return nil, domain.ErrBadRequest("action not dispatchable on this path")
	}
}

// embed consults the cache first: embedding calls are deterministic per
// model and input, so a hit skips the upstream entirely.
func (d *Dispatcher) embed(ctx context.Context, provider ports.ModelProvider, model *domain.ModelDescriptor, texts []string, opts schema.Options) (*schema.EmbeddingResult, error) {
	key := embedCacheKey(model.Key, texts)

	if d.cache != nil {
		var cached schema.EmbeddingResult
		if err := d.cache.Get(ctx, key, &cached); err == nil {
			return &cached, nil
		}
	}

	res, err := provider.Embed(ctx, texts, opts)
	if err != nil {
		return nil, err
	}

	if d.cache != nil {
		if err := d.cache.Set(ctx, key, res, d.cacheTTL); err != nil {
			d.logger.Warn("Embedding cache write failed", zap.Error(err))
		}
	}
	return res, nil
}

func embedCacheKey(modelKey string, texts []string) string {
	h := sha256.New()
	h.Write([]byte(modelKey))
	for _, t := range texts {
		h.Write([]byte{0})
		h.Write([]byte(t))
	}
	return "embed:" + hex.EncodeToString(h.Sum(nil))
}

// DispatchStream resolves and starts a streaming completion. Errors before
// the first chunk surface here; mid-stream errors arrive on the channel.
func (d *Dispatcher) DispatchStream(ctx context.Context, req *schema.Request) (<-chan ports.StreamChunk, *domain.ModelDescriptor, error) {
	if req.Action != schema.ActionStream {
		return nil, nil, domain.ErrBadRequest("action must be \"stream\"")
	}

	required, err := requiredCapability(req)
	if err != nil {
		return nil, nil, domain.ErrBadRequest(err.Error())
	}

	if err := schema.ValidateMessages(req.Payload.Messages); err != nil {
		return nil, nil, domain.ErrBadRequest(err.Error())
	}

	provider, model, err := d.selector.Select(ctx, req.Payload.Model, req.Payload.Provider, required)
	if err != nil {
		return nil, nil, err
	}

	ch, err := provider.Stream(ctx, req.Payload.Messages, req.Payload.Options)
	if err != nil {
		return nil, nil, err
	}
	return ch, model, nil
}

func (d *Dispatcher) ListModels(ctx context.Context, filter ports.ModelFilter) ([]*domain.ModelDescriptor, error) {
	var (
		models []*domain.ModelDescriptor
		err    error
	)
	if filter.Capability != "" {
		c, perr := domain.ParseCapability(filter.Capability)
		if perr != nil {
			return nil, domain.ErrBadRequest(perr.Error())
		}
		models, err = d.registry.ListFor(ctx, c)
	} else {
		models, err = d.registry.List(ctx)
	}
	if err != nil {
		return nil, err
	}

	if filter.Provider == "" {
		return models, nil
	}
	var out []*domain.ModelDescriptor
	for _, m := range models {
		if m.ProviderKey() == filter.Provider {
			out = append(out, m)
		}
	}
	return out, nil
}

func (d *Dispatcher) ReloadModels(ctx context.Context) error {
	return d.registry.Reload(ctx)
}

func validatePayload(req *schema.Request) error {
	switch req.Action {
	case schema.ActionComplete, schema.ActionStream:
		if err := schema.ValidateMessages(req.Payload.Messages); err != nil {
			return domain.ErrBadRequest(err.Error())
		}
	case schema.ActionVision:
		if req.Payload.Image == nil {
			return domain.ErrBadRequest("vision requires an image")
		}
		if err := req.Payload.Image.Validate(); err != nil {
			return domain.ErrBadRequest(err.Error())
		}
		if req.Payload.Prompt == "" {
			return domain.ErrBadRequest("vision requires a prompt")
		}
	case schema.ActionGenerateImage:
		if req.Payload.Prompt == "" {
			return domain.ErrBadRequest("image generation requires a prompt")
		}
	case schema.ActionEmbed:
		if len(req.Payload.Texts) == 0 {
			return domain.ErrBadRequest("embed requires at least one text")
		}
	}
	return nil
}

// fail folds a typed error into the envelope. Anything outside the taxonomy
// is logged and reported as an internal error without detail.
func (d *Dispatcher) fail(err error) *schema.Response {
	var ge *domain.Error
	if errors.As(err, &ge) {
		if ge.Log != nil {
			d.logger.Warn("Request failed", zap.String("kind", string(ge.Kind)), zap.Error(ge.Log))
		}
		return &schema.Response{Success: false, Error: ge.Message, Status: ge.Code}
	}

	d.logger.Error("Unclassified dispatch error", zap.Error(err))
	return &schema.Response{Success: false, Error: "internal error", Status: http.StatusInternalServerError}
}

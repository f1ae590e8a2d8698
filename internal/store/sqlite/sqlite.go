package sqlite

import (
	"context"

	"github.com/jmoiron/sqlx"

	"github.com/nulzo/ai-gateway/internal/store/model"
)

// Repository implements store.ConfigStore over sqlx.
type Repository struct {
	db *sqlx.DB
}

func NewRepository(db *sqlx.DB) *Repository {
	return &Repository{db: db}
}

func (r *Repository) Close() error {
	return r.db.Close()
}

// ListActive fetches providers and their models in one pass. Models are joined
// against enabled providers so a model row can never reference a provider the
// snapshot does not contain.
func (r *Repository) ListActive(ctx context.Context) ([]model.Provider, []model.Model, error) {
	var providers []model.Provider
	if err := r.db.SelectContext(ctx, &providers,
		`SELECT * FROM providers WHERE is_enabled = 1 ORDER BY priority DESC, key`); err != nil {
		return nil, nil, err
	}

	var models []model.Model
	query := `
	SELECT m.* FROM models m
	JOIN providers p ON p.key = m.provider_key
	WHERE m.is_enabled = 1 AND p.is_enabled = 1
	ORDER BY m.key`
	if err := r.db.SelectContext(ctx, &models, query); err != nil {
		return nil, nil, err
	}

	return providers, models, nil
}

// UpsertProvider and UpsertModel exist for the seed command; the gateway
// itself never writes.
func (r *Repository) UpsertProvider(ctx context.Context, p *model.Provider) error {
	query := `
	INSERT INTO providers (key, name, type, base_url, auth_header, auth_prefix, secret_env, priority, config_json, is_enabled, created_at, updated_at)
	VALUES (:key, :name, :type, :base_url, :auth_header, :auth_prefix, :secret_env, :priority, :config_json, :is_enabled, :created_at, :updated_at)
	ON CONFLICT(key) DO UPDATE SET
		name = excluded.name, type = excluded.type, base_url = excluded.base_url,
		auth_header = excluded.auth_header, auth_prefix = excluded.auth_prefix,
		secret_env = excluded.secret_env, priority = excluded.priority,
		config_json = excluded.config_json, is_enabled = excluded.is_enabled,
		updated_at = excluded.updated_at`
	_, err := r.db.NamedExecContext(ctx, query, p)
	return err
}

func (r *Repository) UpsertModel(ctx context.Context, m *model.Model) error {
	query := `
	INSERT INTO models (key, provider_key, upstream_id, name, capabilities, context_window, max_output,
		temperature, max_tokens, price_input, price_output, is_default, is_enabled, created_at, updated_at)
	VALUES (:key, :provider_key, :upstream_id, :name, :capabilities, :context_window, :max_output,
		:temperature, :max_tokens, :price_input, :price_output, :is_default, :is_enabled, :created_at, :updated_at)
	ON CONFLICT(key) DO UPDATE SET
		provider_key = excluded.provider_key, upstream_id = excluded.upstream_id, name = excluded.name,
		capabilities = excluded.capabilities, context_window = excluded.context_window,
		max_output = excluded.max_output, temperature = excluded.temperature,
		max_tokens = excluded.max_tokens, price_input = excluded.price_input,
		price_output = excluded.price_output, is_default = excluded.is_default,
		is_enabled = excluded.is_enabled, updated_at = excluded.updated_at`
	_, err := r.db.NamedExecContext(ctx, query, m)
	return err
}

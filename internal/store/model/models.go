package model

import "time"

// Provider is one upstream LLM service account (OpenAI, Anthropic, Google).
type Provider struct {
	Key        string    `db:"key" json:"key"`
	Name       string    `db:"name" json:"name"`
	Type       string    `db:"type" json:"type"` // wire shape the adapter speaks
	BaseURL    string    `db:"base_url" json:"base_url"`
	AuthHeader string    `db:"auth_header" json:"auth_header"`
	AuthPrefix string    `db:"auth_prefix" json:"auth_prefix"`
	SecretEnv  string    `db:"secret_env" json:"-"` // env var name, never the value
	Priority   int       `db:"priority" json:"priority"`
	ConfigJSON string    `db:"config_json" json:"config_json"`
	IsEnabled  bool      `db:"is_enabled" json:"is_enabled"`
	CreatedAt  time.Time `db:"created_at" json:"created_at"`
	UpdatedAt  time.Time `db:"updated_at" json:"updated_at"`
}

// Model is one addressable model offered by a provider.
type Model struct {
	Key           string    `db:"key" json:"key"` // public key, "provider/model"
	ProviderKey   string    `db:"provider_key" json:"provider_key"`
	UpstreamID    string    `db:"upstream_id" json:"upstream_id"`
	Name          string    `db:"name" json:"name"`
	Capabilities  string    `db:"capabilities" json:"capabilities"` // comma-separated tags
	ContextWindow int       `db:"context_window" json:"context_window"`
	MaxOutput     int       `db:"max_output" json:"max_output"`
	Temperature   float64   `db:"temperature" json:"temperature"`
	MaxTokens     int       `db:"max_tokens" json:"max_tokens"`
	PriceInput    float64   `db:"price_input" json:"price_input"`   // per 1M tokens
	PriceOutput   float64   `db:"price_output" json:"price_output"` // per 1M tokens
	IsDefault     bool      `db:"is_default" json:"is_default"`
	IsEnabled     bool      `db:"is_enabled" json:"is_enabled"`
	CreatedAt     time.Time `db:"created_at" json:"created_at"`
	UpdatedAt     time.Time `db:"updated_at" json:"updated_at"`
}

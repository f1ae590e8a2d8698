package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/nulzo/ai-gateway/internal/store/model"
	"github.com/nulzo/ai-gateway/internal/store/sqlite"
)

func seedProviders() []model.Provider {
	return []model.Provider{
		{
			Key:       "openai",
			Name:      "OpenAI",
			Type:      "openai",
			BaseURL:   "https://api.openai.com/v1",
			SecretEnv: "OPENAI_API_KEY",
			Priority:  100,
			IsEnabled: true,
		},
		{
			Key:        "anthropic",
			Name:       "Anthropic",
			Type:       "anthropic",
			BaseURL:    "https://api.anthropic.com/v1",
			SecretEnv:  "ANTHROPIC_API_KEY",
			Priority:   90,
			ConfigJSON: `{"version":"2023-06-01"}`,
			IsEnabled:  true,
		},
		{
			Key:       "google",
			Name:      "Google Gemini",
			Type:      "google",
			BaseURL:   "https://generativelanguage.googleapis.com/v1beta",
			SecretEnv: "GOOGLE_API_KEY",
			Priority:  80,
			IsEnabled: true,
		},
	}
}

func seedModels() []model.Model {
	return []model.Model{
		{
			Key: "openai/gpt-4o", ProviderKey: "openai", UpstreamID: "gpt-4o", Name: "GPT-4o",
			Capabilities:  "completion,streaming,vision,function_calling,structured_output",
			ContextWindow: 128000, MaxOutput: 16384, Temperature: 0.7, MaxTokens: 4096,
			PriceInput: 2.5, PriceOutput: 10, IsDefault: true, IsEnabled: true,
		},
		{
			Key: "openai/gpt-4o-mini", ProviderKey: "openai", UpstreamID: "gpt-4o-mini", Name: "GPT-4o mini",
			Capabilities:  "completion,streaming,vision,function_calling,structured_output",
			ContextWindow: 128000, MaxOutput: 16384, Temperature: 0.7, MaxTokens: 4096,
			PriceInput: 0.15, PriceOutput: 0.6, IsEnabled: true,
		},
		{
			Key: "openai/dall-e-3", ProviderKey: "openai", UpstreamID: "dall-e-3", Name: "DALL-E 3",
			Capabilities: "image_generation", IsDefault: true, IsEnabled: true,
		},
		{
			Key: "openai/text-embedding-3-small", ProviderKey: "openai", UpstreamID: "text-embedding-3-small",
			Name: "Text Embedding 3 Small", Capabilities: "embedding",
			PriceInput: 0.02, IsDefault: true, IsEnabled: true,
		},
		{
			Key: "anthropic/claude-sonnet", ProviderKey: "anthropic", UpstreamID: "claude-3-5-sonnet-latest",
			Name: "Claude Sonnet", Capabilities: "completion,streaming,vision,function_calling",
			ContextWindow: 200000, MaxOutput: 8192, Temperature: 0.7, MaxTokens: 4096,
			PriceInput: 3, PriceOutput: 15, IsDefault: true, IsEnabled: true,
		},
		{
			Key: "anthropic/claude-haiku", ProviderKey: "anthropic", UpstreamID: "claude-3-5-haiku-latest",
			Name: "Claude Haiku", Capabilities: "completion,streaming,vision",
			ContextWindow: 200000, MaxOutput: 8192, Temperature: 0.7, MaxTokens: 4096,
			PriceInput: 0.8, PriceOutput: 4, IsEnabled: true,
		},
		{
			Key: "google/gemini-flash", ProviderKey: "google", UpstreamID: "gemini-1.5-flash",
			Name: "Gemini 1.5 Flash", Capabilities: "completion,streaming,vision,structured_output",
			ContextWindow: 1000000, MaxOutput: 8192, Temperature: 0.7, MaxTokens: 4096,
			PriceInput: 0.075, PriceOutput: 0.3, IsDefault: true, IsEnabled: true,
		},
		{
			Key: "google/text-embedding-004", ProviderKey: "google", UpstreamID: "text-embedding-004",
			Name: "Text Embedding 004", Capabilities: "embedding",
			IsDefault: true, IsEnabled: true,
		},
	}
}

// Seeds the configuration store with a starter catalog. Secret values are
// never written; providers carry only the env var name to read at bind time.
func main() {
	dsn := os.Getenv("STORE_DSN")
	if dsn == "" {
		dsn = "gateway.db"
	}

	repo, err := sqlite.NewSQLiteStore(dsn, zap.NewNop())
	if err != nil {
		log.Fatal(err)
	}
	defer repo.Close()

	ctx := context.Background()
	now := time.Now()

	providers := seedProviders()
	models := seedModels()

	for i := range providers {
		providers[i].CreatedAt = now
		providers[i].UpdatedAt = now
		if err := repo.UpsertProvider(ctx, &providers[i]); err != nil {
			log.Fatalf("seed provider %s: %v", providers[i].Key, err)
		}
		fmt.Printf("Seeded provider: %s\n", providers[i].Key)
	}

	for i := range models {
		models[i].CreatedAt = now
		models[i].UpdatedAt = now
		if err := repo.UpsertModel(ctx, &models[i]); err != nil {
			log.Fatalf("seed model %s: %v", models[i].Key, err)
		}
		fmt.Printf("Seeded model:    %s\n", models[i].Key)
	}

	apiKey := "sk-gw-" + uuid.New().String()
	fmt.Printf("\nSeed complete.\n")
	fmt.Printf("Generated gateway API key: %s\n", apiKey)
	fmt.Printf("Add it to config as auth.api_keys and send it as Bearer %s\n", apiKey)
}

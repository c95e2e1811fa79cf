package config_test

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/easyops/adqa-go/pkg/core/config"
)

func writeFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatalf("write %s: %v", name, err)
	}
	return path
}

func TestDefault(t *testing.T) {
	cfg := config.Default()

	if cfg.LLM.Provider != config.ProviderGemini || cfg.LLM.Model != "gemini-2.5-pro" {
		t.Fatalf("unexpected llm defaults: %+v", cfg.LLM)
	}
	if cfg.Answer.ContextBudget != 4000 || cfg.Answer.MinRemainder != 100 {
		t.Fatalf("unexpected answer defaults: %+v", cfg.Answer)
	}
	if cfg.Answer.PreviewLength != 200 || cfg.Answer.PreviewParts != 3 {
		t.Fatalf("unexpected preview defaults: %+v", cfg.Answer)
	}
	if len(cfg.Search.PrioritySites) != 6 || cfg.Search.GenericResults != 5 {
		t.Fatalf("unexpected search defaults: %+v", cfg.Search)
	}
	if cfg.Vector.Backend != config.VectorBackendQdrant || cfg.Vector.Collection != "DM_docs" || cfg.Vector.TopK != 3 {
		t.Fatalf("unexpected vector defaults: %+v", cfg.Vector)
	}
	if cfg.Vector.Endpoint() != "http://localhost:6333" {
		t.Fatalf("unexpected vector endpoint: %s", cfg.Vector.Endpoint())
	}
	if cfg.Server.MaxQueryLength != 1000 {
		t.Fatalf("unexpected max query length: %d", cfg.Server.MaxQueryLength)
	}
}

func TestDefault_PrioritySitesIsCopy(t *testing.T) {
	cfg := config.Default()
	cfg.Search.PrioritySites[0] = "changed"

	if config.DefaultPrioritySites[0] == "changed" {
		t.Fatal("defaults must not alias the package-level site list")
	}
}

func TestLoad_YAMLFile(t *testing.T) {
	path := writeFile(t, "adqa.yaml", `
llm:
  provider: openai
  model: gpt-4o
  api_key: sk-file
answer:
  context_budget: 6000
search:
  priority_sites:
    - https://example.com/a
    - https://example.com/b
server:
  request_timeout: 15s
`)

	cfg, err := config.Load(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}

	if cfg.LLM.Provider != config.ProviderOpenAI || cfg.LLM.Model != "gpt-4o" || cfg.LLM.APIKey != "sk-file" {
		t.Fatalf("unexpected llm config: %+v", cfg.LLM)
	}
	if cfg.Answer.ContextBudget != 6000 {
		t.Fatalf("expected budget 6000, got %d", cfg.Answer.ContextBudget)
	}
	if len(cfg.Search.PrioritySites) != 2 {
		t.Fatalf("expected 2 sites, got %v", cfg.Search.PrioritySites)
	}
	if cfg.Server.RequestTimeout != 15*time.Second {
		t.Fatalf("expected 15s timeout, got %v", cfg.Server.RequestTimeout)
	}
}

func TestLoad_EnvOverridesFile(t *testing.T) {
	path := writeFile(t, "adqa.yaml", "answer:\n  context_budget: 6000\n")
	t.Setenv("ADQA_ANSWER__CONTEXT_BUDGET", "2500")
	t.Setenv("ADQA_VECTOR__TOP_K", "5")

	cfg, err := config.Load(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.Answer.ContextBudget != 2500 {
		t.Fatalf("expected env budget 2500, got %d", cfg.Answer.ContextBudget)
	}
	if cfg.Vector.TopK != 5 {
		t.Fatalf("expected top_k 5, got %d", cfg.Vector.TopK)
	}
}

func TestLoad_LegacyEnv(t *testing.T) {
	t.Setenv("GEMINI_API_KEY", "gm-key")
	t.Setenv("SERPAPI_API_KEY", "serp-key")
	t.Setenv("QDRANT_URL", "https://cluster.qdrant.io")
	t.Setenv("QDRANT_API_KEY", "qd-key")

	cfg, err := config.Load("")
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.LLM.APIKey != "gm-key" || cfg.Embedding.APIKey != "gm-key" {
		t.Fatalf("expected gemini key from legacy env, got %q/%q", cfg.LLM.APIKey, cfg.Embedding.APIKey)
	}
	if cfg.Search.APIKey != "serp-key" {
		t.Fatalf("expected serpapi key, got %q", cfg.Search.APIKey)
	}
	if cfg.Vector.Endpoint() != "https://cluster.qdrant.io" || cfg.Vector.APIKey != "qd-key" {
		t.Fatalf("unexpected vector config: %+v", cfg.Vector)
	}
}

func TestLoad_LegacyQdrantHostPort(t *testing.T) {
	t.Setenv("QDRANT_URL", "")
	t.Setenv("QDRANT_HOST", "qdrant")
	t.Setenv("QDRANT_PORT", "7333")

	cfg, err := config.Load("")
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.Vector.Endpoint() != "http://qdrant:7333" {
		t.Fatalf("unexpected endpoint: %s", cfg.Vector.Endpoint())
	}
}

func TestLoad_MissingFileUsesDefaults(t *testing.T) {
	cfg, err := config.Load(filepath.Join(t.TempDir(), "absent.yaml"))
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.Answer.ContextBudget != 4000 {
		t.Fatalf("expected default budget, got %d", cfg.Answer.ContextBudget)
	}
}

func TestLoad_UnsupportedFormat(t *testing.T) {
	path := writeFile(t, "adqa.toml", "x = 1\n")

	_, err := config.Load(path)
	if !errors.Is(err, config.ErrUnsupportedFormat) {
		t.Fatalf("expected ErrUnsupportedFormat, got %v", err)
	}
}

func TestLoad_InvalidProvider(t *testing.T) {
	t.Setenv("ADQA_LLM__PROVIDER", "cohere")

	_, err := config.Load("")
	if !errors.Is(err, config.ErrInvalidProvider) {
		t.Fatalf("expected ErrInvalidProvider, got %v", err)
	}
}

func TestLoad_NegativeBudget(t *testing.T) {
	t.Setenv("ADQA_ANSWER__CONTEXT_BUDGET", "-1")

	_, err := config.Load("")
	if !errors.Is(err, config.ErrInvalidBudget) {
		t.Fatalf("expected ErrInvalidBudget, got %v", err)
	}
}

func TestLoad_InvalidVectorBackend(t *testing.T) {
	t.Setenv("ADQA_VECTOR__BACKEND", "pinecone")

	_, err := config.Load("")
	if !errors.Is(err, config.ErrInvalidBackend) {
		t.Fatalf("expected ErrInvalidBackend, got %v", err)
	}
}

func TestLoader_DotEnv(t *testing.T) {
	path := writeFile(t, ".env", "ADQA_TEST_DOTENV_KEY=from-dotenv\n")
	t.Cleanup(func() { os.Unsetenv("ADQA_TEST_DOTENV_KEY") })

	loader := config.NewLoader()
	if err := loader.LoadDotEnv(path, filepath.Join(t.TempDir(), "missing.env")); err != nil {
		t.Fatalf("load dotenv: %v", err)
	}
	if os.Getenv("ADQA_TEST_DOTENV_KEY") != "from-dotenv" {
		t.Fatal("expected .env value exported to process environment")
	}
}

func TestLLMConfig_Validate(t *testing.T) {
	cfg := config.LLMConfig{Provider: config.ProviderGemini, Model: "m", Temperature: 3}
	if err := cfg.Validate(); err != config.ErrInvalidTemperature {
		t.Fatalf("expected ErrInvalidTemperature, got %v", err)
	}

	cfg = config.LLMConfig{Provider: config.ProviderGemini}
	if err := cfg.Validate(); err != config.ErrModelRequired {
		t.Fatalf("expected ErrModelRequired, got %v", err)
	}

	cfg = config.LLMConfig{Provider: config.ProviderOpenAI, Model: "m", Timeout: time.Hour}
	if err := cfg.Validate(); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.Timeout != 5*time.Minute {
		t.Fatalf("expected timeout capped to 5m, got %v", cfg.Timeout)
	}
}

func TestEmbeddingConfig_ForQueries(t *testing.T) {
	cfg := config.EmbeddingConfig{Provider: config.ProviderOpenAI, Model: "m", MaxRetries: 3, RetryDelay: time.Second}

	q := cfg.ForQueries()
	if q.MaxRetries != 0 {
		t.Fatalf("expected query embedder without retries, got %d", q.MaxRetries)
	}
	if q.Model != cfg.Model || q.RetryDelay != cfg.RetryDelay {
		t.Fatalf("expected other fields unchanged, got %+v", q)
	}
	if cfg.MaxRetries != 3 {
		t.Fatal("expected ingestion config untouched")
	}
}

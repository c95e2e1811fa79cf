package llm

import (
	"context"
	"fmt"

	"github.com/easyops/adqa-go/pkg/core/config"
)

// FromConfig 从配置创建生成模型 Provider
func FromConfig(ctx context.Context, cfg config.LLMConfig) (Provider, error) {
	cfg = cfg.WithDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	opts := []Option{
		WithAPIKey(cfg.APIKey),
		WithModel(cfg.Model),
		WithTimeout(cfg.Timeout),
		WithTemperature(cfg.Temperature),
		WithMaxTokens(cfg.MaxTokens),
		WithSafetyFiltersDisabled(cfg.DisableSafetyFilters),
	}
	if cfg.BaseURL != "" {
		opts = append(opts, WithBaseURL(cfg.BaseURL))
	}

	return newProvider(ctx, cfg.Provider, opts)
}

// EmbedderFromConfig 从配置创建嵌入 Provider
func EmbedderFromConfig(ctx context.Context, cfg config.EmbeddingConfig) (Provider, error) {
	cfg = cfg.WithDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	opts := []Option{
		WithAPIKey(cfg.APIKey),
		WithEmbeddingModel(cfg.Model),
		WithTimeout(cfg.Timeout),
		WithMaxRetries(cfg.MaxRetries),
		WithRetryDelay(cfg.RetryDelay),
	}
	if cfg.BaseURL != "" {
		opts = append(opts, WithBaseURL(cfg.BaseURL))
	}

	return newProvider(ctx, cfg.Provider, opts)
}

// newProvider 根据提供商类型创建客户端
func newProvider(ctx context.Context, p config.Provider, opts []Option) (Provider, error) {
	switch p {
	case config.ProviderOpenAI:
		return NewOpenAI(opts...)
	case config.ProviderGemini:
		return NewGemini(ctx, opts...)
	default:
		return nil, fmt.Errorf("unsupported provider: %s", p)
	}
}

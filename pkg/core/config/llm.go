package config

import "time"

// Provider 模型供应商
type Provider string

const (
	// ProviderOpenAI OpenAI 及兼容端点
	ProviderOpenAI Provider = "openai"
	ProviderGemini Provider = "gemini"
)

// maxLLMTimeout 生成请求超时上限，超过时截断而不是报错
const maxLLMTimeout = 5 * time.Minute

// 各供应商未指定模型时的默认值
var (
	defaultChatModels = map[Provider]string{
		ProviderOpenAI: "gpt-4o-mini",
		ProviderGemini: "gemini-2.5-pro",
	}
	defaultEmbeddingModels = map[Provider]string{
		ProviderOpenAI: "text-embedding-3-small",
		ProviderGemini: "text-embedding-004",
	}
)

// IsValid 是否为已支持的供应商
func (p Provider) IsValid() bool {
	_, ok := defaultChatModels[p]
	return ok
}

// LLMConfig 生成模型，对应配置文件的 llm 段
type LLMConfig struct {
	Provider Provider `koanf:"provider"`
	Model    string   `koanf:"model"`
	APIKey   string   `koanf:"api_key"`
	// BaseURL 仅 OpenAI 兼容端点读取
	BaseURL string        `koanf:"base_url"`
	Timeout time.Duration `koanf:"timeout"`

	Temperature float64 `koanf:"temperature"`
	MaxTokens   int     `koanf:"max_tokens"`

	// DisableSafetyFilters Gemini 的全部安全类别设为 BLOCK_NONE
	DisableSafetyFilters bool `koanf:"disable_safety_filters"`
}

// Validate 校验并把超时截断到 maxLLMTimeout
func (c *LLMConfig) Validate() error {
	if err := validateModel(c.Provider, c.Model, c.Timeout); err != nil {
		return err
	}
	if c.Temperature < 0 || c.Temperature > 2 {
		return ErrInvalidTemperature
	}
	c.Timeout = min(c.Timeout, maxLLMTimeout)
	return nil
}

// WithDefaults 默认 Gemini，温度 0.7，最多输出 2048 token
func (c LLMConfig) WithDefaults() LLMConfig {
	if c.Provider == "" {
		c.Provider = ProviderGemini
	}
	if c.Model == "" {
		c.Model = defaultChatModels[c.Provider]
	}
	if c.Timeout == 0 {
		c.Timeout = 60 * time.Second
	}
	if c.Temperature == 0 {
		c.Temperature = 0.7
	}
	if c.MaxTokens == 0 {
		c.MaxTokens = 2048
	}
	return c
}

// EmbeddingConfig 嵌入模型，对应 embedding 段
//
// MaxRetries 只作用于摄取；查询路径通过 ForQueries 清零。
type EmbeddingConfig struct {
	Provider   Provider      `koanf:"provider"`
	Model      string        `koanf:"model"`
	APIKey     string        `koanf:"api_key"`
	BaseURL    string        `koanf:"base_url"`
	Timeout    time.Duration `koanf:"timeout"`
	MaxRetries int           `koanf:"max_retries"`
	RetryDelay time.Duration `koanf:"retry_delay"`
	BatchSize  int           `koanf:"batch_size"`
}

// ForQueries 查询路径使用的副本，每次提问最多调用一次嵌入接口
func (c EmbeddingConfig) ForQueries() EmbeddingConfig {
	c.MaxRetries = 0
	return c
}

func (c *EmbeddingConfig) Validate() error {
	return validateModel(c.Provider, c.Model, c.Timeout)
}

func (c EmbeddingConfig) WithDefaults() EmbeddingConfig {
	if c.Provider == "" {
		c.Provider = ProviderGemini
	}
	if c.Model == "" {
		c.Model = defaultEmbeddingModels[c.Provider]
	}
	if c.Timeout == 0 {
		c.Timeout = 30 * time.Second
	}
	if c.RetryDelay == 0 {
		c.RetryDelay = time.Second
	}
	if c.BatchSize == 0 {
		c.BatchSize = 32
	}
	return c
}

func validateModel(p Provider, model string, timeout time.Duration) error {
	switch {
	case !p.IsValid():
		return ErrInvalidProvider
	case model == "":
		return ErrModelRequired
	case timeout < 0:
		return ErrInvalidTimeout
	}
	return nil
}

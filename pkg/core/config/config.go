// Package config 提供配置加载和管理功能
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"

	"github.com/easyops/adqa-go/pkg/otel"
)

// EnvPrefix 环境变量前缀
const EnvPrefix = "ADQA_"

// Config 全局配置结构
type Config struct {
	// LLM 生成模型配置
	LLM LLMConfig `koanf:"llm"`
	// Embedding 嵌入模型配置
	Embedding EmbeddingConfig `koanf:"embedding"`
	// Search 网页搜索配置
	Search SearchConfig `koanf:"search"`
	// Vector 向量数据库配置
	Vector VectorConfig `koanf:"vector"`
	// Answer 上下文组装与降级配置
	Answer AnswerConfig `koanf:"answer"`
	// Server HTTP 服务配置
	Server ServerConfig `koanf:"server"`
	// Audit 审计日志配置
	Audit AuditConfig `koanf:"audit"`
	// Observability 可观测性配置
	Observability otel.Config `koanf:"observability"`
}

// Loader 配置加载器
type Loader struct {
	k *koanf.Koanf
}

// NewLoader 创建配置加载器
func NewLoader() *Loader {
	return &Loader{
		k: koanf.New("."),
	}
}

// LoadDotEnv 加载 .env 文件到进程环境变量
//
// 已存在的环境变量不会被覆盖，文件不存在时忽略。
func (l *Loader) LoadDotEnv(paths ...string) error {
	for _, p := range paths {
		if err := godotenv.Load(p); err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				continue
			}
			return fmt.Errorf("load %s: %w", p, err)
		}
	}
	return nil
}

// LoadFile 从 YAML 文件加载配置
func (l *Loader) LoadFile(path string) error {
	if _, err := os.Stat(path); os.IsNotExist(err) {
		return nil // 文件不存在不报错，使用默认值
	}

	switch {
	case strings.HasSuffix(path, ".yaml") || strings.HasSuffix(path, ".yml"):
		if err := l.k.Load(file.Provider(path), yaml.Parser()); err != nil {
			return fmt.Errorf("parse %s: %w", path, err)
		}
		return nil
	default:
		return fmt.Errorf("%w: unsupported config file %s", ErrUnsupportedFormat, path)
	}
}

// LoadEnv 从环境变量加载配置
//
// 转换规则: ADQA_LLM__API_KEY -> llm.api_key
func (l *Loader) LoadEnv(prefix string) error {
	return l.k.Load(env.Provider(prefix, ".", func(s string) string {
		s = strings.TrimPrefix(s, prefix)
		s = strings.ToLower(s)
		return strings.ReplaceAll(s, "__", ".")
	}), nil)
}

// Unmarshal 解析配置到结构体
func (l *Loader) Unmarshal(cfg *Config) error {
	return l.k.Unmarshal("", cfg)
}

// GetString 获取字符串配置值
func (l *Loader) GetString(key string) string {
	return l.k.String(key)
}

// GetDuration 获取时间间隔配置值
func (l *Loader) GetDuration(key string) time.Duration {
	return l.k.Duration(key)
}

// Load 加载完整配置（.env + 文件 + 环境变量）
func Load(configPath string) (*Config, error) {
	loader := NewLoader()

	if err := loader.LoadDotEnv(".env"); err != nil {
		return nil, err
	}

	if configPath != "" {
		if err := loader.LoadFile(configPath); err != nil {
			return nil, err
		}
	}

	// 环境变量优先级更高
	if err := loader.LoadEnv(EnvPrefix); err != nil {
		return nil, err
	}

	cfg := &Config{}
	if err := loader.Unmarshal(cfg); err != nil {
		return nil, err
	}

	applyLegacyEnv(cfg)
	applyDefaults(cfg)

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// Validate 校验全部配置
func (c *Config) Validate() error {
	if err := c.LLM.Validate(); err != nil {
		return fmt.Errorf("llm: %w", err)
	}
	if err := c.Embedding.Validate(); err != nil {
		return fmt.Errorf("embedding: %w", err)
	}
	if err := c.Vector.Validate(); err != nil {
		return fmt.Errorf("vector: %w", err)
	}
	if err := c.Answer.Validate(); err != nil {
		return fmt.Errorf("answer: %w", err)
	}
	if err := c.Observability.Validate(); err != nil {
		return fmt.Errorf("observability: %w", err)
	}
	return nil
}

// applyLegacyEnv 兼容旧部署使用的环境变量名
func applyLegacyEnv(cfg *Config) {
	if cfg.LLM.APIKey == "" {
		cfg.LLM.APIKey = providerKeyFromEnv(cfg.LLM.Provider)
	}
	if cfg.Embedding.APIKey == "" {
		cfg.Embedding.APIKey = providerKeyFromEnv(cfg.Embedding.Provider)
	}
	if cfg.Search.APIKey == "" {
		cfg.Search.APIKey = os.Getenv("SERPAPI_API_KEY")
	}
	if cfg.Vector.URL == "" {
		cfg.Vector.URL = os.Getenv("QDRANT_URL")
	}
	if cfg.Vector.APIKey == "" {
		cfg.Vector.APIKey = os.Getenv("QDRANT_API_KEY")
	}
	if cfg.Vector.Host == "" {
		cfg.Vector.Host = os.Getenv("QDRANT_HOST")
	}
	if cfg.Vector.Port == 0 {
		if port := os.Getenv("QDRANT_PORT"); port != "" {
			fmt.Sscanf(port, "%d", &cfg.Vector.Port)
		}
	}
}

// providerKeyFromEnv 按提供商读取旧式 API Key 环境变量
func providerKeyFromEnv(p Provider) string {
	switch p {
	case ProviderOpenAI:
		return os.Getenv("OPENAI_API_KEY")
	case ProviderGemini, "":
		return os.Getenv("GEMINI_API_KEY")
	default:
		return ""
	}
}

// applyDefaults 应用默认配置值
func applyDefaults(cfg *Config) {
	cfg.LLM = cfg.LLM.WithDefaults()
	cfg.Embedding = cfg.Embedding.WithDefaults()
	cfg.Search = cfg.Search.WithDefaults()
	cfg.Vector = cfg.Vector.WithDefaults()
	cfg.Answer = cfg.Answer.WithDefaults()
	cfg.Server = cfg.Server.WithDefaults()
	cfg.Audit = cfg.Audit.WithDefaults()
	cfg.Observability = cfg.Observability.WithDefaults()
}

// Default 返回仅包含默认值的配置
func Default() *Config {
	cfg := &Config{}
	applyDefaults(cfg)
	return cfg
}

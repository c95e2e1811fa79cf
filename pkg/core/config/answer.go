package config

import "time"

// AnswerConfig 上下文组装与降级配置
type AnswerConfig struct {
	// ContextBudget 上下文最大字符数
	// 默认: 4000
	ContextBudget int `koanf:"context_budget"`
	// MinRemainder 截断尾部条目所需的最小剩余字符数
	// 默认: 100
	MinRemainder int `koanf:"min_remainder"`
	// PreviewLength 降级回答中每条上下文的预览长度
	// 默认: 200
	PreviewLength int `koanf:"preview_length"`
	// PreviewParts 降级回答使用的上下文条数
	// 默认: 3
	PreviewParts int `koanf:"preview_parts"`
	// PromptTemplate 自定义提示词模板（text/template 语法）
	PromptTemplate string `koanf:"prompt_template"`
}

// Validate 验证配置
func (c *AnswerConfig) Validate() error {
	if c.ContextBudget <= 0 {
		return ErrInvalidBudget
	}
	if c.PreviewLength <= 0 || c.PreviewParts <= 0 {
		return ErrInvalidPreview
	}
	return nil
}

// WithDefaults 返回带默认值的配置
func (c AnswerConfig) WithDefaults() AnswerConfig {
	if c.ContextBudget == 0 {
		c.ContextBudget = 4000
	}
	if c.MinRemainder == 0 {
		c.MinRemainder = 100
	}
	if c.PreviewLength == 0 {
		c.PreviewLength = 200
	}
	if c.PreviewParts == 0 {
		c.PreviewParts = 3
	}
	return c
}

// ServerConfig HTTP 服务配置
type ServerConfig struct {
	// Addr 监听地址
	Addr string `koanf:"addr"`
	// RequestTimeout 单个请求的超时时间
	RequestTimeout time.Duration `koanf:"request_timeout"`
	// MaxQueryLength 查询最大字符数
	MaxQueryLength int `koanf:"max_query_length"`
	// Mode gin 运行模式 (debug, release, test)
	Mode string `koanf:"mode"`
}

// WithDefaults 返回带默认值的配置
func (c ServerConfig) WithDefaults() ServerConfig {
	if c.Addr == "" {
		c.Addr = ":8000"
	}
	if c.RequestTimeout == 0 {
		c.RequestTimeout = 60 * time.Second
	}
	if c.MaxQueryLength == 0 {
		c.MaxQueryLength = 1000
	}
	if c.Mode == "" {
		c.Mode = "release"
	}
	return c
}

// AuditConfig 审计日志配置
type AuditConfig struct {
	// Enabled 是否记录问答审计
	Enabled bool `koanf:"enabled"`
	// Path SQLite 文件路径
	Path string `koanf:"path"`
}

// WithDefaults 返回带默认值的配置
func (c AuditConfig) WithDefaults() AuditConfig {
	if c.Path == "" {
		c.Path = "./adqa_audit.db"
	}
	return c
}

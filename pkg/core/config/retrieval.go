package config

import (
	"fmt"
	"time"
)

// DefaultPrioritySites 默认优先搜索站点
var DefaultPrioritySites = []string{
	"https://en-gb.facebook.com/business/help/621956575422138?id=649869995454285",
	"https://www.eachspy.com/facebook-ads-interests/",
	"https://www.clickguard.com/blog/meta-ads-campaign-types/",
	"https://twowheelsmarketing.com/blog/facebook-ads-targeting-options-list/",
	"https://transparency.meta.com/policies/ad-standards/",
	"https://developers.facebook.com/docs/marketing-api/reference/ad-campaign-group",
}

// SearchConfig 网页搜索配置
type SearchConfig struct {
	// APIKey SerpAPI 密钥
	APIKey string `koanf:"api_key"`
	// BaseURL SerpAPI 端点
	BaseURL string `koanf:"base_url"`
	// PrioritySites 优先站点（按优先级排序）
	PrioritySites []string `koanf:"priority_sites"`
	// GenericResults 通用搜索返回条数
	GenericResults int `koanf:"generic_results"`
	// Concurrency 并发查询优先站点的数量
	Concurrency int `koanf:"concurrency"`
	// Timeout 单次搜索超时
	Timeout time.Duration `koanf:"timeout"`
}

// WithDefaults 返回带默认值的配置
func (c SearchConfig) WithDefaults() SearchConfig {
	if c.BaseURL == "" {
		c.BaseURL = "https://serpapi.com/search.json"
	}
	if len(c.PrioritySites) == 0 {
		c.PrioritySites = append([]string(nil), DefaultPrioritySites...)
	}
	if c.GenericResults == 0 {
		c.GenericResults = 5
	}
	if c.Concurrency == 0 {
		c.Concurrency = 4
	}
	if c.Timeout == 0 {
		c.Timeout = 15 * time.Second
	}
	return c
}

// 向量存储后端
const (
	VectorBackendQdrant = "qdrant"
	VectorBackendMemory = "memory"
)

// VectorConfig 向量数据库配置
type VectorConfig struct {
	// Backend 存储后端：qdrant 或 memory（进程内，仅用于本地试用）
	Backend string `koanf:"backend"`
	// URL Qdrant 地址（优先于 Host/Port）
	URL string `koanf:"url"`
	// APIKey Qdrant Cloud 密钥
	APIKey string `koanf:"api_key"`
	// Host 本地 Qdrant 主机
	Host string `koanf:"host"`
	// Port 本地 Qdrant 端口
	Port int `koanf:"port"`
	// Collection 集合名称
	Collection string `koanf:"collection"`
	// TopK 返回的最近邻数量
	TopK int `koanf:"top_k"`
	// Timeout 请求超时
	Timeout time.Duration `koanf:"timeout"`
}

// WithDefaults 返回带默认值的配置
func (c VectorConfig) WithDefaults() VectorConfig {
	if c.Backend == "" {
		c.Backend = VectorBackendQdrant
	}
	if c.Host == "" {
		c.Host = "localhost"
	}
	if c.Port == 0 {
		c.Port = 6333
	}
	if c.Collection == "" {
		c.Collection = "DM_docs"
	}
	if c.TopK == 0 {
		c.TopK = 3
	}
	if c.Timeout == 0 {
		c.Timeout = 30 * time.Second
	}
	return c
}

// Validate 验证配置
func (c VectorConfig) Validate() error {
	switch c.Backend {
	case "", VectorBackendQdrant, VectorBackendMemory:
	default:
		return fmt.Errorf("%w: %q", ErrInvalidBackend, c.Backend)
	}
	if c.TopK < 0 {
		return fmt.Errorf("%w: top_k must not be negative", ErrInvalidBackend)
	}
	return nil
}

// Endpoint 返回 Qdrant 访问地址
func (c VectorConfig) Endpoint() string {
	if c.URL != "" {
		return c.URL
	}
	return fmt.Sprintf("http://%s:%d", c.Host, c.Port)
}

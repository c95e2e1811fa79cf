package llm

import "time"

// Options 供应商客户端的构造参数
//
// 生成与嵌入共用同一结构，各自只读取相关字段。
type Options struct {
	APIKey  string
	BaseURL string
	Model   string
	Timeout time.Duration

	// MaxRetries 只作用于嵌入请求，生成请求失败直接返回
	MaxRetries int
	RetryDelay time.Duration

	Temperature float64
	MaxTokens   int

	EmbeddingModel string

	// DisableSafetyFilters 所有安全类别设为 BLOCK_NONE，仅 Gemini 读取
	DisableSafetyFilters bool
}

// Option 修改 Options
type Option func(*Options)

// DefaultOptions 返回默认选项
func DefaultOptions() *Options {
	return &Options{
		Timeout:     60 * time.Second,
		RetryDelay:  time.Second,
		Temperature: 0.7,
		MaxTokens:   2048,
	}
}

func WithAPIKey(key string) Option          { return func(o *Options) { o.APIKey = key } }
func WithBaseURL(url string) Option         { return func(o *Options) { o.BaseURL = url } }
func WithModel(model string) Option         { return func(o *Options) { o.Model = model } }
func WithTimeout(d time.Duration) Option    { return func(o *Options) { o.Timeout = d } }
func WithTemperature(t float64) Option      { return func(o *Options) { o.Temperature = t } }
func WithMaxTokens(n int) Option            { return func(o *Options) { o.MaxTokens = n } }
func WithRetryDelay(d time.Duration) Option { return func(o *Options) { o.RetryDelay = d } }

// WithMaxRetries 嵌入请求的额外尝试次数，0 表示只请求一次
func WithMaxRetries(n int) Option {
	return func(o *Options) { o.MaxRetries = n }
}

// WithEmbeddingModel 嵌入模型，为空时由供应商选择默认值
func WithEmbeddingModel(model string) Option {
	return func(o *Options) { o.EmbeddingModel = model }
}

// WithSafetyFiltersDisabled 关闭 Gemini 安全过滤
func WithSafetyFiltersDisabled(disabled bool) Option {
	return func(o *Options) { o.DisableSafetyFilters = disabled }
}

// RequestOption 单次请求覆盖项
type RequestOption func(*Request)

// WithRequestTemperature 覆盖本次请求的温度
func WithRequestTemperature(t float64) RequestOption {
	return func(r *Request) { r.Temperature = &t }
}

// WithRequestMaxTokens 覆盖本次请求的最大输出 token
func WithRequestMaxTokens(n int) RequestOption {
	return func(r *Request) { r.MaxTokens = &n }
}

package otel

import "time"

// Config 可观测性配置，对应配置文件的 observability 段
//
// 日志始终生效；追踪与指标需要 Enabled 与各自子项同时打开。
type Config struct {
	Enabled        bool   `koanf:"enabled"`
	ServiceName    string `koanf:"service_name"`
	ServiceVersion string `koanf:"service_version"`
	Environment    string `koanf:"environment"`

	Tracing TracingConfig `koanf:"tracing"`
	Metrics MetricsConfig `koanf:"metrics"`
	Logging LoggingConfig `koanf:"logging"`
}

// TracingConfig 追踪导出
type TracingConfig struct {
	Enabled  bool         `koanf:"enabled"`
	Exporter ExporterType `koanf:"exporter"`
	// Endpoint OTLP 地址，stdout 导出器忽略
	Endpoint string `koanf:"endpoint"`
	Insecure bool   `koanf:"insecure"`
	// SampleRate 取值 [0, 1]，父 Span 已采样时始终跟随
	SampleRate float64       `koanf:"sample_rate"`
	Timeout    time.Duration `koanf:"timeout"`
}

// MetricsConfig 指标导出
type MetricsConfig struct {
	Enabled  bool          `koanf:"enabled"`
	Exporter ExporterType  `koanf:"exporter"`
	Endpoint string        `koanf:"endpoint"`
	Insecure bool          `koanf:"insecure"`
	Interval time.Duration `koanf:"interval"`
}

// LoggingConfig 日志输出
//
// File 为空时写 stderr，否则交给 lumberjack 轮转。
type LoggingConfig struct {
	Level          string `koanf:"level"`
	Format         string `koanf:"format"`
	File           string `koanf:"file"`
	MaxSizeMB      int    `koanf:"max_size_mb"`
	MaxBackups     int    `koanf:"max_backups"`
	MaxAgeDays     int    `koanf:"max_age_days"`
	IncludeTraceID bool   `koanf:"include_trace_id"`
}

// DefaultConfig 返回默认配置
func DefaultConfig() Config {
	return Config{
		Enabled:        false,
		ServiceName:    "adqa",
		ServiceVersion: "0.1.0",
		Environment:    "development",
		Tracing: TracingConfig{
			Enabled:    false,
			Exporter:   ExporterOTLPGRPC,
			Endpoint:   "localhost:4317",
			Insecure:   true,
			SampleRate: 1.0,
			Timeout:    30 * time.Second,
		},
		Metrics: MetricsConfig{
			Enabled:  false,
			Exporter: ExporterOTLPGRPC,
			Endpoint: "localhost:4317",
			Insecure: true,
			Interval: 60 * time.Second,
		},
		Logging: LoggingConfig{
			Level:          "info",
			Format:         "text",
			MaxSizeMB:      100,
			MaxBackups:     5,
			MaxAgeDays:     28,
			IncludeTraceID: true,
		},
	}
}

// Validate 验证配置
func (c *Config) Validate() error {
	if c.Tracing.SampleRate < 0 || c.Tracing.SampleRate > 1 {
		return ErrInvalidSampleRate
	}
	switch c.Logging.Format {
	case "", "text", "json":
	default:
		return ErrInvalidLogFormat
	}
	return nil
}

// WithDefaults 返回补齐零值字段后的副本
//
// 布尔开关不参与补齐，零值即关闭。
func (c Config) WithDefaults() Config {
	d := DefaultConfig()

	fill(&c.ServiceName, d.ServiceName)
	fill(&c.ServiceVersion, d.ServiceVersion)
	fill(&c.Environment, d.Environment)

	fill(&c.Tracing.Exporter, d.Tracing.Exporter)
	fill(&c.Tracing.Endpoint, d.Tracing.Endpoint)
	fill(&c.Tracing.SampleRate, d.Tracing.SampleRate)
	fill(&c.Tracing.Timeout, d.Tracing.Timeout)

	fill(&c.Metrics.Exporter, d.Metrics.Exporter)
	fill(&c.Metrics.Endpoint, d.Metrics.Endpoint)
	fill(&c.Metrics.Interval, d.Metrics.Interval)

	fill(&c.Logging.Level, d.Logging.Level)
	fill(&c.Logging.Format, d.Logging.Format)
	fill(&c.Logging.MaxSizeMB, d.Logging.MaxSizeMB)
	fill(&c.Logging.MaxBackups, d.Logging.MaxBackups)
	fill(&c.Logging.MaxAgeDays, d.Logging.MaxAgeDays)

	return c
}

func fill[T comparable](dst *T, def T) {
	var zero T
	if *dst == zero {
		*dst = def
	}
}

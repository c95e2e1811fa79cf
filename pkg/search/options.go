// Package search 提供问答检索来源：网页搜索与向量检索
//
// 每个来源实现 rag.SnippetSource，失败时记录日志并返回空结果，
// 不会向编排器传播错误。
package search

import (
	"net/http"

	"github.com/easyops/adqa-go/pkg/otel"
)

// options 来源公共选项
type options struct {
	httpClient *http.Client
	tracer     otel.Tracer
	metrics    otel.Metrics
	logger     otel.Logger
}

// Option 来源配置选项
type Option func(*options)

// WithHTTPClient 设置 HTTP 客户端
func WithHTTPClient(client *http.Client) Option {
	return func(o *options) {
		o.httpClient = client
	}
}

// WithTracer 设置追踪器
func WithTracer(tracer otel.Tracer) Option {
	return func(o *options) {
		o.tracer = tracer
	}
}

// WithMetrics 设置指标收集器
func WithMetrics(metrics otel.Metrics) Option {
	return func(o *options) {
		o.metrics = metrics
	}
}

// WithLogger 设置日志记录器
func WithLogger(logger otel.Logger) Option {
	return func(o *options) {
		o.logger = logger
	}
}

func newOptions(opts []Option) *options {
	o := &options{
		tracer:  otel.NewNoopTracer(),
		metrics: otel.NewNoopMetrics(),
		logger:  otel.NewNoopLogger(),
	}
	for _, opt := range opts {
		opt(o)
	}
	return o
}

// Package otel 提供 OpenTelemetry 可观测性支持
package otel

import (
	"context"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

// Tracer 问答流水线使用的追踪器
//
// 检索、组装与生成阶段各自开启 Span，追踪关闭时注入 NoopTracer。
type Tracer interface {
	Start(ctx context.Context, name string, opts ...SpanOption) (context.Context, Span)
	SpanFromContext(ctx context.Context) Span
}

// Span 单个阶段的追踪区间
type Span interface {
	End()
	SetAttributes(attrs ...attribute.KeyValue)
	AddEvent(name string, attrs ...attribute.KeyValue)
	RecordError(err error)
	SetStatus(code StatusCode, description string)
	SpanContext() SpanContext
}

// SpanContext 追踪标识的十六进制形式，供日志关联
type SpanContext struct {
	TraceID string
	SpanID  string
}

// IsValid 两个标识均存在
func (sc SpanContext) IsValid() bool {
	return sc.TraceID != "" && sc.SpanID != ""
}

// StatusCode Span 结束状态
type StatusCode int

const (
	StatusUnset StatusCode = iota
	StatusOK
	StatusError
)

var statusCodes = map[StatusCode]codes.Code{
	StatusUnset: codes.Unset,
	StatusOK:    codes.Ok,
	StatusError: codes.Error,
}

// SpanKind Span 类型
type SpanKind int

const (
	SpanKindInternal SpanKind = iota
	// SpanKindServer HTTP 入口
	SpanKindServer
	// SpanKindClient 调用外部服务（LLM、搜索、向量库）
	SpanKindClient
)

var spanKinds = map[SpanKind]trace.SpanKind{
	SpanKindInternal: trace.SpanKindInternal,
	SpanKindServer:   trace.SpanKindServer,
	SpanKindClient:   trace.SpanKindClient,
}

// SpanConfig Start 的可选参数
type SpanConfig struct {
	Kind       SpanKind
	Attributes []attribute.KeyValue
}

// SpanOption 修改 SpanConfig
type SpanOption func(*SpanConfig)

// WithSpanKind 指定 Span 类型
func WithSpanKind(kind SpanKind) SpanOption {
	return func(cfg *SpanConfig) { cfg.Kind = kind }
}

// WithAttributes 附加起始属性，可多次使用
func WithAttributes(attrs ...attribute.KeyValue) SpanOption {
	return func(cfg *SpanConfig) { cfg.Attributes = append(cfg.Attributes, attrs...) }
}

func (cfg SpanConfig) startOptions() []trace.SpanStartOption {
	kind, ok := spanKinds[cfg.Kind]
	if !ok {
		kind = trace.SpanKindInternal
	}
	out := []trace.SpanStartOption{trace.WithSpanKind(kind)}
	if len(cfg.Attributes) > 0 {
		out = append(out, trace.WithAttributes(cfg.Attributes...))
	}
	return out
}

// OTelTracer 委托给 SDK 的追踪器
type OTelTracer struct {
	tracer trace.Tracer
}

// NewTracer 包装 trace.Tracer
func NewTracer(tracer trace.Tracer) *OTelTracer {
	return &OTelTracer{tracer: tracer}
}

func (t *OTelTracer) Start(ctx context.Context, name string, opts ...SpanOption) (context.Context, Span) {
	var cfg SpanConfig
	for _, opt := range opts {
		opt(&cfg)
	}
	ctx, span := t.tracer.Start(ctx, name, cfg.startOptions()...)
	return ctx, OTelSpan{span}
}

func (t *OTelTracer) SpanFromContext(ctx context.Context) Span {
	return OTelSpan{trace.SpanFromContext(ctx)}
}

// OTelSpan trace.Span 适配器
//
// 内嵌 trace.Span，只重写签名不同的方法。
type OTelSpan struct {
	trace.Span
}

// End 结束 Span
func (s OTelSpan) End() {
	s.Span.End()
}

// RecordError 记录错误事件
func (s OTelSpan) RecordError(err error) {
	s.Span.RecordError(err)
}

// AddEvent 添加带属性的事件
func (s OTelSpan) AddEvent(name string, attrs ...attribute.KeyValue) {
	s.Span.AddEvent(name, trace.WithAttributes(attrs...))
}

// SetStatus 映射到 OpenTelemetry 状态码
func (s OTelSpan) SetStatus(code StatusCode, description string) {
	s.Span.SetStatus(statusCodes[code], description)
}

// SpanContext 导出标识，无效时返回零值
func (s OTelSpan) SpanContext() SpanContext {
	sc := s.Span.SpanContext()
	if !sc.IsValid() {
		return SpanContext{}
	}
	return SpanContext{TraceID: sc.TraceID().String(), SpanID: sc.SpanID().String()}
}

// EndSpan 按 err 设置结果状态后结束
func EndSpan(span Span, err error) {
	defer span.End()
	if err == nil {
		span.SetStatus(StatusOK, "")
		return
	}
	span.RecordError(err)
	span.SetStatus(StatusError, err.Error())
}

// NoopTracer 追踪关闭时使用
type NoopTracer struct{}

// NewNoopTracer 创建空追踪器
func NewNoopTracer() *NoopTracer {
	return &NoopTracer{}
}

func (*NoopTracer) Start(ctx context.Context, _ string, _ ...SpanOption) (context.Context, Span) {
	return ctx, NoopSpan{}
}

func (*NoopTracer) SpanFromContext(context.Context) Span {
	return NoopSpan{}
}

// NoopSpan 丢弃所有记录
type NoopSpan struct{}

func (NoopSpan) End()                                   {}
func (NoopSpan) SetAttributes(...attribute.KeyValue)    {}
func (NoopSpan) AddEvent(string, ...attribute.KeyValue) {}
func (NoopSpan) RecordError(error)                      {}
func (NoopSpan) SetStatus(StatusCode, string)           {}
func (NoopSpan) SpanContext() SpanContext               { return SpanContext{} }

var (
	_ Tracer = (*OTelTracer)(nil)
	_ Tracer = (*NoopTracer)(nil)
	_ Span   = OTelSpan{}
	_ Span   = NoopSpan{}
)

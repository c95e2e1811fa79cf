package llm

import (
	"context"
	"time"

	"go.opentelemetry.io/otel/attribute"

	"github.com/easyops/adqa-go/pkg/core/errors"
	"github.com/easyops/adqa-go/pkg/otel"
)

// TracedProvider 为 Provider 增加追踪和指标
type TracedProvider struct {
	provider Provider
	tracer   otel.Tracer
	metrics  otel.Metrics
}

// TracedOption 配置 TracedProvider
type TracedOption func(*TracedProvider)

// WithTracer 设置追踪器
func WithTracer(tracer otel.Tracer) TracedOption {
	return func(p *TracedProvider) {
		p.tracer = tracer
	}
}

// WithMetrics 设置指标收集器
func WithMetrics(metrics otel.Metrics) TracedOption {
	return func(p *TracedProvider) {
		p.metrics = metrics
	}
}

// NewTracedProvider 包装 Provider
func NewTracedProvider(provider Provider, opts ...TracedOption) *TracedProvider {
	tp := &TracedProvider{
		provider: provider,
		tracer:   otel.NewNoopTracer(),
		metrics:  otel.NewNoopMetrics(),
	}
	for _, opt := range opts {
		opt(tp)
	}
	return tp
}

// Generate 生成响应并记录 Span
func (p *TracedProvider) Generate(ctx context.Context, req Request) (Response, error) {
	ctx, span := p.tracer.Start(ctx, "llm.generate",
		otel.WithSpanKind(otel.SpanKindClient),
		otel.WithAttributes(otel.LLMProvider(p.provider.Name()), otel.LLMModel(p.provider.Model())),
	)

	start := time.Now()
	resp, err := p.provider.Generate(ctx, req)
	p.record(ctx, resp.TokenUsage.TotalTokens, err, time.Since(start))

	if err == nil {
		span.SetAttributes(otel.LLMTokens(
			resp.TokenUsage.PromptTokens,
			resp.TokenUsage.CompletionTokens,
			resp.TokenUsage.TotalTokens,
		)...)
		span.SetAttributes(attribute.String(otel.AttrLLMFinishReason, string(resp.FinishReason())))
	} else {
		span.SetAttributes(otel.ErrorAttrs(errors.Classify(err), err.Error(), errors.IsRetryable(err))...)
	}
	otel.EndSpan(span, err)

	return resp, err
}

// Embed 生成嵌入向量并记录 Span
func (p *TracedProvider) Embed(ctx context.Context, texts []string) ([][]float32, error) {
	ctx, span := p.tracer.Start(ctx, "llm.embed",
		otel.WithSpanKind(otel.SpanKindClient),
		otel.WithAttributes(
			otel.LLMProvider(p.provider.Name()),
			attribute.Int("llm.embed.inputs", len(texts)),
		),
	)

	start := time.Now()
	vecs, err := p.provider.Embed(ctx, texts)
	p.record(ctx, 0, err, time.Since(start))
	otel.EndSpan(span, err)

	return vecs, err
}

// Name 返回提供商名称
func (p *TracedProvider) Name() string {
	return p.provider.Name()
}

// Model 返回模型名称
func (p *TracedProvider) Model() string {
	return p.provider.Model()
}

// Close 关闭底层 Provider
func (p *TracedProvider) Close() error {
	return p.provider.Close()
}

func (p *TracedProvider) record(ctx context.Context, tokens int, err error, d time.Duration) {
	attrs := []otel.Attr{
		otel.NewAttr("provider", p.provider.Name()),
		otel.NewAttr("model", p.provider.Model()),
	}

	status := "success"
	if err != nil {
		status = "error"
		p.metrics.Counter(otel.MetricLLMErrors).Add(ctx, 1,
			append(attrs, otel.NewAttr("error_type", errors.Classify(err)))...)
	} else if tokens > 0 {
		p.metrics.Counter(otel.MetricLLMTokensTotal).Add(ctx, int64(tokens), attrs...)
	}

	p.metrics.Counter(otel.MetricLLMRequests).Add(ctx, 1, append(attrs, otel.NewAttr("status", status))...)
	p.metrics.Histogram(otel.MetricLLMRequestDuration).Record(ctx, float64(d.Milliseconds()), attrs...)
}

var _ Provider = (*TracedProvider)(nil)

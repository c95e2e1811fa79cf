package otel

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/propagation"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	semconv "go.opentelemetry.io/otel/semconv/v1.4.0"
)

// Provider 持有进程级的追踪器、指标与日志
//
// 构造后三者不再变化；Shutdown 按注册逆序释放导出器和日志文件。
type Provider struct {
	tracer  Tracer
	metrics Metrics
	logger  Logger

	mu      sync.Mutex
	closers []func(context.Context) error
}

// NewProvider 按配置构造 Provider
//
// Enabled 为 false 时只装配日志，追踪与指标使用 Noop 实现。
func NewProvider(ctx context.Context, cfg Config) (*Provider, error) {
	cfg = cfg.WithDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	logger, logFile := NewLogger(cfg.Logging)
	p := &Provider{
		tracer:  NewNoopTracer(),
		metrics: NewNoopMetrics(),
		logger:  logger,
	}
	p.onShutdown(func(context.Context) error { return logFile.Close() })

	if !cfg.Enabled || (!cfg.Tracing.Enabled && !cfg.Metrics.Enabled) {
		return p, nil
	}

	res, err := resource.New(ctx, resource.WithAttributes(
		semconv.ServiceNameKey.String(cfg.ServiceName),
		semconv.ServiceVersionKey.String(cfg.ServiceVersion),
		semconv.DeploymentEnvironmentKey.String(cfg.Environment),
	))
	if err != nil {
		return nil, errors.Join(err, p.Shutdown(ctx))
	}

	if cfg.Tracing.Enabled {
		tp, err := newTracerProvider(ctx, cfg.Tracing, res)
		if err != nil {
			return nil, errors.Join(err, p.Shutdown(ctx))
		}
		otel.SetTracerProvider(tp)
		otel.SetTextMapPropagator(propagation.NewCompositeTextMapPropagator(
			propagation.TraceContext{}, propagation.Baggage{},
		))
		p.tracer = NewTracer(tp.Tracer(cfg.ServiceName))
		p.onShutdown(tp.Shutdown)
	}

	if cfg.Metrics.Enabled {
		mp, err := newMeterProvider(ctx, cfg.Metrics, res)
		if err != nil {
			return nil, errors.Join(err, p.Shutdown(ctx))
		}
		otel.SetMeterProvider(mp)
		p.metrics = NewOTelMetrics(mp.Meter(cfg.ServiceName))
		p.onShutdown(mp.Shutdown)
	}

	return p, nil
}

func newTracerProvider(ctx context.Context, cfg TracingConfig, res *resource.Resource) (*sdktrace.TracerProvider, error) {
	exporter, err := CreateTraceExporter(ctx, traceExporterConfig(cfg))
	if err != nil {
		return nil, err
	}
	return sdktrace.NewTracerProvider(
		sdktrace.WithResource(res),
		sdktrace.WithSampler(sdktrace.ParentBased(sampler(cfg.SampleRate))),
		sdktrace.WithBatcher(exporter),
	), nil
}

func newMeterProvider(ctx context.Context, cfg MetricsConfig, res *resource.Resource) (*sdkmetric.MeterProvider, error) {
	exporter, err := CreateMetricExporter(ctx, metricExporterConfig(cfg))
	if err != nil {
		return nil, err
	}
	reader := sdkmetric.NewPeriodicReader(exporter, sdkmetric.WithInterval(cfg.Interval))
	return sdkmetric.NewMeterProvider(sdkmetric.WithResource(res), sdkmetric.WithReader(reader)), nil
}

func sampler(rate float64) sdktrace.Sampler {
	switch {
	case rate >= 1:
		return sdktrace.AlwaysSample()
	case rate <= 0:
		return sdktrace.NeverSample()
	default:
		return sdktrace.TraceIDRatioBased(rate)
	}
}

func (p *Provider) onShutdown(fn func(context.Context) error) {
	p.mu.Lock()
	p.closers = append(p.closers, fn)
	p.mu.Unlock()
}

func (p *Provider) Tracer() Tracer   { return p.tracer }
func (p *Provider) Metrics() Metrics { return p.metrics }
func (p *Provider) Logger() Logger   { return p.logger }

// Shutdown 刷新导出器并关闭日志文件，可重复调用
func (p *Provider) Shutdown(ctx context.Context) error {
	p.mu.Lock()
	closers := p.closers
	p.closers = nil
	p.mu.Unlock()

	var errs []error
	for i := len(closers) - 1; i >= 0; i-- {
		errs = append(errs, closers[i](ctx))
	}
	return errors.Join(errs...)
}

var global atomic.Pointer[Provider]

// SetGlobal 注册进程级 Provider，供 SpanFromContext 等辅助函数使用
func SetGlobal(p *Provider) {
	global.Store(p)
}

// GetTracer 返回全局追踪器，未注册时为 NoopTracer
func GetTracer() Tracer {
	if p := global.Load(); p != nil {
		return p.Tracer()
	}
	return NewNoopTracer()
}

package otel

import (
	"context"
	"fmt"
	"sync"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

// OTelMetrics 基于 OpenTelemetry Meter 的指标实现
//
// 仪表按名称惰性创建并缓存，描述和单位取自 PredefinedMetrics。
type OTelMetrics struct {
	meter      metric.Meter
	counters   map[string]metric.Int64Counter
	histograms map[string]metric.Float64Histogram
	gauges     map[string]metric.Float64Gauge
	mu         sync.Mutex
}

// NewOTelMetrics 创建 OpenTelemetry 指标实现
func NewOTelMetrics(meter metric.Meter) *OTelMetrics {
	return &OTelMetrics{
		meter:      meter,
		counters:   make(map[string]metric.Int64Counter),
		histograms: make(map[string]metric.Float64Histogram),
		gauges:     make(map[string]metric.Float64Gauge),
	}
}

// Counter 返回或创建计数器
func (m *OTelMetrics) Counter(name string) Counter {
	m.mu.Lock()
	defer m.mu.Unlock()

	c, ok := m.counters[name]
	if !ok {
		desc, unit := describe(name)
		var err error
		c, err = m.meter.Int64Counter(name, metric.WithDescription(desc), metric.WithUnit(unit))
		if err != nil {
			return noopInstrument{}
		}
		m.counters[name] = c
	}
	return otelCounter{c}
}

// Histogram 返回或创建直方图
func (m *OTelMetrics) Histogram(name string) Histogram {
	m.mu.Lock()
	defer m.mu.Unlock()

	h, ok := m.histograms[name]
	if !ok {
		desc, unit := describe(name)
		var err error
		h, err = m.meter.Float64Histogram(name, metric.WithDescription(desc), metric.WithUnit(unit))
		if err != nil {
			return noopInstrument{}
		}
		m.histograms[name] = h
	}
	return otelHistogram{h}
}

// Gauge 返回或创建仪表
func (m *OTelMetrics) Gauge(name string) Gauge {
	m.mu.Lock()
	defer m.mu.Unlock()

	g, ok := m.gauges[name]
	if !ok {
		desc, unit := describe(name)
		var err error
		g, err = m.meter.Float64Gauge(name, metric.WithDescription(desc), metric.WithUnit(unit))
		if err != nil {
			return noopInstrument{}
		}
		m.gauges[name] = g
	}
	return otelGauge{g}
}

type otelCounter struct{ c metric.Int64Counter }

func (c otelCounter) Add(ctx context.Context, value int64, attrs ...Attr) {
	c.c.Add(ctx, value, metric.WithAttributes(toKeyValues(attrs)...))
}

type otelHistogram struct{ h metric.Float64Histogram }

func (h otelHistogram) Record(ctx context.Context, value float64, attrs ...Attr) {
	h.h.Record(ctx, value, metric.WithAttributes(toKeyValues(attrs)...))
}

type otelGauge struct{ g metric.Float64Gauge }

func (g otelGauge) Set(ctx context.Context, value float64, attrs ...Attr) {
	g.g.Record(ctx, value, metric.WithAttributes(toKeyValues(attrs)...))
}

// describe 查找预定义指标的描述和单位
func describe(name string) (string, string) {
	for _, d := range PredefinedMetrics {
		if d.Name == name {
			return d.Description, string(d.Unit)
		}
	}
	return "", ""
}

// toKeyValues 将指标属性转换为 OpenTelemetry 属性
func toKeyValues(attrs []Attr) []attribute.KeyValue {
	kvs := make([]attribute.KeyValue, 0, len(attrs))
	for _, a := range attrs {
		switch v := a.Value.(type) {
		case string:
			kvs = append(kvs, attribute.String(a.Key, v))
		case bool:
			kvs = append(kvs, attribute.Bool(a.Key, v))
		case int:
			kvs = append(kvs, attribute.Int(a.Key, v))
		case int64:
			kvs = append(kvs, attribute.Int64(a.Key, v))
		case float64:
			kvs = append(kvs, attribute.Float64(a.Key, v))
		default:
			kvs = append(kvs, attribute.String(a.Key, fmt.Sprint(v)))
		}
	}
	return kvs
}

var _ Metrics = (*OTelMetrics)(nil)

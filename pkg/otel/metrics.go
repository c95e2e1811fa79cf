package otel

import (
	"context"
	"fmt"
	"slices"
	"strings"
	"sync"
)

// Metrics 定义指标接口
type Metrics interface {
	// Counter 返回或创建计数器
	Counter(name string) Counter
	// Histogram 返回或创建直方图
	Histogram(name string) Histogram
	// Gauge 返回或创建仪表
	Gauge(name string) Gauge
}

// Counter 计数器接口
type Counter interface {
	Add(ctx context.Context, value int64, attrs ...Attr)
}

// Histogram 直方图接口
type Histogram interface {
	Record(ctx context.Context, value float64, attrs ...Attr)
}

// Gauge 仪表接口
type Gauge interface {
	Set(ctx context.Context, value float64, attrs ...Attr)
}

// Attr 指标属性
type Attr struct {
	Key   string
	Value any
}

// NewAttr 创建指标属性
func NewAttr(key string, value any) Attr {
	return Attr{Key: key, Value: value}
}

// attrKey 把属性集合规范化为与顺序无关的键
func attrKey(attrs []Attr) string {
	if len(attrs) == 0 {
		return ""
	}
	pairs := make([]string, len(attrs))
	for i, a := range attrs {
		pairs[i] = fmt.Sprintf("%s=%v", a.Key, a.Value)
	}
	slices.Sort(pairs)
	return strings.Join(pairs, ",")
}

// InMemoryMetrics 内存指标实现，按名称和属性集合分别累计，用于测试断言
type InMemoryMetrics struct {
	mu         sync.Mutex
	counters   map[string]*InMemoryCounter
	histograms map[string]*InMemoryHistogram
	gauges     map[string]*InMemoryGauge
}

// NewInMemoryMetrics 创建内存指标
func NewInMemoryMetrics() *InMemoryMetrics {
	return &InMemoryMetrics{
		counters:   make(map[string]*InMemoryCounter),
		histograms: make(map[string]*InMemoryHistogram),
		gauges:     make(map[string]*InMemoryGauge),
	}
}

// lookup 取出或创建指定名称的仪器
func lookup[T any](mu *sync.Mutex, m map[string]*T, name string, create func() *T) *T {
	mu.Lock()
	defer mu.Unlock()
	if v, ok := m[name]; ok {
		return v
	}
	v := create()
	m[name] = v
	return v
}

// find 只读查找，不存在返回 nil
func find[T any](mu *sync.Mutex, m map[string]*T, name string) *T {
	mu.Lock()
	defer mu.Unlock()
	return m[name]
}

func (m *InMemoryMetrics) Counter(name string) Counter {
	return lookup(&m.mu, m.counters, name, func() *InMemoryCounter {
		return &InMemoryCounter{byAttrs: map[string]int64{}}
	})
}

func (m *InMemoryMetrics) Histogram(name string) Histogram {
	return lookup(&m.mu, m.histograms, name, func() *InMemoryHistogram {
		return &InMemoryHistogram{}
	})
}

func (m *InMemoryMetrics) Gauge(name string) Gauge {
	return lookup(&m.mu, m.gauges, name, func() *InMemoryGauge {
		return &InMemoryGauge{}
	})
}

// GetCounterValue 返回计数器在所有属性上的总和
func (m *InMemoryMetrics) GetCounterValue(name string) int64 {
	if c := find(&m.mu, m.counters, name); c != nil {
		return c.Value()
	}
	return 0
}

// GetCounterValueWith 返回计数器在给定属性集合上的值
func (m *InMemoryMetrics) GetCounterValueWith(name string, attrs ...Attr) int64 {
	if c := find(&m.mu, m.counters, name); c != nil {
		return c.ValueWith(attrs...)
	}
	return 0
}

// GetGaugeValue 获取仪表当前值
func (m *InMemoryMetrics) GetGaugeValue(name string) float64 {
	if g := find(&m.mu, m.gauges, name); g != nil {
		return g.Value()
	}
	return 0
}

// GetHistogramValues 获取直方图记录的全部值
func (m *InMemoryMetrics) GetHistogramValues(name string) []float64 {
	if h := find(&m.mu, m.histograms, name); h != nil {
		return h.Values()
	}
	return nil
}

// InMemoryCounter 内存计数器
type InMemoryCounter struct {
	mu      sync.Mutex
	total   int64
	byAttrs map[string]int64
}

func (c *InMemoryCounter) Add(ctx context.Context, value int64, attrs ...Attr) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.total += value
	c.byAttrs[attrKey(attrs)] += value
}

// Value 所有属性上的总和
func (c *InMemoryCounter) Value() int64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.total
}

// ValueWith 给定属性集合上的值
func (c *InMemoryCounter) ValueWith(attrs ...Attr) int64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.byAttrs[attrKey(attrs)]
}

// InMemoryHistogram 内存直方图
type InMemoryHistogram struct {
	mu     sync.Mutex
	values []float64
}

func (h *InMemoryHistogram) Record(ctx context.Context, value float64, attrs ...Attr) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.values = append(h.values, value)
}

// Values 按记录顺序返回副本
func (h *InMemoryHistogram) Values() []float64 {
	h.mu.Lock()
	defer h.mu.Unlock()
	return slices.Clone(h.values)
}

// InMemoryGauge 内存仪表，只保留最后一次设置的值
type InMemoryGauge struct {
	mu    sync.Mutex
	value float64
}

func (g *InMemoryGauge) Set(ctx context.Context, value float64, attrs ...Attr) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.value = value
}

func (g *InMemoryGauge) Value() float64 {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.value
}

// NoopMetrics 空实现指标
type NoopMetrics struct{}

// NewNoopMetrics 创建空实现指标
func NewNoopMetrics() *NoopMetrics {
	return &NoopMetrics{}
}

func (m *NoopMetrics) Counter(name string) Counter     { return noopInstrument{} }
func (m *NoopMetrics) Histogram(name string) Histogram { return noopInstrument{} }
func (m *NoopMetrics) Gauge(name string) Gauge         { return noopInstrument{} }

type noopInstrument struct{}

func (noopInstrument) Add(ctx context.Context, value int64, attrs ...Attr)      {}
func (noopInstrument) Record(ctx context.Context, value float64, attrs ...Attr) {}
func (noopInstrument) Set(ctx context.Context, value float64, attrs ...Attr)    {}

var (
	_ Metrics   = (*InMemoryMetrics)(nil)
	_ Metrics   = (*NoopMetrics)(nil)
	_ Counter   = (*InMemoryCounter)(nil)
	_ Histogram = (*InMemoryHistogram)(nil)
	_ Gauge     = (*InMemoryGauge)(nil)
)

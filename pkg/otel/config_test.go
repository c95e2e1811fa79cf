package otel_test

import (
	"context"
	"testing"

	"github.com/easyops/adqa-go/pkg/otel"
)

func TestConfig_WithDefaults(t *testing.T) {
	cfg := otel.Config{}.WithDefaults()

	if cfg.ServiceName != "adqa" {
		t.Fatalf("expected service name adqa, got %s", cfg.ServiceName)
	}
	if cfg.Tracing.Exporter != otel.ExporterOTLPGRPC {
		t.Fatalf("expected otlp-grpc exporter, got %s", cfg.Tracing.Exporter)
	}
	if cfg.Tracing.SampleRate != 1.0 {
		t.Fatalf("expected sample rate 1.0, got %v", cfg.Tracing.SampleRate)
	}
	if cfg.Logging.Level != "info" || cfg.Logging.Format != "text" {
		t.Fatalf("unexpected logging defaults: %+v", cfg.Logging)
	}
}

func TestConfig_Validate(t *testing.T) {
	cfg := otel.DefaultConfig()
	cfg.Tracing.SampleRate = 1.5
	if err := cfg.Validate(); err != otel.ErrInvalidSampleRate {
		t.Fatalf("expected ErrInvalidSampleRate, got %v", err)
	}

	cfg = otel.DefaultConfig()
	cfg.Logging.Format = "xml"
	if err := cfg.Validate(); err != otel.ErrInvalidLogFormat {
		t.Fatalf("expected ErrInvalidLogFormat, got %v", err)
	}
}

func TestNewProvider_Disabled(t *testing.T) {
	p, err := otel.NewProvider(context.Background(), otel.Config{})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	defer p.Shutdown(context.Background())

	if _, ok := p.Tracer().(*otel.NoopTracer); !ok {
		t.Fatalf("expected noop tracer, got %T", p.Tracer())
	}
	if _, ok := p.Metrics().(*otel.NoopMetrics); !ok {
		t.Fatalf("expected noop metrics, got %T", p.Metrics())
	}
	if _, ok := p.Logger().(*otel.SlogLogger); !ok {
		t.Fatalf("expected slog logger even when disabled, got %T", p.Logger())
	}
}

func TestNewProvider_NoneExporters(t *testing.T) {
	cfg := otel.DefaultConfig()
	cfg.Enabled = true
	cfg.Tracing.Enabled = true
	cfg.Tracing.Exporter = otel.ExporterNone
	cfg.Metrics.Enabled = true
	cfg.Metrics.Exporter = otel.ExporterNone

	p, err := otel.NewProvider(context.Background(), cfg)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if _, ok := p.Tracer().(*otel.OTelTracer); !ok {
		t.Fatalf("expected otel tracer, got %T", p.Tracer())
	}
	if _, ok := p.Metrics().(*otel.OTelMetrics); !ok {
		t.Fatalf("expected otel metrics, got %T", p.Metrics())
	}
	if err := p.Shutdown(context.Background()); err != nil {
		t.Fatalf("shutdown: %v", err)
	}
}

func TestNewProvider_UnsupportedExporterFromDefaults(t *testing.T) {
	cfg := otel.DefaultConfig()
	cfg.Enabled = true
	cfg.Tracing.Enabled = true
	cfg.Tracing.Exporter = "zipkin"

	if _, err := otel.NewProvider(context.Background(), cfg); err == nil {
		t.Fatal("expected error for unsupported exporter")
	}
}

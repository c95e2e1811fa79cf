package otel_test

import (
	"context"
	"errors"
	"testing"

	"go.opentelemetry.io/otel/codes"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"

	"github.com/easyops/adqa-go/pkg/otel"
)

func TestNoopTracer_Start(t *testing.T) {
	tracer := otel.NewNoopTracer()

	ctx, span := tracer.Start(context.Background(), "answer")
	if ctx == nil || span == nil {
		t.Fatal("expected non-nil context and span")
	}

	span.SetStatus(otel.StatusOK, "ok")
	span.AddEvent("event")
	span.RecordError(errors.New("boom"))
	span.End()

	if span.SpanContext().IsValid() {
		t.Fatal("expected invalid span context for noop span")
	}
}

func TestOTelTracer_RecordsSpans(t *testing.T) {
	recorder := tracetest.NewSpanRecorder()
	tp := sdktrace.NewTracerProvider(sdktrace.WithSpanProcessor(recorder))
	tracer := otel.NewTracer(tp.Tracer("test"))

	ctx, parent := tracer.Start(context.Background(), "answer", otel.WithSpanKind(otel.SpanKindServer))
	_, child := tracer.Start(ctx, "answer.generate", otel.WithAttributes(otel.LLMModel("gemini-2.5-pro")))
	otel.EndSpan(child, errors.New("upstream failed"))
	otel.EndSpan(parent, nil)

	spans := recorder.Ended()
	if len(spans) != 2 {
		t.Fatalf("expected 2 spans, got %d", len(spans))
	}

	gen := spans[0]
	if gen.Name() != "answer.generate" {
		t.Fatalf("expected first ended span answer.generate, got %s", gen.Name())
	}
	if gen.Status().Code != codes.Error {
		t.Fatalf("expected error status, got %v", gen.Status().Code)
	}
	if gen.Parent().SpanID() != spans[1].SpanContext().SpanID() {
		t.Fatal("expected child span to be parented to answer span")
	}
	if spans[1].Status().Code != codes.Ok {
		t.Fatalf("expected ok status on parent, got %v", spans[1].Status().Code)
	}
}

func TestOTelTracer_SpanContext(t *testing.T) {
	tp := sdktrace.NewTracerProvider()
	tracer := otel.NewTracer(tp.Tracer("test"))

	ctx, span := tracer.Start(context.Background(), "answer")
	defer span.End()

	sc := tracer.SpanFromContext(ctx).SpanContext()
	if !sc.IsValid() {
		t.Fatal("expected valid span context")
	}
	if sc.TraceID != span.SpanContext().TraceID {
		t.Fatal("expected SpanFromContext to return the active span")
	}
}

package observe

import (
	"bytes"
	"context"
	"log/slog"
	"strings"
	"testing"

	"go.opentelemetry.io/otel"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"
)

// newTestTracerProvider returns a TracerProvider backed by an in-memory
// exporter so tests can inspect recorded spans.
func newTestTracerProvider(t *testing.T) (*sdktrace.TracerProvider, *tracetest.InMemoryExporter) {
	t.Helper()
	exp := tracetest.NewInMemoryExporter()
	tp := sdktrace.NewTracerProvider(sdktrace.WithSyncer(exp))
	t.Cleanup(func() { _ = tp.Shutdown(context.Background()) })
	return tp, exp
}

func installTracerProvider(t *testing.T, tp *sdktrace.TracerProvider) {
	t.Helper()
	orig := otel.GetTracerProvider()
	otel.SetTracerProvider(tp)
	t.Cleanup(func() { otel.SetTracerProvider(orig) })
}

func TestCorrelationID(t *testing.T) {
	t.Run("no active span", func(t *testing.T) {
		if got := CorrelationID(context.Background()); got != "" {
			t.Errorf("CorrelationID = %q, want empty", got)
		}
	})

	t.Run("active span yields hex trace id", func(t *testing.T) {
		tp, _ := newTestTracerProvider(t)
		ctx, span := tp.Tracer("test").Start(context.Background(), "attempt.check")
		defer span.End()

		cid := CorrelationID(ctx)
		if len(cid) != 32 {
			t.Fatalf("correlation ID length = %d, want 32", len(cid))
		}
		if strings.Trim(cid, "0123456789abcdef") != "" {
			t.Errorf("correlation ID %q is not lowercase hex", cid)
		}
	})

	t.Run("distinct per span", func(t *testing.T) {
		tp, _ := newTestTracerProvider(t)
		tracer := tp.Tracer("test")

		seen := make(map[string]struct{}, 50)
		for range 50 {
			ctx, span := tracer.Start(context.Background(), "attempt.check")
			cid := CorrelationID(ctx)
			span.End()
			if _, dup := seen[cid]; dup {
				t.Fatalf("duplicate correlation ID %s", cid)
			}
			seen[cid] = struct{}{}
		}
	})
}

func TestStartSpan(t *testing.T) {
	tp, exp := newTestTracerProvider(t)
	installTracerProvider(t, tp)

	ctx, span := StartSpan(context.Background(), "session.start")
	if CorrelationID(ctx) == "" {
		t.Error("StartSpan did not produce a valid trace ID")
	}
	span.End()

	spans := exp.GetSpans()
	if len(spans) != 1 {
		t.Fatalf("recorded %d spans, want 1", len(spans))
	}
	if spans[0].Name != "session.start" {
		t.Errorf("span name = %q, want %q", spans[0].Name, "session.start")
	}
}

func TestLogger(t *testing.T) {
	var buf bytes.Buffer
	orig := slog.Default()
	slog.SetDefault(slog.New(slog.NewTextHandler(&buf, nil)))
	t.Cleanup(func() { slog.SetDefault(orig) })

	t.Run("with span", func(t *testing.T) {
		buf.Reset()
		tp, _ := newTestTracerProvider(t)
		ctx, span := tp.Tracer("test").Start(context.Background(), "attempt.check")
		defer span.End()

		Logger(ctx).Info("attempt recorded")

		out := buf.String()
		if !strings.Contains(out, "trace_id=") || !strings.Contains(out, "span_id=") {
			t.Errorf("log output missing trace/span IDs: %s", out)
		}
	})

	t.Run("without span", func(t *testing.T) {
		buf.Reset()
		Logger(context.Background()).Info("attempt recorded")

		if out := buf.String(); strings.Contains(out, "trace_id") {
			t.Errorf("log output should not carry trace_id: %s", out)
		}
	})
}

// ABOUTME: OpenTelemetry tracer wrapper for the Initialize pipeline's phase spans
// ABOUTME: No OTLP exporter: this is a single local CLI run, with nowhere remote to export spans to

package telemetry

import (
	"context"
	"fmt"
	"io"
	"sync"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/trace"
)

// Config configures tracing for one CLI invocation. Unlike the env-driven
// telemetry.Config this is grounded on, it is filled by the CLI: Enabled
// from the --trace flag or the config file, SampleRatio from the config
// file, ServiceName by the caller. There is no remote collector to point
// at, so the OTLP endpoint/protocol/headers fields that config carries have
// no home here.
type Config struct {
	// Enabled turns on the in-process SDK provider. False gives a no-op
	// tracer (otel's default), matching --trace being omitted.
	Enabled bool
	// ServiceName tags the resource every span belongs to.
	ServiceName string
	// SampleRatio is passed to trace.TraceIDRatioBased; 1.0 by default.
	SampleRatio float64
}

// ShutdownFunc flushes and stops the tracer provider.
type ShutdownFunc func(ctx context.Context) error

func noopShutdown(context.Context) error { return nil }

// NewTracer builds a trace.Tracer per cfg. When cfg.Enabled is false it
// returns otel's global no-op tracer and a no-op shutdown; when true it
// installs an SDK TracerProvider that batches spans to w via a small
// exporter (no OTLP/gRPC stack — see writerExporter below) and sets it as
// the global provider so every (*snapshot.Snapshot).Initialize phase span
// flows through the same tracer.
func NewTracer(cfg Config, w io.Writer) (trace.Tracer, ShutdownFunc, error) {
	if !cfg.Enabled {
		return otel.Tracer("heapsnap"), noopShutdown, nil
	}

	ratio := cfg.SampleRatio
	if ratio <= 0 {
		ratio = 1.0
	}
	serviceName := cfg.ServiceName
	if serviceName == "" {
		serviceName = "heapsnap"
	}

	tp := sdktrace.NewTracerProvider(
		sdktrace.WithBatcher(&writerExporter{w: w}),
		sdktrace.WithSampler(sdktrace.TraceIDRatioBased(ratio)),
	)
	otel.SetTracerProvider(tp)

	return tp.Tracer(serviceName), func(ctx context.Context) error {
		return tp.Shutdown(ctx)
	}, nil
}

// StartPhase opens a span named after onProgress's milestone string,
// letting tracing and Initialize's progress callback share one vocabulary
// (spec.md's on_progress strings double as span names).
func StartPhase(ctx context.Context, tracer trace.Tracer, milestone string) (context.Context, trace.Span) {
	return tracer.Start(ctx, milestone, trace.WithAttributes(attribute.String("phase", milestone)))
}

// writerExporter is a minimal sdktrace.SpanExporter that formats each
// finished span as one line of text to w. It exists because this tool has
// nowhere remote to export spans to; wiring an OTLP or stdouttrace exporter
// here would be scaffolding with no collector on the other end.
type writerExporter struct {
	mu sync.Mutex
	w  io.Writer
}

func (e *writerExporter) ExportSpans(ctx context.Context, spans []sdktrace.ReadOnlySpan) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	for _, s := range spans {
		dur := s.EndTime().Sub(s.StartTime())
		if s.EndTime().Before(s.StartTime()) {
			dur = 0
		}
		_, err := fmt.Fprintf(e.w, "%s span=%q trace=%s span_id=%s dur=%s\n",
			s.StartTime().Format(time.RFC3339Nano), s.Name(), s.SpanContext().TraceID(), s.SpanContext().SpanID(), dur)
		if err != nil {
			return err
		}
	}
	return nil
}

func (e *writerExporter) Shutdown(context.Context) error { return nil }

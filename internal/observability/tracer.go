package observability

import (
	"context"
	"fmt"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/exporters/stdout/stdouttrace"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/trace"
	"go.opentelemetry.io/otel/trace/noop"
)

// Tracer owns the process's TracerProvider and its shutdown.
type Tracer struct {
	provider *sdktrace.TracerProvider
}

// NewTracer builds a TracerProvider per cfg. Only the "stdout" exporter is
// wired (development/debugging); "none" installs a no-op provider so span
// creation is free when tracing is off.
func NewTracer(ctx context.Context, cfg *TracingConfig) (*Tracer, error) {
	if !cfg.Enabled || cfg.Exporter == "none" {
		otel.SetTracerProvider(noop.NewTracerProvider())
		return &Tracer{}, nil
	}

	exporter, err := stdouttrace.New(stdouttrace.WithPrettyPrint())
	if err != nil {
		return nil, fmt.Errorf("create stdout trace exporter: %w", err)
	}

	tp := sdktrace.NewTracerProvider(
		sdktrace.WithBatcher(exporter),
		sdktrace.WithSampler(sdktrace.TraceIDRatioBased(cfg.SamplingRate)),
	)
	otel.SetTracerProvider(tp)
	return &Tracer{provider: tp}, nil
}

func (t *Tracer) Shutdown(ctx context.Context) error {
	if t == nil || t.provider == nil {
		return nil
	}
	return t.provider.Shutdown(ctx)
}

// GetTracer returns a named tracer from the global provider. Safe to call
// even before NewTracer runs (returns a no-op tracer).
func GetTracer(name string) trace.Tracer {
	return otel.Tracer(name)
}

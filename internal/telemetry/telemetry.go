// Package telemetry wraps each engine phase in an OpenTelemetry span,
// following the teacher's segment-tree tracing pattern (SPEC_FULL.md
// §4.2.1): a tracer obtained once, a span per phase, attributes and
// RecordError on failure.
package telemetry

import (
	"context"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/exporters/stdout/stdouttrace"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	oteltrace "go.opentelemetry.io/otel/trace"
	"go.opentelemetry.io/otel/trace/noop"
)

const tracerName = "github.com/opencover/hyfd"

// Provider owns the process's TracerProvider; Shutdown flushes any pending
// spans before exit.
type Provider struct {
	tp       oteltrace.TracerProvider
	shutdown func(context.Context) error
}

// NewNoop returns a Provider whose spans are discarded — the default, so
// tracing imposes no cost unless explicitly requested (SPEC_FULL.md §4.2.1).
func NewNoop() *Provider {
	return &Provider{tp: noop.NewTracerProvider()}
}

// NewStdout returns a Provider that prints spans to stdout, for local
// debugging (`--trace=stdout`).
func NewStdout() (*Provider, error) {
	exporter, err := stdouttrace.New(stdouttrace.WithPrettyPrint())
	if err != nil {
		return nil, err
	}
	tp := sdktrace.NewTracerProvider(sdktrace.WithBatcher(exporter))
	return &Provider{tp: tp, shutdown: tp.Shutdown}, nil
}

// Shutdown flushes and releases the provider's resources. Safe to call on a
// no-op Provider.
func (p *Provider) Shutdown(ctx context.Context) error {
	if p == nil || p.shutdown == nil {
		return nil
	}
	return p.shutdown(ctx)
}

func (p *Provider) tracer() oteltrace.Tracer {
	if p == nil || p.tp == nil {
		return noop.NewTracerProvider().Tracer(tracerName)
	}
	return p.tp.Tracer(tracerName)
}

// EndFunc closes the span started by StartPhase, recording err if non-nil.
type EndFunc func(err error)

// StartPhase starts a span named after phase (e.g. "sample", "induct",
// "validate"), tagging it with the current iteration number.
func (p *Provider) StartPhase(ctx context.Context, phase string, iteration int) (context.Context, EndFunc) {
	ctx, span := p.tracer().Start(ctx, phase, oteltrace.WithAttributes(
		attribute.String("hyfd.phase", phase),
		attribute.Int("hyfd.iteration", iteration),
	))
	return ctx, func(err error) {
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
		}
		span.End()
	}
}

// Global returns the ambient global tracer, for callers that don't own a
// Provider (e.g. the status server's request handlers).
func Global() oteltrace.Tracer { return otel.Tracer(tracerName) }

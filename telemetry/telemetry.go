// Package telemetry defines the logging, metrics, and tracing surface used
// across the workflow engines, saga orchestrator, and coordinator.
// Components depend on these interfaces rather than on a concrete provider
// so callers can swap Clue/OTEL for a no-op implementation in tests.
package telemetry

import (
	"context"
	"time"

	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

// Logger captures structured logging used throughout the runtime.
// Implementations typically delegate to Clue but the interface is
// intentionally small so tests and alternate backends can stub it.
type Logger interface {
	Debug(ctx context.Context, msg string, keyvals ...any)
	Info(ctx context.Context, msg string, keyvals ...any)
	Warn(ctx context.Context, msg string, keyvals ...any)
	Error(ctx context.Context, msg string, keyvals ...any)
}

// Metrics exposes counter, timer, and gauge helpers for runtime
// instrumentation.
type Metrics interface {
	IncCounter(name string, value float64, tags ...string)
	RecordTimer(name string, duration time.Duration, tags ...string)
	RecordGauge(name string, value float64, tags ...string)
}

// Tracer abstracts span creation so runtime code stays agnostic of the
// underlying OpenTelemetry provider.
type Tracer interface {
	Start(ctx context.Context, name string, opts ...trace.SpanStartOption) (context.Context, Span)
	Span(ctx context.Context) Span
}

// Span represents an in-flight tracing span.
type Span interface {
	End(opts ...trace.SpanEndOption)
	AddEvent(name string, attrs ...any)
	SetStatus(code codes.Code, description string)
	RecordError(err error, opts ...trace.EventOption)
}

// Provider bundles the three observability surfaces so constructors can take
// a single argument instead of three.
type Provider struct {
	Logger  Logger
	Metrics Metrics
	Tracer  Tracer
}

// Noop returns a Provider whose Logger/Metrics/Tracer all discard their
// inputs. Useful as a default for tests and the in-memory engine.
func Noop() Provider {
	return Provider{Logger: NewNoopLogger(), Metrics: NewNoopMetrics(), Tracer: NewNoopTracer()}
}

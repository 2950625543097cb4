// Package observability defines the core interfaces and semantic conventions
// used for tracing, metrics collection, and structured logging throughout
// aistream.
//
// The central entry point is [Provider], which composes [Tracer], [Metrics],
// and [Logger] into a single injectable dependency. Callers propagate an active
// [Provider] and [Span] through a [context.Context] using [ContextWithObserver]
// and [ContextWithSpan]; they can be retrieved with [ObserverFromContext] and
// [SpanFromContext]. A nil Provider means observability is disabled, and every
// component in this module checks for nil before recording anything.
//
// Implementations live in sub-packages: slogobs (log/slog) and otelobs
// (OpenTelemetry).
package observability

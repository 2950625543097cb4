// Package otelobs implements observability.Provider on OpenTelemetry.
// Spans and metrics go to the configured tracer and meter providers (the
// global ones by default). Log calls go to a delegate Logger and are also
// recorded as events on the span active in the call's context.
package otelobs

import (
	"context"
	"fmt"
	"sync"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"

	"github.com/leofalp/aistream/providers/observability"
	"github.com/leofalp/aistream/providers/observability/slogobs"
)

// instrumentationName identifies this module to OpenTelemetry.
const instrumentationName = "github.com/leofalp/aistream"

// Observer bridges observability.Provider to OpenTelemetry.
type Observer struct {
	tracer trace.Tracer
	meter  metric.Meter
	logger observability.Logger

	mu         sync.Mutex
	counters   map[string]observability.Counter
	histograms map[string]observability.Histogram
}

var _ observability.Provider = (*Observer)(nil)

// Option configures an Observer.
type Option func(*config)

type config struct {
	tracerProvider trace.TracerProvider
	meterProvider  metric.MeterProvider
	logger         observability.Logger
}

// WithTracerProvider sets the tracer provider. Default: otel.GetTracerProvider().
func WithTracerProvider(provider trace.TracerProvider) Option {
	return func(c *config) {
		c.tracerProvider = provider
	}
}

// WithMeterProvider sets the meter provider. Default: otel.GetMeterProvider().
func WithMeterProvider(provider metric.MeterProvider) Option {
	return func(c *config) {
		c.meterProvider = provider
	}
}

// WithLogger sets the delegate for log calls. Default: slogobs.New().
func WithLogger(logger observability.Logger) Option {
	return func(c *config) {
		c.logger = logger
	}
}

// New creates an OpenTelemetry-backed observer.
func New(opts ...Option) *Observer {
	cfg := &config{}
	for _, opt := range opts {
		opt(cfg)
	}
	if cfg.tracerProvider == nil {
		cfg.tracerProvider = otel.GetTracerProvider()
	}
	if cfg.meterProvider == nil {
		cfg.meterProvider = otel.GetMeterProvider()
	}
	if cfg.logger == nil {
		cfg.logger = slogobs.New()
	}

	return &Observer{
		tracer:     cfg.tracerProvider.Tracer(instrumentationName),
		meter:      cfg.meterProvider.Meter(instrumentationName),
		logger:     cfg.logger,
		counters:   make(map[string]observability.Counter),
		histograms: make(map[string]observability.Histogram),
	}
}

// --- TRACING ---

// StartSpan starts an OpenTelemetry span and attaches both the OTel span and
// its observability wrapper to the returned context.
func (o *Observer) StartSpan(ctx context.Context, name string, attrs ...observability.Attribute) (context.Context, observability.Span) {
	ctx, otelSpan := o.tracer.Start(ctx, name, trace.WithAttributes(toKeyValues(attrs)...))
	span := &otelSpanWrapper{span: otelSpan}
	return observability.ContextWithSpan(ctx, span), span
}

type otelSpanWrapper struct {
	span trace.Span
}

func (s *otelSpanWrapper) End() {
	s.span.End()
}

func (s *otelSpanWrapper) SetAttributes(attrs ...observability.Attribute) {
	s.span.SetAttributes(toKeyValues(attrs)...)
}

func (s *otelSpanWrapper) SetStatus(code observability.StatusCode, description string) {
	switch code {
	case observability.StatusOK:
		s.span.SetStatus(codes.Ok, description)
	case observability.StatusError:
		s.span.SetStatus(codes.Error, description)
	default:
		s.span.SetStatus(codes.Unset, description)
	}
}

func (s *otelSpanWrapper) RecordError(err error) {
	if err == nil {
		return
	}
	s.span.RecordError(err)
}

func (s *otelSpanWrapper) AddEvent(name string, attrs ...observability.Attribute) {
	s.span.AddEvent(name, trace.WithAttributes(toKeyValues(attrs)...))
}

// --- METRICS ---

// Counter returns an Int64Counter instrument for name. Instrument creation
// errors fall back to a counter that only logs through the delegate.
func (o *Observer) Counter(name string) observability.Counter {
	o.mu.Lock()
	defer o.mu.Unlock()
	if existing, ok := o.counters[name]; ok {
		return existing
	}

	var created observability.Counter
	instrument, err := o.meter.Int64Counter(name)
	if err != nil {
		o.logger.Warn(context.Background(), "failed to create OpenTelemetry counter",
			observability.String("metric", name), observability.Error(err))
		created = discardCounter{}
	} else {
		created = &otelCounter{instrument: instrument}
	}
	o.counters[name] = created
	return created
}

// Histogram returns a Float64Histogram instrument for name.
func (o *Observer) Histogram(name string) observability.Histogram {
	o.mu.Lock()
	defer o.mu.Unlock()
	if existing, ok := o.histograms[name]; ok {
		return existing
	}

	var created observability.Histogram
	instrument, err := o.meter.Float64Histogram(name)
	if err != nil {
		o.logger.Warn(context.Background(), "failed to create OpenTelemetry histogram",
			observability.String("metric", name), observability.Error(err))
		created = discardHistogram{}
	} else {
		created = &otelHistogram{instrument: instrument}
	}
	o.histograms[name] = created
	return created
}

type otelCounter struct {
	instrument metric.Int64Counter
}

func (c *otelCounter) Add(ctx context.Context, value int64, attrs ...observability.Attribute) {
	c.instrument.Add(ctx, value, metric.WithAttributes(toKeyValues(attrs)...))
}

type otelHistogram struct {
	instrument metric.Float64Histogram
}

func (h *otelHistogram) Record(ctx context.Context, value float64, attrs ...observability.Attribute) {
	h.instrument.Record(ctx, value, metric.WithAttributes(toKeyValues(attrs)...))
}

type discardCounter struct{}

func (discardCounter) Add(context.Context, int64, ...observability.Attribute) {}

type discardHistogram struct{}

func (discardHistogram) Record(context.Context, float64, ...observability.Attribute) {}

// --- LOGGING ---

func (o *Observer) Trace(ctx context.Context, msg string, attrs ...observability.Attribute) {
	o.logger.Trace(ctx, msg, attrs...)
}

func (o *Observer) Debug(ctx context.Context, msg string, attrs ...observability.Attribute) {
	o.logger.Debug(ctx, msg, attrs...)
}

func (o *Observer) Info(ctx context.Context, msg string, attrs ...observability.Attribute) {
	o.annotate(ctx, msg, attrs)
	o.logger.Info(ctx, msg, attrs...)
}

func (o *Observer) Warn(ctx context.Context, msg string, attrs ...observability.Attribute) {
	o.annotate(ctx, msg, attrs)
	o.logger.Warn(ctx, msg, attrs...)
}

func (o *Observer) Error(ctx context.Context, msg string, attrs ...observability.Attribute) {
	o.annotate(ctx, msg, attrs)
	o.logger.Error(ctx, msg, attrs...)
}

// annotate copies an INFO-or-higher log line onto the recording span, if any.
func (o *Observer) annotate(ctx context.Context, msg string, attrs []observability.Attribute) {
	span := trace.SpanFromContext(ctx)
	if !span.IsRecording() {
		return
	}
	span.AddEvent(msg, trace.WithAttributes(toKeyValues(attrs)...))
}

func toKeyValues(attrs []observability.Attribute) []attribute.KeyValue {
	keyValues := make([]attribute.KeyValue, 0, len(attrs))
	for _, attr := range attrs {
		keyValues = append(keyValues, toKeyValue(attr))
	}
	return keyValues
}

func toKeyValue(attr observability.Attribute) attribute.KeyValue {
	switch value := attr.Value.(type) {
	case string:
		return attribute.String(attr.Key, value)
	case int:
		return attribute.Int(attr.Key, value)
	case int64:
		return attribute.Int64(attr.Key, value)
	case float64:
		return attribute.Float64(attr.Key, value)
	case bool:
		return attribute.Bool(attr.Key, value)
	case time.Duration:
		return attribute.Int64(attr.Key+"_ms", value.Milliseconds())
	case []string:
		return attribute.StringSlice(attr.Key, value)
	case fmt.Stringer:
		return attribute.String(attr.Key, value.String())
	default:
		return attribute.String(attr.Key, fmt.Sprint(value))
	}
}

package observability

import (
	"context"
	"time"
)

// Provider is what the normalizer and the poller report to. A nil Provider
// means observability is off; both check before every call.
type Provider interface {
	Tracer
	Metrics
	Logger
}

// Tracer opens one span per stream (SpanStream) and per poll loop (SpanPoll).
type Tracer interface {
	StartSpan(ctx context.Context, name string, attrs ...Attribute) (context.Context, Span)
}

// Span represents a single unit of work, such as one stream or one poll loop.
type Span interface {
	End()
	SetAttributes(attrs ...Attribute)
	SetStatus(code StatusCode, description string)
	RecordError(err error)
	AddEvent(name string, attrs ...Attribute)
}

type StatusCode int

const (
	StatusUnset StatusCode = iota
	StatusOK
	StatusError
)

// Metrics hands out the instruments named by the Metric* constants.
type Metrics interface {
	Counter(name string) Counter
	Histogram(name string) Histogram
}

// Counter counts frames, tool calls and poll attempts.
type Counter interface {
	Add(ctx context.Context, value int64, attrs ...Attribute)
}

// Histogram records poll loop durations.
type Histogram interface {
	Record(ctx context.Context, value float64, attrs ...Attribute)
}

// Logger is leveled structured logging. Skipped frames log at Debug,
// dropped tool calls and vendor error frames at Warn.
type Logger interface {
	Trace(ctx context.Context, msg string, attrs ...Attribute)
	Debug(ctx context.Context, msg string, attrs ...Attribute)
	Info(ctx context.Context, msg string, attrs ...Attribute)
	Warn(ctx context.Context, msg string, attrs ...Attribute)
	Error(ctx context.Context, msg string, attrs ...Attribute)
}

// Attribute is a key from semconv.go and its value. Values are kept as-is;
// each backend converts them.
type Attribute struct {
	Key   string
	Value any
}

func String(key, value string) Attribute {
	return Attribute{Key: key, Value: value}
}

func Int(key string, value int) Attribute {
	return Attribute{Key: key, Value: value}
}

func Int64(key string, value int64) Attribute {
	return Attribute{Key: key, Value: value}
}

func Float64(key string, value float64) Attribute {
	return Attribute{Key: key, Value: value}
}

func Bool(key string, value bool) Attribute {
	return Attribute{Key: key, Value: value}
}

func Duration(key string, value time.Duration) Attribute {
	return Attribute{Key: key, Value: value}
}

// Error stores the message only, under AttrError. A nil error is "".
func Error(err error) Attribute {
	if err == nil {
		return Attribute{Key: AttrError, Value: ""}
	}
	return Attribute{Key: AttrError, Value: err.Error()}
}

// Vendor tags an attribute set with the profile or adapter name.
func Vendor(name string) Attribute {
	return String(AttrLLMProvider, name)
}

// Task tags an attribute set with the id of a polled task.
func Task(id string) Attribute {
	return String(AttrTaskID, id)
}

// ToolCall describes one flushed tool call. reason is empty for ready calls.
func ToolCall(id, name string, index int, reason string) []Attribute {
	attrs := []Attribute{
		String(AttrToolCallID, id),
		String(AttrToolCallName, name),
		Int(AttrToolCallIndex, index),
	}
	if reason != "" {
		attrs = append(attrs, String(AttrToolCallDropReason, reason))
	}
	return attrs
}

// Tokens describes merged stream usage. reasoning is left out when the
// vendor never reported it.
func Tokens(input, output, total int, reasoning *int) []Attribute {
	attrs := []Attribute{
		Int(AttrLLMTokensInput, input),
		Int(AttrLLMTokensOutput, output),
		Int(AttrLLMTokensTotal, total),
	}
	if reasoning != nil {
		attrs = append(attrs, Int(AttrLLMTokensReasoning, *reasoning))
	}
	return attrs
}

// Fail records err on span and marks it failed. A nil span is ignored.
func Fail(span Span, err error) {
	if span == nil || err == nil {
		return
	}
	span.RecordError(err)
	span.SetStatus(StatusError, err.Error())
}

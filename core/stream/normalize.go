package stream

import (
	"context"
	"errors"
	"fmt"
	"io"
	"sync"
	"time"

	"github.com/leofalp/aistream/core/sse"
	"github.com/leofalp/aistream/internal/utils"
	"github.com/leofalp/aistream/providers/observability"
)

// Option configures Normalize.
type Option func(*options)

type options struct {
	streamID string
	observer observability.Provider
	repair   bool
	onDrop   func(Event)
}

// WithStreamID fixes the stream id instead of taking it from the vendor.
func WithStreamID(id string) Option {
	return func(o *options) {
		o.streamID = id
	}
}

// WithObserver sets the observability provider. Without it the provider
// attached to the context is used, if any.
func WithObserver(observer observability.Provider) Option {
	return func(o *options) {
		o.observer = observer
	}
}

// WithArgumentRepair enables jsonrepair for tool call arguments that do not
// parse. See RepairArguments.
func WithArgumentRepair() Option {
	return func(o *options) {
		o.repair = true
	}
}

// WithDropHandler registers fn to be called with every tool_call_dropped
// event before it is yielded.
func WithDropHandler(fn func(Event)) Option {
	return func(o *options) {
		o.onDrop = fn
	}
}

// Normalize turns an SSE response body into a Stream of canonical events using
// the vendor profile. The body is read lazily while the stream is consumed and
// is closed when iteration ends or ctx is cancelled.
//
// Frames the extractor rejects are skipped. A vendor error frame ends the
// stream with a *VendorError instead of Finish. Cancelling ctx ends the stream
// with ctx.Err() and pending tool calls are not flushed.
func Normalize(ctx context.Context, body io.ReadCloser, profile Profile, opts ...Option) *Stream {
	config := &options{}
	for _, opt := range opts {
		opt(config)
	}
	if config.observer == nil {
		config.observer = observability.ObserverFromContext(ctx)
	}

	n := &normalizer{profile: profile, options: config, body: body}
	return NewStream(func(yield func(Event, error) bool) {
		n.run(ctx, yield)
	})
}

type normalizer struct {
	profile Profile
	options *options
	body    io.ReadCloser

	closeOnce sync.Once

	frames int64
}

func (n *normalizer) closeBody() {
	n.closeOnce.Do(func() {
		utils.CloseWithLog(n.body)
	})
}

func (n *normalizer) run(ctx context.Context, yield func(Event, error) bool) {
	if ctx == nil {
		ctx = context.Background()
	}
	defer n.closeBody()

	if n.body == nil {
		yield(Event{}, fmt.Errorf("%s stream: nil response body", n.profile.Name))
		return
	}
	if n.profile.NewExtractor == nil {
		yield(Event{}, fmt.Errorf("%s stream: profile has no extractor", n.profile.Name))
		return
	}

	stop := context.AfterFunc(ctx, n.closeBody)
	defer stop()

	observer := n.options.observer
	start := time.Now()
	var span observability.Span
	if observer != nil {
		ctx, span = observer.StartSpan(ctx, observability.SpanStream,
			observability.Vendor(n.profile.Name),
			observability.String(observability.AttrStreamMode, n.profile.Mode.String()),
		)
		defer span.End()
	}

	var accumulatorOpts []AccumulatorOption
	if n.options.repair {
		accumulatorOpts = append(accumulatorOpts, RepairArguments())
	}
	emitter := NewEmitter(EmitterConfig{
		StreamID:    n.options.streamID,
		Accumulator: NewAccumulator(accumulatorOpts...),
		MapReason:   n.profile.MapReason,
		DeferFinish: n.profile.DeferFinish,
	})
	extractor := n.profile.NewExtractor()
	reader := sse.NewReader(n.body, n.profile.Mode)

	fail := func(err error) {
		observability.Fail(span, err)
		yield(Event{}, err)
	}

	emit := func(events []Event) bool {
		for _, event := range events {
			n.observe(ctx, span, event, start)
			if !yield(event, nil) {
				return false
			}
		}
		return true
	}

	for emitter.State() != StateFinished {
		if err := ctx.Err(); err != nil {
			fail(err)
			return
		}

		frame, err := reader.Next()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			if ctxErr := ctx.Err(); ctxErr != nil {
				fail(ctxErr)
				return
			}
			fail(fmt.Errorf("failed to read %s stream: %w", n.profile.Name, err))
			return
		}
		n.frames++

		chunk, err := extractor.Extract(frame)
		if err != nil {
			n.skipFrame(ctx, span, frame, err)
			continue
		}
		if chunk.Err != nil {
			emitter.Abort()
			if observer != nil {
				observer.Warn(ctx, "Vendor error frame received",
					observability.Vendor(n.profile.Name),
					observability.String(observability.AttrStreamID, emitter.StreamID()),
					observability.Error(chunk.Err),
				)
				span.AddEvent(observability.EventStreamVendorError, observability.Error(chunk.Err))
			}
			fail(chunk.Err)
			return
		}

		if !emit(emitter.Apply(chunk)) {
			return
		}
	}

	emit(emitter.Close())
}

func (n *normalizer) skipFrame(ctx context.Context, span observability.Span, frame sse.Frame, err error) {
	observer := n.options.observer
	if observer == nil {
		return
	}
	observer.Counter(observability.MetricStreamFramesSkipped).Add(ctx, 1, observability.Vendor(n.profile.Name))
	observer.Debug(ctx, "Skipping malformed frame",
		observability.Vendor(n.profile.Name),
		observability.String(observability.AttrStreamFrameEvent, frame.Event),
		observability.String(observability.AttrStreamFramePreview, utils.TruncateString(frame.Data, 200)),
		observability.Error(err),
	)
	span.AddEvent(observability.EventStreamFrameSkip, observability.Error(err))
}

func (n *normalizer) observe(ctx context.Context, span observability.Span, event Event, start time.Time) {
	if event.Type == EventToolCallDropped && n.options.onDrop != nil {
		n.options.onDrop(event)
	}

	observer := n.options.observer
	if observer == nil {
		return
	}
	provider := observability.Vendor(n.profile.Name)

	switch event.Type {
	case EventToolCallReady:
		observer.Counter(observability.MetricToolCallsReady).Add(ctx, 1, provider)
		span.AddEvent(observability.EventToolCallReady,
			observability.ToolCall(event.ToolCall.ID, event.ToolCall.Name, event.ToolCall.Index, "")...)

	case EventToolCallDropped:
		reason := string(event.ToolCall.DropReason)
		attrs := observability.ToolCall(event.ToolCall.ID, event.ToolCall.Name, event.ToolCall.Index, reason)
		observer.Counter(observability.MetricToolCallsDropped).Add(ctx, 1, provider,
			observability.String(observability.AttrToolCallDropReason, reason),
		)
		observer.Warn(ctx, "Tool call dropped",
			append([]observability.Attribute{provider, observability.String(observability.AttrStreamID, event.StreamID)}, attrs...)...)
		span.AddEvent(observability.EventToolCallDropped, attrs...)

	case EventFinish:
		usage := Usage{}
		if event.Usage != nil {
			usage = *event.Usage
		}
		attrs := []observability.Attribute{
			provider,
			observability.String(observability.AttrStreamID, event.StreamID),
			observability.String(observability.AttrLLMFinishReason, string(event.FinishReason)),
			observability.Int64(observability.AttrStreamFrames, n.frames),
			observability.Duration(observability.AttrDuration, time.Since(start)),
		}
		attrs = append(attrs, observability.Tokens(usage.InputTokens, usage.OutputTokens, usage.TotalTokens, usage.ReasoningTokens)...)
		observer.Counter(observability.MetricStreamFrames).Add(ctx, n.frames, provider)
		observer.Debug(ctx, "Stream finished", attrs...)
		span.SetAttributes(attrs...)
		span.AddEvent(observability.EventStreamFinish)
		span.SetStatus(observability.StatusOK, "")
	}
}

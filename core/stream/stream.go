package stream

import (
	"iter"
	"strings"
	"sync/atomic"
)

// Stream is a single-use, ordered sequence of canonical events.
//
// Important: callers must consume the stream, either by iterating with Iter()
// (breaking out of the loop early is fine) or by calling Collect(). A stream
// built by Normalize holds the transport open until then.
type Stream struct {
	iterator iter.Seq2[Event, error]
	consumed atomic.Bool
}

// NewStream wraps an event iterator. The iterator yields events with a nil
// error and ends by yielding at most one non-nil error.
func NewStream(iterator iter.Seq2[Event, error]) *Stream {
	return &Stream{iterator: iterator}
}

// Iter returns the iterator for use with range-over-func loops. A second
// iteration yields ErrStreamConsumed.
//
// Example:
//
//	for event, err := range stream.Iter() {
//	    if err != nil { handle error }
//	    if event.Type == stream.EventTextDelta { fmt.Print(event.Text) }
//	}
func (stream *Stream) Iter() iter.Seq2[Event, error] {
	return func(yield func(Event, error) bool) {
		if stream.consumed.Swap(true) {
			yield(Event{}, ErrStreamConsumed)
			return
		}
		stream.iterator(yield)
	}
}

// Result is the accumulated outcome of a collected stream.
type Result struct {
	StreamID     string       `json:"stream_id"`
	Text         string       `json:"text"`
	ToolCalls    []ToolCall   `json:"tool_calls,omitempty"`
	Dropped      []ToolCall   `json:"dropped_tool_calls,omitempty"`
	Usage        Usage        `json:"usage"`
	FinishReason FinishReason `json:"finish_reason"`
}

// Collect consumes the whole stream. On a mid-stream error the partial result
// is returned together with the error.
func (stream *Stream) Collect() (*Result, error) {
	result := &Result{}
	var text strings.Builder

	for event, err := range stream.Iter() {
		if err != nil {
			result.Text = text.String()
			return result, err
		}
		if result.StreamID == "" {
			result.StreamID = event.StreamID
		}

		switch event.Type {
		case EventTextDelta:
			text.WriteString(event.Text)
		case EventToolCallReady:
			result.ToolCalls = append(result.ToolCalls, *event.ToolCall)
		case EventToolCallDropped:
			result.Dropped = append(result.Dropped, *event.ToolCall)
		case EventUsage:
			result.Usage = *event.Usage
		case EventFinish:
			result.FinishReason = event.FinishReason
			if event.Usage != nil {
				result.Usage = *event.Usage
			}
		}
	}

	result.Text = text.String()
	return result, nil
}

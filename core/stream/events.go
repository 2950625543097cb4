package stream

import (
	"encoding/json"
	"fmt"
)

// EventType identifies the variant carried by an Event.
type EventType string

const (
	// EventTextStart opens the text message of a stream. Emitted at most once.
	EventTextStart EventType = "text_start"
	// EventTextDelta carries one text fragment.
	EventTextDelta EventType = "text_delta"
	// EventTextEnd closes an opened text message. It follows the flushed tool
	// calls and precedes Finish.
	EventTextEnd EventType = "text_end"
	// EventToolCallStart announces a tool call once its name is known.
	EventToolCallStart EventType = "tool_call_start"
	// EventToolCallDelta carries one raw argument fragment of a tool call.
	EventToolCallDelta EventType = "tool_call_delta"
	// EventToolCallReady carries a complete tool call with parsed arguments.
	EventToolCallReady EventType = "tool_call_ready"
	// EventToolCallDropped reports a tool call discarded at flush.
	EventToolCallDropped EventType = "tool_call_dropped"
	// EventUsage carries the latest cumulative token usage snapshot.
	EventUsage EventType = "usage"
	// EventFinish is the terminal event of every successful stream.
	EventFinish EventType = "finish"
)

// FinishReason is the canonical, vendor-independent reason a stream ended.
type FinishReason string

const (
	FinishStop          FinishReason = "stop"
	FinishLength        FinishReason = "length"
	FinishContentFilter FinishReason = "content_filter"
	FinishToolCalls     FinishReason = "tool_calls"
	FinishError         FinishReason = "error"
)

// DropReason explains why a buffered tool call was not turned into
// EventToolCallReady.
type DropReason string

const (
	// DropEmptyArguments means the argument buffer was empty or whitespace.
	DropEmptyArguments DropReason = "empty_arguments"
	// DropInvalidArguments means the buffer looked like JSON but did not parse.
	DropInvalidArguments DropReason = "invalid_arguments"
)

// Usage is a token usage snapshot. Reasoning is nil when the vendor never
// reported reasoning tokens.
type Usage struct {
	InputTokens     int  `json:"input_tokens"`
	OutputTokens    int  `json:"output_tokens"`
	TotalTokens     int  `json:"total_tokens"`
	ReasoningTokens *int `json:"reasoning_tokens,omitempty"`
}

// ToolCall describes a tool call in tool_call_* events. Which fields are set
// depends on the event type:
//   - tool_call_start: ID, Index, Name
//   - tool_call_delta: ID, Index, ArgumentsDelta
//   - tool_call_ready: ID, Index, Name, Arguments
//   - tool_call_dropped: ID, Index, Name, DropReason, RawArguments
type ToolCall struct {
	ID             string          `json:"id"`
	Index          int             `json:"index"`
	Name           string          `json:"name,omitempty"`
	ArgumentsDelta string          `json:"arguments_delta,omitempty"`
	Arguments      json.RawMessage `json:"arguments,omitempty"`
	DropReason     DropReason      `json:"drop_reason,omitempty"`
	RawArguments   string          `json:"raw_arguments,omitempty"`
}

// DecodeArguments unmarshals the structured arguments of a ready tool call.
func (call ToolCall) DecodeArguments(target any) error {
	if len(call.Arguments) == 0 {
		return fmt.Errorf("tool call %q has no arguments", call.ID)
	}
	if err := json.Unmarshal(call.Arguments, target); err != nil {
		return fmt.Errorf("failed to decode arguments of tool call %q: %w", call.ID, err)
	}
	return nil
}

// Event is one canonical stream event. Type discriminates which of the
// remaining fields are populated; StreamID is set on every event.
type Event struct {
	Type         EventType    `json:"type"`
	StreamID     string       `json:"stream_id,omitempty"`
	Text         string       `json:"text,omitempty"`          // text_delta
	ToolCall     *ToolCall    `json:"tool_call,omitempty"`     // tool_call_* events
	Usage        *Usage       `json:"usage,omitempty"`         // usage, finish
	FinishReason FinishReason `json:"finish_reason,omitempty"` // finish
}

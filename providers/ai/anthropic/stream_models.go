package anthropic

/*
	ANTHROPIC SSE STREAMING - WIRE TYPES

	Anthropic streaming uses SSE with "event:" lines to identify event types,
	followed by "data:" lines containing JSON payloads. The payload repeats the
	type in its "type" field, which is what the extractor switches on.

	Event lifecycle:
	  message_start → content_block_start → content_block_delta → content_block_stop →
	  message_delta → message_stop
*/

// streamEvent is the top-level envelope for all Anthropic SSE events.
// The Type field discriminates which optional fields are populated.
type streamEvent struct {
	Type         string        `json:"type"`
	Message      *streamHeader `json:"message,omitempty"`       // message_start
	Index        *int          `json:"index,omitempty"`         // content_block_*
	ContentBlock *contentBlock `json:"content_block,omitempty"` // content_block_start
	Delta        *streamDelta  `json:"delta,omitempty"`         // content_block_delta, message_delta
	Usage        *streamUsage  `json:"usage,omitempty"`         // message_delta
	Error        *streamError  `json:"error,omitempty"`         // error
}

// streamHeader is the partial message carried by message_start.
type streamHeader struct {
	ID    string       `json:"id"`
	Model string       `json:"model"`
	Usage *streamUsage `json:"usage,omitempty"`
}

// contentBlock opens a text, thinking or tool_use block.
type contentBlock struct {
	Type string `json:"type"`
	ID   string `json:"id,omitempty"`   // tool_use
	Name string `json:"name,omitempty"` // tool_use
}

// streamDelta carries incremental content within a content_block_delta or message_delta event.
// The Type field discriminates the kind of delta:
//   - "text_delta": Text field is populated
//   - "thinking_delta": thinking text, not part of the answer
//   - "input_json_delta": PartialJSON field is populated (tool call arguments)
//   - (no type on message_delta): StopReason is populated
type streamDelta struct {
	Type        string `json:"type,omitempty"`
	Text        string `json:"text,omitempty"`
	PartialJSON string `json:"partial_json,omitempty"`
	StopReason  string `json:"stop_reason,omitempty"`
}

// streamUsage is reported cumulatively: input tokens on message_start, the
// final output count on message_delta. Cache counters are billed as input.
type streamUsage struct {
	InputTokens              *int `json:"input_tokens,omitempty"`
	OutputTokens             *int `json:"output_tokens,omitempty"`
	CacheCreationInputTokens *int `json:"cache_creation_input_tokens,omitempty"`
	CacheReadInputTokens     *int `json:"cache_read_input_tokens,omitempty"`
}

// streamError represents an error event in the Anthropic SSE stream.
type streamError struct {
	Type    string `json:"type"`    // e.g. "overloaded_error", "api_error"
	Message string `json:"message"` // Human-readable error description
}

package observability

// Semantic conventions for observability attributes.
// These constants define standard attribute names to ensure consistency
// across the stream normalizer, the poller and the vendor adapters.

// --- Vendor Attributes ---

const (
	// AttrLLMProvider is the name of the vendor (e.g., "openai", "anthropic")
	AttrLLMProvider = "llm.provider"

	// AttrLLMModel is the model identifier
	AttrLLMModel = "llm.model"

	// AttrLLMEndpoint is the API endpoint URL
	AttrLLMEndpoint = "llm.endpoint"

	// AttrLLMFinishReason is the canonical reason the generation finished
	AttrLLMFinishReason = "llm.finish_reason"

	// AttrLLMRawFinishReason is the vendor's own finish token before mapping
	AttrLLMRawFinishReason = "llm.finish_reason.raw"
)

// --- Token Usage Attributes ---

const (
	AttrLLMTokensInput     = "llm.tokens.input"     // #nosec G101 -- Not a credential, token refers to LLM tokens
	AttrLLMTokensOutput    = "llm.tokens.output"    // #nosec G101 -- Not a credential, token refers to LLM tokens
	AttrLLMTokensTotal     = "llm.tokens.total"     // #nosec G101 -- Not a credential, token refers to LLM tokens
	AttrLLMTokensReasoning = "llm.tokens.reasoning" // #nosec G101 -- Not a credential, token refers to LLM tokens
)

// --- Stream Attributes ---

const (
	// AttrStreamID is the canonical stream identifier carried by text events
	AttrStreamID = "stream.id"

	// AttrStreamMode is the SSE framing mode ("line" or "block")
	AttrStreamMode = "stream.mode"

	// AttrStreamFrames is the number of frames read from the transport
	AttrStreamFrames = "stream.frames"

	// AttrStreamFrameEvent is the SSE event tag of a frame, if any
	AttrStreamFrameEvent = "stream.frame.event"

	// AttrStreamFramePreview is a truncated copy of a frame payload
	AttrStreamFramePreview = "stream.frame.preview"

	// AttrToolCallID is the key a tool call was flushed under
	AttrToolCallID = "tool_call.id"

	// AttrToolCallName is the tool name
	AttrToolCallName = "tool_call.name"

	// AttrToolCallIndex is the positional index reported by the vendor
	AttrToolCallIndex = "tool_call.index"

	// AttrToolCallDropReason explains why a tool call was dropped
	AttrToolCallDropReason = "tool_call.drop_reason"
)

// --- Poll Attributes ---

const (
	// AttrPollAttempt is the 1-based attempt number
	AttrPollAttempt = "poll.attempt"

	// AttrPollInterval is the wait before the next attempt
	AttrPollInterval = "poll.interval"

	// AttrPollElapsed is the wall-clock time since the loop started
	AttrPollElapsed = "poll.elapsed"

	// AttrTaskID is the vendor identifier of a long-running task
	AttrTaskID = "task.id"

	// AttrTaskStatus is the vendor status string of a long-running task
	AttrTaskStatus = "task.status"
)

// --- HTTP Attributes ---

const (
	// AttrHTTPMethod is the HTTP method (GET, POST, etc.)
	AttrHTTPMethod = "http.method"

	// AttrHTTPStatusCode is the HTTP response status code
	AttrHTTPStatusCode = "http.status_code"

	// AttrHTTPURL is the full request URL
	AttrHTTPURL = "http.url"

	// AttrHTTPRequestBodySize is the request body size in bytes
	AttrHTTPRequestBodySize = "http.request.body.size"

	// AttrHTTPResponseBodySize is the response body size in bytes
	AttrHTTPResponseBodySize = "http.response.body.size"
)

// --- General Attributes ---

const (
	// AttrError is the error message
	AttrError = "error"

	// AttrDuration is the operation duration
	AttrDuration = "duration"
)

// --- Span Names ---

const (
	// SpanStream covers one normalized stream from first frame to Finish
	SpanStream = "stream.normalize"

	// SpanPoll covers one poll-until-terminal loop
	SpanPoll = "poll.until"
)

// --- Event Names ---

const (
	EventLLMRequestStart   = "llm.request.start"
	EventStreamFrameSkip   = "stream.frame.skipped"
	EventStreamFinish      = "stream.finish"
	EventStreamVendorError = "stream.vendor_error"
	EventToolCallReady     = "tool_call.ready"
	EventToolCallDropped   = "tool_call.dropped"
	EventPollAttempt       = "poll.attempt"
)

// --- Metric Names ---

const (
	// MetricStreamFrames counts frames read across all streams
	MetricStreamFrames = "aistream.stream.frames"

	// MetricStreamFramesSkipped counts malformed frames that were skipped
	MetricStreamFramesSkipped = "aistream.stream.frames.skipped"

	// MetricToolCallsReady counts tool calls flushed with arguments
	MetricToolCallsReady = "aistream.tool_calls.ready"

	// MetricToolCallsDropped counts tool calls dropped at flush
	MetricToolCallsDropped = "aistream.tool_calls.dropped"

	// MetricPollAttempts counts status checks issued by the poller
	MetricPollAttempts = "aistream.poll.attempts"

	// MetricPollDuration records poll loop duration in seconds
	MetricPollDuration = "aistream.poll.duration"
)

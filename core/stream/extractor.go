package stream

import (
	"errors"
	"fmt"

	"github.com/leofalp/aistream/core/sse"
)

// ErrVendor is matched by every *VendorError.
var ErrVendor = errors.New("vendor error")

// ErrStreamConsumed is returned when a Stream is iterated a second time.
var ErrStreamConsumed = errors.New("stream already consumed")

// ToolCallFragment is one piece of a tool call as delivered by a single frame.
// Any field may be empty. A nil Index is treated as index 0.
type ToolCallFragment struct {
	ID        string
	Index     *int
	Name      string
	Arguments string
}

// UsageCounters holds the raw usage counters found in one frame. Nil fields
// were not reported by that frame and keep their previous value.
type UsageCounters struct {
	Input     *int
	Output    *int
	Total     *int
	Reasoning *int
}

// Chunk is the vendor-independent content extracted from one frame.
//
// The emitter applies a chunk in a fixed order: stream id, usage, text, tool
// call fragments, then the finish signal. A chunk carrying Err aborts the
// stream and nothing else in it is applied.
type Chunk struct {
	// StreamID is the vendor message id, if the frame carries one.
	StreamID string
	// Text is a text delta.
	Text string
	// ToolCalls are tool call fragments in frame order.
	ToolCalls []ToolCallFragment
	// FinishReason is the raw vendor finish token.
	FinishReason string
	// Finish marks a finish signal that carries no reason token.
	Finish bool
	// Usage holds the counters found in the frame, if any.
	Usage *UsageCounters
	// Err is set when the frame is an explicit vendor error.
	Err error
}

func (chunk Chunk) finishes() bool {
	return chunk.Finish || chunk.FinishReason != ""
}

// Extractor maps raw frames of one vendor into Chunks. An extractor belongs to
// a single stream and may keep state between frames (for example the block
// type of the content block currently open). Returning an error marks the
// frame as malformed: it is skipped and the stream continues.
type Extractor interface {
	Extract(frame sse.Frame) (Chunk, error)
}

// ExtractorFunc adapts a stateless function to the Extractor interface.
type ExtractorFunc func(frame sse.Frame) (Chunk, error)

// Extract calls fn(frame).
func (fn ExtractorFunc) Extract(frame sse.Frame) (Chunk, error) {
	return fn(frame)
}

// Profile bundles everything Normalize needs to know about one vendor.
type Profile struct {
	// Name identifies the vendor in logs and errors.
	Name string
	// Mode selects the SSE framing convention.
	Mode sse.Mode
	// NewExtractor creates a fresh extractor for each stream.
	NewExtractor func() Extractor
	// MapReason maps raw finish tokens. Defaults to MapFinishReason.
	MapReason func(raw string) FinishReason
	// DeferFinish delays the Finish event until the transport ends, for
	// vendors that send usage after the finish frame.
	DeferFinish bool
}

// VendorError is an explicit error frame received mid-stream.
type VendorError struct {
	Provider string
	Type     string
	Code     string
	Message  string
}

func (e *VendorError) Error() string {
	msg := e.Message
	if msg == "" {
		msg = "unknown error"
	}
	switch {
	case e.Type != "" && e.Code != "":
		return fmt.Sprintf("%s stream error (%s, %s): %s", e.Provider, e.Type, e.Code, msg)
	case e.Type != "":
		return fmt.Sprintf("%s stream error (%s): %s", e.Provider, e.Type, msg)
	case e.Code != "":
		return fmt.Sprintf("%s stream error (%s): %s", e.Provider, e.Code, msg)
	default:
		return fmt.Sprintf("%s stream error: %s", e.Provider, msg)
	}
}

// Unwrap returns ErrVendor.
func (e *VendorError) Unwrap() error {
	return ErrVendor
}

package stream

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sliceStream(events []Event, finalErr error) *Stream {
	return NewStream(func(yield func(Event, error) bool) {
		for _, event := range events {
			if !yield(event, nil) {
				return
			}
		}
		if finalErr != nil {
			yield(Event{}, finalErr)
		}
	})
}

func TestStream_Collect(t *testing.T) {
	s := sliceStream([]Event{
		{Type: EventTextStart, StreamID: "s1"},
		{Type: EventTextDelta, StreamID: "s1", Text: "Hello, "},
		{Type: EventTextDelta, StreamID: "s1", Text: "world"},
		{Type: EventToolCallReady, StreamID: "s1", ToolCall: &ToolCall{ID: "call_1", Name: "f", Arguments: []byte(`{}`)}},
		{Type: EventUsage, StreamID: "s1", Usage: &Usage{InputTokens: 1}},
		{Type: EventTextEnd, StreamID: "s1"},
		{Type: EventFinish, StreamID: "s1", FinishReason: FinishToolCalls, Usage: &Usage{InputTokens: 1, OutputTokens: 2, TotalTokens: 3}},
	}, nil)

	result, err := s.Collect()
	require.NoError(t, err)
	assert.Equal(t, "s1", result.StreamID)
	assert.Equal(t, "Hello, world", result.Text)
	require.Len(t, result.ToolCalls, 1)
	assert.Equal(t, "call_1", result.ToolCalls[0].ID)
	assert.Equal(t, FinishToolCalls, result.FinishReason)
	assert.Equal(t, 3, result.Usage.TotalTokens)
}

func TestStream_CollectReturnsPartialResultOnError(t *testing.T) {
	boom := errors.New("boom")
	s := sliceStream([]Event{
		{Type: EventTextStart, StreamID: "s1"},
		{Type: EventTextDelta, StreamID: "s1", Text: "partial"},
	}, boom)

	result, err := s.Collect()
	require.ErrorIs(t, err, boom)
	require.NotNil(t, result)
	assert.Equal(t, "partial", result.Text)
	assert.Empty(t, result.FinishReason)
}

func TestStream_SingleUse(t *testing.T) {
	s := sliceStream([]Event{{Type: EventFinish}}, nil)

	count := 0
	for _, err := range s.Iter() {
		require.NoError(t, err)
		count++
	}
	assert.Equal(t, 1, count)

	_, err := s.Collect()
	assert.ErrorIs(t, err, ErrStreamConsumed)
}

func TestToolCall_DecodeArguments(t *testing.T) {
	call := ToolCall{ID: "call_1", Arguments: []byte(`{"city":"Paris","days":3}`)}

	var args struct {
		City string `json:"city"`
		Days int    `json:"days"`
	}
	require.NoError(t, call.DecodeArguments(&args))
	assert.Equal(t, "Paris", args.City)
	assert.Equal(t, 3, args.Days)

	empty := ToolCall{ID: "call_2"}
	assert.Error(t, empty.DecodeArguments(&args))
}

func TestVendorError_Message(t *testing.T) {
	tests := []struct {
		err  *VendorError
		want string
	}{
		{&VendorError{Provider: "anthropic", Type: "overloaded_error", Message: "Overloaded"}, "anthropic stream error (overloaded_error): Overloaded"},
		{&VendorError{Provider: "openai", Type: "server_error", Code: "500", Message: "boom"}, "openai stream error (server_error, 500): boom"},
		{&VendorError{Provider: "gemini", Code: "429"}, "gemini stream error (429): unknown error"},
		{&VendorError{Provider: "x"}, "x stream error: unknown error"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, tt.err.Error())
		assert.ErrorIs(t, tt.err, ErrVendor)
	}
}

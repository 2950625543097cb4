package stream

import (
	"bytes"
	"context"
	"errors"
	"io"
	"log/slog"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tidwall/gjson"

	"github.com/leofalp/aistream/core/sse"
	"github.com/leofalp/aistream/providers/observability"
	"github.com/leofalp/aistream/providers/observability/slogobs"
)

// testExtractor reads a small OpenAI-like dialect used throughout these tests.
func testExtractor(frame sse.Frame) (Chunk, error) {
	if !gjson.Valid(frame.Data) {
		return Chunk{}, errors.New("invalid JSON")
	}
	data := gjson.Parse(frame.Data)

	if errorResult := data.Get("error"); errorResult.Exists() {
		return Chunk{Err: &VendorError{
			Provider: "test",
			Type:     errorResult.Get("type").String(),
			Message:  errorResult.Get("message").String(),
		}}, nil
	}

	chunk := Chunk{
		StreamID:     data.Get("id").String(),
		Text:         data.Get("delta.content").String(),
		FinishReason: data.Get("finish_reason").String(),
	}
	for _, call := range data.Get("tool_calls").Array() {
		fragment := ToolCallFragment{
			ID:        call.Get("id").String(),
			Name:      call.Get("name").String(),
			Arguments: call.Get("arguments").String(),
		}
		if index := call.Get("index"); index.Exists() {
			fragment.Index = intPtr(int(index.Int()))
		}
		chunk.ToolCalls = append(chunk.ToolCalls, fragment)
	}
	if usage := data.Get("usage"); usage.Exists() {
		chunk.Usage = &UsageCounters{}
		if v := usage.Get("in"); v.Exists() {
			chunk.Usage.Input = intPtr(int(v.Int()))
		}
		if v := usage.Get("out"); v.Exists() {
			chunk.Usage.Output = intPtr(int(v.Int()))
		}
	}
	return chunk, nil
}

func testProfile(deferFinish bool) Profile {
	return Profile{
		Name:         "test",
		Mode:         sse.ModeLine,
		NewExtractor: func() Extractor { return ExtractorFunc(testExtractor) },
		DeferFinish:  deferFinish,
	}
}

func body(s string) io.ReadCloser {
	return io.NopCloser(strings.NewReader(s))
}

func collectEvents(t *testing.T, s *Stream) ([]Event, error) {
	t.Helper()
	var events []Event
	for event, err := range s.Iter() {
		if err != nil {
			return events, err
		}
		events = append(events, event)
	}
	return events, nil
}

func TestNormalize_TextExample(t *testing.T) {
	transcript := "data:{\"delta\":{\"content\":\"Hel\"}}\n" +
		"data:{\"delta\":{\"content\":\"lo\"}}\n" +
		"data:{\"finish_reason\":\"stop\"}\n" +
		"data:[DONE]\n"

	events, err := collectEvents(t, Normalize(context.Background(), body(transcript), testProfile(false)))
	require.NoError(t, err)

	assert.Equal(t, []EventType{EventTextStart, EventTextDelta, EventTextDelta, EventTextEnd, EventFinish}, eventTypes(events))
	assert.Equal(t, "Hel", events[1].Text)
	assert.Equal(t, "lo", events[2].Text)
	assert.Equal(t, FinishStop, events[4].FinishReason)
}

func TestNormalize_ToolCallStream(t *testing.T) {
	transcript := strings.Join([]string{
		`data: {"id":"chatcmpl-7","tool_calls":[{"index":0,"arguments":"{\"location\":"}]}`,
		`data: {"tool_calls":[{"index":0,"id":"call_abc","name":"get_weather"}]}`,
		`data: {"tool_calls":[{"index":0,"arguments":" \"Paris\"}"}]}`,
		`data: {"tool_calls":[{"index":1,"id":"call_def","name":"noop"}]}`,
		`data: {"finish_reason":"tool_calls","usage":{"in":9,"out":4}}`,
		`data: [DONE]`,
	}, "\n")

	result, err := Normalize(context.Background(), body(transcript), testProfile(false)).Collect()
	require.NoError(t, err)

	assert.Equal(t, "chatcmpl-7", result.StreamID)
	assert.Equal(t, FinishToolCalls, result.FinishReason)
	require.Len(t, result.ToolCalls, 1)
	assert.Equal(t, "call_abc", result.ToolCalls[0].ID)
	assert.Equal(t, "get_weather", result.ToolCalls[0].Name)
	assert.JSONEq(t, `{"location": "Paris"}`, string(result.ToolCalls[0].Arguments))
	require.Len(t, result.Dropped, 1)
	assert.Equal(t, "call_def", result.Dropped[0].ID)
	assert.Equal(t, DropEmptyArguments, result.Dropped[0].DropReason)
	assert.Equal(t, Usage{InputTokens: 9, OutputTokens: 4, TotalTokens: 13}, result.Usage)
}

func TestNormalize_EarlyCloseFinishesWithStop(t *testing.T) {
	transcript := "data: {\"delta\":{\"content\":\"cut\"}}\n" +
		"data: {\"tool_calls\":[{\"index\":0,\"id\":\"call_1\",\"name\":\"f\",\"arguments\":\"{}\"}]}\n"

	events, err := collectEvents(t, Normalize(context.Background(), body(transcript), testProfile(false)))
	require.NoError(t, err)

	assert.Equal(t, []EventType{
		EventTextStart, EventTextDelta, EventToolCallStart, EventToolCallDelta,
		EventToolCallReady, EventTextEnd, EventFinish,
	}, eventTypes(events))
	assert.Equal(t, FinishStop, events[len(events)-1].FinishReason)
}

func TestNormalize_MalformedFramesAreSkipped(t *testing.T) {
	observer := slogobs.New(slogobs.WithOutput(io.Discard))
	transcript := "data: {not json\n" +
		"data: {\"delta\":{\"content\":\"ok\"}}\n" +
		"data: {\"finish_reason\":\"stop\"}\n"

	result, err := Normalize(context.Background(), body(transcript), testProfile(false), WithObserver(observer)).Collect()
	require.NoError(t, err)
	assert.Equal(t, "ok", result.Text)
	assert.Equal(t, int64(1), observer.CounterValue(observability.MetricStreamFramesSkipped))
}

func TestNormalize_VendorErrorAborts(t *testing.T) {
	transcript := "data: {\"delta\":{\"content\":\"par\"}}\n" +
		"data: {\"error\":{\"type\":\"overloaded_error\",\"message\":\"Overloaded\"}}\n" +
		"data: {\"delta\":{\"content\":\"never\"}}\n" +
		"data: {\"finish_reason\":\"stop\"}\n"

	events, err := collectEvents(t, Normalize(context.Background(), body(transcript), testProfile(false)))
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrVendor))

	var vendorErr *VendorError
	require.ErrorAs(t, err, &vendorErr)
	assert.Equal(t, "overloaded_error", vendorErr.Type)
	assert.Equal(t, "Overloaded", vendorErr.Message)

	assert.Equal(t, []EventType{EventTextStart, EventTextDelta}, eventTypes(events))
}

func TestNormalize_DeferredFinishPicksUpTrailingUsage(t *testing.T) {
	transcript := strings.Join([]string{
		`data: {"delta":{"content":"Hi"}}`,
		`data: {"finish_reason":"length"}`,
		`data: {"usage":{"in":5,"out":2}}`,
		`data: [DONE]`,
	}, "\n")

	events, err := collectEvents(t, Normalize(context.Background(), body(transcript), testProfile(true)))
	require.NoError(t, err)

	assert.Equal(t, []EventType{EventTextStart, EventTextDelta, EventTextEnd, EventUsage, EventFinish}, eventTypes(events))
	finish := events[len(events)-1]
	assert.Equal(t, FinishLength, finish.FinishReason)
	assert.Equal(t, 7, finish.Usage.TotalTokens)
}

func TestNormalize_StopsReadingAfterFinish(t *testing.T) {
	transcript := "data: {\"finish_reason\":\"stop\"}\n" +
		"data: {\"delta\":{\"content\":\"after\"}}\n"

	events, err := collectEvents(t, Normalize(context.Background(), body(transcript), testProfile(false)))
	require.NoError(t, err)
	assert.Equal(t, []EventType{EventFinish}, eventTypes(events))
}

func TestNormalize_Determinism(t *testing.T) {
	transcript := strings.Join([]string{
		`data: {"id":"msg_1","delta":{"content":"a"}}`,
		`data: {"tool_calls":[{"index":1,"arguments":"x"}]}`,
		`data: {"tool_calls":[{"index":0,"id":"c0","name":"n0","arguments":"{\"k\":1}"}]}`,
		`data: {"delta":{"content":"b"},"usage":{"in":1}}`,
		`data: {"finish_reason":"stop"}`,
	}, "\n")

	first, err := collectEvents(t, Normalize(context.Background(), body(transcript), testProfile(false)))
	require.NoError(t, err)
	second, err := collectEvents(t, Normalize(context.Background(), body(transcript), testProfile(false)))
	require.NoError(t, err)
	assert.Equal(t, first, second)
}

func TestNormalize_StreamIDOption(t *testing.T) {
	transcript := "data: {\"id\":\"vendor\",\"delta\":{\"content\":\"x\"}}\n"

	events, err := collectEvents(t, Normalize(context.Background(), body(transcript), testProfile(false), WithStreamID("mine")))
	require.NoError(t, err)
	for _, event := range events {
		assert.Equal(t, "mine", event.StreamID)
	}
}

func TestNormalize_DropObservability(t *testing.T) {
	var logs bytes.Buffer
	observer := slogobs.New(slogobs.WithOutput(&logs), slogobs.WithFormat(slogobs.FormatJSON), slogobs.WithLevel(slog.LevelInfo))
	var dropped []Event

	transcript := "data: {\"tool_calls\":[{\"index\":0,\"id\":\"call_1\",\"name\":\"f\",\"arguments\":\"{bad\"},{\"index\":1}]}\n" +
		"data: {\"tool_calls\":[{\"index\":0,\"arguments\":\"}\"}]}\n" +
		"data: {\"finish_reason\":\"tool_calls\"}\n"

	ctx := observability.ContextWithObserver(context.Background(), observer)
	result, err := Normalize(ctx, body(transcript), testProfile(false),
		WithDropHandler(func(event Event) { dropped = append(dropped, event) }),
	).Collect()
	require.NoError(t, err)

	require.Len(t, result.Dropped, 2)
	require.Len(t, dropped, 2)
	assert.Equal(t, DropInvalidArguments, dropped[0].ToolCall.DropReason)
	assert.Equal(t, "{bad}", dropped[0].ToolCall.RawArguments)
	assert.Equal(t, DropEmptyArguments, dropped[1].ToolCall.DropReason)
	assert.Equal(t, int64(2), observer.CounterValue(observability.MetricToolCallsDropped))
	assert.Contains(t, logs.String(), "Tool call dropped")
}

func TestNormalize_ArgumentRepairOption(t *testing.T) {
	transcript := "data: {\"tool_calls\":[{\"index\":0,\"id\":\"call_1\",\"name\":\"f\",\"arguments\":\"{'city': 'Paris'}\"}]}\n" +
		"data: {\"finish_reason\":\"tool_calls\"}\n"

	result, err := Normalize(context.Background(), body(transcript), testProfile(false), WithArgumentRepair()).Collect()
	require.NoError(t, err)
	require.Len(t, result.ToolCalls, 1)
	assert.JSONEq(t, `{"city":"Paris"}`, string(result.ToolCalls[0].Arguments))
}

func TestNormalize_ReadErrorSurfaces(t *testing.T) {
	transcript := "data: " + strings.Repeat("x", 2*1024*1024) + "\n"

	_, err := collectEvents(t, Normalize(context.Background(), body(transcript), testProfile(false)))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to read test stream")
}

// closeTracker records Close calls on a reader.
type closeTracker struct {
	io.Reader
	closed atomic.Int32
}

func (c *closeTracker) Close() error {
	c.closed.Add(1)
	return nil
}

func TestNormalize_ClosesBodyOnEarlyBreak(t *testing.T) {
	tracker := &closeTracker{Reader: strings.NewReader("data: {\"delta\":{\"content\":\"a\"}}\ndata: {\"delta\":{\"content\":\"b\"}}\n")}

	for event, err := range Normalize(context.Background(), tracker, testProfile(false)).Iter() {
		require.NoError(t, err)
		if event.Type == EventTextDelta {
			break
		}
	}
	assert.Equal(t, int32(1), tracker.closed.Load())
}

// blockingBody blocks reads until it is closed.
type blockingBody struct {
	closed chan struct{}
	once   atomic.Bool
}

func (b *blockingBody) Read(p []byte) (int, error) {
	<-b.closed
	return 0, errors.New("read on closed body")
}

func (b *blockingBody) Close() error {
	if b.once.CompareAndSwap(false, true) {
		close(b.closed)
	}
	return nil
}

func TestNormalize_CancellationUnblocksRead(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	blocking := &blockingBody{closed: make(chan struct{})}

	done := make(chan error, 1)
	go func() {
		_, err := collectEvents(t, Normalize(ctx, blocking, testProfile(false)))
		done <- err
	}()

	time.Sleep(20 * time.Millisecond)
	cancel()

	select {
	case err := <-done:
		assert.ErrorIs(t, err, context.Canceled)
	case <-time.After(2 * time.Second):
		t.Fatal("stream did not unblock after cancellation")
	}
}

func TestNormalize_CancelledBeforeIterationYieldsNoFinish(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	transcript := "data: {\"tool_calls\":[{\"index\":0,\"id\":\"call_1\",\"name\":\"f\",\"arguments\":\"{}\"}]}\n"
	events, err := collectEvents(t, Normalize(ctx, body(transcript), testProfile(false)))
	assert.ErrorIs(t, err, context.Canceled)
	assert.Empty(t, events)
}

func TestNormalize_ProfileWithoutExtractor(t *testing.T) {
	_, err := collectEvents(t, Normalize(context.Background(), body(""), Profile{Name: "broken"}))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "no extractor")
}

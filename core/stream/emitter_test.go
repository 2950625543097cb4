package stream

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEmitter_TextLifecycle(t *testing.T) {
	emitter := NewEmitter(EmitterConfig{StreamID: "msg_1"})

	var events []Event
	events = append(events, emitter.Text("Hel")...)
	assert.Equal(t, StateTextOpen, emitter.State())
	events = append(events, emitter.Text("")...)
	events = append(events, emitter.Text("lo")...)
	events = append(events, emitter.Finish("stop")...)

	assert.Equal(t, []EventType{EventTextStart, EventTextDelta, EventTextDelta, EventTextEnd, EventFinish}, eventTypes(events))
	assert.Equal(t, FinishStop, events[4].FinishReason)
	for _, event := range events {
		assert.Equal(t, "msg_1", event.StreamID)
	}
	assert.Equal(t, StateFinished, emitter.State())
}

func TestEmitter_NothingAfterFinish(t *testing.T) {
	emitter := NewEmitter(EmitterConfig{})
	emitter.Text("hi")
	emitter.Finish("length")

	assert.Empty(t, emitter.Text("more"))
	assert.Empty(t, emitter.ToolCall(ToolCallFragment{Name: "late"}))
	assert.Empty(t, emitter.Usage(UsageCounters{Input: intPtr(1)}))
	assert.Empty(t, emitter.Finish("stop"))
	assert.Empty(t, emitter.Close())
}

func TestEmitter_FinishFlushesToolCallsBeforeTextEnd(t *testing.T) {
	emitter := NewEmitter(EmitterConfig{})

	var events []Event
	events = append(events, emitter.Text("Let me check.")...)
	events = append(events, emitter.ToolCall(ToolCallFragment{ID: "call_1", Index: intPtr(0), Name: "weather"})...)
	assert.Equal(t, StateToolsPending, emitter.State())
	events = append(events, emitter.ToolCall(ToolCallFragment{Index: intPtr(0), Arguments: `{"city":"Oslo"}`})...)
	events = append(events, emitter.Finish("tool_calls")...)

	assert.Equal(t, []EventType{
		EventTextStart, EventTextDelta,
		EventToolCallStart, EventToolCallDelta,
		EventToolCallReady, EventTextEnd, EventFinish,
	}, eventTypes(events))
	assert.Equal(t, FinishToolCalls, events[len(events)-1].FinishReason)
}

func TestEmitter_CloseWithoutFinishSignal(t *testing.T) {
	emitter := NewEmitter(EmitterConfig{})
	emitter.Text("partial")
	emitter.ToolCall(ToolCallFragment{Index: intPtr(0), Name: "noop"})

	events := emitter.Close()
	assert.Equal(t, []EventType{EventToolCallDropped, EventTextEnd, EventFinish}, eventTypes(events))
	assert.Equal(t, DropEmptyArguments, events[0].ToolCall.DropReason)
	assert.Equal(t, FinishStop, events[2].FinishReason)
	assert.Empty(t, emitter.Close())
}

func TestEmitter_CloseEmptyStream(t *testing.T) {
	emitter := NewEmitter(EmitterConfig{})

	events := emitter.Close()
	require.Len(t, events, 1)
	assert.Equal(t, EventFinish, events[0].Type)
	assert.Equal(t, FinishStop, events[0].FinishReason)
	require.NotNil(t, events[0].Usage)
	assert.Equal(t, Usage{}, *events[0].Usage)
	assert.NotEmpty(t, events[0].StreamID)
}

func TestEmitter_UsageMergesPartialSnapshots(t *testing.T) {
	emitter := NewEmitter(EmitterConfig{})

	first := emitter.Usage(UsageCounters{Input: intPtr(12)})
	require.Len(t, first, 1)
	assert.Equal(t, Usage{InputTokens: 12, TotalTokens: 12}, *first[0].Usage)

	assert.Empty(t, emitter.Usage(UsageCounters{Input: intPtr(12)}), "unchanged counters emit nothing")
	assert.Empty(t, emitter.Usage(UsageCounters{}), "empty report emits nothing")

	second := emitter.Usage(UsageCounters{Output: intPtr(30), Reasoning: intPtr(8)})
	require.Len(t, second, 1)
	assert.Equal(t, 12, second[0].Usage.InputTokens)
	assert.Equal(t, 30, second[0].Usage.OutputTokens)
	assert.Equal(t, 42, second[0].Usage.TotalTokens)
	require.NotNil(t, second[0].Usage.ReasoningTokens)
	assert.Equal(t, 8, *second[0].Usage.ReasoningTokens)

	finish := emitter.Finish("stop")
	require.Len(t, finish, 1)
	assert.Equal(t, 42, finish[0].Usage.TotalTokens)
	assert.Equal(t, 8, *finish[0].Usage.ReasoningTokens)
}

func TestEmitter_ReportedTotalWins(t *testing.T) {
	emitter := NewEmitter(EmitterConfig{})
	emitter.Usage(UsageCounters{Input: intPtr(10), Output: intPtr(5), Total: intPtr(20)})
	emitter.Usage(UsageCounters{Output: intPtr(6)})

	events := emitter.Close()
	require.Len(t, events, 1)
	assert.Equal(t, 20, events[0].Usage.TotalTokens)
	assert.Equal(t, 6, events[0].Usage.OutputTokens)
}

func TestEmitter_UsageSnapshotsDoNotAlias(t *testing.T) {
	emitter := NewEmitter(EmitterConfig{})
	first := emitter.Usage(UsageCounters{Reasoning: intPtr(1)})
	emitter.Usage(UsageCounters{Reasoning: intPtr(2)})

	assert.Equal(t, 1, *first[0].Usage.ReasoningTokens)
}

func TestEmitter_DeferredFinish(t *testing.T) {
	emitter := NewEmitter(EmitterConfig{DeferFinish: true})

	var events []Event
	events = append(events, emitter.Text("ok")...)
	events = append(events, emitter.Finish("length")...)
	assert.Equal(t, StateDraining, emitter.State())
	assert.Empty(t, emitter.Text("ignored"))
	events = append(events, emitter.Usage(UsageCounters{Input: intPtr(3), Output: intPtr(4)})...)
	events = append(events, emitter.Close()...)

	assert.Equal(t, []EventType{EventTextStart, EventTextDelta, EventTextEnd, EventUsage, EventFinish}, eventTypes(events))
	last := events[len(events)-1]
	assert.Equal(t, FinishLength, last.FinishReason)
	assert.Equal(t, 7, last.Usage.TotalTokens)
	assert.Equal(t, StateFinished, emitter.State())
}

func TestEmitter_StreamIDResolution(t *testing.T) {
	t.Run("vendor id before first event", func(t *testing.T) {
		emitter := NewEmitter(EmitterConfig{})
		emitter.SetStreamID("chatcmpl-1")
		emitter.SetStreamID("chatcmpl-2")
		events := emitter.Text("x")
		assert.Equal(t, "chatcmpl-1", events[0].StreamID)
	})

	t.Run("configured id wins", func(t *testing.T) {
		emitter := NewEmitter(EmitterConfig{StreamID: "fixed"})
		emitter.SetStreamID("vendor")
		assert.Equal(t, "fixed", emitter.Text("x")[0].StreamID)
	})

	t.Run("generated id is stable", func(t *testing.T) {
		emitter := NewEmitter(EmitterConfig{})
		first := emitter.Text("a")
		emitter.SetStreamID("too-late")
		finish := emitter.Finish("")
		assert.NotEmpty(t, first[0].StreamID)
		assert.Equal(t, first[0].StreamID, finish[len(finish)-1].StreamID)
	})
}

func TestEmitter_AbortSuppressesEverything(t *testing.T) {
	emitter := NewEmitter(EmitterConfig{})
	emitter.Text("hi")
	emitter.ToolCall(ToolCallFragment{ID: "call_1", Name: "x", Arguments: `{}`})

	emitter.Abort()
	assert.Equal(t, StateFinished, emitter.State())
	assert.Empty(t, emitter.Close())
}

func TestEmitter_ApplyOrder(t *testing.T) {
	emitter := NewEmitter(EmitterConfig{})

	events := emitter.Apply(Chunk{
		StreamID:     "msg_9",
		Usage:        &UsageCounters{Input: intPtr(1), Output: intPtr(2)},
		Text:         "done",
		ToolCalls:    []ToolCallFragment{{ID: "call_1", Index: intPtr(0), Name: "t", Arguments: `{"a":1}`}},
		FinishReason: "end_turn",
	})

	assert.Equal(t, []EventType{
		EventUsage, EventTextStart, EventTextDelta,
		EventToolCallStart, EventToolCallDelta, EventToolCallReady,
		EventTextEnd, EventFinish,
	}, eventTypes(events))
	assert.Equal(t, "msg_9", events[0].StreamID)
	assert.Equal(t, FinishStop, events[len(events)-1].FinishReason)
	assert.Equal(t, 3, events[len(events)-1].Usage.TotalTokens)
}

func TestEmitter_ApplyFinishWithoutReason(t *testing.T) {
	emitter := NewEmitter(EmitterConfig{})
	events := emitter.Apply(Chunk{Finish: true})
	require.Len(t, events, 1)
	assert.Equal(t, FinishStop, events[0].FinishReason)
}

func TestEmitter_CustomReasonMap(t *testing.T) {
	emitter := NewEmitter(EmitterConfig{MapReason: ReasonMap(map[string]FinishReason{"guardrail": FinishContentFilter})})
	events := emitter.Finish("GUARDRAIL")
	require.Len(t, events, 1)
	assert.Equal(t, FinishContentFilter, events[0].FinishReason)
}

func TestEmitter_TextDeltasConcatenate(t *testing.T) {
	emitter := NewEmitter(EmitterConfig{})
	parts := []string{"The ", "quick ", "brown ", "fox"}

	var events []Event
	for _, part := range parts {
		events = append(events, emitter.Text(part)...)
	}
	events = append(events, emitter.Finish("stop")...)

	var text strings.Builder
	starts, ends, finishes := 0, 0, 0
	for _, event := range events {
		switch event.Type {
		case EventTextStart:
			starts++
		case EventTextDelta:
			text.WriteString(event.Text)
		case EventTextEnd:
			ends++
		case EventFinish:
			finishes++
		}
	}
	assert.Equal(t, "The quick brown fox", text.String())
	assert.Equal(t, 1, starts)
	assert.Equal(t, 1, ends)
	assert.Equal(t, 1, finishes)
	assert.Equal(t, EventFinish, events[len(events)-1].Type)
}

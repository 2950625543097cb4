package stream

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func intPtr(v int) *int { return &v }

func eventTypes(events []Event) []EventType {
	types := make([]EventType, 0, len(events))
	for _, event := range events {
		types = append(types, event.Type)
	}
	return types
}

func TestAccumulator_ReassemblesFragmentsInArrivalOrder(t *testing.T) {
	accumulator := NewAccumulator()

	accumulator.Add(ToolCallFragment{ID: "call_abc", Index: intPtr(0), Name: "get_weather"})
	accumulator.Add(ToolCallFragment{Index: intPtr(0), Arguments: `{"city":`})
	accumulator.Add(ToolCallFragment{Index: intPtr(0), Arguments: ` "Paris"`})
	accumulator.Add(ToolCallFragment{Index: intPtr(0), Arguments: `}`})

	events := accumulator.Flush()
	require.Len(t, events, 1)
	assert.Equal(t, EventToolCallReady, events[0].Type)
	assert.Equal(t, "call_abc", events[0].ToolCall.ID)
	assert.Equal(t, "get_weather", events[0].ToolCall.Name)
	assert.JSONEq(t, `{"city": "Paris"}`, string(events[0].ToolCall.Arguments))
}

func TestAccumulator_AliasStability(t *testing.T) {
	accumulator := NewAccumulator()

	// Fragment 1 carries only the index; fragment 2 brings the explicit id.
	first := accumulator.Add(ToolCallFragment{Index: intPtr(0), Arguments: `{"q":`})
	second := accumulator.Add(ToolCallFragment{ID: "call_abc", Index: intPtr(0), Name: "search", Arguments: `"go"`})
	third := accumulator.Add(ToolCallFragment{Index: intPtr(0), Arguments: `}`})

	require.Len(t, first, 1)
	assert.Equal(t, "call_0", first[0].ToolCall.ID)
	assert.Equal(t, 0, first[0].ToolCall.Index)

	require.Len(t, second, 2)
	assert.Equal(t, EventToolCallStart, second[0].Type)
	assert.Equal(t, "call_abc", second[0].ToolCall.ID)
	assert.Equal(t, "call_abc", third[0].ToolCall.ID)

	events := accumulator.Flush()
	require.Len(t, events, 1)
	assert.Equal(t, "call_abc", events[0].ToolCall.ID)
	assert.Equal(t, "search", events[0].ToolCall.Name)
	assert.JSONEq(t, `{"q":"go"}`, string(events[0].ToolCall.Arguments))
}

func TestAccumulator_IDOnLaterFragmentAnyInterleaving(t *testing.T) {
	fragments := [][]ToolCallFragment{
		{
			{Index: intPtr(0), Name: "sum"},
			{Index: intPtr(0), Arguments: `{"a":1,`},
			{ID: "call_x", Index: intPtr(0), Arguments: `"b":2}`},
		},
		{
			{Index: intPtr(0), Arguments: `{"a":1,`},
			{ID: "call_x", Index: intPtr(0)},
			{Index: intPtr(0), Name: "sum", Arguments: `"b":2}`},
		},
		{
			{ID: "call_x", Index: intPtr(0), Arguments: `{"a":1,`},
			{Index: intPtr(0), Arguments: `"b":2}`},
			{Index: intPtr(0), Name: "sum"},
		},
	}

	for i, sequence := range fragments {
		accumulator := NewAccumulator()
		for _, fragment := range sequence {
			accumulator.Add(fragment)
		}
		events := accumulator.Flush()
		require.Len(t, events, 1, "sequence %d", i)
		assert.Equal(t, EventToolCallReady, events[0].Type, "sequence %d", i)
		assert.Equal(t, "call_x", events[0].ToolCall.ID, "sequence %d", i)
		assert.Equal(t, "sum", events[0].ToolCall.Name, "sequence %d", i)
		assert.JSONEq(t, `{"a":1,"b":2}`, string(events[0].ToolCall.Arguments), "sequence %d", i)
	}
}

func TestAccumulator_StartEmittedOnceAndLastNameWins(t *testing.T) {
	accumulator := NewAccumulator()

	first := accumulator.Add(ToolCallFragment{ID: "call_1", Index: intPtr(0), Name: "draft"})
	second := accumulator.Add(ToolCallFragment{ID: "call_1", Index: intPtr(0), Name: "final", Arguments: `{}`})

	assert.Equal(t, []EventType{EventToolCallStart}, eventTypes(first))
	assert.Equal(t, []EventType{EventToolCallDelta}, eventTypes(second))

	events := accumulator.Flush()
	require.Len(t, events, 1)
	assert.Equal(t, "final", events[0].ToolCall.Name)
}

func TestAccumulator_FlushOrdersByIndex(t *testing.T) {
	accumulator := NewAccumulator()

	accumulator.Add(ToolCallFragment{ID: "call_b", Index: intPtr(1), Name: "second", Arguments: `{}`})
	accumulator.Add(ToolCallFragment{ID: "call_a", Index: intPtr(0), Name: "first", Arguments: `{}`})
	accumulator.Add(ToolCallFragment{ID: "call_c", Index: intPtr(2), Name: "third", Arguments: `{}`})

	events := accumulator.Flush()
	require.Len(t, events, 3)
	assert.Equal(t, "call_a", events[0].ToolCall.ID)
	assert.Equal(t, "call_b", events[1].ToolCall.ID)
	assert.Equal(t, "call_c", events[2].ToolCall.ID)
}

func TestAccumulator_SecondIDOnSameIndexStartsNewCall(t *testing.T) {
	accumulator := NewAccumulator()

	accumulator.Add(ToolCallFragment{ID: "call_1", Index: intPtr(0), Name: "a", Arguments: `{"n":1}`})
	accumulator.Add(ToolCallFragment{ID: "call_2", Index: intPtr(0), Name: "b"})
	accumulator.Add(ToolCallFragment{Index: intPtr(0), Arguments: `{"n":2}`})

	events := accumulator.Flush()
	require.Len(t, events, 2)
	assert.Equal(t, "call_1", events[0].ToolCall.ID)
	assert.JSONEq(t, `{"n":1}`, string(events[0].ToolCall.Arguments))
	assert.Equal(t, "call_2", events[1].ToolCall.ID)
	assert.JSONEq(t, `{"n":2}`, string(events[1].ToolCall.Arguments))
}

func TestAccumulator_SyntheticKeyMatchingVendorIDStaysSeparate(t *testing.T) {
	accumulator := NewAccumulator()

	// Index 1 has no id yet; its synthetic key equals index 0's vendor id.
	accumulator.Add(ToolCallFragment{ID: "call_1", Index: intPtr(0), Name: "a", Arguments: `{"x":1}`})
	accumulator.Add(ToolCallFragment{Index: intPtr(1), Name: "b", Arguments: `{"y":2}`})
	accumulator.Add(ToolCallFragment{Index: intPtr(0), Arguments: ` `})

	events := accumulator.Flush()
	require.Len(t, events, 2)
	for _, event := range events {
		assert.Equal(t, EventToolCallReady, event.Type)
	}
	assert.Equal(t, 0, events[0].ToolCall.Index)
	assert.Equal(t, "a", events[0].ToolCall.Name)
	assert.JSONEq(t, `{"x":1}`, string(events[0].ToolCall.Arguments))
	assert.Equal(t, 1, events[1].ToolCall.Index)
	assert.Equal(t, "b", events[1].ToolCall.Name)
	assert.JSONEq(t, `{"y":2}`, string(events[1].ToolCall.Arguments))
}

func TestAccumulator_MissingIndexDefaultsToZero(t *testing.T) {
	accumulator := NewAccumulator()

	accumulator.Add(ToolCallFragment{Name: "lookup", Arguments: `{"id":`})
	accumulator.Add(ToolCallFragment{Index: intPtr(0), Arguments: `7}`})

	events := accumulator.Flush()
	require.Len(t, events, 1)
	assert.Equal(t, "call_0", events[0].ToolCall.ID)
	assert.JSONEq(t, `{"id":7}`, string(events[0].ToolCall.Arguments))
}

func TestAccumulator_FlushDropsAndWraps(t *testing.T) {
	tests := []struct {
		name       string
		arguments  string
		wantType   EventType
		wantReason DropReason
		wantArgs   string
	}{
		{name: "empty buffer", arguments: "", wantType: EventToolCallDropped, wantReason: DropEmptyArguments},
		{name: "whitespace buffer", arguments: "  \n\t", wantType: EventToolCallDropped, wantReason: DropEmptyArguments},
		{name: "invalid object", arguments: `{"city": }`, wantType: EventToolCallDropped, wantReason: DropInvalidArguments},
		{name: "array", arguments: ` [1, 2] `, wantType: EventToolCallReady, wantArgs: `[1,2]`},
		{name: "plain text is wrapped", arguments: `Paris`, wantType: EventToolCallReady, wantArgs: `{"value":"Paris"}`},
		{name: "truncated object is wrapped", arguments: `{"city": "Par`, wantType: EventToolCallReady, wantArgs: `{"value":"{\"city\": \"Par"}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			accumulator := NewAccumulator()
			accumulator.Add(ToolCallFragment{ID: "call_1", Index: intPtr(0), Name: "tool"})
			if tt.arguments != "" {
				accumulator.Add(ToolCallFragment{Index: intPtr(0), Arguments: tt.arguments})
			}

			events := accumulator.Flush()
			require.Len(t, events, 1)
			assert.Equal(t, tt.wantType, events[0].Type)
			assert.Equal(t, tt.wantReason, events[0].ToolCall.DropReason)
			if tt.wantType == EventToolCallDropped {
				assert.Equal(t, tt.arguments, events[0].ToolCall.RawArguments)
				assert.Empty(t, events[0].ToolCall.Arguments)
				return
			}
			assert.JSONEq(t, tt.wantArgs, string(events[0].ToolCall.Arguments))
		})
	}
}

func TestAccumulator_RepairArguments(t *testing.T) {
	accumulator := NewAccumulator(RepairArguments())
	accumulator.Add(ToolCallFragment{ID: "call_1", Index: intPtr(0), Name: "tool", Arguments: `{"city": "Paris",}`})
	accumulator.Add(ToolCallFragment{ID: "call_2", Index: intPtr(1), Name: "tool", Arguments: `{"city": "Rome"`})

	events := accumulator.Flush()
	require.Len(t, events, 2)
	for _, event := range events {
		require.Equal(t, EventToolCallReady, event.Type, "call %s", event.ToolCall.ID)
		var decoded map[string]string
		require.NoError(t, json.Unmarshal(event.ToolCall.Arguments, &decoded))
		assert.NotEmpty(t, decoded["city"])
	}
}

func TestAccumulator_FlushResetsState(t *testing.T) {
	accumulator := NewAccumulator()
	accumulator.Add(ToolCallFragment{ID: "call_1", Index: intPtr(0), Name: "tool", Arguments: `{}`})

	require.Len(t, accumulator.Flush(), 1)
	assert.Zero(t, accumulator.Pending())
	assert.Empty(t, accumulator.Flush())

	// The alias of index 0 was removed, so a later id-less fragment starts a
	// fresh call instead of reusing call_1.
	accumulator.Add(ToolCallFragment{Index: intPtr(0), Arguments: `{"x":1}`})
	events := accumulator.Flush()
	require.Len(t, events, 1)
	assert.Equal(t, "call_0", events[0].ToolCall.ID)
}

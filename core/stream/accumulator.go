package stream

import (
	"encoding/json"
	"slices"
	"strconv"
	"strings"

	"github.com/leofalp/aistream/internal/utils"
)

// toolCallBuffer holds one tool call while its fragments arrive. key is the
// id reported on events: the vendor id once seen, else the synthetic key.
type toolCallBuffer struct {
	key       string
	explicit  bool
	name      string
	arguments strings.Builder
	index     int
	arrival   int
	started   bool
}

// Accumulator reconstructs tool calls delivered as fragments across frames.
// It belongs to a single stream and is not safe for concurrent use.
// Buffers are owned by arrival handle, so a synthetic key that happens to
// equal a vendor id never lands in another call's buffer.
type Accumulator struct {
	buffers  map[int]*toolCallBuffer
	byID     map[string]int
	aliases  map[int]int
	arrivals int
	repair   bool
}

// AccumulatorOption configures an Accumulator.
type AccumulatorOption func(*Accumulator)

// RepairArguments makes Flush run JSON-looking argument text that fails to
// parse through jsonrepair before dropping the call.
func RepairArguments() AccumulatorOption {
	return func(accumulator *Accumulator) {
		accumulator.repair = true
	}
}

// NewAccumulator creates an empty Accumulator.
func NewAccumulator(opts ...AccumulatorOption) *Accumulator {
	accumulator := &Accumulator{
		buffers: make(map[int]*toolCallBuffer),
		byID:    make(map[string]int),
		aliases: make(map[int]int),
	}
	for _, opt := range opts {
		opt(accumulator)
	}
	return accumulator
}

// syntheticKey is the key of a call whose explicit id has not been seen yet.
func syntheticKey(index int) string {
	return "call_" + strconv.Itoa(index)
}

// Pending reports how many tool calls are buffered.
func (accumulator *Accumulator) Pending() int {
	return len(accumulator.buffers)
}

// Add merges one fragment and returns the events it produces: a
// tool_call_start the first time a call gets a name, and a tool_call_delta
// for every non-empty argument fragment.
func (accumulator *Accumulator) Add(fragment ToolCallFragment) []Event {
	index := 0
	if fragment.Index != nil {
		index = *fragment.Index
	}

	buffer := accumulator.resolve(fragment.ID, index)

	var events []Event
	if fragment.Name != "" {
		buffer.name = fragment.Name
		if !buffer.started {
			buffer.started = true
			events = append(events, Event{
				Type:     EventToolCallStart,
				ToolCall: &ToolCall{ID: buffer.key, Index: buffer.index, Name: buffer.name},
			})
		}
	}
	if fragment.Arguments != "" {
		buffer.arguments.WriteString(fragment.Arguments)
		events = append(events, Event{
			Type:     EventToolCallDelta,
			ToolCall: &ToolCall{ID: buffer.key, Index: buffer.index, ArgumentsDelta: fragment.Arguments},
		})
	}
	return events
}

// resolve returns the buffer a fragment belongs to, creating it when the
// fragment opens a new call, and maintains the index aliases.
func (accumulator *Accumulator) resolve(id string, index int) *toolCallBuffer {
	if id == "" {
		if handle, ok := accumulator.aliases[index]; ok {
			return accumulator.buffers[handle]
		}
		return accumulator.open(syntheticKey(index), false, index)
	}

	if handle, ok := accumulator.byID[id]; ok {
		accumulator.aliases[index] = handle
		return accumulator.buffers[handle]
	}
	if handle, ok := accumulator.aliases[index]; ok {
		if buffer := accumulator.buffers[handle]; !buffer.explicit {
			// First explicit id for a call buffered under its synthetic key.
			buffer.key, buffer.explicit = id, true
			accumulator.byID[id] = handle
			return buffer
		}
	}
	return accumulator.open(id, true, index)
}

func (accumulator *Accumulator) open(key string, explicit bool, index int) *toolCallBuffer {
	handle := accumulator.arrivals
	accumulator.arrivals++
	buffer := &toolCallBuffer{key: key, explicit: explicit, index: index, arrival: handle}
	accumulator.buffers[handle] = buffer
	accumulator.aliases[index] = handle
	if explicit {
		accumulator.byID[key] = handle
	}
	return buffer
}

// Flush converts every buffered call into a tool_call_ready or
// tool_call_dropped event, ordered by index and then by arrival, and resets
// the accumulator. Each buffer is flushed exactly once.
func (accumulator *Accumulator) Flush() []Event {
	if len(accumulator.buffers) == 0 {
		return nil
	}

	buffers := make([]*toolCallBuffer, 0, len(accumulator.buffers))
	for _, buffer := range accumulator.buffers {
		buffers = append(buffers, buffer)
	}
	slices.SortFunc(buffers, func(a, b *toolCallBuffer) int {
		if a.index != b.index {
			return a.index - b.index
		}
		return a.arrival - b.arrival
	})

	events := make([]Event, 0, len(buffers))
	for _, buffer := range buffers {
		events = append(events, accumulator.finalize(buffer))
	}

	clear(accumulator.buffers)
	clear(accumulator.byID)
	clear(accumulator.aliases)
	return events
}

func (accumulator *Accumulator) finalize(buffer *toolCallBuffer) Event {
	raw := buffer.arguments.String()
	call := &ToolCall{ID: buffer.key, Index: buffer.index, Name: buffer.name}

	drop := func(reason DropReason) Event {
		call.DropReason = reason
		call.RawArguments = raw
		return Event{Type: EventToolCallDropped, ToolCall: call}
	}

	trimmed := strings.TrimSpace(raw)
	if trimmed == "" {
		return drop(DropEmptyArguments)
	}

	jsonLike := looksLikeJSON(trimmed)
	if accumulator.repair && !jsonLike {
		// Truncated objects and arrays only keep their opening bracket.
		jsonLike = trimmed[0] == '{' || trimmed[0] == '['
	}
	if !jsonLike {
		wrapped, err := json.Marshal(struct {
			Value string `json:"value"`
		}{Value: raw})
		if err != nil {
			return drop(DropInvalidArguments)
		}
		call.Arguments = wrapped
		return Event{Type: EventToolCallReady, ToolCall: call}
	}

	switch {
	case json.Valid([]byte(trimmed)):
		call.Arguments = json.RawMessage(trimmed)
	case accumulator.repair:
		repaired, err := utils.RepairJSON(trimmed)
		if err != nil {
			return drop(DropInvalidArguments)
		}
		call.Arguments = repaired
	default:
		return drop(DropInvalidArguments)
	}
	return Event{Type: EventToolCallReady, ToolCall: call}
}

// looksLikeJSON reports whether s has matching outer object or array brackets.
func looksLikeJSON(s string) bool {
	if len(s) < 2 {
		return false
	}
	first, last := s[0], s[len(s)-1]
	return (first == '{' && last == '}') || (first == '[' && last == ']')
}

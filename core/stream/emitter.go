package stream

import (
	"github.com/google/uuid"
)

// State is a state of the Emitter.
type State int

const (
	// StateIdle means nothing has been emitted yet.
	StateIdle State = iota
	// StateTextOpen means a text message is open.
	StateTextOpen
	// StateToolsPending means at least one tool call is buffered.
	StateToolsPending
	// StateDraining means the finish signal was seen on a deferred-finish
	// stream. Only usage is accepted until the transport ends.
	StateDraining
	// StateFinished is terminal. No further events are emitted.
	StateFinished
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateTextOpen:
		return "text_open"
	case StateToolsPending:
		return "tools_pending"
	case StateDraining:
		return "draining"
	case StateFinished:
		return "finished"
	default:
		return "unknown"
	}
}

// EmitterConfig configures an Emitter.
type EmitterConfig struct {
	// StreamID fixes the stream id. When empty, the first id passed to
	// SetStreamID is used, or a random UUID once the first event is emitted.
	StreamID string
	// Accumulator receives tool call fragments. Defaults to NewAccumulator().
	Accumulator *Accumulator
	// MapReason maps raw finish tokens. Defaults to MapFinishReason.
	MapReason func(raw string) FinishReason
	// DeferFinish holds back Finish until Close.
	DeferFinish bool
}

// Emitter sequences canonical events for one stream and guarantees that
// exactly one Finish is emitted, last. It is not safe for concurrent use.
type Emitter struct {
	streamID    string
	idLocked    bool
	state       State
	textStarted bool
	textEnded   bool

	accumulator *Accumulator
	mapReason   func(string) FinishReason
	deferFinish bool

	usage         Usage
	usageSeen     bool
	totalReported bool
	pendingReason FinishReason
}

// NewEmitter creates an Emitter in StateIdle.
func NewEmitter(config EmitterConfig) *Emitter {
	emitter := &Emitter{
		streamID:    config.StreamID,
		idLocked:    config.StreamID != "",
		accumulator: config.Accumulator,
		mapReason:   config.MapReason,
		deferFinish: config.DeferFinish,
	}
	if emitter.accumulator == nil {
		emitter.accumulator = NewAccumulator()
	}
	if emitter.mapReason == nil {
		emitter.mapReason = MapFinishReason
	}
	return emitter
}

// State returns the current state.
func (emitter *Emitter) State() State {
	return emitter.state
}

// StreamID returns the stream id, or "" if none has been settled yet.
func (emitter *Emitter) StreamID() string {
	return emitter.streamID
}

// SetStreamID adopts a vendor-supplied id. It has no effect once an id is
// fixed, either by configuration or by the first emitted event.
func (emitter *Emitter) SetStreamID(id string) {
	if emitter.idLocked || id == "" {
		return
	}
	emitter.streamID = id
	emitter.idLocked = true
}

// stamp sets the stream id on events, settling the id if needed.
func (emitter *Emitter) stamp(events []Event) []Event {
	if len(events) == 0 {
		return events
	}
	if !emitter.idLocked {
		emitter.streamID = uuid.NewString()
		emitter.idLocked = true
	}
	for i := range events {
		events[i].StreamID = emitter.streamID
	}
	return events
}

func (emitter *Emitter) accepting() bool {
	return emitter.state != StateFinished && emitter.state != StateDraining
}

// Text handles a text fragment. The first non-empty fragment opens the text
// message with text_start.
func (emitter *Emitter) Text(fragment string) []Event {
	if fragment == "" || !emitter.accepting() {
		return nil
	}
	var events []Event
	if !emitter.textStarted {
		emitter.textStarted = true
		events = append(events, Event{Type: EventTextStart})
	}
	events = append(events, Event{Type: EventTextDelta, Text: fragment})
	if emitter.state == StateIdle {
		emitter.state = StateTextOpen
	}
	return emitter.stamp(events)
}

// ToolCall passes a tool call fragment to the accumulator.
func (emitter *Emitter) ToolCall(fragment ToolCallFragment) []Event {
	if !emitter.accepting() {
		return nil
	}
	events := emitter.accumulator.Add(fragment)
	if emitter.accumulator.Pending() > 0 {
		emitter.state = StateToolsPending
	}
	return emitter.stamp(events)
}

// Usage merges usage counters into the running snapshot. A usage event is
// emitted for the first report and whenever a counter changes.
func (emitter *Emitter) Usage(counters UsageCounters) []Event {
	if emitter.state == StateFinished {
		return nil
	}
	if !emitter.mergeUsage(counters) {
		return nil
	}
	snapshot := emitter.snapshot()
	return emitter.stamp([]Event{{Type: EventUsage, Usage: &snapshot}})
}

func (emitter *Emitter) mergeUsage(counters UsageCounters) bool {
	reported := counters.Input != nil || counters.Output != nil || counters.Total != nil || counters.Reasoning != nil
	if !reported {
		return false
	}

	changed := !emitter.usageSeen
	emitter.usageSeen = true

	set := func(target *int, value *int) {
		if value != nil && *target != *value {
			*target = *value
			changed = true
		}
	}
	set(&emitter.usage.InputTokens, counters.Input)
	set(&emitter.usage.OutputTokens, counters.Output)
	if counters.Total != nil {
		emitter.totalReported = true
		set(&emitter.usage.TotalTokens, counters.Total)
	}
	if counters.Reasoning != nil {
		if emitter.usage.ReasoningTokens == nil || *emitter.usage.ReasoningTokens != *counters.Reasoning {
			reasoning := *counters.Reasoning
			emitter.usage.ReasoningTokens = &reasoning
			changed = true
		}
	}
	if !emitter.totalReported {
		derived := emitter.usage.InputTokens + emitter.usage.OutputTokens
		set(&emitter.usage.TotalTokens, &derived)
	}
	return changed
}

// snapshot returns a copy of the usage that does not alias emitter state.
func (emitter *Emitter) snapshot() Usage {
	snapshot := emitter.usage
	if snapshot.ReasoningTokens != nil {
		reasoning := *snapshot.ReasoningTokens
		snapshot.ReasoningTokens = &reasoning
	}
	return snapshot
}

// Finish handles an explicit finish signal carrying the raw vendor reason.
// Pending tool calls are flushed, open text is closed, then Finish is
// emitted. On a deferred-finish stream Finish waits for Close.
func (emitter *Emitter) Finish(rawReason string) []Event {
	if !emitter.accepting() {
		return nil
	}
	events := emitter.flushAndClose()
	reason := emitter.mapReason(rawReason)
	if emitter.deferFinish {
		emitter.pendingReason = reason
		emitter.state = StateDraining
		return emitter.stamp(events)
	}
	events = append(events, emitter.finishEvent(reason))
	emitter.state = StateFinished
	return emitter.stamp(events)
}

// Close handles the end of the transport. A stream that never saw a finish
// signal finishes with FinishStop; a draining stream emits its held Finish.
func (emitter *Emitter) Close() []Event {
	switch emitter.state {
	case StateFinished:
		return nil
	case StateDraining:
		emitter.state = StateFinished
		return emitter.stamp([]Event{emitter.finishEvent(emitter.pendingReason)})
	}
	events := emitter.flushAndClose()
	events = append(events, emitter.finishEvent(FinishStop))
	emitter.state = StateFinished
	return emitter.stamp(events)
}

// Abort moves the emitter to StateFinished without flushing or emitting.
func (emitter *Emitter) Abort() {
	emitter.state = StateFinished
}

// Apply routes one extracted chunk in order: stream id, usage, text, tool
// call fragments, finish signal. Chunk.Err is not handled here.
func (emitter *Emitter) Apply(chunk Chunk) []Event {
	emitter.SetStreamID(chunk.StreamID)

	var events []Event
	if chunk.Usage != nil {
		events = append(events, emitter.Usage(*chunk.Usage)...)
	}
	events = append(events, emitter.Text(chunk.Text)...)
	for _, fragment := range chunk.ToolCalls {
		events = append(events, emitter.ToolCall(fragment)...)
	}
	if chunk.finishes() {
		events = append(events, emitter.Finish(chunk.FinishReason)...)
	}
	return events
}

func (emitter *Emitter) flushAndClose() []Event {
	events := emitter.accumulator.Flush()
	if emitter.textStarted && !emitter.textEnded {
		emitter.textEnded = true
		events = append(events, Event{Type: EventTextEnd})
	}
	return events
}

func (emitter *Emitter) finishEvent(reason FinishReason) Event {
	snapshot := emitter.snapshot()
	return Event{Type: EventFinish, FinishReason: reason, Usage: &snapshot}
}

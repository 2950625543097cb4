// Package stream normalizes vendor streaming responses into one ordered
// sequence of canonical events.
//
// A vendor is described by a [Profile]: the SSE framing mode and an
// [Extractor] that maps each raw frame into a [Chunk]. [Normalize] drives the
// frames through an [Accumulator], which rebuilds tool calls from fragments
// whose ids and indexes arrive out of order, and an [Emitter], a small state
// machine that orders text and tool call events and emits exactly one
// [EventFinish] per successful stream.
//
// A typical event sequence for a text reply:
//
//	text_start, text_delta("Hel"), text_delta("lo"), text_end, finish(stop)
//
// Tool calls add tool_call_start and tool_call_delta events while streaming,
// and one tool_call_ready or tool_call_dropped per call before text_end.
package stream

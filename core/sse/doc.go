// Package sse turns a line-oriented Server-Sent-Events transport into discrete
// frames. Two framing conventions are supported because vendors disagree on
// what a frame boundary is:
//
//   - [ModeLine]: every "data:" line is a complete frame on its own and blank
//     lines carry no meaning (OpenAI chat completions, Gemini alt=sse).
//   - [ModeBlock]: consecutive "data:" lines, optionally tagged by a preceding
//     "event:" line, are joined into one frame that a blank line dispatches
//     (Anthropic Messages, Responses API).
//
// In both modes a "[DONE]" payload ends the sequence. Key entry points are
// [NewReader], [Reader.Next] and [Reader.Frames].
package sse

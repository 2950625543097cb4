// Package generic describes vendor streams declaratively as gjson paths, so a
// new OpenAI-compatible or custom vendor can be normalized without code.
//
// A profile is usually written in YAML:
//
//	name: my-vendor
//	mode: line
//	text: choices.0.delta.content
//	tool_calls: choices.0.delta.tool_calls
//	tool_call: {id: id, index: index, name: function.name, arguments: function.arguments}
//	finish_reason: choices.0.finish_reason
//	usage: {input: usage.prompt_tokens, output: usage.completion_tokens}
//	error: {path: error, message: error.message}
//
// [Load] and [Parse] decode such files, [Builtin] returns the embedded
// profiles (see [BuiltinNames]), and [Profile.StreamProfile] converts a
// profile for use with stream.Normalize. [Provider] posts to an arbitrary URL
// using a profile.
package generic

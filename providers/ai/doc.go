// Package ai defines the contracts shared by the vendor adapters in its
// subpackages (openai, anthropic, gemini, generic).
//
// Adapters are thin: they authenticate, send the caller's payload with the
// streaming flag set, and hand the open response body to stream.Normalize
// together with a vendor [stream.Profile]. Long-running operations are waited
// on with poll.Until, starting from [PollOptions]. A vendor-reported task
// failure surfaces as [*TaskFailedError].
package ai

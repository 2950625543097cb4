package stream

import "strings"

// vendorFinishReasons maps lower-cased vendor finish tokens to the canonical
// set. Covers OpenAI, Anthropic, Gemini, Responses API and common
// OpenAI-compatible servers.
var vendorFinishReasons = map[string]FinishReason{
	// stop
	"stop":          FinishStop,
	"end_turn":      FinishStop,
	"stop_sequence": FinishStop,
	"pause_turn":    FinishStop,
	"eos":           FinishStop,
	"completed":     FinishStop,

	// length
	"length":            FinishLength,
	"max_tokens":        FinishLength,
	"max_output_tokens": FinishLength,
	"model_length":      FinishLength,
	"incomplete":        FinishLength,

	// content_filter
	"content_filter":     FinishContentFilter,
	"safety":             FinishContentFilter,
	"recitation":         FinishContentFilter,
	"blocklist":          FinishContentFilter,
	"prohibited_content": FinishContentFilter,
	"spii":               FinishContentFilter,
	"image_safety":       FinishContentFilter,
	"refusal":            FinishContentFilter,
	"language":           FinishContentFilter,

	// tool_calls
	"tool_calls":    FinishToolCalls,
	"tool_call":     FinishToolCalls,
	"function_call": FinishToolCalls,
	"tool_use":      FinishToolCalls,

	// error
	"error":                   FinishError,
	"failed":                  FinishError,
	"malformed_function_call": FinishError,
	"unexpected_tool_call":    FinishError,
}

// MapFinishReason maps a raw vendor finish token into the canonical set.
// Matching is case-insensitive; unknown and empty tokens map to FinishStop.
func MapFinishReason(raw string) FinishReason {
	if reason, ok := vendorFinishReasons[strings.ToLower(strings.TrimSpace(raw))]; ok {
		return reason
	}
	return FinishStop
}

// ReasonMap builds a finish-reason mapper that consults overrides first
// (case-insensitive) and falls back to MapFinishReason.
func ReasonMap(overrides map[string]FinishReason) func(string) FinishReason {
	normalized := make(map[string]FinishReason, len(overrides))
	for raw, reason := range overrides {
		normalized[strings.ToLower(strings.TrimSpace(raw))] = reason
	}
	return func(raw string) FinishReason {
		if reason, ok := normalized[strings.ToLower(strings.TrimSpace(raw))]; ok {
			return reason
		}
		return MapFinishReason(raw)
	}
}

// ParseFinishReason validates a canonical reason name, as used in profile
// files. It reports false for names outside the closed set.
func ParseFinishReason(name string) (FinishReason, bool) {
	switch reason := FinishReason(strings.ToLower(strings.TrimSpace(name))); reason {
	case FinishStop, FinishLength, FinishContentFilter, FinishToolCalls, FinishError:
		return reason, true
	default:
		return "", false
	}
}

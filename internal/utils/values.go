package utils

import (
	"encoding/json"
	"fmt"

	"github.com/kaptinlin/jsonrepair"
)

// DefaultMaxStringLength is the default maximum length for truncated strings
const DefaultMaxStringLength = 500

// TruncateString shortens s to at most maxLen bytes, appending a suffix that
// records the original total length so log readers know data was omitted.
// If maxLen is zero or negative, [DefaultMaxStringLength] is used instead.
func TruncateString(s string, maxLen int) string {
	if maxLen <= 0 {
		maxLen = DefaultMaxStringLength
	}
	if len(s) <= maxLen {
		return s
	}
	return fmt.Sprintf("%s... (truncated, total: %d chars)", s[:maxLen], len(s))
}

// Ptr returns a pointer to v.
//
//	fragment := stream.ToolCallFragment{Index: utils.Ptr(0)}
func Ptr[T any](v T) *T {
	return &v
}

// RepairJSON returns content as a JSON value, running it through jsonrepair
// when it is not already valid (unquoted keys, single quotes, truncation,
// trailing commas). The result is always valid JSON or an error.
func RepairJSON(content string) (json.RawMessage, error) {
	if json.Valid([]byte(content)) {
		return json.RawMessage(content), nil
	}

	repaired, err := jsonrepair.JSONRepair(content)
	if err != nil {
		return nil, fmt.Errorf("failed to repair JSON: %w", err)
	}
	if !json.Valid([]byte(repaired)) {
		return nil, fmt.Errorf("repaired JSON is still invalid: %s", TruncateString(repaired, 200))
	}
	return json.RawMessage(repaired), nil
}

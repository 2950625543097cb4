package generic

import (
	"errors"
	"slices"

	"github.com/tidwall/gjson"

	"github.com/leofalp/aistream/core/sse"
	"github.com/leofalp/aistream/core/stream"
)

var errInvalidJSON = errors.New("frame payload is not valid JSON")

// pathExtractor evaluates a Profile's gjson paths. It keeps no per-stream
// state, so one instance is shared by all streams of a profile.
type pathExtractor struct {
	profile Profile
}

func newExtractor(profile Profile) *pathExtractor {
	return &pathExtractor{profile: profile}
}

func (e *pathExtractor) Extract(frame sse.Frame) (stream.Chunk, error) {
	if !gjson.Valid(frame.Data) {
		return stream.Chunk{}, errInvalidJSON
	}
	data := gjson.Parse(frame.Data)
	profile := e.profile

	eventType := frame.Event
	if eventType == "" && profile.EventType != "" {
		eventType = data.Get(profile.EventType).String()
	}
	if eventType != "" && slices.Contains(profile.SkipEvents, eventType) {
		return stream.Chunk{}, nil
	}

	if vendorErr := e.vendorError(data, eventType); vendorErr != nil {
		return stream.Chunk{Err: vendorErr}, nil
	}

	chunk := stream.Chunk{
		StreamID:     getString(data, profile.StreamID),
		Text:         getString(data, profile.Text),
		FinishReason: getString(data, profile.FinishReason),
		Finish:       eventType != "" && slices.Contains(profile.FinishEvents, eventType),
		Usage:        e.usage(data),
	}

	if profile.ToolCalls != "" {
		calls := data.Get(profile.ToolCalls)
		switch {
		case calls.IsArray():
			for _, call := range calls.Array() {
				chunk.ToolCalls = append(chunk.ToolCalls, e.toolCall(data, call))
			}
		case calls.IsObject():
			chunk.ToolCalls = append(chunk.ToolCalls, e.toolCall(data, calls))
		}
	}
	return chunk, nil
}

func (e *pathExtractor) toolCall(frame, call gjson.Result) stream.ToolCallFragment {
	paths := e.profile.ToolCall
	fragment := stream.ToolCallFragment{
		ID:        getString(call, paths.ID),
		Name:      getString(call, paths.Name),
		Arguments: argumentText(call, paths.Arguments),
	}
	if index := get(call, paths.Index); index.Exists() {
		value := int(index.Int())
		fragment.Index = &value
	} else if index := get(frame, paths.FrameIndex); index.Exists() {
		value := int(index.Int())
		fragment.Index = &value
	}
	return fragment
}

func (e *pathExtractor) usage(data gjson.Result) *stream.UsageCounters {
	paths := e.profile.Usage
	counters := stream.UsageCounters{
		Input:     getInt(data, paths.Input),
		Output:    getInt(data, paths.Output),
		Total:     getInt(data, paths.Total),
		Reasoning: getInt(data, paths.Reasoning),
	}
	if counters.Input == nil && counters.Output == nil && counters.Total == nil && counters.Reasoning == nil {
		return nil
	}
	return &counters
}

func (e *pathExtractor) vendorError(data gjson.Result, eventType string) *stream.VendorError {
	paths := e.profile.Error
	matched := eventType != "" && slices.Contains(paths.Events, eventType)
	if !matched && paths.Path != "" {
		found := data.Get(paths.Path)
		matched = found.Exists() && found.Type != gjson.Null
	}
	if !matched {
		return nil
	}
	return &stream.VendorError{
		Provider: e.profile.Name,
		Type:     getString(data, paths.Type),
		Code:     getString(data, paths.Code),
		Message:  getString(data, paths.Message),
	}
}

func get(data gjson.Result, path string) gjson.Result {
	if path == "" {
		return gjson.Result{}
	}
	return data.Get(path)
}

func getString(data gjson.Result, path string) string {
	return get(data, path).String()
}

func getInt(data gjson.Result, path string) *int {
	result := get(data, path)
	if !result.Exists() || result.Type == gjson.Null {
		return nil
	}
	value := int(result.Int())
	return &value
}

// argumentText returns argument fragments verbatim. Some OpenAI-compatible
// servers send complete arguments as a JSON object instead of a string.
func argumentText(call gjson.Result, path string) string {
	result := get(call, path)
	if result.IsObject() || result.IsArray() {
		return result.Raw
	}
	return result.String()
}

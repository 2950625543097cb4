package anthropic

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/leofalp/aistream/core/sse"
	"github.com/leofalp/aistream/core/stream"
	"github.com/leofalp/aistream/internal/utils"
	"github.com/leofalp/aistream/providers/ai"
	"github.com/leofalp/aistream/providers/observability"
)

var errMissingType = errors.New("missing type field in stream event")

var messagesProfile = stream.Profile{
	Name:         providerName,
	Mode:         sse.ModeBlock,
	NewExtractor: func() stream.Extractor { return extractor{} },
	MapReason:    stream.MapFinishReason,
}

// Profile returns the Messages stream profile. Frames are event blocks and the
// finish reason arrives on message_delta, after the last content block.
func (p *AnthropicProvider) Profile() stream.Profile {
	return messagesProfile
}

// Stream implements [ai.StreamProvider] for Anthropic's Messages API. The
// payload is sent as given with stream=true.
//
// Pre-stream errors (missing API key, non-2xx HTTP response, network failure) are
// returned immediately as a non-nil error. Mid-stream errors (an Anthropic
// "error" event, a transport failure) are yielded through the iterator.
func (p *AnthropicProvider) Stream(ctx context.Context, payload any, opts ...stream.Option) (*stream.Stream, error) {
	span := observability.SpanFromContext(ctx)
	observer := observability.ObserverFromContext(ctx)

	if span != nil {
		span.AddEvent(observability.EventLLMRequestStart)
		span.SetAttributes(
			observability.Vendor(providerName),
			observability.String(observability.AttrLLMEndpoint, p.baseURL),
			observability.Bool("llm.streaming", true),
		)
	}

	// Guard against missing credentials before making a network call.
	if p.apiKey == "" {
		return nil, ai.ErrMissingAPIKey
	}

	body, err := ai.StreamingPayload(payload, map[string]any{"stream": true})
	if err != nil {
		return nil, fmt.Errorf("failed to build Anthropic request: %w", err)
	}

	// Pass empty apiKey so DoPostStream does not inject a Bearer token;
	// Anthropic authenticates via x-api-key (set inside buildHeaders).
	httpResponse, err := utils.DoPostStream(ctx, p.client, p.baseURL+messagesEndpoint, "", body, p.buildHeaders()...)
	if err != nil {
		if observer != nil {
			observer.Trace(ctx, "Streaming HTTP request failed", observability.Error(err))
		}
		return nil, err
	}

	return stream.Normalize(ctx, httpResponse.Body, messagesProfile, opts...), nil
}

// extractor maps Messages events to chunks. Tool calls are keyed by the
// content block index: content_block_start carries the id and name, the
// following input_json_delta events only the index.
type extractor struct{}

func (extractor) Extract(frame sse.Frame) (stream.Chunk, error) {
	var event streamEvent
	if err := json.Unmarshal([]byte(frame.Data), &event); err != nil {
		return stream.Chunk{}, err
	}
	if event.Type == "" {
		event.Type = frame.Event
	}

	switch event.Type {
	case "":
		return stream.Chunk{}, errMissingType

	case "message_start":
		if event.Message == nil {
			return stream.Chunk{}, nil
		}
		return stream.Chunk{
			StreamID: event.Message.ID,
			Usage:    usageCounters(event.Message.Usage),
		}, nil

	case "content_block_start":
		if event.ContentBlock == nil || event.ContentBlock.Type != "tool_use" {
			return stream.Chunk{}, nil
		}
		return stream.Chunk{ToolCalls: []stream.ToolCallFragment{{
			ID:    event.ContentBlock.ID,
			Index: event.Index,
			Name:  event.ContentBlock.Name,
		}}}, nil

	case "content_block_delta":
		if event.Delta == nil {
			return stream.Chunk{}, nil
		}
		switch event.Delta.Type {
		case "text_delta":
			return stream.Chunk{Text: event.Delta.Text}, nil
		case "input_json_delta":
			return stream.Chunk{ToolCalls: []stream.ToolCallFragment{{
				Index:     event.Index,
				Arguments: event.Delta.PartialJSON,
			}}}, nil
		}
		// thinking_delta and signature_delta are not part of the answer.
		return stream.Chunk{}, nil

	case "message_delta":
		chunk := stream.Chunk{Usage: usageCounters(event.Usage)}
		if event.Delta != nil {
			chunk.FinishReason = event.Delta.StopReason
		}
		return chunk, nil

	case "message_stop":
		return stream.Chunk{Finish: true}, nil

	case "error":
		vendorErr := &stream.VendorError{Provider: providerName}
		if event.Error != nil {
			vendorErr.Type = event.Error.Type
			vendorErr.Message = event.Error.Message
		}
		return stream.Chunk{Err: vendorErr}, nil
	}

	// ping, content_block_stop and future event types.
	return stream.Chunk{}, nil
}

func usageCounters(usage *streamUsage) *stream.UsageCounters {
	if usage == nil {
		return nil
	}
	counters := &stream.UsageCounters{Output: usage.OutputTokens}
	if usage.InputTokens != nil {
		input := *usage.InputTokens
		if usage.CacheCreationInputTokens != nil {
			input += *usage.CacheCreationInputTokens
		}
		if usage.CacheReadInputTokens != nil {
			input += *usage.CacheReadInputTokens
		}
		counters.Input = &input
	}
	if counters.Input == nil && counters.Output == nil {
		return nil
	}
	return counters
}

package gemini

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"strings"

	"github.com/tidwall/gjson"

	"github.com/leofalp/aistream/core/sse"
	"github.com/leofalp/aistream/core/stream"
	"github.com/leofalp/aistream/internal/utils"
	"github.com/leofalp/aistream/providers/ai"
	"github.com/leofalp/aistream/providers/observability"
)

var errInvalidChunk = errors.New("gemini chunk is not valid JSON")

var generateProfile = stream.Profile{
	Name:         providerName,
	Mode:         sse.ModeLine,
	NewExtractor: func() stream.Extractor { return &extractor{} },
	MapReason:    stream.MapFinishReason,
}

// Profile returns the streamGenerateContent profile.
func (p *GeminiProvider) Profile() stream.Profile {
	return generateProfile
}

// Stream opens a streamGenerateContent stream for the provider's model.
func (p *GeminiProvider) Stream(ctx context.Context, payload any, opts ...stream.Option) (*stream.Stream, error) {
	return p.StreamModel(ctx, p.model, payload, opts...)
}

// StreamModel opens a streamGenerateContent stream (alt=sse) for model. Gemini
// has no streaming flag in the body, so payload is sent unchanged.
func (p *GeminiProvider) StreamModel(ctx context.Context, model string, payload any, opts ...stream.Option) (*stream.Stream, error) {
	span := observability.SpanFromContext(ctx)
	observer := observability.ObserverFromContext(ctx)

	if model == "" {
		model = defaultModel
	}

	if span != nil {
		span.AddEvent(observability.EventLLMRequestStart)
		span.SetAttributes(
			observability.Vendor(providerName),
			observability.String(observability.AttrLLMEndpoint, p.baseURL),
			observability.String(observability.AttrLLMModel, model),
			observability.Bool("llm.streaming", true),
		)
	}

	// Validate API key
	if p.apiKey == "" {
		return nil, ai.ErrMissingAPIKey
	}

	body, err := ai.StreamingPayload(payload, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to build Gemini request: %w", err)
	}

	streamURL := fmt.Sprintf("%s/models/%s:streamGenerateContent?alt=sse", p.baseURL, url.PathEscape(model))
	httpResponse, err := utils.DoPostStream(ctx, p.client, streamURL, "", body, p.authHeader())
	if err != nil {
		if observer != nil {
			observer.Trace(ctx, "Streaming HTTP request failed", observability.Error(err))
		}
		return nil, err
	}

	return stream.Normalize(ctx, httpResponse.Body, generateProfile, opts...), nil
}

// extractor reads one generateContentResponse per frame. Text parts are
// incremental. Function calls arrive whole and carry no index, so the
// extractor numbers them in arrival order.
type extractor struct {
	calls int
}

func (e *extractor) Extract(frame sse.Frame) (stream.Chunk, error) {
	if !gjson.Valid(frame.Data) {
		return stream.Chunk{}, errInvalidChunk
	}
	data := gjson.Parse(frame.Data)

	if apiErr := data.Get("error"); apiErr.IsObject() {
		return stream.Chunk{Err: &stream.VendorError{
			Provider: providerName,
			Type:     apiErr.Get("status").String(),
			Code:     apiErr.Get("code").String(),
			Message:  apiErr.Get("message").String(),
		}}, nil
	}

	chunk := stream.Chunk{
		StreamID: data.Get("responseId").String(),
		Usage:    usageCounters(data.Get("usageMetadata")),
	}

	var text strings.Builder
	for _, part := range data.Get("candidates.0.content.parts").Array() {
		if part.Get("thought").Bool() {
			continue
		}
		text.WriteString(part.Get("text").String())

		call := part.Get("functionCall")
		if !call.IsObject() {
			continue
		}
		index := e.calls
		e.calls++
		arguments := "{}"
		if args := call.Get("args"); args.Exists() {
			arguments = args.Raw
		}
		chunk.ToolCalls = append(chunk.ToolCalls, stream.ToolCallFragment{
			ID:        call.Get("id").String(),
			Index:     &index,
			Name:      call.Get("name").String(),
			Arguments: arguments,
		})
	}
	chunk.Text = text.String()

	chunk.FinishReason = data.Get("candidates.0.finishReason").String()
	// Gemini reports STOP for turns that end in function calls.
	if strings.EqualFold(chunk.FinishReason, "STOP") && e.calls > 0 {
		chunk.FinishReason = "tool_calls"
	}
	// A blocked prompt has no candidates at all.
	if chunk.FinishReason == "" && data.Get("promptFeedback.blockReason").String() != "" {
		chunk.FinishReason = "SAFETY"
	}
	return chunk, nil
}

func usageCounters(usage gjson.Result) *stream.UsageCounters {
	if !usage.IsObject() {
		return nil
	}
	counter := func(path string) *int {
		value := usage.Get(path)
		if !value.Exists() {
			return nil
		}
		n := int(value.Int())
		return &n
	}
	return &stream.UsageCounters{
		Input:     counter("promptTokenCount"),
		Output:    counter("candidatesTokenCount"),
		Total:     counter("totalTokenCount"),
		Reasoning: counter("thoughtsTokenCount"),
	}
}

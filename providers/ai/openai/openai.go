package openai

import (
	"context"
	"fmt"
	"net/http"
	"os"

	"github.com/leofalp/aistream/core/stream"
	"github.com/leofalp/aistream/internal/utils"
	"github.com/leofalp/aistream/providers/ai"
	"github.com/leofalp/aistream/providers/ai/generic"
	"github.com/leofalp/aistream/providers/observability"
)

const (
	providerName            = "openai"
	defaultBaseURL          = "https://api.openai.com/v1"
	chatCompletionsEndpoint = "/chat/completions"
)

// chatProfile is the openai-compatible built-in under the vendor's own name,
// so vendor errors and spans report "openai".
var chatProfile = func() stream.Profile {
	profile, err := generic.Builtin("openai-compatible")
	if err != nil {
		panic(err)
	}
	profile.Name = providerName
	return profile.MustStreamProfile()
}()

// OpenAIProvider streams chat completions and waits on OpenAI's long-running
// tasks (videos and background responses).
type OpenAIProvider struct {
	apiKey  string
	baseURL string
	client  *http.Client
}

var _ ai.StreamProvider = (*OpenAIProvider)(nil)

// NewOpenAIProvider creates a new OpenAI provider instance with default values
func NewOpenAIProvider() *OpenAIProvider {
	apiKey := os.Getenv("OPENAI_API_KEY")
	baseURL := os.Getenv("OPENAI_API_BASE_URL")
	if baseURL == "" {
		baseURL = defaultBaseURL
	}

	return &OpenAIProvider{
		apiKey:  apiKey,
		baseURL: baseURL,
		client:  &http.Client{},
	}
}

// WithAPIKey sets the API key for the provider
func (p *OpenAIProvider) WithAPIKey(apiKey string) *OpenAIProvider {
	p.apiKey = apiKey
	return p
}

// WithBaseURL sets the base URL for the API
func (p *OpenAIProvider) WithBaseURL(baseURL string) *OpenAIProvider {
	p.baseURL = baseURL
	return p
}

// WithHttpClient sets a custom HTTP client
func (p *OpenAIProvider) WithHttpClient(httpClient *http.Client) *OpenAIProvider {
	p.client = httpClient
	return p
}

// Name implements ai.StreamProvider.
func (p *OpenAIProvider) Name() string {
	return providerName
}

// Profile returns the chat completions profile: line framing, and a finish
// held until [DONE] because usage arrives in a trailing chunk.
func (p *OpenAIProvider) Profile() stream.Profile {
	return chatProfile
}

// Stream opens a chat completions stream. The payload is sent as given with
// stream=true and stream_options.include_usage=true added.
func (p *OpenAIProvider) Stream(ctx context.Context, payload any, opts ...stream.Option) (*stream.Stream, error) {
	span := observability.SpanFromContext(ctx)
	observer := observability.ObserverFromContext(ctx)
	streamURL := p.baseURL + chatCompletionsEndpoint

	if span != nil {
		span.AddEvent(observability.EventLLMRequestStart)
		span.SetAttributes(
			observability.Vendor(providerName),
			observability.String(observability.AttrLLMEndpoint, p.baseURL),
			observability.Bool("llm.streaming", true),
		)
	}

	if p.apiKey == "" {
		return nil, ai.ErrMissingAPIKey
	}

	body, err := ai.StreamingPayload(payload, map[string]any{
		"stream":         true,
		"stream_options": map[string]any{"include_usage": true},
	})
	if err != nil {
		return nil, fmt.Errorf("failed to build OpenAI request: %w", err)
	}

	httpResponse, err := utils.DoPostStream(ctx, p.client, streamURL, p.apiKey, body)
	if err != nil {
		if observer != nil {
			observer.Trace(ctx, "Streaming HTTP request failed", observability.Error(err))
		}
		return nil, err
	}

	return stream.Normalize(ctx, httpResponse.Body, chatProfile, opts...), nil
}

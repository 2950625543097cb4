package generic

import (
	"context"
	"fmt"
	"net/http"

	"github.com/leofalp/aistream/core/stream"
	"github.com/leofalp/aistream/internal/utils"
	"github.com/leofalp/aistream/providers/ai"
	"github.com/leofalp/aistream/providers/observability"
)

// Provider streams from any endpoint described by a Profile. It sends the
// caller's payload with "stream": true and authenticates with a Bearer token
// unless headers say otherwise.
type Provider struct {
	profile Profile
	stream  stream.Profile
	url     string
	apiKey  string
	headers []utils.HeaderOption
	client  *http.Client
}

var _ ai.StreamProvider = (*Provider)(nil)

// New creates a provider posting to url. The profile is validated here so a
// bad profile fails before any request.
func New(profile Profile, url string) (*Provider, error) {
	converted, err := profile.StreamProfile()
	if err != nil {
		return nil, err
	}
	return &Provider{
		profile: profile,
		stream:  converted,
		url:     url,
		client:  &http.Client{},
	}, nil
}

// WithAPIKey sets the Bearer token. An empty key sends no Authorization
// header, which suits local servers.
func (p *Provider) WithAPIKey(apiKey string) *Provider {
	p.apiKey = apiKey
	return p
}

// WithHeader adds a request header, for vendors that authenticate with a
// custom header.
func (p *Provider) WithHeader(key, value string) *Provider {
	p.headers = append(p.headers, utils.HeaderOption{Key: key, Value: value})
	return p
}

// WithHttpClient replaces the HTTP client.
func (p *Provider) WithHttpClient(httpClient *http.Client) *Provider {
	p.client = httpClient
	return p
}

// Name returns the profile name.
func (p *Provider) Name() string {
	return p.profile.Name
}

// Profile returns the converted stream profile.
func (p *Provider) Profile() stream.Profile {
	return p.stream
}

// Stream implements ai.StreamProvider.
func (p *Provider) Stream(ctx context.Context, payload any, opts ...stream.Option) (*stream.Stream, error) {
	span := observability.SpanFromContext(ctx)
	if span != nil {
		span.AddEvent(observability.EventLLMRequestStart)
		span.SetAttributes(
			observability.Vendor(p.profile.Name),
			observability.String(observability.AttrLLMEndpoint, p.url),
		)
	}

	body, err := ai.StreamingPayload(payload, map[string]any{"stream": true})
	if err != nil {
		return nil, fmt.Errorf("failed to build %s request: %w", p.profile.Name, err)
	}

	httpResponse, err := utils.DoPostStream(ctx, p.client, p.url, p.apiKey, body, p.headers...)
	if err != nil {
		return nil, err
	}
	return stream.Normalize(ctx, httpResponse.Body, p.stream, opts...), nil
}

package anthropic

import (
	"net/http"
	"os"
	"strings"

	"github.com/leofalp/aistream/internal/utils"
	"github.com/leofalp/aistream/providers/ai"
)

const (
	providerName = "anthropic"

	// defaultBaseURL is the canonical base URL for Anthropic's Messages API.
	defaultBaseURL = "https://api.anthropic.com/v1"

	// messagesEndpoint is the path for the Messages API endpoint.
	messagesEndpoint = "/messages"

	// batchesEndpoint is the path prefix of message batch resources.
	batchesEndpoint = "/messages/batches/"

	// anthropicVersion is the required anthropic-version header value.
	// Anthropic uses this to version-lock response formats independently of the URL.
	anthropicVersion = "2023-06-01"
)

// AnthropicProvider streams Anthropic Messages responses and waits on message
// batches. Use [New] to construct a ready-to-use instance.
type AnthropicProvider struct {
	apiKey  string
	baseURL string
	client  *http.Client
	betas   []string
}

var _ ai.StreamProvider = (*AnthropicProvider)(nil)

// New returns an [AnthropicProvider] initialized from environment variables.
// It reads ANTHROPIC_API_KEY for authentication and ANTHROPIC_API_BASE_URL for
// the endpoint base (defaulting to https://api.anthropic.com/v1 when unset).
func New() *AnthropicProvider {
	apiKey := os.Getenv("ANTHROPIC_API_KEY")
	baseURL := os.Getenv("ANTHROPIC_API_BASE_URL")
	if baseURL == "" {
		baseURL = defaultBaseURL
	}

	return &AnthropicProvider{
		apiKey:  apiKey,
		baseURL: baseURL,
		client:  &http.Client{},
	}
}

// WithAPIKey sets the API key used for authenticating requests and returns the
// provider so calls can be chained. It overrides the value read from ANTHROPIC_API_KEY.
func (p *AnthropicProvider) WithAPIKey(apiKey string) *AnthropicProvider {
	p.apiKey = apiKey
	return p
}

// WithBaseURL overrides the API base URL and returns the provider so calls can
// be chained. Use this when targeting a proxy or local testing endpoint.
func (p *AnthropicProvider) WithBaseURL(baseURL string) *AnthropicProvider {
	p.baseURL = baseURL
	return p
}

// WithHttpClient replaces the default [http.Client] used for API calls.
func (p *AnthropicProvider) WithHttpClient(httpClient *http.Client) *AnthropicProvider {
	p.client = httpClient
	return p
}

// WithBeta adds a value to the anthropic-beta header, for example
// "fine-grained-tool-streaming-2025-05-14".
func (p *AnthropicProvider) WithBeta(feature string) *AnthropicProvider {
	p.betas = append(p.betas, feature)
	return p
}

// Name implements ai.StreamProvider.
func (p *AnthropicProvider) Name() string {
	return providerName
}

// buildHeaders constructs the HTTP headers required for every Anthropic request.
// x-api-key carries the credential (Anthropic does not use Bearer tokens),
// anthropic-version pins the wire format, and anthropic-beta is added only when
// beta features are configured so the header is absent for standard requests.
func (p *AnthropicProvider) buildHeaders() []utils.HeaderOption {
	headers := []utils.HeaderOption{
		{Key: "x-api-key", Value: p.apiKey},
		{Key: "anthropic-version", Value: anthropicVersion},
	}

	if len(p.betas) > 0 {
		headers = append(headers, utils.HeaderOption{Key: "anthropic-beta", Value: strings.Join(p.betas, ",")})
	}

	return headers
}

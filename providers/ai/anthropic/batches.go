package anthropic

import (
	"context"
	"fmt"
	"net/url"

	"github.com/leofalp/aistream/core/poll"
	"github.com/leofalp/aistream/internal/utils"
	"github.com/leofalp/aistream/providers/ai"
)

// Batch processing statuses.
const (
	BatchInProgress = "in_progress"
	BatchCanceling  = "canceling"
	BatchEnded      = "ended"
)

// MessageBatch is the status object of a message batch.
type MessageBatch struct {
	ID                string        `json:"id"`
	Type              string        `json:"type"`
	ProcessingStatus  string        `json:"processing_status"`
	RequestCounts     RequestCounts `json:"request_counts"`
	CreatedAt         string        `json:"created_at"`
	EndedAt           *string       `json:"ended_at,omitempty"`
	ExpiresAt         string        `json:"expires_at"`
	CancelInitiatedAt *string       `json:"cancel_initiated_at,omitempty"`
	ResultsURL        *string       `json:"results_url,omitempty"`
}

// RequestCounts tallies the requests of a batch by outcome.
type RequestCounts struct {
	Processing int `json:"processing"`
	Succeeded  int `json:"succeeded"`
	Errored    int `json:"errored"`
	Canceled   int `json:"canceled"`
	Expired    int `json:"expired"`
}

// WaitForBatch polls GET /messages/batches/{id} until processing_status is
// "ended". An ended batch is a normal result even when some of its requests
// errored; RequestCounts and ResultsURL describe the outcome.
func (p *AnthropicProvider) WaitForBatch(ctx context.Context, batchID string, opts ...poll.Option) (*MessageBatch, error) {
	if p.apiKey == "" {
		return nil, ai.ErrMissingAPIKey
	}
	statusURL := p.baseURL + batchesEndpoint + url.PathEscape(batchID)

	check := func(ctx context.Context) (*MessageBatch, error) {
		_, batch, err := utils.DoGetSync[MessageBatch](ctx, p.client, statusURL, "", p.buildHeaders()...)
		if err != nil {
			return nil, fmt.Errorf("failed to fetch Anthropic batch %s: %w", batchID, err)
		}
		if batch == nil {
			return nil, fmt.Errorf("empty status response for Anthropic batch %s", batchID)
		}
		return batch, nil
	}
	isEnded := func(batch *MessageBatch) bool {
		return batch.ProcessingStatus == BatchEnded
	}

	return poll.Until(ctx, check, isEnded, ai.PollOptions(batchID, opts...)...)
}

package gemini

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"

	"github.com/leofalp/aistream/core/poll"
	"github.com/leofalp/aistream/internal/utils"
	"github.com/leofalp/aistream/providers/ai"
)

// Operation is a long-running operation, as returned by video generation
// (predictLongRunning) and batch endpoints. Metadata and Response are kept
// raw because their schema depends on the method that started the operation.
type Operation struct {
	Name     string          `json:"name"`
	Done     bool            `json:"done"`
	Metadata json.RawMessage `json:"metadata,omitempty"`
	Response json.RawMessage `json:"response,omitempty"`
	Error    *OperationError `json:"error,omitempty"`
}

// OperationError is the google.rpc.Status of a failed operation.
type OperationError struct {
	Code    int               `json:"code"`
	Message string            `json:"message"`
	Details []json.RawMessage `json:"details,omitempty"`
}

// WaitForOperation polls GET /{name} until the operation is done. name is the
// full resource name returned when the operation started, for example
// "models/veo-2.0-generate-001/operations/abc123". A done operation carrying
// an error is returned together with an *ai.TaskFailedError.
func (p *GeminiProvider) WaitForOperation(ctx context.Context, name string, opts ...poll.Option) (*Operation, error) {
	if p.apiKey == "" {
		return nil, ai.ErrMissingAPIKey
	}
	statusURL := p.baseURL + "/" + strings.TrimPrefix(name, "/")

	check := func(ctx context.Context) (*Operation, error) {
		_, operation, err := utils.DoGetSync[Operation](ctx, p.client, statusURL, "", p.authHeader())
		if err != nil {
			return nil, fmt.Errorf("failed to fetch Gemini operation %s: %w", name, err)
		}
		if operation == nil {
			return nil, fmt.Errorf("empty status response for Gemini operation %s", name)
		}
		return operation, nil
	}
	isDone := func(operation *Operation) bool {
		return operation.Done
	}

	operation, err := poll.Until(ctx, check, isDone, ai.PollOptions(name, opts...)...)
	if err != nil {
		return operation, err
	}
	if operation.Error != nil {
		return operation, &ai.TaskFailedError{
			Provider: providerName,
			TaskID:   name,
			Status:   "error",
			Code:     strconv.Itoa(operation.Error.Code),
			Message:  operation.Error.Message,
		}
	}
	return operation, nil
}

package openai

import (
	"context"
	"encoding/json"
	"fmt"
	"net/url"

	"github.com/leofalp/aistream/core/poll"
	"github.com/leofalp/aistream/internal/utils"
	"github.com/leofalp/aistream/providers/ai"
)

const (
	videosEndpoint    = "/videos/"
	responsesEndpoint = "/responses/"
)

// Video statuses reported by GET /videos/{id}.
const (
	VideoQueued     = "queued"
	VideoInProgress = "in_progress"
	VideoCompleted  = "completed"
	VideoFailed     = "failed"
)

// Background response statuses reported by GET /responses/{id}.
const (
	ResponseQueued     = "queued"
	ResponseInProgress = "in_progress"
	ResponseCompleted  = "completed"
	ResponseFailed     = "failed"
	ResponseCancelled  = "cancelled"
	ResponseIncomplete = "incomplete"
)

// TaskError is the error object attached to failed videos and responses.
type TaskError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// Video is a video generation job.
type Video struct {
	ID          string     `json:"id"`
	Object      string     `json:"object"`
	Model       string     `json:"model"`
	Status      string     `json:"status"`
	Progress    int        `json:"progress"`
	Seconds     string     `json:"seconds,omitempty"`
	Size        string     `json:"size,omitempty"`
	CreatedAt   int64      `json:"created_at"`
	CompletedAt *int64     `json:"completed_at,omitempty"`
	ExpiresAt   *int64     `json:"expires_at,omitempty"`
	Error       *TaskError `json:"error,omitempty"`
}

// Response is a background Responses API request. Output is kept raw; the
// waiter only needs the status.
type Response struct {
	ID                string             `json:"id"`
	Object            string             `json:"object"`
	Model             string             `json:"model"`
	Status            string             `json:"status"`
	Error             *TaskError         `json:"error,omitempty"`
	IncompleteDetails *IncompleteDetails `json:"incomplete_details,omitempty"`
	Output            json.RawMessage    `json:"output,omitempty"`
	Usage             json.RawMessage    `json:"usage,omitempty"`
}

// IncompleteDetails explains an incomplete response.
type IncompleteDetails struct {
	Reason string `json:"reason"`
}

// WaitForVideo polls GET /videos/{id} until the job is completed or failed,
// using poll.DefaultBackoff unless opts say otherwise. A failed job is
// returned together with an *ai.TaskFailedError.
func (p *OpenAIProvider) WaitForVideo(ctx context.Context, videoID string, opts ...poll.Option) (*Video, error) {
	video, err := waitFor[Video](ctx, p, videosEndpoint, videoID, func(v *Video) bool {
		return v.Status == VideoCompleted || v.Status == VideoFailed
	}, opts...)
	if err != nil {
		return video, err
	}
	if video.Status == VideoFailed {
		return video, taskFailed(videoID, video.Status, video.Error)
	}
	return video, nil
}

// WaitForResponse polls GET /responses/{id} until a background response
// leaves the queued and in_progress states. Failed and cancelled responses
// come with an *ai.TaskFailedError; an incomplete response is a normal result
// whose IncompleteDetails says why it stopped.
func (p *OpenAIProvider) WaitForResponse(ctx context.Context, responseID string, opts ...poll.Option) (*Response, error) {
	response, err := waitFor[Response](ctx, p, responsesEndpoint, responseID, func(r *Response) bool {
		switch r.Status {
		case ResponseCompleted, ResponseFailed, ResponseCancelled, ResponseIncomplete:
			return true
		}
		return false
	}, opts...)
	if err != nil {
		return response, err
	}
	if response.Status == ResponseFailed || response.Status == ResponseCancelled {
		return response, taskFailed(responseID, response.Status, response.Error)
	}
	return response, nil
}

func waitFor[T any](ctx context.Context, p *OpenAIProvider, endpoint, id string, isTerminal func(*T) bool, opts ...poll.Option) (*T, error) {
	if p.apiKey == "" {
		return nil, ai.ErrMissingAPIKey
	}
	statusURL := p.baseURL + endpoint + url.PathEscape(id)

	check := func(ctx context.Context) (*T, error) {
		_, status, err := utils.DoGetSync[T](ctx, p.client, statusURL, p.apiKey)
		if err != nil {
			return nil, fmt.Errorf("failed to fetch OpenAI task %s: %w", id, err)
		}
		if status == nil {
			return nil, fmt.Errorf("empty status response for OpenAI task %s", id)
		}
		return status, nil
	}
	return poll.Until(ctx, check, isTerminal, ai.PollOptions(id, opts...)...)
}

func taskFailed(id, status string, taskErr *TaskError) *ai.TaskFailedError {
	failed := &ai.TaskFailedError{Provider: providerName, TaskID: id, Status: status}
	if taskErr != nil {
		failed.Code = taskErr.Code
		failed.Message = taskErr.Message
	}
	return failed
}

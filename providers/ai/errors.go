package ai

import (
	"errors"
	"fmt"
)

// ErrMissingAPIKey is returned before any request when an adapter has no
// credential configured.
var ErrMissingAPIKey = errors.New("API key is not set")

// ErrTaskFailed is matched by every *TaskFailedError.
var ErrTaskFailed = errors.New("task failed")

// TaskFailedError reports a long-running task that reached a terminal failure
// status on the vendor side. It is distinct from poll.ErrTimeout and
// poll.ErrAttemptsExceeded, which mean the task never reached a terminal
// status in time.
type TaskFailedError struct {
	Provider string
	TaskID   string
	Status   string
	Code     string
	Message  string
}

func (e *TaskFailedError) Error() string {
	msg := fmt.Sprintf("%s task %s ended with status %q", e.Provider, e.TaskID, e.Status)
	if e.Code != "" {
		msg += " (" + e.Code + ")"
	}
	if e.Message != "" {
		msg += ": " + e.Message
	}
	return msg
}

// Unwrap returns ErrTaskFailed.
func (e *TaskFailedError) Unwrap() error {
	return ErrTaskFailed
}

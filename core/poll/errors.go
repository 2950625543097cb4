package poll

import (
	"errors"
	"fmt"
	"time"
)

// ErrTimeout is matched by every *TimeoutError.
//
//	if errors.Is(err, poll.ErrTimeout) {
//	    // the task did not reach a terminal state in time
//	}
var ErrTimeout = errors.New("poll timed out")

// ErrAttemptsExceeded is matched by every *AttemptsExceededError.
var ErrAttemptsExceeded = errors.New("poll attempts exceeded")

// TimeoutError is returned when another wait would exceed the timeout.
type TimeoutError struct {
	Timeout  time.Duration
	Elapsed  time.Duration
	Attempts int
}

func (e *TimeoutError) Error() string {
	return fmt.Sprintf("poll timed out after %s (%d attempts, timeout %s)",
		e.Elapsed.Round(time.Millisecond), e.Attempts, e.Timeout)
}

// Unwrap returns ErrTimeout.
func (e *TimeoutError) Unwrap() error {
	return ErrTimeout
}

// AttemptsExceededError is returned when the attempt limit is reached without
// a terminal result.
type AttemptsExceededError struct {
	Attempts int
}

func (e *AttemptsExceededError) Error() string {
	return fmt.Sprintf("poll attempts exceeded: no terminal result after %d attempts", e.Attempts)
}

// Unwrap returns ErrAttemptsExceeded.
func (e *AttemptsExceededError) Unwrap() error {
	return ErrAttemptsExceeded
}

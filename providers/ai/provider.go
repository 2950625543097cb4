package ai

import (
	"context"

	"github.com/leofalp/aistream/core/poll"
	"github.com/leofalp/aistream/core/stream"
)

// StreamProvider is implemented by every vendor adapter that can open a
// streaming response. Pre-stream errors (missing API key, non-2xx HTTP
// response, network failure) are returned as a normal error before a Stream
// exists. Mid-stream errors are yielded through the stream's iterator.
type StreamProvider interface {
	// Name identifies the vendor in logs, spans and errors.
	Name() string

	// Profile returns the extraction profile used to normalize the vendor's
	// frames. It can also be used with stream.Normalize on captured
	// transcripts.
	Profile() stream.Profile

	// Stream sends payload unchanged apart from the vendor's streaming flag and
	// returns the normalized event stream.
	Stream(ctx context.Context, payload any, opts ...stream.Option) (*stream.Stream, error)
}

// PollOptions returns the options every task waiter starts from: the default
// backoff and the task id as loop name. Caller options are applied last and
// override them.
func PollOptions(taskID string, opts ...poll.Option) []poll.Option {
	return append([]poll.Option{
		poll.WithInterval(poll.DefaultBackoff()),
		poll.WithName(taskID),
	}, opts...)
}

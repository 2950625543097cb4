// Package poll provides a transport-agnostic "poll until terminal" loop for
// long-running vendor operations such as video generation, background
// responses, message batches and long-running operations.
//
// [Until] calls a status check repeatedly and waits between calls according to
// an [IntervalPolicy]. A fixed interval and a capped exponential backoff are
// the same primitive:
//
//	result, err := poll.Until(ctx, check, isDone,
//	    poll.WithInterval(poll.Backoff(time.Second, 1.5, 10*time.Second)),
//	    poll.WithTimeout(5*time.Minute),
//	)
//
// The loop stops with a [*TimeoutError] or [*AttemptsExceededError] when a
// bound is reached, with ctx.Err() on cancellation, and with the unmodified
// check error when the check itself fails.
package poll

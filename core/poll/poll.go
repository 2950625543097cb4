package poll

import (
	"context"
	"time"

	"github.com/leofalp/aistream/providers/observability"
)

// Option configures Until.
type Option func(*config)

type config struct {
	interval    IntervalPolicy
	timeout     time.Duration
	maxAttempts int
	observer    observability.Provider
	name        string
}

// WithInterval sets the wait policy between attempts. Default: Fixed(1s).
func WithInterval(policy IntervalPolicy) Option {
	return func(c *config) {
		if policy != nil {
			c.interval = policy
		}
	}
}

// WithTimeout bounds the total wall-clock time of the loop. Zero or negative
// means no timeout.
func WithTimeout(timeout time.Duration) Option {
	return func(c *config) {
		c.timeout = timeout
	}
}

// WithMaxAttempts bounds the number of checks. Zero or negative means no
// limit.
func WithMaxAttempts(maxAttempts int) Option {
	return func(c *config) {
		c.maxAttempts = maxAttempts
	}
}

// WithObserver sets the observability provider. Without it the provider
// attached to the context is used, if any.
func WithObserver(observer observability.Provider) Option {
	return func(c *config) {
		c.observer = observer
	}
}

// WithName labels the loop in logs and spans, typically with the task id.
func WithName(name string) Option {
	return func(c *config) {
		c.name = name
	}
}

// Until calls check until isTerminal reports true for its result and returns
// that result. No wait follows the check that resolves the loop.
//
// Between checks it waits for the interval policy's duration. It stops early
// with:
//   - the unmodified error of check, without retrying;
//   - ctx.Err(), observed before every check and during every wait;
//   - *AttemptsExceededError once the attempt limit is reached;
//   - *TimeoutError when the elapsed time plus the next wait would exceed the
//     timeout.
//
// With the last two the last non-terminal result is returned too. The result
// is never inspected beyond isTerminal.
func Until[T any](ctx context.Context, check func(ctx context.Context) (T, error), isTerminal func(T) bool, opts ...Option) (T, error) {
	cfg := &config{interval: Fixed(time.Second)}
	for _, opt := range opts {
		opt(cfg)
	}
	if cfg.observer == nil {
		cfg.observer = observability.ObserverFromContext(ctx)
	}

	observer := cfg.observer
	start := time.Now()
	var span observability.Span
	if observer != nil {
		ctx, span = observer.StartSpan(ctx, observability.SpanPoll,
			observability.Task(cfg.name),
		)
		defer span.End()
	}

	finish := func(attempts int, err error) {
		if observer == nil {
			return
		}
		elapsed := time.Since(start)
		observer.Histogram(observability.MetricPollDuration).Record(ctx, elapsed.Seconds(),
			observability.Task(cfg.name),
		)
		span.SetAttributes(
			observability.Int(observability.AttrPollAttempt, attempts),
			observability.Duration(observability.AttrPollElapsed, elapsed),
		)
		if err != nil {
			observability.Fail(span, err)
			observer.Warn(ctx, "Polling stopped without terminal result",
				observability.Task(cfg.name),
				observability.Int(observability.AttrPollAttempt, attempts),
				observability.Duration(observability.AttrPollElapsed, elapsed),
				observability.Error(err),
			)
			return
		}
		span.SetStatus(observability.StatusOK, "")
	}

	var last T
	for attempt := 1; ; attempt++ {
		if err := ctx.Err(); err != nil {
			finish(attempt-1, err)
			return last, err
		}

		result, err := check(ctx)
		if observer != nil {
			observer.Counter(observability.MetricPollAttempts).Add(ctx, 1,
				observability.Task(cfg.name),
			)
		}
		if err != nil {
			finish(attempt, err)
			return result, err
		}
		if isTerminal(result) {
			finish(attempt, nil)
			return result, nil
		}
		last = result

		if cfg.maxAttempts > 0 && attempt >= cfg.maxAttempts {
			exceeded := &AttemptsExceededError{Attempts: attempt}
			finish(attempt, exceeded)
			return last, exceeded
		}

		wait := cfg.interval(attempt)
		if wait < 0 {
			wait = 0
		}
		if cfg.timeout > 0 {
			if elapsed := time.Since(start); elapsed+wait > cfg.timeout {
				timeout := &TimeoutError{Timeout: cfg.timeout, Elapsed: elapsed, Attempts: attempt}
				finish(attempt, timeout)
				return last, timeout
			}
		}

		if observer != nil {
			observer.Debug(ctx, "Task not terminal, waiting",
				observability.Task(cfg.name),
				observability.Int(observability.AttrPollAttempt, attempt),
				observability.Duration(observability.AttrPollInterval, wait),
			)
			span.AddEvent(observability.EventPollAttempt,
				observability.Int(observability.AttrPollAttempt, attempt),
				observability.Duration(observability.AttrPollInterval, wait),
			)
		}

		timer := time.NewTimer(wait)
		select {
		case <-ctx.Done():
			timer.Stop()
			finish(attempt, ctx.Err())
			return last, ctx.Err()
		case <-timer.C:
		}
	}
}

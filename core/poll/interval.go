package poll

import (
	"math"
	"time"
)

// IntervalPolicy returns how long to wait after the given attempt (1-based)
// before issuing the next check.
type IntervalPolicy func(attempt int) time.Duration

// Fixed waits the same duration after every attempt.
func Fixed(interval time.Duration) IntervalPolicy {
	return func(int) time.Duration {
		return interval
	}
}

// Backoff waits initial after the first attempt and multiplies the wait by
// factor after each further attempt, never exceeding maxInterval.
// A factor below 1 is treated as 1. A maxInterval of zero means no cap.
//
//	Backoff(time.Second, 1.5, 10*time.Second) // 1s, 1.5s, 2.25s, ... 10s
func Backoff(initial time.Duration, factor float64, maxInterval time.Duration) IntervalPolicy {
	if factor < 1 {
		factor = 1
	}
	return func(attempt int) time.Duration {
		if attempt < 1 {
			attempt = 1
		}
		wait := float64(initial) * math.Pow(factor, float64(attempt-1))
		if maxInterval > 0 && wait > float64(maxInterval) {
			return maxInterval
		}
		if wait > math.MaxInt64 {
			return time.Duration(math.MaxInt64)
		}
		return time.Duration(wait)
	}
}

// DefaultBackoff is the policy used by the vendor task pollers: 1s growing by
// 1.5x up to 10s.
func DefaultBackoff() IntervalPolicy {
	return Backoff(time.Second, 1.5, 10*time.Second)
}

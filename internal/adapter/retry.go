// Package adapter provides implementations for external AI provider integrations.
package adapter

import "time"

const (
	// DefaultMaxAttempts is the shared attempt budget for provider calls.
	DefaultMaxAttempts = 6

	// DefaultRetryDelay is the fixed delay between attempts. There is no
	// backoff growth and no jitter.
	DefaultRetryDelay = 1 * time.Second
)

// RetryPolicy retries failed provider calls under a uniform policy: every
// error from the transport is retried identically, whether or not it could
// ever succeed on a later attempt, and the last error is surfaced once the
// budget is spent.
type RetryPolicy struct {
	// MaxAttempts is the total number of attempts, including the first.
	MaxAttempts int

	// Delay is the fixed pause between attempts. It is applied between
	// attempts only, never after the last one.
	Delay time.Duration

	// Sleep is the sleep function; nil means time.Sleep. Tests substitute a
	// recording or zero-delay function here instead of waiting on real time.
	Sleep func(time.Duration)
}

// DefaultRetryPolicy returns the shared policy: six attempts, one second
// apart.
func DefaultRetryPolicy() RetryPolicy {
	return RetryPolicy{
		MaxAttempts: DefaultMaxAttempts,
		Delay:       DefaultRetryDelay,
	}
}

// Do runs fn until it succeeds or the attempt budget is spent. The call
// blocks the calling goroutine for the configured delay between attempts.
// It returns nil on the first success, otherwise the error from the final
// attempt.
func (p RetryPolicy) Do(fn func() error) error {
	attempts := p.MaxAttempts
	if attempts <= 0 {
		attempts = DefaultMaxAttempts
	}
	sleep := p.Sleep
	if sleep == nil {
		sleep = time.Sleep
	}

	var lastErr error
	for attempt := 1; attempt <= attempts; attempt++ {
		if attempt > 1 {
			sleep(p.Delay)
		}
		lastErr = fn()
		if lastErr == nil {
			return nil
		}
	}
	return lastErr
}

// attempts reports the effective attempt budget.
func (p RetryPolicy) attempts() int {
	if p.MaxAttempts <= 0 {
		return DefaultMaxAttempts
	}
	return p.MaxAttempts
}

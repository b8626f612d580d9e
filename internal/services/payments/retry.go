package payments

import (
	"context"
	"time"
)

type RetryPolicy struct {
	Attempts int
	Delay    time.Duration
}

// Do runs fn until it succeeds or the attempts run out, doubling the delay
// between tries. It returns the number of attempts made and the last error.
func (p RetryPolicy) Do(ctx context.Context, fn func(attempt int) error) (int, error) {
	attempts := p.Attempts
	if attempts < 1 {
		attempts = 1
	}
	delay := p.Delay

	var err error
	for attempt := 1; attempt <= attempts; attempt++ {
		if err = fn(attempt); err == nil {
			return attempt, nil
		}
		if attempt == attempts {
			return attempt, err
		}
		if delay > 0 {
			select {
			case <-ctx.Done():
				return attempt, err
			case <-time.After(delay):
			}
			delay *= 2
		}
	}
	return attempts, err
}

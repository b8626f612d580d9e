package payments

import (
	"context"
	"errors"
	"testing"
	"time"
)

func TestRetryPolicyStopsOnSuccess(t *testing.T) {
	calls := 0
	attempts, err := RetryPolicy{Attempts: 5}.Do(context.Background(), func(int) error {
		calls++
		if calls < 2 {
			return errors.New("again")
		}
		return nil
	})
	if err != nil || attempts != 2 || calls != 2 {
		t.Fatalf("attempts=%d calls=%d err=%v", attempts, calls, err)
	}
}

func TestRetryPolicyAtLeastOnce(t *testing.T) {
	calls := 0
	_, err := RetryPolicy{}.Do(context.Background(), func(int) error {
		calls++
		return errors.New("boom")
	})
	if err == nil || calls != 1 {
		t.Fatalf("expected one failing call, got calls=%d err=%v", calls, err)
	}
}

func TestRetryPolicyHonoursCancellation(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	calls := 0
	attempts, err := RetryPolicy{Attempts: 5, Delay: time.Hour}.Do(ctx, func(int) error {
		calls++
		cancel()
		return errors.New("boom")
	})
	if err == nil || attempts != 1 || calls != 1 {
		t.Fatalf("expected to stop after cancel, attempts=%d calls=%d", attempts, calls)
	}
}

package sweeper

import (
	"context"
	"errors"
	"io"
	"testing"
	"time"

	"github.com/sirupsen/logrus"
)

type expirerStub struct {
	n     int
	err   error
	ttl   time.Duration
	calls int
}

func (e *expirerStub) ExpireStale(_ context.Context, ttl time.Duration, _ int) (int, error) {
	e.calls++
	e.ttl = ttl
	return e.n, e.err
}

func quiet() *logrus.Logger {
	l := logrus.New()
	l.SetOutput(io.Discard)
	return l
}

func TestRunOnce(t *testing.T) {
	stub := &expirerStub{n: 3}
	s := New(stub, 30*time.Minute, "0 */15 * * * *", quiet())

	if n := s.RunOnce(context.Background()); n != 3 {
		t.Fatalf("expected 3, got %d", n)
	}
	if stub.ttl != 30*time.Minute {
		t.Fatalf("ttl not passed through: %s", stub.ttl)
	}

	stub.err = errors.New("db down")
	stub.n = 0
	if n := s.RunOnce(context.Background()); n != 0 {
		t.Fatalf("expected 0 on error, got %d", n)
	}
}

func TestStartRejectsBadSchedule(t *testing.T) {
	s := New(&expirerStub{}, time.Minute, "not a schedule", quiet())
	if err := s.Start(); err == nil {
		t.Fatal("expected schedule parse error")
	}
}

func TestStartStop(t *testing.T) {
	s := New(&expirerStub{}, time.Minute, "0 0 * * * *", quiet())
	if err := s.Start(); err != nil {
		t.Fatal(err)
	}
	s.Stop()
}

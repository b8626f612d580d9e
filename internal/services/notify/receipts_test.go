package notify

import (
	"context"
	"errors"
	"io"
	"strings"
	"sync"
	"testing"

	"github.com/Pradumn88/lms-college-site-sub000/internal/domain/billing"

	"github.com/sirupsen/logrus"
)

type sourceStub struct{ err error }

func (s sourceStub) ReceiptFor(_ context.Context, id string) (Receipt, error) {
	if s.err != nil {
		return Receipt{}, s.err
	}
	return Receipt{PurchaseID: id, Email: "ana@example.com", CourseTitle: "Go", Amount: "90.00", Currency: "USD"}, nil
}

type senderStub struct {
	mu     sync.Mutex
	fail   int
	sent   []string
	bodies []string
	tries  int
}

func (s *senderStub) Send(_ context.Context, to, _, body string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.tries++
	if s.fail > 0 {
		s.fail--
		return errors.New("smtp down")
	}
	s.sent = append(s.sent, to)
	s.bodies = append(s.bodies, body)
	return nil
}

func quiet() *logrus.Logger {
	l := logrus.New()
	l.SetOutput(io.Discard)
	return l
}

func TestReceiptSentWithRetry(t *testing.T) {
	sender := &senderStub{fail: 2}
	r := NewReceipts(sourceStub{}, sender, quiet())
	r.delay = 0

	r.PurchaseCompleted(billing.Purchase{ID: "p-1"})
	r.Wait()

	if sender.tries != 3 || len(sender.sent) != 1 || sender.sent[0] != "ana@example.com" {
		t.Fatalf("unexpected sends: tries=%d sent=%v", sender.tries, sender.sent)
	}
	if !strings.Contains(sender.bodies[0], "p-1") {
		t.Fatal("receipt must mention the purchase id")
	}
}

func TestReceiptGivesUp(t *testing.T) {
	sender := &senderStub{fail: 10}
	r := NewReceipts(sourceStub{}, sender, quiet())
	r.delay = 0

	r.PurchaseCompleted(billing.Purchase{ID: "p-1"})
	r.Wait()

	if sender.tries != 3 || len(sender.sent) != 0 {
		t.Fatalf("expected 3 failed tries, got %d", sender.tries)
	}
}

func TestReceiptSkipsWhenLookupFails(t *testing.T) {
	sender := &senderStub{}
	r := NewReceipts(sourceStub{err: errors.New("gone")}, sender, quiet())

	r.PurchaseCompleted(billing.Purchase{ID: "p-1"})
	r.Wait()

	if sender.tries != 0 {
		t.Fatal("nothing must be sent without receipt data")
	}
}

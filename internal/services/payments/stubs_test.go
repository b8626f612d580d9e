package payments

import (
	"context"
	"errors"
	"fmt"
	"io"
	"sync"
	"time"

	"github.com/Pradumn88/lms-college-site-sub000/internal/domain/billing"
	"github.com/Pradumn88/lms-college-site-sub000/internal/domain/courses"
	"github.com/Pradumn88/lms-college-site-sub000/internal/repo"

	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"
)

type memStore struct {
	mu          sync.Mutex
	purchases   map[string]billing.Purchase
	enrollments map[string]int
	failWrites  int
	writeCalls  int
}

func newMemStore() *memStore {
	return &memStore{
		purchases:   map[string]billing.Purchase{},
		enrollments: map[string]int{},
	}
}

func enrollmentKey(userID uint, courseID string) string {
	return fmt.Sprintf("%d:%s", userID, courseID)
}

func (s *memStore) Create(_ context.Context, p *billing.Purchase) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if p.CreatedAt.IsZero() {
		p.CreatedAt = time.Now()
	}
	s.purchases[p.ID] = *p
	return nil
}

func (s *memStore) FindByID(_ context.Context, id string) (billing.Purchase, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	p, ok := s.purchases[id]
	if !ok {
		return billing.Purchase{}, repo.ErrNotFound
	}
	return p, nil
}

func (s *memStore) AttachCheckout(_ context.Context, id string, refs billing.ProviderRefs) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	p, ok := s.purchases[id]
	if !ok {
		return repo.ErrNotFound
	}
	if v := refs.StripeSessionID; v != "" && p.StripeSessionID == nil {
		p.StripeSessionID = &v
	}
	if v := refs.RazorpayOrderID; v != "" && p.RazorpayOrderID == nil {
		p.RazorpayOrderID = &v
	}
	s.purchases[id] = p
	return nil
}

func (s *memStore) CompleteAndEnroll(_ context.Context, id string, refs billing.ProviderRefs, at time.Time) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.writeCalls++
	if s.failWrites > 0 {
		s.failWrites--
		return false, errors.New("transaction aborted")
	}
	p, ok := s.purchases[id]
	if !ok || p.Status != billing.StatusPending {
		return false, nil
	}
	p.Status = billing.StatusCompleted
	p.CompletedAt = &at
	applyConfirmationRefs(&p, refs)
	s.purchases[id] = p
	s.enrollments[enrollmentKey(p.UserID, p.CourseID)]++
	return true, nil
}

func (s *memStore) MarkFailed(_ context.Context, id string, refs billing.ProviderRefs, at time.Time) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.writeCalls++
	p, ok := s.purchases[id]
	if !ok || p.Status != billing.StatusPending {
		return false, nil
	}
	p.Status = billing.StatusFailed
	p.FailedAt = &at
	applyConfirmationRefs(&p, refs)
	s.purchases[id] = p
	return true, nil
}

func (s *memStore) ListPendingBefore(_ context.Context, cutoff time.Time, limit int) ([]billing.Purchase, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []billing.Purchase
	for _, p := range s.purchases {
		if p.Status == billing.StatusPending && p.CreatedAt.Before(cutoff) && len(out) < limit {
			out = append(out, p)
		}
	}
	return out, nil
}

func (s *memStore) IsEnrolled(_ context.Context, userID uint, courseID string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.enrollments[enrollmentKey(userID, courseID)] > 0, nil
}

func (s *memStore) enrollmentCount(userID uint, courseID string) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.enrollments[enrollmentKey(userID, courseID)]
}

func (s *memStore) status(id string) billing.Status {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.purchases[id].Status
}

func (s *memStore) setStatus(id string, status billing.Status) {
	s.mu.Lock()
	defer s.mu.Unlock()
	p := s.purchases[id]
	p.Status = status
	s.purchases[id] = p
	s.writeCalls = 0
}

func (s *memStore) writes() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.writeCalls
}

func (s *memStore) count() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.purchases)
}

type courseStub map[string]courses.Course

func (c courseStub) FindPublished(_ context.Context, id string) (courses.Course, error) {
	course, ok := c[id]
	if !ok || !course.IsPublished {
		return courses.Course{}, repo.ErrNotFound
	}
	return course, nil
}

type providerStub struct {
	method billing.PaymentMethod
	err    error
	calls  int
}

func (p *providerStub) CreateCheckout(_ context.Context, req CheckoutRequest) (CheckoutSession, error) {
	p.calls++
	if p.err != nil {
		return CheckoutSession{}, p.err
	}
	s := CheckoutSession{Method: p.method, Currency: req.Currency}
	switch p.method {
	case billing.MethodStripe:
		s.Refs.StripeSessionID = "cs_" + req.PurchaseID
		s.RedirectURL = "https://checkout.example/" + req.PurchaseID
	case billing.MethodRazorpay:
		s.Refs.RazorpayOrderID = "order_" + req.PurchaseID
		s.OrderID = s.Refs.RazorpayOrderID
	}
	return s, nil
}

// verifierStub accepts a signature equal to "sig:" + payload.
type verifierStub struct{}

func (verifierStub) Verify(payload []byte, signature string) error {
	if signature != sign(payload) {
		return errors.New("signature mismatch")
	}
	return nil
}

func sign(payload []byte) string { return "sig:" + string(payload) }

func quietLogger() *logrus.Logger {
	l := logrus.New()
	l.SetOutput(io.Discard)
	return l
}

const (
	buyerID  uint = 7
	courseID      = "c101"
)

type fixture struct {
	store      *memStore
	stripe     *providerStub
	razorpay   *providerStub
	ledger     *Ledger
	reconciler *Reconciler
}

func newFixture() *fixture {
	store := newMemStore()
	stripe := &providerStub{method: billing.MethodStripe}
	razorpay := &providerStub{method: billing.MethodRazorpay}
	log := quietLogger()

	ids := 0
	ledger := NewLedger(LedgerDeps{
		Purchases:   store,
		Enrollments: store,
		Courses: courseStub{courseID: {
			ID:          courseID,
			Title:       "Distributed Systems",
			Price:       decimal.NewFromInt(100),
			Discount:    10,
			IsPublished: true,
		}},
		Providers: map[billing.PaymentMethod]CheckoutProvider{
			billing.MethodStripe:   stripe,
			billing.MethodRazorpay: razorpay,
		},
		Currency: "USD",
		Retry:    RetryPolicy{Attempts: 3},
		Logger:   log,
	})
	ledger.newID = func() string {
		ids++
		return fmt.Sprintf("p%d", ids)
	}

	reconciler := NewReconciler(ledger, map[Channel]SignatureVerifier{
		ChannelStripeWebhook:    verifierStub{},
		ChannelRazorpayCheckout: verifierStub{},
		ChannelRazorpayWebhook:  verifierStub{},
	}, log)

	return &fixture{store: store, stripe: stripe, razorpay: razorpay, ledger: ledger, reconciler: reconciler}
}

func (f *fixture) razorpayCheckout(purchaseID string) Confirmation {
	payload := []byte("order_" + purchaseID + "|pay_" + purchaseID)
	return Confirmation{
		Channel:    ChannelRazorpayCheckout,
		Kind:       EventPaid,
		PurchaseID: purchaseID,
		UserID:     buyerID,
		Refs: billing.ProviderRefs{
			RazorpayOrderID:   "order_" + purchaseID,
			RazorpayPaymentID: "pay_" + purchaseID,
		},
		Payload:   payload,
		Signature: sign(payload),
	}
}

func (f *fixture) razorpayWebhook(purchaseID string, kind EventKind) Confirmation {
	payload := []byte(`{"event":"payment.captured","purchase_id":"` + purchaseID + `"}`)
	return Confirmation{
		Channel:    ChannelRazorpayWebhook,
		Kind:       kind,
		PurchaseID: purchaseID,
		Refs: billing.ProviderRefs{
			RazorpayOrderID:   "order_" + purchaseID,
			RazorpayPaymentID: "pay_" + purchaseID,
		},
		Payload:   payload,
		Signature: sign(payload),
	}
}

func (f *fixture) stripeWebhook(purchaseID string, kind EventKind) Confirmation {
	payload := []byte(`{"type":"payment_intent.succeeded","purchase_id":"` + purchaseID + `"}`)
	return Confirmation{
		Channel:    ChannelStripeWebhook,
		Kind:       kind,
		PurchaseID: purchaseID,
		Refs:       billing.ProviderRefs{StripePaymentIntentID: "pi_" + purchaseID},
		Payload:    payload,
		Signature:  sign(payload),
	}
}

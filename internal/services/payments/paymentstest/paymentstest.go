// Package paymentstest provides in-memory stores and providers for tests of
// code built on the payments package.
package paymentstest

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/Pradumn88/lms-college-site-sub000/internal/domain/billing"
	"github.com/Pradumn88/lms-college-site-sub000/internal/domain/courses"
	"github.com/Pradumn88/lms-college-site-sub000/internal/repo"
	"github.com/Pradumn88/lms-college-site-sub000/internal/services/payments"
)

// Store implements payments.PurchaseStore and payments.EnrollmentChecker.
type Store struct {
	mu          sync.Mutex
	purchases   map[string]billing.Purchase
	enrollments map[string]bool
}

func NewStore() *Store {
	return &Store{purchases: map[string]billing.Purchase{}, enrollments: map[string]bool{}}
}

func key(userID uint, courseID string) string { return fmt.Sprintf("%d:%s", userID, courseID) }

func (s *Store) Create(_ context.Context, p *billing.Purchase) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if p.CreatedAt.IsZero() {
		p.CreatedAt = time.Now()
	}
	s.purchases[p.ID] = *p
	return nil
}

func (s *Store) FindByID(_ context.Context, id string) (billing.Purchase, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	p, ok := s.purchases[id]
	if !ok {
		return billing.Purchase{}, repo.ErrNotFound
	}
	return p, nil
}

func (s *Store) AttachCheckout(_ context.Context, id string, refs billing.ProviderRefs) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	p, ok := s.purchases[id]
	if !ok {
		return repo.ErrNotFound
	}
	setOnce(&p.StripeSessionID, refs.StripeSessionID)
	setOnce(&p.RazorpayOrderID, refs.RazorpayOrderID)
	s.purchases[id] = p
	return nil
}

func (s *Store) CompleteAndEnroll(_ context.Context, id string, refs billing.ProviderRefs, at time.Time) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	p, ok := s.purchases[id]
	if !ok || p.Status != billing.StatusPending {
		return false, nil
	}
	p.Status = billing.StatusCompleted
	p.CompletedAt = &at
	setOnce(&p.StripePaymentIntentID, refs.StripePaymentIntentID)
	setOnce(&p.RazorpayPaymentID, refs.RazorpayPaymentID)
	s.purchases[id] = p
	s.enrollments[key(p.UserID, p.CourseID)] = true
	return true, nil
}

func (s *Store) MarkFailed(_ context.Context, id string, refs billing.ProviderRefs, at time.Time) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	p, ok := s.purchases[id]
	if !ok || p.Status != billing.StatusPending {
		return false, nil
	}
	p.Status = billing.StatusFailed
	p.FailedAt = &at
	setOnce(&p.StripePaymentIntentID, refs.StripePaymentIntentID)
	setOnce(&p.RazorpayPaymentID, refs.RazorpayPaymentID)
	s.purchases[id] = p
	return true, nil
}

func (s *Store) ListPendingBefore(_ context.Context, cutoff time.Time, limit int) ([]billing.Purchase, error) {
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

func (s *Store) IsEnrolled(_ context.Context, userID uint, courseID string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.enrollments[key(userID, courseID)], nil
}

// Enroll seeds an enrollment without a purchase.
func (s *Store) Enroll(userID uint, courseID string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.enrollments[key(userID, courseID)] = true
}

func (s *Store) Status(id string) billing.Status {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.purchases[id].Status
}

// SetStatus forces a purchase into a status, bypassing transition rules.
func (s *Store) SetStatus(id string, status billing.Status) {
	s.mu.Lock()
	defer s.mu.Unlock()
	p := s.purchases[id]
	p.Status = status
	s.purchases[id] = p
}

func setOnce(dst **string, v string) {
	if v != "" && *dst == nil {
		*dst = &v
	}
}

// Courses implements payments.CourseReader over a fixed set.
type Courses map[string]courses.Course

func (c Courses) FindPublished(_ context.Context, id string) (courses.Course, error) {
	course, ok := c[id]
	if !ok || !course.IsPublished {
		return courses.Course{}, repo.ErrNotFound
	}
	return course, nil
}

// Provider returns deterministic session and order ids derived from the
// purchase id.
type Provider struct {
	Method billing.PaymentMethod
	Err    error
}

func (p *Provider) CreateCheckout(_ context.Context, req payments.CheckoutRequest) (payments.CheckoutSession, error) {
	if p.Err != nil {
		return payments.CheckoutSession{}, p.Err
	}
	s := payments.CheckoutSession{
		Method:      p.Method,
		Currency:    req.Currency,
		AmountMinor: courses.MinorUnits(req.Amount),
	}
	switch p.Method {
	case billing.MethodStripe:
		s.Refs.StripeSessionID = "cs_" + req.PurchaseID
		s.RedirectURL = "https://checkout.example/" + req.PurchaseID
	case billing.MethodRazorpay:
		s.Refs.RazorpayOrderID = "order_" + req.PurchaseID
		s.OrderID = s.Refs.RazorpayOrderID
		s.PublicKey = "rzp_test"
	}
	return s, nil
}

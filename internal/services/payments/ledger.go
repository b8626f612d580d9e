package payments

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/Pradumn88/lms-college-site-sub000/internal/domain/billing"
	"github.com/Pradumn88/lms-college-site-sub000/internal/domain/courses"
	"github.com/Pradumn88/lms-college-site-sub000/internal/repo"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"
)

// Ledger owns purchase records: creation, checkout start and the guarded
// terminal transitions.
type Ledger struct {
	purchases   PurchaseStore
	enrollments EnrollmentChecker
	courses     CourseReader
	providers   map[billing.PaymentMethod]CheckoutProvider
	currency    string
	retry       RetryPolicy
	notifier    CompletionNotifier
	log         logrus.FieldLogger
	now         func() time.Time
	newID       func() string
}

type LedgerDeps struct {
	Purchases   PurchaseStore
	Enrollments EnrollmentChecker
	Courses     CourseReader
	// Providers holds only the configured providers.
	Providers map[billing.PaymentMethod]CheckoutProvider
	Currency  string
	Retry     RetryPolicy
	Notifier  CompletionNotifier
	Logger    logrus.FieldLogger
}

func NewLedger(deps LedgerDeps) *Ledger {
	logger := deps.Logger
	if logger == nil {
		logger = logrus.StandardLogger()
	}
	providers := map[billing.PaymentMethod]CheckoutProvider{}
	for m, p := range deps.Providers {
		if p != nil {
			providers[m] = p
		}
	}
	return &Ledger{
		purchases:   deps.Purchases,
		enrollments: deps.Enrollments,
		courses:     deps.Courses,
		providers:   providers,
		currency:    deps.Currency,
		retry:       deps.Retry,
		notifier:    deps.Notifier,
		log:         logger,
		now:         time.Now,
		newID:       uuid.NewString,
	}
}

// Outcome is the result of a terminal transition request. Changed is false
// when the call was a no-op.
type Outcome struct {
	Purchase billing.Purchase
	Changed  bool
}

type Quote struct {
	CourseID    string          `json:"course_id"`
	CourseTitle string          `json:"course_title"`
	Price       decimal.Decimal `json:"price"`
	Discount    int             `json:"discount"`
	Amount      decimal.Decimal `json:"amount"`
	Currency    string          `json:"currency"`
	Methods     []string        `json:"methods"`
}

// Quote is the price preview behind POST /purchase. It writes nothing.
func (l *Ledger) Quote(ctx context.Context, userID uint, courseID string) (Quote, error) {
	course, err := l.purchasable(ctx, userID, courseID)
	if err != nil {
		return Quote{}, err
	}
	methods := make([]string, 0, len(l.providers))
	for _, m := range []billing.PaymentMethod{billing.MethodStripe, billing.MethodRazorpay} {
		if _, ok := l.providers[m]; ok {
			methods = append(methods, string(m))
		}
	}
	return Quote{
		CourseID:    course.ID,
		CourseTitle: course.Title,
		Price:       course.Price,
		Discount:    course.Discount,
		Amount:      course.FinalPrice(),
		Currency:    l.currency,
		Methods:     methods,
	}, nil
}

// CreatePurchase records a pending purchase with the amount computed from
// the course's current price and discount.
func (l *Ledger) CreatePurchase(ctx context.Context, userID uint, courseID string, method billing.PaymentMethod) (billing.Purchase, error) {
	p, _, err := l.createPurchase(ctx, userID, courseID, method)
	return p, err
}

func (l *Ledger) createPurchase(ctx context.Context, userID uint, courseID string, method billing.PaymentMethod) (billing.Purchase, courses.Course, error) {
	if userID == 0 {
		return billing.Purchase{}, courses.Course{}, ErrValidation
	}
	if _, err := billing.ParsePaymentMethod(string(method)); err != nil {
		return billing.Purchase{}, courses.Course{}, ErrUnsupportedMethod
	}

	course, err := l.purchasable(ctx, userID, courseID)
	if err != nil {
		return billing.Purchase{}, courses.Course{}, err
	}

	p := billing.Purchase{
		ID:            l.newID(),
		UserID:        userID,
		CourseID:      course.ID,
		Amount:        course.FinalPrice(),
		Currency:      l.currency,
		Status:        billing.StatusPending,
		PaymentMethod: method,
	}
	if err := l.purchases.Create(ctx, &p); err != nil {
		return billing.Purchase{}, courses.Course{}, fmt.Errorf("create purchase: %w", err)
	}

	l.log.WithFields(logrus.Fields{
		"purchase_id": p.ID,
		"user_id":     userID,
		"course_id":   course.ID,
		"method":      method,
		"amount":      p.Amount.StringFixed(2),
	}).Info("purchase created")
	return p, course, nil
}

func (l *Ledger) purchasable(ctx context.Context, userID uint, courseID string) (courses.Course, error) {
	if courseID == "" {
		return courses.Course{}, ErrValidation
	}
	enrolled, err := l.enrollments.IsEnrolled(ctx, userID, courseID)
	if err != nil {
		return courses.Course{}, fmt.Errorf("check enrollment: %w", err)
	}
	if enrolled {
		return courses.Course{}, ErrAlreadyEnrolled
	}

	course, err := l.courses.FindPublished(ctx, courseID)
	if errors.Is(err, repo.ErrNotFound) {
		return courses.Course{}, ErrCourseNotFound
	}
	if err != nil {
		return courses.Course{}, fmt.Errorf("load course: %w", err)
	}
	return course, nil
}

type CheckoutInput struct {
	UserID        uint
	CourseID      string
	Method        billing.PaymentMethod
	CustomerEmail string
}

type CheckoutResult struct {
	Purchase billing.Purchase
	Session  CheckoutSession
}

// StartCheckout creates the pending purchase and the provider session/order
// for it. A provider failure leaves the purchase pending; the client retries
// the whole checkout.
func (l *Ledger) StartCheckout(ctx context.Context, in CheckoutInput) (CheckoutResult, error) {
	provider, ok := l.providers[in.Method]
	if !ok {
		if _, err := billing.ParsePaymentMethod(string(in.Method)); err != nil {
			return CheckoutResult{}, ErrUnsupportedMethod
		}
		return CheckoutResult{}, ErrProviderUnavailable
	}

	p, course, err := l.createPurchase(ctx, in.UserID, in.CourseID, in.Method)
	if err != nil {
		return CheckoutResult{}, err
	}

	session, err := provider.CreateCheckout(ctx, CheckoutRequest{
		PurchaseID:    p.ID,
		UserID:        p.UserID,
		CourseID:      p.CourseID,
		CourseTitle:   course.Title,
		CustomerEmail: in.CustomerEmail,
		Amount:        p.Amount,
		Currency:      p.Currency,
	})
	if err != nil {
		l.log.WithError(err).WithFields(logrus.Fields{
			"purchase_id": p.ID,
			"method":      in.Method,
		}).Warn("provider checkout creation failed")
		return CheckoutResult{}, &ProviderError{Method: in.Method, Err: err}
	}

	if err := l.purchases.AttachCheckout(ctx, p.ID, session.Refs); err != nil {
		return CheckoutResult{}, fmt.Errorf("attach checkout: %w", err)
	}
	if v := session.Refs.StripeSessionID; v != "" {
		p.StripeSessionID = &v
	}
	if v := session.Refs.RazorpayOrderID; v != "" {
		p.RazorpayOrderID = &v
	}
	return CheckoutResult{Purchase: p, Session: session}, nil
}

func (l *Ledger) find(ctx context.Context, id string) (billing.Purchase, error) {
	if id == "" {
		return billing.Purchase{}, ErrPurchaseNotFound
	}
	p, err := l.purchases.FindByID(ctx, id)
	if errors.Is(err, repo.ErrNotFound) {
		return billing.Purchase{}, ErrPurchaseNotFound
	}
	if err != nil {
		return billing.Purchase{}, fmt.Errorf("load purchase: %w", err)
	}
	return p, nil
}

// MarkCompleted completes a pending purchase and enrolls the buyer exactly
// once. Completed purchases are a successful no-op; failed ones are rejected
// with ErrPurchaseFailed.
func (l *Ledger) MarkCompleted(ctx context.Context, id string, refs billing.ProviderRefs) (Outcome, error) {
	p, err := l.find(ctx, id)
	if err != nil {
		return Outcome{}, err
	}
	entry := l.log.WithFields(logrus.Fields{
		"purchase_id": p.ID,
		"user_id":     p.UserID,
		"course_id":   p.CourseID,
		"method":      p.PaymentMethod,
	})

	if !billing.CanTransition(p.Status, billing.StatusCompleted) {
		if p.Status == billing.StatusCompleted {
			entry.Info("purchase already completed, confirmation ignored")
			return Outcome{Purchase: p}, nil
		}
		entry.WithField("status", p.Status).Warn("confirmation received for failed purchase")
		return Outcome{Purchase: p}, ErrPurchaseFailed
	}

	at := l.now().UTC()
	var changed bool
	attempts, err := l.retry.Do(ctx, func(attempt int) error {
		c, err := l.purchases.CompleteAndEnroll(ctx, p.ID, refs, at)
		if err != nil {
			entry.WithError(err).WithField("attempt", attempt).Warn("enrollment write failed")
			return err
		}
		changed = c
		return nil
	})
	if err != nil {
		entry.WithError(err).WithFields(logrus.Fields{
			"attempt": attempts,
			"alert":   "critical",
		}).Error("paid purchase could not be enrolled")
		return Outcome{}, &PartialEnrollmentWriteError{PurchaseID: p.ID, Attempts: attempts, Err: err}
	}

	if !changed {
		// Another delivery moved the purchase first.
		current, err := l.find(ctx, p.ID)
		if err != nil {
			return Outcome{}, err
		}
		if current.Status == billing.StatusFailed {
			entry.Warn("confirmation lost race to failure")
			return Outcome{Purchase: current}, ErrPurchaseFailed
		}
		return Outcome{Purchase: current}, nil
	}

	p.Status = billing.StatusCompleted
	p.CompletedAt = &at
	applyConfirmationRefs(&p, refs)
	entry.Info("purchase completed, user enrolled")
	if l.notifier != nil {
		l.notifier.PurchaseCompleted(p)
	}
	return Outcome{Purchase: p, Changed: true}, nil
}

// MarkFailed fails a pending purchase. Terminal purchases are left alone; a
// failure report for a completed purchase is logged as an inconsistency.
func (l *Ledger) MarkFailed(ctx context.Context, id string, refs billing.ProviderRefs) (Outcome, error) {
	p, err := l.find(ctx, id)
	if err != nil {
		return Outcome{}, err
	}
	entry := l.log.WithFields(logrus.Fields{
		"purchase_id": p.ID,
		"user_id":     p.UserID,
		"method":      p.PaymentMethod,
	})

	if !billing.CanTransition(p.Status, billing.StatusFailed) {
		if p.Status != billing.StatusFailed {
			entry.WithField("status", p.Status).Warn("failure reported for completed purchase, ignored")
		}
		return Outcome{Purchase: p}, nil
	}

	at := l.now().UTC()
	changed, err := l.purchases.MarkFailed(ctx, p.ID, refs, at)
	if err != nil {
		return Outcome{}, fmt.Errorf("mark purchase failed: %w", err)
	}
	if !changed {
		current, err := l.find(ctx, p.ID)
		if err != nil {
			return Outcome{}, err
		}
		if current.Status == billing.StatusCompleted {
			entry.Warn("failure reported for completed purchase, ignored")
		}
		return Outcome{Purchase: current}, nil
	}

	p.Status = billing.StatusFailed
	p.FailedAt = &at
	applyConfirmationRefs(&p, refs)
	entry.Info("purchase marked failed")
	return Outcome{Purchase: p, Changed: true}, nil
}

// ExpireStale fails pending purchases created before now-ttl. It returns the
// number of purchases it moved.
func (l *Ledger) ExpireStale(ctx context.Context, ttl time.Duration, batch int) (int, error) {
	if ttl <= 0 {
		return 0, nil
	}
	if batch <= 0 {
		batch = 100
	}
	stale, err := l.purchases.ListPendingBefore(ctx, l.now().Add(-ttl), batch)
	if err != nil {
		return 0, fmt.Errorf("list stale purchases: %w", err)
	}

	expired := 0
	for _, p := range stale {
		out, err := l.MarkFailed(ctx, p.ID, billing.ProviderRefs{})
		if err != nil {
			return expired, err
		}
		if out.Changed {
			expired++
		}
	}
	return expired, nil
}

func applyConfirmationRefs(p *billing.Purchase, refs billing.ProviderRefs) {
	if v := refs.StripePaymentIntentID; v != "" && p.StripePaymentIntentID == nil {
		p.StripePaymentIntentID = &v
	}
	if v := refs.RazorpayPaymentID; v != "" && p.RazorpayPaymentID == nil {
		p.RazorpayPaymentID = &v
	}
}

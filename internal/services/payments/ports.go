package payments

import (
	"context"
	"time"

	"github.com/Pradumn88/lms-college-site-sub000/internal/domain/billing"
	"github.com/Pradumn88/lms-college-site-sub000/internal/domain/courses"

	"github.com/shopspring/decimal"
)

type PurchaseStore interface {
	Create(ctx context.Context, p *billing.Purchase) error
	FindByID(ctx context.Context, id string) (billing.Purchase, error)
	// AttachCheckout records the session/order id once; already set ids are kept.
	AttachCheckout(ctx context.Context, id string, refs billing.ProviderRefs) error
	// CompleteAndEnroll moves a pending purchase to completed and inserts the
	// enrollment in one unit. changed is false when the purchase was not pending.
	CompleteAndEnroll(ctx context.Context, id string, refs billing.ProviderRefs, at time.Time) (changed bool, err error)
	MarkFailed(ctx context.Context, id string, refs billing.ProviderRefs, at time.Time) (changed bool, err error)
	ListPendingBefore(ctx context.Context, cutoff time.Time, limit int) ([]billing.Purchase, error)
}

type EnrollmentChecker interface {
	IsEnrolled(ctx context.Context, userID uint, courseID string) (bool, error)
}

type CourseReader interface {
	FindPublished(ctx context.Context, id string) (courses.Course, error)
}

type CheckoutRequest struct {
	PurchaseID    string
	UserID        uint
	CourseID      string
	CourseTitle   string
	CustomerEmail string
	Amount        decimal.Decimal
	Currency      string
}

type CheckoutSession struct {
	Method      billing.PaymentMethod
	Refs        billing.ProviderRefs
	RedirectURL string // stripe
	OrderID     string // razorpay
	AmountMinor int64
	Currency    string
	PublicKey   string
}

type CheckoutProvider interface {
	CreateCheckout(ctx context.Context, req CheckoutRequest) (CheckoutSession, error)
}

// SignatureVerifier checks that payload was signed by the provider.
type SignatureVerifier interface {
	Verify(payload []byte, signature string) error
}

// CompletionNotifier is told about every purchase that was just completed.
// Implementations must not block.
type CompletionNotifier interface {
	PurchaseCompleted(p billing.Purchase)
}

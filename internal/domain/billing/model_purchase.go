package billing

import (
	"time"

	"github.com/Pradumn88/lms-college-site-sub000/internal/domain/courses"
	"github.com/Pradumn88/lms-college-site-sub000/internal/domain/users"

	"github.com/shopspring/decimal"
)

// Purchase is one checkout attempt for one course by one user. Rows are never
// deleted; Amount is fixed at creation.
type Purchase struct {
	ID string `gorm:"type:uuid;primaryKey" json:"id"`

	UserID   uint            `gorm:"not null;index" json:"user_id"`
	User     *users.User     `gorm:"constraint:OnDelete:RESTRICT;" json:"user,omitempty"`
	CourseID string          `gorm:"type:uuid;not null;index" json:"course_id"`
	Course   *courses.Course `gorm:"constraint:OnDelete:RESTRICT;" json:"course,omitempty"`

	Amount   decimal.Decimal `gorm:"type:numeric(10,2);not null" json:"amount"`
	Currency string          `gorm:"type:varchar(3);not null" json:"currency"`

	Status        Status        `gorm:"type:varchar(20);not null;default:'pending';index" json:"status"`
	PaymentMethod PaymentMethod `gorm:"type:varchar(20);not null" json:"payment_method"`

	StripeSessionID       *string `gorm:"uniqueIndex" json:"stripe_session_id,omitempty"`
	StripePaymentIntentID *string `gorm:"uniqueIndex" json:"stripe_payment_intent_id,omitempty"`
	RazorpayOrderID       *string `gorm:"uniqueIndex" json:"razorpay_order_id,omitempty"`
	RazorpayPaymentID     *string `gorm:"uniqueIndex" json:"razorpay_payment_id,omitempty"`

	CompletedAt *time.Time `json:"completed_at,omitempty"`
	FailedAt    *time.Time `json:"failed_at,omitempty"`
	CreatedAt   time.Time  `json:"created_at"`
	UpdatedAt   time.Time  `json:"updated_at"`
}

// ProviderRefs carries provider correlation ids. Empty fields are ignored.
type ProviderRefs struct {
	StripeSessionID       string
	StripePaymentIntentID string
	RazorpayOrderID       string
	RazorpayPaymentID     string
}

// CheckoutColumns are the ids known when the provider session/order is created.
func (r ProviderRefs) CheckoutColumns() map[string]interface{} {
	out := map[string]interface{}{}
	if r.StripeSessionID != "" {
		out["stripe_session_id"] = r.StripeSessionID
	}
	if r.RazorpayOrderID != "" {
		out["razorpay_order_id"] = r.RazorpayOrderID
	}
	return out
}

// ConfirmationColumns are the ids known once the provider reports the outcome.
func (r ProviderRefs) ConfirmationColumns() map[string]interface{} {
	out := map[string]interface{}{}
	if r.StripePaymentIntentID != "" {
		out["stripe_payment_intent_id"] = r.StripePaymentIntentID
	}
	if r.RazorpayPaymentID != "" {
		out["razorpay_payment_id"] = r.RazorpayPaymentID
	}
	return out
}

func derefString(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}

// Refs returns the correlation ids currently recorded on the purchase.
func (p Purchase) Refs() ProviderRefs {
	return ProviderRefs{
		StripeSessionID:       derefString(p.StripeSessionID),
		StripePaymentIntentID: derefString(p.StripePaymentIntentID),
		RazorpayOrderID:       derefString(p.RazorpayOrderID),
		RazorpayPaymentID:     derefString(p.RazorpayPaymentID),
	}
}

package billing

import "time"

type RefundStatus string

const (
	RefundRequested RefundStatus = "requested"
	RefundApproved  RefundStatus = "approved"
	RefundRejected  RefundStatus = "rejected"
)

// Refund is a user's request to get a completed purchase refunded. The
// money movement itself happens in the provider dashboard.
type Refund struct {
	ID         uint         `gorm:"primaryKey" json:"id"`
	PurchaseID string       `gorm:"type:uuid;not null;uniqueIndex" json:"purchase_id"`
	Purchase   *Purchase    `gorm:"constraint:OnDelete:RESTRICT;" json:"purchase,omitempty"`
	UserID     uint         `gorm:"not null;index" json:"user_id"`
	Reason     string       `gorm:"type:text" json:"reason"`
	Status     RefundStatus `gorm:"type:varchar(20);not null;default:'requested';index" json:"status"`
	ResolvedAt *time.Time   `json:"resolved_at,omitempty"`
	CreatedAt  time.Time    `json:"created_at"`
	UpdatedAt  time.Time    `json:"updated_at"`
}

// HistoryRow is the payment-history projection: a purchase plus the course
// title and any refund state.
type HistoryRow struct {
	PurchaseID    string        `json:"purchase_id"`
	UserID        uint          `json:"user_id,omitempty"`
	UserEmail     string        `json:"user_email,omitempty"`
	CourseID      string        `json:"course_id"`
	CourseTitle   string        `json:"course_title"`
	Amount        string        `json:"amount"`
	Currency      string        `json:"currency"`
	Status        Status        `json:"status"`
	PaymentMethod PaymentMethod `json:"payment_method"`
	RefundStatus  *RefundStatus `json:"refund_status,omitempty"`
	CreatedAt     time.Time     `json:"created_at"`
	CompletedAt   *time.Time    `json:"completed_at,omitempty"`
}

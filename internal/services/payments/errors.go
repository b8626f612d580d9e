package payments

import (
	"errors"
	"fmt"

	"github.com/Pradumn88/lms-college-site-sub000/internal/domain/billing"
)

var (
	ErrValidation             = errors.New("validation error")
	ErrAlreadyEnrolled        = errors.New("already enrolled in this course")
	ErrPaymentVerification    = errors.New("payment verification failed")
	ErrPurchaseNotFound       = errors.New("purchase not found")
	ErrPurchaseFailed         = errors.New("purchase has already failed")
	ErrCourseNotFound         = errors.New("course not found")
	ErrUnsupportedMethod      = errors.New("unsupported payment method")
	ErrProviderUnavailable    = errors.New("payment provider is not configured")
	ErrPartialEnrollmentWrite = errors.New("enrollment write failed")
)

// PartialEnrollmentWriteError means the purchase could not be moved to
// completed together with its enrollment, even after retrying.
type PartialEnrollmentWriteError struct {
	PurchaseID string
	Attempts   int
	Err        error
}

func (e *PartialEnrollmentWriteError) Error() string {
	return fmt.Sprintf("enrollment write for purchase %s failed after %d attempts: %v", e.PurchaseID, e.Attempts, e.Err)
}

func (e *PartialEnrollmentWriteError) Unwrap() error { return e.Err }

func (e *PartialEnrollmentWriteError) Is(target error) bool {
	return target == ErrPartialEnrollmentWrite
}

// ProviderError wraps a failure returned by a payment provider SDK.
type ProviderError struct {
	Method billing.PaymentMethod
	Err    error
}

func (e *ProviderError) Error() string {
	return fmt.Sprintf("%s provider: %v", e.Method, e.Err)
}

func (e *ProviderError) Unwrap() error { return e.Err }

package respond

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"reflect"
	"strings"

	"github.com/Pradumn88/lms-college-site-sub000/internal/repo"
	"github.com/Pradumn88/lms-college-site-sub000/internal/services/otp"
	"github.com/Pradumn88/lms-college-site-sub000/internal/services/payments"

	"github.com/gin-gonic/gin"
	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"
)

// Fail writes the error body every endpoint shares.
func Fail(c *gin.Context, status int, code, message string) {
	c.AbortWithStatusJSON(status, gin.H{"error": message, "code": code})
}

func Unauthorized(c *gin.Context, message string) {
	Fail(c, http.StatusUnauthorized, "unauthorized", message)
}

func Forbidden(c *gin.Context, message string) {
	Fail(c, http.StatusForbidden, "forbidden", message)
}

func NotFound(c *gin.Context, message string) {
	Fail(c, http.StatusNotFound, "not_found", message)
}

func BadRequest(c *gin.Context, message string) {
	Fail(c, http.StatusBadRequest, "bad_request", message)
}

// Validation answers a binding failure. Validator errors are flattened to
// field -> message; malformed JSON gets a plain message.
func Validation(c *gin.Context, err error) {
	var verrs validator.ValidationErrors
	if errors.As(err, &verrs) {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{
			"error":  "validation failed",
			"code":   "validation_error",
			"fields": FormatValidationErrors(verrs),
		})
		return
	}

	var syntaxErr *json.SyntaxError
	var typeErr *json.UnmarshalTypeError
	switch {
	case errors.As(err, &syntaxErr), errors.Is(err, io.EOF), errors.Is(err, io.ErrUnexpectedEOF):
		Fail(c, http.StatusBadRequest, "validation_error", "malformed JSON body")
	case errors.As(err, &typeErr):
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{
			"error":  "validation failed",
			"code":   "validation_error",
			"fields": map[string]string{typeErr.Field: fmt.Sprintf("%s must be a %s", typeErr.Field, typeErr.Type)},
		})
	default:
		Fail(c, http.StatusBadRequest, "validation_error", "invalid request")
	}
}

func FormatValidationErrors(verrs validator.ValidationErrors) map[string]string {
	out := make(map[string]string, len(verrs))
	for _, e := range verrs {
		field := e.Field()
		switch e.Tag() {
		case "required":
			out[field] = fmt.Sprintf("%s is required", field)
		case "email":
			out[field] = "Invalid email format"
		case "min":
			out[field] = fmt.Sprintf("%s must be at least %s characters", field, e.Param())
		case "max":
			out[field] = fmt.Sprintf("%s must be at most %s characters", field, e.Param())
		case "gte":
			out[field] = fmt.Sprintf("%s must be greater than or equal to %s", field, e.Param())
		case "lte":
			out[field] = fmt.Sprintf("%s must be less than or equal to %s", field, e.Param())
		case "oneof":
			out[field] = fmt.Sprintf("%s must be one of: %s", field, e.Param())
		case "uuid", "uuid4":
			out[field] = fmt.Sprintf("%s must be a valid id", field)
		case "len":
			out[field] = fmt.Sprintf("%s must be %s characters long", field, e.Param())
		default:
			out[field] = fmt.Sprintf("%s is invalid", field)
		}
	}
	return out
}

// UseJSONFieldNames makes validation errors report json field names.
func UseJSONFieldNames() {
	v, ok := binding.Validator.Engine().(*validator.Validate)
	if !ok {
		return
	}
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name := strings.SplitN(f.Tag.Get("json"), ",", 2)[0]
		if name == "" || name == "-" {
			return f.Name
		}
		return name
	})
}

// Error maps service and storage errors onto status codes.
func Error(c *gin.Context, err error) {
	var (
		partial  *payments.PartialEnrollmentWriteError
		provider *payments.ProviderError
	)
	switch {
	case errors.Is(err, payments.ErrValidation):
		Fail(c, http.StatusBadRequest, "validation_error", "invalid request")
	case errors.Is(err, payments.ErrPaymentVerification):
		Fail(c, http.StatusBadRequest, "payment_verification_failed", "Payment verification failed")
	case errors.Is(err, payments.ErrUnsupportedMethod):
		Fail(c, http.StatusBadRequest, "unsupported_method", "Unsupported payment method")
	case errors.Is(err, payments.ErrAlreadyEnrolled):
		Fail(c, http.StatusConflict, "already_enrolled", "You are already enrolled in this course")
	case errors.Is(err, payments.ErrPurchaseFailed):
		Fail(c, http.StatusConflict, "purchase_failed", "This purchase has already failed, start a new checkout")
	case errors.Is(err, repo.ErrConflict):
		Fail(c, http.StatusConflict, "conflict", "The request conflicts with the current state")
	case errors.Is(err, payments.ErrPurchaseNotFound):
		Fail(c, http.StatusNotFound, "purchase_not_found", "Purchase not found")
	case errors.Is(err, payments.ErrCourseNotFound):
		Fail(c, http.StatusNotFound, "course_not_found", "Course not found")
	case errors.Is(err, repo.ErrNotFound):
		Fail(c, http.StatusNotFound, "not_found", "Not found")
	case errors.Is(err, otp.ErrInvalidCode):
		Fail(c, http.StatusBadRequest, "invalid_code", otp.ErrInvalidCode.Error())
	case errors.Is(err, otp.ErrTooManyAttempts):
		Fail(c, http.StatusTooManyRequests, "too_many_attempts", otp.ErrTooManyAttempts.Error())
	case errors.Is(err, otp.ErrCooldown):
		Fail(c, http.StatusTooManyRequests, "otp_cooldown", otp.ErrCooldown.Error())
	case errors.Is(err, payments.ErrProviderUnavailable):
		Fail(c, http.StatusServiceUnavailable, "provider_unavailable", "Payment provider is not available")
	case errors.As(err, &provider):
		Fail(c, http.StatusBadGateway, "provider_error", "Payment provider error, please retry checkout")
	case errors.As(err, &partial):
		Fail(c, http.StatusInternalServerError, "enrollment_write_failed", "Payment received but enrollment is delayed, it will be retried")
	case errors.Is(err, context.DeadlineExceeded):
		Fail(c, http.StatusGatewayTimeout, "timeout", "Request timed out")
	default:
		Fail(c, http.StatusInternalServerError, "internal_error", "Internal server error")
	}
	_ = c.Error(err)
}

package billing

import (
	"fmt"
	"strings"
)

type Status string

const (
	StatusPending   Status = "pending"
	StatusCompleted Status = "completed"
	StatusFailed    Status = "failed"
)

var transitions = map[Status]map[Status]struct{}{
	StatusPending: {StatusCompleted: {}, StatusFailed: {}},
}

// CanTransition reports whether a purchase may move from one status to another.
// Completed and Failed are terminal.
func CanTransition(from, to Status) bool {
	next, ok := transitions[from]
	if !ok {
		return false
	}
	_, ok = next[to]
	return ok
}

func (s Status) IsTerminal() bool {
	return s == StatusCompleted || s == StatusFailed
}

type PaymentMethod string

const (
	MethodStripe   PaymentMethod = "stripe"
	MethodRazorpay PaymentMethod = "razorpay"
)

func ParsePaymentMethod(raw string) (PaymentMethod, error) {
	switch m := PaymentMethod(strings.ToLower(strings.TrimSpace(raw))); m {
	case MethodStripe, MethodRazorpay:
		return m, nil
	default:
		return "", fmt.Errorf("unknown payment method %q", raw)
	}
}

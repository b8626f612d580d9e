package stripe

import (
	"encoding/json"
	"fmt"

	"github.com/Pradumn88/lms-college-site-sub000/internal/domain/billing"
	"github.com/Pradumn88/lms-college-site-sub000/internal/services/payments"

	stripego "github.com/stripe/stripe-go/v75"
)

// Action is what a Stripe event means for a purchase.
type Action struct {
	EventType  string
	Ignore     bool
	Kind       payments.EventKind
	PurchaseID string
	Refs       billing.ProviderRefs
}

func ParseEvent(payload []byte) (stripego.Event, error) {
	var event stripego.Event
	if err := json.Unmarshal(payload, &event); err != nil {
		return stripego.Event{}, fmt.Errorf("parse stripe event: %w", err)
	}
	if event.Data == nil {
		return stripego.Event{}, fmt.Errorf("parse stripe event: missing data")
	}
	return event, nil
}

// Classify maps an event onto a reconciler action. Events that carry no
// purchase id were not created by this app and are ignored.
func Classify(event stripego.Event) (Action, error) {
	a := Action{EventType: string(event.Type)}

	switch event.Type {
	case "payment_intent.succeeded", "payment_intent.payment_failed":
		var pi stripego.PaymentIntent
		if err := json.Unmarshal(event.Data.Raw, &pi); err != nil {
			return a, fmt.Errorf("parse payment intent: %w", err)
		}
		a.PurchaseID = pi.Metadata["purchase_id"]
		a.Refs.StripePaymentIntentID = pi.ID
		a.Kind = payments.EventPaid
		if event.Type == "payment_intent.payment_failed" {
			a.Kind = payments.EventFailed
		}

	case "checkout.session.completed",
		"checkout.session.async_payment_succeeded",
		"checkout.session.async_payment_failed",
		"checkout.session.expired":
		var s stripego.CheckoutSession
		if err := json.Unmarshal(event.Data.Raw, &s); err != nil {
			return a, fmt.Errorf("parse checkout session: %w", err)
		}
		a.PurchaseID = s.Metadata["purchase_id"]
		if a.PurchaseID == "" {
			a.PurchaseID = s.ClientReferenceID
		}
		a.Refs.StripeSessionID = s.ID
		if s.PaymentIntent != nil {
			a.Refs.StripePaymentIntentID = s.PaymentIntent.ID
		}

		switch event.Type {
		case "checkout.session.completed":
			// delayed methods report completion before the money arrives
			if s.PaymentStatus != stripego.CheckoutSessionPaymentStatusPaid {
				a.Ignore = true
			}
			a.Kind = payments.EventPaid
		case "checkout.session.async_payment_succeeded":
			a.Kind = payments.EventPaid
		default:
			a.Kind = payments.EventFailed
		}

	default:
		a.Ignore = true
	}

	if a.PurchaseID == "" {
		a.Ignore = true
	}
	return a, nil
}

package payments

import (
	"context"
	"fmt"

	"github.com/Pradumn88/lms-college-site-sub000/internal/domain/billing"

	"github.com/sirupsen/logrus"
)

// Channel is the path a provider confirmation arrived on.
type Channel string

const (
	ChannelStripeWebhook    Channel = "stripe_webhook"
	ChannelRazorpayCheckout Channel = "razorpay_checkout"
	ChannelRazorpayWebhook  Channel = "razorpay_webhook"
)

func (c Channel) Method() billing.PaymentMethod {
	switch c {
	case ChannelStripeWebhook:
		return billing.MethodStripe
	case ChannelRazorpayCheckout, ChannelRazorpayWebhook:
		return billing.MethodRazorpay
	}
	return ""
}

type EventKind string

const (
	EventPaid   EventKind = "paid"
	EventFailed EventKind = "failed"
)

// Confirmation is a provider report about one purchase. Payload and
// Signature are exactly what the provider signed.
type Confirmation struct {
	Channel    Channel
	Kind       EventKind
	PurchaseID string
	// UserID restricts the lookup to the caller's purchases; 0 for webhooks.
	UserID    uint
	Refs      billing.ProviderRefs
	Payload   []byte
	Signature string
}

// Reconciler turns verified provider confirmations into purchase and
// enrollment state. Webhooks and the manual verify endpoint both go through
// Reconcile, so arrival order does not change the end state.
type Reconciler struct {
	ledger    *Ledger
	verifiers map[Channel]SignatureVerifier
	log       logrus.FieldLogger
}

func NewReconciler(ledger *Ledger, verifiers map[Channel]SignatureVerifier, logger logrus.FieldLogger) *Reconciler {
	if logger == nil {
		logger = logrus.StandardLogger()
	}
	vs := map[Channel]SignatureVerifier{}
	for ch, v := range verifiers {
		if v != nil {
			vs[ch] = v
		}
	}
	return &Reconciler{ledger: ledger, verifiers: vs, log: logger}
}

// Enabled reports whether confirmations on the channel can be verified.
func (r *Reconciler) Enabled(ch Channel) bool {
	_, ok := r.verifiers[ch]
	return ok
}

// Authenticate checks the provider signature without touching any state.
func (r *Reconciler) Authenticate(ch Channel, payload []byte, signature string) error {
	v, ok := r.verifiers[ch]
	if !ok {
		return ErrProviderUnavailable
	}
	if err := v.Verify(payload, signature); err != nil {
		r.log.WithError(err).WithField("channel", ch).Warn("payment signature rejected, possible tampering")
		return fmt.Errorf("%w: %v", ErrPaymentVerification, err)
	}
	return nil
}

func (r *Reconciler) Reconcile(ctx context.Context, c Confirmation) (Outcome, error) {
	if err := r.Authenticate(c.Channel, c.Payload, c.Signature); err != nil {
		return Outcome{}, err
	}

	p, err := r.ledger.find(ctx, c.PurchaseID)
	if err != nil {
		return Outcome{}, err
	}
	if c.UserID != 0 && p.UserID != c.UserID {
		return Outcome{}, ErrPurchaseNotFound
	}
	if err := r.checkCorrelation(p, c); err != nil {
		r.log.WithError(err).WithFields(logrus.Fields{
			"purchase_id": p.ID,
			"channel":     c.Channel,
		}).Warn("confirmation does not match purchase")
		return Outcome{}, err
	}

	switch c.Kind {
	case EventPaid:
		return r.ledger.MarkCompleted(ctx, p.ID, c.Refs)
	case EventFailed:
		return r.ledger.MarkFailed(ctx, p.ID, c.Refs)
	default:
		return Outcome{}, ErrValidation
	}
}

// checkCorrelation rejects a signed confirmation that belongs to a different
// purchase than the one it names.
func (r *Reconciler) checkCorrelation(p billing.Purchase, c Confirmation) error {
	if p.PaymentMethod != c.Channel.Method() {
		return fmt.Errorf("%w: method mismatch", ErrPaymentVerification)
	}
	recorded := p.Refs()

	switch p.PaymentMethod {
	case billing.MethodRazorpay:
		if c.Channel == ChannelRazorpayCheckout {
			if recorded.RazorpayOrderID == "" || c.Refs.RazorpayOrderID != recorded.RazorpayOrderID {
				return fmt.Errorf("%w: order mismatch", ErrPaymentVerification)
			}
		} else if recorded.RazorpayOrderID != "" && c.Refs.RazorpayOrderID != "" && c.Refs.RazorpayOrderID != recorded.RazorpayOrderID {
			return fmt.Errorf("%w: order mismatch", ErrPaymentVerification)
		}
	case billing.MethodStripe:
		if recorded.StripeSessionID != "" && c.Refs.StripeSessionID != "" && c.Refs.StripeSessionID != recorded.StripeSessionID {
			return fmt.Errorf("%w: session mismatch", ErrPaymentVerification)
		}
	}
	return nil
}

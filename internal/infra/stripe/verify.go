package stripe

import (
	"github.com/stripe/stripe-go/v75/webhook"
)

// WebhookVerifier checks the Stripe-Signature header against the endpoint
// secret, including the timestamp tolerance.
type WebhookVerifier struct {
	secret string
}

func NewWebhookVerifier(secret string) *WebhookVerifier {
	return &WebhookVerifier{secret: secret}
}

func (v *WebhookVerifier) Verify(payload []byte, signature string) error {
	return webhook.ValidatePayload(payload, signature, v.secret)
}

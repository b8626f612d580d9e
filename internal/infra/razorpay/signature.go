package razorpay

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"strings"
)

var ErrBadSignature = errors.New("razorpay signature mismatch")

// HMACVerifier validates Razorpay HMAC-SHA256 signatures. The checkout
// callback is signed with the key secret, webhooks with the webhook secret.
type HMACVerifier struct {
	secret []byte
}

func NewHMACVerifier(secret string) *HMACVerifier {
	return &HMACVerifier{secret: []byte(secret)}
}

func (v *HMACVerifier) Verify(payload []byte, signature string) error {
	sig, err := hex.DecodeString(strings.TrimSpace(signature))
	if err != nil || len(sig) == 0 {
		return ErrBadSignature
	}
	if !hmac.Equal(Sign(v.secret, payload), sig) {
		return ErrBadSignature
	}
	return nil
}

func Sign(secret, payload []byte) []byte {
	mac := hmac.New(sha256.New, secret)
	mac.Write(payload)
	return mac.Sum(nil)
}

// CheckoutPayload is the string Razorpay signs for a checkout callback.
func CheckoutPayload(orderID, paymentID string) []byte {
	return []byte(orderID + "|" + paymentID)
}

package webhooks

import (
	"errors"
	"io"
	"net/http"

	"github.com/Pradumn88/lms-college-site-sub000/internal/app/http/respond"
	"github.com/Pradumn88/lms-college-site-sub000/internal/infra/razorpay"
	"github.com/Pradumn88/lms-college-site-sub000/internal/infra/stripe"
	"github.com/Pradumn88/lms-college-site-sub000/internal/services/payments"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
)

const maxBodyBytes = 65536

type Handler struct {
	reconciler *payments.Reconciler
	log        logrus.FieldLogger
}

func NewHandler(reconciler *payments.Reconciler, log logrus.FieldLogger) *Handler {
	return &Handler{reconciler: reconciler, log: log}
}

// Stripe receives Stripe events. The signature is checked before the body
// is parsed.
func (h *Handler) Stripe(c *gin.Context) {
	payload, ok := h.authenticate(c, payments.ChannelStripeWebhook, c.GetHeader("Stripe-Signature"))
	if !ok {
		return
	}

	event, err := stripe.ParseEvent(payload)
	if err != nil {
		respond.BadRequest(c, "Failed to parse event")
		return
	}
	action, err := stripe.Classify(event)
	if err != nil {
		respond.BadRequest(c, "Failed to parse event object")
		return
	}

	log := h.log.WithFields(logrus.Fields{"event_type": action.EventType, "purchase_id": action.PurchaseID})
	if action.Ignore {
		log.Debug("stripe event ignored")
		c.JSON(http.StatusOK, gin.H{"status": "ignored"})
		return
	}

	h.reconcile(c, log, payments.Confirmation{
		Channel:    payments.ChannelStripeWebhook,
		Kind:       action.Kind,
		PurchaseID: action.PurchaseID,
		Refs:       action.Refs,
		Payload:    payload,
		Signature:  c.GetHeader("Stripe-Signature"),
	})
}

func (h *Handler) Razorpay(c *gin.Context) {
	payload, ok := h.authenticate(c, payments.ChannelRazorpayWebhook, c.GetHeader("X-Razorpay-Signature"))
	if !ok {
		return
	}

	action, err := razorpay.ParseWebhook(payload)
	if err != nil {
		respond.BadRequest(c, "Failed to parse event")
		return
	}

	log := h.log.WithFields(logrus.Fields{"event_type": action.Event, "purchase_id": action.PurchaseID})
	if action.Declined {
		log.WithField("payment_id", action.Refs.RazorpayPaymentID).Info("razorpay payment attempt declined, order stays payable")
		c.JSON(http.StatusOK, gin.H{"status": "declined"})
		return
	}
	if action.Ignore {
		log.Debug("razorpay event ignored")
		c.JSON(http.StatusOK, gin.H{"status": "ignored"})
		return
	}

	h.reconcile(c, log, payments.Confirmation{
		Channel:    payments.ChannelRazorpayWebhook,
		Kind:       action.Kind,
		PurchaseID: action.PurchaseID,
		Refs:       action.Refs,
		Payload:    payload,
		Signature:  c.GetHeader("X-Razorpay-Signature"),
	})
}

func (h *Handler) authenticate(c *gin.Context, ch payments.Channel, signature string) ([]byte, bool) {
	if !h.reconciler.Enabled(ch) {
		respond.Error(c, payments.ErrProviderUnavailable)
		return nil, false
	}

	payload, err := readBody(c, maxBodyBytes)
	if err != nil {
		respond.Fail(c, http.StatusRequestEntityTooLarge, "body_too_large", "Error reading request body")
		return nil, false
	}
	if err := h.reconciler.Authenticate(ch, payload, signature); err != nil {
		respond.Error(c, err)
		return nil, false
	}
	return payload, true
}

// reconcile answers 200 for anything the provider should stop re-sending,
// including duplicates, and non-2xx for anything it should retry.
func (h *Handler) reconcile(c *gin.Context, log logrus.FieldLogger, conf payments.Confirmation) {
	out, err := h.reconciler.Reconcile(c.Request.Context(), conf)
	if err != nil {
		if errors.Is(err, payments.ErrPurchaseFailed) {
			log.WithError(err).Error("payment confirmed for a failed purchase, manual review required")
		}
		respond.Error(c, err)
		return
	}

	if !out.Changed {
		log.WithField("status", out.Purchase.Status).Info("duplicate or late confirmation acknowledged")
	}
	c.JSON(http.StatusOK, gin.H{"status": "received"})
}

func readBody(c *gin.Context, maxBytes int64) ([]byte, error) {
	c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, maxBytes)
	return io.ReadAll(c.Request.Body)
}

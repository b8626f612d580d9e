package razorpay

import (
	"encoding/json"
	"fmt"

	"github.com/Pradumn88/lms-college-site-sub000/internal/domain/billing"
	"github.com/Pradumn88/lms-college-site-sub000/internal/services/payments"
)

// notes is an object when set and an empty array when not.
type notes map[string]string

func (n *notes) UnmarshalJSON(b []byte) error {
	var m map[string]interface{}
	if err := json.Unmarshal(b, &m); err != nil {
		*n = nil
		return nil
	}
	out := make(notes, len(m))
	for k, v := range m {
		out[k] = fmt.Sprint(v)
	}
	*n = out
	return nil
}

type entity struct {
	ID      string `json:"id"`
	OrderID string `json:"order_id"`
	Status  string `json:"status"`
	Notes   notes  `json:"notes"`
}

type webhookEvent struct {
	Event   string `json:"event"`
	Payload struct {
		Payment *struct {
			Entity entity `json:"entity"`
		} `json:"payment"`
		Order *struct {
			Entity entity `json:"entity"`
		} `json:"order"`
	} `json:"payload"`
}

type Action struct {
	Event  string
	Ignore bool
	// Declined marks a failed payment attempt. The order stays payable, so
	// the purchase is left pending.
	Declined   bool
	Kind       payments.EventKind
	PurchaseID string
	Refs       billing.ProviderRefs
}

// ParseWebhook decodes a Razorpay webhook body into a reconciler action.
func ParseWebhook(body []byte) (Action, error) {
	var ev webhookEvent
	if err := json.Unmarshal(body, &ev); err != nil {
		return Action{}, fmt.Errorf("parse razorpay webhook: %w", err)
	}
	a := Action{Event: ev.Event}

	switch ev.Event {
	case "payment.captured", "order.paid":
		a.Kind = payments.EventPaid
	case "payment.failed":
		a.Declined = true
	default:
		a.Ignore = true
		return a, nil
	}

	if p := ev.Payload.Payment; p != nil {
		a.Refs.RazorpayPaymentID = p.Entity.ID
		a.Refs.RazorpayOrderID = p.Entity.OrderID
		a.PurchaseID = p.Entity.Notes["purchase_id"]
	}
	if o := ev.Payload.Order; o != nil {
		a.Refs.RazorpayOrderID = o.Entity.ID
		if id := o.Entity.Notes["purchase_id"]; id != "" {
			a.PurchaseID = id
		}
	}
	if a.PurchaseID == "" || a.Declined {
		a.Ignore = true
	}
	return a, nil
}

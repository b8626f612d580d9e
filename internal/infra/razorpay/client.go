package razorpay

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/Pradumn88/lms-college-site-sub000/internal/domain/billing"
	"github.com/Pradumn88/lms-college-site-sub000/internal/domain/courses"
	"github.com/Pradumn88/lms-college-site-sub000/internal/services/payments"

	razorpaygo "github.com/razorpay/razorpay-go"
)

type orderCreator interface {
	Create(data map[string]interface{}, extraHeaders map[string]string) (map[string]interface{}, error)
}

// Checkout creates Razorpay orders that the frontend opens with Checkout.js.
type Checkout struct {
	orders  orderCreator
	keyID   string
	timeout time.Duration
}

// NewCheckout bounds every order call by timeout; zero leaves only the
// caller's deadline.
func NewCheckout(keyID, keySecret string, timeout time.Duration) *Checkout {
	c := razorpaygo.NewClient(keyID, keySecret)
	return &Checkout{orders: c.Order, keyID: keyID, timeout: timeout}
}

type orderResult struct {
	body map[string]interface{}
	err  error
}

func (c *Checkout) CreateCheckout(ctx context.Context, req payments.CheckoutRequest) (payments.CheckoutSession, error) {
	amount := courses.MinorUnits(req.Amount)
	currency := strings.ToUpper(req.Currency)
	data := map[string]interface{}{
		"amount":   amount,
		"currency": currency,
		"receipt":  req.PurchaseID,
		"notes": map[string]interface{}{
			"purchase_id": req.PurchaseID,
			"user_id":     fmt.Sprint(req.UserID),
			"course_id":   req.CourseID,
		},
	}

	if c.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.timeout)
		defer cancel()
	}

	// the SDK takes no context; give up waiting when ctx ends
	done := make(chan orderResult, 1)
	go func() {
		body, err := c.orders.Create(data, nil)
		done <- orderResult{body: body, err: err}
	}()

	var res orderResult
	select {
	case <-ctx.Done():
		return payments.CheckoutSession{}, fmt.Errorf("create razorpay order: %w", ctx.Err())
	case res = <-done:
	}
	if res.err != nil {
		return payments.CheckoutSession{}, res.err
	}

	orderID, _ := res.body["id"].(string)
	if orderID == "" {
		return payments.CheckoutSession{}, errors.New("razorpay order response without id")
	}

	return payments.CheckoutSession{
		Method:      billing.MethodRazorpay,
		Refs:        billing.ProviderRefs{RazorpayOrderID: orderID},
		OrderID:     orderID,
		AmountMinor: amount,
		Currency:    currency,
		PublicKey:   c.keyID,
	}, nil
}

package stripe

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/Pradumn88/lms-college-site-sub000/internal/domain/billing"
	"github.com/Pradumn88/lms-college-site-sub000/internal/domain/courses"
	"github.com/Pradumn88/lms-college-site-sub000/internal/services/payments"

	stripego "github.com/stripe/stripe-go/v75"
	"github.com/stripe/stripe-go/v75/client"
)

type sessionCreator interface {
	New(params *stripego.CheckoutSessionParams) (*stripego.CheckoutSession, error)
}

// Checkout creates hosted Stripe Checkout sessions for course purchases.
type Checkout struct {
	sessions sessionCreator
	appURL   string
}

func NewCheckout(secretKey, appURL string, timeout time.Duration) *Checkout {
	sc := client.New(secretKey, stripego.NewBackends(&http.Client{Timeout: timeout}))
	return &Checkout{sessions: sc.CheckoutSessions, appURL: strings.TrimRight(appURL, "/")}
}

func (c *Checkout) CreateCheckout(ctx context.Context, req payments.CheckoutRequest) (payments.CheckoutSession, error) {
	amount := courses.MinorUnits(req.Amount)
	currency := strings.ToLower(req.Currency)
	meta := map[string]string{
		"purchase_id": req.PurchaseID,
		"user_id":     fmt.Sprint(req.UserID),
		"course_id":   req.CourseID,
	}

	params := &stripego.CheckoutSessionParams{
		Mode:              stripego.String(string(stripego.CheckoutSessionModePayment)),
		SuccessURL:        stripego.String(c.appURL + "/loading/my-enrollments?purchase=" + req.PurchaseID),
		CancelURL:         stripego.String(c.appURL + "/course/" + req.CourseID + "?canceled=1"),
		ClientReferenceID: stripego.String(req.PurchaseID),
		LineItems: []*stripego.CheckoutSessionLineItemParams{
			{
				PriceData: &stripego.CheckoutSessionLineItemPriceDataParams{
					Currency: stripego.String(currency),
					ProductData: &stripego.CheckoutSessionLineItemPriceDataProductDataParams{
						Name: stripego.String(req.CourseTitle),
					},
					UnitAmount: stripego.Int64(amount),
				},
				Quantity: stripego.Int64(1),
			},
		},
		PaymentIntentData: &stripego.CheckoutSessionPaymentIntentDataParams{
			Metadata: meta,
		},
	}
	if req.CustomerEmail != "" {
		params.CustomerEmail = stripego.String(req.CustomerEmail)
	}
	for k, v := range meta {
		params.AddMetadata(k, v)
	}
	params.Context = ctx

	s, err := c.sessions.New(params)
	if err != nil {
		return payments.CheckoutSession{}, err
	}

	return payments.CheckoutSession{
		Method:      billing.MethodStripe,
		Refs:        billing.ProviderRefs{StripeSessionID: s.ID},
		RedirectURL: s.URL,
		AmountMinor: amount,
		Currency:    currency,
	}, nil
}

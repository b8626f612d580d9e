package notify

import (
	"context"
	"sync"
	"time"

	"github.com/Pradumn88/lms-college-site-sub000/internal/domain/billing"
	"github.com/Pradumn88/lms-college-site-sub000/internal/infra/mailer"

	"github.com/sirupsen/logrus"
)

type Receipt struct {
	PurchaseID  string
	Email       string
	CourseTitle string
	Amount      string
	Currency    string
}

type ReceiptSource interface {
	ReceiptFor(ctx context.Context, purchaseID string) (Receipt, error)
}

// Receipts mails an enrollment confirmation after a purchase completes.
// Sending happens in the background and never affects the purchase.
type Receipts struct {
	source   ReceiptSource
	sender   mailer.Sender
	log      logrus.FieldLogger
	attempts int
	delay    time.Duration
	wg       sync.WaitGroup
}

func NewReceipts(source ReceiptSource, sender mailer.Sender, log logrus.FieldLogger) *Receipts {
	return &Receipts{source: source, sender: sender, log: log, attempts: 3, delay: time.Second}
}

func (r *Receipts) PurchaseCompleted(p billing.Purchase) {
	r.wg.Add(1)
	go func() {
		defer r.wg.Done()
		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()
		r.send(ctx, p.ID)
	}()
}

// Wait blocks until queued receipts are done. Called on shutdown.
func (r *Receipts) Wait() {
	r.wg.Wait()
}

func (r *Receipts) send(ctx context.Context, purchaseID string) {
	entry := r.log.WithField("purchase_id", purchaseID)

	rc, err := r.source.ReceiptFor(ctx, purchaseID)
	if err != nil {
		entry.WithError(err).Error("load receipt data failed")
		return
	}
	subject, body := mailer.ReceiptMessage(rc.CourseTitle, rc.Amount, rc.Currency, rc.PurchaseID)

	delay := r.delay
	for attempt := 1; attempt <= r.attempts; attempt++ {
		err = r.sender.Send(ctx, rc.Email, subject, body)
		if err == nil {
			entry.WithField("attempt", attempt).Info("receipt sent")
			return
		}
		if attempt < r.attempts {
			entry.WithError(err).WithField("attempt", attempt).Warn("receipt send failed, retrying")
			select {
			case <-ctx.Done():
				entry.WithError(ctx.Err()).Error("receipt not sent")
				return
			case <-time.After(delay):
			}
			delay *= 2
		}
	}
	entry.WithError(err).Error("receipt not sent")
}

package purchase

import (
	"context"
	"net/http"

	"github.com/Pradumn88/lms-college-site-sub000/internal/app/http/respond"
	"github.com/Pradumn88/lms-college-site-sub000/internal/domain/billing"
	"github.com/Pradumn88/lms-college-site-sub000/internal/infra/razorpay"
	"github.com/Pradumn88/lms-college-site-sub000/internal/services/payments"

	"github.com/gin-gonic/gin"
)

type HistoryStore interface {
	HistoryForUser(ctx context.Context, userID uint) ([]billing.HistoryRow, error)
}

type RefundRequester interface {
	Request(ctx context.Context, userID uint, purchaseID, reason string) (billing.Refund, error)
}

type Handler struct {
	ledger     *payments.Ledger
	reconciler *payments.Reconciler
	history    HistoryStore
	refunds    RefundRequester
}

func NewHandler(ledger *payments.Ledger, reconciler *payments.Reconciler, history HistoryStore, refunds RefundRequester) *Handler {
	return &Handler{ledger: ledger, reconciler: reconciler, history: history, refunds: refunds}
}

type courseRequest struct {
	CourseID string `json:"courseId" binding:"required"`
}

// Preview answers POST /purchase with the price breakdown and the methods
// that can be used to pay. Nothing is written.
func (h *Handler) Preview(c *gin.Context) {
	var req courseRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respond.Validation(c, err)
		return
	}

	quote, err := h.ledger.Quote(c.Request.Context(), c.GetUint("user_id"), req.CourseID)
	if err != nil {
		respond.Error(c, err)
		return
	}
	c.JSON(http.StatusOK, quote)
}

func (h *Handler) CheckoutStripe(c *gin.Context) {
	res, ok := h.checkout(c, billing.MethodStripe)
	if !ok {
		return
	}
	c.JSON(http.StatusCreated, gin.H{
		"purchase_id": res.Purchase.ID,
		"session_id":  res.Session.Refs.StripeSessionID,
		"session_url": res.Session.RedirectURL,
	})
}

func (h *Handler) CheckoutRazorpay(c *gin.Context) {
	res, ok := h.checkout(c, billing.MethodRazorpay)
	if !ok {
		return
	}
	c.JSON(http.StatusCreated, gin.H{
		"purchase_id": res.Purchase.ID,
		"order_id":    res.Session.OrderID,
		"amount":      res.Session.AmountMinor,
		"currency":    res.Session.Currency,
		"key":         res.Session.PublicKey,
	})
}

func (h *Handler) checkout(c *gin.Context, method billing.PaymentMethod) (payments.CheckoutResult, bool) {
	var req courseRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respond.Validation(c, err)
		return payments.CheckoutResult{}, false
	}

	res, err := h.ledger.StartCheckout(c.Request.Context(), payments.CheckoutInput{
		UserID:        c.GetUint("user_id"),
		CourseID:      req.CourseID,
		Method:        method,
		CustomerEmail: c.GetString("email"),
	})
	if err != nil {
		respond.Error(c, err)
		return payments.CheckoutResult{}, false
	}
	return res, true
}

type verifyRazorpayRequest struct {
	OrderID    string `json:"razorpay_order_id" binding:"required"`
	PaymentID  string `json:"razorpay_payment_id" binding:"required"`
	Signature  string `json:"razorpay_signature" binding:"required"`
	PurchaseID string `json:"purchaseId" binding:"required"`
}

// VerifyRazorpay is the client-side confirmation path: the browser posts the
// ids and signature it got from the Razorpay checkout widget.
func (h *Handler) VerifyRazorpay(c *gin.Context) {
	var req verifyRazorpayRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respond.Validation(c, err)
		return
	}

	out, err := h.reconciler.Reconcile(c.Request.Context(), payments.Confirmation{
		Channel:    payments.ChannelRazorpayCheckout,
		Kind:       payments.EventPaid,
		PurchaseID: req.PurchaseID,
		UserID:     c.GetUint("user_id"),
		Refs: billing.ProviderRefs{
			RazorpayOrderID:   req.OrderID,
			RazorpayPaymentID: req.PaymentID,
		},
		Payload:   razorpay.CheckoutPayload(req.OrderID, req.PaymentID),
		Signature: req.Signature,
	})
	if err != nil {
		respond.Error(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"purchase_id": out.Purchase.ID,
		"status":      out.Purchase.Status,
		"course_id":   out.Purchase.CourseID,
	})
}

func (h *Handler) History(c *gin.Context) {
	rows, err := h.history.HistoryForUser(c.Request.Context(), c.GetUint("user_id"))
	if err != nil {
		respond.Error(c, err)
		return
	}
	if rows == nil {
		rows = []billing.HistoryRow{}
	}
	c.JSON(http.StatusOK, gin.H{"purchases": rows})
}

type refundRequest struct {
	Reason string `json:"reason" binding:"required,max=1000"`
}

func (h *Handler) RequestRefund(c *gin.Context) {
	var req refundRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respond.Validation(c, err)
		return
	}

	refund, err := h.refunds.Request(c.Request.Context(), c.GetUint("user_id"), c.Param("purchaseId"), req.Reason)
	if err != nil {
		respond.Error(c, err)
		return
	}
	c.JSON(http.StatusCreated, refund)
}

package payment

import (
	"context"
	"errors"
	"fmt"
	"math"
	"net/http"
	"regexp"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/saltyperk/kidocart/internal/auth"
	"github.com/saltyperk/kidocart/internal/domain/order"
)

var digitsOnly = regexp.MustCompile(`[^0-9]`)

// InitiateOrders is the order access the initiate endpoint needs:
// ownership-checked lookup plus recording the issued transaction id.
type InitiateOrders interface {
	ByNumberForUser(ctx context.Context, userID int64, number string) (order.Order, error)
	SetPaymentInitiated(ctx context.Context, number, merchantTxnID string) error
}

type Handler struct {
	client      *Client
	processor   *Processor
	orders      InitiateOrders
	frontendURL string
	log         *zap.Logger
}

func NewHandler(client *Client, processor *Processor, orders InitiateOrders, frontendURL string, log *zap.Logger) *Handler {
	if log == nil {
		log = zap.NewNop()
	}
	return &Handler{client: client, processor: processor, orders: orders, frontendURL: frontendURL, log: log}
}

type initiateReq struct {
	OrderID       string  `json:"order_id" binding:"required"`
	Amount        float64 `json:"amount" binding:"required"`
	CustomerPhone string  `json:"customer_phone" binding:"required"`
}

func (h *Handler) Initiate(c *gin.Context) {
	userID := auth.UserID(c)

	var req initiateReq
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "missing required fields"})
		return
	}

	if req.Amount <= 0 || req.Amount > 1000000 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid amount"})
		return
	}

	phone := digitsOnly.ReplaceAllString(req.CustomerPhone, "")
	if len(phone) != 10 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid phone number"})
		return
	}

	o, err := h.orders.ByNumberForUser(c.Request.Context(), userID, req.OrderID)
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "order not found"})
		return
	}

	if math.Abs(o.Total-req.Amount) > 0.01 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "amount mismatch"})
		return
	}

	txnID := NewMerchantTransactionID(o.OrderNumber, time.Now())

	redirectURL, err := h.client.Initiate(c.Request.Context(), InitiateRequest{
		MerchantTransactionID: txnID,
		MerchantUserID:        fmt.Sprintf("%d", userID),
		AmountPaise:           int64(math.Round(req.Amount * 100)),
		RedirectURL:           fmt.Sprintf("%s/payment/success?orderId=%s&txnId=%s", h.frontendURL, o.OrderNumber, txnID),
		CallbackURL:           h.frontendURL + "/api/payment/phonepe/callback",
		MobileNumber:          phone,
	})
	if err != nil {
		h.log.Error("payment initiation failed",
			zap.String("order_id", o.OrderNumber), zap.Error(err))
		c.JSON(http.StatusBadGateway, gin.H{"error": "failed to initiate payment"})
		return
	}

	if err := h.orders.SetPaymentInitiated(c.Request.Context(), o.OrderNumber, txnID); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to record transaction"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success":                 true,
		"redirect_url":            redirectURL,
		"merchant_transaction_id": txnID,
	})
}

type callbackReq struct {
	Response string `json:"response"`
}

// Callback acknowledges with 200 for any mapped payment status; only
// verification failures and store errors are HTTP failures, and the
// gateway retries those.
func (h *Handler) Callback(c *gin.Context) {
	var req callbackReq
	if err := c.ShouldBindJSON(&req); err != nil || req.Response == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "missing response data"})
		return
	}

	res, err := h.processor.Process(c.Request.Context(), req.Response, c.GetHeader("X-VERIFY"))
	switch {
	case errors.Is(err, ErrBadPayload):
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid response format"})
		return
	case errors.Is(err, ErrBadChecksum):
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid checksum"})
		return
	case errors.Is(err, ErrOrderNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": "order not found"})
		return
	case errors.Is(err, ErrTxnMismatch):
		c.JSON(http.StatusConflict, gin.H{"error": "transaction id mismatch"})
		return
	case err != nil:
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal server error"})
		return
	}

	if res.AlreadyProcessed {
		c.JSON(http.StatusOK, gin.H{"success": true, "message": "Already processed"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "orderId": res.OrderNumber, "status": res.Status})
}

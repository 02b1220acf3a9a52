package payment

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/saltyperk/kidocart/internal/domain/order"
	"github.com/saltyperk/kidocart/internal/events"
)

// Gateway result codes.
const (
	codeSuccess = "PAYMENT_SUCCESS"
	codePending = "PAYMENT_PENDING"
)

var (
	ErrBadPayload    = errors.New("invalid callback payload")
	ErrBadChecksum   = errors.New("checksum verification failed")
	ErrOrderNotFound = errors.New("order not found")
	ErrTxnMismatch   = errors.New("transaction id mismatch")
)

// OrderStore is the slice of order persistence the callback needs.
// SetPaymentResult must be conditional on the order not being paid yet
// and report whether this call applied the change, so racing deliveries
// resolve to exactly one winner.
type OrderStore interface {
	ByNumber(ctx context.Context, number string) (order.Order, error)
	SetPaymentResult(ctx context.Context, number, status, transactionID string, paidAt *time.Time) (bool, error)
}

type CartClearer interface {
	ClearCart(ctx context.Context, userID int64) error
}

type Mailer interface {
	Send(to, subject, body string) error
}

type UserEmails interface {
	EmailByID(ctx context.Context, userID int64) (string, error)
}

// Processor consumes asynchronous, untrusted gateway notifications and
// moves an order's payment state exactly once.
type Processor struct {
	saltKey   string
	saltIndex string

	orders OrderStore
	carts  CartClearer
	events events.Publisher
	mailer Mailer
	users  UserEmails
	log    *zap.Logger
}

func NewProcessor(saltKey, saltIndex string, orders OrderStore, carts CartClearer, pub events.Publisher, mailer Mailer, users UserEmails, log *zap.Logger) *Processor {
	if pub == nil {
		pub = events.Noop{}
	}
	if log == nil {
		log = zap.NewNop()
	}
	return &Processor{
		saltKey:   saltKey,
		saltIndex: saltIndex,
		orders:    orders,
		carts:     carts,
		events:    pub,
		mailer:    mailer,
		users:     users,
		log:       log,
	}
}

type callbackEnvelope struct {
	Code string `json:"code"`
	Data struct {
		MerchantTransactionID string `json:"merchantTransactionId"`
		TransactionID         string `json:"transactionId"`
	} `json:"data"`
}

type Result struct {
	OrderNumber      string
	Status           string
	AlreadyProcessed bool
}

// Process verifies and applies one callback delivery. Deliveries may be
// duplicated or arrive out of order; a second delivery for an already
// paid order is acknowledged without reapplying side effects, and the
// cart is cleared at most once.
func (p *Processor) Process(ctx context.Context, encodedResponse, receivedChecksum string) (Result, error) {
	if encodedResponse == "" {
		return Result{}, ErrBadPayload
	}
	if receivedChecksum == "" {
		return Result{}, ErrBadChecksum
	}

	raw, err := base64.StdEncoding.DecodeString(encodedResponse)
	if err != nil {
		return Result{}, ErrBadPayload
	}
	var env callbackEnvelope
	if err := json.Unmarshal(raw, &env); err != nil {
		return Result{}, ErrBadPayload
	}

	if !VerifyChecksum(receivedChecksum, encodedResponse, p.saltKey, p.saltIndex) {
		p.log.Warn("payment callback checksum mismatch")
		return Result{}, ErrBadChecksum
	}

	txnID := env.Data.MerchantTransactionID
	if txnID == "" {
		return Result{}, ErrBadPayload
	}
	orderNumber, err := OrderNumberFromTransactionID(txnID)
	if err != nil {
		return Result{}, ErrBadPayload
	}

	o, err := p.orders.ByNumber(ctx, orderNumber)
	if err != nil {
		return Result{}, fmt.Errorf("%w: %s", ErrOrderNotFound, orderNumber)
	}

	// a callback for a stale transaction attempt on the same order
	// must not be applied
	if o.MerchantTransactionID != txnID {
		p.log.Warn("payment callback transaction id mismatch",
			zap.String("order_id", orderNumber))
		return Result{}, ErrTxnMismatch
	}

	// idempotency guard: already paid means this delivery is a repeat
	if o.PaymentStatus == order.PaymentPaid {
		return Result{OrderNumber: orderNumber, Status: o.PaymentStatus, AlreadyProcessed: true}, nil
	}

	gatewayTxn := env.Data.TransactionID
	if gatewayTxn == "" {
		gatewayTxn = txnID
	}

	var status string
	var paidAt *time.Time
	switch env.Code {
	case codeSuccess:
		status = order.PaymentPaid
		now := time.Now()
		paidAt = &now
	case codePending:
		status = order.PaymentPending
	default:
		status = order.PaymentFailed
	}

	applied, err := p.orders.SetPaymentResult(ctx, orderNumber, status, gatewayTxn, paidAt)
	if err != nil {
		// the gateway retries on 5xx; the conditional write makes a
		// re-invocation safe
		p.log.Error("payment callback persist failed",
			zap.String("order_id", orderNumber), zap.Error(err))
		return Result{}, err
	}
	if !applied {
		// a racing delivery won between our read and this write; the
		// winner ran the side effects
		return Result{OrderNumber: orderNumber, Status: order.PaymentPaid, AlreadyProcessed: true}, nil
	}

	if status == order.PaymentPaid {
		if err := p.carts.ClearCart(ctx, o.UserID); err != nil {
			p.log.Error("cart clear after payment failed",
				zap.String("order_id", orderNumber), zap.Error(err))
		}

		_ = p.events.Publish(ctx, events.QueueOrderPaid, events.OrderPaid{
			OrderNumber:   orderNumber,
			UserID:        o.UserID,
			Amount:        o.Total,
			TransactionID: gatewayTxn,
			PaidAt:        *paidAt,
		})

		p.sendConfirmation(ctx, o)
	}

	// audit trail for reconciliation
	p.log.Info("payment callback processed",
		zap.String("order_id", orderNumber),
		zap.String("status", status),
		zap.String("txn_id", gatewayTxn))

	return Result{OrderNumber: orderNumber, Status: status}, nil
}

// best-effort: mail failures never fail the callback
func (p *Processor) sendConfirmation(ctx context.Context, o order.Order) {
	if p.mailer == nil || p.users == nil {
		return
	}
	email, err := p.users.EmailByID(ctx, o.UserID)
	if err != nil || email == "" {
		return
	}
	body := fmt.Sprintf("Your payment for order %s was received.\n\nOrder total: %.2f\n\nThank you for shopping with us.",
		o.OrderNumber, o.Total)
	if err := p.mailer.Send(email, "Payment received for "+o.OrderNumber, body); err != nil {
		p.log.Warn("order confirmation mail failed",
			zap.String("order_id", o.OrderNumber), zap.Error(err))
	}
}

package orders

import (
	"context"
	"errors"
	"fmt"
	"math"
	"time"

	"github.com/google/uuid"

	"github.com/saltyperk/kidocart/internal/domain/cart"
	"github.com/saltyperk/kidocart/internal/domain/order"
	"github.com/saltyperk/kidocart/internal/events"
)

var (
	ErrNotFound          = errors.New("order not found")
	ErrEmptyCart         = errors.New("cart is empty")
	ErrInvalidStatus     = errors.New("invalid order status")
	ErrInsufficientStock = errors.New("insufficient stock")
)

// InvalidStateError rejects a lifecycle transition that is illegal for
// the order's current status.
type InvalidStateError struct {
	Status string
}

func (e InvalidStateError) Error() string {
	return fmt.Sprintf("cannot cancel a %s order", e.Status)
}

// Store is order persistence. Create must persist the snapshot and
// decrement stock for every line atomically; it returns
// ErrInsufficientStock when any line would oversell.
type Store interface {
	Create(ctx context.Context, o *order.Order) error
	ByNumber(ctx context.Context, number string) (order.Order, error)
	ByNumberForUser(ctx context.Context, userID int64, number string) (order.Order, error)
	ListByUser(ctx context.Context, userID int64) ([]order.Order, error)
	ListAll(ctx context.Context) ([]order.Order, error)
	// MarkCancelled flips a non-terminal order to cancelled, returns
	// its reserved stock in the same transaction, and reports whether
	// this call did the flip (exactly-once under retry).
	MarkCancelled(ctx context.Context, number string, at time.Time) (bool, error)
	UpdateStatus(ctx context.Context, number, status string) (order.Order, error)
}

type CartReader interface {
	GetCart(ctx context.Context, userID int64) (cart.Cart, error)
}

// Pricing holds the checkout rules: flat shipping fee waived above the
// free-shipping threshold, flat tax on the subtotal.
type Pricing struct {
	FreeShippingThreshold float64
	ShippingFee           float64
	TaxRate               float64
}

type Service struct {
	store   Store
	carts   CartReader
	pricing Pricing
	events  events.Publisher
}

func NewService(store Store, carts CartReader, pricing Pricing, pub events.Publisher) *Service {
	if pub == nil {
		pub = events.Noop{}
	}
	return &Service{store: store, carts: carts, pricing: pricing, events: pub}
}

// Totals computes subtotal/shipping/tax/total for a set of lines.
// total == subtotal + shipping + tax always holds; shipping is 0 iff
// the subtotal clears the free-shipping threshold.
func (s *Service) Totals(items []order.Item) (subtotal, shipping, tax, total float64) {
	for _, it := range items {
		subtotal += it.Price * float64(it.Quantity)
	}
	subtotal = round2(subtotal)

	if subtotal > s.pricing.FreeShippingThreshold {
		shipping = 0
	} else {
		shipping = s.pricing.ShippingFee
	}
	tax = round2(subtotal * s.pricing.TaxRate)
	total = round2(subtotal + shipping + tax)
	return subtotal, shipping, tax, total
}

// NewOrderNumber is the user-facing order reference: millisecond
// timestamp plus a random suffix so concurrent checkouts cannot collide.
func NewOrderNumber(now time.Time) string {
	return fmt.Sprintf("ORD-%d-%s", now.UnixMilli(), uuid.NewString()[:6])
}

type CreateInput struct {
	ShippingAddress order.ShippingAddress
	PaymentMethod   string
}

// Create snapshots the user's cart into an immutable order. Item name,
// price and image are copied at this moment; later catalog edits never
// change the order. Stock is decremented here (compensated on cancel).
// The cart is NOT cleared; that belongs to the payment-success path, so
// a failed payment does not lose the cart.
func (s *Service) Create(ctx context.Context, userID int64, in CreateInput) (order.Order, error) {
	crt, err := s.carts.GetCart(ctx, userID)
	if err != nil {
		return order.Order{}, err
	}
	if len(crt.Items) == 0 {
		return order.Order{}, ErrEmptyCart
	}

	items := make([]order.Item, 0, len(crt.Items))
	for _, ci := range crt.Items {
		items = append(items, order.Item{
			ProductID: ci.ProductID,
			Name:      ci.Name,
			Price:     ci.Price,
			Quantity:  ci.Quantity,
			Size:      ci.Size,
			Color:     ci.Color,
			Image:     ci.Image,
		})
	}

	subtotal, shipping, tax, total := s.Totals(items)
	now := time.Now()

	o := order.Order{
		OrderNumber:     NewOrderNumber(now),
		UserID:          userID,
		Items:           items,
		Subtotal:        subtotal,
		Shipping:        shipping,
		Tax:             tax,
		Total:           total,
		ShippingAddress: in.ShippingAddress,
		PaymentMethod:   in.PaymentMethod,
		PaymentStatus:   order.PaymentPending,
		Status:          order.StatusConfirmed,
		CreatedAt:       now,
		UpdatedAt:       now,
	}

	if err := s.store.Create(ctx, &o); err != nil {
		return order.Order{}, err
	}
	return o, nil
}

func (s *Service) Get(ctx context.Context, userID int64, number string) (order.Order, error) {
	return s.store.ByNumberForUser(ctx, userID, number)
}

func (s *Service) ListForUser(ctx context.Context, userID int64) ([]order.Order, error) {
	return s.store.ListByUser(ctx, userID)
}

func (s *Service) ListAll(ctx context.Context) ([]order.Order, error) {
	return s.store.ListAll(ctx)
}

// Cancel transitions a non-terminal order to cancelled exactly once.
// Not-found and not-owned collapse to ErrNotFound so callers cannot
// enumerate other users' orders. A paid order additionally triggers a
// refund intent; execution is the refund consumer's job.
func (s *Service) Cancel(ctx context.Context, userID int64, number string) (order.Order, error) {
	o, err := s.store.ByNumberForUser(ctx, userID, number)
	if err != nil {
		return order.Order{}, err
	}

	if o.Status == order.StatusDelivered || o.Status == order.StatusCancelled {
		return order.Order{}, InvalidStateError{Status: o.Status}
	}

	now := time.Now()
	flipped, err := s.store.MarkCancelled(ctx, number, now)
	if err != nil {
		return order.Order{}, err
	}
	if !flipped {
		// lost the race to another cancel; re-read and report the state
		o, err = s.store.ByNumberForUser(ctx, userID, number)
		if err != nil {
			return order.Order{}, err
		}
		return order.Order{}, InvalidStateError{Status: o.Status}
	}

	if o.PaymentStatus == order.PaymentPaid {
		_ = s.events.Publish(ctx, events.QueueRefundRequested, events.RefundRequested{
			OrderNumber: o.OrderNumber,
			UserID:      o.UserID,
			Amount:      o.Total,
			RequestedAt: now,
		})
	}

	o.Status = order.StatusCancelled
	o.CancelledAt = &now
	return o, nil
}

// UpdateStatus is the administrative overwrite; only values from the
// fulfillment enum are accepted.
func (s *Service) UpdateStatus(ctx context.Context, number, status string) (order.Order, error) {
	if !order.ValidStatus(status) {
		return order.Order{}, ErrInvalidStatus
	}
	return s.store.UpdateStatus(ctx, number, status)
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}

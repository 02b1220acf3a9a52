package order

import "time"

// Fulfillment statuses. Delivered and cancelled are terminal.
const (
	StatusConfirmed  = "confirmed"
	StatusProcessing = "processing"
	StatusShipped    = "shipped"
	StatusDelivered  = "delivered"
	StatusCancelled  = "cancelled"
)

// Payment statuses. Paid is only reachable through a verified gateway
// callback (or COD confirmation).
const (
	PaymentPending   = "pending"
	PaymentInitiated = "initiated"
	PaymentPaid      = "paid"
	PaymentFailed    = "failed"
)

func ValidStatus(s string) bool {
	switch s {
	case StatusConfirmed, StatusProcessing, StatusShipped, StatusDelivered, StatusCancelled:
		return true
	}
	return false
}

// Order is an immutable snapshot of a cart at checkout time. Item
// name/price/image are copied, not referenced, so later catalog edits
// never change historical orders.
type Order struct {
	ID          int64  `json:"id"`
	OrderNumber string `json:"order_id"`
	UserID      int64  `json:"user_id"`

	Items []Item `json:"items"`

	Subtotal float64 `json:"subtotal"`
	Shipping float64 `json:"shipping"`
	Tax      float64 `json:"tax"`
	Total    float64 `json:"total"`

	ShippingAddress ShippingAddress `json:"shipping_address"`

	PaymentMethod         string     `json:"payment_method"`
	PaymentStatus         string     `json:"payment_status"`
	TransactionID         string     `json:"transaction_id,omitempty"`
	MerchantTransactionID string     `json:"merchant_transaction_id,omitempty"`
	PaidAt                *time.Time `json:"paid_at,omitempty"`

	Status      string     `json:"status"`
	CancelledAt *time.Time `json:"cancelled_at,omitempty"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

type Item struct {
	ProductID int64   `json:"product_id"`
	Name      string  `json:"name"`
	Price     float64 `json:"price"`
	Quantity  int     `json:"quantity"`
	Size      string  `json:"size"`
	Color     string  `json:"color"`
	Image     string  `json:"image,omitempty"`
}

type ShippingAddress struct {
	FirstName string `json:"first_name"`
	LastName  string `json:"last_name"`
	Phone     string `json:"phone"`
	Address   string `json:"address"`
	Address2  string `json:"address2,omitempty"`
	City      string `json:"city"`
	State     string `json:"state"`
	Zip       string `json:"zip"`
	Country   string `json:"country,omitempty"`
}

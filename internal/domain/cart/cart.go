package cart

import "time"

type Cart struct {
	ID        int64      `json:"id"`
	UserID    int64      `json:"user_id"`
	Items     []CartItem `json:"items"`
	UpdatedAt time.Time  `json:"updated_at"`
}

// CartItem is one line item. (ProductID, Size, Color) is the uniqueness
// key; absent size/color is normalized to "" before storage so "no size"
// and "empty size" are the same line.
type CartItem struct {
	ID           int64     `json:"id"`
	ProductID    int64     `json:"product_id"`
	Quantity     int       `json:"quantity"`
	Size         string    `json:"size"`
	Color        string    `json:"color"`
	AddedAt      time.Time `json:"added_at"`
	Name         string    `json:"name"`
	Price        float64   `json:"price"`
	Image        string    `json:"image,omitempty"`
	Stock        int       `json:"stock"`
	Availability bool      `json:"availability"`
}

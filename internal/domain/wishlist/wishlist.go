package wishlist

import "time"

// Item is one saved product. Uniqueness is by (user, product).
type Item struct {
	ProductID    int64     `json:"product_id"`
	AddedAt      time.Time `json:"added_at"`
	Name         string    `json:"name"`
	Price        float64   `json:"price"`
	Image        string    `json:"image,omitempty"`
	Availability bool      `json:"availability"`
	Stock        int       `json:"stock"`
}

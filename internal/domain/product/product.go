package product

import "time"

type Product struct {
	ID            int64     `json:"id"`
	Name          string    `json:"name"`
	Description   string    `json:"description,omitempty"`
	Price         float64   `json:"price"`
	OriginalPrice float64   `json:"original_price,omitempty"`
	Category      string    `json:"category"`
	AgeGroup      string    `json:"age_group,omitempty"`
	Brand         string    `json:"brand,omitempty"`
	Images        []string  `json:"images"`
	Stock         int       `json:"stock"`
	Availability  bool      `json:"availability"`
	Rating        float64   `json:"rating"`
	ReviewCount   int       `json:"review_count"`
	Sizes         []string  `json:"sizes,omitempty"`
	Colors        []string  `json:"colors,omitempty"`
	Badge         string    `json:"badge,omitempty"`
	Featured      bool      `json:"featured"`
	CreatedAt     time.Time `json:"created_at"`
	UpdatedAt     time.Time `json:"updated_at"`
}

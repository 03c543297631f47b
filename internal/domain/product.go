package domain

import "strings"

// Product is a catalog entry as the remote API serves it.
type Product struct {
	ID          string   `json:"_id"`
	Name        string   `json:"name"`
	Price       float64  `json:"price"`
	ListPrice   *float64 `json:"originalPrice,omitempty"`
	Discount    *float64 `json:"discount,omitempty"` // percent off
	Rating      *float64 `json:"rating,omitempty"`
	Category    string   `json:"category"`
	Image       string   `json:"image"`
	Description string   `json:"description"`
}

// CategoryKey is the normalized form used for category filtering.
func (p Product) CategoryKey() string {
	return strings.ToLower(strings.TrimSpace(p.Category))
}

// RatingValue returns the rating, or 0 for unrated products.
func (p Product) RatingValue() float64 {
	if p.Rating == nil {
		return 0
	}
	return *p.Rating
}

package domain

import "time"

type OrderItem struct {
	ProductID string  `json:"productId"`
	Name      string  `json:"name"`
	Price     float64 `json:"price"`
	Quantity  int     `json:"quantity"`
}

// Order is created once per successful checkout and never changes afterwards.
type Order struct {
	ID             string         `json:"_id"`
	UserID         string         `json:"userId"`
	Items          []OrderItem    `json:"items"`
	Total          float64        `json:"total"`
	PaymentMethod  PaymentKind    `json:"paymentMethod"`
	PaymentDetails PaymentDetails `json:"paymentDetails"`
	CreatedAt      time.Time      `json:"createdAt"`
}

// PlaceOrderRequest is the body of POST /api/orders/place-order.
type PlaceOrderRequest struct {
	UserID         string         `json:"userId"`
	Items          []OrderItem    `json:"items"`
	Total          float64        `json:"total"`
	PaymentMethod  PaymentKind    `json:"paymentMethod"`
	PaymentDetails PaymentDetails `json:"paymentDetails"`
}

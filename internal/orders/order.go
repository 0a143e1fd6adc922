// Package orders implements the order backend: a small REST record store
// returning canned or echoed data, backed by SQLite.
package orders

import "time"

// Status is an order's lifecycle state.
type Status string

const (
	StatusPending   Status = "PENDING"
	StatusConfirmed Status = "CONFIRMED"
	StatusShipped   Status = "SHIPPED"
	StatusDelivered Status = "DELIVERED"
	StatusCancelled Status = "CANCELLED"
)

// Order is a customer order.
type Order struct {
	ID            int64       `json:"id"`
	CustomerName  string      `json:"customerName"`
	CustomerEmail string      `json:"customerEmail"`
	Items         []OrderItem `json:"items"`
	TotalAmount   float64     `json:"totalAmount"`
	Status        Status      `json:"status"`
	Address       string      `json:"address,omitempty"`
	OrderDate     time.Time   `json:"orderDate"`
}

// OrderItem is a single line within an order.
type OrderItem struct {
	ItemName string  `json:"itemName"`
	Quantity int     `json:"quantity"`
	Price    float64 `json:"price"`
}

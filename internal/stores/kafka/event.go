package kafka

import "time"

// OrderPlacedItem is one purchased line with the display fields the
// confirmation email needs.
type OrderPlacedItem struct {
	MedicineID string `json:"medicine_id"`
	Name       string `json:"name"`
	PricePaise int64  `json:"price_paise"`
	Quantity   int    `json:"quantity"`
}

// OrderPlacedEvent is published after the order transaction commits.
type OrderPlacedEvent struct {
	OrderID    string            `json:"order_id"`
	UserID     string            `json:"user_id"`
	Email      string            `json:"email"`
	Items      []OrderPlacedItem `json:"items"`
	TotalPaise int64             `json:"total_paise"`
	CreatedAt  time.Time         `json:"created_at"`
}

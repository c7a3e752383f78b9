package orders

import "time"

// Payment and delivery statuses persisted on an order.
const (
	PaymentCompleted   = "Completed"
	PaymentPending     = "Pending"
	DeliveryProcessing = "Processing"
)

// Line is one purchased medicine. Price is deliberately not snapshotted
// here; display prices are resolved by joining the live medicine row.
type Line struct {
	MedicineID string `json:"medicine_id"`
	Quantity   int    `json:"quantity"`
}

// PlacedOrder is the input to the transactional placement step.
type PlacedOrder struct {
	ID              string
	UserID          string
	StripeSessionID string
	Lines           []Line
	TotalPaise      int64
}

// UserOrderItem is an order line resolved for display.
type UserOrderItem struct {
	MedicineID string  `json:"medicine_id"`
	Name       string  `json:"name"`
	Price      float64 `json:"price"`
	ImageURL   string  `json:"image_url"`
	Quantity   int     `json:"quantity"`
}

// UserOrder is one entry in the order history, newest first.
type UserOrder struct {
	ID             string          `json:"id"`
	TotalAmount    float64         `json:"total_amount"`
	PaymentStatus  string          `json:"payment_status"`
	DeliveryStatus string          `json:"delivery_status"`
	CreatedAt      time.Time       `json:"created_at"`
	Items          []UserOrderItem `json:"items"`
}

package order

import (
	"time"

	"github.com/gofrs/uuid"
)

type Status string

const (
	StatusPending   Status = "pending"
	StatusShipped   Status = "shipped"
	StatusDelivered Status = "delivered"
	StatusCancelled Status = "cancelled"
)

func (s Status) String() string {
	return string(s)
}

func (s Status) Valid() bool {
	switch s {
	case StatusPending, StatusShipped, StatusDelivered, StatusCancelled:
		return true
	}
	return false
}

// PaymentMethodCOD is the only supported payment method.
const PaymentMethodCOD = "cod"

// Item is a denormalized snapshot of a product at order time, not a
// live reference: later catalog edits do not change past orders.
type Item struct {
	ProductID uuid.UUID `json:"product_id"`
	Name      string    `json:"name"`
	Price     float64   `json:"price"`
	Quantity  int       `json:"quantity"`
	Size      string    `json:"size"`
	Image     string    `json:"image"`
}

// StatusUpdate is one entry of an order's status history log.
type StatusUpdate struct {
	Status    Status    `json:"status"`
	UpdatedAt time.Time `json:"updated_at"`
	UpdatedBy string    `json:"updated_by"`
	Notes     string    `json:"notes,omitempty"`
}

type Order struct {
	ID              uuid.UUID      `json:"id" db:"id"`
	CustomerName    string         `json:"customer_name" db:"customer_name"`
	CustomerPhone   string         `json:"customer_phone" db:"customer_phone"`
	CustomerEmail   string         `json:"customer_email" db:"customer_email"`
	CustomerAddress string         `json:"customer_address" db:"customer_address"`
	Items           []Item         `json:"order_items" db:"order_items"`
	Total           float64        `json:"total" db:"total"`
	PaymentMethod   string         `json:"payment_method" db:"payment_method"`
	Status          Status         `json:"status" db:"status"`
	StatusHistory   []StatusUpdate `json:"status_history" db:"status_history"`
	CreatedAt       time.Time      `json:"created_at" db:"created_at"`
	UpdatedAt       time.Time      `json:"updated_at" db:"updated_at"`
}

// TrackedOrder is the reduced public projection served by the tracking
// endpoint. No customer contact fields: the 8-char code is guessable.
type TrackedOrder struct {
	ID        uuid.UUID `json:"id"`
	Status    Status    `json:"status"`
	Total     float64   `json:"total"`
	Items     []Item    `json:"order_items"`
	CreatedAt time.Time `json:"created_at"`
}

// TrackingCodeLength is how many leading characters of the order id
// customers receive as a human-facing tracking code.
const TrackingCodeLength = 8

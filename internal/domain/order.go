package domain

import (
	"context"
	"time"
)

// OrderStatusPending is the only status this service ever writes; all later
// transitions belong to the fulfillment backend.
const OrderStatusPending = "Pending"

// Order is the persistent record created once per valid order event.
type Order struct {
	ID                  string
	PhoneNumber         string
	NumberOfPads        int
	DeliveryAddress     string
	SpecialInstructions *string
	Status              string
	CreatedAt           time.Time
}

// OrderStore is the persistence boundary for orders. Create must be atomic:
// either the full record lands or nothing does.
type OrderStore interface {
	CreateOrder(ctx context.Context, order Order) error
	GetOrder(ctx context.Context, id string) (*Order, error)
	ListOrderIDsByPhone(ctx context.Context, phoneNumber string) ([]string, error)
	Close() error
}

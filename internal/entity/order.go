package entity

import (
	"time"

	"github.com/uptrace/bun"
)

// Order statuses.
const (
	OrderStatusPending    = "pending"
	OrderStatusProcessing = "processing"
	OrderStatusShipped    = "shipped"
	OrderStatusDelivered  = "delivered"
	OrderStatusCancelled  = "cancelled"
)

// Order represents a purchase order stored in the relational database.
type Order struct {
	bun.BaseModel `bun:"table:orders"`

	ID                 int64     `bun:",pk,autoincrement"`
	Number             string    `bun:"number,unique,notnull"`
	UserID             int64     `bun:"user_id,notnull"`
	Status             string    `bun:"status,notnull"`
	ShippingName       string    `bun:"shipping_name"`
	ShippingEmail      string    `bun:"shipping_email"`
	ShippingPhone      string    `bun:"shipping_phone"`
	ShippingPostalCode string    `bun:"shipping_postal_code"`
	ShippingPrefecture string    `bun:"shipping_prefecture"`
	ShippingCity       string    `bun:"shipping_city"`
	ShippingAddress    string    `bun:"shipping_address"`
	Notes              string    `bun:"notes"`
	CancelledAt        time.Time `bun:"cancelled_at,nullzero"`
	CancelledBy        int64     `bun:"cancelled_by,nullzero"`
	AssignedSalesID    int64     `bun:"assigned_sales_id,nullzero"`
	CreatedAt          time.Time `bun:"created_at,nullzero,notnull,default:CURRENT_TIMESTAMP"`
	UpdatedAt          time.Time `bun:"updated_at,nullzero"`
}

// Fulfilment statuses staff may move an order between. Cancellation has its
// own operation so the cancelled_at and cancelled_by columns are always set.
var FulfilmentStatuses = []string{
	OrderStatusPending,
	OrderStatusProcessing,
	OrderStatusShipped,
	OrderStatusDelivered,
}

// IsFulfilmentStatus reports whether status is one of FulfilmentStatuses.
func IsFulfilmentStatus(status string) bool {
	for _, s := range FulfilmentStatuses {
		if s == status {
			return true
		}
	}
	return false
}

// Cancellable reports whether the order may still be cancelled.
func (o *Order) Cancellable() bool {
	switch o.Status {
	case OrderStatusCancelled, OrderStatusShipped, OrderStatusDelivered:
		return false
	default:
		return true
	}
}

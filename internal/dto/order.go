package dto

import (
	"time"

	"github.com/Additional-Code/storefront/internal/entity"
)

// OrderResponse represents an order as exposed via transport layers.
type OrderResponse struct {
	ID                 int64      `json:"id"`
	Number             string     `json:"number"`
	UserID             int64      `json:"user_id"`
	Status             string     `json:"status"`
	ShippingName       string     `json:"shipping_name"`
	ShippingEmail      string     `json:"shipping_email"`
	ShippingPhone      string     `json:"shipping_phone,omitempty"`
	ShippingPostalCode string     `json:"shipping_postal_code"`
	ShippingPrefecture string     `json:"shipping_prefecture"`
	ShippingCity       string     `json:"shipping_city"`
	ShippingAddress    string     `json:"shipping_address"`
	Notes              string     `json:"notes,omitempty"`
	CancelledAt        *time.Time `json:"cancelled_at,omitempty"`
	CancelledBy        *int64     `json:"cancelled_by,omitempty"`
	AssignedSalesID    *int64     `json:"assigned_sales_id,omitempty"`
	CreatedAt          time.Time  `json:"created_at"`
	UpdatedAt          time.Time  `json:"updated_at"`
}

// NewOrderResponse projects an order entity onto its transport shape.
func NewOrderResponse(order *entity.Order) OrderResponse {
	resp := OrderResponse{
		ID:                 order.ID,
		Number:             order.Number,
		UserID:             order.UserID,
		Status:             order.Status,
		ShippingName:       order.ShippingName,
		ShippingEmail:      order.ShippingEmail,
		ShippingPhone:      order.ShippingPhone,
		ShippingPostalCode: order.ShippingPostalCode,
		ShippingPrefecture: order.ShippingPrefecture,
		ShippingCity:       order.ShippingCity,
		ShippingAddress:    order.ShippingAddress,
		Notes:              order.Notes,
		CreatedAt:          order.CreatedAt,
		UpdatedAt:          order.UpdatedAt,
	}
	if !order.CancelledAt.IsZero() {
		at := order.CancelledAt
		resp.CancelledAt = &at
	}
	if order.CancelledBy != 0 {
		by := order.CancelledBy
		resp.CancelledBy = &by
	}
	if order.AssignedSalesID != 0 {
		sales := order.AssignedSalesID
		resp.AssignedSalesID = &sales
	}
	return resp
}

// NewOrderListResponse maps orders to responses; the result is never nil.
func NewOrderListResponse(orders []entity.Order) []OrderResponse {
	out := make([]OrderResponse, 0, len(orders))
	for i := range orders {
		out = append(out, NewOrderResponse(&orders[i]))
	}
	return out
}

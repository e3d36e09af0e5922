package dto

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Additional-Code/storefront/internal/entity"
)

func TestNewOrderListResponseEmptyIsArray(t *testing.T) {
	out := NewOrderListResponse(nil)
	require.NotNil(t, out)

	raw, err := json.Marshal(out)
	require.NoError(t, err)
	assert.JSONEq(t, `[]`, string(raw))
}

func TestNewOrderResponseCancellationFields(t *testing.T) {
	now := time.Date(2025, 1, 2, 3, 4, 5, 0, time.UTC)

	open := NewOrderResponse(&entity.Order{ID: 1, UserID: 7, Status: entity.OrderStatusPending})
	assert.Nil(t, open.CancelledAt)
	assert.Nil(t, open.CancelledBy)
	assert.Nil(t, open.AssignedSalesID)

	cancelled := NewOrderResponse(&entity.Order{ID: 2, UserID: 7, Status: entity.OrderStatusCancelled, CancelledAt: now, CancelledBy: 7})
	require.NotNil(t, cancelled.CancelledAt)
	assert.True(t, now.Equal(*cancelled.CancelledAt))
	require.NotNil(t, cancelled.CancelledBy)
	assert.Equal(t, int64(7), *cancelled.CancelledBy)
}

func TestNewOrderResponseAssignedSales(t *testing.T) {
	resp := NewOrderResponse(&entity.Order{ID: 3, UserID: 7, Status: entity.OrderStatusProcessing, AssignedSalesID: 9})
	require.NotNil(t, resp.AssignedSalesID)
	assert.Equal(t, int64(9), *resp.AssignedSalesID)

	raw, err := json.Marshal(NewOrderResponse(&entity.Order{ID: 4}))
	require.NoError(t, err)
	assert.NotContains(t, string(raw), "assigned_sales_id")
}

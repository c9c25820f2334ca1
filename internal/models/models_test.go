package models

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
)

func TestOrderStatusTransitions(t *testing.T) {
	cases := []struct {
		from, to OrderStatus
		want     bool
	}{
		{OrderStatusPending, OrderStatusProcessed, true},
		{OrderStatusProcessed, OrderStatusShipped, true},
		{OrderStatusShipped, OrderStatusDelivered, true},

		// skipping states
		{OrderStatusPending, OrderStatusShipped, false},
		{OrderStatusPending, OrderStatusDelivered, false},
		{OrderStatusProcessed, OrderStatusDelivered, false},

		// backward moves
		{OrderStatusProcessed, OrderStatusPending, false},
		{OrderStatusShipped, OrderStatusProcessed, false},
		{OrderStatusDelivered, OrderStatusShipped, false},

		// cancellation from any non-terminal state
		{OrderStatusPending, OrderStatusCanceled, true},
		{OrderStatusProcessed, OrderStatusCanceled, true},
		{OrderStatusShipped, OrderStatusCanceled, true},
		{OrderStatusDelivered, OrderStatusCanceled, false},
		{OrderStatusCanceled, OrderStatusCanceled, false},

		// terminal states never move
		{OrderStatusDelivered, OrderStatusPending, false},
		{OrderStatusCanceled, OrderStatusPending, false},

		// self and unknown targets
		{OrderStatusPending, OrderStatusPending, false},
		{OrderStatusPending, OrderStatus("bogus"), false},
	}
	for _, tc := range cases {
		got := tc.from.CanTransitionTo(tc.to)
		assert.Equal(t, tc.want, got, "%s -> %s", tc.from, tc.to)
	}
}

func TestOrderStatusValid(t *testing.T) {
	for _, s := range []OrderStatus{
		OrderStatusPending, OrderStatusProcessed, OrderStatusShipped,
		OrderStatusDelivered, OrderStatusCanceled,
	} {
		assert.True(t, s.Valid(), string(s))
	}
	assert.False(t, OrderStatus("").Valid())
	assert.False(t, OrderStatus("returned").Valid())
}

func TestOrderItemSubtotal(t *testing.T) {
	cases := []struct {
		name     string
		price    string
		quantity int
		discount string
		want     string
	}{
		{"no discount", "100.00", 2, "0", "200"},
		{"ten percent", "100.00", 2, "10", "180"},
		{"twenty percent single", "200.00", 1, "20", "160"},
		{"full discount", "50.00", 3, "100", "0"},
		{"fractional", "19.99", 1, "15", "16.9915"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			item := OrderItem{
				Price:    decimal.RequireFromString(tc.price),
				Quantity: tc.quantity,
				Discount: decimal.RequireFromString(tc.discount),
			}
			got := item.Subtotal()
			assert.True(t, got.Equal(decimal.RequireFromString(tc.want)),
				"want %s, got %s", tc.want, got)
		})
	}
}

package simulation

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPlaceOrderArrivalDate(t *testing.T) {
	placed := time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)

	tests := []struct {
		name       string
		bufferDays int
		leadDays   int
		wantOffset int
	}{
		{"no buffer", 0, 7, 7},
		{"with buffer", 2, 7, 9},
		{"zero lead time", 0, 0, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			book := NewOrderBook(tt.bufferDays)
			order := book.PlaceOrder("SKU-1", 50, placed, tt.leadDays)

			assert.Equal(t, placed.AddDate(0, 0, tt.wantOffset), order.ArrivalDate)
			assert.Equal(t, 50.0, order.Quantity)
			assert.False(t, order.Received)
		})
	}
}

func TestOrdersArrivingMarksReceived(t *testing.T) {
	placed := time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)
	book := NewOrderBook(0)
	book.PlaceOrder("SKU-1", 50, placed, 3)

	// Nothing before the arrival day.
	assert.Empty(t, book.OrdersArriving("SKU-1", placed.AddDate(0, 0, 2)))

	arriving := book.OrdersArriving("SKU-1", placed.AddDate(0, 0, 3))
	require.Len(t, arriving, 1)
	assert.Equal(t, 50.0, arriving[0].Quantity)

	// A received order never arrives twice.
	assert.Empty(t, book.OrdersArriving("SKU-1", placed.AddDate(0, 0, 3)))
}

func TestOrdersInTransit(t *testing.T) {
	placed := time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)
	book := NewOrderBook(0)
	book.PlaceOrder("SKU-1", 50, placed, 5)

	assert.Len(t, book.OrdersInTransit("SKU-1", placed), 1)
	assert.Len(t, book.OrdersInTransit("SKU-1", placed.AddDate(0, 0, 4)), 1)

	// On the arrival day itself the order is no longer in transit.
	assert.Empty(t, book.OrdersInTransit("SKU-1", placed.AddDate(0, 0, 5)))

	// Other items are unaffected.
	assert.Empty(t, book.OrdersInTransit("SKU-2", placed))
}

func TestTotalOrdersCountsPerItem(t *testing.T) {
	placed := time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)
	book := NewOrderBook(0)
	book.PlaceOrder("SKU-1", 10, placed, 3)
	book.PlaceOrder("SKU-1", 20, placed.AddDate(0, 0, 5), 3)
	book.PlaceOrder("SKU-2", 30, placed, 3)

	assert.Equal(t, 2, book.TotalOrders("SKU-1"))
	assert.Equal(t, 1, book.TotalOrders("SKU-2"))
	assert.Zero(t, book.TotalOrders("SKU-3"))
}

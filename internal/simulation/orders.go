package simulation

import (
	"time"

	"github.com/andresuchdata/demandcast/internal/domain"
)

// OrderBook models in-flight replenishment orders inside one simulation run.
// It never touches real order tables; everything here is discarded with the
// run. Orders arrive exactly lead_time_days (plus the configured buffer)
// after placement.
type OrderBook struct {
	bufferDays int
	orders     map[string][]*domain.SimulatedOrder
}

func NewOrderBook(bufferDays int) *OrderBook {
	if bufferDays < 0 {
		bufferDays = 0
	}
	return &OrderBook{
		bufferDays: bufferDays,
		orders:     make(map[string][]*domain.SimulatedOrder),
	}
}

// PlaceOrder creates a pending order for the item with
// arrival = placed + lead_time + buffer.
func (b *OrderBook) PlaceOrder(itemID string, quantity float64, placed time.Time, leadTimeDays int) domain.SimulatedOrder {
	order := &domain.SimulatedOrder{
		ItemID:       itemID,
		Quantity:     quantity,
		PlacedDate:   placed,
		LeadTimeDays: leadTimeDays,
		ArrivalDate:  placed.AddDate(0, 0, leadTimeDays+b.bufferDays),
	}
	b.orders[itemID] = append(b.orders[itemID], order)
	return *order
}

// OrdersArriving returns all pending orders for the item whose arrival date
// equals date, marking them received.
func (b *OrderBook) OrdersArriving(itemID string, date time.Time) []domain.SimulatedOrder {
	var arriving []domain.SimulatedOrder
	for _, order := range b.orders[itemID] {
		if !order.Received && sameDay(order.ArrivalDate, date) {
			order.Received = true
			arriving = append(arriving, *order)
		}
	}
	return arriving
}

// OrdersInTransit returns pending orders for the item with an arrival date
// after date. Used to avoid duplicate same-day reordering.
func (b *OrderBook) OrdersInTransit(itemID string, date time.Time) []domain.SimulatedOrder {
	var pending []domain.SimulatedOrder
	for _, order := range b.orders[itemID] {
		if !order.Received && order.ArrivalDate.After(date) {
			pending = append(pending, *order)
		}
	}
	return pending
}

// TotalOrders counts every order placed for the item during the run.
func (b *OrderBook) TotalOrders(itemID string) int {
	return len(b.orders[itemID])
}

func sameDay(a, b time.Time) bool {
	ay, am, ad := a.Date()
	by, bm, bd := b.Date()
	return ay == by && am == bm && ad == bd
}

package main

import (
	"fmt"
	"sync"
	"time"

	"github.com/emirpasic/gods/maps/treemap"
	"github.com/google/uuid"
)

// The sample graph exercises the interesting paths of the engine: a cycle
// through the customer, a shared address, a map, a sorted container, a
// nulled mutex and an immutable timestamp.

type sampleAddress struct {
	Street string
	City   string
}

type sampleCustomer struct {
	ID      uuid.UUID
	Name    string
	Billing *sampleAddress
	Orders  []*sampleOrder
}

type sampleLine struct {
	SKU      string
	Quantity int
	Price    float64
	Attrs    map[string]string
}

type sampleOrder struct {
	mu        sync.Mutex
	ID        uuid.UUID
	Placed    time.Time
	Customer  *sampleCustomer
	Shipping  *sampleAddress
	Lines     []*sampleLine
	Totals    *treemap.Map
	Notes     []string
	cacheHint string `clone:"transient"`
}

func newSampleOrder(fanout int) *sampleOrder {
	if fanout <= 0 {
		fanout = DefaultBenchFanout
	}
	addr := &sampleAddress{Street: "1 Main St", City: "Springfield"}
	customer := &sampleCustomer{ID: uuid.New(), Name: "Ada", Billing: addr}
	order := &sampleOrder{
		ID:        uuid.New(),
		Placed:    time.Now(),
		Customer:  customer,
		Shipping:  addr,
		Totals:    treemap.NewWithStringComparator(),
		Notes:     []string{"leave at door"},
		cacheHint: "warm",
	}
	customer.Orders = append(customer.Orders, order)
	for i := 0; i < fanout; i++ {
		line := &sampleLine{
			SKU:      fmt.Sprintf("SKU-%04d", i),
			Quantity: i + 1,
			Price:    float64(i) * 1.25,
			Attrs:    map[string]string{"color": "blue"},
		}
		order.Lines = append(order.Lines, line)
		order.Totals.Put(line.SKU, line.Price*float64(line.Quantity))
	}
	return order
}

// Package demo provides the order events and handlers used by the
// eventcore command: a validator, a ledger, a per-type tally and an audit
// log, plus a YAML format for replaying batches of events.
package demo

import "github.com/dshills/eventcore/internal/event"

// OrderPlaced is published when a customer places an order.
type OrderPlaced struct {
	event.Metadata `yaml:"-" json:"-"`
	OrderID        string  `yaml:"order_id" json:"order_id"`
	Customer       string  `yaml:"customer" json:"customer"`
	Amount         float64 `yaml:"amount" json:"amount"`
}

// OrderCancelled is published when an open order is cancelled.
type OrderCancelled struct {
	event.Metadata `yaml:"-" json:"-"`
	OrderID        string `yaml:"order_id" json:"order_id"`
	Reason         string `yaml:"reason" json:"reason"`
}

// OrderShipped is published when an open order leaves the warehouse.
type OrderShipped struct {
	event.Metadata `yaml:"-" json:"-"`
	OrderID        string `yaml:"order_id" json:"order_id"`
	Carrier        string `yaml:"carrier" json:"carrier"`
}

// Bindings returns the bindings for the order event types.
func Bindings() []event.Binding {
	return []event.Binding{
		event.Bind[OrderPlaced](),
		event.Bind[OrderCancelled](),
		event.Bind[OrderShipped](),
	}
}

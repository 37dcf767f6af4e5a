package demo

import (
	"context"
	"errors"
	"fmt"
	"log"
	"sort"
	"sync"

	"github.com/dshills/eventcore/internal/container"
	"github.com/dshills/eventcore/internal/event"
	"github.com/dshills/eventcore/internal/watch"
)

// Errors returned by the demo handlers.
var (
	ErrInvalidOrder = errors.New("invalid order")
	ErrUnknownOrder = errors.New("unknown order")
	ErrOrderClosed  = errors.New("order is not open")
)

// Validator rejects malformed orders before any other handler sees them.
type Validator struct{}

// Priority implements event.Prioritizer.
func (Validator) Priority() event.Priority { return event.PriorityCritical }

// Handle implements event.Handler[OrderPlaced].
func (Validator) Handle(ctx context.Context, e OrderPlaced) error {
	switch {
	case e.OrderID == "":
		return fmt.Errorf("%w: missing order id", ErrInvalidOrder)
	case e.Customer == "":
		return fmt.Errorf("%w: order %s has no customer", ErrInvalidOrder, e.OrderID)
	case e.Amount <= 0:
		return fmt.Errorf("%w: order %s amount %.2f", ErrInvalidOrder, e.OrderID, e.Amount)
	}
	return nil
}

// orderState is the lifecycle position of an order in the Ledger.
type orderState int

const (
	stateOpen orderState = iota
	stateCancelled
	stateShipped
)

// Ledger tracks the state of every order it has seen.
type Ledger struct {
	mu     sync.Mutex
	orders map[string]orderState
	total  float64
}

// NewLedger creates an empty ledger.
func NewLedger() *Ledger {
	return &Ledger{orders: make(map[string]orderState)}
}

// Placed records a new open order.
func (l *Ledger) Placed(ctx context.Context, e OrderPlaced) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	if _, ok := l.orders[e.OrderID]; ok {
		return fmt.Errorf("%w: duplicate order %s", ErrInvalidOrder, e.OrderID)
	}
	l.orders[e.OrderID] = stateOpen
	l.total += e.Amount
	return nil
}

// Cancelled closes an open order.
func (l *Ledger) Cancelled(ctx context.Context, e OrderCancelled) error {
	return l.close(e.OrderID, stateCancelled)
}

// Shipped closes an open order.
func (l *Ledger) Shipped(ctx context.Context, e OrderShipped) error {
	return l.close(e.OrderID, stateShipped)
}

func (l *Ledger) close(orderID string, to orderState) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	state, ok := l.orders[orderID]
	if !ok {
		return fmt.Errorf("%w: %s", ErrUnknownOrder, orderID)
	}
	if state != stateOpen {
		return fmt.Errorf("%w: %s", ErrOrderClosed, orderID)
	}
	l.orders[orderID] = to
	return nil
}

// Open returns the IDs of open orders, sorted.
func (l *Ledger) Open() []string {
	l.mu.Lock()
	defer l.mu.Unlock()

	var ids []string
	for id, state := range l.orders {
		if state == stateOpen {
			ids = append(ids, id)
		}
	}
	sort.Strings(ids)
	return ids
}

// Total returns the summed amount of all placed orders.
func (l *Ledger) Total() float64 {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.total
}

// Tally counts handled events by type name.
type Tally struct {
	mu     sync.Mutex
	counts map[string]int
}

// NewTally creates an empty tally.
func NewTally() *Tally {
	return &Tally{counts: make(map[string]int)}
}

// Count returns the number of events of the named type.
func (t *Tally) Count(typeName string) int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.counts[typeName]
}

// Snapshot returns a copy of all counts.
func (t *Tally) Snapshot() map[string]int {
	t.mu.Lock()
	defer t.mu.Unlock()

	out := make(map[string]int, len(t.counts))
	for k, v := range t.counts {
		out[k] = v
	}
	return out
}

func (t *Tally) add(typeName string) {
	t.mu.Lock()
	t.counts[typeName]++
	t.mu.Unlock()
}

// Counter increments a Tally for every event of type T.
type Counter[T event.Event] struct {
	Tally *Tally
}

// Priority implements event.Prioritizer.
func (Counter[T]) Priority() event.Priority { return event.PriorityNormal }

// Handle implements event.Handler[T].
func (c Counter[T]) Handle(ctx context.Context, e T) error {
	c.Tally.add(event.TypeName(event.TypeOf[T]()))
	return nil
}

// Audit logs every event of type T after the other handlers have run.
type Audit[T event.Event] struct {
	Logger *log.Logger
}

// Priority implements event.Prioritizer.
func (Audit[T]) Priority() event.Priority { return event.PriorityLow }

// Handle implements event.Handler[T].
func (a Audit[T]) Handle(ctx context.Context, e T) error {
	md := e.EventMetadata()
	a.Logger.Printf("audit: %s id=%s source=%s correlation=%s %+v",
		event.TypeName(event.TypeOf[T]()), md.ID, md.Source, md.CorrelationID, payload(e))
	return nil
}

// payload strips metadata from the logged form of known events.
func payload(e event.Event) any {
	switch v := e.(type) {
	case OrderPlaced:
		return struct{ OrderID, Customer, Amount any }{v.OrderID, v.Customer, v.Amount}
	case OrderCancelled:
		return struct{ OrderID, Reason any }{v.OrderID, v.Reason}
	case OrderShipped:
		return struct{ OrderID, Carrier any }{v.OrderID, v.Carrier}
	case watch.FileCreated:
		return struct{ Path, IsDir any }{v.Path, v.IsDir}
	case watch.FileWritten:
		return struct{ Path any }{v.Path}
	case watch.FileRemoved:
		return struct{ Path any }{v.Path}
	case watch.FileRenamed:
		return struct{ Path any }{v.Path}
	}
	return nil
}

// Handlers groups the stateful demo handlers registered by Register.
type Handlers struct {
	Ledger *Ledger
	Tally  *Tally
}

// Register provides the demo handlers for order and file events to c.
//
// Order events run Validator, then the Ledger and the Tally, then Audit.
// File events are counted and audited.
func Register(c *container.Container, logger *log.Logger) (*Handlers, error) {
	h := &Handlers{Ledger: NewLedger(), Tally: NewTally()}

	errs := []error{
		container.Provide[OrderPlaced](c, Validator{}),
		container.ProvideFunc(c, event.PriorityHigh, h.Ledger.Placed),
		container.ProvideFunc(c, event.PriorityHigh, h.Ledger.Cancelled),
		container.ProvideFunc(c, event.PriorityHigh, h.Ledger.Shipped),
	}
	errs = append(errs,
		countAndAudit[OrderPlaced](c, h.Tally, logger),
		countAndAudit[OrderCancelled](c, h.Tally, logger),
		countAndAudit[OrderShipped](c, h.Tally, logger),
		countAndAudit[watch.FileCreated](c, h.Tally, logger),
		countAndAudit[watch.FileWritten](c, h.Tally, logger),
		countAndAudit[watch.FileRemoved](c, h.Tally, logger),
		countAndAudit[watch.FileRenamed](c, h.Tally, logger),
	)
	if err := errors.Join(errs...); err != nil {
		return nil, fmt.Errorf("register demo handlers: %w", err)
	}
	return h, nil
}

func countAndAudit[T event.Event](c *container.Container, tally *Tally, logger *log.Logger) error {
	return errors.Join(
		container.Provide[T](c, Counter[T]{Tally: tally}),
		container.Provide[T](c, Audit[T]{Logger: logger}),
	)
}

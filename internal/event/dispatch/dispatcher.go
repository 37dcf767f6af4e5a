package dispatch

import (
	"context"
	"reflect"
	"time"

	"github.com/dshills/eventcore/internal/event"
)

// EventDispatcher is the public contract shared by both strategies.
type EventDispatcher interface {
	// Dispatch routes e to its handlers and returns the first handler
	// error unchanged.
	Dispatch(ctx context.Context, e event.Event) error

	// DispatchAll dispatches events in order, stopping at the first
	// failure, which is reported as an *event.BatchError.
	DispatchAll(ctx context.Context, events []event.Event) error

	// Stats returns dispatch statistics.
	Stats() Stats
}

// Dispatcher is the cached strategy. Handler sets and invokers are built
// once per event type and reused for every later dispatch.
type Dispatcher struct {
	registry *HandlerRegistry
	cache    *InvocationCache
	bindings *BindingSet
	executor *Executor
	tracer   tracer
	stats    *counters
}

// New creates a cached dispatcher resolving handlers from resolver.
// If resolver also implements Binder, its bindings are used before any
// added with WithBinder or Register.
func New(resolver Resolver, opts ...Option) *Dispatcher {
	o := applyOptions(opts)

	d := &Dispatcher{
		registry: NewHandlerRegistry(resolver),
		bindings: NewBindingSet(),
		tracer:   newTracer(o.tracerProvider, StrategyCached),
		stats:    &counters{},
	}
	d.executor = newExecutor(o.panicHandler, d.stats)

	var binders []Binder
	if b, ok := resolver.(Binder); ok {
		binders = append(binders, b)
	}
	binders = append(binders, o.binders...)
	binders = append(binders, d.bindings)

	d.cache = NewInvocationCache(d.registry, d.executor.Run, binders...)
	return d
}

// Register binds event type T on d, for resolvers that do not supply
// bindings themselves.
func Register[T event.Event](d *Dispatcher) {
	d.bindings.Add(event.Bind[T]())
}

// Dispatch implements EventDispatcher.
func (d *Dispatcher) Dispatch(ctx context.Context, e event.Event) error {
	return d.dispatch(ctx, e, -1)
}

// DispatchAll implements EventDispatcher.
func (d *Dispatcher) DispatchAll(ctx context.Context, events []event.Event) error {
	return dispatchAll(ctx, events, d.dispatch)
}

func (d *Dispatcher) dispatch(ctx context.Context, e event.Event, index int) error {
	if e == nil {
		return event.ErrNilEvent
	}

	eventType := reflect.TypeOf(e)
	ctx, span := d.tracer.start(ctx, eventType, index)

	start := time.Now()
	d.stats.dispatched.Add(1)

	inv, err := d.cache.GetOrBuild(eventType)
	if err == nil {
		err = inv(ctx, e)
	}

	d.stats.finish(start, err)
	d.tracer.end(span, err)
	return err
}

// Registry returns the handler registry backing d.
func (d *Dispatcher) Registry() *HandlerRegistry {
	return d.registry
}

// Cache returns the invocation cache backing d.
func (d *Dispatcher) Cache() *InvocationCache {
	return d.cache
}

// Stats implements EventDispatcher.
func (d *Dispatcher) Stats() Stats {
	s := d.stats.snapshot()
	s.InvokerBuilds = d.cache.Builds()
	s.CacheHits = d.cache.Hits()
	return s
}

// ResetStats resets all statistics to zero. Cache counters are kept.
func (d *Dispatcher) ResetStats() {
	d.stats.reset()
}

// dispatchAll runs dispatch for each event in order and stops at the
// first failure. Effects of events already dispatched are kept.
func dispatchAll(ctx context.Context, events []event.Event, dispatch func(context.Context, event.Event, int) error) error {
	for i, e := range events {
		if err := dispatch(ctx, e, i); err != nil {
			return &event.BatchError{Index: i, Event: e, Err: err}
		}
	}
	return nil
}

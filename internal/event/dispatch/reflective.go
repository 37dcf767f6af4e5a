package dispatch

import (
	"context"
	"fmt"
	"reflect"
	"time"

	"github.com/dshills/eventcore/internal/event"
)

var (
	contextType = reflect.TypeFor[context.Context]()
	errorType   = reflect.TypeFor[error]()
)

// ReflectiveDispatcher is the reference strategy. It caches nothing: every
// dispatch queries the resolver and locates each handler's Handle method
// through reflection.
//
// Handlers run in the order the resolver returns them, not by priority.
// This differs from Dispatcher on purpose and keeps the strategy usable
// for event types that have no binding.
type ReflectiveDispatcher struct {
	resolver Resolver
	executor *Executor
	tracer   tracer
	stats    *counters
}

// NewReflective creates a reflective dispatcher resolving handlers from
// resolver. WithBinder has no effect on it.
func NewReflective(resolver Resolver, opts ...Option) *ReflectiveDispatcher {
	o := applyOptions(opts)

	d := &ReflectiveDispatcher{
		resolver: resolver,
		tracer:   newTracer(o.tracerProvider, StrategyReflective),
		stats:    &counters{},
	}
	d.executor = newExecutor(o.panicHandler, d.stats)
	return d
}

// Dispatch implements EventDispatcher.
func (d *ReflectiveDispatcher) Dispatch(ctx context.Context, e event.Event) error {
	return d.dispatch(ctx, e, -1)
}

// DispatchAll implements EventDispatcher.
func (d *ReflectiveDispatcher) DispatchAll(ctx context.Context, events []event.Event) error {
	return dispatchAll(ctx, events, d.dispatch)
}

func (d *ReflectiveDispatcher) dispatch(ctx context.Context, e event.Event, index int) error {
	if e == nil {
		return event.ErrNilEvent
	}

	eventType := reflect.TypeOf(e)
	ctx, span := d.tracer.start(ctx, eventType, index)

	start := time.Now()
	d.stats.dispatched.Add(1)

	err := d.invoke(ctx, eventType, e)

	d.stats.finish(start, err)
	d.tracer.end(span, err)
	return err
}

func (d *ReflectiveDispatcher) invoke(ctx context.Context, eventType reflect.Type, e event.Event) error {
	for _, h := range d.resolver.ResolveAll(eventType) {
		method, err := handleMethod(h, eventType)
		if err != nil {
			return err
		}

		err = d.executor.Run(ctx, e, h, func() error {
			out := method.Call([]reflect.Value{reflect.ValueOf(ctx), reflect.ValueOf(e)})
			if err, _ := out[0].Interface().(error); err != nil {
				return err
			}
			return nil
		})
		if err != nil {
			return err
		}
	}
	return nil
}

// handleMethod returns h's Handle method if it has the signature
// func(context.Context, eventType) error.
func handleMethod(h any, eventType reflect.Type) (reflect.Value, error) {
	if h == nil {
		return reflect.Value{}, &event.BindingError{Type: eventType, Reason: "nil handler", Err: event.ErrNilHandler}
	}

	method := reflect.ValueOf(h).MethodByName("Handle")
	if !method.IsValid() {
		return reflect.Value{}, &event.BindingError{
			Type:   eventType,
			Reason: fmt.Sprintf("handler %T has no Handle method", h),
		}
	}

	mt := method.Type()
	if mt.NumIn() != 2 || mt.In(0) != contextType || mt.In(1) != eventType ||
		mt.NumOut() != 1 || mt.Out(0) != errorType {
		return reflect.Value{}, &event.BindingError{
			Type:   eventType,
			Reason: fmt.Sprintf("handler %T has Handle signature %s", h, mt),
		}
	}
	return method, nil
}

// Stats implements EventDispatcher.
func (d *ReflectiveDispatcher) Stats() Stats {
	return d.stats.snapshot()
}

// ResetStats resets all statistics to zero.
func (d *ReflectiveDispatcher) ResetStats() {
	d.stats.reset()
}

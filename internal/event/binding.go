package event

import (
	"context"
	"fmt"
	"reflect"
)

// Invoker runs every handler registered for one event type, in order,
// stopping at the first error.
type Invoker func(ctx context.Context, e Event) error

// HandlerSource returns the ordered handler instances for an event type.
type HandlerSource func(eventType reflect.Type) []any

// Runner executes a single handler call on behalf of an Invoker.
// It lets a dispatcher observe or guard each call; call performs the
// actual Handle invocation.
type Runner func(ctx context.Context, e Event, handler any, call func() error) error

// Binding carries the type-specialized invocation path for one concrete
// event type. Bindings are created with Bind and compiled once per type.
type Binding interface {
	// Type returns the event type this binding serves.
	Type() reflect.Type

	// Compile returns an Invoker that resolves handlers from source on
	// every call and runs them through run. A nil run calls handlers
	// directly.
	Compile(source HandlerSource, run Runner) Invoker
}

// Bind returns the Binding for events of type T.
func Bind[T Event]() Binding {
	return binding[T]{typ: TypeOf[T]()}
}

type binding[T Event] struct {
	typ reflect.Type
}

func (b binding[T]) Type() reflect.Type {
	return b.typ
}

func (b binding[T]) Compile(source HandlerSource, run Runner) Invoker {
	typ := b.typ
	return func(ctx context.Context, e Event) error {
		te, ok := e.(T)
		if !ok {
			return &BindingError{
				Type:   typ,
				Reason: fmt.Sprintf("cannot invoke with event of type %T", e),
			}
		}

		for _, h := range source(typ) {
			th, ok := h.(Handler[T])
			if !ok {
				return &BindingError{
					Type:   typ,
					Reason: fmt.Sprintf("handler %T does not implement Handler[%s]", h, typ),
				}
			}

			var err error
			if run == nil {
				err = th.Handle(ctx, te)
			} else {
				err = run(ctx, e, h, func() error { return th.Handle(ctx, te) })
			}
			if err != nil {
				return err
			}
		}
		return nil
	}
}

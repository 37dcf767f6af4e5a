package dispatch

import (
	"context"
	"fmt"
	"reflect"
	"runtime/debug"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/dshills/eventcore/internal/event"
)

// PanicHandler is called when a handler panics and panic capture is enabled.
// It receives the event being processed, the handler, the panic value, and
// the stack trace.
type PanicHandler func(e event.Event, handler any, panicValue any, stack []byte)

// Executor runs individual handler calls with timing and optional panic
// capture. Its Run method is the event.Runner used by both strategies.
type Executor struct {
	panicHandler PanicHandler
	stats        *counters
}

// NewExecutor creates an executor. A nil panicHandler disables panic
// capture, letting panics propagate to the caller of Dispatch.
func NewExecutor(panicHandler PanicHandler) *Executor {
	return newExecutor(panicHandler, &counters{})
}

func newExecutor(panicHandler PanicHandler, stats *counters) *Executor {
	return &Executor{
		panicHandler: panicHandler,
		stats:        stats,
	}
}

// Stats returns statistics for the handler calls run by this executor.
func (e *Executor) Stats() Stats {
	return e.stats.snapshot()
}

// Run executes call for handler and returns its error unchanged.
func (e *Executor) Run(ctx context.Context, ev event.Event, handler any, call func() error) (err error) {
	start := time.Now()

	defer func() {
		e.stats.handlerNs.Add(time.Since(start).Nanoseconds())
	}()

	if e.panicHandler != nil {
		defer func() {
			if r := recover(); r != nil {
				stack := debug.Stack()
				e.stats.panicked.Add(1)

				err = &event.PanicError{
					Type:    reflect.TypeOf(ev),
					Handler: handler,
					Value:   r,
					Stack:   string(stack),
				}

				// A panicking panic handler must not escape.
				func() {
					defer func() {
						_ = recover()
					}()
					e.panicHandler(ev, handler, r, stack)
				}()
			}
		}()
	}

	e.stats.handlers.Add(1)
	trace.SpanFromContext(ctx).AddEvent("handler", trace.WithAttributes(
		attribute.String("handler.type", fmt.Sprintf("%T", handler)),
		attribute.String("handler.priority", event.PriorityOf(handler).String()),
	))

	if err = call(); err != nil {
		e.stats.handlerErrors.Add(1)
	}
	return err
}

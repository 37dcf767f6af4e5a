package event

import (
	"errors"
	"fmt"
	"reflect"
)

// Sentinel errors for event dispatch.
var (
	// ErrBinding is matched by every BindingError.
	ErrBinding = errors.New("event binding failed")

	// ErrNilEvent is returned when a nil event is dispatched.
	ErrNilEvent = errors.New("event cannot be nil")

	// ErrNilHandler is returned when a nil handler is provided.
	ErrNilHandler = errors.New("handler cannot be nil")

	// ErrHandlerPanic is returned when a handler panics and panic capture is enabled.
	ErrHandlerPanic = errors.New("handler panicked")
)

// BindingError reports that no invocation path could be built for an
// event type. It indicates a wiring defect, not bad event data.
type BindingError struct {
	// Type is the event type that could not be bound.
	Type reflect.Type

	// Reason describes what was missing or mismatched.
	Reason string

	// Err is the underlying error, if any.
	Err error
}

// Error implements the error interface.
func (e *BindingError) Error() string {
	msg := "bind " + TypeName(e.Type) + ": " + e.Reason
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

// Unwrap returns the underlying error.
func (e *BindingError) Unwrap() error {
	return e.Err
}

// Is allows errors.Is to match BindingError with ErrBinding.
func (e *BindingError) Is(target error) bool {
	return target == ErrBinding
}

// BatchError reports the first failing event of a batch dispatch.
// Events before Index were dispatched; events after it were not.
type BatchError struct {
	// Index is the position of the failing event in the batch.
	Index int

	// Event is the failing event.
	Event Event

	// Err is the failure returned for the event, unchanged.
	Err error
}

// Error implements the error interface.
func (e *BatchError) Error() string {
	return fmt.Sprintf("dispatch batch event %d (%T): %v", e.Index, e.Event, e.Err)
}

// Unwrap returns the underlying error.
func (e *BatchError) Unwrap() error {
	return e.Err
}

// PanicError wraps a handler panic as an error.
type PanicError struct {
	// Type is the event type being dispatched.
	Type reflect.Type

	// Handler is the handler that panicked.
	Handler any

	// Value is the value passed to panic().
	Value any

	// Stack is the stack trace at the time of the panic.
	Stack string
}

// Error implements the error interface.
func (e *PanicError) Error() string {
	return fmt.Sprintf("handler %T panicked on %s: %v", e.Handler, TypeName(e.Type), e.Value)
}

// Is allows errors.Is to match PanicError with ErrHandlerPanic.
func (e *PanicError) Is(target error) bool {
	return target == ErrHandlerPanic
}

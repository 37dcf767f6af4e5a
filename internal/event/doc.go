// Package event defines the vocabulary of the dispatch core: events,
// handler capabilities, priorities, per-type bindings, and the error
// taxonomy shared by every dispatch strategy.
//
// # Events
//
// An event is any value implementing Event. Embedding Metadata is enough:
//
//	type OrderPlaced struct {
//	    event.Metadata
//	    OrderID string
//	}
//
// Only the concrete runtime type of an event matters for routing. Two
// events of the same Go type always reach the same handlers; a value type
// and its pointer type are distinct routing keys.
//
// # Handlers
//
// A handler declares the capability to process events of type T by
// implementing Handler[T]:
//
//	type validator struct{}
//
//	func (validator) Handle(ctx context.Context, e OrderPlaced) error { ... }
//	func (validator) Priority() event.Priority { return event.PriorityCritical }
//
// Lower priorities run first. Handlers with equal priority keep the order
// in which they were registered.
//
// # Bindings
//
// Go cannot instantiate a generic function from a reflect.Type at run
// time, so each event type carries a Binding created by Bind[T]. The
// binding holds the generic instantiation for T; compiling it yields an
// Invoker that calls Handler[T].Handle without reflection.
//
//	                 ┌────────────────────┐
//	  Bind[T]() ───▶ │      Binding       │
//	                 └─────────┬──────────┘
//	                           │ Compile(source, run)
//	                           ▼
//	                 ┌────────────────────┐
//	  Event ───────▶ │      Invoker       │ ──▶ Handler[T].Handle ...
//	                 └────────────────────┘
//
// # Errors
//
//   - BindingError: an invocation path could not be built (wiring defect)
//   - BatchError: position and cause of the first failure in a batch
//   - PanicError: a captured handler panic, when capture is enabled
//
// Handler errors themselves are never wrapped by a single-event dispatch.
package event

// Package dispatch routes events to the handlers registered for their
// concrete type.
//
// # Strategies
//
// Two implementations of EventDispatcher are provided:
//
//   - Dispatcher: the cached strategy. On first use of an event type it
//     resolves and priority-sorts the handlers (HandlerRegistry) and
//     compiles the type's binding into an invoker (InvocationCache). Later
//     dispatches of the type reuse both.
//
//   - ReflectiveDispatcher: the reference strategy. Every dispatch queries
//     the resolver and finds each handler's Handle method with reflection.
//     Handlers run in resolver order, without priority sorting.
//
// Both strategies run the handlers of one event sequentially and stop at
// the first error, which is returned unchanged. Batches stop at the first
// failing event and report it as an *event.BatchError.
//
// # Usage
//
//	c := container.New()
//	_ = container.Provide[OrderPlaced](c, validator{})
//
//	d := dispatch.New(c)
//	if err := d.Dispatch(ctx, OrderPlaced{OrderID: "o-1"}); err != nil {
//	    // handler failure or *event.BindingError
//	}
//
// The context is passed to every handler untouched. The dispatcher never
// checks it between handlers; a handler that observes cancellation and
// returns an error halts the chain like any other failure.
//
// # Concurrency
//
// Dispatchers are safe for concurrent use. The handler-set and invoker
// caches use atomic get-or-insert: concurrent first dispatches of a type
// may build twice, but every caller observes the same stored result.
// Cache entries are never evicted.
package dispatch

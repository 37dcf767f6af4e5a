// Package container is the service-location collaborator of the dispatch
// core. It holds handler instances keyed by the event type they handle and
// answers "all handlers for this type" queries in registration order.
package container

import (
	"context"
	"fmt"
	"reflect"
	"sort"
	"sync"

	"github.com/dshills/eventcore/internal/event"
)

// Container stores handlers and bindings per event type.
// It is thread-safe for concurrent access.
type Container struct {
	mu       sync.RWMutex
	handlers map[reflect.Type][]any
	bindings map[reflect.Type]event.Binding
}

// New creates an empty container.
func New() *Container {
	return &Container{
		handlers: make(map[reflect.Type][]any),
		bindings: make(map[reflect.Type]event.Binding),
	}
}

// Provide registers h as a handler for events of type T and records the
// binding for T.
func Provide[T event.Event](c *Container, h event.Handler[T]) error {
	if h == nil {
		return fmt.Errorf("provide %s: %w", event.TypeName(event.TypeOf[T]()), event.ErrNilHandler)
	}

	b := event.Bind[T]()

	c.mu.Lock()
	defer c.mu.Unlock()

	c.handlers[b.Type()] = append(c.handlers[b.Type()], h)
	if _, ok := c.bindings[b.Type()]; !ok {
		c.bindings[b.Type()] = b
	}
	return nil
}

// ProvideFunc registers fn as a handler for events of type T at priority p.
func ProvideFunc[T event.Event](c *Container, p event.Priority, fn func(ctx context.Context, e T) error) error {
	if fn == nil {
		return fmt.Errorf("provide %s: %w", event.TypeName(event.TypeOf[T]()), event.ErrNilHandler)
	}
	return Provide[T](c, event.NewHandler(p, fn))
}

// Declare records the binding for T without registering any handler.
// Dispatching a declared type with no handlers is a successful no-op.
func Declare[T event.Event](c *Container) {
	b := event.Bind[T]()

	c.mu.Lock()
	defer c.mu.Unlock()

	if _, ok := c.bindings[b.Type()]; !ok {
		c.bindings[b.Type()] = b
	}
}

// ResolveAll returns every handler registered for eventType in
// registration order. Returns a copy to prevent modification.
func (c *Container) ResolveAll(eventType reflect.Type) []any {
	c.mu.RLock()
	defer c.mu.RUnlock()

	hs := c.handlers[eventType]
	if len(hs) == 0 {
		return nil
	}

	result := make([]any, len(hs))
	copy(result, hs)
	return result
}

// Binding returns the binding recorded for eventType.
func (c *Container) Binding(eventType reflect.Type) (event.Binding, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	b, ok := c.bindings[eventType]
	return b, ok
}

// Count returns the total number of registered handlers.
func (c *Container) Count() int {
	c.mu.RLock()
	defer c.mu.RUnlock()

	n := 0
	for _, hs := range c.handlers {
		n += len(hs)
	}
	return n
}

// CountByType returns the number of handlers registered for eventType.
func (c *Container) CountByType(eventType reflect.Type) int {
	c.mu.RLock()
	defer c.mu.RUnlock()

	return len(c.handlers[eventType])
}

// Types returns every bound event type, sorted by name.
func (c *Container) Types() []reflect.Type {
	c.mu.RLock()
	defer c.mu.RUnlock()

	if len(c.bindings) == 0 {
		return nil
	}

	types := make([]reflect.Type, 0, len(c.bindings))
	for t := range c.bindings {
		types = append(types, t)
	}
	sort.Slice(types, func(i, j int) bool {
		return types[i].String() < types[j].String()
	})
	return types
}

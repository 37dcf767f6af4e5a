package dispatch

import (
	"reflect"
	"sync"
	"sync/atomic"

	"github.com/dshills/eventcore/internal/event"
)

// Binder supplies the binding for an event type.
type Binder interface {
	Binding(eventType reflect.Type) (event.Binding, bool)
}

// BindingSet is a Binder holding explicitly registered bindings.
// It is thread-safe for concurrent access.
type BindingSet struct {
	mu       sync.RWMutex
	bindings map[reflect.Type]event.Binding
}

// NewBindingSet creates a binding set containing bs.
func NewBindingSet(bs ...event.Binding) *BindingSet {
	s := &BindingSet{bindings: make(map[reflect.Type]event.Binding, len(bs))}
	for _, b := range bs {
		s.Add(b)
	}
	return s
}

// Add registers b, replacing any binding for the same type.
func (s *BindingSet) Add(b event.Binding) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.bindings[b.Type()] = b
}

// Binding implements Binder.
func (s *BindingSet) Binding(eventType reflect.Type) (event.Binding, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	b, ok := s.bindings[eventType]
	return b, ok
}

// InvocationCache builds and memoizes one Invoker per event type.
type InvocationCache struct {
	registry *HandlerRegistry
	binders  []Binder
	run      event.Runner

	invokers sync.Map // reflect.Type -> event.Invoker
	builds   atomic.Uint64
	hits     atomic.Uint64
}

// NewInvocationCache creates a cache whose invokers resolve handlers from
// registry and execute them through run. Binders are consulted in order.
func NewInvocationCache(registry *HandlerRegistry, run event.Runner, binders ...Binder) *InvocationCache {
	return &InvocationCache{
		registry: registry,
		binders:  binders,
		run:      run,
	}
}

// GetOrBuild returns the invoker for eventType, building it on first use.
// A type without a binding yields a BindingError; failed builds are not
// remembered, so a later call retries.
func (c *InvocationCache) GetOrBuild(eventType reflect.Type) (event.Invoker, error) {
	if v, ok := c.invokers.Load(eventType); ok {
		c.hits.Add(1)
		return v.(event.Invoker), nil
	}

	b, err := c.lookup(eventType)
	if err != nil {
		return nil, err
	}

	c.builds.Add(1)
	inv := b.Compile(c.registry.source, c.run)

	actual, _ := c.invokers.LoadOrStore(eventType, inv)
	return actual.(event.Invoker), nil
}

func (c *InvocationCache) lookup(eventType reflect.Type) (event.Binding, error) {
	for _, binder := range c.binders {
		if binder == nil {
			continue
		}
		b, ok := binder.Binding(eventType)
		if !ok {
			continue
		}
		if b.Type() != eventType {
			return nil, &event.BindingError{
				Type:   eventType,
				Reason: "binding serves " + event.TypeName(b.Type()),
			}
		}
		return b, nil
	}
	return nil, &event.BindingError{Type: eventType, Reason: "no binding registered"}
}

// Len returns the number of cached invokers.
func (c *InvocationCache) Len() int {
	n := 0
	c.invokers.Range(func(_, _ any) bool {
		n++
		return true
	})
	return n
}

// Builds returns how many invokers have been compiled, including
// duplicate builds discarded under contention.
func (c *InvocationCache) Builds() uint64 {
	return c.builds.Load()
}

// Hits returns how many lookups were served from the cache.
func (c *InvocationCache) Hits() uint64 {
	return c.hits.Load()
}

package dispatch

import (
	"reflect"
	"sort"
	"sync"
	"sync/atomic"

	"github.com/dshills/eventcore/internal/event"
)

// Resolver is the service-location collaborator. ResolveAll returns every
// handler instance registered for eventType; order is the resolver's own.
type Resolver interface {
	ResolveAll(eventType reflect.Type) []any
}

// ResolverFunc is a function adapter for Resolver.
type ResolverFunc func(eventType reflect.Type) []any

// ResolveAll implements the Resolver interface.
func (f ResolverFunc) ResolveAll(eventType reflect.Type) []any {
	return f(eventType)
}

// HandlerSet is the priority-ordered handler list for one event type.
// Sets returned by HandlerRegistry are shared and must not be modified.
type HandlerSet []any

// HandlerRegistry memoizes handler sets per event type.
// The resolver is queried on first use of a type only; the resulting set
// is kept for the lifetime of the registry.
type HandlerRegistry struct {
	resolver Resolver
	sets     sync.Map // reflect.Type -> HandlerSet
	queries  atomic.Uint64
}

// NewHandlerRegistry creates a registry backed by resolver.
func NewHandlerRegistry(resolver Resolver) *HandlerRegistry {
	return &HandlerRegistry{resolver: resolver}
}

// Resolve returns the handlers for eventType ordered by ascending priority.
// Handlers with equal priority keep the resolver's order. An event type
// without handlers yields an empty set.
//
// Concurrent first calls for the same type may each query the resolver,
// but all of them return the set stored by the first to finish.
func (r *HandlerRegistry) Resolve(eventType reflect.Type) HandlerSet {
	if v, ok := r.sets.Load(eventType); ok {
		return v.(HandlerSet)
	}

	r.queries.Add(1)
	found := r.resolver.ResolveAll(eventType)

	set := make(HandlerSet, len(found))
	copy(set, found)
	sort.SliceStable(set, func(i, j int) bool {
		return event.PriorityOf(set[i]) < event.PriorityOf(set[j])
	})

	actual, _ := r.sets.LoadOrStore(eventType, set)
	return actual.(HandlerSet)
}

// source adapts the registry to event.HandlerSource.
func (r *HandlerRegistry) source(eventType reflect.Type) []any {
	return r.Resolve(eventType)
}

// Len returns the number of event types with a memoized set.
func (r *HandlerRegistry) Len() int {
	n := 0
	r.sets.Range(func(_, _ any) bool {
		n++
		return true
	})
	return n
}

// Queries returns how many times the resolver has been queried.
func (r *HandlerRegistry) Queries() uint64 {
	return r.queries.Load()
}

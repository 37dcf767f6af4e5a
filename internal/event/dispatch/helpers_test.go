package dispatch

import (
	"context"
	"reflect"
	"sync"
	"sync/atomic"
	"time"

	"github.com/dshills/eventcore/internal/event"
)

type orderPlaced struct {
	event.Metadata
	OrderID string
}

type orderCancelled struct {
	event.Metadata
	OrderID string
}

type unboundEvent struct {
	event.Metadata
}

// fakeResolver is an in-memory Resolver that counts queries.
type fakeResolver struct {
	mu       sync.Mutex
	handlers map[reflect.Type][]any
	queries  atomic.Int64
	delay    time.Duration
}

func newFakeResolver() *fakeResolver {
	return &fakeResolver{handlers: make(map[reflect.Type][]any)}
}

func (r *fakeResolver) add(eventType reflect.Type, hs ...any) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.handlers[eventType] = append(r.handlers[eventType], hs...)
}

func (r *fakeResolver) ResolveAll(eventType reflect.Type) []any {
	r.queries.Add(1)
	if r.delay > 0 {
		time.Sleep(r.delay)
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	hs := r.handlers[eventType]
	result := make([]any, len(hs))
	copy(result, hs)
	return result
}

// recorder collects the names of handlers in call order.
type recorder struct {
	mu    sync.Mutex
	calls []string
}

func (r *recorder) record(name string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.calls = append(r.calls, name)
}

func (r *recorder) names() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]string, len(r.calls))
	copy(out, r.calls)
	return out
}

func (r *recorder) reset() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.calls = nil
}

// testHandler records its name and returns err.
type testHandler[T event.Event] struct {
	name     string
	priority event.Priority
	rec      *recorder
	err      error
	fn       func(ctx context.Context, e T) error
}

func (h *testHandler[T]) Handle(ctx context.Context, e T) error {
	if h.rec != nil {
		h.rec.record(h.name)
	}
	if h.fn != nil {
		return h.fn(ctx, e)
	}
	return h.err
}

func (h *testHandler[T]) Priority() event.Priority {
	return h.priority
}

func newTestHandler[T event.Event](name string, p event.Priority, rec *recorder) *testHandler[T] {
	return &testHandler[T]{name: name, priority: p, rec: rec}
}

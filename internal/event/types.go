package event

import "context"

// Priority determines handler execution order.
// Lower values execute first.
type Priority int

const (
	// PriorityCritical is for validation and guard handlers that must run first.
	PriorityCritical Priority = 0

	// PriorityHigh is for handlers that mutate state other handlers read.
	PriorityHigh Priority = 100

	// PriorityNormal is the default priority.
	PriorityNormal Priority = 200

	// PriorityLow is for metrics, logging handlers that run last.
	PriorityLow Priority = 300
)

// String returns a human-readable priority name.
func (p Priority) String() string {
	switch {
	case p <= PriorityCritical:
		return "critical"
	case p <= PriorityHigh:
		return "high"
	case p <= PriorityNormal:
		return "normal"
	default:
		return "low"
	}
}

// Prioritizer is implemented by handlers that declare an execution priority.
type Prioritizer interface {
	Priority() Priority
}

// Handler is the capability implemented by anything that processes events
// of concrete type T.
type Handler[T Event] interface {
	Prioritizer

	// Handle processes an event. A non-nil error halts the remaining
	// handlers for the event.
	Handle(ctx context.Context, event T) error
}

// HandlerFunc is a function adapter for Handler with PriorityNormal.
type HandlerFunc[T Event] func(ctx context.Context, event T) error

// Handle implements the Handler interface.
func (f HandlerFunc[T]) Handle(ctx context.Context, event T) error {
	return f(ctx, event)
}

// Priority implements the Handler interface.
func (f HandlerFunc[T]) Priority() Priority {
	return PriorityNormal
}

// prioritizedFunc pairs a handler function with an explicit priority.
type prioritizedFunc[T Event] struct {
	fn       func(ctx context.Context, event T) error
	priority Priority
}

func (h *prioritizedFunc[T]) Handle(ctx context.Context, event T) error {
	return h.fn(ctx, event)
}

func (h *prioritizedFunc[T]) Priority() Priority {
	return h.priority
}

// NewHandler returns a Handler that runs fn at the given priority.
func NewHandler[T Event](p Priority, fn func(ctx context.Context, event T) error) Handler[T] {
	return &prioritizedFunc[T]{fn: fn, priority: p}
}

// PriorityOf returns the priority declared by h, or PriorityNormal when h
// does not declare one.
func PriorityOf(h any) Priority {
	if p, ok := h.(Prioritizer); ok {
		return p.Priority()
	}
	return PriorityNormal
}

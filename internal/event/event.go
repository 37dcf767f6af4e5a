package event

import (
	"reflect"
	"time"

	"github.com/google/uuid"
)

// Event is implemented by every value that can be dispatched.
// Routing uses only the concrete dynamic type of the value; the payload
// itself is opaque to the dispatch core.
//
// The simplest way to satisfy Event is to embed Metadata:
//
//	type OrderPlaced struct {
//	    event.Metadata
//	    OrderID string
//	}
type Event interface {
	EventMetadata() Metadata
}

// Metadata contains standard information attached to every event.
type Metadata struct {
	// ID is a unique identifier for this event instance.
	ID string

	// Timestamp is when the event was created.
	Timestamp time.Time

	// Source identifies the module that published the event.
	Source string

	// CorrelationID links related events (e.g., request/response).
	CorrelationID string

	// CausationID links to the event that caused this one.
	CausationID string

	// Version is the schema version of the payload.
	Version int
}

// NewMetadata creates metadata with a fresh ID and the current time.
func NewMetadata(source string) Metadata {
	return Metadata{
		ID:        uuid.NewString(),
		Timestamp: time.Now(),
		Source:    source,
		Version:   1,
	}
}

// EventMetadata implements Event.
func (m Metadata) EventMetadata() Metadata {
	return m
}

// WithCorrelation returns a copy of the metadata with a correlation ID set.
func (m Metadata) WithCorrelation(correlationID string) Metadata {
	m.CorrelationID = correlationID
	return m
}

// WithCausation returns a copy of the metadata that records cause as its
// causation and inherits its correlation ID.
func (m Metadata) WithCausation(cause Event) Metadata {
	parent := cause.EventMetadata()
	m.CausationID = parent.ID
	if m.CorrelationID == "" {
		m.CorrelationID = parent.CorrelationID
	}
	return m
}

// TypeOf returns the routing key for events of type T.
func TypeOf[T Event]() reflect.Type {
	return reflect.TypeFor[T]()
}

// TypeName returns a printable name for an event type, tolerating nil.
func TypeName(t reflect.Type) string {
	if t == nil {
		return "<nil>"
	}
	return t.String()
}

package demo

import (
	"bytes"
	"context"
	"errors"
	"log"
	"slices"
	"strings"
	"testing"

	"github.com/dshills/eventcore/internal/container"
	"github.com/dshills/eventcore/internal/event"
	"github.com/dshills/eventcore/internal/event/dispatch"
	"github.com/dshills/eventcore/internal/watch"
)

func setup(t *testing.T) (*Handlers, *bytes.Buffer, []dispatch.EventDispatcher) {
	t.Helper()
	var buf bytes.Buffer
	c := container.New()
	h, err := Register(c, log.New(&buf, "", 0))
	if err != nil {
		t.Fatalf("Register failed: %v", err)
	}
	return h, &buf, []dispatch.EventDispatcher{dispatch.New(c), dispatch.NewReflective(c)}
}

func TestValidator(t *testing.T) {
	tests := []struct {
		name    string
		order   OrderPlaced
		wantErr bool
	}{
		{"valid", OrderPlaced{OrderID: "o-1", Customer: "ada", Amount: 5}, false},
		{"missing id", OrderPlaced{Customer: "ada", Amount: 5}, true},
		{"missing customer", OrderPlaced{OrderID: "o-1", Amount: 5}, true},
		{"zero amount", OrderPlaced{OrderID: "o-1", Customer: "ada"}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := Validator{}.Handle(context.Background(), tt.order)
			if tt.wantErr && !errors.Is(err, ErrInvalidOrder) {
				t.Errorf("expected ErrInvalidOrder, got %v", err)
			}
			if !tt.wantErr && err != nil {
				t.Errorf("unexpected error: %v", err)
			}
		})
	}
}

func TestLedger_Lifecycle(t *testing.T) {
	ctx := context.Background()
	l := NewLedger()

	if err := l.Placed(ctx, OrderPlaced{OrderID: "o-1", Amount: 10}); err != nil {
		t.Fatalf("Placed failed: %v", err)
	}
	if err := l.Placed(ctx, OrderPlaced{OrderID: "o-2", Amount: 2.5}); err != nil {
		t.Fatalf("Placed failed: %v", err)
	}
	if err := l.Placed(ctx, OrderPlaced{OrderID: "o-1", Amount: 1}); !errors.Is(err, ErrInvalidOrder) {
		t.Errorf("duplicate Placed error = %v, want ErrInvalidOrder", err)
	}
	if err := l.Shipped(ctx, OrderShipped{OrderID: "o-1"}); err != nil {
		t.Fatalf("Shipped failed: %v", err)
	}
	if err := l.Cancelled(ctx, OrderCancelled{OrderID: "o-1"}); !errors.Is(err, ErrOrderClosed) {
		t.Errorf("Cancelled after ship error = %v, want ErrOrderClosed", err)
	}
	if err := l.Cancelled(ctx, OrderCancelled{OrderID: "o-9"}); !errors.Is(err, ErrUnknownOrder) {
		t.Errorf("Cancelled unknown error = %v, want ErrUnknownOrder", err)
	}

	if got := l.Open(); !slices.Equal(got, []string{"o-2"}) {
		t.Errorf("Open() = %v, want [o-2]", got)
	}
	if got := l.Total(); got != 12.5 {
		t.Errorf("Total() = %v, want 12.5", got)
	}
}

func TestRegister_OrderFlow(t *testing.T) {
	h, buf, dispatchers := setup(t)
	d := dispatchers[0]
	ctx := context.Background()

	err := d.DispatchAll(ctx, []event.Event{
		OrderPlaced{Metadata: event.NewMetadata("test"), OrderID: "o-1", Customer: "ada", Amount: 10},
		OrderShipped{Metadata: event.NewMetadata("test"), OrderID: "o-1", Carrier: "ups"},
	})
	if err != nil {
		t.Fatalf("DispatchAll failed: %v", err)
	}

	if got := h.Tally.Count("demo.OrderPlaced"); got != 1 {
		t.Errorf("OrderPlaced count = %d, want 1", got)
	}
	if got := h.Tally.Count("demo.OrderShipped"); got != 1 {
		t.Errorf("OrderShipped count = %d, want 1", got)
	}
	if lines := strings.Count(buf.String(), "audit: "); lines != 2 {
		t.Errorf("audit lines = %d, want 2:\n%s", lines, buf.String())
	}
}

func TestRegister_ValidatorRunsFirst(t *testing.T) {
	h, buf, dispatchers := setup(t)

	err := dispatchers[0].Dispatch(context.Background(), OrderPlaced{OrderID: "o-1", Amount: 10})
	if !errors.Is(err, ErrInvalidOrder) {
		t.Fatalf("expected ErrInvalidOrder, got %v", err)
	}

	// The chain stopped before the ledger, tally and audit handlers.
	if open := h.Ledger.Open(); len(open) != 0 {
		t.Errorf("ledger recorded invalid order: %v", open)
	}
	if got := h.Tally.Count("demo.OrderPlaced"); got != 0 {
		t.Errorf("tally counted invalid order: %d", got)
	}
	if buf.Len() != 0 {
		t.Errorf("audit logged invalid order: %s", buf.String())
	}
}

func TestRegister_ReflectiveUsesRegistrationOrder(t *testing.T) {
	h, _, dispatchers := setup(t)

	// Registration order is Validator, Ledger, Counter, Audit, which is
	// already priority order for OrderPlaced: both strategies agree.
	err := dispatchers[1].Dispatch(context.Background(), OrderPlaced{OrderID: "o-1", Amount: 10})
	if !errors.Is(err, ErrInvalidOrder) {
		t.Fatalf("expected ErrInvalidOrder, got %v", err)
	}
	if open := h.Ledger.Open(); len(open) != 0 {
		t.Errorf("ledger recorded invalid order: %v", open)
	}
}

func TestRegister_FileEvents(t *testing.T) {
	h, buf, dispatchers := setup(t)

	e := watch.FileCreated{Metadata: event.NewMetadata(watch.Source), Path: "/srv/inbox/a.txt"}
	for _, d := range dispatchers {
		if err := d.Dispatch(context.Background(), e); err != nil {
			t.Fatalf("Dispatch failed: %v", err)
		}
	}

	if got := h.Tally.Count("watch.FileCreated"); got != 2 {
		t.Errorf("FileCreated count = %d, want 2", got)
	}
	if !strings.Contains(buf.String(), "/srv/inbox/a.txt") {
		t.Errorf("audit log missing path:\n%s", buf.String())
	}
}

func TestDecode(t *testing.T) {
	input := `
correlation_id: checkout-42
events:
  - type: order.placed
    order_id: o-1
    customer: ada
    amount: 12.50
  - type: order.shipped
    order_id: o-1
    carrier: ups
  - type: order.cancelled
    order_id: o-2
    reason: changed mind
`
	events, err := Decode(strings.NewReader(input))
	if err != nil {
		t.Fatalf("Decode failed: %v", err)
	}
	if len(events) != 3 {
		t.Fatalf("decoded %d events, want 3", len(events))
	}

	placed, ok := events[0].(OrderPlaced)
	if !ok {
		t.Fatalf("event 0 is %T, want OrderPlaced", events[0])
	}
	if placed.OrderID != "o-1" || placed.Customer != "ada" || placed.Amount != 12.5 {
		t.Errorf("OrderPlaced = %+v", placed)
	}
	if shipped, ok := events[1].(OrderShipped); !ok || shipped.Carrier != "ups" {
		t.Errorf("event 1 = %#v, want OrderShipped via ups", events[1])
	}
	if cancelled, ok := events[2].(OrderCancelled); !ok || cancelled.Reason != "changed mind" {
		t.Errorf("event 2 = %#v, want OrderCancelled", events[2])
	}

	for i, e := range events {
		md := e.EventMetadata()
		if md.Source != ReplaySource {
			t.Errorf("event %d Source = %q", i, md.Source)
		}
		if md.CorrelationID != "checkout-42" {
			t.Errorf("event %d CorrelationID = %q", i, md.CorrelationID)
		}
		if md.ID == "" {
			t.Errorf("event %d has no ID", i)
		}
		if i > 0 && md.CausationID != events[i-1].EventMetadata().ID {
			t.Errorf("event %d CausationID = %q, want previous event ID", i, md.CausationID)
		}
	}
}

func TestDecode_GeneratedCorrelation(t *testing.T) {
	events, err := Decode(strings.NewReader("events:\n  - {type: order.shipped, order_id: o-1}\n  - {type: order.shipped, order_id: o-2}\n"))
	if err != nil {
		t.Fatalf("Decode failed: %v", err)
	}
	first := events[0].EventMetadata().CorrelationID
	if first == "" {
		t.Fatal("expected generated correlation ID")
	}
	if events[1].EventMetadata().CorrelationID != first {
		t.Error("events in one batch should share a correlation ID")
	}
}

func TestDecode_Empty(t *testing.T) {
	events, err := Decode(strings.NewReader(""))
	if err != nil {
		t.Fatalf("Decode failed: %v", err)
	}
	if len(events) != 0 {
		t.Errorf("decoded %d events from empty input", len(events))
	}
}

func TestDecode_Errors(t *testing.T) {
	tests := []struct {
		name  string
		input string
		is    error
	}{
		{"unknown type", "events:\n  - type: order.lost\n", ErrUnknownEventType},
		{"bad amount", "events:\n  - type: order.placed\n    amount: lots\n", nil},
		{"not yaml", "events: [", nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Decode(strings.NewReader(tt.input))
			if err == nil {
				t.Fatal("expected error")
			}
			if tt.is != nil && !errors.Is(err, tt.is) {
				t.Errorf("error = %v, want %v", err, tt.is)
			}
		})
	}
}

func TestDecodeJSON(t *testing.T) {
	input := `{
  "correlation_id": "checkout-7",
  "events": [
    {"type": "order.placed", "order_id": "o-1", "customer": "ada", "amount": 3.25},
    {"type": "order.cancelled", "order_id": "o-1", "reason": "duplicate"}
  ]
}`
	events, err := DecodeJSON(strings.NewReader(input))
	if err != nil {
		t.Fatalf("DecodeJSON failed: %v", err)
	}
	if len(events) != 2 {
		t.Fatalf("decoded %d events, want 2", len(events))
	}
	placed, ok := events[0].(OrderPlaced)
	if !ok || placed.Customer != "ada" || placed.Amount != 3.25 {
		t.Errorf("event 0 = %#v", events[0])
	}
	cancelled, ok := events[1].(OrderCancelled)
	if !ok || cancelled.Reason != "duplicate" {
		t.Errorf("event 1 = %#v", events[1])
	}
	if cancelled.CorrelationID != "checkout-7" || cancelled.CausationID != placed.ID {
		t.Errorf("metadata = %+v, want correlation checkout-7 caused by %s", cancelled.Metadata, placed.ID)
	}
}

func TestDecodeJSON_Errors(t *testing.T) {
	tests := []struct {
		name  string
		input string
		is    error
	}{
		{"malformed", `{"events": [`, ErrInvalidJSON},
		{"record not object", `{"events": [1]}`, ErrInvalidJSON},
		{"unknown type", `{"events": [{"type": "order.lost"}]}`, ErrUnknownEventType},
		{"bad field", `{"events": [{"type": "order.placed", "amount": "lots"}]}`, nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := DecodeJSON(strings.NewReader(tt.input))
			if err == nil {
				t.Fatal("expected error")
			}
			if tt.is != nil && !errors.Is(err, tt.is) {
				t.Errorf("error = %v, want %v", err, tt.is)
			}
		})
	}
}

func TestDecodeFile(t *testing.T) {
	yamlInput := "events:\n  - {type: order.shipped, order_id: o-1}\n"
	jsonInput := `{"events": [{"type": "order.shipped", "order_id": "o-1"}]}`

	for name, input := range map[string]string{"batch.yaml": yamlInput, "batch.JSON": jsonInput} {
		events, err := DecodeFile(name, strings.NewReader(input))
		if err != nil {
			t.Fatalf("DecodeFile(%s) failed: %v", name, err)
		}
		if len(events) != 1 {
			t.Errorf("DecodeFile(%s) decoded %d events, want 1", name, len(events))
		}
	}
}

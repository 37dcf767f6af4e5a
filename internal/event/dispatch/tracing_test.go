package dispatch

import (
	"context"
	"errors"
	"testing"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"

	"github.com/dshills/eventcore/internal/container"
	"github.com/dshills/eventcore/internal/event"
)

func newRecordingProvider(t *testing.T) (*sdktrace.TracerProvider, *tracetest.SpanRecorder) {
	t.Helper()
	sr := tracetest.NewSpanRecorder()
	tp := sdktrace.NewTracerProvider(sdktrace.WithSpanProcessor(sr))
	t.Cleanup(func() {
		_ = tp.Shutdown(context.Background())
	})
	return tp, sr
}

func spanAttr(span sdktrace.ReadOnlySpan, key attribute.Key) (attribute.Value, bool) {
	for _, kv := range span.Attributes() {
		if kv.Key == key {
			return kv.Value, true
		}
	}
	return attribute.Value{}, false
}

func TestDispatcher_Tracing(t *testing.T) {
	tp, sr := newRecordingProvider(t)

	c := container.New()
	_ = container.Provide[orderPlaced](c, newTestHandler[orderPlaced]("a", 0, nil))
	_ = container.Provide[orderPlaced](c, newTestHandler[orderPlaced]("b", 1, nil))

	d := New(c, WithTracerProvider(tp))
	if err := d.Dispatch(context.Background(), orderPlaced{}); err != nil {
		t.Fatalf("Dispatch failed: %v", err)
	}

	spans := sr.Ended()
	if len(spans) != 1 {
		t.Fatalf("expected 1 span, got %d", len(spans))
	}

	span := spans[0]
	if want := "dispatch " + event.TypeOf[orderPlaced]().String(); span.Name() != want {
		t.Errorf("span name = %q, want %q", span.Name(), want)
	}
	if v, ok := spanAttr(span, "dispatch.strategy"); !ok || v.AsString() != "cached" {
		t.Errorf("dispatch.strategy = %v, want cached", v.AsString())
	}
	if _, ok := spanAttr(span, "dispatch.batch_index"); ok {
		t.Error("single dispatch should not carry a batch index")
	}
	if n := len(span.Events()); n != 2 {
		t.Errorf("expected 2 handler span events, got %d", n)
	}
	if span.Status().Code == codes.Error {
		t.Error("successful dispatch marked as error")
	}
}

func TestReflectiveDispatcher_Tracing_BatchFailure(t *testing.T) {
	tp, sr := newRecordingProvider(t)
	failure := errors.New("boom")

	r := newFakeResolver()
	r.add(event.TypeOf[orderPlaced](), newTestHandler[orderPlaced]("ok", 0, nil))
	failing := newTestHandler[orderCancelled]("fail", 0, nil)
	failing.err = failure
	r.add(event.TypeOf[orderCancelled](), failing)

	d := NewReflective(r, WithTracerProvider(tp))
	err := d.DispatchAll(context.Background(), []event.Event{orderPlaced{}, orderCancelled{}})
	if !errors.Is(err, failure) {
		t.Fatalf("expected %v, got %v", failure, err)
	}

	spans := sr.Ended()
	if len(spans) != 2 {
		t.Fatalf("expected 2 spans, got %d", len(spans))
	}

	for i, span := range spans {
		v, ok := spanAttr(span, "dispatch.batch_index")
		if !ok || v.AsInt64() != int64(i) {
			t.Errorf("span %d batch index = %v, want %d", i, v.AsInt64(), i)
		}
		if v, _ := spanAttr(span, "dispatch.strategy"); v.AsString() != "reflective" {
			t.Errorf("span %d strategy = %q, want reflective", i, v.AsString())
		}
	}

	if spans[0].Status().Code == codes.Error {
		t.Error("first span should not be an error")
	}
	if spans[1].Status().Code != codes.Error {
		t.Error("second span should be an error")
	}
	if spans[1].Status().Description != failure.Error() {
		t.Errorf("status description = %q, want %q", spans[1].Status().Description, failure.Error())
	}
}

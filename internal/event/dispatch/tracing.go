package dispatch

import (
	"context"
	"reflect"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/dshills/eventcore/internal/event"
)

const tracerName = "github.com/dshills/eventcore/internal/event/dispatch"

// tracer starts one span per event dispatch.
type tracer struct {
	tracer   trace.Tracer
	strategy Strategy
}

func newTracer(tp trace.TracerProvider, strategy Strategy) tracer {
	return tracer{
		tracer:   tp.Tracer(tracerName),
		strategy: strategy,
	}
}

// start opens the span for one event. index is the batch position, or -1
// for a single dispatch.
func (t tracer) start(ctx context.Context, eventType reflect.Type, index int) (context.Context, trace.Span) {
	attrs := []attribute.KeyValue{
		attribute.String("event.type", event.TypeName(eventType)),
		attribute.String("dispatch.strategy", string(t.strategy)),
	}
	if index >= 0 {
		attrs = append(attrs, attribute.Int("dispatch.batch_index", index))
	}
	return t.tracer.Start(ctx, "dispatch "+event.TypeName(eventType), trace.WithAttributes(attrs...))
}

// end records err on span, if any, and ends it. err is never altered.
func (t tracer) end(span trace.Span, err error) {
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	}
	span.End()
}

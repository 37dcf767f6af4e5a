package dispatch

import (
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/trace"
)

// Option configures a Dispatcher or ReflectiveDispatcher.
type Option func(*options)

// options contains configuration shared by both strategies.
type options struct {
	// panicHandler enables panic capture when non-nil.
	panicHandler PanicHandler

	// tracerProvider supplies the tracer for dispatch spans.
	tracerProvider trace.TracerProvider

	// binders are consulted after the resolver when it is itself a Binder.
	binders []Binder
}

// defaultOptions returns the default configuration: no panic capture and
// the global tracer provider, which is a no-op until one is installed.
func defaultOptions() options {
	return options{
		tracerProvider: otel.GetTracerProvider(),
	}
}

func applyOptions(opts []Option) options {
	o := defaultOptions()
	for _, opt := range opts {
		opt(&o)
	}
	return o
}

// WithPanicHandler enables panic capture. A panicking handler is reported
// to h and its dispatch fails with an *event.PanicError.
func WithPanicHandler(h PanicHandler) Option {
	return func(o *options) {
		o.panicHandler = h
	}
}

// WithTracerProvider sets the provider used for dispatch spans.
func WithTracerProvider(tp trace.TracerProvider) Option {
	return func(o *options) {
		if tp != nil {
			o.tracerProvider = tp
		}
	}
}

// WithBinder adds a source of event bindings. Only the cached strategy
// uses bindings.
func WithBinder(b Binder) Option {
	return func(o *options) {
		if b != nil {
			o.binders = append(o.binders, b)
		}
	}
}

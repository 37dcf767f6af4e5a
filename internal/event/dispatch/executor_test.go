package dispatch

import (
	"context"
	"errors"
	"testing"

	"github.com/dshills/eventcore/internal/event"
)

func TestExecutor_Run_Success(t *testing.T) {
	executor := NewExecutor(nil)

	var called bool
	err := executor.Run(context.Background(), orderPlaced{}, "handler", func() error {
		called = true
		return nil
	})

	if err != nil {
		t.Errorf("expected success, got %v", err)
	}
	if !called {
		t.Error("call was not invoked")
	}

	stats := executor.Stats()
	if stats.HandlersExecuted != 1 || stats.HandlerErrors != 0 {
		t.Errorf("stats = %+v, want 1 call and no errors", stats)
	}
}

func TestExecutor_Run_Error(t *testing.T) {
	executor := NewExecutor(nil)
	expectedErr := errors.New("handler error")

	err := executor.Run(context.Background(), orderPlaced{}, "handler", func() error {
		return expectedErr
	})

	if err != expectedErr {
		t.Errorf("expected error %v, got %v", expectedErr, err)
	}
	if executor.Stats().HandlerErrors != 1 {
		t.Errorf("HandlerErrors = %d, want 1", executor.Stats().HandlerErrors)
	}
}

func TestExecutor_Run_Panic(t *testing.T) {
	var panicHandlerCalled bool
	var capturedPanicValue any
	var capturedHandler any

	executor := NewExecutor(func(e event.Event, handler any, panicValue any, stack []byte) {
		panicHandlerCalled = true
		capturedPanicValue = panicValue
		capturedHandler = handler
	})

	err := executor.Run(context.Background(), orderPlaced{}, "handler", func() error {
		panic("test panic")
	})

	var pe *event.PanicError
	if !errors.As(err, &pe) {
		t.Fatalf("expected *event.PanicError, got %v", err)
	}
	if pe.Value != "test panic" {
		t.Errorf("expected panic value 'test panic', got %v", pe.Value)
	}
	if pe.Stack == "" {
		t.Error("expected non-empty stack trace")
	}
	if pe.Type != event.TypeOf[orderPlaced]() {
		t.Errorf("PanicError.Type = %v, want orderPlaced", pe.Type)
	}
	if !panicHandlerCalled {
		t.Error("panic handler was not called")
	}
	if capturedPanicValue != "test panic" {
		t.Errorf("panic handler received wrong value: %v", capturedPanicValue)
	}
	if capturedHandler != "handler" {
		t.Errorf("panic handler received wrong handler: %v", capturedHandler)
	}
	if executor.Stats().HandlerPanics != 1 {
		t.Errorf("HandlerPanics = %d, want 1", executor.Stats().HandlerPanics)
	}
}

func TestExecutor_Run_PanicHandlerPanics(t *testing.T) {
	executor := NewExecutor(func(event.Event, any, any, []byte) {
		panic("panic handler panic")
	})

	err := executor.Run(context.Background(), orderPlaced{}, "handler", func() error {
		panic("test panic")
	})

	if !errors.Is(err, event.ErrHandlerPanic) {
		t.Errorf("expected ErrHandlerPanic, got %v", err)
	}
}

func TestExecutor_Run_DoesNotCheckContext(t *testing.T) {
	executor := NewExecutor(nil)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	var called bool
	err := executor.Run(ctx, orderPlaced{}, "handler", func() error {
		called = true
		return nil
	})

	if err != nil {
		t.Errorf("expected success, got %v", err)
	}
	if !called {
		t.Error("call should run even with a cancelled context")
	}
}

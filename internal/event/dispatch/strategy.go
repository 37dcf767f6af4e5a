package dispatch

import (
	"fmt"
	"strings"
)

// Strategy names a dispatch implementation.
type Strategy string

const (
	// StrategyCached selects Dispatcher.
	StrategyCached Strategy = "cached"

	// StrategyReflective selects ReflectiveDispatcher.
	StrategyReflective Strategy = "reflective"
)

// ParseStrategy parses a strategy name, case-insensitively.
// An empty name selects StrategyCached.
func ParseStrategy(name string) (Strategy, error) {
	switch Strategy(strings.ToLower(strings.TrimSpace(name))) {
	case "", StrategyCached:
		return StrategyCached, nil
	case StrategyReflective:
		return StrategyReflective, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrUnknownStrategy, name)
	}
}

// NewForStrategy creates the dispatcher implementing s.
func NewForStrategy(s Strategy, resolver Resolver, opts ...Option) (EventDispatcher, error) {
	switch s {
	case StrategyCached:
		return New(resolver, opts...), nil
	case StrategyReflective:
		return NewReflective(resolver, opts...), nil
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownStrategy, string(s))
	}
}

package dispatch

import "errors"

// Sentinel errors for the dispatch package.
var (
	// ErrUnknownStrategy is returned when a strategy name is not recognized.
	ErrUnknownStrategy = errors.New("unknown dispatch strategy")
)

package dispatch

import (
	"sync/atomic"
	"time"
)

// counters holds the live statistics of a dispatcher.
type counters struct {
	dispatched    atomic.Uint64
	succeeded     atomic.Uint64
	failed        atomic.Uint64
	handlers      atomic.Uint64
	handlerErrors atomic.Uint64
	panicked      atomic.Uint64
	totalNs       atomic.Int64
	handlerNs     atomic.Int64
}

func (c *counters) finish(start time.Time, err error) {
	c.totalNs.Add(time.Since(start).Nanoseconds())
	if err != nil {
		c.failed.Add(1)
	} else {
		c.succeeded.Add(1)
	}
}

func (c *counters) snapshot() Stats {
	dispatched := c.dispatched.Load()
	totalNs := c.totalNs.Load()

	var avgNs int64
	if dispatched > 0 {
		avgNs = totalNs / int64(dispatched)
	}

	return Stats{
		Dispatched:       dispatched,
		Succeeded:        c.succeeded.Load(),
		Failed:           c.failed.Load(),
		HandlersExecuted: c.handlers.Load(),
		HandlerErrors:    c.handlerErrors.Load(),
		HandlerPanics:    c.panicked.Load(),
		TotalDuration:    time.Duration(totalNs),
		HandlerDuration:  time.Duration(c.handlerNs.Load()),
		AvgDuration:      time.Duration(avgNs),
	}
}

func (c *counters) reset() {
	c.dispatched.Store(0)
	c.succeeded.Store(0)
	c.failed.Store(0)
	c.handlers.Store(0)
	c.handlerErrors.Store(0)
	c.panicked.Store(0)
	c.totalNs.Store(0)
	c.handlerNs.Store(0)
}

// Stats contains dispatch statistics.
// Values are read without a lock and may be slightly inconsistent while
// dispatches are in flight.
type Stats struct {
	// Dispatched is the number of single-event dispatches started,
	// including those issued by a batch.
	Dispatched uint64

	// Succeeded is the number of event dispatches that returned nil.
	Succeeded uint64

	// Failed is the number of event dispatches that returned an error.
	Failed uint64

	// HandlersExecuted is the total number of handler calls.
	HandlersExecuted uint64

	// HandlerErrors is the number of handler calls that returned errors.
	HandlerErrors uint64

	// HandlerPanics is the number of captured handler panics.
	HandlerPanics uint64

	// InvokerBuilds is the number of invokers compiled (cached strategy only).
	InvokerBuilds uint64

	// CacheHits is the number of invoker lookups served from the cache
	// (cached strategy only).
	CacheHits uint64

	// TotalDuration is the cumulative time spent dispatching events.
	TotalDuration time.Duration

	// HandlerDuration is the cumulative time spent inside handlers.
	HandlerDuration time.Duration

	// AvgDuration is the average event dispatch time.
	AvgDuration time.Duration
}

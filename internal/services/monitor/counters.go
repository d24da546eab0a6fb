package monitor

import "sync/atomic"

// Counters are the advisory per-process throughput counters. They are
// plain atomics incremented from the hot path and sampled on a fixed
// interval - never read on the correctness path.
type Counters struct {
	dispatched   atomic.Int64
	preprocessed atomic.Int64
	completed    atomic.Int64
	failed       atomic.Int64
}

// NewCounters creates a zeroed counter set
func NewCounters() *Counters {
	return &Counters{}
}

func (c *Counters) IncDispatched()   { c.dispatched.Add(1) }
func (c *Counters) IncPreprocessed() { c.preprocessed.Add(1) }
func (c *Counters) IncCompleted()    { c.completed.Add(1) }
func (c *Counters) IncFailed()       { c.failed.Add(1) }

// totals returns the current cumulative values
func (c *Counters) totals() (dispatched, preprocessed, completed, failed int64) {
	return c.dispatched.Load(), c.preprocessed.Load(), c.completed.Load(), c.failed.Load()
}

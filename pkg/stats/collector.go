// Package stats collects operation statistics for a store with atomic
// counters, cheap enough to stay on in production.
package stats

import (
	"sync"
	"sync/atomic"
	"time"
)

// OperationType names a tracked store operation.
type OperationType string

const (
	OpAppend OperationType = "append"
	OpRead   OperationType = "read"
	OpNext   OperationType = "next"
	OpPrev   OperationType = "prev"
	OpSearch OperationType = "search"
	OpVerify OperationType = "verify"
)

// Collector accumulates per-operation counts and latencies plus the
// store-wide byte and padding totals.
type Collector struct {
	countsMu sync.RWMutex
	counts   map[OperationType]*atomic.Uint64

	latencyMu sync.RWMutex
	latencies map[OperationType]*latencyTracker

	bytesWritten atomic.Uint64
	bytesRead    atomic.Uint64
	paddingWords atomic.Uint64

	recoveryTruncated atomic.Uint64
	recoveryDropped   atomic.Uint64

	errors atomic.Uint64
}

type latencyTracker struct {
	count atomic.Uint64
	sum   atomic.Uint64
	max   atomic.Uint64
}

// NewCollector returns an empty collector.
func NewCollector() *Collector {
	return &Collector{
		counts:    make(map[OperationType]*atomic.Uint64),
		latencies: make(map[OperationType]*latencyTracker),
	}
}

// TrackOperation counts one occurrence of op.
func (c *Collector) TrackOperation(op OperationType) {
	c.counter(op).Add(1)
}

// TrackLatency counts one occurrence of op with its duration.
func (c *Collector) TrackLatency(op OperationType, d time.Duration) {
	c.counter(op).Add(1)

	t := c.tracker(op)
	ns := uint64(d.Nanoseconds())
	t.count.Add(1)
	t.sum.Add(ns)
	for {
		cur := t.max.Load()
		if ns <= cur || t.max.CompareAndSwap(cur, ns) {
			break
		}
	}
}

// TrackAppend records the size and padding cost of one append.
func (c *Collector) TrackAppend(payloadBytes, padWords int) {
	c.bytesWritten.Add(uint64(payloadBytes))
	c.paddingWords.Add(uint64(padWords))
}

// TrackRead records bytes handed to a reader.
func (c *Collector) TrackRead(n int) {
	c.bytesRead.Add(uint64(n))
}

// TrackRecovery records what tail recovery discarded on open.
func (c *Collector) TrackRecovery(truncatedBytes int64, droppedRecords int) {
	c.recoveryTruncated.Add(uint64(truncatedBytes))
	c.recoveryDropped.Add(uint64(droppedRecords))
}

// TrackError counts a surfaced error.
func (c *Collector) TrackError() {
	c.errors.Add(1)
}

// Snapshot returns all statistics as a flat map.
func (c *Collector) Snapshot() map[string]interface{} {
	out := make(map[string]interface{})

	c.countsMu.RLock()
	for op, n := range c.counts {
		out[string(op)+"_ops"] = n.Load()
	}
	c.countsMu.RUnlock()

	c.latencyMu.RLock()
	for op, t := range c.latencies {
		n := t.count.Load()
		if n == 0 {
			continue
		}
		out[string(op)+"_avg_ns"] = t.sum.Load() / n
		out[string(op)+"_max_ns"] = t.max.Load()
	}
	c.latencyMu.RUnlock()

	out["bytes_written"] = c.bytesWritten.Load()
	out["bytes_read"] = c.bytesRead.Load()
	out["padding_words"] = c.paddingWords.Load()
	out["recovery_truncated_bytes"] = c.recoveryTruncated.Load()
	out["recovery_dropped_records"] = c.recoveryDropped.Load()
	out["errors"] = c.errors.Load()
	return out
}

func (c *Collector) counter(op OperationType) *atomic.Uint64 {
	c.countsMu.RLock()
	n, ok := c.counts[op]
	c.countsMu.RUnlock()
	if ok {
		return n
	}

	c.countsMu.Lock()
	defer c.countsMu.Unlock()
	if n, ok = c.counts[op]; !ok {
		n = &atomic.Uint64{}
		c.counts[op] = n
	}
	return n
}

func (c *Collector) tracker(op OperationType) *latencyTracker {
	c.latencyMu.RLock()
	t, ok := c.latencies[op]
	c.latencyMu.RUnlock()
	if ok {
		return t
	}

	c.latencyMu.Lock()
	defer c.latencyMu.Unlock()
	if t, ok = c.latencies[op]; !ok {
		t = &latencyTracker{}
		c.latencies[op] = t
	}
	return t
}

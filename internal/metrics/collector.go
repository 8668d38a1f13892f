// Package metrics provides in-memory statistics of Gateway requests.
package metrics

import (
	"sort"
	"sync"
	"time"
)

// endpointStats accumulates round trips of one endpoint.
type endpointStats struct {
	count    int64
	failures int64
	total    time.Duration
	fastest  time.Duration
	slowest  time.Duration
}

func (e *endpointStats) add(d time.Duration, failed bool) {
	if e.count == 0 || d < e.fastest {
		e.fastest = d
	}
	if d > e.slowest {
		e.slowest = d
	}
	e.count++
	e.total += d
	if failed {
		e.failures++
	}
}

// OperationSnapshot is the reported view of one endpoint.
type OperationSnapshot struct {
	Operation   string
	Count       int64
	Failures    int64
	TotalTimeMs int64
	AvgTimeMs   float64
	MinTimeMs   int64
	MaxTimeMs   int64
}

// Snapshot is the request statistics of a process at one instant.
type Snapshot struct {
	UptimeSeconds float64
	Operations    []OperationSnapshot
}

// Collector aggregates request statistics. It is safe for concurrent use.
type Collector struct {
	mu      sync.RWMutex
	started time.Time
	byOp    map[string]*endpointStats
}

func NewCollector() *Collector {
	return &Collector{
		started: time.Now(),
		byOp:    map[string]*endpointStats{},
	}
}

// RecordRequest records one round trip of op. failed counts transport
// failures and error statuses alike.
func (c *Collector) RecordRequest(op string, duration time.Duration, failed bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	stats := c.byOp[op]
	if stats == nil {
		stats = &endpointStats{}
		c.byOp[op] = stats
	}
	stats.add(duration, failed)
}

// Snapshot returns the statistics recorded so far, sorted by operation name.
func (c *Collector) Snapshot() Snapshot {
	c.mu.RLock()
	defer c.mu.RUnlock()

	out := Snapshot{UptimeSeconds: time.Since(c.started).Seconds()}
	for op, stats := range c.byOp {
		if stats.count == 0 {
			continue
		}
		out.Operations = append(out.Operations, OperationSnapshot{
			Operation:   op,
			Count:       stats.count,
			Failures:    stats.failures,
			TotalTimeMs: stats.total.Milliseconds(),
			AvgTimeMs:   float64(stats.total.Milliseconds()) / float64(stats.count),
			MinTimeMs:   stats.fastest.Milliseconds(),
			MaxTimeMs:   stats.slowest.Milliseconds(),
		})
	}
	sort.Slice(out.Operations, func(i, j int) bool {
		return out.Operations[i].Operation < out.Operations[j].Operation
	})
	return out
}

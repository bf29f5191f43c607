package qa

import (
	"sync"
	"time"
)

// PerfMetrics accumulates per-question outcomes for the process lifetime.
// It is created with the service and only reset by restart. All request
// handlers share one instance, so updates are mutex-guarded.
type PerfMetrics struct {
	mu        sync.Mutex
	successes int64
	failures  int64
	queries   int64
	total     time.Duration
}

// PerfSnapshot is a point-in-time copy of the accumulated counters.
type PerfSnapshot struct {
	Successes      int64   `json:"successful_queries"`
	Failures       int64   `json:"failed_queries"`
	Queries        int64   `json:"total_queries"`
	AvgResponseSec float64 `json:"avg_response_time_seconds"`
}

// NewPerfMetrics creates an empty accumulator.
func NewPerfMetrics() *PerfMetrics { return &PerfMetrics{} }

// RecordSuccess counts a successfully answered question.
func (p *PerfMetrics) RecordSuccess(elapsed time.Duration) { p.record(true, elapsed) }

// RecordFailure counts a question whose primary path failed.
func (p *PerfMetrics) RecordFailure(elapsed time.Duration) { p.record(false, elapsed) }

func (p *PerfMetrics) record(ok bool, elapsed time.Duration) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if ok {
		p.successes++
	} else {
		p.failures++
	}
	p.queries++
	p.total += elapsed
}

// Snapshot returns a consistent copy of the counters.
func (p *PerfMetrics) Snapshot() PerfSnapshot {
	p.mu.Lock()
	defer p.mu.Unlock()

	s := PerfSnapshot{
		Successes: p.successes,
		Failures:  p.failures,
		Queries:   p.queries,
	}
	if p.queries > 0 {
		s.AvgResponseSec = p.total.Seconds() / float64(p.queries)
	}
	return s
}

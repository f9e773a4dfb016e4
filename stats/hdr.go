package stats

import (
	"fmt"
	"sync"

	"github.com/codahale/hdrhistogram"
)

// LatencyHistograms tracks a per-verb latency distribution on top of the
// coarse totals in Array. Each verb gets its own histogram so the
// terminal summary can break latency down by SELECT/INSERT/UPDATE/DELETE/
// EXECUTE rather than only reporting one blended average. Shared by every
// worker goroutine plus the Monitor, so all access is mutex-guarded -
// hdrhistogram.Histogram itself has no internal synchronisation.
type LatencyHistograms struct {
	mu     sync.Mutex
	byVerb map[string]*hdrhistogram.Histogram
}

const (
	hdrMin = 1
	hdrMax = 3_600_000_000 // 1 hour, in microseconds
	hdrSig = 3
)

func NewLatencyHistograms() *LatencyHistograms {
	return &LatencyHistograms{byVerb: make(map[string]*hdrhistogram.Histogram)}
}

// Record adds one latency observation, in microseconds, for verb.
func (l *LatencyHistograms) Record(verb string, latencyMicros int64) {
	l.mu.Lock()
	defer l.mu.Unlock()
	h, ok := l.byVerb[verb]
	if !ok {
		h = hdrhistogram.New(hdrMin, hdrMax, hdrSig)
		l.byVerb[verb] = h
	}
	h.RecordValue(latencyMicros)
}

// Summary renders one line per recorded verb.
func (l *LatencyHistograms) Summary() []string {
	l.mu.Lock()
	defer l.mu.Unlock()
	lines := make([]string, 0, len(l.byVerb))
	for verb, h := range l.byVerb {
		lines = append(lines, fmt.Sprintf(
			"%s: count=%d max=%dus min=%dus avg=%.2fus p90=%dus p99=%dus p99.9=%dus",
			verb, h.TotalCount(), h.Max(), h.Min(), h.Mean(),
			h.ValueAtQuantile(90), h.ValueAtQuantile(99), h.ValueAtQuantile(99.9),
		))
	}
	return lines
}

package engine

import (
	"sync"
	"time"

	"sqldrive/rlog"
	"sqldrive/stats"
)

// Monitor periodically reads the shared Stats Array and prints an
// incremental report; on deadline it prints the terminal summary.
// Its deadline is extended by 100ms past the workers' deadline so a
// worker that is mid-retry at the nominal deadline still gets counted
// in the final numbers.
type Monitor struct {
	Stats        *stats.Array
	Hist         *stats.LatencyHistograms
	Threads      int
	ReportPeriod time.Duration
	Deadline     time.Time // workers' deadline; monitor adds its own epsilon
}

const monitorEpsilon = 100 * time.Millisecond

// Run blocks on barrier, then emits one incremental report per
// ReportPeriod tick until Deadline+100ms, followed by the terminal
// summary. The last tick is shortened so the loop ends at that deadline.
func (m *Monitor) Run(barrier *sync.WaitGroup) {
	barrier.Done()
	barrier.Wait()

	deadline := m.Deadline.Add(monitorEpsilon)
	for {
		remaining := time.Until(deadline)
		if remaining <= 0 {
			break
		}
		period := m.ReportPeriod
		if period > remaining {
			period = remaining
		}
		time.Sleep(period)
		snap := stats.Snap(m.Stats)
		rlog.Report(snap.IncrementalReport())
	}

	snap := stats.Snap(m.Stats)
	var hdrLines []string
	if m.Hist != nil {
		hdrLines = m.Hist.Summary()
	}
	rlog.Report(snap.TerminalReport(m.Threads, hdrLines))
}

package stats

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestSnapshotIncrementalReport(t *testing.T) {
	a := New()
	a.CompareAndSwap(StartTime, 0, 0)
	a.Set(EndTime, int64(2*time.Second))
	a.Add(OpsCount, 1000)
	a.Add(TxCount, 100)
	a.Add(LatencyTime, int64(500*time.Millisecond))
	a.Add(TxTime, int64(1*time.Second))

	s := Snap(a)
	report := s.IncrementalReport()
	require.Contains(t, report, "work=")
	require.Contains(t, report, "ave latency=")
	require.Contains(t, report, "ave tx=")
}

func TestSnapshotTerminalReportIncludesAborts(t *testing.T) {
	a := New()
	a.Add(AbortConflict, 2)
	a.Add(AbortDeadlock, 1)
	s := Snap(a)
	report := s.TerminalReport(4, nil)
	require.Contains(t, report, "aborts(conflict=2 deadlock=1)")
}

func TestSnapshotTerminalReportOmitsAbortsWhenZero(t *testing.T) {
	a := New()
	s := Snap(a)
	report := s.TerminalReport(4, nil)
	require.NotContains(t, report, "aborts(")
}

func TestLatencyHistogramsSummary(t *testing.T) {
	h := NewLatencyHistograms()
	h.Record("SELECT", 100)
	h.Record("SELECT", 200)
	lines := h.Summary()
	require.Len(t, lines, 1)
	require.Contains(t, lines[0], "SELECT")
}

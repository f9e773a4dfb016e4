package stats

import (
	"fmt"
	"time"
)

// Snapshot is a point-in-time read of the slots the Monitor cares about,
// taken without any lock (a terminal report tolerates coarse cross-slot
// inconsistency).
type Snapshot struct {
	StartTime    int64
	EndTime      int64
	TxCount      int64
	OpsCount     int64
	RowCount     int64
	LatencyTime  int64
	InactiveTime int64
	OpsTime      int64
	TxTime       int64
	AbortConflict int64
	AbortDeadlock int64
}

func Snap(a *Array) Snapshot {
	return Snapshot{
		StartTime:     a.Get(StartTime),
		EndTime:       a.Get(EndTime),
		TxCount:       a.Get(TxCount),
		OpsCount:      a.Get(OpsCount),
		RowCount:      a.Get(RowCount),
		LatencyTime:   a.Get(LatencyTime),
		InactiveTime:  a.Get(InactiveTime),
		OpsTime:       a.Get(OpsTime),
		TxTime:        a.Get(TxTime),
		AbortConflict: a.Get(AbortConflict),
		AbortDeadlock: a.Get(AbortDeadlock),
	}
}

// IncrementalReport renders the Monitor's one-line periodic report:
//
//	work=OPS/s; time=TOTAL_MS; ave latency=LATENCY/OPS ms; ave tx=TX_TIME/TX_COUNT ms
func (s Snapshot) IncrementalReport() string {
	elapsed := s.EndTime - s.StartTime
	elapsedSec := float64(elapsed) / float64(time.Second)
	opsPerSec := 0.0
	if elapsedSec > 0 {
		opsPerSec = float64(s.OpsCount) / elapsedSec
	}
	aveLatencyMs := safeDivMs(s.LatencyTime, s.OpsCount)
	aveTxMs := safeDivMs(s.TxTime, s.TxCount)

	return fmt.Sprintf(
		"work=%.2f/s; time=%dms; ave latency=%.3fms; ave tx=%.3fms",
		opsPerSec, elapsed/int64(time.Millisecond), aveLatencyMs, aveTxMs,
	)
}

// TerminalReport renders the final summary, including sleep time
// normalised per worker and abort counts when non-zero.
func (s Snapshot) TerminalReport(threads int, hdrLines []string) string {
	elapsed := s.EndTime - s.StartTime
	out := fmt.Sprintf(
		"[TOTALS] ops=%d tx=%d rows=%d time=%dms ave latency=%.3fms ave tx=%.3fms",
		s.OpsCount, s.TxCount, s.RowCount, elapsed/int64(time.Millisecond),
		safeDivMs(s.LatencyTime, s.OpsCount), safeDivMs(s.TxTime, s.TxCount),
	)
	if threads > 0 {
		sleepMs := float64(s.InactiveTime) / float64(threads) / float64(time.Millisecond)
		out += fmt.Sprintf(" sleep=%.3fms", sleepMs)
	}
	if s.AbortConflict > 0 || s.AbortDeadlock > 0 {
		out += fmt.Sprintf(" aborts(conflict=%d deadlock=%d)", s.AbortConflict, s.AbortDeadlock)
	}
	for _, line := range hdrLines {
		out += "\n  " + line
	}
	return out
}

func safeDivMs(numeratorNanos, denominator int64) float64 {
	if denominator == 0 {
		return 0
	}
	return float64(numeratorNanos) / float64(denominator) / float64(time.Millisecond)
}

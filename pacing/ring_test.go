package pacing

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestCapacityFloor(t *testing.T) {
	require.Equal(t, 10000, Capacity(1, 1, 1))
	require.Equal(t, 20000, Capacity(100, 200, 1))
}

func TestRingSizeAndOverwrite(t *testing.T) {
	r := NewRing(3)
	require.Equal(t, 0, r.Size())
	r.Add(0, 1)
	r.Add(1, 2)
	r.Add(2, 3)
	require.Equal(t, 3, r.Size())
	r.Add(3, 4) // overwrites oldest
	require.Equal(t, 3, r.Size())
}

func TestRingGetSleepTimeBelowMinSize(t *testing.T) {
	r := NewRing(100)
	require.Equal(t, int64(0), r.GetSleepTime(1000))
	r.Add(0, 5)
	require.Equal(t, int64(0), r.GetSleepTime(1000))
}

// S5: ring cap 100, 50 adds with end-start=5ms, target=10ms -> 250ms.
func TestRingGetSleepTimeScenarioS5(t *testing.T) {
	r := NewRing(100)
	const ms = int64(1_000_000)
	var ts int64
	for i := 0; i < 50; i++ {
		r.Add(ts, ts+5*ms)
		ts += 5 * ms
	}
	got := r.GetSleepTime(10 * ms)
	require.Equal(t, int64(250)*ms, got)
}

func TestRingGetSleepTimeZeroWhenAheadOfTarget(t *testing.T) {
	r := NewRing(100)
	const ms = int64(1_000_000)
	var ts int64
	for i := 0; i < 10; i++ {
		r.Add(ts, ts+20*ms)
		ts += 20 * ms
	}
	require.Equal(t, int64(0), r.GetSleepTime(5*ms))
}

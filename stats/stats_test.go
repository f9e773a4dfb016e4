package stats

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestArrayAddAndGet(t *testing.T) {
	a := New()
	a.Add(TxCount, 1)
	a.Add(TxCount, 2)
	require.Equal(t, int64(3), a.Get(TxCount))
}

func TestArrayIncrement(t *testing.T) {
	a := New()
	a.Increment(AbortDeadlock)
	a.Increment(AbortDeadlock)
	require.Equal(t, int64(2), a.Get(AbortDeadlock))
}

func TestArrayStartTimeCompareAndSwap(t *testing.T) {
	a := New()
	require.True(t, a.CompareAndSwap(StartTime, 0, 100))
	require.False(t, a.CompareAndSwap(StartTime, 0, 200))
	require.Equal(t, int64(100), a.Get(StartTime))
}

func TestArrayEndTimeSet(t *testing.T) {
	a := New()
	a.Set(EndTime, 1)
	a.Set(EndTime, 2)
	require.Equal(t, int64(2), a.Get(EndTime))
}

func TestArrayConcurrentIncrement(t *testing.T) {
	a := New()
	var wg sync.WaitGroup
	for i := 0; i < 100; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			a.Increment(OpsCount)
		}()
	}
	wg.Wait()
	require.Equal(t, int64(100), a.Get(OpsCount))
}

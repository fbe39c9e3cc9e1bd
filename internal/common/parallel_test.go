package common

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestForEach_SequentialKeepsOrder(t *testing.T) {
	var seen []int
	err := ForEach(context.Background(), 1, 5, func(_ context.Context, i int) error {
		seen = append(seen, i)
		return nil
	})
	require.NoError(t, err)
	assert.Equal(t, []int{0, 1, 2, 3, 4}, seen)
}

func TestForEach_ParallelVisitsEveryIndex(t *testing.T) {
	var (
		mu       sync.Mutex
		seen     = map[int]bool{}
		inFlight atomic.Int32
		peak     atomic.Int32
	)

	err := ForEach(context.Background(), 3, 20, func(_ context.Context, i int) error {
		cur := inFlight.Add(1)
		defer inFlight.Add(-1)
		for {
			p := peak.Load()
			if cur <= p || peak.CompareAndSwap(p, cur) {
				break
			}
		}
		mu.Lock()
		seen[i] = true
		mu.Unlock()
		return nil
	})
	require.NoError(t, err)
	assert.Len(t, seen, 20)
	assert.LessOrEqual(t, peak.Load(), int32(3))
}

func TestForEach_StopsOnError(t *testing.T) {
	boom := errors.New("boom")
	calls := 0
	err := ForEach(context.Background(), 1, 10, func(_ context.Context, i int) error {
		calls++
		if i == 2 {
			return boom
		}
		return nil
	})
	assert.ErrorIs(t, err, boom)
	assert.Equal(t, 3, calls)
}

func TestForEach_CanceledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	for _, workers := range []int{1, 4} {
		err := ForEach(ctx, workers, 3, func(context.Context, int) error { return nil })
		assert.ErrorIs(t, err, context.Canceled)
	}
}

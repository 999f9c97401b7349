package limiter

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewClampsBoundToOne(t *testing.T) {
	assert.Equal(t, 1, New(0).Max())
	assert.Equal(t, 1, New(-5).Max())
	assert.Equal(t, 4, New(4).Max())
}

func TestRunProcessesEveryItemExactlyOnce(t *testing.T) {
	items := []string{"a", "b", "c", "d", "e", "f", "g", "h"}

	var mu sync.Mutex

	seen := make(map[string]int)

	New(3).Run(context.Background(), items, func(_ context.Context, item string) {
		mu.Lock()
		seen[item]++
		mu.Unlock()
	})

	require.Len(t, seen, len(items))

	for _, item := range items {
		assert.Equal(t, 1, seen[item], "item %s", item)
	}
}

func TestRunRespectsConcurrencyBound(t *testing.T) {
	const bound = 2

	var active, peak atomic.Int32

	items := []string{"1", "2", "3", "4", "5", "6", "7", "8", "9", "10"}

	New(bound).Run(context.Background(), items, func(_ context.Context, _ string) {
		current := active.Add(1)

		for {
			max := peak.Load()
			if current <= max || peak.CompareAndSwap(max, current) {
				break
			}
		}

		time.Sleep(5 * time.Millisecond)
		active.Add(-1)
	})

	assert.LessOrEqual(t, peak.Load(), int32(bound))
	assert.Positive(t, peak.Load())
}

func TestRunWithEmptyItems(t *testing.T) {
	called := false

	New(3).Run(context.Background(), nil, func(_ context.Context, _ string) {
		called = true
	})

	assert.False(t, called)
}

func TestRunStopsClaimingAfterCancellation(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())

	var executed atomic.Int32

	items := make([]string, 50)
	for i := range items {
		items[i] = "item"
	}

	New(1).Run(ctx, items, func(_ context.Context, _ string) {
		if executed.Add(1) == 1 {
			cancel()
		}
	})

	assert.Less(t, executed.Load(), int32(len(items)))
}

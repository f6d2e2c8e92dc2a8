package concurrent

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFanOutKeepsOrderAndErrors(t *testing.T) {
	errOdd := errors.New("odd")
	var calls atomic.Int32

	outcomes := FanOut(context.Background(), []int{1, 2, 3, 2, 4}, 2, func(ctx context.Context, n int) (int, error) {
		calls.Add(1)
		if n%2 == 1 {
			return 0, errOdd
		}
		return n * 10, nil
	})

	require.Len(t, outcomes, 4)
	assert.Equal(t, int32(4), calls.Load())
	assert.Equal(t, []int{1, 2, 3, 4}, []int{outcomes[0].Key, outcomes[1].Key, outcomes[2].Key, outcomes[3].Key})
	assert.ErrorIs(t, outcomes[0].Err, errOdd)
	assert.Equal(t, 20, outcomes[1].Value)
	assert.ErrorIs(t, outcomes[2].Err, errOdd)
	assert.Equal(t, 40, outcomes[3].Value)
}

func TestFanOutRespectsLimit(t *testing.T) {
	var running, peak atomic.Int32

	keys := make([]int, 10)
	for i := range keys {
		keys[i] = i
	}

	FanOut(context.Background(), keys, 3, func(ctx context.Context, _ int) (struct{}, error) {
		n := running.Add(1)
		for {
			p := peak.Load()
			if n <= p || peak.CompareAndSwap(p, n) {
				break
			}
		}
		time.Sleep(5 * time.Millisecond)
		running.Add(-1)
		return struct{}{}, nil
	})

	assert.LessOrEqual(t, peak.Load(), int32(3))
}

func TestFanOutCanceledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	outcomes := FanOut(ctx, []string{"a", "b", "c"}, 1, func(ctx context.Context, _ string) (int, error) {
		return 1, nil
	})

	require.Len(t, outcomes, 3)
	for _, o := range outcomes {
		if o.Err != nil {
			assert.ErrorIs(t, o.Err, context.Canceled)
		}
	}
}

func TestFanOutEmpty(t *testing.T) {
	outcomes := FanOut(context.Background(), nil, 0, func(ctx context.Context, _ string) (int, error) {
		t.Fatal("no keys, no calls")
		return 0, nil
	})
	assert.Empty(t, outcomes)
}

func TestDistinct(t *testing.T) {
	assert.Equal(t, []string{"b", "a", "c"}, Distinct([]string{"b", "a", "b", "c", "a"}))
	assert.Empty(t, Distinct[string](nil))
}

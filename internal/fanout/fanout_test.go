package fanout

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/thedavidhackett/draft-two/internal/apperr"
	"github.com/thedavidhackett/draft-two/internal/logger"
)

func TestInvokeMany_IndexOrder(t *testing.T) {
	const count = 5
	order := []int{4, 1, 0, 3, 2}

	gates := make([]chan struct{}, count)
	done := make([]chan struct{}, count)
	for i := range gates {
		gates[i] = make(chan struct{})
		done[i] = make(chan struct{})
	}

	var mu sync.Mutex
	var completed []int

	fn := func(ctx context.Context, index int, payload []byte) (string, error) {
		<-gates[index]
		defer close(done[index])
		mu.Lock()
		completed = append(completed, index)
		mu.Unlock()
		if index == 2 {
			return "", errors.New("upstream 500")
		}
		return fmt.Sprintf("%s-%d", payload, index), nil
	}

	inv := New(fn, Config{MaxInFlight: count}, logger.NewNop())

	type result struct {
		outcomes []Outcome[string]
		err      error
	}
	resCh := make(chan result, 1)
	go func() {
		o, err := inv.InvokeMany(context.Background(), []byte("audio"), count)
		resCh <- result{o, err}
	}()

	for _, i := range order {
		close(gates[i])
		<-done[i]
	}
	res := <-resCh
	require.NoError(t, res.err)

	assert.Equal(t, order, completed)
	require.Len(t, res.outcomes, count)
	for i, o := range res.outcomes {
		assert.Equal(t, i, o.Index)
		if i == 2 {
			assert.EqualError(t, o.Err, "upstream 500")
			continue
		}
		assert.NoError(t, o.Err)
		assert.Equal(t, fmt.Sprintf("audio-%d", i), o.Value)
	}
}

func TestInvokeMany_BoundedConcurrency(t *testing.T) {
	var inFlight, peak atomic.Int32

	fn := func(ctx context.Context, index int, payload []byte) (int, error) {
		n := inFlight.Add(1)
		for {
			p := peak.Load()
			if n <= p || peak.CompareAndSwap(p, n) {
				break
			}
		}
		time.Sleep(5 * time.Millisecond)
		inFlight.Add(-1)
		return index, nil
	}

	outcomes, err := New(fn, Config{MaxInFlight: 2}, logger.NewNop()).InvokeMany(context.Background(), nil, 8)
	require.NoError(t, err)
	assert.Len(t, outcomes, 8)
	assert.LessOrEqual(t, peak.Load(), int32(2))
}

func TestInvokeMany_InvalidCount(t *testing.T) {
	fn := func(ctx context.Context, index int, payload []byte) (int, error) { return 0, nil }

	for _, count := range []int{0, -1} {
		_, err := New(fn, Config{}, logger.NewNop()).InvokeMany(context.Background(), nil, count)
		if !apperr.Is(err, apperr.CodeValidation) {
			t.Errorf("InvokeMany(count=%d) error = %v, want VALIDATION", count, err)
		}
	}
}

func TestInvokeMany_PanicIsolated(t *testing.T) {
	fn := func(ctx context.Context, index int, payload []byte) (int, error) {
		if index == 1 {
			panic("boom")
		}
		return index * 10, nil
	}

	outcomes, err := New(fn, Config{MaxInFlight: 3}, logger.NewNop()).InvokeMany(context.Background(), nil, 3)
	require.NoError(t, err)
	assert.Equal(t, 0, outcomes[0].Value)
	assert.ErrorContains(t, outcomes[1].Err, "panicked")
	assert.Equal(t, 20, outcomes[2].Value)
}

func TestInvokeMany_CancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	var calls atomic.Int32
	fn := func(ctx context.Context, index int, payload []byte) (int, error) {
		calls.Add(1)
		return 0, nil
	}

	outcomes, err := New(fn, Config{RequestsPerSecond: 100}, logger.NewNop()).InvokeMany(ctx, nil, 3)
	require.NoError(t, err)
	for _, o := range outcomes {
		assert.Error(t, o.Err)
	}
	assert.Zero(t, calls.Load())
}

package workerpool

import (
	"context"
	"errors"
	"fmt"
	"sync/atomic"
	"testing"
	"time"

	"creatorjoy/pkg/logger"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRunPreservesOrder(t *testing.T) {
	payloads := []int{5, 1, 4, 2, 3, 0, 6, 7, 8, 9}

	results := Run(context.Background(), 3, payloads, func(ctx context.Context, n int) (string, error) {
		time.Sleep(time.Duration(n) * time.Millisecond)
		return fmt.Sprintf("item-%d", n), nil
	}, logger.NewNopLogger())

	require.Len(t, results, len(payloads))
	for i, r := range results {
		assert.Equal(t, i, r.Job.Index)
		assert.Equal(t, fmt.Sprintf("item-%d", payloads[i]), r.Value)
		assert.NoError(t, r.Error)
	}
}

func TestRunBoundsConcurrency(t *testing.T) {
	var active, peak int32

	Run(context.Background(), 2, make([]struct{}, 10), func(ctx context.Context, _ struct{}) (int, error) {
		n := atomic.AddInt32(&active, 1)
		for {
			p := atomic.LoadInt32(&peak)
			if n <= p || atomic.CompareAndSwapInt32(&peak, p, n) {
				break
			}
		}
		time.Sleep(5 * time.Millisecond)
		atomic.AddInt32(&active, -1)
		return 0, nil
	}, logger.NewNopLogger())

	assert.LessOrEqual(t, atomic.LoadInt32(&peak), int32(2))
}

func TestRunCapturesErrorsAndPanics(t *testing.T) {
	results := Run(context.Background(), 2, []int{0, 1, 2}, func(ctx context.Context, n int) (int, error) {
		switch n {
		case 1:
			return 0, errors.New("extractor failed")
		case 2:
			panic("boom")
		}
		return n, nil
	}, logger.NewNopLogger())

	assert.NoError(t, results[0].Error)
	assert.EqualError(t, results[1].Error, "extractor failed")
	assert.ErrorContains(t, results[2].Error, "worker panic")
}

func TestRunEmpty(t *testing.T) {
	assert.Empty(t, Run(context.Background(), 5, []int(nil), func(ctx context.Context, n int) (int, error) {
		return n, nil
	}, nil))
}

func TestRunCancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	var calls int32
	results := Run(ctx, 2, []int{1, 2, 3, 4, 5, 6, 7, 8}, func(ctx context.Context, n int) (int, error) {
		atomic.AddInt32(&calls, 1)
		return n, nil
	}, logger.NewNopLogger())

	require.Len(t, results, 8)
	for i, r := range results {
		assert.Equal(t, i, r.Job.Index)
		assert.ErrorIs(t, r.Error, context.Canceled)
	}
	assert.Equal(t, int32(0), atomic.LoadInt32(&calls))
}

func TestWorkerPoolSubmitAfterStop(t *testing.T) {
	pool := NewWorkerPool(context.Background(), 1, func(ctx context.Context, n int) (int, error) {
		return n, nil
	}, logger.NewNopLogger())
	pool.Start()

	require.NoError(t, pool.Submit(Job[int]{Index: 0, Payload: 1}))
	r := <-pool.Results()
	assert.Equal(t, 1, r.Value)

	pool.Stop()
	_, open := <-pool.Results()
	assert.False(t, open)
}

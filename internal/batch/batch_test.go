package batch

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func seq(n int) []int {
	items := make([]int, n)
	for i := range items {
		items[i] = i
	}
	return items
}

func TestBatches_ConcatenationPreservesOrder(t *testing.T) {
	for _, n := range []int{0, 1, 7, 49, 50, 51, 100, 123} {
		for _, size := range []int{1, 3, 50, 200} {
			p, err := NewProcessor[int](size)
			require.NoError(t, err)

			items := seq(n)
			var joined []int
			var sizes []int
			for _, b := range p.Batches(items) {
				joined = append(joined, b...)
				sizes = append(sizes, len(b))
			}

			if n == 0 {
				assert.Empty(t, sizes, "n=%d size=%d", n, size)
				continue
			}
			assert.Equal(t, items, joined, "n=%d size=%d", n, size)

			for i, s := range sizes[:len(sizes)-1] {
				assert.Equal(t, size, s, "batch %d n=%d size=%d", i, n, size)
			}
			wantLast := n % size
			if wantLast == 0 {
				wantLast = size
			}
			assert.Equal(t, wantLast, sizes[len(sizes)-1], "n=%d size=%d", n, size)
		}
	}
}

func TestBatches_EarlyBreakAndRestart(t *testing.T) {
	p, err := NewProcessor[int](2)
	require.NoError(t, err)
	items := seq(6)

	var seen []int
	for i, b := range p.Batches(items) {
		seen = append(seen, b[0])
		if i == 1 {
			break
		}
	}
	assert.Equal(t, []int{0, 2}, seen)

	// A fresh call starts from the beginning.
	for _, b := range p.Batches(items) {
		assert.Equal(t, []int{0, 1}, b)
		break
	}
}

func TestBatches_AppendDoesNotClobberNext(t *testing.T) {
	p, err := NewProcessor[int](2)
	require.NoError(t, err)
	items := seq(4)

	for i, b := range p.Batches(items) {
		if i == 0 {
			_ = append(b, 99)
		}
	}
	assert.Equal(t, seq(4), items)
}

func TestNewProcessor_InvalidBatchSize(t *testing.T) {
	for _, size := range []int{0, -1} {
		_, err := NewProcessor[int](size)
		assert.ErrorIs(t, err, ErrInvalidBatchSize)
	}
	p, err := NewProcessor[string](DefaultBatchSize)
	require.NoError(t, err)
	assert.Equal(t, DefaultBatchSize, p.GetBatchSize())
}

func TestProcessor_Process(t *testing.T) {
	items := seq(25)

	t.Run("Sequential", func(t *testing.T) {
		p, _ := NewProcessor[int](10)
		var batches, processed int
		var last *Progress
		p.WithProgressCallback(func(pr *Progress) { last = pr })

		err := p.Process(context.Background(), items, func(_ context.Context, b []int, _ int) error {
			batches++
			processed += len(b)
			return nil
		})
		require.NoError(t, err)
		assert.Equal(t, 3, batches)
		assert.Equal(t, 25, processed)
		require.NotNil(t, last)
		assert.True(t, last.IsComplete())
		assert.Equal(t, 3, last.ProcessedBatches)
	})

	t.Run("Stop", func(t *testing.T) {
		p, _ := NewProcessor[int](10)
		var calls int
		err := p.Process(context.Background(), items, func(_ context.Context, _ []int, idx int) error {
			calls++
			if idx == 1 {
				return ErrStop
			}
			return nil
		})
		require.NoError(t, err)
		assert.Equal(t, 2, calls)
	})

	t.Run("ErrorHandling", func(t *testing.T) {
		p, _ := NewProcessor[int](10)
		boom := errors.New("fail")
		err := p.Process(context.Background(), items, func(_ context.Context, _ []int, idx int) error {
			if idx == 1 {
				return boom
			}
			return nil
		})
		require.ErrorIs(t, err, boom)
		assert.Contains(t, err.Error(), "batch 1 failed")
	})

	t.Run("Cancelled", func(t *testing.T) {
		p, _ := NewProcessor[int](10)
		ctx, cancel := context.WithCancel(context.Background())
		cancel()
		err := p.Process(ctx, items, func(context.Context, []int, int) error { return nil })
		assert.ErrorIs(t, err, context.Canceled)
	})

	t.Run("EmptyItems", func(t *testing.T) {
		p, _ := NewProcessor[int](DefaultBatchSize)
		called := false
		err := p.Process(context.Background(), nil, func(context.Context, []int, int) error {
			called = true
			return nil
		})
		require.NoError(t, err)
		assert.False(t, called)
	})
}

func TestProcessor_CalculateBatches(t *testing.T) {
	p, _ := NewProcessor[int](10)
	batches := p.CalculateBatches(25)
	require.Len(t, batches, 3)
	assert.Equal(t, [2]int{0, 10}, batches[0])
	assert.Equal(t, [2]int{10, 20}, batches[1])
	assert.Equal(t, [2]int{20, 25}, batches[2])
	assert.Equal(t, 3, p.TotalBatches(25))
	assert.Equal(t, 0, p.TotalBatches(0))
}

func TestProgress(t *testing.T) {
	p := NewProgress(100, 10, 10)
	assert.Equal(t, 0.0, p.PercentComplete())
	assert.False(t, p.IsComplete())

	p.AddProcessed(10)
	assert.Equal(t, 10.0, p.PercentComplete())
	assert.Equal(t, 1, p.ProcessedBatches)

	time.Sleep(time.Millisecond)
	p.AddProcessed(90)
	assert.True(t, p.IsComplete())
	assert.Greater(t, p.ElapsedTime(), time.Duration(0))
	assert.Greater(t, p.ItemsPerSecond(), 0.0)

	assert.Equal(t, 0.0, NewProgress(0, 0, 10).PercentComplete())
}

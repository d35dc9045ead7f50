package batch

import (
	"context"
	"errors"
	"strconv"
	"sync"
	"sync/atomic"
	"testing"

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

func TestNewProcessor(t *testing.T) {
	tests := []struct {
		size    int
		wantErr bool
	}{
		{size: 1},
		{size: 1000},
		{size: 0, wantErr: true},
		{size: 1001, wantErr: true},
	}
	for _, tt := range tests {
		t.Run(strconv.Itoa(tt.size), func(t *testing.T) {
			p, err := NewProcessor[int](tt.size)
			if tt.wantErr {
				assert.ErrorIs(t, err, ErrInvalidBatchSize)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.size, p.BatchSize())
		})
	}
}

func TestProcessor_Bounds(t *testing.T) {
	p, err := NewProcessor[int](10)
	require.NoError(t, err)
	assert.Equal(t, [][2]int{{0, 10}, {10, 20}, {20, 25}}, p.Bounds(25))
	assert.Empty(t, p.Bounds(0))
}

func TestProcessor_Process(t *testing.T) {
	items := seq(25)

	t.Run("sequential", func(t *testing.T) {
		p, _ := NewProcessor[int](10)
		var order []int
		err := p.Process(context.Background(), items, func(_ context.Context, batch []int, idx int) error {
			order = append(order, idx)
			return nil
		})
		require.NoError(t, err)
		assert.Equal(t, []int{0, 1, 2}, order)
	})

	t.Run("concurrent", func(t *testing.T) {
		p, _ := NewProcessor[int](5)
		var processed int32
		var snaps []Snapshot
		var mu sync.Mutex
		p.WithProgressCallback(func(s Snapshot) {
			mu.Lock()
			snaps = append(snaps, s)
			mu.Unlock()
		})

		err := p.ProcessConcurrent(context.Background(), items, func(_ context.Context, batch []int, _ int) error {
			atomic.AddInt32(&processed, int32(len(batch))) //nolint:gosec // small test values
			return nil
		}, 3)
		require.NoError(t, err)
		assert.Equal(t, int32(25), processed)
		require.Len(t, snaps, 5)

		last := snaps[0]
		for _, s := range snaps {
			if s.ProcessedItems > last.ProcessedItems {
				last = s
			}
		}
		assert.InDelta(t, 100.0, last.PercentComplete(), 1e-9)
	})

	t.Run("error stops processing", func(t *testing.T) {
		p, _ := NewProcessor[int](10)
		err := p.Process(context.Background(), items, func(_ context.Context, _ []int, idx int) error {
			if idx == 1 {
				return errors.New("fail")
			}
			return nil
		})
		require.Error(t, err)
		assert.Contains(t, err.Error(), "batch 1 failed")
	})

	t.Run("validation", func(t *testing.T) {
		p := NewProcessorWithDefaults[int]()
		assert.ErrorIs(t, p.Process(context.Background(), nil, func(context.Context, []int, int) error { return nil }), ErrEmptyItems)
		assert.ErrorIs(t, p.Process(context.Background(), items, nil), ErrNilCallback)
	})

	t.Run("cancelled context", func(t *testing.T) {
		p, _ := NewProcessor[int](1)
		ctx, cancel := context.WithCancel(context.Background())
		cancel()
		err := p.Process(ctx, items, func(context.Context, []int, int) error { return nil })
		assert.ErrorIs(t, err, context.Canceled)
	})
}

func TestMap(t *testing.T) {
	p, err := NewProcessor[int](4)
	require.NoError(t, err)

	results, err := Map(context.Background(), p, seq(10), 3, func(_ context.Context, n int) (string, error) {
		if n == 7 {
			return "", errors.New("seven")
		}
		return strconv.Itoa(n * n), nil
	})
	require.NoError(t, err)
	require.Len(t, results, 10)

	for i, r := range results {
		assert.Equal(t, i, r.Index)
		if i == 7 {
			assert.EqualError(t, r.Err, "seven")
			continue
		}
		require.NoError(t, r.Err)
		assert.Equal(t, strconv.Itoa(i*i), r.Value)
	}

	empty, err := Map(context.Background(), p, nil, 1, func(context.Context, int) (int, error) { return 0, nil })
	require.NoError(t, err)
	assert.Empty(t, empty)
}

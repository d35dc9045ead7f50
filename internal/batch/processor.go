// Package batch splits work into fixed-size batches and runs them with
// bounded concurrency.
package batch

import (
	"context"
	"fmt"

	"golang.org/x/sync/errgroup"
)

// Batch size limits.
const (
	DefaultBatchSize = 25
	MinBatchSize     = 1
	MaxBatchSize     = 1000
)

type constError string

func (e constError) Error() string { return string(e) }

// Sentinel errors.
var (
	ErrInvalidBatchSize = constError("batch size must be between 1 and 1000")
	ErrNilCallback      = constError("batch callback cannot be nil")
	ErrEmptyItems       = constError("items slice cannot be empty")
)

// Callback handles one batch. batchIndex counts from zero.
type Callback[T any] func(ctx context.Context, batch []T, batchIndex int) error

// ProgressCallback is invoked after each completed batch.
type ProgressCallback func(s Snapshot)

// Processor runs callbacks over batches of items.
type Processor[T any] struct {
	batchSize  int
	onProgress ProgressCallback
}

// NewProcessor validates batchSize.
func NewProcessor[T any](batchSize int) (*Processor[T], error) {
	if batchSize < MinBatchSize || batchSize > MaxBatchSize {
		return nil, fmt.Errorf("%w: got %d", ErrInvalidBatchSize, batchSize)
	}
	return &Processor[T]{batchSize: batchSize}, nil
}

// NewProcessorWithDefaults uses DefaultBatchSize.
func NewProcessorWithDefaults[T any]() *Processor[T] {
	return &Processor[T]{batchSize: DefaultBatchSize}
}

// WithProgressCallback registers cb and returns p.
func (p *Processor[T]) WithProgressCallback(cb ProgressCallback) *Processor[T] {
	p.onProgress = cb
	return p
}

// BatchSize returns the configured batch size.
func (p *Processor[T]) BatchSize() int { return p.batchSize }

// Bounds returns the [start,end) item range of every batch.
func (p *Processor[T]) Bounds(totalItems int) [][2]int {
	n := (totalItems + p.batchSize - 1) / p.batchSize
	out := make([][2]int, n)
	for i := range n {
		start := i * p.batchSize
		out[i] = [2]int{start, min(start+p.batchSize, totalItems)}
	}
	return out
}

// Process runs batches one after another, stopping at the first error.
func (p *Processor[T]) Process(ctx context.Context, items []T, cb Callback[T]) error {
	return p.ProcessConcurrent(ctx, items, cb, 1)
}

// ProcessConcurrent runs up to maxConcurrency batches at once. The first
// error cancels the remaining batches and is returned.
func (p *Processor[T]) ProcessConcurrent(ctx context.Context, items []T, cb Callback[T], maxConcurrency int) error {
	if len(items) == 0 {
		return ErrEmptyItems
	}
	if cb == nil {
		return ErrNilCallback
	}
	maxConcurrency = max(maxConcurrency, 1)

	bounds := p.Bounds(len(items))
	progress := newProgress(len(items), len(bounds))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(maxConcurrency)
	for i, b := range bounds {
		if gctx.Err() != nil {
			break
		}
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			batch := items[b[0]:b[1]]
			if err := cb(gctx, batch, i); err != nil {
				return fmt.Errorf("batch %d failed: %w", i, err)
			}
			s := progress.add(len(batch))
			if p.onProgress != nil {
				p.onProgress(s)
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return err
	}
	return ctx.Err()
}

// Result is the outcome for one item of Map.
type Result[Out any] struct {
	Index int
	Value Out
	Err   error
}

// Map applies fn to every item using p's batching with up to maxConcurrency
// batches in flight. Item errors are recorded in their Result and do not
// stop other items; only context cancellation aborts the run.
func Map[In, Out any](
	ctx context.Context,
	p *Processor[In],
	items []In,
	maxConcurrency int,
	fn func(ctx context.Context, item In) (Out, error),
) ([]Result[Out], error) {
	results := make([]Result[Out], len(items))
	if len(items) == 0 {
		return results, nil
	}
	if fn == nil {
		return nil, ErrNilCallback
	}

	err := p.ProcessConcurrent(ctx, items, func(ctx context.Context, batch []In, batchIndex int) error {
		offset := batchIndex * p.batchSize
		for j, item := range batch {
			if err := ctx.Err(); err != nil {
				return err
			}
			v, itemErr := fn(ctx, item)
			results[offset+j] = Result[Out]{Index: offset + j, Value: v, Err: itemErr}
		}
		return nil
	}, maxConcurrency)
	if err != nil {
		return nil, err
	}
	return results, nil
}

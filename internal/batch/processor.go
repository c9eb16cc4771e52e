package batch

import (
	"context"
	"errors"
	"fmt"
	"iter"
)

// DefaultBatchSize is the number of titles the article lookup API accepts per
// query for anonymous and ordinary authenticated clients.
const DefaultBatchSize = 50

// Common batch processing errors.
var (
	ErrInvalidBatchSize = errors.New("batch size must be positive")
	// ErrStop ends Process early without reporting a failure.
	ErrStop             = errors.New("stop batch processing")
)

// Callback processes a single batch. batchIndex is zero-based.
type Callback[T any] func(ctx context.Context, batch []T, batchIndex int) error

// ProgressCallback is invoked after each batch completes.
type ProgressCallback func(progress *Progress)

// Processor splits slices into batches of a fixed size.
type Processor[T any] struct {
	batchSize  int
	onProgress ProgressCallback
}

// NewProcessor creates a processor with the given batch size.
func NewProcessor[T any](batchSize int) (*Processor[T], error) {
	if batchSize <= 0 {
		return nil, fmt.Errorf("%w: got %d", ErrInvalidBatchSize, batchSize)
	}
	return &Processor[T]{batchSize: batchSize}, nil
}

// WithProgressCallback sets a progress callback for Process.
func (p *Processor[T]) WithProgressCallback(callback ProgressCallback) *Processor[T] {
	p.onProgress = callback
	return p
}

// Batches returns a one-pass iterator over (batchIndex, batch) pairs. Every
// batch has the configured size except possibly the last. Empty input yields
// nothing. Calling Batches again restarts from the first batch.
func (p *Processor[T]) Batches(items []T) iter.Seq2[int, []T] {
	return func(yield func(int, []T) bool) {
		for i, bounds := range p.CalculateBatches(len(items)) {
			// Cap the capacity so appends by a consumer never clobber the next batch.
			if !yield(i, items[bounds[0]:bounds[1]:bounds[1]]) {
				return
			}
		}
	}
}

// Process runs callback over each batch in order and stops on the first error.
// A callback returning ErrStop (or an error wrapping it) ends processing
// successfully.
func (p *Processor[T]) Process(ctx context.Context, items []T, callback Callback[T]) error {
	totalBatches := p.calculateTotalBatches(len(items))
	progress := NewProgress(len(items), totalBatches, p.batchSize)

	for batchIndex, batch := range p.Batches(items) {
		if err := ctx.Err(); err != nil {
			return err
		}

		if err := callback(ctx, batch, batchIndex); err != nil {
			progress.AddProcessed(len(batch))
			p.notify(progress)
			if errors.Is(err, ErrStop) {
				return nil
			}
			return fmt.Errorf("batch %d failed: %w", batchIndex, err)
		}

		progress.AddProcessed(len(batch))
		p.notify(progress)
	}

	return nil
}

// GetBatchSize returns the configured batch size.
func (p *Processor[T]) GetBatchSize() int {
	return p.batchSize
}

// CalculateBatches returns [start, end) bounds for each batch over totalItems.
func (p *Processor[T]) CalculateBatches(totalItems int) [][2]int {
	totalBatches := p.calculateTotalBatches(totalItems)
	batches := make([][2]int, totalBatches)

	for i := range totalBatches {
		start := i * p.batchSize
		end := min(start+p.batchSize, totalItems)
		batches[i] = [2]int{start, end}
	}

	return batches
}

// TotalBatches returns how many batches totalItems splits into.
func (p *Processor[T]) TotalBatches(totalItems int) int {
	return p.calculateTotalBatches(totalItems)
}

func (p *Processor[T]) calculateTotalBatches(totalItems int) int {
	batches := totalItems / p.batchSize
	if totalItems%p.batchSize > 0 {
		batches++
	}
	return batches
}

func (p *Processor[T]) notify(progress *Progress) {
	if p.onProgress != nil {
		p.onProgress(progress)
	}
}

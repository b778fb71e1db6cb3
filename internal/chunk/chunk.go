// Package chunk runs work items in fixed-size concurrent batches.
//
// Batches run strictly one after another; the items of a batch run
// concurrently and the next batch starts only once every worker of the
// current one has returned. Peak concurrency is therefore the batch size.
package chunk

import (
	"context"

	"golang.org/x/sync/errgroup"
)

// Partition splits items into ordered chunks of at most size elements. A
// non-positive size yields a single chunk.
func Partition[T any](items []T, size int) [][]T {
	if len(items) == 0 {
		return nil
	}
	if size <= 0 || size > len(items) {
		size = len(items)
	}
	out := make([][]T, 0, (len(items)+size-1)/size)
	for start := 0; start < len(items); start += size {
		end := min(start+size, len(items))
		out = append(out, items[start:end:end])
	}
	return out
}

// Worker processes the item at index i. Workers own their failures: they
// report them through R rather than aborting the batch.
type Worker[T, R any] func(ctx context.Context, i int, item T) R

// Run applies worker to every item and returns the results positionally. The
// only error is the context error when ctx is cancelled between chunks;
// results for items never dispatched are left as zero values.
func Run[T, R any](ctx context.Context, items []T, size int, worker Worker[T, R]) ([]R, error) {
	results := make([]R, len(items))
	offset := 0
	for _, batch := range Partition(items, size) {
		if err := ctx.Err(); err != nil {
			return results, err
		}
		var group errgroup.Group
		for j, item := range batch {
			idx := offset + j
			group.Go(func() error {
				results[idx] = worker(ctx, idx, item)
				return nil
			})
		}
		_ = group.Wait()
		offset += len(batch)
	}
	return results, nil
}

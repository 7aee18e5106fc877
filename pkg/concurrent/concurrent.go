package concurrent

import (
	"context"
	"runtime"

	"golang.org/x/sync/errgroup"
)

// Workers normalizes a requested worker count: values below one mean one
// worker per CPU.
func Workers(n int) int {
	if n < 1 {
		return runtime.GOMAXPROCS(0)
	}
	return n
}

// ForEach runs action for every element with at most workers goroutines. The
// first error cancels the context handed to the remaining actions and is
// returned once all started actions have finished.
func ForEach[T any](ctx context.Context, items []T, workers int, action func(ctx context.Context, idx int, item T) error) error {
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(Workers(workers))

	for idx, item := range items {
		if gctx.Err() != nil {
			break
		}
		idx, item := idx, item
		g.Go(func() error {
			return action(gctx, idx, item)
		})
	}

	if err := g.Wait(); err != nil {
		return err
	}
	return ctx.Err()
}

// Map applies mapFn to every element in parallel, preserving order. It stops
// at the first error like ForEach.
func Map[T any, R any](ctx context.Context, items []T, workers int, mapFn func(ctx context.Context, item T) (R, error)) ([]R, error) {
	out := make([]R, len(items))
	err := ForEach(ctx, items, workers, func(ctx context.Context, idx int, item T) error {
		r, err := mapFn(ctx, item)
		if err != nil {
			return err
		}
		out[idx] = r
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

// MapAll is Map without fail-fast: every element is processed and errors are
// reported per index. Cancelling ctx is still visible to mapFn.
func MapAll[T any, R any](ctx context.Context, items []T, workers int, mapFn func(ctx context.Context, item T) (R, error)) ([]R, []error) {
	out := make([]R, len(items))
	errs := make([]error, len(items))

	var g errgroup.Group
	g.SetLimit(Workers(workers))
	for idx, item := range items {
		idx, item := idx, item
		g.Go(func() error {
			out[idx], errs[idx] = mapFn(ctx, item)
			return nil
		})
	}
	_ = g.Wait()
	return out, errs
}

package reconcile

import (
	"context"

	"golang.org/x/sync/errgroup"
)

// fanOut runs one task per item with bounded parallelism and joins before
// returning. limit <= 0 means one task per item with no cap. A task signals
// a dropped item by returning ok == false; failures never abort the stage,
// and surviving results keep input order.
func fanOut[T, R any](ctx context.Context, limit int, items []T, task func(context.Context, T) (R, bool)) []R {
	if len(items) == 0 {
		return nil
	}

	results := make([]*R, len(items))
	g, ctx := errgroup.WithContext(ctx)
	if limit > 0 {
		g.SetLimit(limit)
	}
	for i, item := range items {
		i, item := i, item
		g.Go(func() error {
			if r, ok := task(ctx, item); ok {
				results[i] = &r
			}
			return nil
		})
	}
	_ = g.Wait()

	out := make([]R, 0, len(items))
	for _, r := range results {
		if r != nil {
			out = append(out, *r)
		}
	}
	return out
}

func flatten[T any](groups [][]T) []T {
	var out []T
	for _, group := range groups {
		out = append(out, group...)
	}
	return out
}

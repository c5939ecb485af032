package tasks

import (
	"context"
	"iter"
	"slices"
)

// FromSlice returns a source that yields items in order. It can be ranged over any
// number of times.
func FromSlice[C any](items []C) iter.Seq[C] { return slices.Values(items) }

// Collect pulls d until it is exhausted and closes it.
// On the first error the collected results are discarded and the error is returned.
func Collect[C, M any](ctx context.Context, d *Dispatcher[C, M]) ([]M, error) {
	defer func() { _ = d.Close(ctx) }()

	out := make([]M, 0, d.Window())
	for v, err := range d.All(ctx) {
		if err != nil {
			return nil, err
		}
		out = append(out, v)
	}
	return out, nil
}

// Map applies fn to every item with at most n workers in flight and returns the results.
// Results are in input order unless WithMode(Unordered) is given.
func Map[C, M any](ctx context.Context, items []C, n int, fn Func[C, M], opts ...Option) ([]M, error) {
	d, err := New(FromSlice(items), n, fn, opts...)
	if err != nil {
		return nil, err
	}
	return Collect(ctx, d)
}

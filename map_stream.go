package tasks

import "context"

// MapStream consumes items from in, applies fn with at most n workers in flight and
// delivers results on the returned channel. A non-nil error is returned only for setup
// failures (invalid window or options). A fatal worker failure or ctx cancellation is
// delivered once on the errors channel.
//
// Lifecycle:
//   - Intake ends when in is closed or ctx is done.
//   - Both returned channels are closed after the last result (or the error) has been
//     delivered and every spawned worker has finished.
//
// Each pull fills the window from in before waiting, so with n > 1 a completed result is
// delivered only once n items have arrived or intake has ended.
//
// Ordering follows WithMode: input order by default.
func MapStream[C, M any](
	ctx context.Context, in <-chan C, n int, fn Func[C, M], opts ...Option,
) (results <-chan M, errors <-chan error, errOut error) {
	source := func(yield func(C) bool) {
		for {
			select {
			case <-ctx.Done():
				return
			case v, ok := <-in:
				if !ok || !yield(v) {
					return
				}
			}
		}
	}

	d, err := New(source, n, fn, opts...)
	if err != nil {
		return nil, nil, err
	}

	out := make(chan M)
	errs := make(chan error, 1)

	go func() {
		defer close(errs)
		defer close(out)
		defer func() { _ = d.Close(context.WithoutCancel(ctx)) }()

		for v, err := range d.All(ctx) {
			if err != nil {
				errs <- err
				return
			}
			select {
			case out <- v:
			case <-ctx.Done():
				errs <- ctx.Err()
				return
			}
		}
		if err := ctx.Err(); err != nil {
			errs <- err
		}
	}()

	return out, errs, nil
}

package tasks

import (
	"context"
	"errors"
	"fmt"
	"iter"
	"strconv"
	"sync"

	"github.com/ygrebnov/errorc"
	"go.uber.org/zap"

	"github.com/ygrebnov/tasks/mailbox"
)

// Dispatcher pulls items from a source, runs the mapping function on each in its own
// worker goroutine with at most Window workers outstanding, and hands results back one
// pull at a time.
//
// A Dispatcher is driven by a single consumer: Next, All, Snapshot and Close must not be
// called concurrently.
type Dispatcher[C, M any] struct {
	cfg    *config
	window int
	fn     Func[C, M]

	next func() (C, bool)
	stop func()

	mb   *mailbox.Mailbox
	coll collector
	inst *instruments

	// running counts spawned workers that have not reported yet.
	running sync.WaitGroup
	// pulled counts items taken from the source; it is the input index of the next worker.
	pulled int

	err    error
	closed bool
	lc     *lifecycleCoordinator
}

// New constructs a dispatcher over source with a window of n workers.
// The release policy is taken from WithMode (ordered by default).
func New[C, M any](source iter.Seq[C], n int, fn Func[C, M], opts ...Option) (*Dispatcher[C, M], error) {
	if n < 1 {
		return nil, errorc.With(ErrInvalidWindow, errorc.String("window", strconv.Itoa(n)))
	}
	if source == nil {
		return nil, errorc.With(ErrInvalidConfig, errorc.String("", "source must not be nil"))
	}
	if fn.IsZero() {
		return nil, errorc.With(ErrInvalidConfig, errorc.String("", "function must be registered"))
	}

	cfg, err := buildConfig(opts)
	if err != nil {
		return nil, err
	}

	var mb *mailbox.Mailbox
	if cfg.Mailbox != nil {
		mb = cfg.Mailbox
		mb.Retain()
	} else {
		mb = mailbox.New()
	}

	next, stop := iter.Pull(source)
	return newDispatcher(cfg, n, fn, next, stop, mb), nil
}

// RunOrdered is New in ordered mode: results come back in source order.
func RunOrdered[C, M any](source iter.Seq[C], n int, fn Func[C, M], opts ...Option) (*Dispatcher[C, M], error) {
	return New(source, n, fn, append(opts[:len(opts):len(opts)], WithMode(Ordered))...)
}

// RunUnordered is New in unordered mode: results come back in completion order.
func RunUnordered[C, M any](source iter.Seq[C], n int, fn Func[C, M], opts ...Option) (*Dispatcher[C, M], error) {
	return New(source, n, fn, append(opts[:len(opts):len(opts)], WithMode(Unordered))...)
}

// newDispatcher wires a dispatcher around an already referenced mailbox.
func newDispatcher[C, M any](
	cfg *config, n int, fn Func[C, M], next func() (C, bool), stop func(), mb *mailbox.Mailbox,
) *Dispatcher[C, M] {
	d := &Dispatcher[C, M]{
		cfg:    cfg,
		window: n,
		fn:     fn,
		next:   next,
		stop:   stop,
		mb:     mb,
		coll:   newCollector(cfg.Mode, n),
		inst:   newInstruments(cfg.Metrics),
	}
	d.lc = newLifecycleCoordinator(
		func() { d.stop() },
		&d.running,
		func() {
			d.mb.Discard(d.coll.tags()...)
			d.coll.reset()
		},
		func() { d.mb.Release() },
	)
	return d
}

// Next returns the next result. ok is false once the source is exhausted and every
// worker has been received.
//
// Each call first refills the window from the source, then blocks for exactly one
// completion: the oldest outstanding worker in ordered mode, any worker in unordered mode.
// ctx bounds only that wait; a canceled wait returns ctx.Err() and leaves the dispatcher
// usable. Any other error is fatal and returned by every later call.
func (d *Dispatcher[C, M]) Next(ctx context.Context) (M, bool, error) {
	var zero M
	if d.closed {
		return zero, false, ErrClosed
	}
	if d.err != nil {
		return zero, false, d.err
	}
	if err := d.mb.Err(); err != nil {
		return d.fail(err)
	}

	if err := d.fill(ctx); err != nil {
		return d.fail(err)
	}
	if d.coll.len() == 0 {
		return zero, false, nil
	}

	tag, data, err := d.coll.await(ctx, d.mb)
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil && errors.Is(err, ctxErr) {
			return zero, false, err
		}
		return d.fail(err)
	}

	var res result[M]
	if err := d.cfg.Codec.Unmarshal(data, &res); err != nil {
		return d.fail(fmt.Errorf("%w: decode result: %w", ErrCodec, err))
	}

	d.cfg.Logger.Debug("result received",
		zap.Stringer("token", tag),
		zap.Int("inflight", d.coll.len()))
	return res.V, true, nil
}

// All adapts Next to a range-over-func iterator. Iteration stops after the first error,
// which is yielded with the zero result.
func (d *Dispatcher[C, M]) All(ctx context.Context) iter.Seq2[M, error] {
	return func(yield func(M, error) bool) {
		for {
			v, ok, err := d.Next(ctx)
			if err != nil {
				yield(v, err)
				return
			}
			if !ok || !yield(v, nil) {
				return
			}
		}
	}
}

// fill pulls up to the window deficit from the source, spawning one worker per item.
func (d *Dispatcher[C, M]) fill(ctx context.Context) error {
	for deficit := d.window - d.coll.len(); deficit > 0; deficit-- {
		item, ok := d.next()
		if !ok {
			return nil
		}
		tag := mailbox.NewTag()
		if err := d.spawn(ctx, tag, item); err != nil {
			return err
		}
		d.coll.add(tag)
	}
	return nil
}

func (d *Dispatcher[C, M]) spawn(ctx context.Context, tag mailbox.Tag, item C) error {
	index := d.pulled
	d.pulled++

	data, err := d.cfg.Codec.Marshal(payload[C]{Item: item, Func: d.fn.Name()})
	if err != nil {
		return newWorkerError(fmt.Errorf("%w: encode input: %w", ErrCodec, err), tag, index)
	}

	w := &worker[C, M]{
		tag:    tag,
		index:  index,
		data:   data,
		codec:  d.cfg.Codec,
		mb:     d.mb,
		logger: d.cfg.Logger,
		tracer: d.cfg.Tracer,
		inst:   d.inst,
	}

	d.inst.spawned.Add(1)
	d.inst.inflight.Add(1)
	d.running.Add(1)
	// the worker outlives this pull; keep the span parent but not the cancellation
	wctx := context.WithoutCancel(ctx)
	go func() {
		defer d.running.Done()
		w.run(wctx)
	}()

	d.cfg.Logger.Debug("worker spawned",
		zap.Stringer("token", tag),
		zap.Int("index", index),
		zap.String("func", d.fn.Name()))
	return nil
}

func (d *Dispatcher[C, M]) fail(err error) (M, bool, error) {
	var zero M
	d.err = err
	return zero, false, err
}

// Close stops the source, waits for outstanding workers (bounded by ctx), drops their
// results and releases the mailbox. InFlight reports zero afterwards. It is idempotent;
// later calls return the first result.
//
// When ctx expires first, workers still running report after their results were dropped.
// On a mailbox shared through WithMailbox those late results stay buffered until the
// owner releases it.
//
// A dispatcher that is dropped without Close keeps its source goroutine alive.
func (d *Dispatcher[C, M]) Close(ctx context.Context) error {
	if !d.closed {
		d.closed = true
		d.cfg.Logger.Debug("closing dispatcher",
			zap.Stringer("caller", d.mb.Address()),
			zap.Int("inflight", d.coll.len()))
	}
	return d.lc.Close(ctx)
}

// InFlight returns the number of outstanding workers.
func (d *Dispatcher[C, M]) InFlight() int { return d.coll.len() }

// Window returns the configured window size.
func (d *Dispatcher[C, M]) Window() int { return d.window }

// Mode returns the release policy.
func (d *Dispatcher[C, M]) Mode() Mode { return d.cfg.Mode }

// Address returns the address of the mailbox workers report to.
func (d *Dispatcher[C, M]) Address() mailbox.Address { return d.mb.Address() }

// Err returns the fatal error that stopped the dispatcher, if any.
func (d *Dispatcher[C, M]) Err() error { return d.err }

package tasks

import (
	"fmt"
	"iter"
	"slices"
	"strconv"

	"github.com/ygrebnov/errorc"
	"go.uber.org/zap"

	"github.com/ygrebnov/tasks/mailbox"
)

// Snapshot is the serializable state of an idle dispatcher: the items it has not pulled
// yet, the registered function name, the window, the release policy and the caller
// address. Worker state is not capturable, which is why a snapshot can only be taken
// while no worker is outstanding.
type Snapshot[C any] struct {
	Items  []C
	Func   string
	Window int
	Mode   Mode
	Caller mailbox.Address
}

// Snapshot captures the dispatcher state. It fails with ErrInFlight while any worker is
// outstanding; pull until InFlight reports zero first.
//
// The remaining source is drained into Items, so an infinite source never returns.
// The dispatcher itself keeps working afterwards, replaying exactly the captured items.
func (d *Dispatcher[C, M]) Snapshot() (Snapshot[C], error) {
	if d.closed {
		return Snapshot[C]{}, ErrClosed
	}
	if d.err != nil {
		return Snapshot[C]{}, d.err
	}
	if n := d.coll.len(); n > 0 {
		return Snapshot[C]{}, errorc.With(ErrInFlight, errorc.String("outstanding", strconv.Itoa(n)))
	}

	var items []C
	for {
		item, ok := d.next()
		if !ok {
			break
		}
		items = append(items, item)
	}
	d.stop()
	d.next, d.stop = iter.Pull(FromSlice(items))

	d.cfg.Logger.Debug("dispatcher snapshot",
		zap.Int("items", len(items)),
		zap.String("func", d.fn.Name()),
		zap.Stringer("caller", d.mb.Address()))

	return Snapshot[C]{
		Items:  slices.Clone(items),
		Func:   d.fn.Name(),
		Window: d.window,
		Mode:   d.cfg.Mode,
		Caller: d.mb.Address(),
	}, nil
}

// Restore rebuilds a dispatcher from s with an empty in-flight set. The function is
// resolved by name, the caller mailbox by address (a new one is registered under that
// address when none is live). The snapshot's mode overrides WithMode.
func Restore[C, M any](s Snapshot[C], opts ...Option) (*Dispatcher[C, M], error) {
	if s.Window < 1 {
		return nil, errorc.With(ErrInvalidWindow, errorc.String("window", strconv.Itoa(s.Window)))
	}
	fn, err := LookupFunc[C, M](s.Func)
	if err != nil {
		return nil, err
	}
	cfg, err := buildConfig(append(opts[:len(opts):len(opts)], WithMode(s.Mode)))
	if err != nil {
		return nil, err
	}

	var mb *mailbox.Mailbox
	if s.Caller.IsZero() {
		mb = mailbox.New()
	} else {
		mb = mailbox.Resolve(s.Caller)
	}

	next, stop := iter.Pull(FromSlice(slices.Clone(s.Items)))
	d := newDispatcher(cfg, s.Window, fn, next, stop, mb)

	cfg.Logger.Debug("dispatcher restored",
		zap.Int("items", len(s.Items)),
		zap.String("func", s.Func),
		zap.Stringer("caller", mb.Address()))
	return d, nil
}

// Serialize snapshots d and encodes the snapshot with d's codec.
func Serialize[C, M any](d *Dispatcher[C, M]) ([]byte, error) {
	s, err := d.Snapshot()
	if err != nil {
		return nil, err
	}
	data, err := d.cfg.Codec.Marshal(s)
	if err != nil {
		return nil, fmt.Errorf("%w: encode snapshot: %w", ErrCodec, err)
	}
	return data, nil
}

// Deserialize decodes a snapshot produced by Serialize with the codec selected by opts
// and restores a dispatcher from it.
func Deserialize[C, M any](data []byte, opts ...Option) (*Dispatcher[C, M], error) {
	cfg, err := buildConfig(opts)
	if err != nil {
		return nil, err
	}
	var s Snapshot[C]
	if err := cfg.Codec.Unmarshal(data, &s); err != nil {
		return nil, fmt.Errorf("%w: decode snapshot: %w", ErrCodec, err)
	}
	return Restore[C, M](s, opts...)
}

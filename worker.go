package tasks

import (
	"context"
	"fmt"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"

	"github.com/ygrebnov/tasks/codec"
	"github.com/ygrebnov/tasks/mailbox"
	"github.com/ygrebnov/tasks/metrics"
)

// payload is the spawn message of a worker: its captured input and the name of the
// function to apply. It is encoded at spawn time, so the worker owns a private copy.
type payload[C any] struct {
	Item C
	Func string
}

// result is the message a worker sends back. The envelope lets nil pointers and zero
// values cross codecs that reject them at the top level.
type result[M any] struct {
	V M
}

type instruments struct {
	spawned   metrics.Counter
	completed metrics.Counter
	failed    metrics.Counter
	inflight  metrics.UpDownCounter
	duration  metrics.Histogram
}

func newInstruments(p metrics.Provider) *instruments {
	return &instruments{
		spawned:   p.Counter(metrics.Spawned, metrics.WithDescription("workers spawned"), metrics.WithUnit("1")),
		completed: p.Counter(metrics.Completed, metrics.WithDescription("workers that delivered a result"), metrics.WithUnit("1")),
		failed:    p.Counter(metrics.Failed, metrics.WithDescription("workers that failed"), metrics.WithUnit("1")),
		inflight:  p.UpDownCounter(metrics.InFlight, metrics.WithDescription("workers currently running"), metrics.WithUnit("1")),
		duration:  p.Histogram(metrics.Duration, metrics.WithDescription("worker run time"), metrics.WithUnit("s")),
	}
}

// worker runs one mapping function invocation and reports exactly once to the caller
// mailbox: a tagged result message on success, a link failure otherwise.
type worker[C, M any] struct {
	tag   mailbox.Tag
	index int
	data  []byte

	codec  codec.Codec
	mb     *mailbox.Mailbox
	logger *zap.Logger
	tracer trace.Tracer
	inst   *instruments
}

func (w *worker[C, M]) run(ctx context.Context) {
	_, span := w.tracer.Start(ctx, "tasks.worker", trace.WithAttributes(
		attribute.String("tasks.token", w.tag.String()),
		attribute.Int("tasks.index", w.index),
	))
	defer span.End()

	start := time.Now()
	result, err := w.execute()
	w.inst.duration.Record(time.Since(start).Seconds())
	w.inst.inflight.Add(-1)

	if err != nil {
		err = newWorkerError(err, w.tag, w.index)
		span.RecordError(err)
		span.SetStatus(codes.Error, "worker failed")
		w.inst.failed.Add(1)
		w.logger.Error("worker failed",
			zap.Stringer("token", w.tag),
			zap.Int("index", w.index),
			zap.Error(err))
		w.mb.Fail(err)
		return
	}

	w.inst.completed.Add(1)
	w.mb.Send(w.tag, result)
}

// execute decodes the payload, resolves and applies the function and encodes the result.
func (w *worker[C, M]) execute() ([]byte, error) {
	var p payload[C]
	if err := w.codec.Unmarshal(w.data, &p); err != nil {
		return nil, fmt.Errorf("%w: decode input: %w", ErrCodec, err)
	}

	fn, err := LookupFunc[C, M](p.Func)
	if err != nil {
		return nil, err
	}

	res, err := call(fn, p.Item)
	if err != nil {
		return nil, err
	}

	out, err := w.codec.Marshal(result[M]{V: res})
	if err != nil {
		return nil, fmt.Errorf("%w: encode result: %w", ErrCodec, err)
	}
	return out, nil
}

// call applies fn, recovering a panic into ErrWorkerPanicked.
func call[C, M any](fn Func[C, M], item C) (res M, err error) {
	defer func() {
		if r := recover(); r != nil {
			var zero M
			res, err = zero, fmt.Errorf("%w: %v", ErrWorkerPanicked, r)
		}
	}()
	return fn.Call(item)
}

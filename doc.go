// Package tasks runs a pure mapping function over a sequence of inputs on isolated
// worker goroutines, keeping at most N invocations in flight, and hands the results back
// through a pull-based iterator.
//
// Constructors
//   - RunOrdered(source, n, fn, opts...): results in source order.
//   - RunUnordered(source, n, fn, opts...): results in completion order.
//   - New(source, n, fn, opts...): mode chosen with WithMode (ordered by default).
//
// A window of zero is rejected with ErrInvalidWindow.
//
// Pulling
// Every Next call refills the window from the source, one worker per item, and then
// blocks for exactly one completion. The window is therefore refilled by at most one slot
// per pull and never more than N workers are outstanding, however fast the consumer
// pulls. All wraps Next as an iter.Seq2.
//
// Functions
// Mapping functions are registered under a stable name (Register, RegisterE). Workers
// receive the name together with their encoded input and resolve the function from the
// registry, and snapshots store the name, so the function can be found again after a
// restore.
//
// Failures
// A worker whose function panics or returns an error, or whose message cannot be encoded,
// fails the whole dispatcher: the pending and every later Next return a *WorkerError
// matching ErrWorkerFailed. There is no retry and no skip-and-continue.
//
// Suspend and resume
// Snapshot (or Serialize) captures an idle dispatcher: the items it has not pulled, the
// function name, the window, the mode and the caller mailbox address. It fails with
// ErrInFlight while any worker is outstanding. Restore (or Deserialize) rebuilds a
// dispatcher that replays exactly those items.
//
// Shutdown
// Close stops the source, waits for outstanding workers and drops their results. A
// dispatcher dropped without Close leaves its workers running to completion; their
// results are unreachable.
//
// Defaults
// Unless overridden, a dispatcher uses:
//   - Mode: Ordered
//   - Codec: codec.Gob
//   - Logger: zap.NewNop()
//   - Tracer: otel.Tracer("github.com/ygrebnov/tasks")
//   - Metrics: metrics.NoopProvider
//   - Mailbox: a fresh mailbox.New()
package tasks

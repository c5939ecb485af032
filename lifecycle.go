package tasks

import (
	"context"
	"sync"
)

// lifecycleCoordinator encapsulates the shutdown sequence of a Dispatcher.
// It is a wiring helper: it owns nothing and only orders the steps.
//
// Close() is safe for repeated calls; the sequence executes exactly once and later
// calls return the first outcome.
type lifecycleCoordinator struct {
	stopSource func()
	running    *sync.WaitGroup
	discard    func()
	release    func()

	once sync.Once
	err  error
}

func newLifecycleCoordinator(
	stopSource func(),
	running *sync.WaitGroup,
	discard func(),
	release func(),
) *lifecycleCoordinator {
	return &lifecycleCoordinator{
		stopSource: stopSource,
		running:    running,
		discard:    discard,
		release:    release,
	}
}

// Close executes the shutdown sequence:
// 1) stop the source so no further item is pulled
// 2) wait for every spawned worker to report, bounded by ctx
// 3) discard the results nobody will receive
// 4) release the mailbox address
//
// When ctx expires during step 2 the remaining steps still run and ctx.Err() is returned;
// workers still running finish on their own and their messages are dropped with the mailbox.
func (lc *lifecycleCoordinator) Close(ctx context.Context) error {
	lc.once.Do(func() {
		if lc.stopSource != nil {
			lc.stopSource()
		}
		if lc.running != nil {
			done := make(chan struct{})
			go func() {
				lc.running.Wait()
				close(done)
			}()
			select {
			case <-done:
			case <-ctx.Done():
				select {
				case <-done:
				default:
					lc.err = ctx.Err()
				}
			}
		}
		if lc.discard != nil {
			lc.discard()
		}
		if lc.release != nil {
			lc.release()
		}
	})
	return lc.err
}

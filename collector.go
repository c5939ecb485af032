package tasks

import (
	"context"

	"github.com/ygrebnov/tasks/mailbox"
)

// collector is the in-flight set of a dispatcher together with its release policy.
// The dispatcher adds one tag per spawned worker and calls await once per pull.
type collector interface {
	add(tag mailbox.Tag)
	len() int
	// tags returns the outstanding tags in no particular order.
	tags() []mailbox.Tag
	// reset forgets every outstanding tag.
	reset()
	// await blocks for exactly one completion and removes its tag. On error the set is unchanged.
	await(ctx context.Context, mb *mailbox.Mailbox) (mailbox.Tag, []byte, error)
}

func newCollector(mode Mode, window int) collector {
	if mode == Unordered {
		return newUnorderedCollector(window)
	}
	return newOrderedCollector(window)
}

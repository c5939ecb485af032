package tasks

// Ordered collector
//
// Responsibility:
// - Release results strictly in source order, regardless of completion order.
//
// State:
// - queue: tags in spawn order. Spawn order equals source order because the dispatcher
//   pulls the source sequentially and spawns as it pulls.
//
// Semantics:
// - await receives selectively on the head tag only. A worker that finishes early leaves
//   its message buffered in the mailbox until every earlier tag has been released.
// - The head is dequeued only after its message arrived; a canceled wait keeps it.
//
// Edge cases:
// - A link failure from any worker, not only the head, ends the wait: the mailbox reports
//   it ahead of any buffered message.

import (
	"context"

	"github.com/ygrebnov/tasks/mailbox"
)

type orderedCollector struct {
	queue []mailbox.Tag
}

func newOrderedCollector(window int) *orderedCollector {
	return &orderedCollector{queue: make([]mailbox.Tag, 0, window)}
}

func (c *orderedCollector) add(tag mailbox.Tag) { c.queue = append(c.queue, tag) }

func (c *orderedCollector) len() int { return len(c.queue) }

func (c *orderedCollector) tags() []mailbox.Tag { return append([]mailbox.Tag(nil), c.queue...) }

func (c *orderedCollector) reset() { c.queue = c.queue[:0] }

func (c *orderedCollector) await(ctx context.Context, mb *mailbox.Mailbox) (mailbox.Tag, []byte, error) {
	tag, payload, err := mb.Receive(ctx, c.queue[0])
	if err != nil {
		return mailbox.Tag{}, nil, err
	}
	// shift in place so the backing array stays bounded by the window
	n := copy(c.queue, c.queue[1:])
	c.queue = c.queue[:n]
	return tag, payload, nil
}

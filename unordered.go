package tasks

import (
	"context"

	"github.com/ygrebnov/tasks/mailbox"
)

// unorderedCollector keeps outstanding tags as a set and releases whichever completion
// is available first. Among already buffered messages the earliest arrival wins, so the
// release order follows completion order.
type unorderedCollector struct {
	pending []mailbox.Tag
	pos     map[mailbox.Tag]int
}

func newUnorderedCollector(window int) *unorderedCollector {
	return &unorderedCollector{
		pending: make([]mailbox.Tag, 0, window),
		pos:     make(map[mailbox.Tag]int, window),
	}
}

func (c *unorderedCollector) add(tag mailbox.Tag) {
	c.pos[tag] = len(c.pending)
	c.pending = append(c.pending, tag)
}

func (c *unorderedCollector) len() int { return len(c.pending) }

func (c *unorderedCollector) tags() []mailbox.Tag { return append([]mailbox.Tag(nil), c.pending...) }

func (c *unorderedCollector) reset() {
	c.pending = c.pending[:0]
	clear(c.pos)
}

func (c *unorderedCollector) await(ctx context.Context, mb *mailbox.Mailbox) (mailbox.Tag, []byte, error) {
	tag, payload, err := mb.Receive(ctx, c.pending...)
	if err != nil {
		return mailbox.Tag{}, nil, err
	}
	c.remove(tag)
	return tag, payload, nil
}

// remove swaps the last tag into the removed slot.
func (c *unorderedCollector) remove(tag mailbox.Tag) {
	i, ok := c.pos[tag]
	if !ok {
		return
	}
	last := len(c.pending) - 1
	c.pending[i] = c.pending[last]
	c.pos[c.pending[i]] = i
	c.pending = c.pending[:last]
	delete(c.pos, tag)
}

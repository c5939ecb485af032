// Package mailbox provides the message-passing primitive used by the task dispatcher:
// an addressable inbox that many producers write tagged messages into and a single
// consumer reads from by selective receive.
//
// Messages
// Every message carries a Tag minted by the receiver before the producer starts.
// Receive blocks until a message carrying one of the requested tags is available and
// leaves every other message buffered for a later Receive.
//
// Link failures
// A producer that cannot deliver its message reports the failure with Fail instead.
// The failure is sticky: every subsequent Receive returns it, regardless of the tags
// requested, mirroring a linked process that takes its parent down with it.
//
// Addresses
// Mailboxes are registered in a process-wide table under their Address so that a
// serialized address can be resolved back to the same inbox. The registry is
// reference counted: Retain/Release bracket every owner.
package mailbox

import (
	"context"
	"errors"
	"sync"

	"github.com/google/uuid"
)

// ErrNoTags is returned by Receive when it is asked to wait for nothing.
var ErrNoTags = errors.New("mailbox: receive requires at least one tag")

// Tag correlates a message with the producer it was minted for.
type Tag uuid.UUID

// NewTag mints a process-unique tag.
func NewTag() Tag { return Tag(uuid.New()) }

func (t Tag) String() string { return uuid.UUID(t).String() }

// Address names a mailbox in the process-wide registry.
type Address uuid.UUID

func (a Address) String() string { return uuid.UUID(a).String() }

// IsZero reports whether a is the zero address.
func (a Address) IsZero() bool { return a == Address{} }

// MarshalText implements encoding.TextMarshaler.
func (a Address) MarshalText() ([]byte, error) { return uuid.UUID(a).MarshalText() }

// UnmarshalText implements encoding.TextUnmarshaler.
func (a *Address) UnmarshalText(data []byte) error {
	var id uuid.UUID
	if err := id.UnmarshalText(data); err != nil {
		return err
	}
	*a = Address(id)
	return nil
}

// ParseAddress parses the canonical string form of an address.
func ParseAddress(s string) (Address, error) {
	id, err := uuid.Parse(s)
	if err != nil {
		return Address{}, err
	}
	return Address(id), nil
}

type envelope struct {
	seq     uint64
	payload []byte
}

// Mailbox is a multi-producer, single-consumer inbox with selective receive.
// Send and Fail are safe for concurrent use; Receive is meant for one consumer at a time.
type Mailbox struct {
	addr Address

	mu      sync.Mutex
	seq     uint64
	pending map[Tag][]envelope
	size    int
	failure error
	// signal is closed and replaced on every delivery and on failure.
	signal chan struct{}
}

func newMailbox(addr Address) *Mailbox {
	return &Mailbox{
		addr:    addr,
		pending: make(map[Tag][]envelope),
		signal:  make(chan struct{}),
	}
}

// Address returns the address the mailbox is registered under.
func (m *Mailbox) Address() Address { return m.addr }

// Send delivers payload tagged with tag. It never blocks.
func (m *Mailbox) Send(tag Tag, payload []byte) {
	m.mu.Lock()
	m.seq++
	m.pending[tag] = append(m.pending[tag], envelope{seq: m.seq, payload: payload})
	m.size++
	m.notifyLocked()
	m.mu.Unlock()
}

// Fail records a link failure. The first failure wins; later ones are ignored.
func (m *Mailbox) Fail(err error) {
	if err == nil {
		return
	}
	m.mu.Lock()
	if m.failure == nil {
		m.failure = err
		m.notifyLocked()
	}
	m.mu.Unlock()
}

// Err returns the recorded link failure, if any.
func (m *Mailbox) Err() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.failure
}

// Len returns the number of buffered messages.
func (m *Mailbox) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.size
}

// Receive blocks until a message tagged with one of tags is available and returns it.
// When several are already buffered, the one that arrived first is returned.
// A recorded link failure takes precedence over any buffered message.
func (m *Mailbox) Receive(ctx context.Context, tags ...Tag) (Tag, []byte, error) {
	if len(tags) == 0 {
		return Tag{}, nil, ErrNoTags
	}
	for {
		m.mu.Lock()
		if m.failure != nil {
			err := m.failure
			m.mu.Unlock()
			return Tag{}, nil, err
		}
		if tag, payload, ok := m.takeLocked(tags); ok {
			m.mu.Unlock()
			return tag, payload, nil
		}
		wait := m.signal
		m.mu.Unlock()

		select {
		case <-wait:
		case <-ctx.Done():
			return Tag{}, nil, ctx.Err()
		}
	}
}

// Discard drops every buffered message carrying one of tags.
func (m *Mailbox) Discard(tags ...Tag) {
	m.mu.Lock()
	for _, tag := range tags {
		m.size -= len(m.pending[tag])
		delete(m.pending, tag)
	}
	m.mu.Unlock()
}

func (m *Mailbox) takeLocked(tags []Tag) (Tag, []byte, bool) {
	var (
		best  Tag
		found bool
		seq   uint64
	)
	for _, tag := range tags {
		q := m.pending[tag]
		if len(q) == 0 {
			continue
		}
		if !found || q[0].seq < seq {
			best, seq, found = tag, q[0].seq, true
		}
	}
	if !found {
		return Tag{}, nil, false
	}

	q := m.pending[best]
	payload := q[0].payload
	if len(q) == 1 {
		delete(m.pending, best)
	} else {
		m.pending[best] = q[1:]
	}
	m.size--
	return best, payload, true
}

func (m *Mailbox) notifyLocked() {
	close(m.signal)
	m.signal = make(chan struct{})
}

package mailbox

import (
	"sync"

	"github.com/google/uuid"
)

type entry struct {
	mb   *Mailbox
	refs int
}

var registry = struct {
	sync.Mutex
	boxes map[Address]*entry
}{boxes: make(map[Address]*entry)}

// New creates a mailbox under a fresh address and registers it with one reference
// held by the caller.
func New() *Mailbox {
	m := newMailbox(Address(uuid.New()))
	registry.Lock()
	registry.boxes[m.addr] = &entry{mb: m, refs: 1}
	registry.Unlock()
	return m
}

// Resolve returns the mailbox registered under addr, creating and registering a new
// one when none exists. Either way the caller receives one reference.
func Resolve(addr Address) *Mailbox {
	registry.Lock()
	defer registry.Unlock()
	if e, ok := registry.boxes[addr]; ok {
		e.refs++
		return e.mb
	}
	m := newMailbox(addr)
	registry.boxes[addr] = &entry{mb: m, refs: 1}
	return m
}

// Lookup returns the mailbox registered under addr without taking a reference.
func Lookup(addr Address) (*Mailbox, bool) {
	registry.Lock()
	defer registry.Unlock()
	e, ok := registry.boxes[addr]
	if !ok {
		return nil, false
	}
	return e.mb, true
}

// Retain takes an additional reference on m, re-registering it if it was released.
func (m *Mailbox) Retain() {
	registry.Lock()
	defer registry.Unlock()
	if e, ok := registry.boxes[m.addr]; ok && e.mb == m {
		e.refs++
		return
	}
	registry.boxes[m.addr] = &entry{mb: m, refs: 1}
}

// Release drops one reference; the address is unregistered with the last one.
// Messages sent to a released mailbox are still buffered but nobody can resolve it.
func (m *Mailbox) Release() {
	registry.Lock()
	defer registry.Unlock()
	e, ok := registry.boxes[m.addr]
	if !ok || e.mb != m {
		return
	}
	e.refs--
	if e.refs <= 0 {
		delete(registry.boxes, m.addr)
	}
}

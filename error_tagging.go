package tasks

import (
	"errors"
	"fmt"

	"github.com/ygrebnov/tasks/mailbox"
)

// WorkerMetaError exposes correlation metadata for a worker failure.
type WorkerMetaError interface {
	error
	Token() mailbox.Tag
	Index() int
}

// WorkerError is the fatal failure of one worker. It matches ErrWorkerFailed and the
// underlying cause with errors.Is.
type WorkerError struct {
	err   error
	token mailbox.Tag
	index int
}

func newWorkerError(err error, token mailbox.Tag, index int) error {
	if err == nil {
		return nil
	}
	return &WorkerError{err: err, token: token, index: index}
}

func (e *WorkerError) Error() string { return ErrWorkerFailed.Error() + ": " + e.err.Error() }

func (e *WorkerError) Unwrap() []error { return []error{ErrWorkerFailed, e.err} }

// Token returns the correlation tag of the failed worker.
func (e *WorkerError) Token() mailbox.Tag { return e.token }

// Index returns the position of the worker's input in the source.
func (e *WorkerError) Index() int { return e.index }

func (e *WorkerError) Format(s fmt.State, verb rune) {
	switch verb {
	case 'v':
		if s.Flag('+') {
			_, _ = fmt.Fprintf(s, "worker(index=%d,token=%s): %+v", e.index, e.token, e.err)
			return
		}
		fallthrough
	case 's':
		_, _ = fmt.Fprint(s, e.Error())
	case 'q':
		_, _ = fmt.Fprintf(s, "%q", e.Error())
	}
}

// ExtractToken returns the failed worker's tag if err carries one.
func ExtractToken(err error) (mailbox.Tag, bool) {
	var wme WorkerMetaError
	if errors.As(err, &wme) {
		return wme.Token(), true
	}
	return mailbox.Tag{}, false
}

// ExtractIndex returns the failed worker's input index if err carries one.
func ExtractIndex(err error) (int, bool) {
	var wme WorkerMetaError
	if errors.As(err, &wme) {
		return wme.Index(), true
	}
	return 0, false
}

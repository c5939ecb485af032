package tasks

import "errors"

const Namespace = "tasks"

var (
	ErrInvalidConfig  = errors.New(Namespace + ": invalid configuration")
	ErrInvalidWindow  = errors.New(Namespace + ": window size must be at least 1")
	ErrInFlight       = errors.New(Namespace + ": cannot snapshot a dispatcher with outstanding workers")
	ErrWorkerFailed   = errors.New(Namespace + ": worker failed")
	ErrWorkerPanicked = errors.New(Namespace + ": mapping function panicked")
	ErrCodec          = errors.New(Namespace + ": codec failure")
	ErrUnknownFunc    = errors.New(Namespace + ": function is not registered")
	ErrDuplicateFunc  = errors.New(Namespace + ": function name already registered")
	ErrClosed         = errors.New(Namespace + ": dispatcher is closed")
)

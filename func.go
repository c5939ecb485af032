package tasks

import (
	"fmt"
	"sync"

	"github.com/ygrebnov/errorc"
)

// Func is a mapping function registered under a stable name. The name, not the function
// value, is what a worker receives in its spawn payload and what a Snapshot stores, so a
// restored dispatcher finds the same function again through LookupFunc.
//
// Register functions once, typically from package-level variables:
//
//	var square = tasks.MustRegister("example.square", func(n int) int { return n * n })
type Func[C, M any] struct {
	name string
	fn   func(C) (M, error)
}

// Name returns the registration name.
func (f Func[C, M]) Name() string { return f.name }

// IsZero reports whether f was obtained from the registry.
func (f Func[C, M]) IsZero() bool { return f.fn == nil }

// Call invokes the function directly on the calling goroutine.
func (f Func[C, M]) Call(c C) (M, error) { return f.fn(c) }

var funcs = struct {
	sync.RWMutex
	byName map[string]any
}{byName: make(map[string]any)}

// Register registers an infallible mapping function under name.
func Register[C, M any](name string, fn func(C) M) (Func[C, M], error) {
	if fn == nil {
		return Func[C, M]{}, errorc.With(ErrInvalidConfig, errorc.String("", "Register requires a non-nil function"))
	}
	return RegisterE(name, func(c C) (M, error) { return fn(c), nil })
}

// RegisterE registers a mapping function that may fail. A returned error is a worker
// failure: it aborts the pull pipeline like a panic would.
func RegisterE[C, M any](name string, fn func(C) (M, error)) (Func[C, M], error) {
	if name == "" || fn == nil {
		return Func[C, M]{}, errorc.With(ErrInvalidConfig, errorc.String("", "RegisterE requires a name and a non-nil function"))
	}

	f := Func[C, M]{name: name, fn: fn}

	funcs.Lock()
	defer funcs.Unlock()
	if _, ok := funcs.byName[name]; ok {
		return Func[C, M]{}, errorc.With(ErrDuplicateFunc, errorc.String("name", name))
	}
	funcs.byName[name] = f
	return f, nil
}

// MustRegister is like Register but panics on error.
func MustRegister[C, M any](name string, fn func(C) M) Func[C, M] {
	f, err := Register(name, fn)
	if err != nil {
		panic(err)
	}
	return f
}

// MustRegisterE is like RegisterE but panics on error.
func MustRegisterE[C, M any](name string, fn func(C) (M, error)) Func[C, M] {
	f, err := RegisterE(name, fn)
	if err != nil {
		panic(err)
	}
	return f
}

// LookupFunc resolves a registered function by name. It fails with ErrUnknownFunc when
// the name is unknown or was registered with different input/result types.
func LookupFunc[C, M any](name string) (Func[C, M], error) {
	funcs.RLock()
	v, ok := funcs.byName[name]
	funcs.RUnlock()
	if !ok {
		return Func[C, M]{}, errorc.With(ErrUnknownFunc, errorc.String("name", name))
	}
	f, ok := v.(Func[C, M])
	if !ok {
		return Func[C, M]{}, errorc.With(ErrUnknownFunc, errorc.String("name", fmt.Sprintf("%s (registered as %T)", name, v)))
	}
	return f, nil
}

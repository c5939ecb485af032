package tasks

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

// gateKey addresses a gate channel; Test keeps keys of different tests apart.
type gateKey struct {
	Test string
	N    int
}

// opaque has no exported fields, gob refuses to encode it.
type opaque struct {
	n int
}

// node is a pointer result type.
type node struct {
	N int
}

var errOdd = errors.New("odd input")

var gates sync.Map // gateKey -> chan struct{}

func gate(k gateKey) chan struct{} {
	ch, _ := gates.LoadOrStore(k, make(chan struct{}))
	return ch.(chan struct{})
}

func openGates(test string, ns ...int) {
	for _, n := range ns {
		close(gate(gateKey{Test: test, N: n}))
	}
}

var (
	double = MustRegister("test.double", func(n int) int { return n * 2 })

	sleepy = MustRegister("test.sleepy", func(ms int) int {
		time.Sleep(time.Duration(ms) * time.Millisecond)
		return ms
	})

	gated = MustRegister("test.gated", func(k gateKey) int {
		<-gate(k)
		return k.N
	})

	boomAt3 = MustRegister("test.boomAt3", func(n int) int {
		if n == 3 {
			panic("boom")
		}
		return n
	})

	evenOnly = MustRegisterE("test.evenOnly", func(n int) (int, error) {
		if n%2 != 0 {
			return 0, fmt.Errorf("%w: %d", errOdd, n)
		}
		return n, nil
	})

	toOpaque = MustRegister("test.toOpaque", func(n int) opaque { return opaque{n: n} })

	label = MustRegister("test.label", func(n int) string { return fmt.Sprintf("#%d", n) })

	oddNode = MustRegister("test.oddNode", func(n int) *node {
		if n%2 == 0 {
			return nil
		}
		return &node{N: n}
	})
)

func keys(test string, ns ...int) []gateKey {
	out := make([]gateKey, len(ns))
	for i, n := range ns {
		out[i] = gateKey{Test: test, N: n}
	}
	return out
}

func seq(n int) []int {
	out := make([]int, n)
	for i := range out {
		out[i] = i
	}
	return out
}

// next pulls one result and fails the test on error or exhaustion.
func next[C, M any](t *testing.T, d *Dispatcher[C, M]) M {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	v, ok, err := d.Next(ctx)
	require.NoError(t, err)
	require.True(t, ok, "dispatcher exhausted early")
	return v
}

// exhausted asserts the dispatcher has nothing left to deliver.
func exhausted[C, M any](t *testing.T, d *Dispatcher[C, M]) {
	t.Helper()
	_, ok, err := d.Next(context.Background())
	require.NoError(t, err)
	require.False(t, ok)
}

func closeDispatcher[C, M any](t *testing.T, d *Dispatcher[C, M]) {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	require.NoError(t, d.Close(ctx))
}

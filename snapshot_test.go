package tasks

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/ygrebnov/tasks/codec"
	"github.com/ygrebnov/tasks/mailbox"
)

func TestSnapshot_RefusedWhileWorkersOutstanding(t *testing.T) {
	d, err := RunOrdered(FromSlice(seq(5)), 2, double)
	require.NoError(t, err)
	defer closeDispatcher(t, d)

	require.Equal(t, 0, next(t, d))
	require.Equal(t, 1, d.InFlight())

	_, err = d.Snapshot()
	require.ErrorIs(t, err, ErrInFlight)

	_, err = Serialize(d)
	require.ErrorIs(t, err, ErrInFlight)

	// the refusal does not disturb the pipeline
	for _, want := range []int{2, 4, 6, 8} {
		require.Equal(t, want, next(t, d))
	}
	exhausted(t, d)
}

func TestSnapshot_CapturesUnpulledItems(t *testing.T) {
	d, err := RunUnordered(FromSlice(seq(6)), 1, double)
	require.NoError(t, err)
	defer closeDispatcher(t, d)

	next(t, d)
	next(t, d)
	require.Equal(t, 0, d.InFlight())

	s, err := d.Snapshot()
	require.NoError(t, err)
	require.Equal(t, []int{2, 3, 4, 5}, s.Items)
	require.Equal(t, double.Name(), s.Func)
	require.Equal(t, 1, s.Window)
	require.Equal(t, Unordered, s.Mode)
	require.Equal(t, d.Address(), s.Caller)

	again, err := d.Snapshot()
	require.NoError(t, err)
	require.Equal(t, s, again)

	// the dispatcher continues with exactly the captured items
	got, err := Collect(context.Background(), d)
	require.NoError(t, err)
	require.Equal(t, []int{4, 6, 8, 10}, got)
}

func TestSnapshot_RoundTripResumesWhereLeftOff(t *testing.T) {
	for _, c := range []codec.Codec{codec.Gob{}, codec.JSON{}} {
		t.Run(c.Name(), func(t *testing.T) {
			d, err := RunOrdered(FromSlice(seq(8)), 1, double, WithCodec(c))
			require.NoError(t, err)
			defer closeDispatcher(t, d)

			require.Equal(t, 0, next(t, d))
			require.Equal(t, 2, next(t, d))

			data, err := Serialize(d)
			require.NoError(t, err)

			restored, err := Deserialize[int, int](data, WithCodec(c))
			require.NoError(t, err)
			require.Equal(t, d.Address(), restored.Address())
			require.Equal(t, Ordered, restored.Mode())
			require.Equal(t, 1, restored.Window())

			fromRestored, err := Collect(context.Background(), restored)
			require.NoError(t, err)
			fromOriginal, err := Collect(context.Background(), d)
			require.NoError(t, err)

			require.Equal(t, []int{4, 6, 8, 10, 12, 14}, fromRestored)
			require.Equal(t, fromOriginal, fromRestored)
		})
	}
}

func TestSnapshot_SerializeIsStable(t *testing.T) {
	d, err := RunOrdered(FromSlice(seq(4)), 3, label)
	require.NoError(t, err)
	defer closeDispatcher(t, d)

	first, err := Serialize(d)
	require.NoError(t, err)

	restored, err := Deserialize[int, string](first)
	require.NoError(t, err)
	defer closeDispatcher(t, restored)

	second, err := Serialize(restored)
	require.NoError(t, err)

	var a, b Snapshot[int]
	require.NoError(t, codec.Gob{}.Unmarshal(first, &a))
	require.NoError(t, codec.Gob{}.Unmarshal(second, &b))
	require.Equal(t, a, b)
}

func TestRestore_ModeComesFromSnapshot(t *testing.T) {
	s := Snapshot[int]{Items: seq(3), Func: double.Name(), Window: 2, Mode: Unordered}

	d, err := Restore[int, int](s, WithMode(Ordered))
	require.NoError(t, err)
	defer closeDispatcher(t, d)

	require.Equal(t, Unordered, d.Mode())
	require.False(t, d.Address().IsZero())

	got, err := Collect(context.Background(), d)
	require.NoError(t, err)
	require.ElementsMatch(t, []int{0, 2, 4}, got)
}

func TestRestore_RegistersCallerAddressWhenGone(t *testing.T) {
	mb := mailbox.New()
	addr := mb.Address()
	mb.Release()
	_, live := mailbox.Lookup(addr)
	require.False(t, live)

	d, err := Restore[int, int](Snapshot[int]{Items: seq(2), Func: double.Name(), Window: 1, Caller: addr})
	require.NoError(t, err)
	require.Equal(t, addr, d.Address())

	got, err := Collect(context.Background(), d)
	require.NoError(t, err)
	require.Equal(t, []int{0, 2}, got)

	_, live = mailbox.Lookup(addr)
	require.False(t, live)
}

func TestRestore_RejectsBadSnapshots(t *testing.T) {
	_, err := Restore[int, int](Snapshot[int]{Func: double.Name(), Window: 0})
	require.ErrorIs(t, err, ErrInvalidWindow)

	_, err = Restore[int, int](Snapshot[int]{Func: "test.missing", Window: 1})
	require.ErrorIs(t, err, ErrUnknownFunc)

	// registered, but for different types
	_, err = Restore[int, string](Snapshot[int]{Func: double.Name(), Window: 1})
	require.ErrorIs(t, err, ErrUnknownFunc)

	_, err = Deserialize[int, int]([]byte("nonsense"))
	require.ErrorIs(t, err, ErrCodec)
}

func TestSnapshot_AfterFailureReturnsFailure(t *testing.T) {
	d, err := RunOrdered(FromSlice([]int{3, 4}), 1, boomAt3)
	require.NoError(t, err)
	defer func() { _ = d.Close(context.Background()) }()

	_, _, failure := d.Next(context.Background())
	require.Error(t, failure)

	_, err = d.Snapshot()
	require.Equal(t, failure, err)
}

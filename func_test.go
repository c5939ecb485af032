package tasks

import (
	"testing"

	"github.com/stretchr/testify/require"
)

var inc, incErr = Register("test.register.inc", func(n int) int { return n + 1 })

func TestRegister_ReturnsCallableFunc(t *testing.T) {
	require.NoError(t, incErr)
	f := inc
	require.Equal(t, "test.register.inc", f.Name())
	require.False(t, f.IsZero())

	v, err := f.Call(41)
	require.NoError(t, err)
	require.Equal(t, 42, v)
}

func TestRegister_DuplicateName(t *testing.T) {
	_, err := Register("test.double", func(n int) int { return n })
	require.ErrorIs(t, err, ErrDuplicateFunc)

	require.Panics(t, func() {
		MustRegisterE("test.double", func(n int) (int, error) { return n, nil })
	})
}

func TestRegister_RejectsEmptyNameOrNilFunc(t *testing.T) {
	_, err := Register[int, int]("test.register.nil", nil)
	require.ErrorIs(t, err, ErrInvalidConfig)

	_, err = RegisterE("", func(n int) (int, error) { return n, nil })
	require.ErrorIs(t, err, ErrInvalidConfig)
}

func TestLookupFunc(t *testing.T) {
	f, err := LookupFunc[int, int]("test.double")
	require.NoError(t, err)
	require.Equal(t, double.Name(), f.Name())

	v, err := f.Call(4)
	require.NoError(t, err)
	require.Equal(t, 8, v)

	_, err = LookupFunc[int, int]("test.unknown")
	require.ErrorIs(t, err, ErrUnknownFunc)

	_, err = LookupFunc[string, int]("test.double")
	require.ErrorIs(t, err, ErrUnknownFunc)
}

func TestFunc_ZeroValue(t *testing.T) {
	var f Func[int, int]
	require.True(t, f.IsZero())
	require.Equal(t, "", f.Name())
}

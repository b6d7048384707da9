package class

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wippyai/simhost/errors"
)

type owner string

func (o owner) Name() string { return string(o) }

func names(cs []*Class) []string {
	var out []string
	for _, c := range cs {
		out = append(out, c.Name)
	}
	return out
}

func TestList_RegisterOrder(t *testing.T) {
	l := NewList()
	a := owner("a")
	b := owner("b")

	for _, n := range []string{"x", "y"} {
		_, err := l.Register(a, n, 0, PassBottomUp)
		require.NoError(t, err)
	}
	_, err := l.Register(b, "z", 0, 0)
	require.NoError(t, err)

	assert.Equal(t, 3, l.Len())
	assert.Equal(t, "x", l.First().Name)
	assert.Equal(t, "y", l.First().Next().Name)
	assert.Equal(t, "z", l.Last().Name)
	assert.Equal(t, []string{"x", "y"}, names(l.Owned(a)))
	assert.Equal(t, []string{"y", "z"}, names(l.Since(1)))
	assert.Same(t, l.Last(), l.Find("z"))
}

func TestList_Duplicate(t *testing.T) {
	l := NewList()
	_, err := l.Register(owner("a"), "x", 0, 0)
	require.NoError(t, err)

	_, err = l.Register(owner("b"), "x", 0, 0)
	assert.True(t, errors.IsKind(err, errors.KindDuplicate))

	_, err = l.Register(owner("b"), "", 0, 0)
	assert.True(t, errors.IsKind(err, errors.KindInvalidInput))
}

func TestList_Truncate(t *testing.T) {
	l := NewList()
	for _, n := range []string{"a", "b", "c", "d"} {
		_, err := l.Register(owner("m"), n, 0, 0)
		require.NoError(t, err)
	}

	l.Truncate(2)
	assert.Equal(t, 2, l.Len())
	assert.Equal(t, "b", l.Last().Name)
	assert.Nil(t, l.Last().Next())
	assert.Nil(t, l.Find("c"))
	assert.Nil(t, l.Find("d"))

	// names are free again after truncation
	_, err := l.Register(owner("n"), "c", 0, 0)
	require.NoError(t, err)

	l.Truncate(10)
	assert.Equal(t, 3, l.Len())

	l.Truncate(0)
	assert.Equal(t, 0, l.Len())
	assert.Nil(t, l.First())
	assert.Nil(t, l.Last())
	assert.Nil(t, l.Find("a"))
}

func TestIntrinsic(t *testing.T) {
	assert.Equal(t, "create", Create.String())
	assert.Equal(t, "heartbeat", Heartbeat.String())
	assert.Equal(t, "unknown", NumIntrinsics.String())
	assert.True(t, Create.Required())
	for i := Init; i < NumIntrinsics; i++ {
		assert.False(t, i.Required(), i.String())
	}

	var in Intrinsics
	assert.False(t, in.Bound(Sync))
	in[Sync] = func() {}
	assert.True(t, in.Bound(Sync))
}

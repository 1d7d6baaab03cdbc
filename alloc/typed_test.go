package alloc

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type point struct {
	X, Y int64
	Tag  uint8
}

func TestAllocateTyped(t *testing.T) {
	a := newTestAllocator(t, DefaultConfig())

	p, err := Allocate[point](a)
	require.NoError(t, err)
	assert.Equal(t, point{}, *p, "fresh memory is zeroed")

	p.X, p.Y, p.Tag = 3, 4, 7
	q, err := Allocate[point](a)
	require.NoError(t, err)
	assert.NotSame(t, p, q)
	assert.Equal(t, point{3, 4, 7}, *p)

	Free(a, p)
	Free(a, q)
	Free[point](a, nil)
	assert.Zero(t, a.Outstanding())
	assert.Zero(t, a.Stats().UsedChunks)
}

func TestAllocateTyped_ZeroSizeType(t *testing.T) {
	a := newTestAllocator(t, DefaultConfig())

	p, err := Allocate[struct{}](a)
	require.NoError(t, err)
	require.NotNil(t, p)
	assert.Equal(t, 1, a.Stats().UsedChunks)
	Free(a, p)
}

func TestAllocateSlice(t *testing.T) {
	a := newTestAllocator(t, DefaultConfig())

	s, err := AllocateSlice[int64](a, 100)
	require.NoError(t, err)
	require.Len(t, s, 100)
	for i := range s {
		s[i] = int64(i * i)
	}
	assert.Equal(t, int64(99*99), s[99])
	// 800 bytes is 13 chunks
	assert.Equal(t, 13, a.Stats().UsedChunks)

	FreeSlice(a, s)
	assert.Zero(t, a.Stats().UsedChunks)

	_, err = AllocateSlice[int64](a, 1000)
	assert.ErrorIs(t, err, ErrTooLarge)

	_, err = AllocateSlice[int64](a, 0)
	assert.ErrorIs(t, err, ErrZeroSize)

	FreeSlice[int64](a, nil)
}

func TestAllocateSlice_LengthOverflow(t *testing.T) {
	a := newTestAllocator(t, DefaultConfig())

	// n*16 wraps around to a small size
	var err error
	require.NotPanics(t, func() {
		_, err = AllocateSlice[[16]byte](a, math.MaxInt/8+1)
	})
	assert.ErrorIs(t, err, ErrTooLarge)
	assert.Zero(t, a.Stats().UsedChunks, "nothing claimed")
	assert.Zero(t, a.Outstanding())
}

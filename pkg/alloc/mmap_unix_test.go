//go:build unix

package alloc

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rawbytedev/inplace"
)

func TestMmapAllocator(t *testing.T) {
	a := NewMmapAllocator()
	page := a.PageSize()
	require.Positive(t, page)

	for _, size := range []int{1, 100, page, page + 1} {
		b, err := a.Allocate(size, 64)
		require.NoError(t, err)
		assert.Len(t, b, size)
		assert.Zero(t, addressOf(b)%uintptr(page))
		for i := range b {
			b[i] = byte(i)
		}
		a.Deallocate(b)
	}

	b, err := a.Allocate(0, 8)
	require.NoError(t, err)
	assert.Empty(t, b)
	a.Deallocate(b)
}

func TestMmapAllocatorRejects(t *testing.T) {
	a := NewMmapAllocator()
	_, err := a.Allocate(8, 2*a.PageSize())
	require.ErrorIs(t, err, inplace.ErrAlignment)
	_, err = a.Allocate(-1, 8)
	require.ErrorIs(t, err, inplace.ErrNegativeSize)
}

func TestMmapAllocatorBacksDynamic(t *testing.T) {
	mem := NewCheckedAllocator(NewMmapAllocator())
	defer mem.AssertSize(t, 0)

	s := inplace.NewDynamic[inplace.Block32](mem)
	h, err := inplace.Create(s, [16]uint64{15: 3})
	require.NoError(t, err)
	assert.True(t, s.Spilled())
	assert.Equal(t, 160, s.Size())
	assert.Equal(t, uint64(3), h.Get()[15])
	inplace.Destroy(&h)
	s.Release()
	assert.Equal(t, 1, mem.Deallocs())
}

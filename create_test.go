package inplace_test

import (
	"math"
	"testing"
	"unsafe"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rawbytedev/inplace"
	"github.com/rawbytedev/inplace/pkg/alloc"
)

type small struct {
	A int32
	B int32
}

type large struct {
	Words [5]uint64
}

type named struct {
	ID   int
	Name string
}

type tracked struct {
	ID uint32
}

var destroyed []uint32

func (t *tracked) Destroy() { destroyed = append(destroyed, t.ID) }

func TestCreateScenario(t *testing.T) {
	mem := alloc.NewCheckedAllocator(nil)
	defer mem.AssertSize(t, 0)
	s := inplace.NewDynamic[inplace.Block16](mem)

	h, err := inplace.Create(s, small{A: 1, B: 2})
	require.NoError(t, err)
	require.Equal(t, 8, int(unsafe.Sizeof(small{})))
	assert.Zero(t, mem.Allocs())
	assert.False(t, s.Spilled())
	assert.Equal(t, small{A: 1, B: 2}, *h.Get())
	inplace.Destroy(&h)

	hl, err := inplace.Create(s, large{Words: [5]uint64{1, 2, 3, 4, 5}})
	require.NoError(t, err)
	require.Equal(t, 40, int(unsafe.Sizeof(large{})))
	assert.Equal(t, 1, mem.Allocs())
	assert.Equal(t, 48, s.Size())
	assert.True(t, s.Spilled())
	assert.Equal(t, uint64(5), hl.Get().Words[4])
	assert.Equal(t, mem.LastAddress(), uintptr(unsafe.Pointer(hl.Get())))
	inplace.Destroy(&hl)

	changed, err := s.Reserve(10)
	require.NoError(t, err)
	assert.False(t, changed)
	assert.Equal(t, 1, mem.Allocs())

	last := mem.LastAddress()
	require.Equal(t, last, addr(s.Bytes()))
	s.Release()
	assert.Equal(t, 1, mem.Deallocs())
	assert.Zero(t, mem.Live())
}

func TestCreateDestroyKeepsCapacity(t *testing.T) {
	mem := alloc.NewCheckedAllocator(nil)
	s := inplace.NewDynamic[inplace.Block16](mem)
	defer s.Release()

	for i := 0; i < 3; i++ {
		h, err := inplace.Create(s, large{})
		require.NoError(t, err)
		inplace.Destroy(&h)
		assert.Equal(t, 48, s.Size())
	}
	// only the first create had to grow
	assert.Equal(t, 1, mem.Allocs())
	assert.Zero(t, mem.Deallocs())
}

func TestCreateAlignsInsideUnalignedBuffer(t *testing.T) {
	holder := &struct {
		pad byte
		buf inplace.Fixed[[24]byte]
	}{}
	base := addr(holder.buf.Bytes())
	h, err := inplace.Create(&holder.buf, uint64(0xDEADBEEF))
	require.NoError(t, err)

	p := uintptr(unsafe.Pointer(h.Get()))
	assert.Zero(t, p%8)
	assert.GreaterOrEqual(t, p, base)
	assert.LessOrEqual(t, p+8, base+24)
	assert.Equal(t, uint64(0xDEADBEEF), *h.Get())
}

// movingStorage relocates its buffer on every growth, to a deliberately
// misaligned offset.
type movingStorage struct {
	backing  []byte
	off      int
	size     int
	reserves int
}

func (m *movingStorage) Size() int     { return m.size }
func (m *movingStorage) Bytes() []byte { return m.backing[m.off : m.off+m.size] }
func (m *movingStorage) Reserve(n int) (bool, error) {
	m.reserves++
	if n <= m.size {
		return false, nil
	}
	m.size = n + 3
	m.off = (m.off + 5) % 16
	if m.off%8 == 0 {
		m.off++
	}
	return true, nil
}

func TestCreateRevalidatesAfterMove(t *testing.T) {
	m := &movingStorage{backing: make([]byte, 256), off: 1, size: 2}
	h, err := inplace.Create(m, uint64(42))
	require.NoError(t, err)

	p := uintptr(unsafe.Pointer(h.Get()))
	buf := m.Bytes()
	assert.Zero(t, p%8)
	assert.GreaterOrEqual(t, p, addr(buf))
	assert.LessOrEqual(t, p+8, addr(buf)+uintptr(len(buf)))
	assert.GreaterOrEqual(t, m.reserves, 2)
	assert.Equal(t, uint64(42), *h.Get())
}

func TestCreateFuncStartsZeroed(t *testing.T) {
	var s inplace.Fixed[inplace.Block64]
	for i := range s.Bytes() {
		s.Bytes()[i] = 0xFF
	}
	var seen large
	h, err := inplace.CreateFunc(&s, func(v *large) {
		seen = *v
		v.Words[0] = 7
	})
	require.NoError(t, err)
	assert.Equal(t, large{}, seen)
	assert.Equal(t, uint64(7), h.Get().Words[0])
}

func TestCreateFuncNilInit(t *testing.T) {
	var s inplace.Fixed[inplace.Block8]
	h, err := inplace.CreateFunc[int64](&s, nil)
	require.NoError(t, err)
	assert.Equal(t, int64(0), *h.Get())
}

func TestDestroyRunsDestroyerOnce(t *testing.T) {
	destroyed = nil
	var s inplace.Dynamic[inplace.Block16]
	h, err := inplace.Create(&s, tracked{ID: 9})
	require.NoError(t, err)
	p := h.Get()

	inplace.Destroy(&h)
	assert.Equal(t, []uint32{9}, destroyed)
	assert.False(t, h.Valid())
	assert.Equal(t, tracked{}, *p, "bytes are zeroed")
	assert.PanicsWithValue(t, inplace.ErrInvalidHandle, func() { h.Get() })

	inplace.Destroy(&h)
	assert.Equal(t, []uint32{9}, destroyed)
	inplace.Destroy[tracked](nil)
}

func TestEmptyHandle(t *testing.T) {
	var h inplace.Handle[small]
	assert.False(t, h.Valid())
	assert.PanicsWithValue(t, inplace.ErrInvalidHandle, func() { h.Get() })
}

func TestCreateRejectsPointerPayloads(t *testing.T) {
	mem := alloc.NewCheckedAllocator(nil)
	s := inplace.NewDynamic[inplace.Block16](mem)

	_, err := inplace.Create(s, "text")
	require.ErrorIs(t, err, inplace.ErrPointerPayload)
	_, err = inplace.Create(s, named{ID: 1})
	require.ErrorIs(t, err, inplace.ErrPointerPayload)
	_, err = inplace.CreateFunc[[]byte](s, nil)
	require.ErrorIs(t, err, inplace.ErrPointerPayload)
	assert.Zero(t, mem.Allocs())
}

func TestCreateZeroSized(t *testing.T) {
	mem := alloc.NewCheckedAllocator(nil)
	s := inplace.NewDynamic[inplace.Block8](mem)
	h, err := inplace.Create(s, struct{}{})
	require.NoError(t, err)
	assert.True(t, h.Valid())
	inplace.Destroy(&h)
	assert.Zero(t, mem.Allocs())
}

func TestCreatePropagatesAllocationFailure(t *testing.T) {
	mem := alloc.NewCheckedAllocator(alloc.NewLimitedAllocator(nil, 32))
	s := inplace.NewDynamic[inplace.Block16](mem)

	h, err := inplace.Create(s, large{})
	require.ErrorIs(t, err, alloc.ErrOutOfMemory)
	assert.False(t, h.Valid())
	assert.False(t, s.Spilled())
	assert.Equal(t, 1, mem.Failures())
}

func TestPlace(t *testing.T) {
	var s inplace.Dynamic[inplace.Block16]
	defer s.Release()

	b, err := inplace.Place(&s, 0, 1)
	require.NoError(t, err)
	assert.Empty(t, b)

	b, err = inplace.Place(&s, 40, 16)
	require.NoError(t, err)
	assert.Len(t, b, 40)
	assert.Zero(t, addr(b)%16)
	assert.True(t, s.Spilled())

	_, err = inplace.Place(&s, 8, 3)
	require.ErrorIs(t, err, inplace.ErrAlignment)
	_, err = inplace.Place(&s, -1, 8)
	require.ErrorIs(t, err, inplace.ErrNegativeSize)
}

func TestPlaceSizeOverflow(t *testing.T) {
	var s inplace.Dynamic[inplace.Block16]
	defer s.Release()

	for _, align := range []int{1, 8, 4096} {
		b, err := inplace.Place(&s, math.MaxInt-4, align)
		require.ErrorIs(t, err, inplace.ErrSizeOverflow, "align %d", align)
		assert.Nil(t, b)
	}
	_, err := inplace.Place(&s, math.MaxInt, 1)
	require.ErrorIs(t, err, inplace.ErrSizeOverflow)
	assert.Equal(t, 16, s.Size())
	assert.False(t, s.Spilled())
}

package alloc

import (
	"github.com/apache/arrow/go/v17/arrow/memory"
	"golang.org/x/xerrors"

	"github.com/rawbytedev/inplace"
	"github.com/rawbytedev/inplace/internal/common"
)

// arrowAlignment is the alignment arrow allocators guarantee.
const arrowAlignment = 64

// ArrowAllocator serves blocks from an Apache Arrow memory.Allocator, so
// spilled storage can share an arrow memory pool and its accounting.
type ArrowAllocator struct {
	mem memory.Allocator
}

// NewArrowAllocator adapts mem. A nil mem uses memory.DefaultAllocator.
func NewArrowAllocator(mem memory.Allocator) *ArrowAllocator {
	if mem == nil {
		mem = memory.DefaultAllocator
	}
	return &ArrowAllocator{mem: mem}
}

// Allocate fails with inplace.ErrAlignment for alignments above 64 bytes.
func (a *ArrowAllocator) Allocate(size, align int) ([]byte, error) {
	if size < 0 {
		return nil, inplace.ErrNegativeSize
	}
	if !common.IsPowerOfTwo(align) || align > arrowAlignment {
		return nil, xerrors.Errorf("alloc: arrow align %d: %w", align, inplace.ErrAlignment)
	}
	b := a.mem.Allocate(size)
	if size > 0 && !common.IsAligned(common.AddressOf(b), uintptr(align)) {
		a.mem.Free(b)
		return nil, xerrors.Errorf("alloc: arrow block at %#x for align %d: %w", common.AddressOf(b), align, inplace.ErrAlignment)
	}
	return b, nil
}

func (a *ArrowAllocator) Deallocate(b []byte) {
	a.mem.Free(b)
}

var _ inplace.Allocator = (*ArrowAllocator)(nil)

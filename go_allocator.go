package inplace

import (
	"golang.org/x/xerrors"

	"github.com/rawbytedev/inplace/internal/common"
)

// GoAllocator serves blocks from the Go heap. Deallocate is a no-op; blocks
// are reclaimed by the garbage collector once unreferenced.
//
// GoAllocator is safe to use from multiple goroutines.
type GoAllocator struct{}

// NewGoAllocator returns a GoAllocator.
func NewGoAllocator() *GoAllocator { return &GoAllocator{} }

// Allocate returns size bytes whose first byte is aligned to align, which
// must be a power of two.
func (a *GoAllocator) Allocate(size, align int) ([]byte, error) {
	if size < 0 {
		return nil, ErrNegativeSize
	}
	if !common.IsPowerOfTwo(align) {
		return nil, xerrors.Errorf("inplace: align %d: %w", align, ErrAlignment)
	}
	buf := make([]byte, size+align-1) // padding for alignment
	addr := common.AddressOf(buf)
	shift := int(common.AlignUp(addr, uintptr(align)) - addr)
	return buf[shift : shift+size : shift+size], nil
}

// Deallocate does nothing.
func (a *GoAllocator) Deallocate(b []byte) {}

var _ Allocator = (*GoAllocator)(nil)

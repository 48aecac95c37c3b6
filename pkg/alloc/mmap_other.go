//go:build !unix

package alloc

import "github.com/rawbytedev/inplace"

// MmapAllocator is unavailable on this platform; Allocate always fails with
// ErrUnsupported.
type MmapAllocator struct{}

func NewMmapAllocator() *MmapAllocator { return &MmapAllocator{} }

func (a *MmapAllocator) PageSize() int { return 0 }

func (a *MmapAllocator) Allocate(size, align int) ([]byte, error) {
	return nil, ErrUnsupported
}

func (a *MmapAllocator) Deallocate(b []byte) {}

var _ inplace.Allocator = (*MmapAllocator)(nil)

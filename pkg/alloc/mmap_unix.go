//go:build unix

package alloc

import (
	"golang.org/x/sys/unix"
	"golang.org/x/xerrors"

	"github.com/rawbytedev/inplace"
	"github.com/rawbytedev/inplace/internal/common"
	"github.com/rawbytedev/inplace/internal/logger"
)

// MmapAllocator maps anonymous private pages for every block. Blocks are
// page aligned and live outside the Go heap until Deallocate unmaps them.
//
// MmapAllocator is safe to use from multiple goroutines.
type MmapAllocator struct {
	pageSize int
}

func NewMmapAllocator() *MmapAllocator {
	return &MmapAllocator{pageSize: unix.Getpagesize()}
}

// PageSize returns the mapping granularity.
func (a *MmapAllocator) PageSize() int { return a.pageSize }

// Allocate fails with inplace.ErrAlignment for alignments above the page size.
func (a *MmapAllocator) Allocate(size, align int) ([]byte, error) {
	if size < 0 {
		return nil, inplace.ErrNegativeSize
	}
	if !common.IsPowerOfTwo(align) || align > a.pageSize {
		return nil, xerrors.Errorf("alloc: mmap align %d: %w", align, inplace.ErrAlignment)
	}
	if size == 0 {
		return []byte{}, nil
	}
	n := common.AlignUp(size, a.pageSize)
	b, err := unix.Mmap(-1, 0, n, unix.PROT_READ|unix.PROT_WRITE, unix.MAP_ANON|unix.MAP_PRIVATE)
	if err != nil {
		return nil, xerrors.Errorf("alloc: mmap %d bytes: %w", n, err)
	}
	return b[:size:n], nil
}

// Deallocate unmaps the pages behind b. b must be the slice Allocate returned.
func (a *MmapAllocator) Deallocate(b []byte) {
	if cap(b) == 0 {
		return
	}
	if err := unix.Munmap(b[:cap(b)]); err != nil {
		logger.Error("alloc: munmap failed", "addr", common.AddressOf(b), "len", cap(b), "err", err)
	}
}

var _ inplace.Allocator = (*MmapAllocator)(nil)

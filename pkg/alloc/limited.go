package alloc

import (
	"sync/atomic"

	"golang.org/x/xerrors"

	"github.com/rawbytedev/inplace"
)

// LimitedAllocator fails requests that would take the bytes it has handed
// out past a fixed budget. It is safe for concurrent use if mem is.
type LimitedAllocator struct {
	mem   inplace.Allocator
	limit int64
	used  atomic.Int64
}

// NewLimitedAllocator wraps mem with a budget of limit bytes. A nil mem wraps
// a GoAllocator.
func NewLimitedAllocator(mem inplace.Allocator, limit int) *LimitedAllocator {
	if mem == nil {
		mem = inplace.NewGoAllocator()
	}
	return &LimitedAllocator{mem: mem, limit: int64(limit)}
}

func (a *LimitedAllocator) Allocate(size, align int) ([]byte, error) {
	if size < 0 {
		return nil, inplace.ErrNegativeSize
	}
	for {
		used := a.used.Load()
		if used+int64(size) > a.limit {
			return nil, xerrors.Errorf("alloc: %d bytes with %d of %d in use: %w", size, used, a.limit, ErrOutOfMemory)
		}
		if a.used.CompareAndSwap(used, used+int64(size)) {
			break
		}
	}
	b, err := a.mem.Allocate(size, align)
	if err != nil {
		a.used.Add(-int64(size))
		return nil, err
	}
	return b, nil
}

func (a *LimitedAllocator) Deallocate(b []byte) {
	a.used.Add(-int64(len(b)))
	a.mem.Deallocate(b)
}

// Used returns the bytes currently handed out.
func (a *LimitedAllocator) Used() int { return int(a.used.Load()) }

// Limit returns the budget.
func (a *LimitedAllocator) Limit() int { return int(a.limit) }

var _ inplace.Allocator = (*LimitedAllocator)(nil)

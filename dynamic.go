package inplace

import (
	"fmt"
	"log/slog"
	"math"
	"unsafe"

	"golang.org/x/xerrors"

	"github.com/rawbytedev/inplace/internal/common"
	"github.com/rawbytedev/inplace/internal/debug"
	"github.com/rawbytedev/inplace/internal/logger"
)

// slot widens B to at least a pointer's size and alignment.
type slot[B any] struct {
	_ [0]uintptr
	b B
}

// Dynamic keeps payloads up to its threshold inline and moves larger ones to
// a block from its Allocator. Capacity only grows, in whole multiples of the
// threshold, until Release.
//
// The zero value is usable and allocates from a GoAllocator of its own. A
// Dynamic must not be copied.
type Dynamic[B any] struct {
	alloc Allocator
	align int
	log   *slog.Logger

	size   int
	heap   []byte // nil while inline
	inline Fixed[slot[B]]
}

// NewDynamic returns an inline Dynamic storage that spills to alloc.
// A nil alloc gets a fresh GoAllocator.
func NewDynamic[B any](alloc Allocator) *Dynamic[B] {
	return NewDynamicWithOptions[B](Options{Allocator: alloc})
}

// NewDynamicWithOptions returns an inline Dynamic storage configured by opts.
// It panics if B holds pointers or opts.Align is not a power of two.
func NewDynamicWithOptions[B any](opts Options) *Dynamic[B] {
	mustBePointerFree[B]()
	if opts.Align != 0 && !common.IsPowerOfTwo(opts.Align) {
		panic(fmt.Sprintf("inplace: alignment %d is not a power of two", opts.Align))
	}
	d := &Dynamic[B]{
		alloc: opts.Allocator,
		align: opts.Align,
		log:   opts.Logger,
	}
	d.size = d.Threshold()
	return d
}

// Threshold returns the inline capacity: the size of B, raised to a whole
// number of pointers. It panics if B is zero-sized or holds pointers.
func (d *Dynamic[B]) Threshold() int {
	mustBePointerFree[B]()
	k := int(unsafe.Sizeof(d.inline))
	if k == 0 {
		panic("inplace: zero-sized block type")
	}
	return k
}

// Size returns the number of bytes currently guaranteed.
func (d *Dynamic[B]) Size() int {
	if d.size == 0 {
		return d.Threshold()
	}
	return d.size
}

// Spilled reports whether the storage is backed by an allocator block.
func (d *Dynamic[B]) Spilled() bool {
	return d.Size() > d.Threshold()
}

// Align returns the alignment used for allocator blocks.
func (d *Dynamic[B]) Align() int {
	return max(d.align, d.inline.Align())
}

// Reserve makes at least n bytes available. When n exceeds Size, the new
// capacity is (n/Threshold()+1)*Threshold(), obtained with exactly one
// Allocate call; a previous block is then deallocated. Contents are not
// preserved. On failure the storage is unchanged.
func (d *Dynamic[B]) Reserve(n int) (bool, error) {
	debug.Assert(n >= 0, "inplace: dynamic reserve of negative size")
	if n <= d.Size() {
		return false, nil
	}

	k := d.Threshold()
	if n/k >= math.MaxInt/k {
		return false, xerrors.Errorf("inplace: reserve %d bytes: %w", n, ErrSizeOverflow)
	}
	size := common.NextChunk(n, k)
	align := d.Align()
	alloc := d.allocator()
	buf, err := alloc.Allocate(size, align)
	if err != nil {
		return false, xerrors.Errorf("inplace: reserve %d bytes: %w", n, err)
	}
	if len(buf) < size {
		alloc.Deallocate(buf)
		return false, xerrors.Errorf("inplace: got %d of %d bytes: %w", len(buf), size, ErrShortBlock)
	}
	if !common.IsAligned(common.AddressOf(buf), uintptr(align)) {
		alloc.Deallocate(buf)
		return false, xerrors.Errorf("inplace: block at %#x not aligned to %d: %w", common.AddressOf(buf), align, ErrAlignment)
	}

	spilled := d.heap != nil
	if spilled {
		alloc.Deallocate(d.heap)
	}
	d.heap = buf
	d.size = size
	d.logger().Debug("inplace: storage grew", "request", n, "size", size, "align", align, "respill", spilled)
	return true, nil
}

// Bytes returns the allocator block while spilled, otherwise the inline buffer.
func (d *Dynamic[B]) Bytes() []byte {
	if d.heap != nil {
		return d.heap[:d.size:d.size]
	}
	return d.inline.Bytes()
}

// Release returns a spilled block to the allocator and goes back to inline
// storage. It is a no-op on inline storage.
func (d *Dynamic[B]) Release() {
	if d.heap == nil {
		return
	}
	d.alloc.Deallocate(d.heap)
	d.logger().Debug("inplace: storage released", "size", d.size)
	d.heap = nil
	d.size = d.Threshold()
}

func (d *Dynamic[B]) allocator() Allocator {
	if d.alloc == nil {
		d.alloc = NewGoAllocator()
	}
	return d.alloc
}

func (d *Dynamic[B]) logger() *slog.Logger {
	if d.log != nil {
		return d.log
	}
	return logger.L
}

var _ Storage = (*Dynamic[Block8])(nil)

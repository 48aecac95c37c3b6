package inplace

import (
	"errors"
	"log/slog"
)

var (
	// ErrPointerPayload is returned when a payload type holds Go pointers,
	// strings, slices, maps, channels, funcs or interfaces.
	ErrPointerPayload = errors.New("inplace: payload type contains pointers")

	// ErrInvalidHandle is the panic value of Handle.Get on an empty or destroyed handle.
	ErrInvalidHandle = errors.New("inplace: handle is empty or destroyed")

	// ErrAlignment is returned by allocators asked for an alignment they cannot honour.
	ErrAlignment = errors.New("inplace: unsupported alignment")

	// ErrNegativeSize is returned by allocators asked for a negative size.
	ErrNegativeSize = errors.New("inplace: negative size")

	// ErrShortBlock is returned when an allocator hands back fewer bytes than requested.
	ErrShortBlock = errors.New("inplace: allocator returned a short block")

	// ErrSizeOverflow is returned when a request, with its alignment padding
	// or growth rounding, does not fit in an int.
	ErrSizeOverflow = errors.New("inplace: size overflows int")
)

// Allocator hands out raw blocks for spilled storage.
//
// Allocate returns at least size usable bytes whose first byte is aligned to
// align, a power of two. Deallocate releases a block previously returned by
// Allocate on the same allocator; passing any other slice, or the same one
// twice, is undefined.
type Allocator interface {
	Allocate(size, align int) ([]byte, error)
	Deallocate(b []byte)
}

// Storage is a byte buffer that Create can place a value in.
//
// Reserve guarantees at least n bytes and reports whether the buffer changed,
// in which case slices previously obtained from Bytes are stale.
type Storage interface {
	Size() int
	Reserve(n int) (bool, error)
	Bytes() []byte
}

// Destroyer is implemented by payload types that need teardown before their
// bytes are reused.
type Destroyer interface {
	Destroy()
}

// Options configures a Dynamic storage.
type Options struct {
	// Allocator backs spilled storage. Default: a GoAllocator owned by the storage.
	Allocator Allocator
	// Align raises the alignment of heap blocks. It is never lower than the
	// alignment of the block type or of a pointer.
	Align int
	// Logger receives spill and release events at debug level.
	// Default: the package logger of internal/logger.
	Logger *slog.Logger
}

package alloc

import "errors"

var (
	// ErrOutOfMemory indicates that a request would exceed an allocator's budget.
	ErrOutOfMemory = errors.New("alloc: out of memory")

	// ErrUnknownBlock indicates a deallocation of a block this allocator did not hand out.
	ErrUnknownBlock = errors.New("alloc: deallocate of unknown block")

	// ErrUnsupported indicates that the allocator is not available on this platform.
	ErrUnsupported = errors.New("alloc: unsupported on this platform")
)

package inplace

import (
	"fmt"
	"math"
	"reflect"
	"unsafe"

	"golang.org/x/xerrors"

	"github.com/rawbytedev/inplace/internal/common"
	"github.com/rawbytedev/inplace/internal/debug"
)

// Handle refers to a value constructed inside a Storage. It stays valid until
// Destroy, or until the storage grows, is released or goes away.
type Handle[T any] struct {
	ptr *T
}

// Valid reports whether h refers to a live value.
func (h Handle[T]) Valid() bool {
	return h.ptr != nil
}

// Get returns the value. It panics with ErrInvalidHandle if h is empty or
// has been destroyed.
func (h Handle[T]) Get() *T {
	if h.ptr == nil {
		panic(ErrInvalidHandle)
	}
	return h.ptr
}

// Create copies v into s and returns a handle to the copy.
func Create[T any](s Storage, v T) (Handle[T], error) {
	p, err := place[T](s)
	if err != nil {
		return Handle[T]{}, err
	}
	*p = v
	return Handle[T]{ptr: p}, nil
}

// CreateFunc places a zeroed T in s and runs init on it, if non-nil.
func CreateFunc[T any](s Storage, init func(*T)) (Handle[T], error) {
	p, err := place[T](s)
	if err != nil {
		return Handle[T]{}, err
	}
	if init != nil {
		init(p)
	}
	return Handle[T]{ptr: p}, nil
}

// Destroy runs the value's Destroy method, if *T is a Destroyer, zeroes its
// bytes and empties h. The storage keeps its buffer. Destroying an empty
// handle does nothing.
func Destroy[T any](h *Handle[T]) {
	if h == nil || h.ptr == nil {
		return
	}
	if d, ok := any(h.ptr).(Destroyer); ok {
		d.Destroy()
	}
	var zero T
	*h.ptr = zero
	h.ptr = nil
}

// Place reserves size bytes aligned to align inside s and returns them
// zeroed. It grows s until a Reserve call leaves the buffer where it was, so
// the returned bytes sit in the buffer s exposes from then on.
func Place(s Storage, size, align int) ([]byte, error) {
	if size < 0 {
		return nil, ErrNegativeSize
	}
	if !common.IsPowerOfTwo(align) {
		return nil, xerrors.Errorf("inplace: place align %d: %w", align, ErrAlignment)
	}

	var off int
	for {
		base := common.AddressOf(s.Bytes())
		off = int(common.AlignUp(base, uintptr(align)) - base)
		if size > math.MaxInt-off {
			return nil, xerrors.Errorf("inplace: place %d bytes at offset %d: %w", size, off, ErrSizeOverflow)
		}
		changed, err := s.Reserve(off + size)
		if err != nil {
			return nil, err
		}
		if !changed {
			break
		}
		debug.Log("inplace: storage moved, recomputing placement")
	}

	buf := s.Bytes()
	if off+size > len(buf) {
		panic(fmt.Sprintf("inplace: %d bytes at offset %d overflow %d byte storage", size, off, len(buf)))
	}
	b := buf[off : off+size : off+size]
	clear(b)
	return b, nil
}

func place[T any](s Storage) (*T, error) {
	if t := reflect.TypeFor[T](); !common.PointerFree(t) {
		return nil, xerrors.Errorf("inplace: %v: %w", t, ErrPointerPayload)
	}
	var zero T
	size := int(unsafe.Sizeof(zero))
	if size == 0 {
		return new(T), nil
	}
	b, err := Place(s, size, int(unsafe.Alignof(zero)))
	if err != nil {
		return nil, err
	}
	return (*T)(unsafe.Pointer(&b[0])), nil
}

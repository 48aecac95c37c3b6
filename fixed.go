package inplace

import (
	"fmt"
	"reflect"
	"unsafe"

	"github.com/rawbytedev/inplace/internal/common"
	"github.com/rawbytedev/inplace/internal/debug"
)

// Fixed is an inline buffer with the size and alignment of B. It never grows.
// The zero value is ready to use. A Fixed must not be copied while a value
// lives in it. Reserve and Bytes panic if B holds pointers.
type Fixed[B any] struct {
	data B
}

// Size returns the fixed capacity in bytes.
func (f *Fixed[B]) Size() int {
	return int(unsafe.Sizeof(f.data))
}

// Align returns the alignment of the buffer.
func (f *Fixed[B]) Align() int {
	return int(unsafe.Alignof(f.data))
}

// Reserve checks that n fits the fixed capacity and always reports that no
// change occurred. Asking for more than Size is a contract violation.
func (f *Fixed[B]) Reserve(n int) (bool, error) {
	mustBePointerFree[B]()
	debug.Assert(n >= 0, "inplace: fixed reserve of negative size")
	debug.Assert(n <= f.Size(), "inplace: fixed reserve exceeds capacity")
	return false, nil
}

// Bytes returns the buffer. Its address is stable for the life of f.
func (f *Fixed[B]) Bytes() []byte {
	mustBePointerFree[B]()
	return unsafe.Slice((*byte)(unsafe.Pointer(&f.data)), unsafe.Sizeof(f.data))
}

// mustBePointerFree panics if B cannot hold bytes the garbage collector
// does not scan.
func mustBePointerFree[B any]() {
	if t := reflect.TypeFor[B](); !common.PointerFree(t) {
		panic(fmt.Sprintf("inplace: block type %v contains pointers", t))
	}
}

var _ Storage = (*Fixed[Block8])(nil)

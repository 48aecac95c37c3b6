package common

import (
	"reflect"
	"sync"
	"unsafe"

	"golang.org/x/exp/constraints"
)

// PtrSize and PtrAlign describe a raw machine pointer.
const (
	PtrSize  = int(unsafe.Sizeof(uintptr(0)))
	PtrAlign = int(unsafe.Alignof(uintptr(0)))
)

// IsPowerOfTwo reports whether v is a positive power of two.
func IsPowerOfTwo[T constraints.Integer](v T) bool {
	return v > 0 && v&(v-1) == 0
}

// AlignUp rounds v up to the next multiple of align. align must be a power of two.
func AlignUp[T constraints.Integer](v, align T) T {
	forceCarry := align - 1
	return (v + forceCarry) &^ forceCarry
}

// IsAligned reports whether v is a multiple of the power of two align.
func IsAligned[T constraints.Integer](v, align T) bool {
	return v&(align-1) == 0
}

// NextChunk returns the multiple of chunk that follows n/chunk whole chunks.
// An exact multiple of chunk yields the next multiple up.
func NextChunk[T constraints.Integer](n, chunk T) T {
	return (n/chunk + 1) * chunk
}

// AddressOf returns the address of the first byte of b's backing array.
func AddressOf(b []byte) uintptr {
	return uintptr(unsafe.Pointer(unsafe.SliceData(b)))
}

// IsScalarKind reports whether k is a numeric or boolean kind with no
// pointers in its representation.
func IsScalarKind(k reflect.Kind) bool {
	switch k {
	case reflect.Bool,
		reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64,
		reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64,
		reflect.Uintptr, reflect.Float32, reflect.Float64,
		reflect.Complex64, reflect.Complex128:
		return true
	default:
		return false
	}
}

var pointerFree sync.Map // reflect.Type -> bool

// PointerFree reports whether values of t can live in memory the garbage
// collector does not scan: no pointers, slices, strings, maps, channels,
// funcs or interfaces at any depth.
func PointerFree(t reflect.Type) bool {
	if v, ok := pointerFree.Load(t); ok {
		return v.(bool)
	}
	ok := pointerFreeType(t)
	pointerFree.Store(t, ok)
	return ok
}

func pointerFreeType(t reflect.Type) bool {
	switch k := t.Kind(); {
	case IsScalarKind(k):
		return true
	case k == reflect.Array:
		return t.Len() == 0 || pointerFreeType(t.Elem())
	case k == reflect.Struct:
		for i := 0; i < t.NumField(); i++ {
			if !pointerFreeType(t.Field(i).Type) {
				return false
			}
		}
		return true
	default:
		return false
	}
}

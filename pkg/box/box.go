// Package box holds one value of any pointer-free type in small-buffer
// storage, remembering its type so it can be read back and torn down.
package box

import (
	"reflect"

	"github.com/rawbytedev/inplace"
)

// Box stores at most one value. Values that fit in B stay inline; larger
// ones spill to the box's allocator. The zero value is an empty box that
// spills to a GoAllocator. A Box must not be copied.
type Box[B any] struct {
	store  *inplace.Dynamic[B]
	handle any // inplace.Handle[T] of the held value
	typ    reflect.Type
	drop   func(any)
}

// New returns an empty box spilling to alloc. A nil alloc gets a GoAllocator.
func New[B any](alloc inplace.Allocator) *Box[B] {
	return &Box[B]{store: inplace.NewDynamic[B](alloc)}
}

// Put destroys the current value, if any, and stores v.
func Put[T, B any](b *Box[B], v T) error {
	b.Clear()
	h, err := inplace.Create(b.storage(), v)
	if err != nil {
		return err
	}
	b.handle = h
	b.typ = reflect.TypeFor[T]()
	b.drop = drop[T]
	return nil
}

// Get returns the held value if it has type T.
func Get[T, B any](b *Box[B]) (*T, bool) {
	h, ok := b.handle.(inplace.Handle[T])
	if !ok || !h.Valid() {
		return nil, false
	}
	return h.Get(), true
}

func drop[T any](h any) {
	hh := h.(inplace.Handle[T])
	inplace.Destroy(&hh)
}

// Type returns the type of the held value, or nil when empty.
func (b *Box[B]) Type() reflect.Type { return b.typ }

// Empty reports whether the box holds no value.
func (b *Box[B]) Empty() bool { return b.handle == nil }

// Spilled reports whether the box's storage moved to the allocator.
func (b *Box[B]) Spilled() bool { return b.storage().Spilled() }

// Size returns the capacity of the box's storage.
func (b *Box[B]) Size() int { return b.storage().Size() }

func (b *Box[B]) storage() *inplace.Dynamic[B] {
	if b.store == nil {
		b.store = inplace.NewDynamic[B](nil)
	}
	return b.store
}

// Clear destroys the held value but keeps the storage.
func (b *Box[B]) Clear() {
	if b.drop != nil {
		b.drop(b.handle)
	}
	b.handle, b.typ, b.drop = nil, nil, nil
}

// Release clears the box and returns any spilled block to the allocator.
func (b *Box[B]) Release() {
	b.Clear()
	if b.store != nil {
		b.store.Release()
	}
}

// Package inplace hosts a single value of a statically known type inside a
// reusable byte buffer.
//
// Two storages are provided. Fixed[B] is an inline buffer whose capacity and
// alignment are those of the block type B; it never grows. Dynamic[B] uses a
// Fixed buffer for small payloads and spills to a block obtained from an
// Allocator when a larger payload is requested.
//
// Create places a value inside whichever buffer a Storage currently exposes,
// growing the storage until the placement is stable, and returns a Handle.
// Destroy tears the value down in place without releasing the buffer:
//
//	var s inplace.Dynamic[inplace.Block16]
//	h, err := inplace.Create(&s, point{X: 1, Y: 2})
//	if err != nil {
//		return err
//	}
//	h.Get().X++
//	inplace.Destroy(&h)
//	s.Release()
//
// Storage bytes are not scanned by the garbage collector, so payload and block
// types must be pointer-free. Storages are not safe for concurrent use.
package inplace

// Package alloc provides inplace.Allocator implementations: a bookkeeping
// wrapper for tests, a budgeted wrapper, an adapter over Apache Arrow
// allocators and an allocator backed by anonymous memory mappings.
package alloc

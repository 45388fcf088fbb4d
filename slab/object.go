// Copyright 2024 Francis Michael Stephens. All rights reserved.  Use of this
// source code is governed by an MIT license that can be found in the LICENSE
// file.

package slab

import (
	"fmt"
	"unsafe"

	"github.com/fmstephe/slabstore/slab/internal/slabpool"
)

// zerobase is the address handed out for all zero-sized allocations, so
// they never touch the pools.
var zerobase uintptr

// Allocates an object of type T and returns a pointer to it. The object is
// zeroed, matching the behaviour of Go's new. The type T must not contain
// any pointers in any part of its type - the memory backing it is invisible
// to the garbage collector, so anything a pointer field referenced could be
// collected while still in use. If T is found to contain pointers this
// function panics.
func AllocObject[T any](s *Store) *T {
	// TODO cache this check per type - the reflect walk is not fast
	if err := containsNoPointers[T](); err != nil {
		panic(fmt.Errorf("cannot allocate generic type containing pointers %w", err))
	}

	var zero T
	size := int(unsafe.Sizeof(zero))
	if size == 0 {
		return (*T)((unsafe.Pointer)(&zerobase))
	}

	p := s.Alloc(size)
	clear(unsafe.Slice((*byte)(p), size))
	return (*T)(p)
}

// Frees the object pointed to by p, returning its storage to the Store.
// After this call returns p must never be used again. p must have been
// returned by AllocObject[T] on this Store - the storage is returned keyed
// on T's size, recovered from the caller's static type. Freeing nil is a
// no-op.
func FreeObject[T any](s *Store, p *T) {
	if p == nil {
		return
	}

	size := int(unsafe.Sizeof(*p))
	if size == 0 {
		return
	}

	s.Free((unsafe.Pointer)(p), size)
}

// Returns the stats for the size class which serves allocations of type T.
//
// It is important to note that these statistics apply to the whole size
// class, capturing all allocations of this _size_ including allocations for
// types other than T. Types larger than MaxSlotSize are not served by any
// pool, so the zero Stats is returned for them; see OversizeStats instead.
func StatsForType[T any](s *Store) slabpool.Stats {
	var zero T
	size := int(unsafe.Sizeof(zero))
	if size == 0 {
		// Zero-sized types are served from zerobase and never reach a
		// pool; report the smallest size class
		size = 1
	}
	if size > MaxSlotSize {
		return slabpool.Stats{}
	}
	return s.Stats()[indexForSize(size)]
}

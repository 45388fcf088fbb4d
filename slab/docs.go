// Copyright 2024 Francis Michael Stephens. All rights reserved.  Use of this
// source code is governed by an MIT license that can be found in the LICENSE
// file.

// # Usage
//
// The slab package services many small, short-lived allocations faster than
// the Go allocator by pre-mapping large blocks, bump-allocating fixed-size
// slots within them and recycling freed slots through a lock-free
// free-list. A Store owns one pool per size class; each request is routed
// to the pool with the smallest slot size that fits it, and anything larger
// than MaxSlotSize is mapped directly from the operating system.
//
// The raw surface deals in sizes and untyped pointers:
//
//	var store *slab.Store = slab.New()
//
//	p := store.Alloc(40)
//	// ... use the 40 bytes at p ...
//	store.Free(p, 40)
//
// Free must receive the same size that was passed to Alloc. The pool is
// chosen by size, not by address, so a mismatched size corrupts a pool
// without any error being reported.
//
// The typed surface recovers the size from the static type on both sides,
// so it cannot be mismatched:
//
//	type Point struct{ X, Y int64 }
//
//	pt := slab.AllocObject[Point](store)
//	pt.X = 1
//	slab.FreeObject(store, pt)
//	// You must never use pt again
//
// Objects allocated this way live in memory which is invisible to the
// garbage collector. This is what makes the pools cheap, and it is also why
// AllocObject panics for any type which contains pointers: nothing keeps
// what those pointers reference alive.
//
// # Concurrency Guarantees
//
// 1: Independent Alloc/Free Safety
//
// It is safe for multiple goroutines sharing a Store to call Alloc() and
// Free() generating independent sets of allocations. They can freely read
// and write the memory they have allocated without any additional
// concurrency protection.
//
// 2: Safe Recycling
//
// If one goroutine writes to an allocation and then frees it, and another
// goroutine's Alloc() returns the same slot, the second goroutine observes
// the first one's writes. The free-list pop synchronizes with the push that
// recycled the slot, so a recycled slot is never seen in a torn state.
//
// 3: Safe Data Publication
//
// It is safe to allocate an object and share it with other goroutines,
// provided the usual happens-before relationships are established when
// sharing, for example by passing the pointer over a channel.
//
// 4: Unsafe Concurrent Access To A Shared Allocation
//
// It is not safe for multiple goroutines to freely write, or mix reads and
// writes, to the same allocation without their own synchronization. The
// Store gives shared allocations the same guarantees ordinary Go heap
// objects have, which is to say none.
//
// 5: Free Safety
//
// Freeing the same allocation twice, or from two goroutines at once, puts
// the slot on the free-list twice and it will be handed out twice. This is
// not detected. Freeing an allocation while another goroutine is still
// using it has the same consequence shifted in time.
//
// # Teardown
//
// Destroy() returns every mapped block to the operating system and must
// only be called once all goroutines have stopped using the Store. A Store
// which never allocated unmaps nothing.
package slab

// Copyright 2024 Francis Michael Stephens. All rights reserved.  Use of this
// source code is governed by an MIT license that can be found in the LICENSE
// file.
package slabpool

import (
	"fmt"
	"unsafe"

	"golang.org/x/sys/unix"
)

// MmapBlock acquires one raw block for a pool to carve into slots. The
// mapping is anonymous and private, invisible to the Go garbage collector.
func MmapBlock(conf AllocConfig) uintptr {
	data, err := unix.Mmap(-1, 0, int(conf.BlockSize), unix.PROT_READ|unix.PROT_WRITE, unix.MAP_ANON|unix.MAP_PRIVATE)
	if err != nil {
		panic(fmt.Errorf("cannot allocate block %#v via mmap because %s", conf, err))
	}

	return (uintptr)((unsafe.Pointer)(&data[0]))
}

func MunmapBlock(block uintptr, conf AllocConfig) error {
	b := pointerToBytes(block, int(conf.BlockSize))
	return unix.Munmap(b)
}

// AllocOversize services allocations too large for any pool. Each
// allocation gets a private mapping of its own and is released individually
// by FreeOversize, never chained into a pool.
func AllocOversize(size int) unsafe.Pointer {
	data, err := unix.Mmap(-1, 0, size, unix.PROT_READ|unix.PROT_WRITE, unix.MAP_ANON|unix.MAP_PRIVATE)
	if err != nil {
		panic(fmt.Errorf("cannot allocate %d bytes via mmap because %s", size, err))
	}

	return (unsafe.Pointer)(&data[0])
}

// FreeOversize releases a mapping returned by AllocOversize. size must
// match the original allocation. Unmapping a valid mapping only fails on
// programmer error, so failure panics.
func FreeOversize(p unsafe.Pointer, size int) {
	b := pointerToBytes(uintptr(p), size)
	if err := unix.Munmap(b); err != nil {
		panic(fmt.Errorf("cannot release %d byte mapping because %s", size, err))
	}
}

func pointerToBytes(ptr uintptr, size int) []byte {
	return ([]byte)(unsafe.Slice((*byte)((unsafe.Pointer)(ptr)), size))
}

// Copyright 2024 Francis Michael Stephens. All rights reserved.  Use of this
// source code is governed by an MIT license that can be found in the LICENSE
// file.

package slab

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type MutableStruct struct {
	Field int
}

type payload struct {
	id     int64
	values [5]int64
}

func TestAllocObject(t *testing.T) {
	store := New()
	defer store.Destroy()

	p := AllocObject[payload](store)
	require.NotNil(t, p)

	p.id = 42
	p.values[4] = -1
	assert.Equal(t, int64(42), p.id)

	FreeObject(store, p)
}

func TestAllocObjectZeroed(t *testing.T) {
	store := New()
	defer store.Destroy()

	p := AllocObject[payload](store)
	p.id = 99
	for i := range p.values {
		p.values[i] = 123
	}
	FreeObject(store, p)

	// The recycled slot arrives zeroed, not holding the old contents
	q := AllocObject[payload](store)
	require.Same(t, p, q)
	assert.Equal(t, int64(0), q.id)
	for i := range q.values {
		assert.Equal(t, int64(0), q.values[i])
	}
	FreeObject(store, q)
}

func TestAllocFreePairsBalance(t *testing.T) {
	store := New()
	defer store.Destroy()

	for i := 0; i < 10_000; i++ {
		p := AllocObject[MutableStruct](store)
		p.Field = i
		FreeObject(store, p)
	}

	stats := StatsForType[MutableStruct](store)
	assert.Equal(t, 10_000, stats.Allocs)
	assert.Equal(t, 10_000, stats.Frees)
	assert.Equal(t, 0, stats.Live)
	// After the first allocation every round trip reuses the same slot
	assert.Equal(t, 1, stats.RawAllocs)
}

func TestFreeObjectNil(t *testing.T) {
	store := New()
	defer store.Destroy()

	FreeObject[MutableStruct](store, nil)
	assert.Equal(t, 0, StatsForType[MutableStruct](store).Frees)
}

func TestAllocObjectZeroSized(t *testing.T) {
	store := New()
	defer store.Destroy()

	p := AllocObject[struct{}](store)
	require.NotNil(t, p)

	q := AllocObject[struct{}](store)
	assert.Same(t, p, q)

	FreeObject(store, p)
	FreeObject(store, q)

	// Zero-sized objects never touch the pools
	for _, stats := range store.Stats() {
		assert.Equal(t, 0, stats.Allocs)
		assert.Equal(t, 0, stats.Frees)
	}
}

func TestAllocObjectRejectsPointers(t *testing.T) {
	store := New()
	defer store.Destroy()

	assert.Panics(t, func() {
		AllocObject[*int](store)
	})

	type hasString struct {
		stringsHavePointers string
	}
	assert.Panics(t, func() {
		AllocObject[hasString](store)
	})

	type hasSlice struct {
		slicesHavePointers []int
	}
	assert.Panics(t, func() {
		AllocObject[hasSlice](store)
	})

	type hasMap struct {
		mapsHavePointers map[int]int
	}
	assert.Panics(t, func() {
		AllocObject[hasMap](store)
	})

	type nested struct {
		inner [3]hasSlice
	}
	assert.Panics(t, func() {
		AllocObject[nested](store)
	})
}

func TestAllocObjectAcceptsPointerFreeTypes(t *testing.T) {
	store := New()
	defer store.Destroy()

	type flat struct {
		a bool
		b int32
		c float64
		d [7]uint16
		e complex128
		f uintptr
	}

	p := AllocObject[flat](store)
	require.NotNil(t, p)
	FreeObject(store, p)
}

// Copyright 2024 Francis Michael Stephens. All rights reserved.  Use of this
// source code is governed by an MIT license that can be found in the LICENSE
// file.

package slab

import (
	"sync"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
)

// Demonstrate that multiple goroutines can alloc/modify/free on a shared
// Store instance, generating independent sets of objects.
// This test should be run with -race
func TestSeparateGoroutines_Race(t *testing.T) {
	store := New()
	defer store.Destroy()

	barrier := sync.WaitGroup{}
	barrier.Add(1)

	complete := sync.WaitGroup{}
	for range 8 {
		complete.Add(1)
		go func() {
			defer complete.Done()
			allocateAndModify(t, store, &barrier)
		}()
	}

	barrier.Done()

	complete.Wait()

	for _, stats := range store.Stats() {
		assert.Equal(t, 0, stats.Live)
	}
}

func allocateAndModify(t *testing.T, store *Store, barrier *sync.WaitGroup) {
	barrier.Wait()
	objects := []*MutableStruct{}
	for i := 0; i < 10_000; i++ {
		v := AllocObject[MutableStruct](store)
		objects = append(objects, v)
		v.Field = i
	}
	for i, v := range objects {
		assert.Equal(t, v.Field, i)
		FreeObject(store, v)
	}
}

// Demonstrate that objects can be allocated on one goroutine, published on
// a channel and read on others.
// This test should be run with -race
func TestAllocAndShare_Race(t *testing.T) {
	const producers = 8
	const perProducer = 10_000

	store := New()
	defer store.Destroy()

	shared := make(chan *MutableStruct, producers*perProducer)

	barrier := sync.WaitGroup{}
	barrier.Add(1)
	total := atomic.Uint64{}

	complete := sync.WaitGroup{}
	for range producers {
		complete.Add(1)
		go func() {
			defer complete.Done()
			barrier.Wait()
			for i := 0; i < perProducer; i++ {
				v := AllocObject[MutableStruct](store)
				v.Field = i
				shared <- v
			}
			for i := 0; i < perProducer; i++ {
				v := <-shared
				total.Add(uint64(v.Field))
				FreeObject(store, v)
			}
		}()
	}

	barrier.Done()

	complete.Wait()

	expectedTotal := uint64(producers * ((perProducer - 1) * perProducer / 2))
	assert.Equal(t, expectedTotal, total.Load())

	stats := StatsForType[MutableStruct](store)
	assert.Equal(t, producers*perProducer, stats.Allocs)
	assert.Equal(t, producers*perProducer, stats.Frees)
}

package slab

import (
	"sync/atomic"
	"unsafe"

	"github.com/fmstephe/slabstore/slab/internal/slabpool"
	"go.uber.org/zap"
)

const (
	// PoolCount is the number of size classes served by a Store.
	PoolCount = 64

	// SlotBaseSize is the step between consecutive size classes. Pool i
	// serves slots of (i+1)*SlotBaseSize bytes.
	SlotBaseSize = 8

	// MaxSlotSize is the largest allocation served from a pool. Anything
	// larger is mapped directly from the operating system.
	MaxSlotSize = PoolCount * SlotBaseSize

	// DefaultBlockSize is the size of the raw blocks carved into slots
	// by Stores built with New.
	DefaultBlockSize = 4096
)

type Store struct {
	sizedPools []*slabpool.Pool

	oversizeAllocs atomic.Uint64
	oversizeFrees  atomic.Uint64
}

// OversizeStats counts the allocations which bypassed the pools because
// they were larger than MaxSlotSize.
type OversizeStats struct {
	Allocs int
	Frees  int
}

// Returns a new *Store.
//
// The Store owns one pool per size class and routes each allocation to the
// pool for the smallest slot size that fits it.
func New() *Store {
	return NewLogged(DefaultBlockSize, nil)
}

// Returns a new *Store whose pools carve their slots from blocks of at
// least blockSize bytes. If blockSize is not a power of two it is rounded
// up to the nearest power of two and then used.
//
// Some users may have real need for a Store with a non-standard block size.
// But the motivating use of this function was to allow the creation of
// Stores with small blocks for faster tests with reduced memory usage. Most
// users will probably prefer the default New() above.
func NewSized(blockSize int) *Store {
	return NewLogged(blockSize, nil)
}

// Returns a new *Store which logs a debug event each time one of its pools
// maps a new block. A nil logger disables logging.
func NewLogged(blockSize int, log *zap.Logger) *Store {
	if log == nil {
		log = zap.NewNop()
	}

	sizedPools := make([]*slabpool.Pool, PoolCount)
	for i := range sizedPools {
		slotSize := uint64((i + 1) * SlotBaseSize)
		sizedPools[i] = slabpool.NewPool(slabpool.NewAllocConfig(slotSize, uint64(blockSize)), log)
	}

	return &Store{
		sizedPools: sizedPools,
	}
}

// Alloc returns a pointer to at least size bytes of uninitialised memory,
// aligned for any scalar up to the pointer word. It returns nil iff size is
// not positive.
//
// Safe for concurrent use.
func (s *Store) Alloc(size int) unsafe.Pointer {
	if size <= 0 {
		return nil
	}

	if size > MaxSlotSize {
		s.oversizeAllocs.Add(1)
		return slabpool.AllocOversize(size)
	}

	return s.sizedPools[indexForSize(size)].Alloc()
}

// Free returns an allocation to the Store. size must equal the size passed
// to the Alloc call which produced p - the pool is chosen by size, not by
// address, and a mismatch silently corrupts a pool. Freeing nil is a no-op.
//
// Safe for concurrent use.
func (s *Store) Free(p unsafe.Pointer, size int) {
	if p == nil || size <= 0 {
		return
	}

	if size > MaxSlotSize {
		s.oversizeFrees.Add(1)
		slabpool.FreeOversize(p, size)
		return
	}

	s.sizedPools[indexForSize(size)].Free(p)
}

// Releases the memory mapped by the Store back to the operating system.
// After this method is called the Store is completely unusable. Callers
// must quiesce first; outstanding allocations all become invalid.
//
// A Store which never allocated performs no work here.
func (s *Store) Destroy() error {
	for i := range s.sizedPools {
		if err := s.sizedPools[i].Destroy(); err != nil {
			return err
		}
	}

	return nil
}

// Returns the statistics across all size classes for this Store.
func (s *Store) Stats() []slabpool.Stats {
	sizedStats := make([]slabpool.Stats, len(s.sizedPools))
	for i := range s.sizedPools {
		sizedStats[i] = s.sizedPools[i].Stats()
	}
	return sizedStats
}

// Returns the allocation config across all size classes for this Store.
func (s *Store) AllocConfigs() []slabpool.AllocConfig {
	sizedConfigs := make([]slabpool.AllocConfig, len(s.sizedPools))
	for i := range s.sizedPools {
		sizedConfigs[i] = s.sizedPools[i].AllocConfig()
	}
	return sizedConfigs
}

func (s *Store) OversizeStats() OversizeStats {
	return OversizeStats{
		Allocs: int(s.oversizeAllocs.Load()),
		Frees:  int(s.oversizeFrees.Load()),
	}
}

// indexForSize quantizes a request into its size class. Size class i serves
// slots of (i+1)*SlotBaseSize bytes, so this rounds size up to the next
// multiple of SlotBaseSize.
func indexForSize(size int) int {
	return ((size + SlotBaseSize - 1) / SlotBaseSize) - 1
}

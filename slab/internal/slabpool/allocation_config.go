package slabpool

import (
	"fmt"
	"unsafe"

	"github.com/fmstephe/flib/fmath"
)

// headerSize is the size of the pointer word at the start of each block
// which links the block into the pool's teardown chain.
const headerSize = uint64(unsafe.Sizeof(uintptr(0)))

type AllocConfig struct {
	RequestedBlockSize uint64
	//
	BlockSize        uint64
	SlotSize         uint64
	HeaderSize       uint64
	MaxSlotsPerBlock uint64
}

func NewAllocConfig(slotSize uint64, requestedBlockSize uint64) AllocConfig {
	if slotSize == 0 {
		panic("slabpool: slot size must be greater than 0")
	}
	if slotSize%headerSize != 0 {
		panic(fmt.Errorf("slabpool: slot size %d must be a multiple of the pointer word (%d)", slotSize, headerSize))
	}

	blockSize := uint64(fmath.NxtPowerOfTwo(int64(requestedBlockSize)))

	if blockSize < headerSize+slotSize {
		// The block must fit its chain link and at least one slot
		blockSize = uint64(fmath.NxtPowerOfTwo(int64(headerSize + slotSize)))
	}

	return AllocConfig{
		RequestedBlockSize: requestedBlockSize,

		BlockSize:  blockSize,
		SlotSize:   slotSize,
		HeaderSize: headerSize,
		// An upper bound - the exact count depends on the padding
		// needed to align the first slot of each mapped block
		MaxSlotsPerBlock: (blockSize - headerSize) / slotSize,
	}
}

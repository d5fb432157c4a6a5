package agent

import (
	"log"

	"github.com/scarv/xcsim/mem"
)

// Builder can build agents.
type Builder struct {
	seed        int64
	image       *mem.Storage
	numFetches  int
	numReads    int
	numWrites   int
	fetchBase   uint32
	windowBase  uint32
	windowSize  uint32
	passAddress uint32
	failAddress uint32
	uartAddress uint32
}

// MakeBuilder creates a builder with default parameters.
func MakeBuilder() Builder {
	return Builder{
		seed:        1,
		numFetches:  64,
		numReads:    1000,
		numWrites:   1000,
		fetchBase:   0x0000_2000,
		windowBase:  0x0001_0000,
		windowSize:  0x0001_0000,
		passAddress: 0x0000_001C,
		failAddress: 0x0000_0010,
		uartAddress: 0x0000_1000,
	}
}

// WithSeed sets the seed of the random traffic.
func (b Builder) WithSeed(seed int64) Builder {
	b.seed = seed
	return b
}

// WithImage sets the memory image that instruction fetches are checked
// against. Without an image, fetches are not checked.
func (b Builder) WithImage(image *mem.Storage) Builder {
	b.image = image
	return b
}

// WithFetches sets the number of sequential instruction fetches.
func (b Builder) WithFetches(n int) Builder {
	b.numFetches = n
	return b
}

// WithFetchBase sets the address of the first instruction fetch.
func (b Builder) WithFetchBase(addr uint32) Builder {
	b.fetchBase = addr
	return b
}

// WithReads sets the number of checked data reads. Reads only target words
// the agent has written, so there are no reads without writes.
func (b Builder) WithReads(n int) Builder {
	b.numReads = n
	return b
}

// WithWrites sets the number of random data writes.
func (b Builder) WithWrites(n int) Builder {
	b.numWrites = n
	return b
}

// WithDataWindow sets the address range of the random data traffic.
func (b Builder) WithDataWindow(base, size uint32) Builder {
	b.windowBase = base
	b.windowSize = size
	return b
}

// WithPassAddress sets the address fetched when every check passed.
func (b Builder) WithPassAddress(addr uint32) Builder {
	b.passAddress = addr
	return b
}

// WithFailAddress sets the address fetched when a check failed.
func (b Builder) WithFailAddress(addr uint32) Builder {
	b.failAddress = addr
	return b
}

// WithUARTAddress sets the address of the byte-output device.
func (b Builder) WithUARTAddress(addr uint32) Builder {
	b.uartAddress = addr
	return b
}

// Build creates an agent. The agent starts as if it had just been reset.
func (b Builder) Build(name string) *Agent {
	b.mustHaveValidWindow()

	a := &Agent{
		name:        name,
		seed:        b.seed,
		image:       b.image,
		numFetches:  b.numFetches,
		numReads:    b.numReads,
		numWrites:   b.numWrites,
		fetchBase:   b.fetchBase,
		windowBase:  b.windowBase,
		windowSize:  b.windowSize,
		passAddress: b.passAddress,
		failAddress: b.failAddress,
		uartAddress: b.uartAddress,
	}

	a.reset()

	return a
}

func (b Builder) mustHaveValidWindow() {
	if b.windowSize < 4 || b.windowSize%4 != 0 || b.windowBase%4 != 0 {
		log.Panicf("invalid data window 0x%X+0x%X", b.windowBase, b.windowSize)
	}

	inWindow := func(addr uint32) bool {
		return addr >= b.windowBase && addr-b.windowBase < b.windowSize
	}

	for _, addr := range []uint32{b.passAddress, b.failAddress, b.uartAddress} {
		if inWindow(addr) {
			log.Panicf("data window 0x%X+0x%X covers device address 0x%X",
				b.windowBase, b.windowSize, addr)
		}
	}
}

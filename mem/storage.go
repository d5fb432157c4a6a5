// Package mem models the memory that backs the bus of the design under test.
package mem

import (
	"encoding/binary"
	"sort"
)

// DefaultUnitSize is the number of bytes allocated together when a region of
// the storage is first written.
const DefaultUnitSize = 4096

// A Storage is the memory image of the simulated system. It maps 32-bit
// addresses to bytes.
//
// The storage manages its content in units, similar to pages. Units that are
// never written are never allocated, and reading them returns zeros. Besides
// the data, every unit remembers which of its bytes were written, so that the
// image can be exported without inventing zero bytes.
type Storage struct {
	unitSize uint32
	units    map[uint32]*unit
	numBytes int
}

type unit struct {
	data    []byte
	written []uint64
}

func (u *unit) isWritten(offset uint32) bool {
	return u.written[offset/64]&(1<<(offset%64)) != 0
}

func (u *unit) markWritten(offset uint32) bool {
	if u.isWritten(offset) {
		return false
	}

	u.written[offset/64] |= 1 << (offset % 64)

	return true
}

// NewStorage creates an empty storage with the default unit size.
func NewStorage() *Storage {
	return NewStorageWithUnitSize(DefaultUnitSize)
}

// NewStorageWithUnitSize creates an empty storage. The unit size must be a
// power of two.
func NewStorageWithUnitSize(unitSize uint32) *Storage {
	if unitSize == 0 || unitSize&(unitSize-1) != 0 {
		panic("unit size must be a power of two")
	}

	return &Storage{
		unitSize: unitSize,
		units:    make(map[uint32]*unit),
	}
}

func (s *Storage) parseAddress(addr uint32) (baseAddr, inUnitAddr uint32) {
	inUnitAddr = addr & (s.unitSize - 1)
	baseAddr = addr - inUnitAddr

	return
}

func (s *Storage) createOrGetUnit(baseAddr uint32) *unit {
	u, ok := s.units[baseAddr]
	if !ok {
		words := (s.unitSize + 63) / 64
		u = &unit{
			data:    make([]byte, s.unitSize),
			written: make([]uint64, words),
		}
		s.units[baseAddr] = u
	}

	return u
}

// Byte returns the byte at the given address. Addresses that were never
// written read as zero.
func (s *Storage) Byte(addr uint32) byte {
	baseAddr, inUnitAddr := s.parseAddress(addr)

	u, ok := s.units[baseAddr]
	if !ok {
		return 0
	}

	return u.data[inUnitAddr]
}

// SetByte stores one byte, overwriting any previous value.
func (s *Storage) SetByte(addr uint32, value byte) {
	baseAddr, inUnitAddr := s.parseAddress(addr)

	u := s.createOrGetUnit(baseAddr)
	u.data[inUnitAddr] = value

	if u.markWritten(inUnitAddr) {
		s.numBytes++
	}
}

// IsWritten tells if the byte at the address has ever been written.
func (s *Storage) IsWritten(addr uint32) bool {
	baseAddr, inUnitAddr := s.parseAddress(addr)

	u, ok := s.units[baseAddr]
	if !ok {
		return false
	}

	return u.isWritten(inUnitAddr)
}

// Read returns length bytes starting at address. The address wraps around at
// the top of the 32-bit space.
func (s *Storage) Read(address uint32, length int) []byte {
	res := make([]byte, length)

	for i := 0; i < length; i++ {
		res[i] = s.Byte(address + uint32(i))
	}

	return res
}

// Write stores data starting at address.
func (s *Storage) Write(address uint32, data []byte) {
	for i, b := range data {
		s.SetByte(address+uint32(i), b)
	}
}

// ReadWord assembles the 32-bit little-endian word that starts at address.
func (s *Storage) ReadWord(address uint32) uint32 {
	return binary.LittleEndian.Uint32(s.Read(address, 4))
}

// WriteWord stores the bytes of a 32-bit little-endian word. Bit i of strobe
// enables byte i; bytes that are not enabled keep their old value.
func (s *Storage) WriteWord(address uint32, data uint32, strobe uint8) {
	for i := uint32(0); i < 4; i++ {
		if strobe&(1<<i) == 0 {
			continue
		}

		s.SetByte(address+i, byte(data>>(8*i)))
	}
}

// Len returns the number of bytes that have been written at least once.
func (s *Storage) Len() int {
	return s.numBytes
}

// Addresses returns all written addresses in ascending order.
func (s *Storage) Addresses() []uint32 {
	bases := make([]uint32, 0, len(s.units))
	for base := range s.units {
		bases = append(bases, base)
	}

	sort.Slice(bases, func(i, j int) bool { return bases[i] < bases[j] })

	addrs := make([]uint32, 0, s.numBytes)
	for _, base := range bases {
		u := s.units[base]
		for off := uint32(0); off < s.unitSize; off++ {
			if u.isWritten(off) {
				addrs = append(addrs, base+off)
			}
		}
	}

	return addrs
}

// Clear drops all content.
func (s *Storage) Clear() {
	s.units = make(map[uint32]*unit)
	s.numBytes = 0
}

// Clone returns an independent copy of the storage.
func (s *Storage) Clone() *Storage {
	c := NewStorageWithUnitSize(s.unitSize)
	c.numBytes = s.numBytes

	for base, u := range s.units {
		c.units[base] = &unit{
			data:    append([]byte(nil), u.data...),
			written: append([]uint64(nil), u.written...),
		}
	}

	return c
}

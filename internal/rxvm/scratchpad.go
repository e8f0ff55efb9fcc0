package rxvm

import (
	"encoding/binary"
	"math"
)

// ScratchpadSize is the size in bytes of each VM instance's scratchpad
// (spec §3), addressed by three progressively-wider masks depending on
// which instruction class is touching it.
const ScratchpadSize = 2 * 1024 * 1024

const (
	maskL1      = 0x3FF8
	maskL2      = 0x3FFF8
	maskL3      = 0x1FFFF8
	maskL3x64   = 0x1FFFC0
	cacheLineSz = 64
)

// Scratchpad is the 2 MiB read/write working area addressed by IADD/ISUB/
// FADD/etc.'s memory operands, grounded on the teacher's Memory type
// (internal/polkavm/interpreter/memory.go) but simplified to a single flat
// buffer since the spec has no segmented address space here: addressing is
// entirely by mask, not by range.
type Scratchpad struct {
	buf [ScratchpadSize]byte
}

// NewScratchpad returns a zeroed scratchpad.
func NewScratchpad() *Scratchpad {
	return &Scratchpad{}
}

// Load64 reads a little-endian uint64 at addr&mask.
func (s *Scratchpad) Load64(addr uint32, mask uint32) uint64 {
	off := addr & mask
	return binary.LittleEndian.Uint64(s.buf[off : off+8])
}

// Store64 writes a little-endian uint64 at addr&mask.
func (s *Scratchpad) Store64(addr uint32, mask uint32, v uint64) {
	off := addr & mask
	binary.LittleEndian.PutUint64(s.buf[off:off+8], v)
}

// LoadPD reads the 8 bytes at addr&mask as two little-endian int32s and
// converts them to a packed double via loadCvtI32x2.
func (s *Scratchpad) LoadPD(addr uint32, mask uint32) PackedDouble {
	off := addr & mask
	return loadCvtI32x2(s.buf[off : off+8])
}

// LoadLine returns the 64-byte line at addr&mask as a slice into the
// scratchpad (not a copy).
func (s *Scratchpad) LoadLine(addr uint32, mask uint32) []byte {
	off := addr & mask
	return s.buf[off : off+cacheLineSz]
}

// XorLine XORs a 64-byte dataset line into the scratchpad at addr&mask.
func (s *Scratchpad) XorLine(addr uint32, mask uint32, line []byte) {
	off := addr & mask
	dst := s.buf[off : off+cacheLineSz]
	for i := range dst {
		dst[i] ^= line[i]
	}
}

// Bytes exposes the raw buffer for the finalizer pass over the whole
// scratchpad at the end of the per-nonce loop.
func (s *Scratchpad) Bytes() []byte {
	return s.buf[:]
}

// putFloat64 writes the little-endian IEEE-754 bit pattern of v into b,
// which must be at least 8 bytes.
func putFloat64(b []byte, v float64) {
	binary.LittleEndian.PutUint64(b, math.Float64bits(v))
}

// Seed fills the scratchpad from an expander-produced byte stream prior to
// the first iteration (spec §4.G step 1).
func (s *Scratchpad) Seed(data []byte) {
	copy(s.buf[:], data)
}

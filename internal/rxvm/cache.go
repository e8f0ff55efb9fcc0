package rxvm

import (
	"crypto/aes"
	"encoding/binary"

	"github.com/extenami/RandomX/internal/crypto"
)

// CacheSize is the resident size of the light-mode cache (spec §3/§6).
const CacheSize = 256 * 1024 * 1024

// Cache is the 256 MiB table dataset lines are derived from on demand
// (spec §4.F). It is built once per seed and is safe to share by reference
// across VM instances and worker goroutines once construction completes.
type Cache struct {
	data      []byte
	roundKeys [10][16]byte
}

// NewCache derives a Cache from a seed hash: the cache body is the
// Expander's byte stream (the same primitive the Program fill uses,
// spec §6), and the AES round-key schedule used by initBlock is derived
// from the same seed hash via a fixed key-schedule expansion, grounded on
// the reference's own AES-round-key-derived cache keys.
func NewCache(seedHash crypto.Hash, expander Expander) (*Cache, error) {
	c := &Cache{}
	c.data = make([]byte, CacheSize)
	if len(c.data) != CacheSize {
		return nil, &ErrAllocation{Component: "cache", Bytes: CacheSize}
	}
	expander.Expand(seedHash, c.data)

	keyMaterial := make([]byte, 16*10)
	expander.Expand(deriveKeySeed(seedHash), keyMaterial)
	for i := 0; i < 10; i++ {
		copy(c.roundKeys[i][:], keyMaterial[i*16:i*16+16])
	}
	return c, nil
}

// deriveKeySeed produces a distinct seed hash for the round-key schedule so
// it doesn't collide with the cache body's own expansion.
func deriveKeySeed(seedHash crypto.Hash) crypto.Hash {
	var tweaked crypto.Hash
	copy(tweaked[:], seedHash[:])
	tweaked[0] ^= 0xFF
	return crypto.SeedHash(tweaked[:])
}

// GetLine derives the 64-byte dataset line at blockIndex from the cache,
// implementing the `initBlock(cache, out, blockIndex, keys)` contract of
// spec §4.F/§6. Grounded on the reference's InitDatasetItem
// (_examples/other_examples/dulumao-RandomX__superscalar.go): the block
// index is encrypted once with AES, and each output lane is that block's
// low or high half XORed with an 8-byte cache word read at a pseudo-random
// 8-byte-aligned offset across the cache body. This module does not reimplement the
// reference's superscalar mixing program (out of scope per spec.md §1);
// the AES pass here is this module's own stand-in construction that still
// satisfies "cache plus an index uniquely determines any dataset line".
func (c *Cache) GetLine(blockIndex uint64, out []byte) {
	if len(out) != CacheLineSize {
		panic(&ErrMisuse{Reason: "GetLine: out must be exactly CacheLineSize bytes"})
	}

	block, err := newAESCipher(c.roundKeys)
	if err != nil {
		panic(&ErrMisuse{Reason: "GetLine: invalid round-key schedule: " + err.Error()})
	}

	var counter [aes.BlockSize]byte
	binary.LittleEndian.PutUint64(counter[:8], blockIndex)
	var mix [aes.BlockSize]byte
	block.Encrypt(mix[:], counter[:])

	for lane := 0; lane < CacheLineSize/8; lane++ {
		mixLane := binary.LittleEndian.Uint64(mix[(lane%2)*8:])
		cacheOffset := (mixLane ^ blockIndex*uint64(lane+1)) % (CacheSize / 8) * 8
		v := binary.LittleEndian.Uint64(c.data[cacheOffset : cacheOffset+8])
		binary.LittleEndian.PutUint64(out[lane*8:], v^mixLane)
	}
}

func newAESCipher(roundKeys [10][16]byte) (cipherBlock, error) {
	return aes.NewCipher(roundKeys[0][:])
}

// cipherBlock is the subset of cipher.Block this package needs; declared
// locally so GetLine's helper doesn't have to import crypto/cipher just for
// the return type.
type cipherBlock interface {
	Encrypt(dst, src []byte)
}

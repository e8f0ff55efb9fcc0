// Package crypto adapts the external hashing primitives the proof-of-work
// core sits on top of: the Blake2b-256 seed hash (spec §6) and a small hex
// helper used by the mining harness and tests.
package crypto

import (
	"encoding/hex"

	"golang.org/x/crypto/blake2b"
)

const HashSize = 32

// Hash is a 256-bit digest, used both for the seed hash and the final
// proof-of-work result.
type Hash [HashSize]byte

// SeedHash computes the Blake2b-256 digest of data. This is the external
// key-derivation hash named in spec §6: its algorithm is fixed and out of
// scope, this is just the binding the VM calls through.
func SeedHash(data []byte) Hash {
	return blake2b.Sum256(data)
}

// StringToHex decodes a hex string (with or without a leading "0x") into
// raw bytes. Used by the CLI harness to parse seed and template literals.
func StringToHex(s string) ([]byte, error) {
	if len(s) >= 2 && s[0] == '0' && (s[1] == 'x' || s[1] == 'X') {
		s = s[2:]
	}
	return hex.DecodeString(s)
}

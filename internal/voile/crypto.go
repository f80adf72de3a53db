// crypto.go - Cryptographic primitives shared across the Voile protocol.
//
// Keccak-256 is the single hash underlying commitments, keystreams, nullifiers,
// and the proof hash chain. All protocol randomness comes from crypto/rand.

package voile

import (
	"crypto/rand"
	"encoding/binary"
	"fmt"

	"golang.org/x/crypto/sha3"
)

// HashSize is the output size of Keccak-256 in bytes.
const HashSize = 32

// keccak256 computes the Keccak-256 hash over the concatenation of all inputs.
func keccak256(data ...[]byte) [HashSize]byte {
	d := sha3.NewLegacyKeccak256()
	for _, b := range data {
		d.Write(b)
	}
	var out [HashSize]byte
	d.Sum(out[:0])
	return out
}

// randomBytes32 fills a fresh 32-byte array from the system CSPRNG.
func randomBytes32() ([32]byte, error) {
	var b [32]byte
	if _, err := rand.Read(b[:]); err != nil {
		return b, fmt.Errorf("reading system randomness: %w", err)
	}
	return b, nil
}

// randomUint64 draws a random 64-bit value from the system CSPRNG.
func randomUint64() (uint64, error) {
	var b [8]byte
	if _, err := rand.Read(b[:]); err != nil {
		return 0, fmt.Errorf("reading system randomness: %w", err)
	}
	return binary.LittleEndian.Uint64(b[:]), nil
}

// le64 encodes v as 8 little-endian bytes.
func le64(v uint64) []byte {
	var b [8]byte
	binary.LittleEndian.PutUint64(b[:], v)
	return b[:]
}

// le16 encodes v as 2 little-endian bytes.
func le16(v uint16) []byte {
	var b [2]byte
	binary.LittleEndian.PutUint16(b[:], v)
	return b[:]
}

// uint64FromLE decodes 8 little-endian bytes.
func uint64FromLE(b []byte) uint64 {
	return binary.LittleEndian.Uint64(b)
}

// uint16FromLE decodes 2 little-endian bytes.
func uint16FromLE(b []byte) uint16 {
	return binary.LittleEndian.Uint16(b)
}

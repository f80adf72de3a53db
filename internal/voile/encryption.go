// encryption.go - Hash-derived keystream cipher for exit notes.
//
// A counter-mode stream cipher built from Keccak-256: the nonce is derived
// from the key and a random 64-bit counter, the keystream from repeated
// hashing of (key || nonce || block index), XORed with the plaintext.
//
// There is no authentication tag. Decryption with a wrong key succeeds and
// yields garbage; that behavior is part of the wire contract and must not be
// changed. The random counter collides with non-negligible probability after
// roughly 2^32 encryptions under one key, an operational capacity limit.

package voile

import "fmt"

// KeySize is the byte length of an encryption key.
const KeySize = 32

// encryptedNoteMinSize is the serialized counter prefix.
const encryptedNoteMinSize = 8

// EncryptionKey is 32 bytes of client-side key material. It is never
// serialized on-chain; custody belongs to the caller.
type EncryptionKey struct {
	key [KeySize]byte
}

// GenerateKey draws a fresh random encryption key from the system CSPRNG.
func GenerateKey() (EncryptionKey, error) {
	k, err := randomBytes32()
	if err != nil {
		return EncryptionKey{}, err
	}
	return EncryptionKey{key: k}, nil
}

// KeyFromBytes builds an encryption key from exactly 32 bytes.
func KeyFromBytes(b []byte) (EncryptionKey, error) {
	if len(b) != KeySize {
		return EncryptionKey{}, fmt.Errorf("%w: expected %d bytes, got %d", ErrInvalidKey, KeySize, len(b))
	}
	var k EncryptionKey
	copy(k.key[:], b)
	return k, nil
}

// Bytes returns the raw key material.
func (k EncryptionKey) Bytes() [KeySize]byte {
	return k.key
}

// deriveNonce derives the per-message nonce from the public counter.
func (k EncryptionKey) deriveNonce(counter uint64) [32]byte {
	return keccak256([]byte("voile_nonce"), k.key[:], le64(counter))
}

// deriveKeystream expands (key, nonce) into length bytes of keystream.
func (k EncryptionKey) deriveKeystream(nonce [32]byte, length int) []byte {
	keystream := make([]byte, 0, length)
	for block := uint64(0); len(keystream) < length; block++ {
		h := keccak256(k.key[:], nonce[:], le64(block))
		keystream = append(keystream, h[:]...)
	}
	return keystream[:length]
}

// EncryptedNote is ciphertext plus the public counter used for nonce
// derivation. Only the commitment to the underlying note appears on-chain.
type EncryptedNote struct {
	ciphertext []byte
	counter    uint64
}

// Encrypt encrypts plaintext under key with a fresh random counter.
func Encrypt(key EncryptionKey, plaintext []byte) (*EncryptedNote, error) {
	counter, err := randomUint64()
	if err != nil {
		return nil, err
	}
	nonce := key.deriveNonce(counter)
	keystream := key.deriveKeystream(nonce, len(plaintext))
	ciphertext := make([]byte, len(plaintext))
	for i := range plaintext {
		ciphertext[i] = plaintext[i] ^ keystream[i]
	}
	return &EncryptedNote{ciphertext: ciphertext, counter: counter}, nil
}

// Decrypt recovers the plaintext under key. It always returns bytes: a wrong
// key is not detected here and silently produces garbage.
func (e *EncryptedNote) Decrypt(key EncryptionKey) []byte {
	nonce := key.deriveNonce(e.counter)
	keystream := key.deriveKeystream(nonce, len(e.ciphertext))
	plaintext := make([]byte, len(e.ciphertext))
	for i := range e.ciphertext {
		plaintext[i] = e.ciphertext[i] ^ keystream[i]
	}
	return plaintext
}

// Ciphertext returns the encrypted bytes.
func (e *EncryptedNote) Ciphertext() []byte {
	return e.ciphertext
}

// Counter returns the public nonce counter.
func (e *EncryptedNote) Counter() uint64 {
	return e.counter
}

// ToBytes serializes the note as counter[8] || ciphertext.
func (e *EncryptedNote) ToBytes() []byte {
	out := make([]byte, 0, encryptedNoteMinSize+len(e.ciphertext))
	out = append(out, le64(e.counter)...)
	out = append(out, e.ciphertext...)
	return out
}

// EncryptedNoteFromBytes parses a serialized encrypted note.
func EncryptedNoteFromBytes(b []byte) (*EncryptedNote, error) {
	if len(b) < encryptedNoteMinSize {
		return nil, fmt.Errorf("%w: encrypted note too short: %d bytes", ErrDecryption, len(b))
	}
	e := &EncryptedNote{
		counter:    uint64FromLE(b[:8]),
		ciphertext: append([]byte(nil), b[8:]...),
	}
	return e, nil
}

package voile

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEncryptionRoundtrip(t *testing.T) {
	key, err := GenerateKey()
	require.NoError(t, err)
	plaintext := []byte("unstake_amount:1000,timing:immediate,terms:standard")

	enc, err := Encrypt(key, plaintext)
	require.NoError(t, err)
	assert.Equal(t, plaintext, enc.Decrypt(key))
}

func TestEncryptionEmptyPlaintext(t *testing.T) {
	key, err := GenerateKey()
	require.NoError(t, err)

	enc, err := Encrypt(key, nil)
	require.NoError(t, err)
	assert.Empty(t, enc.Ciphertext())
	assert.Empty(t, enc.Decrypt(key))
}

func TestEncryptionLongPlaintext(t *testing.T) {
	// Forces keystream expansion across many 32-byte blocks, including a
	// final partial block.
	key, err := GenerateKey()
	require.NoError(t, err)
	plaintext := bytes.Repeat([]byte{0xAB}, 1000+7)

	enc, err := Encrypt(key, plaintext)
	require.NoError(t, err)
	assert.Equal(t, plaintext, enc.Decrypt(key))
}

func TestDifferentKeysProduceDifferentCiphertext(t *testing.T) {
	key1, err := GenerateKey()
	require.NoError(t, err)
	key2, err := GenerateKey()
	require.NoError(t, err)
	plaintext := []byte("private_exit_data")

	enc1, err := Encrypt(key1, plaintext)
	require.NoError(t, err)
	enc2, err := Encrypt(key2, plaintext)
	require.NoError(t, err)

	assert.NotEqual(t, enc1.Ciphertext(), enc2.Ciphertext())
}

func TestWrongKeyDecryptionYieldsGarbage(t *testing.T) {
	key1, err := GenerateKey()
	require.NoError(t, err)
	key2, err := GenerateKey()
	require.NoError(t, err)
	plaintext := []byte("secret_unstake_request")

	enc, err := Encrypt(key1, plaintext)
	require.NoError(t, err)

	// No authentication tag: decryption always returns bytes, just not the
	// right ones.
	assert.NotEqual(t, plaintext, enc.Decrypt(key2))
}

func TestEncryptedNoteSerialization(t *testing.T) {
	key, err := GenerateKey()
	require.NoError(t, err)
	plaintext := []byte("exit_note_with_terms")

	enc, err := Encrypt(key, plaintext)
	require.NoError(t, err)

	recovered, err := EncryptedNoteFromBytes(enc.ToBytes())
	require.NoError(t, err)
	assert.Equal(t, enc.Counter(), recovered.Counter())
	assert.Equal(t, plaintext, recovered.Decrypt(key))
}

func TestEncryptedNoteTruncatedCounter(t *testing.T) {
	_, err := EncryptedNoteFromBytes([]byte{1, 2, 3})
	require.ErrorIs(t, err, ErrDecryption)

	_, err = EncryptedNoteFromBytes(nil)
	require.ErrorIs(t, err, ErrDecryption)
}

func TestKeyFromBytes(t *testing.T) {
	original, err := GenerateKey()
	require.NoError(t, err)
	b := original.Bytes()

	recovered, err := KeyFromBytes(b[:])
	require.NoError(t, err)
	assert.Equal(t, original.Bytes(), recovered.Bytes())
}

func TestInvalidKeyLength(t *testing.T) {
	_, err := KeyFromBytes(make([]byte, 16))
	require.ErrorIs(t, err, ErrInvalidKey)

	_, err = KeyFromBytes(make([]byte, 64))
	require.ErrorIs(t, err, ErrInvalidKey)
}

package voile

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCommitmentCreationAndVerification(t *testing.T) {
	value := []byte("test_unstake_amount_1000")
	blinding := [32]byte{}
	for i := range blinding {
		blinding[i] = 42
	}

	c := NewCommitment(value, blinding)

	assert.True(t, c.Verify(value, blinding))
	assert.False(t, c.Verify([]byte("wrong_value"), blinding))
	assert.False(t, c.Verify(value, [32]byte{}))
}

func TestCommitmentDeterministic(t *testing.T) {
	value := []byte("exit_note_data")
	var blinding [32]byte
	blinding[0] = 7

	c1 := NewCommitment(value, blinding)
	c2 := NewCommitment(value, blinding)
	assert.Equal(t, c1, c2)
}

func TestCommitmentBytesRoundtrip(t *testing.T) {
	var blinding [32]byte
	for i := range blinding {
		blinding[i] = 99
	}
	c := NewCommitment([]byte("private_exit_data"), blinding)

	b := c.Bytes()
	recovered, err := CommitmentFromBytes(b[:])
	require.NoError(t, err)
	assert.Equal(t, c, recovered)
}

func TestCommitmentHexRoundtrip(t *testing.T) {
	var blinding [32]byte
	blinding[31] = 123
	c := NewCommitment([]byte("exit_note_data"), blinding)

	h := c.Hex()
	assert.Len(t, h, 64)

	recovered, err := CommitmentFromHex(h)
	require.NoError(t, err)
	assert.Equal(t, c, recovered)
}

func TestCommitmentInvalidLength(t *testing.T) {
	_, err := CommitmentFromBytes(make([]byte, 16))
	require.ErrorIs(t, err, ErrInvalidCommitment)

	_, err = CommitmentFromBytes(make([]byte, 33))
	require.ErrorIs(t, err, ErrInvalidCommitment)
}

func TestCommitmentInvalidHex(t *testing.T) {
	_, err := CommitmentFromHex("not hex at all")
	require.ErrorIs(t, err, ErrInvalidCommitment)

	_, err = CommitmentFromHex("abcd")
	require.ErrorIs(t, err, ErrInvalidCommitment)
}

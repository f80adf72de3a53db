// commitment.go - Binding/hiding commitments for exit notes.
//
// A commitment is keccak256(value || blinding). Binding relies on
// second-preimage resistance; hiding relies on the blinding factor being
// sampled uniformly and never reused across commitments to different values.

package voile

import (
	"encoding/hex"
	"fmt"
)

// CommitmentSize is the byte length of a serialized commitment.
const CommitmentSize = 32

// Commitment is a 32-byte commitment to a hidden value under a blinding factor.
// It can be published without revealing anything about the committed value.
type Commitment struct {
	hash [CommitmentSize]byte
}

// NewCommitment commits to value under the given blinding factor.
func NewCommitment(value []byte, blinding [32]byte) Commitment {
	return Commitment{hash: keccak256(value, blinding[:])}
}

// Verify reports whether value and blinding reproduce this commitment.
func (c Commitment) Verify(value []byte, blinding [32]byte) bool {
	return NewCommitment(value, blinding) == c
}

// Bytes returns the 32-byte commitment hash.
func (c Commitment) Bytes() [CommitmentSize]byte {
	return c.hash
}

// Hex returns the commitment as 64 lowercase hex characters.
func (c Commitment) Hex() string {
	return hex.EncodeToString(c.hash[:])
}

// String implements fmt.Stringer.
func (c Commitment) String() string {
	return "Commitment(" + c.Hex() + ")"
}

// CommitmentFromBytes parses a commitment from exactly 32 bytes.
func CommitmentFromBytes(b []byte) (Commitment, error) {
	if len(b) != CommitmentSize {
		return Commitment{}, fmt.Errorf("%w: expected %d bytes, got %d", ErrInvalidCommitment, CommitmentSize, len(b))
	}
	var c Commitment
	copy(c.hash[:], b)
	return c, nil
}

// CommitmentFromHex parses a commitment from its hex form.
func CommitmentFromHex(s string) (Commitment, error) {
	b, err := hex.DecodeString(s)
	if err != nil {
		return Commitment{}, fmt.Errorf("%w: invalid hex: %v", ErrInvalidCommitment, err)
	}
	return CommitmentFromBytes(b)
}

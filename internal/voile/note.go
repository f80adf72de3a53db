// note.go - Exit note data model and its fixed binary encoding.
//
// An ExitNote is the private record of a pending unstake: amount, owner,
// terms, and the randomness that hides it. It is created on the user's
// device, committed, encrypted for at-rest storage, and discarded once a
// proof is produced. Only the commitment and proof ever leave the device.

package voile

import (
	"fmt"
	"time"
)

// Terms tags on the wire.
const (
	termsTagImmediate byte = 0
	termsTagStandard  byte = 1
	termsTagDelayed   byte = 2
	termsTagCustom    byte = 3
)

// noteHeaderSize is the fixed-size prefix of a serialized exit note:
// note_id[32] || amount[8] || owner[32] || created_at[8] || blinding[32] || terms_len[2].
const noteHeaderSize = 114

// ExitTerms is the closed set of exit shapes. Exactly four variants exist;
// decoding rejects unknown tags rather than defaulting.
type ExitTerms interface {
	// ToBytes encodes the terms as tag byte plus payload.
	ToBytes() []byte

	termsTag() byte
}

// TermsImmediate requests an immediate exit, accepting a potential penalty.
type TermsImmediate struct{}

// TermsStandard requests an exit over the normal unstaking period.
type TermsStandard struct{}

// TermsDelayed defers the exit by a number of blocks for better rates.
type TermsDelayed struct {
	Blocks uint64
}

// TermsCustom carries caller-chosen rate and slippage bounds in basis points.
type TermsCustom struct {
	MinRateBps     uint16
	MaxSlippageBps uint16
}

func (TermsImmediate) termsTag() byte { return termsTagImmediate }
func (TermsStandard) termsTag() byte  { return termsTagStandard }
func (TermsDelayed) termsTag() byte   { return termsTagDelayed }
func (TermsCustom) termsTag() byte    { return termsTagCustom }

// ToBytes encodes Immediate as its bare tag.
func (t TermsImmediate) ToBytes() []byte { return []byte{t.termsTag()} }

// ToBytes encodes Standard as its bare tag.
func (t TermsStandard) ToBytes() []byte { return []byte{t.termsTag()} }

// ToBytes encodes Delayed as tag || blocks_LE64.
func (t TermsDelayed) ToBytes() []byte {
	return append([]byte{t.termsTag()}, le64(t.Blocks)...)
}

// ToBytes encodes Custom as tag || min_rate_bps_LE16 || max_slippage_bps_LE16.
func (t TermsCustom) ToBytes() []byte {
	out := []byte{t.termsTag()}
	out = append(out, le16(t.MinRateBps)...)
	out = append(out, le16(t.MaxSlippageBps)...)
	return out
}

// TermsFromBytes decodes exit terms, rejecting unknown tags and truncated
// payloads with ErrInvalidExitNote.
func TermsFromBytes(b []byte) (ExitTerms, error) {
	if len(b) == 0 {
		return nil, fmt.Errorf("%w: empty terms data", ErrInvalidExitNote)
	}
	switch b[0] {
	case termsTagImmediate:
		return TermsImmediate{}, nil
	case termsTagStandard:
		return TermsStandard{}, nil
	case termsTagDelayed:
		if len(b) < 9 {
			return nil, fmt.Errorf("%w: delayed terms missing blocks", ErrInvalidExitNote)
		}
		return TermsDelayed{Blocks: uint64FromLE(b[1:9])}, nil
	case termsTagCustom:
		if len(b) < 5 {
			return nil, fmt.Errorf("%w: custom terms missing parameters", ErrInvalidExitNote)
		}
		return TermsCustom{
			MinRateBps:     uint16FromLE(b[1:3]),
			MaxSlippageBps: uint16FromLE(b[3:5]),
		}, nil
	default:
		return nil, fmt.Errorf("%w: unknown terms tag: %d", ErrInvalidExitNote, b[0])
	}
}

// ExitNote is a private exit request. It exists in plaintext only on the
// owner's device; externally only its commitment and a proof persist.
type ExitNote struct {
	NoteID         [32]byte  // Unique identifier, drawn fresh per note
	Amount         uint64    // Amount to unstake, in base units
	Owner          [32]byte  // Owner's public identifier
	Terms          ExitTerms // Requested exit terms
	CreatedAt      uint64    // Unix timestamp at creation
	BlindingFactor [32]byte  // Commitment randomness, drawn fresh per note
}

// NewExitNote builds a note with a fresh random note id and blinding factor.
// Two notes with identical (amount, owner, terms) therefore commit to
// different values almost surely.
func NewExitNote(amount uint64, owner [32]byte, terms ExitTerms) (*ExitNote, error) {
	noteID, err := randomBytes32()
	if err != nil {
		return nil, err
	}
	blinding, err := randomBytes32()
	if err != nil {
		return nil, err
	}
	return &ExitNote{
		NoteID:         noteID,
		Amount:         amount,
		Owner:          owner,
		Terms:          terms,
		CreatedAt:      uint64(time.Now().Unix()),
		BlindingFactor: blinding,
	}, nil
}

// ToBytes serializes the note as the 114-byte header followed by the terms.
func (n *ExitNote) ToBytes() []byte {
	termsBytes := n.Terms.ToBytes()
	out := make([]byte, 0, noteHeaderSize+len(termsBytes))
	out = append(out, n.NoteID[:]...)
	out = append(out, le64(n.Amount)...)
	out = append(out, n.Owner[:]...)
	out = append(out, le64(n.CreatedAt)...)
	out = append(out, n.BlindingFactor[:]...)
	out = append(out, le16(uint16(len(termsBytes)))...)
	out = append(out, termsBytes...)
	return out
}

// ExitNoteFromBytes parses a serialized exit note. Short buffers, a terms
// length past the end of the buffer, and malformed terms all return
// ErrInvalidExitNote.
func ExitNoteFromBytes(b []byte) (*ExitNote, error) {
	if len(b) < noteHeaderSize {
		return nil, fmt.Errorf("%w: exit note too short: %d bytes", ErrInvalidExitNote, len(b))
	}
	n := &ExitNote{}
	copy(n.NoteID[:], b[0:32])
	n.Amount = uint64FromLE(b[32:40])
	copy(n.Owner[:], b[40:72])
	n.CreatedAt = uint64FromLE(b[72:80])
	copy(n.BlindingFactor[:], b[80:112])

	termsLen := int(uint16FromLE(b[112:114]))
	if len(b) < noteHeaderSize+termsLen {
		return nil, fmt.Errorf("%w: exit note truncated", ErrInvalidExitNote)
	}
	terms, err := TermsFromBytes(b[noteHeaderSize : noteHeaderSize+termsLen])
	if err != nil {
		return nil, err
	}
	n.Terms = terms
	return n, nil
}

// Commitment commits to the full serialized note, blinding factor included,
// with the blinding factor again as the second hash input. Both inclusions
// are part of the wire contract.
func (n *ExitNote) Commitment() Commitment {
	return NewCommitment(n.ToBytes(), n.BlindingFactor)
}

// VerifyCommitment reports whether this note opens the given commitment.
func (n *ExitNote) VerifyCommitment(c Commitment) bool {
	return n.Commitment() == c
}

// Encrypt encrypts the serialized note under key for private storage.
func (n *ExitNote) Encrypt(key EncryptionKey) (*EncryptedNote, error) {
	return Encrypt(key, n.ToBytes())
}

// DecryptExitNote decrypts and re-parses an exit note. A wrong key is only
// ever detected here, indirectly, when the garbage plaintext fails to parse.
func DecryptExitNote(enc *EncryptedNote, key EncryptionKey) (*ExitNote, error) {
	return ExitNoteFromBytes(enc.Decrypt(key))
}

// api.go - High-level entry points for the client-side exit flow.
//
// These helpers bundle the note lifecycle into single calls so callers do
// not have to sequence the primitives themselves. The plaintext note never
// leaves this package's return values; persisting it is the caller's choice.

package voile

// ExitRequest is the caller's description of a pending unstake.
type ExitRequest struct {
	Amount uint64
	Owner  [32]byte
	Terms  ExitTerms
}

// ExitBundle is everything the client-side flow produces for one exit:
// the commitment to publish, the encrypted note to store privately, and the
// proof to submit. The plaintext note is included so the caller can decide
// when to discard it.
type ExitBundle struct {
	Note          *ExitNote
	Commitment    Commitment
	EncryptedNote *EncryptedNote
	Proof         *ExitProof
}

// CreateExit runs the full client-side pipeline: build the note, commit,
// encrypt under key, and prove ownership under ownerSecret for the given
// proof domain.
func CreateExit(req ExitRequest, key EncryptionKey, ownerSecret [32]byte, domain []byte) (*ExitBundle, error) {
	note, err := NewExitNote(req.Amount, req.Owner, req.Terms)
	if err != nil {
		return nil, err
	}
	encrypted, err := note.Encrypt(key)
	if err != nil {
		return nil, err
	}
	proof, err := NewProofGenerator(domain).Generate(note, ownerSecret)
	if err != nil {
		return nil, err
	}
	return &ExitBundle{
		Note:          note,
		Commitment:    note.Commitment(),
		EncryptedNote: encrypted,
		Proof:         proof,
	}, nil
}

// OpenExit decrypts a stored note and checks it still opens the published
// commitment. A wrong key or a tampered ciphertext surfaces either as
// ErrInvalidExitNote or as a commitment mismatch.
func OpenExit(enc *EncryptedNote, key EncryptionKey, commitment Commitment) (*ExitNote, error) {
	note, err := DecryptExitNote(enc, key)
	if err != nil {
		return nil, err
	}
	if !note.VerifyCommitment(commitment) {
		return nil, ErrInvalidExitNote
	}
	return note, nil
}

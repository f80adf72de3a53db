// errors.go - Typed error kinds for the Voile protocol.
//
// Every fallible parse or verification returns one of the sentinel kinds below,
// wrapped with a specific message. Callers select on the kind with errors.Is;
// no operation panics on attacker-supplied bytes.

package voile

import "errors"

var (
	// ErrInvalidCommitment reports wrong-length or malformed commitment bytes.
	ErrInvalidCommitment = errors.New("invalid commitment")

	// ErrInvalidKey reports wrong-length encryption key material.
	ErrInvalidKey = errors.New("invalid key")

	// ErrDecryption reports a malformed encrypted-note envelope, such as a
	// truncated counter. It does not indicate a wrong key: decryption with a
	// wrong key succeeds and yields garbage.
	ErrDecryption = errors.New("decryption error")

	// ErrInvalidExitNote reports a truncated or malformed exit note: short
	// buffers, unknown terms tags, or a declared terms length past the end.
	ErrInvalidExitNote = errors.New("invalid exit note")

	// ErrProofGeneration reports a generator-side failure, currently only an
	// RNG failure while drawing the one-time proof nonce.
	ErrProofGeneration = errors.New("proof generation error")

	// ErrProofVerification reports a rejected proof: size mismatch,
	// zero-valued field, verification tag mismatch, or a reused nullifier.
	ErrProofVerification = errors.New("proof verification failed")
)

// Package voile implements the private exit-note pipeline of the Voile protocol.
//
// Overview:
//   - Users build an ExitNote describing a pending unstake on their own device
//   - The note is hidden behind a 32-byte commitment and encrypted for at-rest storage
//   - A Fiat-Shamir style proof-of-knowledge authorizes a one-time, reveal-free spend
//   - Nullifiers make every spend detectable exactly once, preventing double spends
//
// Security Model:
//   - Keccak-256 for commitments, keystreams, nullifiers, and the proof hash chain
//   - All randomness (note ids, blinding factors, counters, proof nonces) from crypto/rand
//   - Commitments are binding under second-preimage resistance and hiding under a
//     uniformly sampled, never-reused blinding factor
//   - The stream cipher carries no authentication tag: a wrong key yields garbage
//     plaintext and is only detected indirectly when note parsing fails
//
// Usage:
//   - NewExitNote, (*ExitNote).Commitment, (*ExitNote).Encrypt for the note lifecycle
//   - NewProofGenerator / NewProofVerifier for the spend protocol
//   - CreateExit bundles the whole client-side flow into one call
//
// WARNING: the proof verifier checks consistency of the transcript hash chain only;
// it does not re-derive the response from the owner secret. See proof.go.
package voile

// proof.go - Proof-of-knowledge protocol and nullifier double-spend guard.
//
// The prover shows knowledge of a validly-formed exit note behind a
// commitment without revealing it, via a Fiat-Shamir style hash chain: the
// challenge is a deterministic hash of the public transcript, so no
// interactive verifier is needed. A nullifier derived from (domain, note id,
// owner secret) is published once per spend and makes reuse detectable.
//
// Verification recomputes the challenge and verification tag purely from
// values carried in the proof; it never re-derives the response from the
// owner secret. The hash chain below is a wire contract shared with other
// implementations and must be preserved bit-for-bit.

package voile

import (
	"encoding/hex"
	"fmt"
	"sync"
)

// ProofSize is the byte length of a serialized exit proof.
const ProofSize = 160

// Domain separation prefixes for the proof hash chain.
var (
	prefixProofDomain     = []byte("voile_proof_domain")
	prefixNullifier       = []byte("voile_nullifier")
	prefixAnnouncement    = []byte("voile_announcement")
	prefixChallenge       = []byte("voile_challenge")
	prefixResponse        = []byte("voile_response")
	prefixVerificationTag = []byte("voile_verification_tag")
)

// ExitProof attests that the prover knows an exit note matching the
// commitment and is authorized to spend it. It is the only artifact of the
// pipeline ever exposed publicly.
type ExitProof struct {
	commitment      Commitment
	announcement    [32]byte
	response        [32]byte
	verificationTag [32]byte
	nullifier       [32]byte
}

// Commitment returns the commitment the proof is bound to.
func (p *ExitProof) Commitment() Commitment {
	return p.commitment
}

// Nullifier returns the proof's one-time spend tag.
func (p *ExitProof) Nullifier() [32]byte {
	return p.nullifier
}

// ToBytes serializes the proof as
// commitment || announcement || response || verification_tag || nullifier.
func (p *ExitProof) ToBytes() []byte {
	out := make([]byte, 0, ProofSize)
	cm := p.commitment.Bytes()
	out = append(out, cm[:]...)
	out = append(out, p.announcement[:]...)
	out = append(out, p.response[:]...)
	out = append(out, p.verificationTag[:]...)
	out = append(out, p.nullifier[:]...)
	return out
}

// ExitProofFromBytes parses a proof from exactly 160 bytes.
func ExitProofFromBytes(b []byte) (*ExitProof, error) {
	if len(b) != ProofSize {
		return nil, fmt.Errorf("%w: invalid proof size: expected %d, got %d", ErrProofVerification, ProofSize, len(b))
	}
	commitment, err := CommitmentFromBytes(b[0:32])
	if err != nil {
		return nil, err
	}
	p := &ExitProof{commitment: commitment}
	copy(p.announcement[:], b[32:64])
	copy(p.response[:], b[64:96])
	copy(p.verificationTag[:], b[96:128])
	copy(p.nullifier[:], b[128:160])
	return p, nil
}

// ToHex returns the proof as 320 lowercase hex characters for transport to
// an external ledger or verifier.
func (p *ExitProof) ToHex() string {
	return hex.EncodeToString(p.ToBytes())
}

// ExitProofFromHex parses a proof from its hex form.
func ExitProofFromHex(s string) (*ExitProof, error) {
	b, err := hex.DecodeString(s)
	if err != nil {
		return nil, fmt.Errorf("%w: invalid hex: %v", ErrProofVerification, err)
	}
	return ExitProofFromBytes(b)
}

// deriveDomainHash folds an application-chosen domain tag (e.g. a chain
// identifier) into the hash the whole chain is prefixed with. Proofs from
// one domain never validate under another.
func deriveDomainHash(domain []byte) [32]byte {
	return keccak256(prefixProofDomain, domain)
}

// computeChallenge is the Fiat-Shamir challenge, a deterministic function of
// the public transcript. Shared by generator and verifier.
func computeChallenge(domainHash [32]byte, commitment Commitment, nullifier, announcement [32]byte) [32]byte {
	cm := commitment.Bytes()
	return keccak256(prefixChallenge, domainHash[:], cm[:], nullifier[:], announcement[:])
}

// computeVerificationTag binds the response to the rest of the transcript.
// Shared by generator and verifier.
func computeVerificationTag(domainHash [32]byte, response, challenge, announcement [32]byte, commitment Commitment, nullifier [32]byte) [32]byte {
	cm := commitment.Bytes()
	return keccak256(prefixVerificationTag, domainHash[:], response[:], challenge[:], announcement[:], cm[:], nullifier[:])
}

// ProofGenerator produces exit proofs. It runs on the owner's device and
// never exposes the note or the owner secret.
type ProofGenerator struct {
	domainHash [32]byte
}

// NewProofGenerator builds a generator for the given proof domain.
func NewProofGenerator(domain []byte) *ProofGenerator {
	return &ProofGenerator{domainHash: deriveDomainHash(domain)}
}

// Generate proves knowledge of note under ownerSecret.
//
// The one-time nonce k must be freshly random per proof: reusing k across
// two proofs with different challenges leaks the owner secret through the
// response relation.
func (g *ProofGenerator) Generate(note *ExitNote, ownerSecret [32]byte) (*ExitProof, error) {
	commitment := note.Commitment()
	nullifier := g.computeNullifier(note.NoteID, ownerSecret)

	k, err := randomBytes32()
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrProofGeneration, err)
	}

	announcement := keccak256(prefixAnnouncement, g.domainHash[:], k[:])
	challenge := computeChallenge(g.domainHash, commitment, nullifier, announcement)
	response := keccak256(prefixResponse, g.domainHash[:], k[:], challenge[:], ownerSecret[:])
	tag := computeVerificationTag(g.domainHash, response, challenge, announcement, commitment, nullifier)

	return &ExitProof{
		commitment:      commitment,
		announcement:    announcement,
		response:        response,
		verificationTag: tag,
		nullifier:       nullifier,
	}, nil
}

// computeNullifier derives the deterministic spend tag for a note. The same
// (domain, note id, secret) always yields the same nullifier; changing the
// secret or the domain changes it.
func (g *ProofGenerator) computeNullifier(noteID, ownerSecret [32]byte) [32]byte {
	return keccak256(prefixNullifier, g.domainHash[:], noteID[:], ownerSecret[:])
}

// ProofVerifier checks exit proofs and tracks used nullifiers. The store
// starts as an in-process cache; deployments back it with durable storage
// via NewProofVerifierWithStore.
//
// Verify (read) and MarkNullifierUsed (write) are serialized behind one
// mutex; Spend composes them as a single check-and-set so two concurrent
// verifications of the same nullifier cannot both pass.
type ProofVerifier struct {
	domainHash [32]byte

	mu    sync.Mutex
	store NullifierStore
}

// NewProofVerifier builds a verifier for the given proof domain, backed by
// an in-memory nullifier set.
func NewProofVerifier(domain []byte) *ProofVerifier {
	return NewProofVerifierWithStore(domain, NewMemoryNullifierStore())
}

// NewProofVerifierWithStore builds a verifier backed by the given store.
// The domain must match the generator's or every proof is rejected.
func NewProofVerifierWithStore(domain []byte, store NullifierStore) *ProofVerifier {
	return &ProofVerifier{domainHash: deriveDomainHash(domain), store: store}
}

// Verify checks a proof against the transcript hash chain and the
// used-nullifier set. On success the caller is responsible for invoking
// MarkNullifierUsed once the associated spend is durably committed, or for
// using Spend to do both atomically.
func (v *ProofVerifier) Verify(proof *ExitProof) error {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.verifyLocked(proof)
}

func (v *ProofVerifier) verifyLocked(proof *ExitProof) error {
	if v.store.Contains(proof.nullifier) {
		return fmt.Errorf("%w: Nullifier already used", ErrProofVerification)
	}

	var zero [32]byte
	if proof.response == zero || proof.announcement == zero || proof.nullifier == zero || proof.verificationTag == zero {
		return fmt.Errorf("%w: zero-valued proof field", ErrProofVerification)
	}

	challenge := computeChallenge(v.domainHash, proof.commitment, proof.nullifier, proof.announcement)
	tag := computeVerificationTag(v.domainHash, proof.response, challenge, proof.announcement, proof.commitment, proof.nullifier)
	if tag != proof.verificationTag {
		return fmt.Errorf("%w: Verification tag mismatch", ErrProofVerification)
	}
	return nil
}

// Spend verifies the proof and marks its nullifier used as one atomic step.
func (v *ProofVerifier) Spend(proof *ExitProof) error {
	v.mu.Lock()
	defer v.mu.Unlock()
	if err := v.verifyLocked(proof); err != nil {
		return err
	}
	v.store.Insert(proof.nullifier)
	return nil
}

// MarkNullifierUsed records a nullifier as spent. The transition is one-way.
func (v *ProofVerifier) MarkNullifierUsed(nullifier [32]byte) {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.store.Insert(nullifier)
}

// IsNullifierUsed reports whether a nullifier has been spent.
func (v *ProofVerifier) IsNullifierUsed(nullifier [32]byte) bool {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.store.Contains(nullifier)
}

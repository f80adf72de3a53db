// main.go - End-to-end walk-through of the Voile exit-note pipeline.
//
// This demonstrates the complete lifecycle of a private exit:
//   - A user builds an exit note describing a pending unstake
//   - The note is hidden behind a 32-byte commitment and encrypted at rest
//   - A proof-of-knowledge authorizes a one-time, reveal-free spend
//   - The verifier accepts the proof once and rejects every reuse
//
// Usage:
//   go run main.go
//
// Architecture:
//   - Only the commitment and the 160-byte proof ever leave the user's device
//   - The used-nullifier set persists in a single nullifiers.json file

package main

import (
	"crypto/rand"
	"fmt"
	"log"

	"voile/internal/voile"
)

func main() {
	log.Println("=== Voile Protocol: Private Exit Scenario ===")

	domain := []byte("voile_mainnet")

	// 1. The user draws their secrets: an encryption key for at-rest
	// storage and the owner secret that authorizes the spend.
	key, err := voile.GenerateKey()
	if err != nil {
		log.Fatalf("key generation failed: %v", err)
	}
	var ownerSecret [32]byte
	if _, err := rand.Read(ownerSecret[:]); err != nil {
		log.Fatalf("secret generation failed: %v", err)
	}

	// 2. Build the private exit note: unstake 1000 units under standard
	// terms. Note id and blinding factor are drawn fresh.
	var owner [32]byte
	owner[0] = 42
	note, err := voile.NewExitNote(1000, owner, voile.TermsStandard{})
	if err != nil {
		log.Fatalf("note creation failed: %v", err)
	}
	log.Printf("exit note created: amount=%d created_at=%d", note.Amount, note.CreatedAt)

	// 3. Commit and encrypt. The commitment is publishable; the encrypted
	// note stays on the user's device.
	commitment := note.Commitment()
	encrypted, err := note.Encrypt(key)
	if err != nil {
		log.Fatalf("note encryption failed: %v", err)
	}
	log.Printf("commitment: %s", commitment.Hex())
	log.Printf("encrypted note: %d bytes (counter %d is public)", len(encrypted.ToBytes()), encrypted.Counter())

	// 4. Prove knowledge of the note without revealing it.
	generator := voile.NewProofGenerator(domain)
	proof, err := generator.Generate(note, ownerSecret)
	if err != nil {
		log.Fatalf("proof generation failed: %v", err)
	}
	log.Printf("proof (hex, %d chars): %s...", len(proof.ToHex()), proof.ToHex()[:32])

	// 5. The verifier side: check the proof and spend it atomically.
	verifier := voile.NewProofVerifier(domain)
	if err := verifier.Spend(proof); err != nil {
		log.Fatalf("proof verification failed: %v", err)
	}
	log.Println("proof verified, nullifier marked used")

	// 6. A second spend of the same note is a double spend.
	if err := verifier.Verify(proof); err != nil {
		log.Printf("double spend correctly rejected: %v", err)
	} else {
		log.Fatal("double spend was not rejected")
	}

	// 7. The user can reopen their stored note later with the key.
	reopened, err := voile.OpenExit(encrypted, key, commitment)
	if err != nil {
		log.Fatalf("reopening stored note failed: %v", err)
	}

	fmt.Printf("\n=== Exit Complete ===\n")
	fmt.Printf("Commitment:  %s\n", commitment.Hex())
	fmt.Printf("Nullifier:   %x\n", proof.Nullifier())
	fmt.Printf("Amount:      %d (recovered from storage: %d)\n", note.Amount, reopened.Amount)
}

package p2p

import (
	"encoding/hex"
	"encoding/json"
	"fmt"
)

// Message is the generic envelope for any message sent between verifier
// replicas. It allows for flexible communication of different payloads.
type Message struct {
	Type     string          `json:"type"`
	Payload  json.RawMessage `json:"payload"`
	SenderID string          `json:"senderId"`
}

// Message types.
const (
	TypeNullifierUsed = "nullifier_used"
	TypeSyncRequest   = "sync_request"
	TypeSyncResponse  = "sync_response"
)

// NullifierUsedPayload announces a freshly spent nullifier to peers.
type NullifierUsedPayload struct {
	Nullifier string `json:"nullifier"` // 64 lowercase hex characters
}

// SyncRequestPayload asks a peer for its full used-nullifier set.
type SyncRequestPayload struct{}

// SyncResponsePayload carries a peer's full used-nullifier set.
type SyncResponsePayload struct {
	Nullifiers []string `json:"nullifiers"`
}

// encodeNullifier renders a nullifier for transport.
func encodeNullifier(n [32]byte) string {
	return hex.EncodeToString(n[:])
}

// decodeNullifier parses a transported nullifier.
func decodeNullifier(s string) ([32]byte, error) {
	var n [32]byte
	b, err := hex.DecodeString(s)
	if err != nil {
		return n, fmt.Errorf("invalid nullifier hex: %w", err)
	}
	if len(b) != 32 {
		return n, fmt.Errorf("invalid nullifier length: %d", len(b))
	}
	copy(n[:], b)
	return n, nil
}

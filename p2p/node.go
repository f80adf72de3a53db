// Package p2p keeps the used-nullifier sets of verifier replicas in sync.
//
// Every replica runs a Node. After a local spend the node broadcasts the
// nullifier to its peers; on startup (or after a partition) a node can pull a
// peer's full set. Inserts are idempotent, so the sets converge without any
// consensus machinery. This is the replica-consistency collaborator of the
// core verifier, not an on-chain transport.
package p2p

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"voile/internal/voile"
)

// messagePath is the HTTP endpoint nodes exchange messages on.
const messagePath = "/p2p/message"

// NullifierSet is the store a node synchronizes: the verifier's store
// capability plus enumeration for full-set sync. Both voile store
// implementations satisfy it.
type NullifierSet interface {
	voile.NullifierStore
	Snapshot() [][32]byte
}

// Node represents one verifier replica in the sync mesh.
type Node struct {
	ID    string
	Peers map[string]string // Map of peer ID to its base URL

	store  NullifierSet
	log    zerolog.Logger
	client *http.Client

	mu     sync.Mutex
	server *http.Server
}

// NewNode creates and initializes a new Node around the given store.
func NewNode(id string, peers map[string]string, store NullifierSet, log zerolog.Logger) *Node {
	return &Node{
		ID:     id,
		Peers:  peers,
		store:  store,
		log:    log.With().Str("component", "p2p").Str("node", id).Logger(),
		client: &http.Client{Timeout: 5 * time.Second},
	}
}

// Handler returns the HTTP handler serving the node's message endpoint.
func (n *Node) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc(messagePath, n.messageHandler)
	return mux
}

// Start serves the message endpoint on addr until Stop is called.
func (n *Node) Start(addr string) error {
	n.mu.Lock()
	n.server = &http.Server{Addr: addr, Handler: n.Handler()}
	server := n.server
	n.mu.Unlock()

	n.log.Info().Str("addr", addr).Msg("p2p node listening")
	if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return err
	}
	return nil
}

// Stop shuts the message endpoint down gracefully.
func (n *Node) Stop(ctx context.Context) error {
	n.mu.Lock()
	server := n.server
	n.mu.Unlock()
	if server == nil {
		return nil
	}
	return server.Shutdown(ctx)
}

// messageHandler decodes the message envelope and processes the payload
// based on its type.
func (n *Node) messageHandler(w http.ResponseWriter, r *http.Request) {
	var msg Message
	if err := json.NewDecoder(r.Body).Decode(&msg); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		n.log.Warn().Err(err).Msg("received a bad request")
		return
	}

	n.log.Debug().Str("type", msg.Type).Str("from", msg.SenderID).Msg("received message")

	switch msg.Type {
	case TypeNullifierUsed:
		var payload NullifierUsedPayload
		if err := json.Unmarshal(msg.Payload, &payload); err != nil {
			http.Error(w, "Invalid payload", http.StatusBadRequest)
			return
		}
		nullifier, err := decodeNullifier(payload.Nullifier)
		if err != nil {
			http.Error(w, "Invalid nullifier", http.StatusBadRequest)
			return
		}
		n.store.Insert(nullifier)
		w.WriteHeader(http.StatusOK)

	case TypeSyncRequest:
		resp := SyncResponsePayload{}
		for _, nullifier := range n.store.Snapshot() {
			resp.Nullifiers = append(resp.Nullifiers, encodeNullifier(nullifier))
		}
		payload, err := json.Marshal(resp)
		if err != nil {
			http.Error(w, "Internal error", http.StatusInternalServerError)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(Message{
			Type:     TypeSyncResponse,
			Payload:  payload,
			SenderID: n.ID,
		})

	default:
		http.Error(w, "Unknown message type", http.StatusBadRequest)
	}
}

// BroadcastNullifierUsed announces a spent nullifier to all peers. Peers
// that cannot be reached are logged and skipped; they catch up via sync.
func (n *Node) BroadcastNullifierUsed(nullifier [32]byte) {
	payload, _ := json.Marshal(NullifierUsedPayload{Nullifier: encodeNullifier(nullifier)})
	msg := Message{Type: TypeNullifierUsed, Payload: payload, SenderID: n.ID}

	for peerID, baseURL := range n.Peers {
		if err := n.send(baseURL, msg); err != nil {
			n.log.Warn().Err(err).Str("peer", peerID).Msg("broadcast failed")
		}
	}
}

// SyncWithPeer pulls a peer's full used-nullifier set into the local store.
func (n *Node) SyncWithPeer(baseURL string) error {
	payload, _ := json.Marshal(SyncRequestPayload{})
	body, err := json.Marshal(Message{Type: TypeSyncRequest, Payload: payload, SenderID: n.ID})
	if err != nil {
		return err
	}

	resp, err := n.client.Post(baseURL+messagePath, "application/json", bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("sync request failed: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("sync request failed: status %d", resp.StatusCode)
	}

	var msg Message
	if err := json.NewDecoder(resp.Body).Decode(&msg); err != nil {
		return fmt.Errorf("decoding sync response: %w", err)
	}
	if msg.Type != TypeSyncResponse {
		return fmt.Errorf("unexpected response type %q", msg.Type)
	}
	var syncPayload SyncResponsePayload
	if err := json.Unmarshal(msg.Payload, &syncPayload); err != nil {
		return fmt.Errorf("decoding sync payload: %w", err)
	}

	added := 0
	for _, h := range syncPayload.Nullifiers {
		nullifier, err := decodeNullifier(h)
		if err != nil {
			return err
		}
		if !n.store.Contains(nullifier) {
			n.store.Insert(nullifier)
			added++
		}
	}
	n.log.Info().Int("added", added).Int("total", len(syncPayload.Nullifiers)).Msg("synced with peer")
	return nil
}

// send posts a message to a peer's message endpoint.
func (n *Node) send(baseURL string, msg Message) error {
	body, err := json.Marshal(msg)
	if err != nil {
		return err
	}
	resp, err := n.client.Post(baseURL+messagePath, "application/json", bytes.NewReader(body))
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("peer returned status %d", resp.StatusCode)
	}
	return nil
}

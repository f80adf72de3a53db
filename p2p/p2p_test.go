package p2p

import (
	"net/http/httptest"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"voile/internal/voile"
)

func testNullifier(b byte) [32]byte {
	var n [32]byte
	for i := range n {
		n[i] = b
	}
	return n
}

func newTestNode(t *testing.T, id string) (*Node, *voile.MemoryNullifierStore, *httptest.Server) {
	t.Helper()
	store := voile.NewMemoryNullifierStore()
	node := NewNode(id, map[string]string{}, store, zerolog.Nop())
	server := httptest.NewServer(node.Handler())
	t.Cleanup(server.Close)
	return node, store, server
}

func TestBroadcastNullifierUsed(t *testing.T) {
	nodeA, _, _ := newTestNode(t, "A")
	_, storeB, serverB := newTestNode(t, "B")
	_, storeC, serverC := newTestNode(t, "C")

	nodeA.Peers = map[string]string{"B": serverB.URL, "C": serverC.URL}

	n := testNullifier(7)
	nodeA.BroadcastNullifierUsed(n)

	assert.True(t, storeB.Contains(n))
	assert.True(t, storeC.Contains(n))
}

func TestBroadcastIdempotent(t *testing.T) {
	nodeA, _, _ := newTestNode(t, "A")
	_, storeB, serverB := newTestNode(t, "B")
	nodeA.Peers = map[string]string{"B": serverB.URL}

	n := testNullifier(9)
	nodeA.BroadcastNullifierUsed(n)
	nodeA.BroadcastNullifierUsed(n)

	assert.True(t, storeB.Contains(n))
	assert.Equal(t, 1, storeB.Len())
}

func TestSyncWithPeer(t *testing.T) {
	nodeA, storeA, _ := newTestNode(t, "A")
	_, storeB, serverB := newTestNode(t, "B")

	for i := byte(1); i <= 5; i++ {
		storeB.Insert(testNullifier(i))
	}
	storeA.Insert(testNullifier(1)) // overlap must not duplicate

	require.NoError(t, nodeA.SyncWithPeer(serverB.URL))
	assert.Equal(t, 5, storeA.Len())
	for i := byte(1); i <= 5; i++ {
		assert.True(t, storeA.Contains(testNullifier(i)))
	}
}

func TestSyncConvergesWithVerifier(t *testing.T) {
	// A spend on replica A becomes visible to a verifier on replica B after
	// broadcast, closing the cross-replica double spend.
	domain := []byte("voile_mainnet")
	nodeA, storeA, _ := newTestNode(t, "A")
	_, storeB, serverB := newTestNode(t, "B")
	nodeA.Peers = map[string]string{"B": serverB.URL}

	note, err := voile.NewExitNote(1000, testNullifier(42), voile.TermsStandard{})
	require.NoError(t, err)
	proof, err := voile.NewProofGenerator(domain).Generate(note, testNullifier(123))
	require.NoError(t, err)

	verifierA := voile.NewProofVerifierWithStore(domain, storeA)
	require.NoError(t, verifierA.Spend(proof))
	nodeA.BroadcastNullifierUsed(proof.Nullifier())

	verifierB := voile.NewProofVerifierWithStore(domain, storeB)
	require.ErrorIs(t, verifierB.Verify(proof), voile.ErrProofVerification)
}

func TestMessageHandlerRejectsMalformed(t *testing.T) {
	_, store, server := newTestNode(t, "A")

	// Garbage body.
	resp, err := server.Client().Post(server.URL+messagePath, "application/json", nil)
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, 400, resp.StatusCode)

	assert.Equal(t, 0, store.Len())
}

package main

import (
	"bytes"
	"encoding/hex"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"voile/internal/voile"
)

func newTestServer(t *testing.T, domain string) (*Server, *httptest.Server) {
	t.Helper()
	verifier := voile.NewProofVerifier([]byte(domain))
	metrics := NewMetrics(func() float64 { return 0 })
	health := NewHealthChecker("test")
	limiter := NewClientRateLimiter(1000, 1000, time.Second)
	server := NewServer(zerolog.Nop(), verifier, metrics, health, limiter, nil)
	ts := httptest.NewServer(server.Handler())
	t.Cleanup(ts.Close)
	return server, ts
}

func generateTestProof(t *testing.T, domain string) *voile.ExitProof {
	t.Helper()
	var owner, secret [32]byte
	owner[0] = 42
	secret[0] = 123
	note, err := voile.NewExitNote(1000, owner, voile.TermsStandard{})
	require.NoError(t, err)
	proof, err := voile.NewProofGenerator([]byte(domain)).Generate(note, secret)
	require.NoError(t, err)
	return proof
}

func submitProof(t *testing.T, ts *httptest.Server, proofHex string, spend bool) (*http.Response, submitProofResponse) {
	t.Helper()
	body, err := json.Marshal(submitProofRequest{Proof: proofHex, Spend: spend})
	require.NoError(t, err)
	resp, err := ts.Client().Post(ts.URL+"/v1/proofs", "application/json", bytes.NewReader(body))
	require.NoError(t, err)
	defer resp.Body.Close()
	var out submitProofResponse
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&out))
	return resp, out
}

func TestSubmitValidProof(t *testing.T) {
	_, ts := newTestServer(t, "voile_mainnet")
	proof := generateTestProof(t, "voile_mainnet")

	resp, out := submitProof(t, ts, proof.ToHex(), false)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.True(t, out.Valid)
	assert.False(t, out.Spent)
	assert.Equal(t, proof.Commitment().Hex(), out.Commitment)
}

func TestSubmitAndSpend(t *testing.T) {
	_, ts := newTestServer(t, "voile_mainnet")
	proof := generateTestProof(t, "voile_mainnet")

	resp, out := submitProof(t, ts, proof.ToHex(), true)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.True(t, out.Spent)

	// Second submission is a double spend.
	resp, out = submitProof(t, ts, proof.ToHex(), false)
	assert.Equal(t, http.StatusUnprocessableEntity, resp.StatusCode)
	assert.Contains(t, out.Error, "Nullifier already used")
}

func TestSubmitCrossDomainProof(t *testing.T) {
	_, ts := newTestServer(t, "chain_1")
	proof := generateTestProof(t, "chain_2")

	resp, out := submitProof(t, ts, proof.ToHex(), false)
	assert.Equal(t, http.StatusUnprocessableEntity, resp.StatusCode)
	assert.False(t, out.Valid)
}

func TestSubmitMalformedProof(t *testing.T) {
	_, ts := newTestServer(t, "voile_mainnet")

	resp, out := submitProof(t, ts, "deadbeef", false)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	assert.NotEmpty(t, out.Error)
}

func TestNullifierStatusEndpoint(t *testing.T) {
	server, ts := newTestServer(t, "voile_mainnet")
	proof := generateTestProof(t, "voile_mainnet")
	nullifier := proof.Nullifier()

	resp, err := ts.Client().Get(ts.URL + "/v1/nullifiers/" + hexString(nullifier))
	require.NoError(t, err)
	var out nullifierStatusResponse
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&out))
	resp.Body.Close()
	assert.False(t, out.Used)

	server.verifier.MarkNullifierUsed(nullifier)

	resp, err = ts.Client().Get(ts.URL + "/v1/nullifiers/" + hexString(nullifier))
	require.NoError(t, err)
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&out))
	resp.Body.Close()
	assert.True(t, out.Used)
}

func TestNullifierStatusRejectsBadHex(t *testing.T) {
	_, ts := newTestServer(t, "voile_mainnet")

	resp, err := ts.Client().Get(ts.URL + "/v1/nullifiers/xyz")
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestHealthEndpoint(t *testing.T) {
	_, ts := newTestServer(t, "voile_mainnet")

	resp, err := ts.Client().Get(ts.URL + "/health")
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	var health SystemHealth
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&health))
	assert.Equal(t, Healthy, health.OverallStatus)
}

func TestRateLimiting(t *testing.T) {
	verifier := voile.NewProofVerifier([]byte("voile_mainnet"))
	metrics := NewMetrics(func() float64 { return 0 })
	health := NewHealthChecker("test")
	limiter := NewClientRateLimiter(2, 1, time.Hour)
	server := NewServer(zerolog.Nop(), verifier, metrics, health, limiter, nil)
	ts := httptest.NewServer(server.Handler())
	defer ts.Close()

	proof := generateTestProof(t, "voile_mainnet")
	body, _ := json.Marshal(submitProofRequest{Proof: proof.ToHex()})

	statuses := make([]int, 0, 3)
	for i := 0; i < 3; i++ {
		resp, err := ts.Client().Post(ts.URL+"/v1/proofs", "application/json", bytes.NewReader(body))
		require.NoError(t, err)
		resp.Body.Close()
		statuses = append(statuses, resp.StatusCode)
	}
	assert.Equal(t, []int{http.StatusOK, http.StatusOK, http.StatusTooManyRequests}, statuses)
}

func hexString(n [32]byte) string {
	return hex.EncodeToString(n[:])
}

// server.go - HTTP surface of the voiled verifier daemon.
//
// Endpoints:
//   POST /v1/proofs          submit a hex proof for verification, optionally spending it
//   GET  /v1/nullifiers/{hex} check whether a nullifier has been used
//   GET  /health             component health
//   GET  /metrics            prometheus metrics
package main

import (
	"encoding/hex"
	"encoding/json"
	"net"
	"net/http"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"voile/internal/voile"
	"voile/p2p"
)

// Server wires the proof verifier into HTTP.
type Server struct {
	log      zerolog.Logger
	verifier *voile.ProofVerifier
	metrics  *Metrics
	health   *HealthChecker
	limiter  *ClientRateLimiter
	node     *p2p.Node // nil when running without replica sync
}

// NewServer builds the daemon's HTTP server around a verifier.
func NewServer(log zerolog.Logger, verifier *voile.ProofVerifier, metrics *Metrics, health *HealthChecker, limiter *ClientRateLimiter, node *p2p.Node) *Server {
	return &Server{
		log:      log,
		verifier: verifier,
		metrics:  metrics,
		health:   health,
		limiter:  limiter,
		node:     node,
	}
}

// Handler returns the daemon's route table.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("POST /v1/proofs", s.rateLimited(s.handleSubmitProof))
	mux.HandleFunc("GET /v1/nullifiers/{hex}", s.rateLimited(s.handleNullifierStatus))
	mux.HandleFunc("GET /health", s.handleHealth)
	mux.Handle("GET /metrics", s.metrics.Handler())
	if s.node != nil {
		mux.Handle("/p2p/", s.node.Handler())
	}
	return mux
}

// submitProofRequest is the body of POST /v1/proofs.
type submitProofRequest struct {
	// Proof is the 320-hex-character serialized exit proof.
	Proof string `json:"proof"`
	// Spend marks the nullifier used atomically with verification. Without
	// it the caller must submit the spend separately once durable.
	Spend bool `json:"spend"`
}

// submitProofResponse is the body returned for POST /v1/proofs.
type submitProofResponse struct {
	Valid      bool   `json:"valid"`
	Spent      bool   `json:"spent"`
	Nullifier  string `json:"nullifier,omitempty"`
	Commitment string `json:"commitment,omitempty"`
	Error      string `json:"error,omitempty"`
}

func (s *Server) handleSubmitProof(w http.ResponseWriter, r *http.Request) {
	var req submitProofRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, submitProofResponse{Error: "invalid request body"})
		return
	}

	proof, err := voile.ExitProofFromHex(req.Proof)
	if err != nil {
		s.metrics.ProofsRejected.WithLabelValues("malformed").Inc()
		writeJSON(w, http.StatusBadRequest, submitProofResponse{Error: err.Error()})
		return
	}

	start := time.Now()
	if req.Spend {
		err = s.verifier.Spend(proof)
	} else {
		err = s.verifier.Verify(proof)
	}
	s.metrics.VerifyDuration.Observe(time.Since(start).Seconds())

	nullifier := proof.Nullifier()
	if err != nil {
		reason := "invalid"
		if strings.Contains(err.Error(), "Nullifier already used") {
			reason = "nullifier_used"
		}
		s.metrics.ProofsRejected.WithLabelValues(reason).Inc()
		s.log.Info().Err(err).Str("nullifier", hex.EncodeToString(nullifier[:])).Msg("proof rejected")
		writeJSON(w, http.StatusUnprocessableEntity, submitProofResponse{Error: err.Error()})
		return
	}

	s.metrics.ProofsVerified.Inc()
	if req.Spend {
		s.metrics.ProofsSpent.Inc()
		if s.node != nil {
			s.node.BroadcastNullifierUsed(nullifier)
		}
	}
	s.log.Info().
		Str("nullifier", hex.EncodeToString(nullifier[:])).
		Bool("spend", req.Spend).
		Msg("proof verified")

	writeJSON(w, http.StatusOK, submitProofResponse{
		Valid:      true,
		Spent:      req.Spend,
		Nullifier:  hex.EncodeToString(nullifier[:]),
		Commitment: proof.Commitment().Hex(),
	})
}

// nullifierStatusResponse is the body returned for GET /v1/nullifiers/{hex}.
type nullifierStatusResponse struct {
	Nullifier string `json:"nullifier"`
	Used      bool   `json:"used"`
	Error     string `json:"error,omitempty"`
}

func (s *Server) handleNullifierStatus(w http.ResponseWriter, r *http.Request) {
	raw := r.PathValue("hex")
	b, err := hex.DecodeString(raw)
	if err != nil || len(b) != 32 {
		writeJSON(w, http.StatusBadRequest, nullifierStatusResponse{Error: "nullifier must be 64 hex characters"})
		return
	}
	var nullifier [32]byte
	copy(nullifier[:], b)

	writeJSON(w, http.StatusOK, nullifierStatusResponse{
		Nullifier: raw,
		Used:      s.verifier.IsNullifierUsed(nullifier),
	})
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	health := s.health.CheckHealth()
	status := http.StatusOK
	if health.OverallStatus == Unhealthy {
		status = http.StatusServiceUnavailable
	}
	writeJSON(w, status, health)
}

// rateLimited applies the per-client token bucket before the handler runs.
func (s *Server) rateLimited(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		client, _, err := net.SplitHostPort(r.RemoteAddr)
		if err != nil {
			client = r.RemoteAddr
		}
		if !s.limiter.Allow(client) {
			s.metrics.RateLimited.Inc()
			http.Error(w, "rate limit exceeded", http.StatusTooManyRequests)
			return
		}
		next(w, r)
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	// Response is already committed; an encode failure has nowhere to go.
	_ = json.NewEncoder(w).Encode(v)
}

// main.go - voiled, the exit-proof verifier daemon.
//
// voiled accepts hex-encoded exit proofs over HTTP, verifies them against a
// configured proof domain, and tracks used nullifiers in a file-backed store
// so spends survive restarts. Optional peers receive every spent nullifier
// so replica sets converge.
//
// Usage:
//   voiled [-config voiled.json]
package main

import (
	"context"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"voile/internal/voile"
	"voile/p2p"
)

const version = "0.1.0"

func main() {
	configPath := flag.String("config", "voiled.json", "path to the daemon configuration file")
	flag.Parse()

	if err := run(*configPath); err != nil {
		fmt.Fprintf(os.Stderr, "voiled: %v\n", err)
		os.Exit(1)
	}
}

func run(configPath string) error {
	config, err := LoadConfig(configPath)
	if err != nil {
		return err
	}
	if err := config.Validate(); err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}

	logger, logCloser, err := NewLogger(config.LogLevel, config.LogFile)
	if err != nil {
		return err
	}
	if logCloser != nil {
		defer logCloser.Close()
	}
	logger.Info().Str("version", version).Str("domain", config.Domain).Msg("starting voiled")

	store, err := voile.NewFileNullifierStore(config.NullifierStorePath)
	if err != nil {
		return fmt.Errorf("opening nullifier store: %w", err)
	}
	verifier := voile.NewProofVerifierWithStore([]byte(config.Domain), store)

	var node *p2p.Node
	if len(config.PeerAddrs) > 0 {
		peers := make(map[string]string, len(config.PeerAddrs))
		for i, addr := range config.PeerAddrs {
			peers[fmt.Sprintf("peer%d", i)] = addr
		}
		node = p2p.NewNode(config.ListenAddr, peers, store, logger)
		for id, addr := range peers {
			if err := node.SyncWithPeer(addr); err != nil {
				logger.Warn().Err(err).Str("peer", id).Msg("initial sync failed")
			}
		}
	}

	metrics := NewMetrics(func() float64 { return float64(store.Len()) })

	health := NewHealthChecker(version)
	health.RegisterComponent("nullifier_store", func() error {
		_, err := os.Stat(config.NullifierStorePath)
		if os.IsNotExist(err) {
			return nil // nothing spent yet
		}
		return err
	})

	limiter := NewClientRateLimiter(config.RateLimitTokens, config.RateLimitRefill, time.Second)
	server := NewServer(logger, verifier, metrics, health, limiter, node)

	httpServer := &http.Server{
		Addr:         config.ListenAddr,
		Handler:      server.Handler(),
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info().Str("addr", config.ListenAddr).Msg("listening")
		if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errCh <- err
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)

	select {
	case err := <-errCh:
		return err
	case sig := <-stop:
		logger.Info().Str("signal", sig.String()).Msg("shutting down")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return httpServer.Shutdown(ctx)
}

// nullifier.go - Used-nullifier stores for the proof verifier.
//
// The verifier's in-process set is a cache; real deployments back it with
// storage that survives restarts and is consistent across replicas. The
// FileNullifierStore persists the set as a single JSON file, matching the
// ledger persistence used elsewhere in this codebase's lineage.

package voile

import (
	"encoding/hex"
	"encoding/json"
	"fmt"
	"os"
	"sync"
)

// NullifierStore is the capability the verifier needs from a used-nullifier
// set. Implementations shared across verifier replicas must make the
// Contains-then-Insert sequence atomic, or expose equivalent check-and-set
// semantics, to close the double-spend race.
type NullifierStore interface {
	// Contains reports whether the nullifier has been marked used.
	Contains(nullifier [32]byte) bool
	// Insert marks the nullifier used. Inserting twice is a no-op.
	Insert(nullifier [32]byte)
}

// MemoryNullifierStore is a mutex-guarded in-process nullifier set.
type MemoryNullifierStore struct {
	mu   sync.RWMutex
	used map[[32]byte]struct{}
}

// NewMemoryNullifierStore creates an empty in-memory store.
func NewMemoryNullifierStore() *MemoryNullifierStore {
	return &MemoryNullifierStore{used: make(map[[32]byte]struct{})}
}

// Contains reports whether the nullifier has been marked used.
func (s *MemoryNullifierStore) Contains(nullifier [32]byte) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	_, ok := s.used[nullifier]
	return ok
}

// Insert marks the nullifier used.
func (s *MemoryNullifierStore) Insert(nullifier [32]byte) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.used[nullifier] = struct{}{}
}

// Len returns the number of used nullifiers.
func (s *MemoryNullifierStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.used)
}

// Snapshot returns a copy of the used set, in no particular order.
func (s *MemoryNullifierStore) Snapshot() [][32]byte {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([][32]byte, 0, len(s.used))
	for n := range s.used {
		out = append(out, n)
	}
	return out
}

// FileNullifierStore is a nullifier set persisted as a JSON file of hex
// strings. Every Insert rewrites the file; suitable for single-node
// deployments where the set stays small.
type FileNullifierStore struct {
	mu   sync.Mutex
	path string
	used map[[32]byte]struct{}
}

// NewFileNullifierStore opens or creates the store at path. An existing
// file is loaded; a missing file starts the store empty.
func NewFileNullifierStore(path string) (*FileNullifierStore, error) {
	s := &FileNullifierStore{path: path, used: make(map[[32]byte]struct{})}
	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return s, nil
	}
	if err != nil {
		return nil, fmt.Errorf("reading nullifier store: %w", err)
	}
	var hexes []string
	if err := json.Unmarshal(data, &hexes); err != nil {
		return nil, fmt.Errorf("decoding nullifier store: %w", err)
	}
	for _, h := range hexes {
		b, err := hex.DecodeString(h)
		if err != nil || len(b) != 32 {
			return nil, fmt.Errorf("decoding nullifier store: bad entry %q", h)
		}
		var n [32]byte
		copy(n[:], b)
		s.used[n] = struct{}{}
	}
	return s, nil
}

// Contains reports whether the nullifier has been marked used.
func (s *FileNullifierStore) Contains(nullifier [32]byte) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, ok := s.used[nullifier]
	return ok
}

// Insert marks the nullifier used and rewrites the backing file. A write
// failure leaves the in-memory set updated; the next successful Insert
// persists the full set again.
func (s *FileNullifierStore) Insert(nullifier [32]byte) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.used[nullifier]; ok {
		return
	}
	s.used[nullifier] = struct{}{}
	s.saveLocked()
}

// Len returns the number of used nullifiers.
func (s *FileNullifierStore) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.used)
}

// Snapshot returns a copy of the used set, in no particular order.
func (s *FileNullifierStore) Snapshot() [][32]byte {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([][32]byte, 0, len(s.used))
	for n := range s.used {
		out = append(out, n)
	}
	return out
}

func (s *FileNullifierStore) saveLocked() {
	hexes := make([]string, 0, len(s.used))
	for n := range s.used {
		hexes = append(hexes, hex.EncodeToString(n[:]))
	}
	data, err := json.MarshalIndent(hexes, "", "  ")
	if err != nil {
		return
	}
	tmp := s.path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return
	}
	os.Rename(tmp, s.path)
}

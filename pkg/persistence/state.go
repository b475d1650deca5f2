package persistence

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"
)

// StateVersion is the current version of the state file format.
const StateVersion = 1

// GateState contains the persisted runtime state for a VIREL gate.
type GateState struct {
	// Version is the state file format version.
	Version int `json:"version"`

	// SavedAt is when the state was last saved.
	SavedAt time.Time `json:"saved_at"`

	// Mode is the committed external mode ("OPERATIONAL" or "SAFE_ON").
	Mode string `json:"mode"`

	// Epoch is the epoch counter at save time.
	Epoch uint64 `json:"epoch"`

	// Lamport is the Lamport counter within the saved epoch.
	Lamport uint64 `json:"lamport"`

	// Halted records whether the gate had exhausted its epoch range.
	Halted bool `json:"halted,omitempty"`
}

// GateStateStore manages persistence of gate state to a JSON file.
type GateStateStore struct {
	mu   sync.Mutex
	path string
}

// NewGateStateStore creates a new gate state store.
func NewGateStateStore(path string) *GateStateStore {
	return &GateStateStore{path: path}
}

// Save persists the gate state to disk.
func (s *GateStateStore) Save(state *GateState) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	// Ensure parent directory exists
	dir := filepath.Dir(s.path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return err
	}

	state.Version = StateVersion
	if state.SavedAt.IsZero() {
		state.SavedAt = time.Now()
	}

	data, err := json.MarshalIndent(state, "", "  ")
	if err != nil {
		return err
	}

	return os.WriteFile(s.path, data, 0644)
}

// Load reads the gate state from disk.
// Returns nil, nil if the file doesn't exist (empty state).
func (s *GateStateStore) Load() (*GateState, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	data, err := os.ReadFile(s.path)
	if os.IsNotExist(err) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	state := &GateState{}
	if err := json.Unmarshal(data, state); err != nil {
		return nil, err
	}
	if state.Version != StateVersion {
		return nil, fmt.Errorf("unsupported state file version %d", state.Version)
	}

	return state, nil
}

// Clear removes the state file.
func (s *GateStateStore) Clear() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	err := os.Remove(s.path)
	if os.IsNotExist(err) {
		return nil
	}
	return err
}

package internal

import (
	"encoding/json"
	"fmt"
	"sync"
)

// Persister is the durable substrate behind the Store.
//
// Load returns (nil, nil) when nothing has been stored yet. Both methods are
// best-effort from the store's point of view: any error degrades the store
// to in-memory state for that operation.
type Persister interface {
	Load() (*Snapshot, error)
	Save(snapshot *Snapshot) error
}

// Backend names accepted by OpenPersister
const (
	BackendSQLite = "sqlite"
	BackendFile   = "file"
	BackendMemory = "memory"
)

// MemoryPersister keeps the snapshot in memory as encoded JSON, so it
// behaves like the durable backends: saved data is copied, never aliased.
type MemoryPersister struct {
	mu      sync.Mutex
	values  map[string]string
	SaveErr error // returned by Save when set
	LoadErr error // returned by Load when set
}

// NewMemoryPersister creates an empty in-memory persister
func NewMemoryPersister() *MemoryPersister {
	return &MemoryPersister{values: make(map[string]string)}
}

// Load decodes the stored keys
func (m *MemoryPersister) Load() (*Snapshot, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.LoadErr != nil {
		return nil, &StorageError{Backend: BackendMemory, Op: "load", Err: m.LoadErr}
	}
	return decodeSnapshot(BackendMemory, m.values[KeySessions], m.values[KeyCurrentSessionID])
}

// Save encodes the snapshot into the two storage keys
func (m *MemoryPersister) Save(snapshot *Snapshot) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.SaveErr != nil {
		return &StorageError{Backend: BackendMemory, Op: "save", Err: m.SaveErr}
	}
	sessions, err := encodeSessions(snapshot)
	if err != nil {
		return &StorageError{Backend: BackendMemory, Op: "save", Err: err}
	}
	m.values[KeySessions] = sessions
	m.values[KeyCurrentSessionID] = snapshot.CurrentSessionID
	return nil
}

// Raw returns the raw value stored under key
func (m *MemoryPersister) Raw(key string) (string, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	v, ok := m.values[key]
	return v, ok
}

// SetRaw overwrites the raw value stored under key
func (m *MemoryPersister) SetRaw(key, value string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.values[key] = value
}

func encodeSessions(snapshot *Snapshot) (string, error) {
	sessions := snapshot.Sessions
	if sessions == nil {
		sessions = map[string]*Session{}
	}
	data, err := json.Marshal(sessions)
	if err != nil {
		return "", fmt.Errorf("failed to marshal sessions: %w", err)
	}
	return string(data), nil
}

// decodeSnapshot parses the raw key values. Empty input means nothing stored.
func decodeSnapshot(source, sessionsJSON, currentID string) (*Snapshot, error) {
	if sessionsJSON == "" && currentID == "" {
		return nil, nil
	}

	snapshot := NewSnapshot()
	snapshot.CurrentSessionID = currentID
	if sessionsJSON == "" {
		return snapshot, nil
	}

	if err := json.Unmarshal([]byte(sessionsJSON), &snapshot.Sessions); err != nil {
		return nil, &ParseError{Source: source, Key: KeySessions, Err: err}
	}
	if snapshot.Sessions == nil {
		snapshot.Sessions = make(map[string]*Session)
	}
	return snapshot, nil
}

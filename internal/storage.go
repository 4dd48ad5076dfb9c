package internal

import (
	"database/sql"
	"fmt"
)

// SQLitePersister stores the snapshot in the kv table, one row per key
type SQLitePersister struct {
	db *sql.DB
}

// NewSQLitePersister creates a persister on an open database
func NewSQLitePersister(db *sql.DB) *SQLitePersister {
	return &SQLitePersister{db: db}
}

// Load reads the sessions and currentSessionId keys
func (s *SQLitePersister) Load() (*Snapshot, error) {
	sessions, _, err := GetKV(s.db, KeySessions)
	if err != nil {
		return nil, &StorageError{Backend: BackendSQLite, Op: "load", Err: err}
	}
	currentID, _, err := GetKV(s.db, KeyCurrentSessionID)
	if err != nil {
		return nil, &StorageError{Backend: BackendSQLite, Op: "load", Err: err}
	}
	return decodeSnapshot(BackendSQLite, sessions, currentID)
}

// Save writes both keys in a single transaction
func (s *SQLitePersister) Save(snapshot *Snapshot) error {
	sessions, err := encodeSessions(snapshot)
	if err != nil {
		return &StorageError{Backend: BackendSQLite, Op: "save", Err: err}
	}

	tx, err := s.db.Begin()
	if err != nil {
		return &StorageError{Backend: BackendSQLite, Op: "save", Err: fmt.Errorf("begin failed: %w", err)}
	}
	defer func() { _ = tx.Rollback() }()

	upsert := "INSERT INTO kv (key, value) VALUES (?, ?) ON CONFLICT(key) DO UPDATE SET value = excluded.value"
	if _, err := tx.Exec(upsert, KeySessions, sessions); err != nil {
		return &StorageError{Backend: BackendSQLite, Op: "save", Err: err}
	}
	if _, err := tx.Exec(upsert, KeyCurrentSessionID, snapshot.CurrentSessionID); err != nil {
		return &StorageError{Backend: BackendSQLite, Op: "save", Err: err}
	}

	if err := tx.Commit(); err != nil {
		return &StorageError{Backend: BackendSQLite, Op: "save", Err: fmt.Errorf("commit failed: %w", err)}
	}
	return nil
}

// RawPairs returns every row of the kv table, for inspection
func (s *SQLitePersister) RawPairs() ([]KeyValuePair, error) {
	return QueryKV(s.db, "%")
}

package testutil

import (
	"database/sql"
	"os"
	"path/filepath"
	"testing"

	_ "modernc.org/sqlite"
)

// CreateSQLiteFixture creates a history database at dbPath holding the
// given sessions mapping and current session id
func CreateSQLiteFixture(t *testing.T, dbPath, sessionsJSON, currentID string) {
	t.Helper()
	if err := os.MkdirAll(filepath.Dir(dbPath), 0755); err != nil {
		t.Fatalf("Failed to create fixture directory: %v", err)
	}

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		t.Fatalf("Failed to open database: %v", err)
	}
	defer func() { _ = db.Close() }()

	if _, err := db.Exec(createKVTableSQL); err != nil {
		t.Fatalf("Failed to create table: %v", err)
	}
	InsertKV(t, db, "sessions", sessionsJSON)
	InsertKV(t, db, "currentSessionId", currentID)
}

// CreateFileStoreFixture writes sessions.json and state.yaml into dir
func CreateFileStoreFixture(t *testing.T, dir, sessionsJSON, currentID string) {
	t.Helper()
	if err := os.MkdirAll(dir, 0755); err != nil {
		t.Fatalf("Failed to create file store directory: %v", err)
	}
	if err := os.WriteFile(filepath.Join(dir, "sessions.json"), []byte(sessionsJSON), 0644); err != nil {
		t.Fatalf("Failed to write sessions.json: %v", err)
	}
	state := "current_session_id: " + currentID + "\nversion: \"1.0\"\n"
	if err := os.WriteFile(filepath.Join(dir, "state.yaml"), []byte(state), 0644); err != nil {
		t.Fatalf("Failed to write state.yaml: %v", err)
	}
}

// CreateUploadFixture writes a small file named name into dir and returns its path
func CreateUploadFixture(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatalf("Failed to write %s: %v", name, err)
	}
	return path
}

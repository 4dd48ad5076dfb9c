package testutil

import (
	"database/sql"
	"testing"

	_ "modernc.org/sqlite"
)

const createKVTableSQL = `
CREATE TABLE IF NOT EXISTS kv (
	key TEXT PRIMARY KEY,
	value TEXT
)`

// CreateInMemoryDB creates an in-memory SQLite database with the kv table
func CreateInMemoryDB(t *testing.T) *sql.DB {
	t.Helper()
	db, err := sql.Open("sqlite", ":memory:")
	if err != nil {
		t.Fatalf("Failed to create in-memory database: %v", err)
	}
	// every connection to ":memory:" is a new database
	db.SetMaxOpenConns(1)

	if _, err := db.Exec(createKVTableSQL); err != nil {
		db.Close()
		t.Fatalf("Failed to create kv table: %v", err)
	}
	t.Cleanup(func() { _ = db.Close() })

	return db
}

// CreateTestDB creates a test database holding two saved chats, the
// second of which is current
func CreateTestDB(t *testing.T) *sql.DB {
	t.Helper()
	db := CreateInMemoryDB(t)
	InsertKV(t, db, "sessions", SampleSessionsJSON)
	InsertKV(t, db, "currentSessionId", "session_2000_bbbbbbbbb")
	return db
}

// InsertKV inserts or replaces a key in the kv table
func InsertKV(t *testing.T, db *sql.DB, key, value string) {
	t.Helper()
	insertSQL := "INSERT INTO kv (key, value) VALUES (?, ?) ON CONFLICT(key) DO UPDATE SET value = excluded.value"
	if _, err := db.Exec(insertSQL, key, value); err != nil {
		t.Fatalf("Failed to insert %s: %v", key, err)
	}
}

// SampleSessionsJSON is a sessions mapping as the client stores it
const SampleSessionsJSON = `{
  "session_1000_aaaaaaaaa": {
    "id": "session_1000_aaaaaaaaa",
    "messages": [
      {"id": "m1", "role": "user", "content": "What is a tort?", "timestamp": "2024-03-10T10:00:00Z"},
      {"id": "m2", "role": "assistant", "content": "A civil wrong.", "timestamp": "2024-03-10T10:00:05Z"}
    ],
    "createdAt": "2024-03-10T10:00:00Z",
    "lastUpdatedAt": "2024-03-10T10:00:05Z",
    "preview": "What is a tort?",
    "messageCount": 2
  },
  "session_2000_bbbbbbbbb": {
    "id": "session_2000_bbbbbbbbb",
    "messages": [
      {"id": "m3", "role": "user", "content": "Summarize the case", "timestamp": "2024-03-10T11:00:00Z"},
      {"id": "m4", "role": "assistant", "content": "Server error: 500", "timestamp": "2024-03-10T11:00:02Z", "isError": true}
    ],
    "createdAt": "2024-03-10T11:00:00Z",
    "lastUpdatedAt": "2024-03-10T11:00:02Z",
    "preview": "Summarize the case",
    "messageCount": 2
  }
}`

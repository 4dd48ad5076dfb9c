package internal

import (
	"fmt"
	"time"
)

// Role identifies the author of a message
type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

// ParseRole parses a role name, accepting "bot" as an alias for assistant
func ParseRole(s string) (Role, error) {
	switch s {
	case "user":
		return RoleUser, nil
	case "assistant", "bot":
		return RoleAssistant, nil
	default:
		return "", &ValidationError{Field: "role", Reason: fmt.Sprintf("unknown role %q", s)}
	}
}

// Valid reports whether r is one of the known roles
func (r Role) Valid() bool {
	return r == RoleUser || r == RoleAssistant
}

// FileRef is an opaque reference to a file that was uploaded to the backend
type FileRef struct {
	ID   string `json:"id" yaml:"id"`
	Name string `json:"name" yaml:"name"`
	Size int64  `json:"size,omitempty" yaml:"size,omitempty"`
}

// LocalFile is a file picked on the local machine, not yet uploaded
type LocalFile struct {
	Path string
	Name string
	Size int64
}

// SessionSummary is the list view of a session
type SessionSummary struct {
	ID            string    `json:"id" yaml:"id"`
	Preview       string    `json:"preview" yaml:"preview"`
	MessageCount  int       `json:"messageCount" yaml:"message_count"`
	LastUpdatedAt time.Time `json:"lastUpdatedAt" yaml:"last_updated_at"`
	IsCurrent     bool      `json:"isCurrent" yaml:"is_current"`
}

// Snapshot is the durable representation of the store
type Snapshot struct {
	Sessions         map[string]*Session `json:"sessions"`
	CurrentSessionID string              `json:"currentSessionId"`
}

// NewSnapshot returns an empty snapshot
func NewSnapshot() *Snapshot {
	return &Snapshot{Sessions: make(map[string]*Session)}
}

// Durable storage keys, shared by every persister
const (
	KeySessions         = "sessions"
	KeyCurrentSessionID = "currentSessionId"
)

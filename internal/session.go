package internal

import (
	"time"
	"unicode/utf8"
)

const (
	// PreviewLength is the number of runes kept from the first user message
	PreviewLength = 50
	// PreviewPlaceholder is used when a session has no user message yet
	PreviewPlaceholder = "New chat"
)

// Session represents one conversation and its ordered message log
type Session struct {
	ID            string    `json:"id" yaml:"id"`
	Messages      []Message `json:"messages" yaml:"messages"`
	CreatedAt     time.Time `json:"createdAt" yaml:"created_at"`
	LastUpdatedAt time.Time `json:"lastUpdatedAt" yaml:"last_updated_at"`
	Preview       string    `json:"preview" yaml:"preview"`
	MessageCount  int       `json:"messageCount" yaml:"message_count"`
}

// Message represents a single turn in a conversation
type Message struct {
	ID          string    `json:"id,omitempty" yaml:"id,omitempty"`
	Role        Role      `json:"role" yaml:"role"`
	Content     string    `json:"content" yaml:"content"`
	Timestamp   time.Time `json:"timestamp" yaml:"timestamp"`
	Attachments []FileRef `json:"attachments,omitempty" yaml:"attachments,omitempty"`
	IsError     bool      `json:"isError,omitempty" yaml:"is_error,omitempty"`
}

// refresh recomputes the derived fields from the message log
func (s *Session) refresh() {
	s.MessageCount = len(s.Messages)
	s.Preview = derivePreview(s.Messages)
}

// Clone returns a deep copy of the session
func (s *Session) Clone() *Session {
	if s == nil {
		return nil
	}
	c := *s
	c.Messages = cloneMessages(s.Messages)
	return &c
}

// Summary returns the list view of the session
func (s *Session) Summary(currentID string) SessionSummary {
	return SessionSummary{
		ID:            s.ID,
		Preview:       s.Preview,
		MessageCount:  s.MessageCount,
		LastUpdatedAt: s.LastUpdatedAt,
		IsCurrent:     s.ID == currentID,
	}
}

// derivePreview returns the truncated first user message or the placeholder
func derivePreview(messages []Message) string {
	for _, msg := range messages {
		if msg.Role != RoleUser {
			continue
		}
		if msg.Content == "" && len(msg.Attachments) > 0 {
			return Truncate(msg.Attachments[0].Name, PreviewLength)
		}
		return Truncate(msg.Content, PreviewLength)
	}
	return PreviewPlaceholder
}

// Truncate cuts s to n runes, appending "..." when something was cut
func Truncate(s string, n int) string {
	if utf8.RuneCountInString(s) <= n {
		return s
	}
	runes := []rune(s)
	return string(runes[:n]) + "..."
}

func cloneMessages(messages []Message) []Message {
	if messages == nil {
		return nil
	}
	out := make([]Message, len(messages))
	for i, msg := range messages {
		out[i] = msg.clone()
	}
	return out
}

func (m Message) clone() Message {
	if m.Attachments != nil {
		m.Attachments = append([]FileRef(nil), m.Attachments...)
	}
	return m
}

package internal

import (
	"time"
)

// TestTime is the base timestamp used by the test helpers
var TestTime = time.Date(2024, 3, 10, 12, 0, 0, 0, time.UTC)

// CreateTestSession creates a test session with a user question and an assistant reply
func CreateTestSession(id string) *Session {
	return CreateTestSessionWithMessages(id, []Message{
		{
			ID:        id + "-m1",
			Role:      RoleUser,
			Content:   "Hello, how are you?",
			Timestamp: TestTime,
		},
		{
			ID:        id + "-m2",
			Role:      RoleAssistant,
			Content:   "I'm doing well, thank you!",
			Timestamp: TestTime.Add(time.Second),
		},
	})
}

// CreateTestSessionWithMessages creates a test session with custom messages,
// deriving preview, count and timestamps from them
func CreateTestSessionWithMessages(id string, messages []Message) *Session {
	s := &Session{
		ID:            id,
		Messages:      messages,
		CreatedAt:     TestTime,
		LastUpdatedAt: TestTime,
	}
	if len(messages) > 0 {
		s.CreatedAt = messages[0].Timestamp
		s.LastUpdatedAt = messages[len(messages)-1].Timestamp
	}
	s.refresh()
	return s
}

// CreateTestSnapshot builds a snapshot holding the given sessions
func CreateTestSnapshot(currentID string, sessions ...*Session) *Snapshot {
	snapshot := NewSnapshot()
	snapshot.CurrentSessionID = currentID
	for _, s := range sessions {
		snapshot.Sessions[s.ID] = s
	}
	return snapshot
}

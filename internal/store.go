package internal

import (
	"iter"
	"sort"
	"sync"
	"time"
)

// Store is the single source of truth for conversation state.
//
// It owns the sessions mapping and the current session, and writes the
// full snapshot back to its Persister after every mutation that changes
// persisted content. Persistence failures never undo an in-memory change;
// they are logged once and returned as *StorageError.
type Store struct {
	mu sync.Mutex

	persister   Persister
	renderer    Renderer
	now         func() time.Time
	newID       func() string
	newMsgID    func() string
	maxSessions int

	sessions map[string]*Session
	current  *Session

	warned  bool
	lastErr error
}

// StoreOption configures a Store
type StoreOption func(*Store)

// WithRenderer sets the renderer notified of display changes
func WithRenderer(r Renderer) StoreOption {
	return func(s *Store) {
		if r != nil {
			s.renderer = r
		}
	}
}

// WithClock overrides the time source
func WithClock(now func() time.Time) StoreOption {
	return func(s *Store) { s.now = now }
}

// WithIDGenerator overrides session id generation
func WithIDGenerator(gen func() string) StoreOption {
	return func(s *Store) { s.newID = gen }
}

// WithMaxSessions caps the number of retained sessions; 0 means unlimited.
// The oldest non-current sessions are evicted first.
func WithMaxSessions(n int) StoreOption {
	return func(s *Store) { s.maxSessions = n }
}

// NewStore creates a store backed by p. Call Initialize before use.
func NewStore(p Persister, opts ...StoreOption) *Store {
	s := &Store{
		persister: p,
		renderer:  NopRenderer{},
		now:       time.Now,
		newID:     NewSessionID,
		newMsgID:  NewMessageID,
		sessions:  make(map[string]*Session),
	}
	for _, opt := range opts {
		opt(s)
	}
	s.current = s.newTransient("")
	return s
}

// Initialize loads the durable state. It never fails: missing or corrupt
// storage falls back to an empty mapping and a fresh session.
func (s *Store) Initialize() {
	s.mu.Lock()

	snapshot, err := s.persister.Load()
	if err != nil {
		s.warnLocked(err)
		snapshot = nil
	}

	s.sessions = make(map[string]*Session)
	if snapshot != nil {
		for id, session := range snapshot.Sessions {
			if session == nil || len(session.Messages) == 0 {
				continue
			}
			session.ID = id
			session.refresh()
			if session.LastUpdatedAt.IsZero() {
				session.LastUpdatedAt = session.Messages[len(session.Messages)-1].Timestamp
			}
			if session.CreatedAt.IsZero() {
				session.CreatedAt = session.Messages[0].Timestamp
			}
			s.sessions[id] = session
		}
	}

	currentID := ""
	if snapshot != nil {
		currentID = snapshot.CurrentSessionID
	}
	switch existing, ok := s.sessions[currentID]; {
	case ok:
		s.current = existing
	case currentID != "" || len(s.current.Messages) > 0:
		s.current = s.newTransient(currentID)
	}

	LogDebug("Loaded %d session(s), current session %s", len(s.sessions), s.current.ID)
	messages := cloneMessages(s.current.Messages)
	summaries := s.summariesLocked()
	s.mu.Unlock()

	if len(messages) > 0 {
		s.renderer.OnHistoryReplaced(messages)
	} else {
		s.renderer.OnSessionCleared()
	}
	s.renderer.OnSessionListChanged(summaries)
}

// StartNewSession persists the current session if it has messages and
// switches to a fresh transient session.
func (s *Store) StartNewSession() error {
	s.mu.Lock()
	if len(s.current.Messages) > 0 {
		s.stageCurrentLocked()
	}
	s.current = s.newTransient("")
	err := s.persistLocked()
	summaries := s.summariesLocked()
	s.mu.Unlock()

	s.renderer.OnSessionCleared()
	s.renderer.OnSessionListChanged(summaries)
	return err
}

// AppendMessage appends a message to the current session and persists it.
// A non-nil error is either a *ValidationError (nothing changed) or a
// *StorageError (the message is appended but not durable).
func (s *Store) AppendMessage(role Role, content string, attachments []FileRef) (Message, error) {
	return s.append(role, content, attachments, false)
}

// AppendError appends an error-flagged assistant placeholder
func (s *Store) AppendError(content string) (Message, error) {
	return s.append(RoleAssistant, content, nil, true)
}

func (s *Store) append(role Role, content string, attachments []FileRef, isError bool) (Message, error) {
	if !role.Valid() {
		return Message{}, &ValidationError{Field: "role", Reason: "must be user or assistant"}
	}

	s.mu.Lock()
	ts := s.now()
	msgs := s.current.Messages
	if n := len(msgs); n > 0 && ts.Before(msgs[n-1].Timestamp) {
		ts = msgs[n-1].Timestamp
	}

	msg := Message{
		ID:        s.newMsgID(),
		Role:      role,
		Content:   content,
		Timestamp: ts,
		IsError:   isError,
	}
	if len(attachments) > 0 {
		msg.Attachments = append([]FileRef(nil), attachments...)
	}

	if len(msgs) == 0 {
		s.current.CreatedAt = ts
	}
	s.current.Messages = append(s.current.Messages, msg)
	s.current.LastUpdatedAt = ts
	s.current.refresh()

	err := s.persistLocked()
	summaries := s.summariesLocked()
	s.mu.Unlock()

	s.renderer.OnMessageAppended(msg.clone())
	s.renderer.OnSessionListChanged(summaries)
	return msg.clone(), err
}

// LoadSession makes the session with the given id current.
// It returns *NotFoundError, with no state change, for unknown ids.
func (s *Store) LoadSession(id string) error {
	s.mu.Lock()
	target, ok := s.sessions[id]
	if !ok {
		s.mu.Unlock()
		return &NotFoundError{SessionID: id}
	}

	if id != s.current.ID {
		if len(s.current.Messages) > 0 {
			s.stageCurrentLocked()
		}
		s.current = target
	}
	err := s.persistLocked()
	messages := cloneMessages(s.current.Messages)
	summaries := s.summariesLocked()
	s.mu.Unlock()

	s.renderer.OnHistoryReplaced(messages)
	s.renderer.OnSessionListChanged(summaries)
	return err
}

// DeleteSession removes a session. Unknown ids are ignored. Deleting the
// current session leaves the store on a fresh transient session.
func (s *Store) DeleteSession(id string) error {
	s.mu.Lock()
	if _, ok := s.sessions[id]; !ok {
		s.mu.Unlock()
		return nil
	}

	delete(s.sessions, id)
	wasCurrent := id == s.current.ID
	if wasCurrent {
		s.current = s.newTransient("")
	}
	err := s.persistLocked()
	summaries := s.summariesLocked()
	s.mu.Unlock()

	if wasCurrent {
		s.renderer.OnSessionCleared()
	}
	s.renderer.OnSessionListChanged(summaries)
	return err
}

// ListSessions returns session summaries ordered by last update, newest
// first. The sequence is computed when iterated and can be iterated again.
func (s *Store) ListSessions() iter.Seq[SessionSummary] {
	return func(yield func(SessionSummary) bool) {
		s.mu.Lock()
		summaries := s.summariesLocked()
		s.mu.Unlock()

		for _, summary := range summaries {
			if !yield(summary) {
				return
			}
		}
	}
}

// CurrentSessionID returns the id of the current session
func (s *Store) CurrentSessionID() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.current.ID
}

// Current returns a copy of the current session, which may be empty
func (s *Store) Current() *Session {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.current.Clone()
}

// Messages returns a copy of the current session's message log
func (s *Store) Messages() []Message {
	s.mu.Lock()
	defer s.mu.Unlock()
	return cloneMessages(s.current.Messages)
}

// Session returns a copy of the session with the given id
func (s *Store) Session(id string) (*Session, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if session, ok := s.sessions[id]; ok {
		return session.Clone(), nil
	}
	if id == s.current.ID {
		return s.current.Clone(), nil
	}
	return nil, &NotFoundError{SessionID: id}
}

// HasSession reports whether id names a stored session. The transient
// current session is not stored.
func (s *Store) HasSession(id string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, ok := s.sessions[id]
	return ok
}

// Sessions returns copies of all stored sessions, newest first
func (s *Store) Sessions() []*Session {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]*Session, 0, len(s.sessions))
	for _, summary := range s.summariesLocked() {
		out = append(out, s.sessions[summary.ID].Clone())
	}
	return out
}

// LastStorageError returns the most recent persistence failure, if any
func (s *Store) LastStorageError() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lastErr
}

func (s *Store) newTransient(id string) *Session {
	if id == "" {
		id = s.newID()
	}
	now := s.now()
	session := &Session{ID: id, CreatedAt: now, LastUpdatedAt: now}
	session.refresh()
	return session
}

// stageCurrentLocked writes the current session into the mapping
func (s *Store) stageCurrentLocked() {
	s.sessions[s.current.ID] = s.current
}

// persistLocked stages the current session when it has messages, applies
// the retention limit and saves the whole snapshot.
func (s *Store) persistLocked() error {
	if len(s.current.Messages) > 0 {
		s.stageCurrentLocked()
	}
	s.evictLocked()

	snapshot := &Snapshot{
		Sessions:         s.sessions,
		CurrentSessionID: s.current.ID,
	}
	if err := s.persister.Save(snapshot); err != nil {
		s.warnLocked(err)
		return err
	}
	s.lastErr = nil
	return nil
}

func (s *Store) evictLocked() {
	if s.maxSessions <= 0 || len(s.sessions) <= s.maxSessions {
		return
	}

	candidates := make([]*Session, 0, len(s.sessions))
	for id, session := range s.sessions {
		if id != s.current.ID {
			candidates = append(candidates, session)
		}
	}
	sort.Slice(candidates, func(i, j int) bool {
		if candidates[i].LastUpdatedAt.Equal(candidates[j].LastUpdatedAt) {
			return candidates[i].ID < candidates[j].ID
		}
		return candidates[i].LastUpdatedAt.Before(candidates[j].LastUpdatedAt)
	})

	for _, session := range candidates {
		if len(s.sessions) <= s.maxSessions {
			break
		}
		LogDebug("Evicting session %s (retention limit %d)", session.ID, s.maxSessions)
		delete(s.sessions, session.ID)
	}
}

// warnLocked records a storage failure, warning only on the first one
func (s *Store) warnLocked(err error) {
	s.lastErr = err
	if s.warned {
		LogDebug("Storage still unavailable: %v", err)
		return
	}
	s.warned = true
	LogWarn("Storage unavailable, continuing with in-memory state: %v", err)
}

func (s *Store) summariesLocked() []SessionSummary {
	summaries := make([]SessionSummary, 0, len(s.sessions))
	for _, session := range s.sessions {
		summaries = append(summaries, session.Summary(s.current.ID))
	}
	sort.Slice(summaries, func(i, j int) bool {
		if summaries[i].LastUpdatedAt.Equal(summaries[j].LastUpdatedAt) {
			return summaries[i].ID < summaries[j].ID
		}
		return summaries[i].LastUpdatedAt.After(summaries[j].LastUpdatedAt)
	})
	return summaries
}

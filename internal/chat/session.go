package chat

import (
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/vshankar/margazhi-planner/internal/schedule"
	"github.com/vshankar/margazhi-planner/pkg/logger"
)

// Message is one turn of a conversation.
type Message struct {
	Role    string    `json:"role"` // "user" or "assistant"
	Content string    `json:"content"`
	Time    time.Time `json:"time"`
}

// Session holds conversation state: history plus the previous result set
// that follow-up queries refine. The API serves concurrent queries on
// the same session, so the mutable state is guarded by the session's own
// mutex and reached through Remember/Recall/History.
type Session struct {
	ID         string
	CreatedAt  time.Time
	LastActive time.Time

	mu          sync.Mutex
	history     []Message
	lastResults []schedule.Concert
	lastFilter  schedule.Filter
}

// Remember stores the turn's result set and filter for follow-up
// refinement.
func (s *Session) Remember(concerts []schedule.Concert, filter schedule.Filter) {
	s.mu.Lock()
	s.lastResults = concerts
	s.lastFilter = filter
	s.mu.Unlock()
}

// Recall returns the previous turn's result set and filter.
func (s *Session) Recall() ([]schedule.Concert, schedule.Filter) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lastResults, s.lastFilter
}

// History returns a copy of the conversation so far.
func (s *Session) History() []Message {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]Message(nil), s.history...)
}

func (s *Session) record(role, content string, depth int) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.history = append(s.history, Message{
		Role:    role,
		Content: content,
		Time:    time.Now(),
	})
	if len(s.history) > depth {
		s.history = s.history[len(s.history)-depth:]
	}
}

func (s *Session) clear() {
	s.mu.Lock()
	s.history = nil
	s.lastResults = nil
	s.lastFilter = schedule.Filter{}
	s.mu.Unlock()
}

// SessionManager tracks chat sessions and expires idle ones.
type SessionManager struct {
	mu           sync.RWMutex
	sessions     map[string]*Session
	ttl          time.Duration
	historyDepth int
	logger       *logger.Logger
}

// NewSessionManager creates a session manager. Sessions idle longer than
// ttl are dropped on the next sweep.
func NewSessionManager(ttl time.Duration, historyDepth int, log *logger.Logger) *SessionManager {
	if historyDepth <= 0 {
		historyDepth = 10
	}
	return &SessionManager{
		sessions:     make(map[string]*Session),
		ttl:          ttl,
		historyDepth: historyDepth,
		logger:       log.Named("sessions"),
	}
}

// Create starts a new session.
func (m *SessionManager) Create() *Session {
	now := time.Now()
	session := &Session{
		ID:         uuid.New().String(),
		CreatedAt:  now,
		LastActive: now,
	}

	m.mu.Lock()
	m.sessions[session.ID] = session
	m.mu.Unlock()

	m.logger.Debug("Session created", logger.String("session_id", session.ID))
	return session
}

// Get returns the session with the given ID, refreshing its activity
// timestamp.
func (m *SessionManager) Get(id string) (*Session, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()

	session, ok := m.sessions[id]
	if !ok {
		return nil, false
	}
	if m.ttl > 0 && time.Since(session.LastActive) > m.ttl {
		delete(m.sessions, id)
		return nil, false
	}
	session.LastActive = time.Now()
	return session, true
}

// Delete removes a session.
func (m *SessionManager) Delete(id string) {
	m.mu.Lock()
	delete(m.sessions, id)
	m.mu.Unlock()
}

// Reset clears a session's history and remembered results but keeps the
// session alive.
func (m *SessionManager) Reset(id string) bool {
	m.mu.RLock()
	session, ok := m.sessions[id]
	m.mu.RUnlock()
	if !ok {
		return false
	}
	session.clear()
	return true
}

// Sweep drops expired sessions. Returns how many were removed.
func (m *SessionManager) Sweep() int {
	if m.ttl <= 0 {
		return 0
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	removed := 0
	cutoff := time.Now().Add(-m.ttl)
	for id, session := range m.sessions {
		if session.LastActive.Before(cutoff) {
			delete(m.sessions, id)
			removed++
		}
	}
	if removed > 0 {
		m.logger.Debug("Swept expired sessions", logger.Int("removed", removed))
	}
	return removed
}

// record appends a conversation turn, trimming history to depth.
func (m *SessionManager) record(session *Session, role, content string) {
	session.record(role, content, m.historyDepth)
}

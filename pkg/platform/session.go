package platform

import (
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/verai-labs/verai/pkg/errors"
)

// SessionType distinguishes what a session is for.
type SessionType string

const (
	SessionStandard   SessionType = "standard"
	SessionTraining   SessionType = "training"
	SessionDebugging  SessionType = "debugging"
	SessionEvaluation SessionType = "evaluation"
)

// SessionState is a session's lifecycle state.
type SessionState string

const (
	SessionInitializing SessionState = "initializing"
	SessionActive       SessionState = "active"
	SessionEnded        SessionState = "ended"
)

const defaultMaxSessionsPerAgent = 5

// Session is one agent's working session on the platform.
type Session struct {
	ID        string         `json:"id"`
	AgentID   string         `json:"agent_id"`
	Type      SessionType    `json:"type"`
	Config    map[string]any `json:"config,omitempty"`
	StartTime time.Time      `json:"start_time"`
	EndTime   time.Time      `json:"end_time,omitempty"`
	State     SessionState   `json:"state"`
}

// SessionManager creates and tracks sessions with a per-agent cap.
type SessionManager struct {
	mu          sync.Mutex
	maxPerAgent int
	sessions    map[string]*Session
	now         func() time.Time
}

// NewSessionManager creates a session manager. maxPerAgent <= 0 uses the
// default cap.
func NewSessionManager(maxPerAgent int) *SessionManager {
	if maxPerAgent <= 0 {
		maxPerAgent = defaultMaxSessionsPerAgent
	}
	return &SessionManager{
		maxPerAgent: maxPerAgent,
		sessions:    make(map[string]*Session),
		now:         time.Now,
	}
}

func validSessionType(t SessionType) bool {
	switch t {
	case SessionStandard, SessionTraining, SessionDebugging, SessionEvaluation:
		return true
	}
	return false
}

// Create opens a new session for an agent.
func (m *SessionManager) Create(agentID string, sessionType SessionType, config map[string]any) (Session, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if agentID == "" {
		return Session{}, errors.New(errors.CodeInvalidInput, "agent id required", nil)
	}
	if !validSessionType(sessionType) {
		return Session{}, errors.New(errors.CodeInvalidInput, "unknown session type", nil).
			WithContext("session_type", string(sessionType))
	}
	active := 0
	for _, s := range m.sessions {
		if s.AgentID == agentID && s.State != SessionEnded {
			active++
		}
	}
	if active >= m.maxPerAgent {
		return Session{}, errors.New(errors.CodeCapacity, "session limit reached for agent", nil).
			WithContext("agent_id", agentID).
			WithContext("max_sessions", m.maxPerAgent)
	}

	s := &Session{
		ID:        uuid.NewString(),
		AgentID:   agentID,
		Type:      sessionType,
		Config:    config,
		StartTime: m.now(),
		State:     SessionInitializing,
	}
	m.sessions[s.ID] = s
	return *s, nil
}

// Activate moves a session from initializing to active.
func (m *SessionManager) Activate(id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	s, ok := m.sessions[id]
	if !ok {
		return errors.New(errors.CodeNotFound, "session not found", nil).
			WithContext("session_id", id)
	}
	if s.State != SessionInitializing {
		return errors.New(errors.CodeInvalidState, "session not initializing", nil).
			WithContext("state", string(s.State))
	}
	s.State = SessionActive
	return nil
}

// Terminate ends a session and returns its final record.
func (m *SessionManager) Terminate(id string) (Session, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	s, ok := m.sessions[id]
	if !ok {
		return Session{}, errors.New(errors.CodeNotFound, "session not found", nil).
			WithContext("session_id", id)
	}
	if s.State == SessionEnded {
		return Session{}, errors.New(errors.CodeInvalidState, "session already ended", nil).
			WithContext("session_id", id)
	}
	s.State = SessionEnded
	s.EndTime = m.now()
	return *s, nil
}

// Get returns one session.
func (m *SessionManager) Get(id string) (Session, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	s, ok := m.sessions[id]
	if !ok {
		return Session{}, errors.New(errors.CodeNotFound, "session not found", nil).
			WithContext("session_id", id)
	}
	return *s, nil
}

// ForAgent returns all sessions belonging to one agent.
func (m *SessionManager) ForAgent(agentID string) []Session {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []Session
	for _, s := range m.sessions {
		if s.AgentID == agentID {
			out = append(out, *s)
		}
	}
	return out
}

// ActiveCount returns how many sessions have not ended.
func (m *SessionManager) ActiveCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	n := 0
	for _, s := range m.sessions {
		if s.State != SessionEnded {
			n++
		}
	}
	return n
}

package relay

import (
	"sync"
	"time"

	"github.com/google/uuid"
)

// SessionState is the placeholder voice session state.
type SessionState int

const (
	SessionIdle SessionState = iota
	SessionActive
)

func (s SessionState) String() string {
	switch s {
	case SessionActive:
		return "active"
	default:
		return "idle"
	}
}

// SessionInfo is a snapshot of the voice session.
type SessionInfo struct {
	State     SessionState `json:"-"`
	StateName string       `json:"state"`
	ID        string       `json:"id,omitempty"`
	StartedAt string       `json:"startedAt,omitempty"`
}

// voiceSession tracks Idle/Active. Transitions never fail: starting an
// active session keeps it, stopping an idle one is a no-op.
type voiceSession struct {
	mu        sync.Mutex
	state     SessionState
	id        string
	startedAt time.Time
}

func (s *voiceSession) start(now time.Time) (id string, fresh bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.state == SessionActive {
		return s.id, false
	}
	s.state = SessionActive
	s.id = uuid.NewString()
	s.startedAt = now
	return s.id, true
}

func (s *voiceSession) stop() (id string, wasActive bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.state != SessionActive {
		return "", false
	}
	id = s.id
	s.state = SessionIdle
	s.id = ""
	s.startedAt = time.Time{}
	return id, true
}

func (s *voiceSession) snapshot() SessionInfo {
	s.mu.Lock()
	defer s.mu.Unlock()
	info := SessionInfo{State: s.state, StateName: s.state.String(), ID: s.id}
	if !s.startedAt.IsZero() {
		info.StartedAt = s.startedAt.UTC().Format(time.RFC3339)
	}
	return info
}

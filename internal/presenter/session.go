package presenter

import (
	"errors"
	"strings"
	"sync"
	"sync/atomic"
	"time"
)

// ErrCycleActive is returned when a session already runs a cycle
var ErrCycleActive = errors.New("a poem is already being generated for this session")

// Session owns the reveal state of one user.
// Only one cycle at a time may drive it; readers may snapshot it at any time.
type Session struct {
	ID string

	cycle  sync.Mutex
	active atomic.Bool

	mu          sync.RWMutex
	accumulated strings.Builder
	lines       []string
	state       State
	updatedAt   time.Time
}

// Snapshot is a read-only copy of a session's reveal state
type Snapshot struct {
	ID        string    `json:"session_id"`
	State     State     `json:"state"`
	Text      string    `json:"text"`
	Lines     []string  `json:"lines"`
	UpdatedAt time.Time `json:"updated_at"`
}

func NewSession(id string) *Session {
	return &Session{ID: id, state: StateIdle, updatedAt: time.Now()}
}

// Snapshot copies the current state
func (s *Session) Snapshot() Snapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()

	lines := make([]string, len(s.lines))
	copy(lines, s.lines)
	return Snapshot{
		ID:        s.ID,
		State:     s.state,
		Text:      s.accumulated.String(),
		Lines:     lines,
		UpdatedAt: s.updatedAt,
	}
}

// State returns the state of the latest cycle
func (s *Session) State() State {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.state
}

// Text returns the accumulated reveal text
func (s *Session) Text() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.accumulated.String()
}

// Active reports whether a cycle is currently driving the session
func (s *Session) Active() bool {
	return s.active.Load()
}

func (s *Session) begin() bool {
	if !s.cycle.TryLock() {
		return false
	}
	s.active.Store(true)
	return true
}

func (s *Session) end() {
	s.active.Store(false)
	s.cycle.Unlock()
}

func (s *Session) setState(state State) State {
	s.mu.Lock()
	defer s.mu.Unlock()
	prev := s.state
	s.state = state
	s.updatedAt = time.Now()
	return prev
}

func (s *Session) reset() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.accumulated.Reset()
	s.lines = nil
	s.updatedAt = time.Now()
}

// appendLine adds one line plus terminator and returns the whole block
func (s *Session) appendLine(line string) string {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.accumulated.WriteString(line)
	s.accumulated.WriteString("\n")
	s.lines = append(s.lines, line)
	s.updatedAt = time.Now()
	return s.accumulated.String()
}

// SplitLines returns the trimmed, non-empty lines of text in order.
// Blank lines, including paragraph breaks, are always discarded.
func SplitLines(text string) []string {
	raw := strings.Split(text, "\n")
	lines := make([]string, 0, len(raw))
	for _, l := range raw {
		if trimmed := strings.TrimSpace(l); trimmed != "" {
			lines = append(lines, trimmed)
		}
	}
	return lines
}

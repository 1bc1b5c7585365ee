package core

import (
	"sort"
	"time"
)

// StreamState is the lifecycle state of a controller
type StreamState string

const (
	StateIdle      StreamState = "idle"
	StateStreaming StreamState = "streaming"
	StateStopped   StreamState = "stopped"
	StateCompleted StreamState = "completed"
)

// StreamSession tracks one playback run. It is owned by a single Controller
// and must only be touched while holding the controller's lock.
type StreamSession struct {
	ID        string
	Position  int
	Running   bool
	Total     int
	StartedAt time.Time
	Expanded  map[int]bool
	Scored    map[int]ScoredMessage
}

func newStreamSession(id string, total int, now time.Time) *StreamSession {
	return &StreamSession{
		ID:        id,
		Total:     total,
		StartedAt: now,
		Expanded:  make(map[int]bool),
		Scored:    make(map[int]ScoredMessage),
	}
}

// record stores a freshly scored message, collapsed
func (s *StreamSession) record(msg ScoredMessage) {
	s.Scored[msg.Index] = msg
	if _, ok := s.Expanded[msg.Index]; !ok {
		s.Expanded[msg.Index] = false
	}
	s.Position = msg.Index + 1
}

func (s *StreamSession) setExpanded(index int, expanded bool) (ScoredMessage, error) {
	msg, ok := s.Scored[index]
	if !ok {
		return ScoredMessage{}, ErrUnknownMessage
	}
	s.Expanded[index] = expanded
	return msg, nil
}

// indexes returns the emitted keys in stream order
func (s *StreamSession) indexes() []int {
	keys := make([]int, 0, len(s.Scored))
	for k := range s.Scored {
		keys = append(keys, k)
	}
	sort.Ints(keys)
	return keys
}

// SessionSnapshot is a read-only copy of a session for page reloads
type SessionSnapshot struct {
	ID        string        `json:"session_id"`
	State     StreamState   `json:"state"`
	Running   bool          `json:"running"`
	Position  int           `json:"position"`
	Total     int           `json:"total"`
	Threshold float64       `json:"threshold"`
	DelayMS   int64         `json:"delay_ms"`
	StartedAt time.Time     `json:"started_at,omitempty"`
	Messages  []MessageView `json:"messages"`
}

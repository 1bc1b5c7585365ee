package core

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"golang.org/x/text/cases"
)

// Label is the known ground-truth class of a message record
type Label int

const (
	// LabelHam marks a legitimate message
	LabelHam Label = iota
	// LabelSpam marks an unsolicited or malicious message
	LabelSpam
)

var labelFolder = cases.Fold()

// String returns the textual form of the label
func (l Label) String() string {
	if l == LabelSpam {
		return "spam"
	}
	return "ham"
}

// MarshalText implements encoding.TextMarshaler
func (l Label) MarshalText() ([]byte, error) {
	return []byte(l.String()), nil
}

// ParseLabel converts a dataset label into a Label.
// Accepts "spam"/"ham" in any case and the numeric forms 1/0.
func ParseLabel(raw string) (Label, error) {
	value := strings.TrimSpace(raw)
	switch labelFolder.String(value) {
	case "spam":
		return LabelSpam, nil
	case "ham":
		return LabelHam, nil
	}

	n, err := strconv.ParseFloat(value, 64)
	if err != nil {
		return LabelHam, fmt.Errorf("unrecognized label %q", raw)
	}
	switch n {
	case 1:
		return LabelSpam, nil
	case 0:
		return LabelHam, nil
	default:
		return LabelHam, fmt.Errorf("unrecognized numeric label %q", raw)
	}
}

// MessageRecord represents one email of the dataset. It is never mutated after loading.
type MessageRecord struct {
	Sender  string
	Subject string
	Body    string
	Label   Label
}

// ScoredMessage is a record together with its spam score and verdict
type ScoredMessage struct {
	Index     int
	Record    MessageRecord
	SpamScore float64
	IsSpam    bool
	ScoredAt  time.Time
}

// MessageView is the presentation form of a scored message
type MessageView struct {
	Index     int     `json:"index"`
	Sender    string  `json:"sender"`
	Subject   string  `json:"subject"`
	Body      string  `json:"body"`
	SpamScore float64 `json:"spam_score"`
	IsSpam    bool    `json:"is_spam"`
	Expanded  bool    `json:"expanded"`
}

// EventType identifies the kind of stream event
type EventType string

const (
	EventMessage   EventType = "message"
	EventUpdated   EventType = "updated"
	EventStopped   EventType = "stopped"
	EventCompleted EventType = "completed"
	EventError     EventType = "error"
)

// Event is delivered to the presentation layer
type Event struct {
	Type      EventType    `json:"type"`
	SessionID string       `json:"session_id"`
	Message   *MessageView `json:"message,omitempty"`
	Notice    string       `json:"notice,omitempty"`
	Emitted   int          `json:"emitted"`
	Total     int          `json:"total"`
}

// Terminal reports whether the event ends a run
func (e Event) Terminal() bool {
	return e.Type == EventStopped || e.Type == EventCompleted || e.Type == EventError
}

package core

import (
	"context"
)

// Loader supplies the ordered dataset of message records
type Loader interface {
	// Load returns all records in stream order
	Load(ctx context.Context) ([]MessageRecord, error)

	// Source describes where records come from, for logs and errors
	Source() string
}

// Scorer assigns a spam score in [0, 1] to a record
type Scorer interface {
	// Score must not have side effects beyond consuming randomness
	Score(record MessageRecord) float64
}

// BodyRenderer turns a message body into its display forms
type BodyRenderer interface {
	Preview(body string) string
	Full(body string) string
}

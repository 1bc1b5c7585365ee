package core

import (
	"errors"
	"fmt"
)

var (
	// ErrAlreadyRunning is returned when a stream is started on a busy session
	ErrAlreadyRunning = errors.New("stream already running")
	// ErrNotRunning is returned when stopping an idle stream
	ErrNotRunning = errors.New("stream not running")
	// ErrUnknownMessage is returned for keys that have not been emitted yet
	ErrUnknownMessage = errors.New("message not emitted in this session")
	// ErrSessionNotFound is returned when a session id is unknown or expired
	ErrSessionNotFound = errors.New("session not found")
)

// ConfigurationError reports an invalid configuration value. Streaming never starts with one.
type ConfigurationError struct {
	Field  string
	Value  interface{}
	Reason string
}

func (e *ConfigurationError) Error() string {
	return fmt.Sprintf("invalid configuration %s=%v: %s", e.Field, e.Value, e.Reason)
}

// LoaderError wraps a failure of the dataset loader
type LoaderError struct {
	Source string
	// Row is the 1-based data row that failed, 0 when not row specific
	Row int
	Err error
}

func (e *LoaderError) Error() string {
	if e.Row > 0 {
		return fmt.Sprintf("failed to load dataset %s (row %d): %v", e.Source, e.Row, e.Err)
	}
	return fmt.Sprintf("failed to load dataset %s: %v", e.Source, e.Err)
}

func (e *LoaderError) Unwrap() error {
	return e.Err
}

// IsConfigurationError reports whether err is or wraps a ConfigurationError
func IsConfigurationError(err error) bool {
	var cfgErr *ConfigurationError
	return errors.As(err, &cfgErr)
}

// IsLoaderError reports whether err is or wraps a LoaderError
func IsLoaderError(err error) bool {
	var loadErr *LoaderError
	return errors.As(err, &loadErr)
}

package core

import (
	"math"
	"time"
)

const (
	// DefaultThreshold is the score from which a message counts as spam
	DefaultThreshold = 0.7
	// DefaultDelay is the pause between two emitted messages
	DefaultDelay = 2 * time.Second
	MinDelay     = 1 * time.Second
	MaxDelay     = 5 * time.Second
)

// Classify applies the threshold. Ties classify as spam.
func Classify(score, threshold float64) bool {
	return score >= threshold
}

// ValidateThreshold checks that a threshold lies in [0, 1]
func ValidateThreshold(threshold float64) error {
	if math.IsNaN(threshold) || threshold < 0 || threshold > 1 {
		return &ConfigurationError{Field: "threshold", Value: threshold, Reason: "must be within [0.0, 1.0]"}
	}
	return nil
}

// ValidateDelay checks that a pacing delay lies within the allowed bounds
func ValidateDelay(delay time.Duration) error {
	if delay < MinDelay || delay > MaxDelay {
		return &ConfigurationError{
			Field:  "delay",
			Value:  delay,
			Reason: "must be between " + MinDelay.String() + " and " + MaxDelay.String(),
		}
	}
	return nil
}

// StreamSettings holds the validated knobs of a stream
type StreamSettings struct {
	Threshold float64
	Delay     time.Duration
}

// DefaultStreamSettings returns the settings used when nothing is configured
func DefaultStreamSettings() StreamSettings {
	return StreamSettings{Threshold: DefaultThreshold, Delay: DefaultDelay}
}

// Validate returns a ConfigurationError when a setting is out of range
func (s StreamSettings) Validate() error {
	if err := ValidateThreshold(s.Threshold); err != nil {
		return err
	}
	return ValidateDelay(s.Delay)
}

package config

import (
	"time"

	"github.com/mikey/spam-stream/internal/core"
)

// StreamConfig represents the pacing and threshold configuration
type StreamConfig struct {
	Threshold    float64
	DelaySeconds int
}

// Settings converts the configuration into validated stream settings
func (s StreamConfig) Settings() (core.StreamSettings, error) {
	settings := core.StreamSettings{
		Threshold: s.Threshold,
		Delay:     time.Duration(s.DelaySeconds) * time.Second,
	}
	if err := settings.Validate(); err != nil {
		return core.StreamSettings{}, err
	}
	return settings, nil
}

// ScorerConfig represents the scorer configuration
type ScorerConfig struct {
	Type string
	Seed int64
}

// DatasetConfig represents where message records are loaded from
type DatasetConfig struct {
	Type       string
	CSVPath    string
	SQLitePath string
	MySQLDSN   string
	Table      string
	Limit      int
}

// ServerConfig represents the presentation layer configuration
type ServerConfig struct {
	Presenter     string
	ListenAddress string
}

// SessionConfig represents the session registry configuration
type SessionConfig struct {
	TTL              time.Duration
	CleanupFrequency time.Duration
}

// LoggingConfig represents the logger configuration
type LoggingConfig struct {
	Level      string
	Format     string
	File       string
	MaxSizeMB  int
	MaxBackups int
	MaxAgeDays int
}

// GetStream returns the stream configuration
func (c *Config) GetStream() StreamConfig {
	return StreamConfig{
		Threshold:    c.GetFloat64("stream.threshold"),
		DelaySeconds: c.GetInt("stream.delay_seconds"),
	}
}

// GetScorer returns the scorer configuration
func (c *Config) GetScorer() ScorerConfig {
	return ScorerConfig{
		Type: c.GetString("scorer.type"),
		Seed: c.GetInt64("scorer.seed"),
	}
}

// GetDataset returns the dataset configuration
func (c *Config) GetDataset() DatasetConfig {
	return DatasetConfig{
		Type:       c.GetString("dataset.type"),
		CSVPath:    c.GetString("dataset.csv_path"),
		SQLitePath: c.GetString("dataset.sqlite_path"),
		MySQLDSN:   c.GetString("dataset.mysql_dsn"),
		Table:      c.GetString("dataset.table"),
		Limit:      c.GetInt("dataset.limit"),
	}
}

// GetServer returns the server configuration
func (c *Config) GetServer() ServerConfig {
	return ServerConfig{
		Presenter:     c.GetString("server.presenter"),
		ListenAddress: c.GetString("server.listen_address"),
	}
}

// GetSessions returns the session registry configuration
func (c *Config) GetSessions() (SessionConfig, error) {
	ttl, err := c.GetDuration("sessions.ttl")
	if err != nil {
		return SessionConfig{}, &core.ConfigurationError{Field: "sessions.ttl", Value: c.GetString("sessions.ttl"), Reason: err.Error()}
	}
	cleanup, err := c.GetDuration("sessions.cleanup_frequency")
	if err != nil {
		return SessionConfig{}, &core.ConfigurationError{Field: "sessions.cleanup_frequency", Value: c.GetString("sessions.cleanup_frequency"), Reason: err.Error()}
	}
	return SessionConfig{TTL: ttl, CleanupFrequency: cleanup}, nil
}

// GetLogging returns the logging configuration
func (c *Config) GetLogging() LoggingConfig {
	return LoggingConfig{
		Level:      c.GetString("logging.level"),
		Format:     c.GetString("logging.format"),
		File:       c.GetString("logging.file"),
		MaxSizeMB:  c.GetInt("logging.max_size_mb"),
		MaxBackups: c.GetInt("logging.max_backups"),
		MaxAgeDays: c.GetInt("logging.max_age_days"),
	}
}

package factory

import (
	"github.com/mikey/spam-stream/internal/adapters/cache"
	"github.com/mikey/spam-stream/internal/config"
	"go.uber.org/zap"
)

// CacheFactory creates the session registry based on configuration
type CacheFactory struct {
	cfg    *config.Config
	logger *zap.Logger
}

// NewCacheFactory creates a new cache factory
func NewCacheFactory(cfg *config.Config, logger *zap.Logger) *CacheFactory {
	return &CacheFactory{
		cfg:    cfg,
		logger: logger,
	}
}

// CreateSessionCache creates the session registry with the configured TTL
func (f *CacheFactory) CreateSessionCache() (*cache.SessionCache, error) {
	sessionCfg, err := f.cfg.GetSessions()
	if err != nil {
		return nil, err
	}

	f.logger.Debug("Creating session cache",
		zap.Duration("ttl", sessionCfg.TTL),
		zap.Duration("cleanup_frequency", sessionCfg.CleanupFrequency))
	return cache.NewSessionCache(sessionCfg.TTL, sessionCfg.CleanupFrequency, f.logger), nil
}

package cache

import (
	"errors"
	"time"

	"github.com/mikey/spam-stream/internal/core"
	gocache "github.com/patrickmn/go-cache"
	"go.uber.org/zap"
)

// SessionCache keeps stream controllers by session id and stops their streams when they expire
type SessionCache struct {
	cache  *gocache.Cache
	logger *zap.Logger
}

// NewSessionCache creates a session registry with the given idle TTL and cleanup frequency
func NewSessionCache(ttl, cleanupFreq time.Duration, logger *zap.Logger) *SessionCache {
	c := &SessionCache{
		cache:  gocache.New(ttl, cleanupFreq),
		logger: logger,
	}
	c.cache.OnEvicted(c.evicted)
	return c
}

// Set stores a controller under its session id
func (c *SessionCache) Set(ctrl *core.Controller) {
	c.cache.Set(ctrl.ID(), ctrl, gocache.DefaultExpiration)
}

// Get retrieves a controller and extends its lifetime.
// The entry is refreshed under the controller's own id, never the caller's string.
func (c *SessionCache) Get(sessionID string) (*core.Controller, error) {
	item, found := c.cache.Get(sessionID)
	if !found {
		return nil, core.ErrSessionNotFound
	}
	ctrl := item.(*core.Controller)
	// Replace fails if the janitor evicted the entry in the meantime
	if err := c.cache.Replace(ctrl.ID(), ctrl, gocache.DefaultExpiration); err != nil {
		return nil, core.ErrSessionNotFound
	}
	return ctrl, nil
}

// Touch extends the lifetime of a session without returning it
func (c *SessionCache) Touch(sessionID string) {
	_, _ = c.Get(sessionID)
}

// Delete removes a session, stopping its stream
func (c *SessionCache) Delete(sessionID string) {
	c.cache.Delete(sessionID)
}

// Count returns the number of live sessions
func (c *SessionCache) Count() int {
	return c.cache.ItemCount()
}

// Cleanup removes expired sessions
func (c *SessionCache) Cleanup() {
	c.cache.DeleteExpired()
}

// Stop stops every running stream and empties the registry
func (c *SessionCache) Stop() {
	for id := range c.cache.Items() {
		c.cache.Delete(id)
	}
}

func (c *SessionCache) evicted(sessionID string, value interface{}) {
	ctrl, ok := value.(*core.Controller)
	if !ok {
		return
	}
	if err := ctrl.Stop(); err != nil && !errors.Is(err, core.ErrNotRunning) {
		c.logger.Warn("Failed to stop evicted session", zap.String("session_id", sessionID), zap.Error(err))
		return
	}
	c.logger.Debug("Session evicted", zap.String("session_id", sessionID))
}

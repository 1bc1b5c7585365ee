package factory

import (
	"math/rand"
	"time"

	"github.com/mikey/spam-stream/internal/config"
	"github.com/mikey/spam-stream/internal/core"
	"go.uber.org/zap"
)

// ScorerFactory creates scorers based on configuration
type ScorerFactory struct {
	cfg    *config.Config
	logger *zap.Logger
}

// NewScorerFactory creates a new scorer factory
func NewScorerFactory(cfg *config.Config, logger *zap.Logger) *ScorerFactory {
	return &ScorerFactory{
		cfg:    cfg,
		logger: logger,
	}
}

// CreateScorer creates a scorer. A zero seed seeds from the clock.
func (f *ScorerFactory) CreateScorer() (core.Scorer, error) {
	scorerCfg := f.cfg.GetScorer()

	switch scorerCfg.Type {
	case "simulated":
		seed := scorerCfg.Seed
		if seed == 0 {
			seed = time.Now().UnixNano()
		}
		f.logger.Debug("Creating simulated scorer", zap.Int64("seed", seed))
		return core.NewSimulatedScorer(rand.New(rand.NewSource(seed))), nil
	default:
		return nil, &core.ConfigurationError{Field: "scorer.type", Value: scorerCfg.Type, Reason: "unsupported scorer type"}
	}
}

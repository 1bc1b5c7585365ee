package factory

import (
	"github.com/mikey/spam-stream/internal/config"
	"github.com/mikey/spam-stream/internal/core"
	"github.com/mikey/spam-stream/internal/utils"
	"go.uber.org/zap"
)

// ControllerFactory creates stream controllers sharing one loader and scorer
type ControllerFactory struct {
	cfg           *config.Config
	logger        *zap.Logger
	loader        core.Loader
	scorer        core.Scorer
	textProcessor *utils.TextProcessor
}

// NewControllerFactory creates a new controller factory
func NewControllerFactory(
	cfg *config.Config,
	logger *zap.Logger,
	loader core.Loader,
	scorer core.Scorer,
	textProcessor *utils.TextProcessor,
) *ControllerFactory {
	return &ControllerFactory{
		cfg:           cfg,
		logger:        logger,
		loader:        loader,
		scorer:        scorer,
		textProcessor: textProcessor,
	}
}

// Settings returns the validated stream settings from configuration
func (f *ControllerFactory) Settings() (core.StreamSettings, error) {
	return f.cfg.GetStream().Settings()
}

// CreateController creates a controller for a new session
func (f *ControllerFactory) CreateController() (*core.Controller, error) {
	settings, err := f.Settings()
	if err != nil {
		return nil, err
	}
	return core.NewController(settings, f.loader, f.scorer, f.textProcessor, f.logger)
}

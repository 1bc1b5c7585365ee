package di

import (
	"go.uber.org/dig"
	"go.uber.org/zap"

	"github.com/mikey/spam-stream/internal/config"
	"github.com/mikey/spam-stream/internal/core"
	"github.com/mikey/spam-stream/internal/factory"
	"github.com/mikey/spam-stream/internal/logging"
	"github.com/mikey/spam-stream/internal/ports"
	"github.com/mikey/spam-stream/internal/utils"
)

// BuildContainer creates and configures a dependency injection container.
// An empty configFile searches the default locations.
func BuildContainer(configFile string) (*dig.Container, error) {
	container := dig.New()

	// Register configuration
	if err := container.Provide(func() (*config.Config, error) {
		return config.NewWithFile(configFile)
	}); err != nil {
		return nil, err
	}

	// Register logger
	if err := container.Provide(logging.InitLogger); err != nil {
		return nil, err
	}

	if err := provideStream(container); err != nil {
		return nil, err
	}

	return container, nil
}

// provideStream registers everything below the config and logger
func provideStream(container *dig.Container) error {
	// Register factories
	if err := container.Provide(factory.NewLoaderFactory); err != nil {
		return err
	}
	if err := container.Provide(factory.NewScorerFactory); err != nil {
		return err
	}
	if err := container.Provide(factory.NewTextProcessorFactory); err != nil {
		return err
	}
	if err := container.Provide(factory.NewCacheFactory); err != nil {
		return err
	}
	if err := container.Provide(factory.NewControllerFactory); err != nil {
		return err
	}
	if err := container.Provide(factory.NewPresenterFactory); err != nil {
		return err
	}

	// Register text processor
	if err := container.Provide(func(f *factory.TextProcessorFactory) *utils.TextProcessor {
		return f.CreateTextProcessor()
	}); err != nil {
		return err
	}

	// Register dataset loader
	if err := container.Provide(func(f *factory.LoaderFactory, logger *zap.Logger) (core.Loader, error) {
		loader, err := f.CreateLoader()
		if err != nil {
			return nil, err
		}
		logger.Info("Using dataset", zap.String("source", loader.Source()))
		return loader, nil
	}); err != nil {
		return err
	}

	// Register scorer
	if err := container.Provide(func(f *factory.ScorerFactory) (core.Scorer, error) {
		return f.CreateScorer()
	}); err != nil {
		return err
	}

	// Register presenter
	if err := container.Provide(func(f *factory.PresenterFactory) (ports.Presenter, error) {
		return f.CreatePresenter()
	}); err != nil {
		return err
	}

	return nil
}

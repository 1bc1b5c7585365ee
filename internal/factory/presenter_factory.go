package factory

import (
	"io"
	"os"

	"github.com/mikey/spam-stream/internal/adapters/cli"
	"github.com/mikey/spam-stream/internal/adapters/web"
	"github.com/mikey/spam-stream/internal/config"
	"github.com/mikey/spam-stream/internal/core"
	"github.com/mikey/spam-stream/internal/ports"
	"go.uber.org/zap"
)

// PresenterFactory creates presenters based on configuration
type PresenterFactory struct {
	cfg         *config.Config
	logger      *zap.Logger
	controllers *ControllerFactory
	caches      *CacheFactory
	out         io.Writer
}

// NewPresenterFactory creates a new presenter factory
func NewPresenterFactory(cfg *config.Config, logger *zap.Logger, controllers *ControllerFactory, caches *CacheFactory) *PresenterFactory {
	return &PresenterFactory{
		cfg:         cfg,
		logger:      logger,
		controllers: controllers,
		caches:      caches,
		out:         os.Stdout,
	}
}

// WithOutput sets where the CLI presenter writes its cards
func (f *PresenterFactory) WithOutput(out io.Writer) *PresenterFactory {
	f.out = out
	return f
}

// CreatePresenter creates a presenter based on the configuration
func (f *PresenterFactory) CreatePresenter() (ports.Presenter, error) {
	presenterType := f.cfg.GetString("server.presenter")

	switch presenterType {
	case "web":
		settings, err := f.controllers.Settings()
		if err != nil {
			return nil, err
		}
		sessions, err := f.caches.CreateSessionCache()
		if err != nil {
			return nil, err
		}
		return web.NewServer(
			settings,
			sessions,
			f.controllers.CreateController,
			f.cfg.GetString("server.listen_address"),
			f.logger,
		), nil
	case "cli":
		ctrl, err := f.controllers.CreateController()
		if err != nil {
			return nil, err
		}
		return cli.NewCliPresenter(
			ctrl,
			f.logger,
			f.out,
			f.cfg.GetBool("cli.expand"),
			f.cfg.GetBool("cli.no_color"),
		), nil
	default:
		return nil, &core.ConfigurationError{Field: "server.presenter", Value: presenterType, Reason: "unsupported presenter type"}
	}
}

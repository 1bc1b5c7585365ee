package factory

import (
	"github.com/mikey/spam-stream/internal/adapters/loader"
	"github.com/mikey/spam-stream/internal/config"
	"github.com/mikey/spam-stream/internal/core"
	"go.uber.org/zap"
)

// LoaderFactory creates dataset loaders based on configuration
type LoaderFactory struct {
	cfg    *config.Config
	logger *zap.Logger
}

// NewLoaderFactory creates a new loader factory
func NewLoaderFactory(cfg *config.Config, logger *zap.Logger) *LoaderFactory {
	return &LoaderFactory{
		cfg:    cfg,
		logger: logger,
	}
}

// CreateLoader creates a loader for the configured dataset type.
// SQL-backed loaders hold a connection and implement io.Closer.
func (f *LoaderFactory) CreateLoader() (core.Loader, error) {
	datasetCfg := f.cfg.GetDataset()
	if datasetCfg.Limit < 0 {
		return nil, &core.ConfigurationError{Field: "dataset.limit", Value: datasetCfg.Limit, Reason: "must not be negative"}
	}

	switch datasetCfg.Type {
	case "csv":
		if datasetCfg.CSVPath == "" {
			return nil, &core.ConfigurationError{Field: "dataset.csv_path", Value: "", Reason: "is required"}
		}
		return loader.NewCSVLoader(datasetCfg.CSVPath, datasetCfg.Limit, f.logger), nil
	case "sqlite":
		return loader.NewSQLiteLoader(datasetCfg.SQLitePath, datasetCfg.Table, datasetCfg.Limit, f.logger)
	case "mysql":
		return loader.NewMySQLLoader(datasetCfg.MySQLDSN, datasetCfg.Table, datasetCfg.Limit, f.logger)
	default:
		return nil, &core.ConfigurationError{Field: "dataset.type", Value: datasetCfg.Type, Reason: "unsupported dataset type"}
	}
}

package factory

import (
	"bytes"
	"io"
	"math/rand"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/mikey/spam-stream/internal/adapters/cli"
	"github.com/mikey/spam-stream/internal/adapters/loader"
	"github.com/mikey/spam-stream/internal/adapters/web"
	"github.com/mikey/spam-stream/internal/config"
	"github.com/mikey/spam-stream/internal/core"
	"github.com/mikey/spam-stream/internal/utils"
)

func newConfig(overrides map[string]interface{}) *config.Config {
	v := config.NewEmptyViper()
	for k, val := range overrides {
		v.Set(k, val)
	}
	return config.NewFromViper(v)
}

func TestLoaderFactory(t *testing.T) {
	logger := zap.NewNop()

	t.Run("csv", func(t *testing.T) {
		f := NewLoaderFactory(newConfig(map[string]interface{}{"dataset.csv_path": "emails.csv"}), logger)
		l, err := f.CreateLoader()
		require.NoError(t, err)
		assert.IsType(t, &loader.CSVLoader{}, l)
		assert.Contains(t, l.Source(), "emails.csv")
	})

	t.Run("sqlite", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "emails.db")
		f := NewLoaderFactory(newConfig(map[string]interface{}{
			"dataset.type":        "sqlite",
			"dataset.sqlite_path": path,
		}), logger)
		l, err := f.CreateLoader()
		require.NoError(t, err)
		closer, ok := l.(io.Closer)
		require.True(t, ok)
		assert.NoError(t, closer.Close())
	})

	t.Run("bad table", func(t *testing.T) {
		f := NewLoaderFactory(newConfig(map[string]interface{}{
			"dataset.type":        "sqlite",
			"dataset.sqlite_path": filepath.Join(t.TempDir(), "emails.db"),
			"dataset.table":       "emails; DROP TABLE x",
		}), logger)
		_, err := f.CreateLoader()
		assert.True(t, core.IsConfigurationError(err))
	})

	t.Run("unsupported type", func(t *testing.T) {
		f := NewLoaderFactory(newConfig(map[string]interface{}{"dataset.type": "parquet"}), logger)
		_, err := f.CreateLoader()
		require.Error(t, err)
		assert.True(t, core.IsConfigurationError(err))
		assert.Contains(t, err.Error(), "dataset.type")
	})

	t.Run("negative limit", func(t *testing.T) {
		f := NewLoaderFactory(newConfig(map[string]interface{}{"dataset.limit": -1}), logger)
		_, err := f.CreateLoader()
		assert.True(t, core.IsConfigurationError(err))
	})
}

func TestScorerFactory(t *testing.T) {
	logger := zap.NewNop()

	f := NewScorerFactory(newConfig(map[string]interface{}{"scorer.seed": 42}), logger)
	a, err := f.CreateScorer()
	require.NoError(t, err)
	b, err := f.CreateScorer()
	require.NoError(t, err)

	rec := core.MessageRecord{Label: core.LabelSpam}
	for i := 0; i < 5; i++ {
		score := a.Score(rec)
		assert.Equal(t, score, b.Score(rec))
		assert.GreaterOrEqual(t, score, core.SpamScoreMin)
	}

	_, err = NewScorerFactory(newConfig(map[string]interface{}{"scorer.type": "llm"}), logger).CreateScorer()
	assert.True(t, core.IsConfigurationError(err))
}

func TestControllerFactory(t *testing.T) {
	logger := zap.NewNop()
	tp := NewTextProcessorFactory(logger).CreateTextProcessor()
	scorer := core.NewSimulatedScorer(rand.New(rand.NewSource(1)))
	l := loader.NewCSVLoader("emails.csv", 0, logger)

	f := NewControllerFactory(newConfig(nil), logger, l, scorer, tp)
	a, err := f.CreateController()
	require.NoError(t, err)
	b, err := f.CreateController()
	require.NoError(t, err)
	assert.NotEqual(t, a.ID(), b.ID())
	assert.Equal(t, core.DefaultStreamSettings(), a.Settings())

	bad := NewControllerFactory(newConfig(map[string]interface{}{"stream.threshold": 1.1}), logger, l, scorer, tp)
	_, err = bad.CreateController()
	require.Error(t, err)
	var cfgErr *core.ConfigurationError
	require.ErrorAs(t, err, &cfgErr)
	assert.Equal(t, "threshold", cfgErr.Field)

	slow := NewControllerFactory(newConfig(map[string]interface{}{"stream.delay_seconds": 10}), logger, l, scorer, tp)
	_, err = slow.CreateController()
	assert.True(t, core.IsConfigurationError(err))
}

func TestPresenterFactory(t *testing.T) {
	logger := zap.NewNop()
	build := func(cfg *config.Config) *PresenterFactory {
		controllers := NewControllerFactory(cfg, logger, loader.NewCSVLoader("emails.csv", 0, logger),
			core.NewSimulatedScorer(rand.New(rand.NewSource(1))), utils.NewTextProcessor(logger))
		return NewPresenterFactory(cfg, logger, controllers, NewCacheFactory(cfg, logger))
	}

	p, err := build(newConfig(nil)).CreatePresenter()
	require.NoError(t, err)
	assert.IsType(t, &web.Server{}, p)
	assert.Nil(t, p.Done())

	var out bytes.Buffer
	p, err = build(newConfig(map[string]interface{}{"server.presenter": "cli"})).WithOutput(&out).CreatePresenter()
	require.NoError(t, err)
	assert.IsType(t, &cli.CliPresenter{}, p)

	_, err = build(newConfig(map[string]interface{}{"server.presenter": "postfix"})).CreatePresenter()
	assert.True(t, core.IsConfigurationError(err))

	_, err = build(newConfig(map[string]interface{}{"sessions.ttl": "soon"})).CreatePresenter()
	assert.True(t, core.IsConfigurationError(err))
}

func TestCacheFactory(t *testing.T) {
	sessions, err := NewCacheFactory(newConfig(map[string]interface{}{"sessions.ttl": "30m"}), zap.NewNop()).CreateSessionCache()
	require.NoError(t, err)
	defer sessions.Stop()
	assert.Equal(t, 0, sessions.Count())
}

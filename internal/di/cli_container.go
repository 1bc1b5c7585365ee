package di

import (
	"flag"
	"io"

	"go.uber.org/dig"
	"go.uber.org/zap"

	"github.com/mikey/spam-stream/internal/config"
	"github.com/mikey/spam-stream/internal/logging"
)

// CLIFlags contains all command line flags for the CLI application
type CLIFlags struct {
	// Dataset flags
	DatasetType string
	InputFile   string
	SQLitePath  string
	MySQLDSN    string
	Table       string
	Limit       int

	// Stream flags
	Threshold    float64
	DelaySeconds int
	Seed         int64

	// Output flags
	Expand     bool
	NoColor    bool
	Verbose    bool
	JSONLog    bool
	ConfigFile string
}

// ParseFlags parses command line arguments into a CLIFlags struct
func ParseFlags(name string, args []string, output io.Writer) (*CLIFlags, error) {
	flags := &CLIFlags{}
	fs := flag.NewFlagSet(name, flag.ContinueOnError)
	fs.SetOutput(output)

	// Dataset flags
	fs.StringVar(&flags.DatasetType, "dataset", "csv", "Dataset type (csv, sqlite, mysql)")
	fs.StringVar(&flags.InputFile, "file", "data/phishing_emails.csv", "CSV dataset with sender, subject, body and label columns")
	fs.StringVar(&flags.SQLitePath, "sqlite-path", "", "SQLite database holding the dataset table")
	fs.StringVar(&flags.MySQLDSN, "mysql-dsn", "", "MySQL DSN for the dataset table")
	fs.StringVar(&flags.Table, "table", "emails", "Dataset table name for sqlite and mysql")
	fs.IntVar(&flags.Limit, "limit", 0, "Maximum number of messages to stream (0 for all)")

	// Stream flags
	fs.Float64Var(&flags.Threshold, "threshold", 0.7, "Threshold for spam detection")
	fs.IntVar(&flags.DelaySeconds, "delay", 2, "Seconds between messages (1-5)")
	fs.Int64Var(&flags.Seed, "seed", 0, "Scorer seed (0 seeds from the clock)")

	// Output flags
	fs.BoolVar(&flags.Expand, "expand", false, "Print full message bodies instead of previews")
	fs.BoolVar(&flags.NoColor, "no-color", false, "Disable colored output")
	fs.BoolVar(&flags.Verbose, "verbose", false, "Enable verbose logging")
	fs.BoolVar(&flags.JSONLog, "json-log", false, "Output logs in JSON format")
	fs.StringVar(&flags.ConfigFile, "config", "", "Path to config file (overrides command line flags)")

	if err := fs.Parse(args); err != nil {
		return nil, err
	}
	return flags, nil
}

// BuildCLIContainer creates and configures a dependency injection container for the CLI application
func BuildCLIContainer(flags *CLIFlags) (*dig.Container, error) {
	container := dig.New()

	// Register flags
	if err := container.Provide(func() *CLIFlags { return flags }); err != nil {
		return nil, err
	}

	// Register logger
	if err := container.Provide(func(flags *CLIFlags) (*zap.Logger, error) {
		return logging.InitConsoleLogger(flags.Verbose, flags.JSONLog)
	}); err != nil {
		return nil, err
	}

	// Register configuration
	if err := container.Provide(func(flags *CLIFlags, logger *zap.Logger) (*config.Config, error) {
		if flags.ConfigFile != "" {
			cfg, err := config.NewWithFile(flags.ConfigFile)
			if err != nil {
				return nil, err
			}
			cfg.GetViper().Set("server.presenter", "cli")
			logger.Info("Loaded configuration from file", zap.String("file", cfg.GetViper().ConfigFileUsed()))
			return cfg, nil
		}

		// Create config from command line flags
		return createConfigFromFlags(flags), nil
	}); err != nil {
		return nil, err
	}

	if err := provideStream(container); err != nil {
		return nil, err
	}

	return container, nil
}

// createConfigFromFlags creates a configuration from command line flags
func createConfigFromFlags(flags *CLIFlags) *config.Config {
	v := config.NewEmptyViper()

	// Set some cli specific settings
	v.Set("server.presenter", "cli")
	v.Set("cli.expand", flags.Expand)
	v.Set("cli.no_color", flags.NoColor)

	// Set dataset
	v.Set("dataset.type", flags.DatasetType)
	v.Set("dataset.limit", flags.Limit)
	v.Set("dataset.table", flags.Table)
	switch flags.DatasetType {
	case "csv":
		v.Set("dataset.csv_path", flags.InputFile)
	case "sqlite":
		v.Set("dataset.sqlite_path", flags.SQLitePath)
	case "mysql":
		v.Set("dataset.mysql_dsn", flags.MySQLDSN)
	}

	// Set stream and scorer
	v.Set("stream.threshold", flags.Threshold)
	v.Set("stream.delay_seconds", flags.DelaySeconds)
	v.Set("scorer.seed", flags.Seed)

	return config.NewFromViper(v)
}

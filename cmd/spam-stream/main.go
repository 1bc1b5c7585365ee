package main

import (
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/mikey/spam-stream/internal/core"
	"github.com/mikey/spam-stream/internal/di"
	"github.com/mikey/spam-stream/internal/ports"
	"go.uber.org/zap"
)

func main() {
	configFile := flag.String("config", "", "Path to config file (searches default locations if empty)")
	flag.Parse()

	// Build the dependency injection container
	container, err := di.BuildContainer(*configFile)
	if err != nil {
		fmt.Printf("Failed to build dependency container: %v\n", err)
		os.Exit(1)
	}

	// Run the application
	if err := container.Invoke(run); err != nil {
		fmt.Printf("Application error: %v\n", err)
		os.Exit(1)
	}
}

// run is the main application function that gets all dependencies injected
func run(
	logger *zap.Logger,
	presenter ports.Presenter,
	loader core.Loader,
) error {
	defer logger.Sync()

	// Start the dashboard
	if err := presenter.Start(); err != nil {
		logger.Error("Failed to start presenter", zap.Error(err))
		return err
	}

	// Handle graceful shutdown
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	select {
	case <-sigCh:
		logger.Info("Shutting down...")
	case <-presenter.Done():
	}

	// Stop the presenter
	if err := presenter.Stop(); err != nil {
		logger.Error("Failed to stop presenter", zap.Error(err))
	}

	// Close the dataset connection if it holds one
	if closer, ok := loader.(interface{ Close() error }); ok {
		if err := closer.Close(); err != nil {
			logger.Error("Failed to close dataset", zap.Error(err))
		}
	}

	logger.Info("Shutdown complete")
	return nil
}

package main

import (
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
	flags, err := di.ParseFlags(os.Args[0], os.Args[1:], os.Stderr)
	if err != nil {
		os.Exit(2)
	}

	// Build the dependency injection container
	container, err := di.BuildCLIContainer(flags)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to build dependency container: %v\n", err)
		os.Exit(1)
	}

	if err := container.Invoke(run); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

// run streams the dataset to the terminal until it completes or Ctrl-C stops it
func run(logger *zap.Logger, presenter ports.Presenter, loader core.Loader) error {
	defer logger.Sync()

	defer func() {
		if closer, ok := loader.(interface{ Close() error }); ok {
			if err := closer.Close(); err != nil {
				logger.Error("Failed to close dataset", zap.Error(err))
			}
		}
	}()

	if err := presenter.Start(); err != nil {
		return err
	}

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(sigCh)

	select {
	case <-sigCh:
		logger.Debug("Interrupted, stopping stream")
		return presenter.Stop()
	case <-presenter.Done():
		return nil
	}
}

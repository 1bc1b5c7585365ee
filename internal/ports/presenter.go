package ports

// Presenter renders a message stream to some display surface
type Presenter interface {
	// Start starts the presenter service
	Start() error

	// Stop stops the presenter service and any stream it drives
	Stop() error

	// Done is closed when the presenter has finished on its own, nil if it never does
	Done() <-chan struct{}
}

package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"sync"

	"github.com/fatih/color"
	"github.com/mikey/spam-stream/internal/core"
	"go.uber.org/zap"
)

// CliPresenter prints the message stream to a terminal, one card per message
type CliPresenter struct {
	controller *core.Controller
	logger     *zap.Logger
	out        io.Writer
	expandAll  bool

	header *color.Color
	spam   *color.Color
	ham    *color.Color
	warn   *color.Color

	done     chan struct{}
	doneOnce sync.Once
	mu       sync.Mutex
	result   *core.Event
}

// NewCliPresenter creates a new CLI presenter writing to out
func NewCliPresenter(controller *core.Controller, logger *zap.Logger, out io.Writer, expandAll bool, noColor bool) *CliPresenter {
	p := &CliPresenter{
		controller: controller,
		logger:     logger,
		out:        out,
		expandAll:  expandAll,
		header:     color.New(color.FgCyan, color.Bold),
		spam:       color.New(color.FgRed, color.Bold),
		ham:        color.New(color.FgGreen),
		warn:       color.New(color.FgYellow),
		done:       make(chan struct{}),
	}
	if noColor {
		for _, c := range []*color.Color{p.header, p.spam, p.ham, p.warn} {
			c.DisableColor()
		}
	}
	return p
}

// Start begins streaming and renders events in the background
func (p *CliPresenter) Start() error {
	events, err := p.controller.Start(context.Background())
	if err != nil {
		p.warn.Fprintf(p.out, "Failed to start streaming: %v\n", err)
		p.finish()
		return err
	}

	go p.render(events)
	return nil
}

// Stop cancels the stream and waits for the stop notice to be printed
func (p *CliPresenter) Stop() error {
	if err := p.controller.Stop(); err != nil && !errors.Is(err, core.ErrNotRunning) {
		return err
	}
	<-p.done
	return nil
}

// Done is closed once the terminal event has been printed
func (p *CliPresenter) Done() <-chan struct{} {
	return p.done
}

// Result returns the terminal event of the run, nil while streaming
func (p *CliPresenter) Result() *core.Event {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.result
}

func (p *CliPresenter) finish() {
	p.doneOnce.Do(func() { close(p.done) })
}

func (p *CliPresenter) render(events <-chan core.Event) {
	defer p.finish()

	for ev := range events {
		switch ev.Type {
		case core.EventMessage:
			view := *ev.Message
			if p.expandAll {
				expanded, err := p.controller.SetExpanded(view.Index, true)
				if err != nil {
					p.logger.Warn("Failed to expand message", zap.Int("index", view.Index), zap.Error(err))
				} else {
					view = expanded
				}
			}
			p.printCard(view, ev.Total)
		case core.EventStopped:
			p.warn.Fprintf(p.out, "🚨 %s\n", ev.Notice)
			p.setResult(ev)
		case core.EventCompleted:
			p.ham.Fprintf(p.out, "✅ %s\n", ev.Notice)
			p.setResult(ev)
		}
	}
}

func (p *CliPresenter) setResult(ev core.Event) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.result = &ev
}

func (p *CliPresenter) printCard(view core.MessageView, total int) {
	p.header.Fprintf(p.out, "\n=== ✉️  Message #%d of %d ===\n", view.Index+1, total)
	fmt.Fprintf(p.out, "From: %s\n", view.Sender)
	fmt.Fprintf(p.out, "Subject: %s\n", view.Subject)
	fmt.Fprintf(p.out, "Body: %s\n", view.Body)
	fmt.Fprintf(p.out, "Spam Score: %.2f\n", view.SpamScore)
	if view.IsSpam {
		p.spam.Fprintln(p.out, "🚫 SPAM Detected!")
	} else {
		p.ham.Fprintln(p.out, "✅ Not Spam (Ham)")
	}
}

package core

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// TimerFunc starts a timer for d and returns its channel and a stop function
type TimerFunc func(d time.Duration) (<-chan time.Time, func())

func realTimer(d time.Duration) (<-chan time.Time, func()) {
	t := time.NewTimer(d)
	return t.C, func() { t.Stop() }
}

// ControllerOption customizes a Controller
type ControllerOption func(*Controller)

// WithTimer replaces the pacing timer, mostly for tests
func WithTimer(timer TimerFunc) ControllerOption {
	return func(c *Controller) {
		c.timer = timer
	}
}

// WithClock replaces the clock used to stamp sessions and scores
func WithClock(now func() time.Time) ControllerOption {
	return func(c *Controller) {
		c.now = now
	}
}

// WithSessionID fixes the session identity instead of generating one
func WithSessionID(id string) ControllerOption {
	return func(c *Controller) {
		c.id = id
	}
}

// Controller streams scored messages one at a time with a pause between them.
// It owns exactly one StreamSession identity and runs at most one stream at a time.
type Controller struct {
	id       string
	loader   Loader
	scorer   Scorer
	renderer BodyRenderer
	logger   *zap.Logger
	timer    TimerFunc
	now      func() time.Time

	mu       sync.Mutex
	settings StreamSettings
	state    StreamState
	session  *StreamSession
	cancel   context.CancelFunc
	done     chan struct{}
}

// NewController creates a stream controller. Invalid settings are rejected here,
// before any stream can start.
func NewController(
	settings StreamSettings,
	loader Loader,
	scorer Scorer,
	renderer BodyRenderer,
	logger *zap.Logger,
	opts ...ControllerOption,
) (*Controller, error) {
	if err := settings.Validate(); err != nil {
		return nil, err
	}
	if loader == nil || scorer == nil || renderer == nil {
		return nil, errors.New("controller requires a loader, a scorer and a renderer")
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	c := &Controller{
		loader:   loader,
		scorer:   scorer,
		renderer: renderer,
		logger:   logger,
		timer:    realTimer,
		now:      time.Now,
		settings: settings,
		state:    StateIdle,
	}
	for _, opt := range opts {
		opt(c)
	}
	if c.id == "" {
		c.id = uuid.NewString()
	}
	c.logger = c.logger.With(zap.String("session_id", c.id))
	return c, nil
}

// ID returns the session identity of the controller
func (c *Controller) ID() string {
	return c.id
}

// State returns the current lifecycle state
func (c *Controller) State() StreamState {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

// Settings returns the settings the next run will use
func (c *Controller) Settings() StreamSettings {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.settings
}

// SetDelay changes the pacing delay for the next run
func (c *Controller) SetDelay(delay time.Duration) error {
	if err := ValidateDelay(delay); err != nil {
		return err
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.state == StateStreaming {
		return ErrAlreadyRunning
	}
	c.settings.Delay = delay
	return nil
}

// Start loads the dataset and begins streaming. The returned channel yields one
// message event per record followed by exactly one terminal event, then closes.
// Consumers must drain it; the terminal event is dropped only if ctx is cancelled.
func (c *Controller) Start(ctx context.Context) (<-chan Event, error) {
	// The run context exists before loading so Stop can cancel a slow load
	runCtx, cancel := context.WithCancel(ctx)

	c.mu.Lock()
	if c.state == StateStreaming {
		c.mu.Unlock()
		cancel()
		return nil, ErrAlreadyRunning
	}
	c.state = StateStreaming
	c.cancel = cancel
	settings := c.settings
	c.mu.Unlock()

	records, err := c.loader.Load(runCtx)
	if err != nil {
		cancel()
		c.mu.Lock()
		c.state = StateIdle
		c.cancel = nil
		c.mu.Unlock()

		var loadErr *LoaderError
		if !errors.As(err, &loadErr) {
			err = &LoaderError{Source: c.loader.Source(), Err: err}
		}
		c.logger.Error("Failed to load dataset", zap.String("source", c.loader.Source()), zap.Error(err))
		return nil, err
	}

	events := make(chan Event)
	session := newStreamSession(c.id, len(records), c.now())
	session.Running = true

	c.mu.Lock()
	c.session = session
	c.done = make(chan struct{})
	done := c.done
	c.mu.Unlock()

	c.logger.Info("Stream started",
		zap.String("source", c.loader.Source()),
		zap.Int("total", len(records)),
		zap.Float64("threshold", settings.Threshold),
		zap.Duration("delay", settings.Delay))

	go c.run(runCtx, ctx, cancel, session, settings, records, events, done)
	return events, nil
}

// Stop cancels the active run. The run reports a stopped event and closes its channel.
func (c *Controller) Stop() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.state != StateStreaming || c.cancel == nil {
		return ErrNotRunning
	}
	c.cancel()
	c.logger.Info("Stream stop requested")
	return nil
}

// Wait blocks until the current run has exited
func (c *Controller) Wait() {
	c.mu.Lock()
	done := c.done
	c.mu.Unlock()
	if done != nil {
		<-done
	}
}

func (c *Controller) run(
	ctx context.Context,
	parent context.Context,
	cancel context.CancelFunc,
	session *StreamSession,
	settings StreamSettings,
	records []MessageRecord,
	events chan<- Event,
	done chan struct{},
) {
	defer close(done)
	defer close(events)
	defer cancel()

	total := len(records)
	emitted := 0
	if ctx.Err() != nil {
		c.finish(parent, session, events, StateStopped, emitted)
		return
	}
	for i, record := range records {
		if ctx.Err() != nil {
			c.finish(parent, session, events, StateStopped, emitted)
			return
		}

		score := c.scorer.Score(record)
		msg := ScoredMessage{
			Index:     i,
			Record:    record,
			SpamScore: score,
			IsSpam:    Classify(score, settings.Threshold),
			ScoredAt:  c.now(),
		}

		c.mu.Lock()
		session.record(msg)
		view := c.viewLocked(session, msg)
		c.mu.Unlock()

		ev := Event{Type: EventMessage, SessionID: c.id, Message: &view, Emitted: i + 1, Total: total}
		select {
		case events <- ev:
			emitted++
		case <-ctx.Done():
			c.mu.Lock()
			delete(session.Scored, i)
			delete(session.Expanded, i)
			session.Position = i
			c.mu.Unlock()
			c.finish(parent, session, events, StateStopped, emitted)
			return
		}

		c.logger.Debug("Message emitted",
			zap.Int("index", i),
			zap.String("sender", record.Sender),
			zap.Float64("score", score),
			zap.Bool("is_spam", msg.IsSpam))

		if !c.pause(ctx, settings.Delay) {
			c.finish(parent, session, events, StateStopped, emitted)
			return
		}
	}

	c.finish(parent, session, events, StateCompleted, emitted)
}

// pause waits for delay and reports false if the run was cancelled meanwhile
func (c *Controller) pause(ctx context.Context, delay time.Duration) bool {
	ch, stop := c.timer(delay)
	defer stop()
	select {
	case <-ch:
		return true
	case <-ctx.Done():
		return false
	}
}

func (c *Controller) finish(parent context.Context, session *StreamSession, events chan<- Event, state StreamState, emitted int) {
	c.mu.Lock()
	c.state = state
	c.cancel = nil
	session.Running = false
	total := session.Total
	c.mu.Unlock()

	ev := Event{SessionID: c.id, Emitted: emitted, Total: total}
	if state == StateCompleted {
		ev.Type = EventCompleted
		ev.Notice = "All messages streamed."
		c.logger.Info("Stream completed", zap.Int("emitted", emitted))
	} else {
		ev.Type = EventStopped
		ev.Notice = "Streaming stopped."
		c.logger.Info("Stream stopped", zap.Int("emitted", emitted), zap.Int("total", total))
	}

	select {
	case events <- ev:
	case <-parent.Done():
		c.logger.Debug("Terminal event dropped, consumer context cancelled")
	}
}

// ToggleExpand flips the expand state of an emitted message. The score is never redrawn.
func (c *Controller) ToggleExpand(index int) (MessageView, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.session == nil {
		return MessageView{}, ErrUnknownMessage
	}
	msg, err := c.session.setExpanded(index, !c.session.Expanded[index])
	if err != nil {
		return MessageView{}, fmt.Errorf("toggle %d: %w", index, err)
	}
	return c.viewLocked(c.session, msg), nil
}

// SetExpanded sets the expand state of an emitted message; repeating it is a no-op
func (c *Controller) SetExpanded(index int, expanded bool) (MessageView, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.session == nil {
		return MessageView{}, ErrUnknownMessage
	}
	msg, err := c.session.setExpanded(index, expanded)
	if err != nil {
		return MessageView{}, fmt.Errorf("expand %d: %w", index, err)
	}
	return c.viewLocked(c.session, msg), nil
}

// Snapshot copies the session for presentation
func (c *Controller) Snapshot() SessionSnapshot {
	c.mu.Lock()
	defer c.mu.Unlock()

	snap := SessionSnapshot{
		ID:        c.id,
		State:     c.state,
		Threshold: c.settings.Threshold,
		DelayMS:   c.settings.Delay.Milliseconds(),
		Messages:  []MessageView{},
	}
	if c.session == nil {
		return snap
	}
	snap.Running = c.session.Running
	snap.Position = c.session.Position
	snap.Total = c.session.Total
	snap.StartedAt = c.session.StartedAt
	for _, idx := range c.session.indexes() {
		snap.Messages = append(snap.Messages, c.viewLocked(c.session, c.session.Scored[idx]))
	}
	return snap
}

func (c *Controller) viewLocked(session *StreamSession, msg ScoredMessage) MessageView {
	expanded := session.Expanded[msg.Index]
	body := c.renderer.Preview(msg.Record.Body)
	if expanded {
		body = c.renderer.Full(msg.Record.Body)
	}
	return MessageView{
		Index:     msg.Index,
		Sender:    msg.Record.Sender,
		Subject:   msg.Record.Subject,
		Body:      body,
		SpamScore: msg.SpamScore,
		IsSpam:    msg.IsSpam,
		Expanded:  expanded,
	}
}

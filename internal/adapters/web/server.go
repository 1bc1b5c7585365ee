package web

import (
	"context"
	"embed"
	"errors"
	"strconv"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/utils"
	"github.com/gofiber/websocket/v2"
	"github.com/mikey/spam-stream/internal/core"
	"go.uber.org/zap"
)

//go:embed static/index.html
var staticFiles embed.FS

// SessionStore keeps controllers by session id
type SessionStore interface {
	Set(ctrl *core.Controller)
	Get(sessionID string) (*core.Controller, error)
	Delete(sessionID string)
	Touch(sessionID string)
	Stop()
}

// ControllerFactory builds a fresh controller for a new session
type ControllerFactory func() (*core.Controller, error)

// Server is the web dashboard presenter
type Server struct {
	app           *fiber.App
	hub           *Hub
	settings      core.StreamSettings
	sessions      SessionStore
	newController ControllerFactory
	listenAddr    string
	logger        *zap.Logger
}

type startRequest struct {
	DelaySeconds *int `json:"delay_seconds"`
}

type expandRequest struct {
	Expanded *bool `json:"expanded"`
}

// NewServer creates the dashboard server. settings are the configured defaults new sessions start with.
func NewServer(
	settings core.StreamSettings,
	sessions SessionStore,
	newController ControllerFactory,
	listenAddr string,
	logger *zap.Logger,
) *Server {
	s := &Server{
		app: fiber.New(fiber.Config{
			AppName:               "spam-stream",
			DisableStartupMessage: true,
		}),
		hub:           NewHub(logger),
		settings:      settings,
		sessions:      sessions,
		newController: newController,
		listenAddr:    listenAddr,
		logger:        logger,
	}
	s.routes()
	return s
}

// App exposes the fiber application, mainly for tests
func (s *Server) App() *fiber.App {
	return s.app
}

// Hub returns the websocket hub
func (s *Server) Hub() *Hub {
	return s.hub
}

func (s *Server) routes() {
	s.app.Get("/", s.index)

	api := s.app.Group("/api")
	api.Get("/config", s.getConfig)
	api.Post("/sessions", s.createSession)
	api.Get("/sessions/:id", s.getSession)
	api.Delete("/sessions/:id", s.deleteSession)
	api.Post("/sessions/:id/start", s.startSession)
	api.Post("/sessions/:id/stop", s.stopSession)
	api.Post("/sessions/:id/messages/:index/toggle", s.toggleMessage)
	api.Put("/sessions/:id/messages/:index/expanded", s.setExpanded)

	s.app.Get("/ws/:id", s.serveWs)
}

// Start starts the hub and the HTTP listener
func (s *Server) Start() error {
	go s.hub.Run()

	s.logger.Info("Dashboard starting", zap.String("address", s.listenAddr))
	go func() {
		if err := s.app.Listen(s.listenAddr); err != nil {
			s.logger.Error("HTTP server error", zap.Error(err))
		}
	}()
	return nil
}

// Stop stops every stream and shuts the listener down
func (s *Server) Stop() error {
	s.sessions.Stop()
	s.hub.Stop()
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return s.app.ShutdownWithContext(ctx)
}

// Done returns nil, the dashboard runs until stopped
func (s *Server) Done() <-chan struct{} {
	return nil
}

func (s *Server) index(c *fiber.Ctx) error {
	page, err := staticFiles.ReadFile("static/index.html")
	if err != nil {
		return err
	}
	c.Type("html", "utf-8")
	return c.Send(page)
}

func (s *Server) getConfig(c *fiber.Ctx) error {
	return c.JSON(fiber.Map{
		"threshold":         s.settings.Threshold,
		"delay_seconds":     int(s.settings.Delay / time.Second),
		"min_delay_seconds": int(core.MinDelay / time.Second),
		"max_delay_seconds": int(core.MaxDelay / time.Second),
	})
}

func (s *Server) createSession(c *fiber.Ctx) error {
	ctrl, err := s.newController()
	if err != nil {
		return s.writeError(c, err)
	}
	s.sessions.Set(ctrl)
	s.logger.Info("Session created", zap.String("session_id", ctrl.ID()))
	return c.Status(fiber.StatusCreated).JSON(ctrl.Snapshot())
}

func (s *Server) getSession(c *fiber.Ctx) error {
	ctrl, err := s.sessions.Get(sessionID(c))
	if err != nil {
		return s.writeError(c, err)
	}
	return c.JSON(ctrl.Snapshot())
}

func (s *Server) deleteSession(c *fiber.Ctx) error {
	id := sessionID(c)
	if _, err := s.sessions.Get(id); err != nil {
		return s.writeError(c, err)
	}
	s.sessions.Delete(id)
	return c.SendStatus(fiber.StatusNoContent)
}

func (s *Server) startSession(c *fiber.Ctx) error {
	ctrl, err := s.sessions.Get(sessionID(c))
	if err != nil {
		return s.writeError(c, err)
	}

	var req startRequest
	if len(c.Body()) > 0 {
		if err := c.BodyParser(&req); err != nil {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "invalid request body"})
		}
	}
	if req.DelaySeconds != nil {
		if err := ctrl.SetDelay(time.Duration(*req.DelaySeconds) * time.Second); err != nil {
			return s.writeError(c, err)
		}
	}

	events, err := ctrl.Start(context.Background())
	if err != nil {
		if core.IsLoaderError(err) {
			s.hub.Publish(core.Event{Type: core.EventError, SessionID: ctrl.ID(), Notice: err.Error()})
		}
		return s.writeError(c, err)
	}

	go s.pump(events)
	return c.Status(fiber.StatusAccepted).JSON(ctrl.Snapshot())
}

// pump forwards a run's events to the hub until the run closes its channel.
// Each event keeps the session alive so a watch-only dashboard is not evicted mid-run.
func (s *Server) pump(events <-chan core.Event) {
	for ev := range events {
		s.sessions.Touch(ev.SessionID)
		s.hub.Publish(ev)
	}
}

// sessionID copies the id route param out of the reused request buffer
func sessionID(c *fiber.Ctx) string {
	return utils.CopyString(c.Params("id"))
}

func (s *Server) stopSession(c *fiber.Ctx) error {
	ctrl, err := s.sessions.Get(sessionID(c))
	if err != nil {
		return s.writeError(c, err)
	}
	if err := ctrl.Stop(); err != nil {
		return s.writeError(c, err)
	}
	return c.Status(fiber.StatusAccepted).JSON(fiber.Map{"session_id": ctrl.ID(), "stopping": true})
}

func (s *Server) toggleMessage(c *fiber.Ctx) error {
	ctrl, index, ok, err := s.messageTarget(c)
	if !ok {
		return err
	}
	view, err := ctrl.ToggleExpand(index)
	if err != nil {
		return s.writeError(c, err)
	}
	s.hub.Publish(core.Event{Type: core.EventUpdated, SessionID: ctrl.ID(), Message: &view})
	return c.JSON(view)
}

func (s *Server) setExpanded(c *fiber.Ctx) error {
	ctrl, index, ok, err := s.messageTarget(c)
	if !ok {
		return err
	}
	var req expandRequest
	if err := c.BodyParser(&req); err != nil || req.Expanded == nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "expected {\"expanded\": bool}"})
	}
	view, err := ctrl.SetExpanded(index, *req.Expanded)
	if err != nil {
		return s.writeError(c, err)
	}
	s.hub.Publish(core.Event{Type: core.EventUpdated, SessionID: ctrl.ID(), Message: &view})
	return c.JSON(view)
}

// messageTarget resolves the session and message index of a request.
// When ok is false the error response has already been written.
func (s *Server) messageTarget(c *fiber.Ctx) (*core.Controller, int, bool, error) {
	ctrl, err := s.sessions.Get(sessionID(c))
	if err != nil {
		return nil, 0, false, s.writeError(c, err)
	}
	index, err := strconv.Atoi(c.Params("index"))
	if err != nil || index < 0 {
		return nil, 0, false, c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "invalid message index"})
	}
	return ctrl, index, true, nil
}

func (s *Server) serveWs(c *fiber.Ctx) error {
	ctrl, err := s.sessions.Get(sessionID(c))
	if err != nil {
		return s.writeError(c, err)
	}
	id := ctrl.ID()

	if websocket.IsWebSocketUpgrade(c) {
		return websocket.New(func(conn *websocket.Conn) {
			s.logger.Debug("Websocket connected", zap.String("session_id", id))
			serveClient(s.hub, conn, id)
			s.logger.Debug("Websocket disconnected", zap.String("session_id", id))
		})(c)
	}
	return fiber.ErrUpgradeRequired
}

func (s *Server) writeError(c *fiber.Ctx, err error) error {
	status := fiber.StatusInternalServerError
	switch {
	case errors.Is(err, core.ErrSessionNotFound), errors.Is(err, core.ErrUnknownMessage):
		status = fiber.StatusNotFound
	case errors.Is(err, core.ErrAlreadyRunning), errors.Is(err, core.ErrNotRunning):
		status = fiber.StatusConflict
	case core.IsConfigurationError(err):
		status = fiber.StatusUnprocessableEntity
	case core.IsLoaderError(err):
		status = fiber.StatusBadGateway
	}
	if status == fiber.StatusInternalServerError {
		s.logger.Error("Request failed", zap.String("path", c.Path()), zap.Error(err))
	}
	return c.Status(status).JSON(fiber.Map{"error": err.Error()})
}

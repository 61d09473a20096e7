package api

import (
	"errors"
	"time"

	"github.com/gofiber/adaptor/v2"
	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	"github.com/papercomputeco/parley/api/mcp"
	"github.com/papercomputeco/parley/pkg/assistant"
	"github.com/papercomputeco/parley/pkg/session"
)

const (
	defaultBodyLimit       = 16 << 20
	defaultShutdownTimeout = 10 * time.Second
)

// Server is the API server for chatting with parley over HTTP.
type Server struct {
	config    Config
	assistant *assistant.Assistant
	sessions  *session.Manager
	logger    *zap.Logger
	app       *fiber.App
}

// NewServer creates a new API server.
// The assistant and session manager are injected so they can be shared with
// background maintenance (session janitor, artifact pruning).
func NewServer(config Config, a *assistant.Assistant, sessions *session.Manager, logger *zap.Logger) (*Server, error) {
	if a == nil {
		return nil, errors.New("assistant is required")
	}
	if sessions == nil {
		return nil, errors.New("session manager is required")
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	if config.BodyLimit <= 0 {
		config.BodyLimit = defaultBodyLimit
	}
	if config.ShutdownTimeout <= 0 {
		config.ShutdownTimeout = defaultShutdownTimeout
	}

	app := fiber.New(fiber.Config{
		DisableStartupMessage: true,
		BodyLimit:             config.BodyLimit,
	})

	s := &Server{
		config:    config,
		assistant: a,
		sessions:  sessions,
		logger:    logger,
		app:       app,
	}

	mcpServer, err := mcp.NewServer(mcp.Config{
		Turns:    a.Orchestrator,
		Sessions: sessions,
		Logger:   logger,
	})
	if err != nil {
		return nil, err
	}

	app.Get("/ping", s.handlePing)

	v1 := app.Group("/v1")
	v1.Post("/chat", s.handleChat)
	v1.Post("/sessions/:id/document", s.handleUploadDocument)
	v1.Delete("/sessions/:id/document", s.handleClearDocument)
	v1.Put("/sessions/:id/voice", s.handleSetVoice)
	v1.Get("/sessions/:id/history", s.handleHistory)
	v1.Delete("/sessions/:id", s.handleDeleteSession)
	v1.Get("/memory", s.handleListMemory)
	v1.Get("/audio/:name", s.handleAudio)

	if a.Metrics != nil {
		app.Get("/metrics", adaptor.HTTPHandler(a.Metrics.Handler()))
	}
	app.All("/mcp", adaptor.HTTPHandler(mcpServer.Handler()))

	return s, nil
}

// Run starts the API server on the configured address.
func (s *Server) Run() error {
	s.logger.Info("starting API server",
		zap.String("listen", s.config.ListenAddr),
	)
	return s.app.Listen(s.config.ListenAddr)
}

// Shutdown gracefully shuts down the API server.
func (s *Server) Shutdown() error {
	return s.app.ShutdownWithTimeout(s.config.ShutdownTimeout)
}

// App exposes the fiber app, mainly for app.Test.
func (s *Server) App() *fiber.App {
	return s.app
}

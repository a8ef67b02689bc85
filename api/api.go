// Package api exposes the screening pipeline over HTTP: submission intake,
// the supervisor review queue, rating, and system statistics.
package api

import (
	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	"github.com/probitylab/screener/pkg/screening"
)

// Server is the API server for the screening pipeline.
type Server struct {
	config  Config
	service *screening.Service
	logger  *zap.Logger
	app     *fiber.App
}

// NewServer creates a new API server. The service is injected so the same
// pipeline instance can be shared with other entry points.
func NewServer(config Config, service *screening.Service, logger *zap.Logger) *Server {
	app := fiber.New(fiber.Config{
		DisableStartupMessage: true,
	})

	s := &Server{
		config:  config,
		service: service,
		logger:  logger,
		app:     app,
	}

	app.Get("/api/health", s.handleHealth)
	app.Post("/api/submit", s.handleSubmit)
	app.Get("/api/submissions", s.handleListPending)
	app.Post("/api/supervisor/rate", s.handleRate)
	app.Get("/api/admin/stats", s.handleStats)

	return s
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
	return s.app.Shutdown()
}

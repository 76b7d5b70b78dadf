// Package web exposes the control API and the live telemetry stream:
// REST endpoints for status, calibration, safety, and profiles, plus a
// websocket event feed fanned out through the hub.
package web

import (
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/websocket/v2"

	"github.com/Hitanshparikh/Eyegle-Software/internal/log"
	"github.com/Hitanshparikh/Eyegle-Software/pkg/engine"
	"github.com/Hitanshparikh/Eyegle-Software/pkg/hub"
)

// Server is the control API server.
type Server struct {
	app    *fiber.App
	port   string
	engine *engine.Engine
	events *hub.Hub
}

// NewServer wires the routes. The hub must be the same one the engine
// broadcasts to; the server runs it.
func NewServer(port string, eng *engine.Engine, events *hub.Hub) *Server {
	s := &Server{
		port:   port,
		engine: eng,
		events: events,
	}

	app := fiber.New(fiber.Config{
		AppName:               "Eyegle",
		DisableStartupMessage: true,
	})

	// CORS for local development
	app.Use(cors.New())

	// Static files
	app.Static("/", "./web")

	// API routes
	api := app.Group("/api")
	api.Get("/status", s.handleStatus)
	api.Post("/calibration/start", s.handleCalibrationStart)
	api.Post("/calibration/reset", s.handleCalibrationReset)
	api.Post("/safety/stop", s.handleSafetyStop)
	api.Post("/safety/resume", s.handleSafetyResume)
	api.Get("/profiles", s.handleListProfiles)
	api.Post("/profiles/:name/save", s.handleSaveProfile)
	api.Post("/profiles/:name/load", s.handleLoadProfile)
	api.Delete("/profiles/:name", s.handleDeleteProfile)

	// WebSocket upgrade middleware
	app.Use("/ws", func(c *fiber.Ctx) error {
		if websocket.IsWebSocketUpgrade(c) {
			return c.Next()
		}
		return fiber.ErrUpgradeRequired
	})
	app.Get("/ws/events", websocket.New(s.handleEventsWS))

	s.app = app
	return s
}

// Start runs the hub and serves until Shutdown.
func (s *Server) Start() error {
	go s.events.Run()
	log.Info("control api listening", "port", s.port)
	return s.app.Listen(":" + s.port)
}

// StartAsync starts the server in a goroutine.
func (s *Server) StartAsync() {
	go func() {
		if err := s.Start(); err != nil {
			log.Error("web server error", "error", err)
		}
	}()
}

// Shutdown gracefully stops the server and disconnects event clients.
func (s *Server) Shutdown() error {
	s.events.Stop()
	return s.app.Shutdown()
}

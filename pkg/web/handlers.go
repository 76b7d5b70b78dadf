package web

import (
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/websocket/v2"

	"github.com/Hitanshparikh/Eyegle-Software/pkg/hub"
)

// handleStatus returns the engine snapshot.
func (s *Server) handleStatus(c *fiber.Ctx) error {
	return c.JSON(s.engine.Status())
}

// handleCalibrationStart begins a calibration session.
func (s *Server) handleCalibrationStart(c *fiber.Ctx) error {
	if err := s.engine.StartCalibration(); err != nil {
		return c.Status(fiber.StatusConflict).JSON(fiber.Map{
			"error": err.Error(),
		})
	}
	return c.JSON(fiber.Map{"started": true})
}

// handleCalibrationReset abandons any active session.
func (s *Server) handleCalibrationReset(c *fiber.Ctx) error {
	s.engine.ResetCalibration()
	return c.JSON(fiber.Map{"reset": true})
}

// handleSafetyStop engages the emergency stop.
func (s *Server) handleSafetyStop(c *fiber.Ctx) error {
	s.engine.Gate().Stop()
	return c.JSON(s.engine.Gate().Snapshot())
}

// handleSafetyResume lifts the emergency stop.
func (s *Server) handleSafetyResume(c *fiber.Ctx) error {
	s.engine.Gate().Resume()
	return c.JSON(s.engine.Gate().Snapshot())
}

// handleListProfiles returns the saved profile names.
func (s *Server) handleListProfiles(c *fiber.Ctx) error {
	names, err := s.engine.Profiles().List()
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": err.Error(),
		})
	}
	return c.JSON(names)
}

// handleSaveProfile persists the live calibration under a name.
func (s *Server) handleSaveProfile(c *fiber.Ctx) error {
	name := c.Params("name")
	if err := s.engine.SaveProfile(name); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": err.Error(),
		})
	}
	return c.JSON(fiber.Map{"saved": name})
}

// handleLoadProfile installs a saved calibration. Profiles recorded for
// other screen dimensions are rejected.
func (s *Server) handleLoadProfile(c *fiber.Ctx) error {
	name := c.Params("name")
	if err := s.engine.LoadProfile(name); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": err.Error(),
		})
	}
	return c.JSON(fiber.Map{"loaded": name})
}

// handleDeleteProfile removes a saved profile.
func (s *Server) handleDeleteProfile(c *fiber.Ctx) error {
	name := c.Params("name")
	if err := s.engine.Profiles().Delete(name); err != nil {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
			"error": err.Error(),
		})
	}
	return c.JSON(fiber.Map{"deleted": name})
}

// handleEventsWS attaches a websocket client to the event stream.
func (s *Server) handleEventsWS(c *websocket.Conn) {
	client := hub.NewClient(s.events, c)
	client.Run() // Blocks until the connection closes
}

package api

import "github.com/gofiber/fiber/v2"

type HealthResponse struct {
	Status string `json:"status"`
}

func (s *APIServer) GetHealth(c *fiber.Ctx) error {
	return c.JSON(HealthResponse{Status: "healthy"})
}

package api

import (
	"encoding/json"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	amqp "github.com/rabbitmq/amqp091-go"
)

// StatsResponse reports the last completed pipeline run, for
// dashboards and alerting rather than for rebuilding anything
// programmatically.
type StatsResponse struct {
	Available  bool      `json:"available"`
	StartedAt  time.Time `json:"started_at,omitempty"`
	FinishedAt time.Time `json:"finished_at,omitempty"`
	Trips      int       `json:"trips,omitempty"`
	Routes     int       `json:"routes,omitempty"`
	Shapes     int       `json:"shapes,omitempty"`
}

func (s *APIServer) GetStats(c *fiber.Ctx) error {
	stats, ok, err := s.Runs.LastRun(c.Context())
	if err != nil {
		s.Logger.Errorw("fetching last run stats", "error", err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "failed to load run stats"})
	}
	if !ok {
		return c.JSON(StatsResponse{Available: false})
	}
	return c.JSON(StatsResponse{
		Available:  true,
		StartedAt:  stats.StartedAt,
		FinishedAt: stats.FinishedAt,
		Trips:      stats.Trips,
		Routes:     stats.Routes,
		Shapes:     stats.Shapes,
	})
}

// PostRebuild publishes a uuid-tagged rebuild request to the
// gtfs.rebuild.requested queue and returns the id; it does not run the
// pipeline inline on the request goroutine. gtfs-builder does not
// consume that queue, and the gtfs.build.completed event it publishes
// carries no request id.
func (s *APIServer) PostRebuild(c *fiber.Ctx) error {
	requestID := uuid.NewString()

	body, err := json.Marshal(struct {
		RequestID   string    `json:"request_id"`
		RequestedAt time.Time `json:"requested_at"`
	}{requestID, time.Now().UTC()})
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "failed to encode rebuild request"})
	}

	err = s.mqChan.Publish(
		"",
		"gtfs.rebuild.requested",
		false,
		false,
		amqp.Publishing{
			ContentType: "application/json",
			Body:        body,
		},
	)
	if err != nil {
		s.Logger.Errorw("publishing rebuild request", "error", err, "request_id", requestID)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "failed to queue rebuild"})
	}

	s.Logger.Infow("queued rebuild request", "request_id", requestID)
	return c.Status(fiber.StatusAccepted).JSON(fiber.Map{"request_id": requestID})
}

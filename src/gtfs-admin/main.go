package main

import (
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/nrdp-rail/gtfs-engine/src/common/utils"
	"github.com/nrdp-rail/gtfs-engine/src/gtfs-admin/api"
)

func main() {
	utils.InitLogger()
	defer utils.SyncLogger()
	log := utils.GetLogger()

	app := fiber.New()

	app.Use(func(c *fiber.Ctx) error {
		path := c.Path()
		method := c.Method()

		err := c.Next()

		if path != "/health" {
			log.Infow("request", "method", method, "path", path, "status", c.Response().StatusCode())
		}

		return err
	})

	app.Use(cors.New())

	server, err := api.NewServer()
	if err != nil {
		log.Fatalw("failed to start admin api server", "error", err)
		return
	}
	defer server.Close()

	app.Get("/health", server.GetHealth)
	app.Get("/stats", server.GetStats)
	app.Post("/rebuild", server.PostRebuild)

	if err := app.Listen(":3000"); err != nil {
		log.Fatalw("fiber listen failed", "error", err)
	}
}

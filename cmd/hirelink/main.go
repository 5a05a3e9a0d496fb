package main

import (
	"fmt"
	"log"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/basicauth"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/monitor"
	"github.com/gofiber/fiber/v2/middleware/recover"

	"github.com/DavidKellner/HireLink/app/repository"
	"github.com/DavidKellner/HireLink/internal/pkg/cache"
	"github.com/DavidKellner/HireLink/internal/pkg/database"
	"github.com/DavidKellner/HireLink/internal/pkg/env"
	"github.com/DavidKellner/HireLink/internal/pkg/metrics/counter"
	"github.com/DavidKellner/HireLink/internal/pkg/router"
)

func main() {
	app := NewApplication()
	err := app.Listen(fmt.Sprintf("%s:%s", env.GetEnv("APP_HOST", "localhost"), env.GetEnv("APP_PORT", "4000")))
	log.Fatal(err)
}

func NewApplication() *fiber.App {
	env.SetupEnvFile()
	database.SetupDatabase()
	repository.InitializeFactory(database.GetDB())
	cache.SetupCache()

	// init fiber app
	app := fiber.New(fiber.Config{
		// Webhook payloads are small; anything bigger is abuse.
		BodyLimit: 1 << 20, // 1 MiB
	})

	// recovery and logging
	app.Use(recover.New(), logger.New())

	// fiber metrics
	metricsAuth := basicauth.New(basicauth.Config{
		Users: map[string]string{
			env.GetEnv("METRICS_USER", "admin"): env.GetEnv("METRICS_PASSWORD", "admin"),
		},
	})
	app.Get("/metrics", metricsAuth, monitor.New())
	app.Get("/metrics/webhooks", metricsAuth, func(c *fiber.Ctx) error {
		deliveries, err := counter.Deliveries()
		if err != nil {
			return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "counters unavailable"})
		}
		rejections, err := counter.Rejections()
		if err != nil {
			return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "counters unavailable"})
		}
		return c.JSON(fiber.Map{"deliveries": deliveries, "rejections": rejections})
	})

	// ROUTER
	router.InstallRouter(app)

	return app
}

package router

import (
	"github.com/DavidKellner/HireLink/app/controllers"

	"github.com/gofiber/fiber/v2"
)

type ApiRouter struct {
}

func (h ApiRouter) InstallRouter(app *fiber.App) {
	api := app.Group("/api")

	// Webhook ingress. No auth middleware: the provider's signature is the
	// authentication mechanism, and the controller gates origin and rate
	// before anything else runs.
	webhooks := controllers.NewWebhookControllerFromEnv()
	api.Post("/webhooks/stripe", webhooks.HandleStripeWebhook)
}

func NewApiRouter() *ApiRouter {
	return &ApiRouter{}
}

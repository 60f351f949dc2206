package routes

import (
	"github.com/gofiber/fiber/v2"

	"github.com/opencourt/publication-svc/internal/handlers"
)

// SetupRoutes configures all application routes with dependencies
func SetupRoutes(app *fiber.App, healthHandler *handlers.HealthHandler, distributeHandler *handlers.DistributeHandler) {
	// Health check endpoint
	app.Get("/health", healthHandler.HealthCheck)

	// API v1 routes
	api := app.Group("/api/v1")
	{
		api.Post("/distribute", distributeHandler.Distribute)
	}
}

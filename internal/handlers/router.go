package handlers

import (
	"smarterd/internal/health"
	"smarterd/internal/metrics"
	"smarterd/internal/middleware"
	"smarterd/internal/services"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
)

// AppOptions carries what NewApp wires into the routes.
type AppOptions struct {
	Services *services.Services
	Auth     *services.AuthService
	Health   *health.Checker
	Metrics  *metrics.Metrics

	// AccessLog enables the request logger.
	AccessLog bool
}

// NewApp builds the Fiber app: public auth and health routes, and every
// lifecycle route behind the JWT middleware under /api/v1.
func NewApp(opts AppOptions) *fiber.App {
	app := fiber.New(fiber.Config{
		AppName:               "smarterd",
		DisableStartupMessage: true,
	})

	app.Use(recover.New())
	if opts.AccessLog {
		app.Use(logger.New())
	}

	if opts.Health != nil {
		NewHealthHandler(opts.Health, opts.Metrics).RegisterRoutes(app)
	}

	apiV1 := app.Group("/api/v1")

	// Authentication routes (public)
	NewAuthHandler(opts.Auth).RegisterRoutes(apiV1)

	protected := apiV1.Group("", middleware.AuthRequired(opts.Auth))

	svc := opts.Services
	NewUserHandler(svc.Users).RegisterRoutes(protected)
	NewProjectHandler(svc.Projects, svc.Entities).RegisterRoutes(protected)
	NewEntityHandler(svc.Entities, svc.Attributes).RegisterRoutes(protected)
	NewAttributeHandler(svc.Attributes).RegisterRoutes(protected)

	return app
}

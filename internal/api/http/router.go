package http

import (
	"github.com/gofiber/fiber/v2"

	"github.com/clubhub-io/event-registration/internal/api/http/handlers"
	"github.com/clubhub-io/event-registration/internal/auth"
)

// RouteConfig bundles dependencies for route registration.
type RouteConfig struct {
	Health         *handlers.HealthHandler
	Users          *handlers.UsersHandler
	Events         *handlers.EventsHandler
	Registrations  *handlers.RegistrationsHandler
	Payments       *handlers.PaymentsHandler
	Checkin        *handlers.CheckinHandler
	AuthMiddleware *auth.AuthMiddleware
}

// RegisterRoutes wires HTTP routes.
func RegisterRoutes(app *fiber.App, cfg RouteConfig) {
	app.Get("/health/live", cfg.Health.Live)
	app.Get("/health/ready", cfg.Health.Ready)

	authGroup := app.Group("/auth")
	authGroup.Post("/users/register", cfg.Users.Register)
	authGroup.Post("/users/login", cfg.Users.Login)
	authGroup.Post("/staff/login", cfg.Users.LoginStaff)

	events := app.Group("/events")
	events.Get("/", cfg.AuthMiddleware.HandleOptional, cfg.Events.List)
	events.Get("/:id", cfg.AuthMiddleware.HandleOptional, cfg.Events.Get)

	registered := events.Group("", cfg.AuthMiddleware.Handle, auth.RequireUser())
	registered.Post("/:id/registrations", cfg.Registrations.Start)
	registered.Get("/:id/registrations/me", cfg.Registrations.GetMine)
	registered.Post("/:id/orders", cfg.Payments.CreateOrder)

	// gateway webhook; authenticity comes from the callback signature
	app.Post("/payments/callback", cfg.Payments.Callback)

	scanning := events.Group("", cfg.AuthMiddleware.Handle, auth.RequireScanner())
	scanning.Post("/:id/checkin", cfg.Checkin.Scan)
}

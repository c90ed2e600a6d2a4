package http

import (
	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/helpdesk-service/internal/api/http/handlers"
	"github.com/spec-kit/helpdesk-service/internal/auth"
)

// RouteConfig bundles dependencies for route registration.
type RouteConfig struct {
	Health         *handlers.HealthHandler
	Users          *handlers.UsersHandler
	Projects       *handlers.ProjectsHandler
	Tickets        *handlers.TicketsHandler
	Dashboard      *handlers.DashboardHandler
	AuthMiddleware *auth.AuthMiddleware
}

// RegisterRoutes wires HTTP routes.
func RegisterRoutes(app *fiber.App, cfg RouteConfig) {
	app.Get("/health/live", cfg.Health.Live)
	app.Get("/health/ready", cfg.Health.Ready)

	authGroup := app.Group("/auth")
	authGroup.Post("/register", cfg.Users.Register)
	authGroup.Post("/login", cfg.Users.Login)
	authGroup.Post("/password/reset/request", cfg.Users.RequestPasswordReset)
	authGroup.Post("/password/reset/confirm", cfg.Users.ConfirmPasswordReset)

	authProtected := authGroup.Group("", cfg.AuthMiddleware.Handle, auth.RequireAuthenticated())
	authProtected.Get("/me", cfg.Users.Me)
	authProtected.Post("/password/change", cfg.Users.ChangePassword)

	projects := app.Group("/projects", cfg.AuthMiddleware.Handle, auth.RequireAdmin())
	projects.Post("/", cfg.Projects.CreateProject)
	projects.Get("/", cfg.Projects.ListProjects)
	projects.Get("/:id", cfg.Projects.GetProject)
	projects.Put("/:id", cfg.Projects.UpdateProject)
	projects.Delete("/:id", cfg.Projects.DeleteProject)

	tickets := app.Group("/tickets", cfg.AuthMiddleware.Handle, auth.RequireAuthenticated())
	tickets.Post("/", cfg.Tickets.CreateTicket)
	tickets.Get("/", cfg.Tickets.ListTickets)
	tickets.Get("/number/:number", cfg.Tickets.GetTicketByNumber)
	tickets.Get("/:id", cfg.Tickets.GetTicket)
	tickets.Put("/:id", cfg.Tickets.UpdateTicket)
	tickets.Post("/:id/assign", cfg.Tickets.AssignTicket)
	tickets.Post("/:id/status", cfg.Tickets.UpdateStatus)
	tickets.Post("/:id/comments", cfg.Tickets.AddComment)
	tickets.Get("/:id/comments", cfg.Tickets.ListComments)
	tickets.Post("/:id/feedback", cfg.Tickets.AddFeedback)
	tickets.Get("/:id/feedback", cfg.Tickets.GetFeedback)
	tickets.Get("/:id/changelog", cfg.Tickets.ListChangeLog)
	tickets.Delete("/:id", auth.RequireAdmin(), cfg.Tickets.DeleteTicket)

	dashboard := app.Group("/dashboard", cfg.AuthMiddleware.Handle, auth.RequireAuthenticated())
	dashboard.Get("/stats", cfg.Dashboard.GetStats)
}

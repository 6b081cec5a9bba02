package http

import (
	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/helpdesk/internal/api/http/handlers"
	"github.com/spec-kit/helpdesk/internal/auth"
	"github.com/spec-kit/helpdesk/internal/authz"
)

// APIHandlers bundles the authenticated surface.
type APIHandlers struct {
	Auth      *handlers.AuthHandler
	Tickets   *handlers.TicketsHandler
	Users     *handlers.UsersHandler
	Dashboard *handlers.DashboardHandler
	Health    *handlers.HealthHandler
}

// RegisterRoutes wires the authenticated API.
func RegisterRoutes(app *fiber.App, authMW *auth.AuthMiddleware, h APIHandlers) {
	app.Get("/health/live", h.Health.Live)
	app.Get("/health/ready", h.Health.Ready)

	api := app.Group("/api")

	api.Post("/auth/register", h.Auth.Register)
	api.Post("/auth/login", h.Auth.Login)
	api.Get("/auth/me", authMW.Handle, h.Auth.Me)

	tickets := api.Group("/tickets", authMW.Handle)
	tickets.Post("/", h.Tickets.Create)
	tickets.Get("/", h.Tickets.List)
	tickets.Get("/:id", h.Tickets.Get)
	tickets.Put("/:id", h.Tickets.Update)
	tickets.Post("/:id/comments", h.Tickets.AddComment)
	tickets.Get("/:id/comments", h.Tickets.ListComments)

	api.Get("/users", authMW.Handle, auth.RequirePermission(authz.ActionListUsers), h.Users.List)
	api.Get("/dashboard/stats", authMW.Handle, auth.RequirePermission(authz.ActionViewDashboard), h.Dashboard.Stats)
}

// RegisterPortalRoutes wires the public portal. No authentication;
// the requester email correlates every request to its tickets.
func RegisterPortalRoutes(app *fiber.App, portal *handlers.PortalHandler, health *handlers.HealthHandler) {
	app.Get("/health/live", health.Live)
	app.Get("/health/ready", health.Ready)

	p := app.Group("/portal")
	p.Post("/tickets", portal.CreateTicket)
	p.Get("/tickets", portal.ListTickets)
	p.Get("/tickets/:id", portal.GetTicket)
	p.Post("/tickets/:id/comments", portal.AddComment)
	p.Get("/tickets/:id/comments", portal.ListComments)
	p.Post("/tickets/:id/attachments", portal.UploadAttachment)
	p.Get("/tickets/:id/attachments", portal.ListAttachments)
	p.Get("/tickets/:id/attachments/:attachmentID", portal.DownloadAttachment)
}

package http

import (
	"github.com/gofiber/fiber/v2"

	"github.com/Ignatius32/asistencia-informatica-crub/internal/api/http/handlers"
	"github.com/Ignatius32/asistencia-informatica-crub/internal/auth"
)

// RouteConfig bundles dependencies for route registration.
type RouteConfig struct {
	Health         *handlers.HealthHandler
	Auth           *handlers.AuthHandler
	Tickets        *handlers.TicketsHandler
	Org            *handlers.OrgHandler
	Catalog        *handlers.CatalogHandler
	AuthMiddleware *auth.AuthMiddleware
}

// RegisterRoutes wires HTTP routes.
func RegisterRoutes(app *fiber.App, cfg RouteConfig) {
	app.Get("/health/live", cfg.Health.Live)
	app.Get("/health/ready", cfg.Health.Ready)

	app.Get("/catalog/areas", cfg.Catalog.AreaCatalog)

	authGroup := app.Group("/auth")
	authGroup.Post("/users/register", cfg.Auth.Register)
	authGroup.Post("/users/login", cfg.Auth.LoginUser)
	authGroup.Post("/technicians/login", cfg.Auth.LoginTechnician)
	authGroup.Post("/password/reset/request", cfg.Auth.RequestPasswordReset)
	authGroup.Post("/password/set", cfg.Auth.SetPassword)

	authProtected := authGroup.Group("", cfg.AuthMiddleware.Handle, auth.RequireAnyRole())
	authProtected.Post("/password/change", cfg.Auth.ChangePassword)
	authProtected.Get("/me", cfg.Auth.Me)

	tickets := app.Group("/tickets", cfg.AuthMiddleware.Handle, auth.RequireAnyRole())
	tickets.Post("", auth.RequireUser(), cfg.Tickets.CreateTicket)
	tickets.Get("", cfg.Tickets.ListMyTickets)
	tickets.Get("/:id", cfg.Tickets.GetTicket)
	tickets.Patch("/:id/status", cfg.Tickets.UpdateStatus)
	tickets.Patch("/:id/priority", auth.RequireAdminOrChief(), cfg.Tickets.UpdatePriority)
	tickets.Post("/:id/reassign", auth.RequireAdminOrChief(), cfg.Tickets.Reassign)
	tickets.Delete("/:id", auth.RequireAdmin(), cfg.Tickets.DeleteTicket)

	management := app.Group("/management", cfg.AuthMiddleware.Handle, auth.RequireAdminOrChief())
	management.Get("/tickets", cfg.Tickets.ListManagedTickets)

	technicians := app.Group("/technicians", cfg.AuthMiddleware.Handle, auth.RequireTechnician())
	technicians.Get("/me/workload", cfg.Tickets.Workload)

	org := app.Group("/org", cfg.AuthMiddleware.Handle, auth.RequireAnyRole())
	org.Get("/areas", cfg.Org.ListAreas)
	org.Get("/areas/:id/categories", cfg.Org.ListAreaCategories)
	org.Post("/areas", auth.RequireAdmin(), cfg.Org.CreateArea)
	org.Put("/areas/:id", auth.RequireAdminOrChief(), cfg.Org.UpdateArea)
	org.Put("/areas/:id/chief", auth.RequireAdmin(), cfg.Org.SetChief)
	org.Delete("/areas/:id", auth.RequireAdmin(), cfg.Org.DeleteArea)

	org.Get("/categories", cfg.Org.ListCategories)
	org.Post("/categories", auth.RequireAdminOrChief(), cfg.Org.CreateCategory)
	org.Put("/categories/:id", auth.RequireAdminOrChief(), cfg.Org.UpdateCategory)
	org.Patch("/categories/:id/active", auth.RequireAdminOrChief(), cfg.Org.SetCategoryActive)

	org.Get("/technicians", auth.RequireAdminOrChief(), cfg.Org.ListTechnicians)
	org.Post("/technicians", auth.RequireAdminOrChief(), cfg.Org.CreateTechnician)
	org.Put("/technicians/:id", auth.RequireAdminOrChief(), cfg.Org.UpdateTechnician)
	org.Delete("/technicians/:id", auth.RequireAdmin(), cfg.Org.DeleteTechnician)
	org.Get("/technicians/:id/assignments", auth.RequireAdminOrChief(), cfg.Org.ListTechnicianAssignments)

	org.Post("/assignments", auth.RequireAdminOrChief(), cfg.Org.CreateAssignment)
	org.Delete("/assignments", auth.RequireAdminOrChief(), cfg.Org.DeleteAssignment)
}

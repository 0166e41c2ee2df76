package http

import (
	"github.com/gofiber/fiber/v2"

	"github.com/stelaryous/ticketflow/internal/api/http/handlers"
	"github.com/stelaryous/ticketflow/internal/auth"
	"github.com/stelaryous/ticketflow/internal/domain"
)

// RouteConfig bundles dependencies for route registration.
type RouteConfig struct {
	Health         *handlers.HealthHandler
	Users          *handlers.UsersHandler
	Tickets        *handlers.TicketsHandler
	Catalog        *handlers.CatalogHandler
	Transfers      *handlers.TransfersHandler
	Finance        *handlers.FinanceHandler
	Dashboard      *handlers.DashboardHandler
	AuthMiddleware *auth.AuthMiddleware
}

// RegisterRoutes wires HTTP routes. Business routes demand a completed
// profile; account plumbing (password change, profile registration)
// stays reachable before the gates are satisfied.
func RegisterRoutes(app *fiber.App, cfg RouteConfig) {
	app.Get("/health/live", cfg.Health.Live)
	app.Get("/health/ready", cfg.Health.Ready)

	authGroup := app.Group("/auth")
	authGroup.Post("/login", cfg.Users.Login)

	protected := app.Group("", cfg.AuthMiddleware.Handle)

	anyRole := auth.Requirement{}
	allowTemporary := auth.Requirement{AllowTemporary: true}
	withProfile := auth.Requirement{RequireProfile: true}
	adminOnly := auth.Requirement{Roles: domain.NewRoleSet(domain.RoleAdmin)}
	adminFinance := auth.Requirement{Roles: domain.NewRoleSet(domain.RoleAdmin, domain.RoleFinanceiro)}
	finance := auth.Requirement{
		Roles:          domain.NewRoleSet(domain.RoleAdmin, domain.RoleFinanceiro),
		RequireProfile: true,
	}

	protected.Post("/auth/logout", auth.Require(allowTemporary), cfg.Users.Logout)
	protected.Post("/auth/password/change", auth.Require(allowTemporary), cfg.Users.ChangePassword)
	protected.Post("/auth/register", auth.Require(adminOnly), cfg.Users.Register)

	protected.Get("/users", auth.Require(anyRole), cfg.Users.ListUsers)
	protected.Delete("/users/:id", auth.Require(adminOnly), cfg.Users.DeactivateUser)

	protected.Post("/profile", auth.Require(anyRole), cfg.Users.RegisterProfile)
	protected.Get("/profile", auth.Require(anyRole), cfg.Users.GetProfile)
	protected.Get("/profile/:userId", auth.Require(anyRole), cfg.Users.GetProfile)

	protected.Get("/categories", auth.Require(anyRole), cfg.Catalog.ListCategories)
	protected.Post("/categories", auth.Require(adminFinance), cfg.Catalog.CreateCategory)
	protected.Get("/services", auth.Require(anyRole), cfg.Catalog.ListServices)
	protected.Post("/services", auth.Require(adminFinance), cfg.Catalog.CreateService)
	protected.Delete("/services/:id", auth.Require(adminOnly), cfg.Catalog.HideService)

	protected.Get("/discounts", auth.Require(anyRole), cfg.Catalog.ListDiscounts)
	protected.Post("/discounts", auth.Require(adminOnly), cfg.Catalog.CreateDiscount)
	protected.Patch("/discounts/:id", auth.Require(adminOnly), cfg.Catalog.UpdateDiscount)
	protected.Post("/discounts/:id/toggle", auth.Require(adminOnly), cfg.Catalog.ToggleDiscount)

	protected.Post("/tickets", auth.Require(withProfile), cfg.Tickets.CreateTicket)
	protected.Get("/tickets", auth.Require(withProfile), cfg.Tickets.ListTickets)
	protected.Get("/tickets/proof/*", auth.Require(withProfile), cfg.Tickets.GetProof)
	protected.Get("/tickets/proof-url/*", auth.Require(withProfile), cfg.Tickets.GetProofURL)
	protected.Get("/tickets/:id", auth.Require(withProfile), cfg.Tickets.GetTicket)
	protected.Patch("/tickets/:id", auth.Require(withProfile), cfg.Tickets.UpdateTicket)
	protected.Delete("/tickets/:id", auth.Require(withProfile), cfg.Tickets.HideTicket)

	protected.Post("/transfers", auth.Require(withProfile), cfg.Transfers.CreateTransfer)
	protected.Get("/transfers", auth.Require(withProfile), cfg.Transfers.ListTransfers)
	protected.Post("/transfers/:id/resolve", auth.Require(adminOnly), cfg.Transfers.ResolveTransfer)

	protected.Post("/finance/confirm", auth.Require(finance), cfg.Finance.ConfirmPayment)
	protected.Get("/finance/pending", auth.Require(finance), cfg.Finance.ListPendingSettlement)
	protected.Get("/finance/history/:ticketId", auth.Require(finance), cfg.Finance.PaymentHistory)

	protected.Get("/dashboard/summary", auth.Require(withProfile), cfg.Dashboard.Summary)
	protected.Get("/dashboard/overdue", auth.Require(withProfile), cfg.Dashboard.Overdue)
	protected.Get("/dashboard/due-today", auth.Require(withProfile), cfg.Dashboard.DueToday)
	protected.Get("/dashboard/due-upcoming", auth.Require(withProfile), cfg.Dashboard.DueUpcoming)
	protected.Get("/dashboard/by-creator", auth.Require(adminOnly), cfg.Dashboard.TicketsByCreator)
}

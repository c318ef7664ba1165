package routes

import (
	"github.com/gofiber/fiber/v2"

	"github.com/parity-hq/parity-backend/internal/handlers"
	"github.com/parity-hq/parity-backend/internal/middleware"
	"github.com/parity-hq/parity-backend/internal/services"
	"github.com/parity-hq/parity-backend/internal/storage"
)

// SetupRoutes configures all API routes
func SetupRoutes(app *fiber.App, store storage.Store, coordinator *services.SessionCoordinator,
	invitations *services.InvitationService, soloPrep *services.SoloPrepService, uplift *services.UpliftService) {

	accountHandler := handlers.NewAccountHandler(store)
	soloPrepHandler := handlers.NewSoloPrepHandler(soloPrep)
	jointHandler := handlers.NewJointUnpackHandler(coordinator, invitations)
	guestHandler := handlers.NewGuestHandler(coordinator)
	upliftHandler := handlers.NewUpliftHandler(uplift)

	app.Get("/health", handlers.Health)

	api := app.Group("/api")

	// Accounts
	accounts := api.Group("/accounts")
	accounts.Post("/register", accountHandler.Register)
	accounts.Post("/login", accountHandler.Login)
	accounts.Get("/me", middleware.RequireAuth(), accountHandler.Me)
	accounts.Post("/me/premium", middleware.RequireAuth(), accountHandler.SetPremium)

	// Prompt catalog
	api.Get("/prompts", handlers.ListPrompts)

	// Solo prep (journaling before a joint unpack)
	soloPrepGroup := api.Group("/solo-prep", middleware.RequireAuth())
	soloPrepGroup.Post("/sessions", soloPrepHandler.Start)
	soloPrepGroup.Get("/sessions", soloPrepHandler.List)
	soloPrepGroup.Get("/sessions/:id", soloPrepHandler.Get)
	soloPrepGroup.Get("/sessions/:id/responses", soloPrepHandler.GetResponses)
	soloPrepGroup.Post("/sessions/:id/response", soloPrepHandler.SaveResponse)
	soloPrepGroup.Post("/sessions/:id/complete", soloPrepHandler.Complete)

	// Joint unpack, initiator side
	joint := api.Group("/joint-unpack")
	joint.Post("/from-solo-prep/:soloPrepID", middleware.RequireAuth(), jointHandler.CreateFromSoloPrep)
	joint.Get("/sessions", middleware.RequireAuth(), jointHandler.List)
	joint.Get("/sessions/:id", middleware.RequireAuth(), jointHandler.Get)
	joint.Post("/sessions/:id/invite", middleware.RequireAuth(), jointHandler.Invite)
	joint.Get("/sessions/:id/invitee-status", middleware.RequireAuth(), jointHandler.InviteeStatus)
	joint.Post("/sessions/:id/response", middleware.RequireAuth(), jointHandler.SaveResponse)
	joint.Post("/sessions/:id/agenda", middleware.RequireAuth(), jointHandler.Agenda)
	joint.Delete("/sessions/:id", middleware.RequireAuth(), jointHandler.Delete)

	// Role inferred from the credential presented (bearer or invitation token)
	joint.Post("/sessions/:id/ready-to-reveal", jointHandler.ConfirmReady)
	joint.Get("/sessions/:id/mutual-responses", jointHandler.MutualResponses)

	// Joint unpack, guest side
	guest := joint.Group("/guest")
	guest.Post("/access", guestHandler.Access)
	guest.Get("/sessions/:id/prompts", middleware.RequireGuest(invitations), guestHandler.Prompts)
	guest.Post("/sessions/:id/response", middleware.RequireGuest(invitations), guestHandler.SaveResponse)

	// Uplift messages
	upliftGroup := api.Group("/uplift", middleware.RequireAuth())
	upliftGroup.Post("/messages", upliftHandler.Send)
	upliftGroup.Get("/messages", upliftHandler.List)
}

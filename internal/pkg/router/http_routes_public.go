package router

import (
	"github.com/SkillBinder/GrandFinale/app/controllers"
	"github.com/SkillBinder/GrandFinale/internal/pkg/middleware"
	"github.com/gofiber/fiber/v2"
)

func (h HttpRouter) registerPublicRoutes(app *fiber.App) {
	app.Get("/health", controllers.HandleHealth)

	// Attachment downloads carry their own access control: an owning
	// session or a signed token in the query string.
	app.Get("/attachments/:uuid/download", loggedInMiddleware, controllers.HandleDownloadAttachment)

	// Couples invite landing page data (the partner is not logged in yet)
	app.Get("/invite/:token", loggedInMiddleware, controllers.HandleShowCouplesInvite)

	// Auth
	app.Post("/logout", middleware.RequireAuth, controllers.HandleAuthLogout)

	// Social OAuth
	app.Get("/auth/:provider", controllers.HandleOAuthLogin)
	app.Get("/auth/:provider/callback", controllers.HandleOAuthCallback)

	// Billing provider webhooks (no CSRF, signature-verified in controller)
	app.Post("/webhooks/stripe", controllers.HandleStripeWebhook)
}

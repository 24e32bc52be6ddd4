package router

import (
	"github.com/SkillBinder/GrandFinale/app/controllers"
	"github.com/SkillBinder/GrandFinale/internal/pkg/middleware"
	"github.com/gofiber/fiber/v2"
)

func (h HttpRouter) registerAdminRoutes(app *fiber.App) {
	adminGroup := app.Group("/admin", middleware.RequireAdmin)
	adminGroup.Get("/", controllers.HandleAdminDashboard)

	// User management
	adminGroup.Get("/users", controllers.HandleAdminListUsers)
	adminGroup.Get("/users/:id", controllers.HandleAdminGetUser)
	adminGroup.Post("/users/:id/plan", controllers.HandleAdminSetUserPlan)
	adminGroup.Post("/users/:id/status", controllers.HandleAdminSetUserStatus)

	// Runtime settings
	adminGroup.Get("/settings", controllers.HandleAdminGetSettings)
	adminGroup.Post("/settings", controllers.HandleAdminSaveSettings)

	// Review queues
	adminGroup.Get("/requests/name-changes", controllers.HandleAdminListNameChanges)
	adminGroup.Post("/requests/name-changes/:id", controllers.HandleAdminDecideNameChange)
	adminGroup.Get("/requests/support", controllers.HandleAdminListSupport)
	adminGroup.Post("/requests/support/:id", controllers.HandleAdminResolveSupport)
}

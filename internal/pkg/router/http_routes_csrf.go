package router

import (
	"strings"
	"time"

	"github.com/SkillBinder/GrandFinale/app/controllers"
	"github.com/SkillBinder/GrandFinale/internal/pkg/constants"
	"github.com/SkillBinder/GrandFinale/internal/pkg/env"
	"github.com/SkillBinder/GrandFinale/internal/pkg/middleware"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/csrf"
)

func (h HttpRouter) registerCSRFProtectedRoutes(app *fiber.App) {
	csrfConf := csrf.Config{
		KeyLookup:      "form:_csrf",
		ContextKey:     "csrf",
		CookieName:     "csrf_",
		CookieSameSite: "Lax",
		Expiration:     1 * time.Hour,
		CookieSecure:   !env.IsDev(),
		Next: func(c *fiber.Ctx) bool {
			return strings.HasPrefix(c.Path(), constants.APIPrefix+"/")
		},
	}

	group := app.Group("", cors.New(), csrf.New(csrfConf))
	group.Get("/", loggedInMiddleware, controllers.HandleHome)
	group.Get("/binder", middleware.RequireAuth, controllers.HandleBinderPage)

	// Auth forms
	group.Get("/login", loggedInMiddleware, controllers.HandleAuthLogin)
	group.Post("/login", loggedInMiddleware, controllers.HandleAuthLogin)
	group.Get("/register", loggedInMiddleware, controllers.HandleAuthRegister)
	group.Post("/register", loggedInMiddleware, controllers.HandleAuthRegister)
	group.Get("/activate", loggedInMiddleware, controllers.HandleAuthActivate)
	group.Get("/forgot-password", loggedInMiddleware, controllers.HandleForgotPassword)
	group.Post("/forgot-password", loggedInMiddleware, controllers.HandleForgotPassword)
	group.Get("/reset-password", loggedInMiddleware, controllers.HandleResetPassword)
	group.Post("/reset-password", loggedInMiddleware, controllers.HandleResetPassword)

	// Contact form (guests allowed, captcha-gated in the controller)
	group.Post("/support", loggedInMiddleware, controllers.HandleCreateSupportRequest)
}

package middleware

import (
	"github.com/gofiber/fiber/v2"

	"github.com/SkillBinder/GrandFinale/internal/pkg/usercontext"
)

func sessionLoggedIn(c *fiber.Ctx) bool {
	b, ok := c.Locals(usercontext.KeyFromProtected).(bool)
	return ok && b
}

// RequireAuth gates web pages behind a logged-in session; anonymous visitors
// land on the login form.
func RequireAuth(c *fiber.Ctx) error {
	if !sessionLoggedIn(c) {
		return c.Redirect("/login", fiber.StatusSeeOther)
	}
	return c.Next()
}

// RequireAdmin gates the admin area. Non-admin users bounce to the home page
// rather than seeing a denial.
func RequireAdmin(c *fiber.Ctx) error {
	if !sessionLoggedIn(c) {
		return c.Redirect("/login", fiber.StatusSeeOther)
	}
	if isAdmin, ok := c.Locals(usercontext.KeyIsAdmin).(bool); !ok || !isAdmin {
		return c.Redirect("/", fiber.StatusSeeOther)
	}
	return c.Next()
}

// RequireAPISessionAuth is the JSON variant of RequireAuth for /api routes.
func RequireAPISessionAuth(c *fiber.Ctx) error {
	if !sessionLoggedIn(c) {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
			"error":   "unauthorized",
			"message": "login required",
		})
	}
	return c.Next()
}

package router

import (
	"github.com/gofiber/fiber/v2"
)

// InstallRouter mounts the web and API surfaces. The HTTP router goes first:
// it initializes the session store, the OAuth providers and the global user
// context middleware that the API routes rely on.
func InstallRouter(app *fiber.App) {
	setup(app, NewHttpRouter(), NewApiRouter())
}

func setup(app *fiber.App, routers ...Router) {
	for _, r := range routers {
		r.InstallRouter(app)
	}
}

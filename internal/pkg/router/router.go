package router

import (
	"github.com/gofiber/fiber/v2"
)

// Router is implemented by each route surface that can mount itself onto the
// fiber application.
type Router interface {
	InstallRouter(app *fiber.App)
}

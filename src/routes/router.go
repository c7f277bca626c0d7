package routes

import (
	"formulate-backend/src/controllers"

	"github.com/gofiber/fiber/v2"
)

// Controllers bundles the handlers the API mounts.
type Controllers struct {
	Forms     *controllers.FormController
	Responses *controllers.ResponseController
}

func InitRoutes(app *fiber.App, h Controllers) {
	api := app.Group("/api")
	formRoutes(api, h)
	responseRoutes(api, h)

	// Liveness check.
	app.Get("/", func(c *fiber.Ctx) error {
		return c.SendString("✅ API is running...")
	})
}

package routes

import (
	"formulate-backend/src/middleware"

	"github.com/gofiber/fiber/v2"
)

func responseRoutes(router fiber.Router, h Controllers) {
	responses := router.Group("/responses")

	responses.Post("/", h.Responses.SubmitResponse)
	responses.Get("/form/:formId", middleware.AuthJWT, h.Responses.GetFormResponses)
	responses.Get("/form/:formId/summary", middleware.AuthJWT, h.Responses.GetResponseSummary)
	responses.Delete("/:id", middleware.AuthJWT, h.Responses.DeleteResponse)
}

package routes

import (
	"formulate-backend/src/middleware"

	"github.com/gofiber/fiber/v2"
)

// formRoutes mounts the builder endpoints (creator only) and the public
// respondent endpoints of a form.
func formRoutes(router fiber.Router, h Controllers) {
	forms := router.Group("/forms")

	forms.Get("/url/:uniqueUrl", h.Forms.GetPublicForm)
	forms.Post("/:id/verify-password", h.Forms.VerifyPassword)
	forms.Post("/:id/pages/:page/validate", h.Responses.ValidatePage)
	forms.Post("/:id/visibility", h.Responses.FieldVisibility)

	forms.Post("/", middleware.AuthJWT, h.Forms.CreateForm)
	forms.Get("/", middleware.AuthJWT, h.Forms.GetForms)
	forms.Get("/:id", middleware.AuthJWT, h.Forms.GetFormByID)
	forms.Put("/:id", middleware.AuthJWT, h.Forms.UpdateForm)
	forms.Delete("/:id", middleware.AuthJWT, h.Forms.DeleteForm)
	forms.Put("/:id/publish", middleware.AuthJWT, h.Forms.PublishForm)
	forms.Put("/:id/schedule", middleware.AuthJWT, h.Forms.ScheduleForm)
	forms.Put("/:id/close", middleware.AuthJWT, h.Forms.CloseForm)
	forms.Get("/:id/qrcode", middleware.AuthJWT, h.Forms.GetFormQRCode)
}

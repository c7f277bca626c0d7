// error_utils.go
package utils

import (
	"formulate-backend/src/models"

	"github.com/gofiber/fiber/v2"
)

func HandleError(c *fiber.Ctx, status int, message string) error {
	return c.Status(status).JSON(models.ErrorResponse{
		Status:  status,
		Message: message,
	})
}

// HandleFieldErrors replies 400 with per-field messages.
func HandleFieldErrors(c *fiber.Ctx, message string, errs map[string]string) error {
	return c.Status(fiber.StatusBadRequest).JSON(models.ErrorResponse{
		Status:  fiber.StatusBadRequest,
		Message: message,
		Errors:  errs,
	})
}

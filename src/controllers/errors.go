package controllers

import (
	"errors"

	"formulate-backend/src/logger"
	"formulate-backend/src/middleware"
	"formulate-backend/src/services/forms"
	"formulate-backend/src/services/responses"
	"formulate-backend/src/services/validation"
	"formulate-backend/src/utils"

	"github.com/gofiber/fiber/v2"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// statusFor maps service errors to HTTP status codes. Unknown errors are 500.
func statusFor(err error) int {
	switch {
	case errors.Is(err, forms.ErrFormNotFound), errors.Is(err, responses.ErrResponseNotFound):
		return fiber.StatusNotFound
	case errors.Is(err, forms.ErrForbidden),
		errors.Is(err, forms.ErrNotPublished),
		errors.Is(err, forms.ErrNotYetOpen),
		errors.Is(err, forms.ErrFormClosed):
		return fiber.StatusForbidden
	case errors.Is(err, forms.ErrWrongPassword):
		return fiber.StatusUnauthorized
	case errors.Is(err, forms.ErrNotEditable):
		return fiber.StatusConflict
	case errors.Is(err, forms.ErrNotPasswordProtected),
		errors.Is(err, forms.ErrInvalidSchedule),
		errors.Is(err, responses.ErrInvalidID),
		errors.Is(err, responses.ErrDraftsDisabled),
		errors.Is(err, responses.ErrDuplicate),
		errors.Is(err, responses.ErrPageOutOfRange):
		return fiber.StatusBadRequest
	}
	return fiber.StatusInternalServerError
}

func respondError(c *fiber.Ctx, err error) error {
	var defErr *forms.DefinitionError
	if errors.As(err, &defErr) {
		return utils.HandleFieldErrors(c, "Invalid form definition", defErr.Problems)
	}
	status := statusFor(err)
	if status == fiber.StatusInternalServerError {
		logger.WithError(err).WithFields(logger.Fields{"method": c.Method(), "path": c.Path()}).Error("request failed")
		return utils.HandleError(c, status, "Internal server error")
	}
	return utils.HandleError(c, status, err.Error())
}

// parseBody decodes and validates a JSON body, replying 400 on failure.
// It returns false when a reply has already been written.
func parseBody(c *fiber.Ctx, out any) (bool, error) {
	if err := c.BodyParser(out); err != nil {
		return false, utils.HandleError(c, fiber.StatusBadRequest, "Invalid input: "+err.Error())
	}
	if err := validation.Struct(out); err != nil {
		return false, utils.HandleFieldErrors(c, "Validation failed", validation.FieldErrors(err))
	}
	return true, nil
}

func paramID(c *fiber.Ctx, name string) (primitive.ObjectID, error) {
	id, err := primitive.ObjectIDFromHex(c.Params(name))
	if err != nil {
		return primitive.NilObjectID, responses.ErrInvalidID
	}
	return id, nil
}

// creatorID reads the user id AuthJWT stored on the request.
func creatorID(c *fiber.Ctx) (primitive.ObjectID, bool) {
	raw, _ := c.Locals(middleware.LocalUserID).(string)
	id, err := primitive.ObjectIDFromHex(raw)
	return id, err == nil
}

func unauthorized(c *fiber.Ctx) error {
	return utils.HandleError(c, fiber.StatusUnauthorized, "Token subject is not a user id")
}

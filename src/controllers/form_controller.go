package controllers

import (
	"context"

	"formulate-backend/src/logger"
	"formulate-backend/src/models"
	"formulate-backend/src/qrcode"
	"formulate-backend/src/utils"

	"github.com/gofiber/fiber/v2"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// FormService is what the form endpoints need from forms.Service.
type FormService interface {
	Create(ctx context.Context, creator primitive.ObjectID, req models.CreateFormRequest) (*models.Form, error)
	List(ctx context.Context, creator primitive.ObjectID, params models.PaginationParams) (*models.PaginatedResponse[models.Form], error)
	Get(ctx context.Context, creator, id primitive.ObjectID) (*models.Form, error)
	Update(ctx context.Context, creator, id primitive.ObjectID, req models.CreateFormRequest) (*models.Form, error)
	Delete(ctx context.Context, creator, id primitive.ObjectID) error
	Publish(ctx context.Context, creator, id primitive.ObjectID, password string) (*models.Form, error)
	Schedule(ctx context.Context, creator, id primitive.ObjectID, req models.ScheduleFormRequest) (*models.Form, error)
	Close(ctx context.Context, creator, id primitive.ObjectID) (*models.Form, error)
	PublicByURL(ctx context.Context, uniqueURL string) (*models.Form, error)
	VerifyPassword(ctx context.Context, id primitive.ObjectID, password string) error
}

// ResponsePurger removes the responses of a deleted form.
type ResponsePurger interface {
	DeleteForForm(ctx context.Context, formID primitive.ObjectID) (int64, error)
}

type FormController struct {
	forms     FormService
	responses ResponsePurger
	// baseURL is the public frontend that serves /form/<uniqueUrl>.
	baseURL string
}

func NewFormController(forms FormService, responses ResponsePurger, baseURL string) *FormController {
	return &FormController{forms: forms, responses: responses, baseURL: baseURL}
}

// CreateForm godoc
// @Summary      Create a form
// @Description  Create a draft form owned by the caller
// @Tags         forms
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        body body models.CreateFormRequest true "Form definition"
// @Success      201  {object}  models.Form
// @Failure      400  {object}  models.ErrorResponse
// @Failure      401  {object}  models.ErrorResponse
// @Router       /api/forms [post]
func (fc *FormController) CreateForm(c *fiber.Ctx) error {
	creator, ok := creatorID(c)
	if !ok {
		return unauthorized(c)
	}
	var req models.CreateFormRequest
	if ok, err := parseBody(c, &req); !ok {
		return err
	}
	form, err := fc.forms.Create(c.UserContext(), creator, req)
	if err != nil {
		return respondError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(form)
}

// GetForms godoc
// @Summary      List forms
// @Description  List the caller's forms with pagination
// @Tags         forms
// @Produce      json
// @Security     BearerAuth
// @Param        page    query  int     false  "Page number"
// @Param        limit   query  int     false  "Page size"
// @Param        sortBy  query  string  false  "createdAt, updatedAt, title or responseCount"
// @Param        order   query  string  false  "asc or desc"
// @Success      200  {object}  models.PaginatedResponse[models.Form]
// @Failure      401  {object}  models.ErrorResponse
// @Router       /api/forms [get]
func (fc *FormController) GetForms(c *fiber.Ctx) error {
	creator, ok := creatorID(c)
	if !ok {
		return unauthorized(c)
	}
	params := models.DefaultPagination()
	if err := c.QueryParser(&params); err != nil {
		return utils.HandleError(c, fiber.StatusBadRequest, "Invalid query: "+err.Error())
	}
	page, err := fc.forms.List(c.UserContext(), creator, params)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(page)
}

// GetFormByID godoc
// @Summary      Get a form
// @Tags         forms
// @Produce      json
// @Security     BearerAuth
// @Param        id   path  string  true  "Form ID"
// @Success      200  {object}  models.Form
// @Failure      403  {object}  models.ErrorResponse
// @Failure      404  {object}  models.ErrorResponse
// @Router       /api/forms/{id} [get]
func (fc *FormController) GetFormByID(c *fiber.Ctx) error {
	creator, ok := creatorID(c)
	if !ok {
		return unauthorized(c)
	}
	id, err := paramID(c, "id")
	if err != nil {
		return respondError(c, err)
	}
	form, err := fc.forms.Get(c.UserContext(), creator, id)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(form)
}

// UpdateForm godoc
// @Summary      Update a form
// @Description  Replace title, description, pages and settings of a draft or closed form
// @Tags         forms
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        id    path  string                    true  "Form ID"
// @Param        body  body  models.CreateFormRequest  true  "Form definition"
// @Success      200  {object}  models.Form
// @Failure      400  {object}  models.ErrorResponse
// @Failure      409  {object}  models.ErrorResponse
// @Router       /api/forms/{id} [put]
func (fc *FormController) UpdateForm(c *fiber.Ctx) error {
	creator, ok := creatorID(c)
	if !ok {
		return unauthorized(c)
	}
	id, err := paramID(c, "id")
	if err != nil {
		return respondError(c, err)
	}
	var req models.CreateFormRequest
	if ok, err := parseBody(c, &req); !ok {
		return err
	}
	form, err := fc.forms.Update(c.UserContext(), creator, id, req)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(form)
}

// DeleteForm godoc
// @Summary      Delete a form
// @Description  Delete a form and all of its responses
// @Tags         forms
// @Security     BearerAuth
// @Param        id   path  string  true  "Form ID"
// @Success      204
// @Failure      403  {object}  models.ErrorResponse
// @Failure      404  {object}  models.ErrorResponse
// @Router       /api/forms/{id} [delete]
func (fc *FormController) DeleteForm(c *fiber.Ctx) error {
	creator, ok := creatorID(c)
	if !ok {
		return unauthorized(c)
	}
	id, err := paramID(c, "id")
	if err != nil {
		return respondError(c, err)
	}
	if err := fc.forms.Delete(c.UserContext(), creator, id); err != nil {
		return respondError(c, err)
	}
	removed, err := fc.responses.DeleteForForm(c.UserContext(), id)
	if err != nil {
		logger.WithError(err).WithField("form", id.Hex()).Warn("responses of deleted form were not removed")
	} else {
		logger.WithFields(logger.Fields{"form": id.Hex(), "responses": removed}).Info("form deleted")
	}
	return c.SendStatus(fiber.StatusNoContent)
}

// PublishForm godoc
// @Summary      Publish a form
// @Description  Open the form for responses now, optionally behind a password
// @Tags         forms
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        id    path  string                     true   "Form ID"
// @Param        body  body  models.PublishFormRequest  false  "Optional password"
// @Success      200  {object}  models.Form
// @Failure      403  {object}  models.ErrorResponse
// @Router       /api/forms/{id}/publish [put]
func (fc *FormController) PublishForm(c *fiber.Ctx) error {
	creator, ok := creatorID(c)
	if !ok {
		return unauthorized(c)
	}
	id, err := paramID(c, "id")
	if err != nil {
		return respondError(c, err)
	}
	var req models.PublishFormRequest
	if len(c.Body()) > 0 {
		if ok, err := parseBody(c, &req); !ok {
			return err
		}
	}
	form, err := fc.forms.Publish(c.UserContext(), creator, id, req.Password)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(form)
}

// ScheduleForm godoc
// @Summary      Schedule a form
// @Description  Publish the form at publishDate and close it at expiryDate
// @Tags         forms
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        id    path  string                      true  "Form ID"
// @Param        body  body  models.ScheduleFormRequest  true  "Schedule"
// @Success      200  {object}  models.Form
// @Failure      400  {object}  models.ErrorResponse
// @Router       /api/forms/{id}/schedule [put]
func (fc *FormController) ScheduleForm(c *fiber.Ctx) error {
	creator, ok := creatorID(c)
	if !ok {
		return unauthorized(c)
	}
	id, err := paramID(c, "id")
	if err != nil {
		return respondError(c, err)
	}
	var req models.ScheduleFormRequest
	if ok, err := parseBody(c, &req); !ok {
		return err
	}
	form, err := fc.forms.Schedule(c.UserContext(), creator, id, req)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(form)
}

// CloseForm godoc
// @Summary      Close a form
// @Tags         forms
// @Produce      json
// @Security     BearerAuth
// @Param        id   path  string  true  "Form ID"
// @Success      200  {object}  models.Form
// @Failure      403  {object}  models.ErrorResponse
// @Router       /api/forms/{id}/close [put]
func (fc *FormController) CloseForm(c *fiber.Ctx) error {
	creator, ok := creatorID(c)
	if !ok {
		return unauthorized(c)
	}
	id, err := paramID(c, "id")
	if err != nil {
		return respondError(c, err)
	}
	form, err := fc.forms.Close(c.UserContext(), creator, id)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(form)
}

// GetFormQRCode godoc
// @Summary      Share QR code
// @Description  PNG QR code of the form's public link
// @Tags         forms
// @Produce      png
// @Security     BearerAuth
// @Param        id    path   string  true   "Form ID"
// @Param        size  query  int     false  "Image size in pixels (128-1024)"
// @Success      200  {file}  binary
// @Failure      403  {object}  models.ErrorResponse
// @Router       /api/forms/{id}/qrcode [get]
func (fc *FormController) GetFormQRCode(c *fiber.Ctx) error {
	creator, ok := creatorID(c)
	if !ok {
		return unauthorized(c)
	}
	id, err := paramID(c, "id")
	if err != nil {
		return respondError(c, err)
	}
	form, err := fc.forms.Get(c.UserContext(), creator, id)
	if err != nil {
		return respondError(c, err)
	}
	png, err := qrcode.PNG(qrcode.FormLink(fc.baseURL, form.UniqueURL), c.QueryInt("size", qrcode.DefaultSize))
	if err != nil {
		return respondError(c, err)
	}
	c.Type("png")
	return c.Send(png)
}

// GetPublicForm godoc
// @Summary      Get a form for respondents
// @Description  Fetch an open form by its unique URL (or id)
// @Tags         public
// @Produce      json
// @Param        uniqueUrl  path  string  true  "Unique URL"
// @Success      200  {object}  models.PublicForm
// @Failure      403  {object}  models.ErrorResponse
// @Failure      404  {object}  models.ErrorResponse
// @Router       /api/forms/url/{uniqueUrl} [get]
func (fc *FormController) GetPublicForm(c *fiber.Ctx) error {
	form, err := fc.forms.PublicByURL(c.UserContext(), c.Params("uniqueUrl"))
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(form.Public())
}

// VerifyPassword godoc
// @Summary      Verify a form password
// @Tags         public
// @Accept       json
// @Produce      json
// @Param        id    path  string                        true  "Form ID"
// @Param        body  body  models.VerifyPasswordRequest  true  "Password"
// @Success      200  {object}  map[string]bool
// @Failure      400  {object}  models.ErrorResponse
// @Failure      401  {object}  models.ErrorResponse
// @Router       /api/forms/{id}/verify-password [post]
func (fc *FormController) VerifyPassword(c *fiber.Ctx) error {
	id, err := paramID(c, "id")
	if err != nil {
		return respondError(c, err)
	}
	var req models.VerifyPasswordRequest
	if ok, err := parseBody(c, &req); !ok {
		return err
	}
	if err := fc.forms.VerifyPassword(c.UserContext(), id, req.Password); err != nil {
		return respondError(c, err)
	}
	return c.JSON(fiber.Map{"verified": true})
}

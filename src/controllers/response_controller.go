package controllers

import (
	"context"
	"strconv"
	"strings"
	"time"

	"formulate-backend/src/models"
	"formulate-backend/src/services/responses"
	"formulate-backend/src/services/validation"
	"formulate-backend/src/utils"

	"github.com/gofiber/fiber/v2"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// ResponseService is what the response endpoints need from responses.Service.
type ResponseService interface {
	Submit(ctx context.Context, req models.SubmitResponseRequest, meta responses.RequestMeta) (*responses.Outcome, error)
	List(ctx context.Context, creator, formID primitive.ObjectID, params models.PaginationParams) (*models.PaginatedResponse[models.Response], error)
	Delete(ctx context.Context, creator, responseID primitive.ObjectID) error
	Summary(ctx context.Context, creator, formID primitive.ObjectID, q responses.SummaryQuery) (models.Summary, error)
	ValidatePage(ctx context.Context, formID string, page int, req models.ValidatePageRequest) (validation.Result, error)
	Visibility(ctx context.Context, formID string, answers models.Answers) (map[string]bool, error)
}

type ResponseController struct {
	responses ResponseService
}

func NewResponseController(responses ResponseService) *ResponseController {
	return &ResponseController{responses: responses}
}

// SubmitResponse godoc
// @Summary      Submit a response
// @Description  Store a respondent's answers; drafts and partial saves need allowSavingDrafts
// @Tags         public
// @Accept       json
// @Produce      json
// @Param        body body models.SubmitResponseRequest true "Submission"
// @Success      201  {object}  models.SubmitResponseResult
// @Failure      400  {object}  models.ErrorResponse
// @Failure      403  {object}  models.ErrorResponse
// @Failure      404  {object}  models.ErrorResponse
// @Router       /api/responses [post]
func (rc *ResponseController) SubmitResponse(c *fiber.Ctx) error {
	var req models.SubmitResponseRequest
	if ok, err := parseBody(c, &req); !ok {
		return err
	}
	meta := responses.RequestMeta{
		IP:        c.IP(),
		UserAgent: c.Get(fiber.HeaderUserAgent),
		Referrer:  c.Get(fiber.HeaderReferer),
		Language:  c.Get(fiber.HeaderAcceptLanguage),
	}
	out, err := rc.responses.Submit(c.UserContext(), req, meta)
	if err != nil {
		return respondError(c, err)
	}
	if out.Response == nil {
		return utils.HandleFieldErrors(c, "Validation failed", out.Validation.Errors)
	}
	return c.Status(fiber.StatusCreated).JSON(models.SubmitResponseResult{
		Message:    "Response submitted successfully",
		ResponseID: out.Response.ID.Hex(),
	})
}

// ValidatePage godoc
// @Summary      Validate one page
// @Description  Check the answers of one page before moving to the next
// @Tags         public
// @Accept       json
// @Produce      json
// @Param        id    path  string                      true  "Form ID"
// @Param        page  path  int                         true  "Zero-based page index"
// @Param        body  body  models.ValidatePageRequest  true  "Answers so far"
// @Success      200  {object}  models.ValidatePageResponse
// @Failure      400  {object}  models.ErrorResponse
// @Router       /api/forms/{id}/pages/{page}/validate [post]
func (rc *ResponseController) ValidatePage(c *fiber.Ctx) error {
	page, err := strconv.Atoi(c.Params("page"))
	if err != nil {
		return respondError(c, responses.ErrPageOutOfRange)
	}
	var req models.ValidatePageRequest
	if ok, err := parseBody(c, &req); !ok {
		return err
	}
	res, err := rc.responses.ValidatePage(c.UserContext(), c.Params("id"), page, req)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(models.ValidatePageResponse{Valid: res.Valid, Errors: res.Errors})
}

// FieldVisibility godoc
// @Summary      Field visibility
// @Description  Report which fields are shown for the answers given so far
// @Tags         public
// @Accept       json
// @Produce      json
// @Param        id    path  string                      true  "Form ID"
// @Param        body  body  models.ValidatePageRequest  true  "Answers so far"
// @Success      200  {object}  map[string]bool
// @Router       /api/forms/{id}/visibility [post]
func (rc *ResponseController) FieldVisibility(c *fiber.Ctx) error {
	var req models.ValidatePageRequest
	if ok, err := parseBody(c, &req); !ok {
		return err
	}
	shown, err := rc.responses.Visibility(c.UserContext(), c.Params("id"), req.Answers)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(shown)
}

// GetFormResponses godoc
// @Summary      List responses
// @Tags         responses
// @Produce      json
// @Security     BearerAuth
// @Param        formId  path   string  true   "Form ID"
// @Param        page    query  int     false  "Page number"
// @Param        limit   query  int     false  "Page size"
// @Param        sortBy  query  string  false  "createdAt, completedAt or timeSpentMs"
// @Param        order   query  string  false  "asc or desc"
// @Success      200  {object}  models.PaginatedResponse[models.Response]
// @Failure      403  {object}  models.ErrorResponse
// @Router       /api/responses/form/{formId} [get]
func (rc *ResponseController) GetFormResponses(c *fiber.Ctx) error {
	creator, ok := creatorID(c)
	if !ok {
		return unauthorized(c)
	}
	formID, err := paramID(c, "formId")
	if err != nil {
		return respondError(c, err)
	}
	params := models.DefaultPagination()
	if err := c.QueryParser(&params); err != nil {
		return utils.HandleError(c, fiber.StatusBadRequest, "Invalid query: "+err.Error())
	}
	page, err := rc.responses.List(c.UserContext(), creator, formID, params)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(page)
}

// GetResponseSummary godoc
// @Summary      Response summary
// @Description  Aggregated statistics for the dashboard
// @Tags         responses
// @Produce      json
// @Security     BearerAuth
// @Param        formId          path   string  true   "Form ID"
// @Param        startDate       query  string  false  "RFC 3339 or YYYY-MM-DD"
// @Param        endDate         query  string  false  "RFC 3339 or YYYY-MM-DD"
// @Param        filterField     query  string  false  "Field ID to filter on"
// @Param        filterValue     query  string  false  "Value the field must hold"
// @Param        includePartial  query  bool    false  "Count partial responses"
// @Success      200  {object}  models.Summary
// @Failure      400  {object}  models.ErrorResponse
// @Failure      403  {object}  models.ErrorResponse
// @Router       /api/responses/form/{formId}/summary [get]
func (rc *ResponseController) GetResponseSummary(c *fiber.Ctx) error {
	creator, ok := creatorID(c)
	if !ok {
		return unauthorized(c)
	}
	formID, err := paramID(c, "formId")
	if err != nil {
		return respondError(c, err)
	}

	q := responses.SummaryQuery{
		IncludePartial: c.QueryBool("includePartial", false),
	}
	if q.Start, err = queryTime(c, "startDate"); err != nil {
		return utils.HandleError(c, fiber.StatusBadRequest, err.Error())
	}
	if q.End, err = queryTime(c, "endDate"); err != nil {
		return utils.HandleError(c, fiber.StatusBadRequest, err.Error())
	}
	if field, value := c.Query("filterField"), c.Query("filterValue"); field != "" && value != "" {
		q.FilterField, q.FilterValue = field, value
	}

	out, err := rc.responses.Summary(c.UserContext(), creator, formID, q)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(out)
}

// DeleteResponse godoc
// @Summary      Delete a response
// @Tags         responses
// @Security     BearerAuth
// @Param        id   path  string  true  "Response ID"
// @Success      204
// @Failure      403  {object}  models.ErrorResponse
// @Failure      404  {object}  models.ErrorResponse
// @Router       /api/responses/{id} [delete]
func (rc *ResponseController) DeleteResponse(c *fiber.Ctx) error {
	creator, ok := creatorID(c)
	if !ok {
		return unauthorized(c)
	}
	id, err := paramID(c, "id")
	if err != nil {
		return respondError(c, err)
	}
	if err := rc.responses.Delete(c.UserContext(), creator, id); err != nil {
		return respondError(c, err)
	}
	return c.SendStatus(fiber.StatusNoContent)
}

var queryTimeLayouts = []string{time.RFC3339, "2006-01-02"}

// queryTime reads an optional timestamp; a bare date means midnight UTC.
func queryTime(c *fiber.Ctx, key string) (*time.Time, error) {
	raw := strings.TrimSpace(c.Query(key))
	if raw == "" {
		return nil, nil
	}
	for _, layout := range queryTimeLayouts {
		if t, err := time.Parse(layout, raw); err == nil {
			t = t.UTC()
			return &t, nil
		}
	}
	return nil, fiber.NewError(fiber.StatusBadRequest, "Invalid "+key+": "+raw)
}

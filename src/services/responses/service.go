// Package responses runs the public submission pipeline and the creator-side
// listing, deletion and summary of responses.
package responses

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"formulate-backend/src/logger"
	"formulate-backend/src/models"
	"formulate-backend/src/services/forms"
	"formulate-backend/src/services/summary"
	"formulate-backend/src/services/validation"
	"formulate-backend/src/services/visibility"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

var (
	ErrResponseNotFound = errors.New("response not found")
	ErrInvalidID        = errors.New("invalid id")
	ErrDraftsDisabled   = errors.New("this form does not allow saving drafts")
	ErrDuplicate        = errors.New("you have already submitted this form")
	ErrPageOutOfRange   = errors.New("page does not exist")
)

// FormSource is the slice of the form store this package needs.
type FormSource interface {
	FindByID(ctx context.Context, id primitive.ObjectID) (*models.Form, error)
	IncrementResponseCount(ctx context.Context, id primitive.ObjectID, delta int64) error
}

// Guard claims a (form, ip) pair before the database check, so two
// concurrent submissions from one address cannot both pass.
type Guard interface {
	Claim(ctx context.Context, formID, ip string) (bool, error)
	Release(ctx context.Context, formID, ip string)
}

// Notifier hands a completed response to webhook delivery and notification
// emails.
type Notifier interface {
	Notify(ctx context.Context, form *models.Form, resp *models.Response)
}

// RequestMeta is what the HTTP layer knows about the respondent.
type RequestMeta struct {
	IP        string
	UserAgent string
	Referrer  string
	Language  string
}

// Outcome of a submission: either a stored response, or a failed validation.
type Outcome struct {
	Response   *models.Response
	Validation validation.Result
}

// SummaryQuery narrows the responses summarized for the dashboard.
type SummaryQuery struct {
	Start          *time.Time
	End            *time.Time
	FilterField    string
	FilterValue    string
	IncludePartial bool
}

type Service struct {
	store    Store
	forms    FormSource
	guard    Guard
	notifier Notifier
	now      func() time.Time
}

// NewService wires the pipeline. guard and notifier may be nil.
func NewService(store Store, formSource FormSource, guard Guard, notifier Notifier) *Service {
	return &Service{store: store, forms: formSource, guard: guard, notifier: notifier, now: time.Now}
}

// Store exposes the underlying store to background jobs.
func (s *Service) Store() Store {
	return s.store
}

// Submit validates and stores one submission.
func (s *Service) Submit(ctx context.Context, req models.SubmitResponseRequest, meta RequestMeta) (*Outcome, error) {
	formID, err := parseID(req.FormID)
	if err != nil {
		return nil, err
	}
	form, err := s.forms.FindByID(ctx, formID)
	if err != nil {
		return nil, err
	}
	now := s.now().UTC()
	if err := forms.CheckOpen(form, now); err != nil {
		return nil, err
	}
	if err := forms.CheckAccessCode(form, req.AccessCode); err != nil {
		return nil, err
	}

	status := req.Status
	if status == "" {
		status = models.ResponseComplete
	}
	if status != models.ResponseComplete && !form.Settings.AllowSavingDrafts {
		return nil, ErrDraftsDisabled
	}

	answers := make(models.Answers, len(req.Answers))
	for _, in := range req.Answers {
		id, err := parseID(in.FieldID)
		if err != nil {
			return nil, err
		}
		answers[id.Hex()] = in.Value
	}
	email := strings.TrimSpace(req.RespondentEmail)

	result := validation.Result{Valid: true, Errors: map[string]string{}}
	if status == models.ResponseComplete {
		result = validation.ValidateSubmission(form, answers, email)
		if !result.Valid {
			return &Outcome{Validation: result}, nil
		}
	}

	guarded := form.Settings.PreventDuplicateSubmissions && status == models.ResponseComplete && meta.IP != ""
	if guarded {
		if err := s.checkDuplicate(ctx, formID, meta.IP); err != nil {
			return nil, err
		}
	}

	client := ParseUserAgent(meta.UserAgent)
	resp := &models.Response{
		ID:              primitive.NewObjectID(),
		FormID:          formID,
		Answers:         CollectAnswers(form, answers),
		RespondentEmail: email,
		Status:          status,
		StartedAt:       now,
		TimeSpentMs:     req.TimeSpentMs,
		PageProgress:    req.PageProgress,
		IPAddress:       meta.IP,
		UserAgent:       meta.UserAgent,
		Device:          client.Device,
		Browser:         client.Browser,
		OS:              client.OS,
		Referrer:        meta.Referrer,
		Language:        meta.Language,
		Location:        req.Location,
		CreatedAt:       now,
	}
	if req.StartedAt != nil && !req.StartedAt.IsZero() {
		resp.StartedAt = req.StartedAt.UTC()
	}
	if status == models.ResponseComplete {
		resp.CompletedAt = now
	}

	if err := s.store.Insert(ctx, resp); err != nil {
		if guarded && s.guard != nil {
			s.guard.Release(ctx, formID.Hex(), meta.IP)
		}
		return nil, err
	}

	log := logger.WithFields(logger.Fields{"form": formID.Hex(), "response": resp.ID.Hex(), "status": status})
	log.Info("response stored")

	if status == models.ResponseComplete {
		if err := s.forms.IncrementResponseCount(ctx, formID, 1); err != nil {
			log.WithError(err).Warn("could not update response count")
		}
		if s.notifier != nil && (form.Settings.WebhookURL != "" || len(form.Settings.NotificationEmails) > 0) {
			s.notifier.Notify(ctx, form, resp)
		}
	}
	return &Outcome{Response: resp, Validation: result}, nil
}

func (s *Service) checkDuplicate(ctx context.Context, formID primitive.ObjectID, ip string) error {
	if s.guard != nil {
		claimed, err := s.guard.Claim(ctx, formID.Hex(), ip)
		switch {
		case err != nil:
			logger.WithError(err).Warn("duplicate guard unavailable, falling back to database")
		case !claimed:
			return ErrDuplicate
		}
	}
	exists, err := s.store.CompleteExistsForIP(ctx, formID, ip)
	if err != nil {
		if s.guard != nil {
			s.guard.Release(ctx, formID.Hex(), ip)
		}
		return err
	}
	if exists {
		return ErrDuplicate
	}
	return nil
}

// CollectAnswers keeps the answers of visible, live fields in form order and
// copies each field's label and type onto its answer. Numeric answers given
// as text are stored as numbers.
func CollectAnswers(form *models.Form, answers models.Answers) []models.Answer {
	ev := visibility.New(form, answers)
	out := make([]models.Answer, 0, len(answers))
	for _, f := range form.Fields() {
		value, ok := answers.Lookup(f.ID)
		if !ok || models.IsMissing(value) || !ev.IsVisible(f) {
			continue
		}
		if _, isNumber := f.Variant().(models.NumberVariant); isNumber {
			if n, ok := models.AsNumber(value); ok {
				value = n
			}
		}
		out = append(out, models.Answer{
			FieldID:    f.ID,
			FieldLabel: f.Label,
			FieldType:  f.Type,
			Value:      value,
		})
	}
	return out
}

// List returns one page of a form's responses, newest first by default.
func (s *Service) List(ctx context.Context, creator, formID primitive.ObjectID, params models.PaginationParams) (*models.PaginatedResponse[models.Response], error) {
	if _, err := s.owned(ctx, creator, formID); err != nil {
		return nil, err
	}
	params.Normalize("createdAt", "completedAt", "timeSpentMs")
	items, total, err := s.store.ListByForm(ctx, formID, params)
	if err != nil {
		return nil, err
	}
	return models.NewPaginatedResponse(items, total, params), nil
}

// Delete removes one response on behalf of the form's creator.
func (s *Service) Delete(ctx context.Context, creator, responseID primitive.ObjectID) error {
	resp, err := s.store.FindByID(ctx, responseID)
	if err != nil {
		return err
	}
	if _, err := s.owned(ctx, creator, resp.FormID); err != nil {
		return err
	}
	if err := s.store.Delete(ctx, responseID); err != nil {
		return err
	}
	if resp.Status == models.ResponseComplete {
		if err := s.forms.IncrementResponseCount(ctx, resp.FormID, -1); err != nil {
			logger.WithError(err).WithField("form", resp.FormID.Hex()).Warn("could not update response count")
		}
	}
	return nil
}

// DeleteForForm removes every response of a deleted form.
func (s *Service) DeleteForForm(ctx context.Context, formID primitive.ObjectID) (int64, error) {
	return s.store.DeleteByForm(ctx, formID)
}

// Summary aggregates the form's responses for the dashboard. The response
// rate always covers every response of the form; the other figures respect
// the query.
func (s *Service) Summary(ctx context.Context, creator, formID primitive.ObjectID, q SummaryQuery) (models.Summary, error) {
	form, err := s.owned(ctx, creator, formID)
	if err != nil {
		return models.Summary{}, err
	}

	filter := summary.Filter{Start: q.Start, End: q.End, Value: q.FilterValue}
	if q.FilterField != "" {
		if filter.FieldID, err = parseID(q.FilterField); err != nil {
			return models.Summary{}, err
		}
	}

	loaded, err := s.store.FindForSummary(ctx, formID, q.Start, q.End)
	if err != nil {
		return models.Summary{}, err
	}
	rate, err := s.store.CountByStatus(ctx, formID)
	if err != nil {
		return models.Summary{}, err
	}

	out := summary.Summarize(form, filter.Apply(loaded), summary.Options{IncludePartial: q.IncludePartial})
	out.ResponseRate = rate
	return out, nil
}

func (s *Service) owned(ctx context.Context, creator, formID primitive.ObjectID) (*models.Form, error) {
	form, err := s.forms.FindByID(ctx, formID)
	if err != nil {
		return nil, err
	}
	if form.Creator != creator {
		return nil, forms.ErrForbidden
	}
	return form, nil
}

func parseID(hex string) (primitive.ObjectID, error) {
	id, err := primitive.ObjectIDFromHex(strings.TrimSpace(hex))
	if err != nil {
		return primitive.NilObjectID, fmt.Errorf("%w: %q", ErrInvalidID, hex)
	}
	return id, nil
}

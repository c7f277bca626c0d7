// Package forms owns form definitions and their lifecycle: draft, scheduled,
// published and closed.
package forms

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"formulate-backend/src/logger"
	"formulate-backend/src/models"

	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"golang.org/x/crypto/bcrypt"
)

// Scheduler runs the delayed status flips of scheduled forms. It is optional:
// AcceptingResponses already honours the dates, the jobs only keep the stored
// status in step.
type Scheduler interface {
	SchedulePublish(ctx context.Context, formID primitive.ObjectID, at time.Time) error
	ScheduleClose(ctx context.Context, formID primitive.ObjectID, at time.Time) error
	Cancel(ctx context.Context, formID primitive.ObjectID)
}

type Service struct {
	store Store
	sched Scheduler
	now   func() time.Time
}

func NewService(store Store, sched Scheduler) *Service {
	return &Service{store: store, sched: sched, now: time.Now}
}

// Store exposes the underlying store to collaborating services.
func (s *Service) Store() Store {
	return s.store
}

// Create stores a new draft owned by creator.
func (s *Service) Create(ctx context.Context, creator primitive.ObjectID, req models.CreateFormRequest) (*models.Form, error) {
	pages, err := CheckDefinition(req.Pages)
	if err != nil {
		return nil, err
	}
	settings := models.DefaultSettings()
	if req.Settings != nil {
		settings = mergeSettings(*req.Settings)
	}

	now := s.now().UTC()
	form := &models.Form{
		ID:          primitive.NewObjectID(),
		Title:       strings.TrimSpace(req.Title),
		Description: req.Description,
		Creator:     creator,
		Pages:       pages,
		Status:      models.StatusDraft,
		Settings:    settings,
		UniqueURL:   newUniqueURL(),
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if err := s.store.Insert(ctx, form); err != nil {
		return nil, err
	}
	logger.WithFields(logger.Fields{"form": form.ID.Hex(), "creator": creator.Hex()}).Info("form created")
	return form, nil
}

// List returns one page of the creator's forms.
func (s *Service) List(ctx context.Context, creator primitive.ObjectID, params models.PaginationParams) (*models.PaginatedResponse[models.Form], error) {
	params.Normalize("createdAt", "updatedAt", "title", "responseCount")
	forms, total, err := s.store.ListByCreator(ctx, creator, params)
	if err != nil {
		return nil, err
	}
	return models.NewPaginatedResponse(forms, total, params), nil
}

// Get loads a form and checks that creator owns it.
func (s *Service) Get(ctx context.Context, creator, id primitive.ObjectID) (*models.Form, error) {
	form, err := s.store.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if form.Creator != creator {
		return nil, ErrForbidden
	}
	return form, nil
}

// Update replaces title, description, pages and settings of an editable form.
func (s *Service) Update(ctx context.Context, creator, id primitive.ObjectID, req models.CreateFormRequest) (*models.Form, error) {
	form, err := s.Get(ctx, creator, id)
	if err != nil {
		return nil, err
	}
	if !form.Editable() {
		return nil, ErrNotEditable
	}
	pages, err := CheckDefinition(req.Pages)
	if err != nil {
		return nil, err
	}

	form.Title = strings.TrimSpace(req.Title)
	form.Description = req.Description
	form.Pages = pages
	if req.Settings != nil {
		form.Settings = mergeSettings(*req.Settings)
	}
	form.UpdatedAt = s.now().UTC()
	if err := s.store.Replace(ctx, form); err != nil {
		return nil, err
	}
	return form, nil
}

// Delete removes the form. Its responses are removed by the caller.
func (s *Service) Delete(ctx context.Context, creator, id primitive.ObjectID) error {
	if _, err := s.Get(ctx, creator, id); err != nil {
		return err
	}
	if s.sched != nil {
		s.sched.Cancel(ctx, id)
	}
	return s.store.Delete(ctx, id)
}

// Publish opens the form now. A non-empty password turns the access code on;
// an empty one turns it off.
func (s *Service) Publish(ctx context.Context, creator, id primitive.ObjectID, password string) (*models.Form, error) {
	form, err := s.Get(ctx, creator, id)
	if err != nil {
		return nil, err
	}
	if err := setAccessCode(form, password); err != nil {
		return nil, err
	}

	now := s.now().UTC()
	form.Status = models.StatusPublished
	form.PublishDate = &now
	if form.ExpiryDate != nil && !form.ExpiryDate.After(now) {
		form.ExpiryDate = nil
	}
	form.UpdatedAt = now
	if err := s.store.Replace(ctx, form); err != nil {
		return nil, err
	}

	if s.sched != nil {
		s.sched.Cancel(ctx, id)
		if form.ExpiryDate != nil {
			s.scheduleClose(ctx, form)
		}
	}
	logger.WithFields(logger.Fields{"form": id.Hex(), "protected": form.AccessCode.Enabled}).Info("form published")
	return form, nil
}

// Schedule opens the form at req.PublishDate and optionally closes it at
// req.ExpiryDate.
func (s *Service) Schedule(ctx context.Context, creator, id primitive.ObjectID, req models.ScheduleFormRequest) (*models.Form, error) {
	now := s.now().UTC()
	if !req.PublishDate.After(now) {
		return nil, fmt.Errorf("%w: publish date must be in the future", ErrInvalidSchedule)
	}
	if req.ExpiryDate != nil && !req.ExpiryDate.After(req.PublishDate) {
		return nil, fmt.Errorf("%w: expiry date must be after the publish date", ErrInvalidSchedule)
	}

	form, err := s.Get(ctx, creator, id)
	if err != nil {
		return nil, err
	}
	if err := setAccessCode(form, req.Password); err != nil {
		return nil, err
	}

	publishAt := req.PublishDate.UTC()
	form.Status = models.StatusScheduled
	form.PublishDate = &publishAt
	form.ExpiryDate = nil
	if req.ExpiryDate != nil {
		expiry := req.ExpiryDate.UTC()
		form.ExpiryDate = &expiry
	}
	form.UpdatedAt = now
	if err := s.store.Replace(ctx, form); err != nil {
		return nil, err
	}

	if s.sched != nil {
		s.sched.Cancel(ctx, id)
		if err := s.sched.SchedulePublish(ctx, id, publishAt); err != nil {
			logger.WithError(err).WithField("form", id.Hex()).Warn("could not schedule publish job")
		}
		if form.ExpiryDate != nil {
			s.scheduleClose(ctx, form)
		}
	}
	return form, nil
}

// Close stops the form from accepting responses.
func (s *Service) Close(ctx context.Context, creator, id primitive.ObjectID) (*models.Form, error) {
	form, err := s.Get(ctx, creator, id)
	if err != nil {
		return nil, err
	}
	form.Status = models.StatusClosed
	form.UpdatedAt = s.now().UTC()
	if err := s.store.Replace(ctx, form); err != nil {
		return nil, err
	}
	if s.sched != nil {
		s.sched.Cancel(ctx, id)
	}
	return form, nil
}

// PublicByURL finds a form by its unique URL, or by id when the URL is a hex
// object id, and checks it is open to respondents.
func (s *Service) PublicByURL(ctx context.Context, uniqueURL string) (*models.Form, error) {
	form, err := s.store.FindByURL(ctx, uniqueURL)
	if errors.Is(err, ErrFormNotFound) {
		if id, idErr := primitive.ObjectIDFromHex(uniqueURL); idErr == nil {
			form, err = s.store.FindByID(ctx, id)
		}
	}
	if err != nil {
		return nil, err
	}
	if err := s.CheckOpen(form); err != nil {
		return nil, err
	}
	return form, nil
}

// CheckOpen explains why a form does not accept responses, or returns nil.
func (s *Service) CheckOpen(form *models.Form) error {
	return CheckOpen(form, s.now())
}

// CheckOpen is the time-explicit form of Service.CheckOpen.
func CheckOpen(form *models.Form, now time.Time) error {
	if form.AcceptingResponses(now) {
		return nil
	}
	switch form.Status {
	case models.StatusDraft:
		return ErrNotPublished
	case models.StatusScheduled:
		if form.ExpiryDate == nil || now.Before(*form.ExpiryDate) {
			return ErrNotYetOpen
		}
	}
	return ErrFormClosed
}

// VerifyPassword checks a respondent's password against the access code.
func (s *Service) VerifyPassword(ctx context.Context, id primitive.ObjectID, password string) error {
	form, err := s.store.FindByID(ctx, id)
	if err != nil {
		return err
	}
	if !form.AccessCode.Enabled {
		return ErrNotPasswordProtected
	}
	return CheckAccessCode(form, password)
}

// ApplyScheduledPublish is run by the worker at the publish date.
func (s *Service) ApplyScheduledPublish(ctx context.Context, id primitive.ObjectID) (bool, error) {
	return s.store.TransitionStatus(ctx, id, models.StatusPublished, models.StatusScheduled)
}

// ApplyScheduledClose is run by the worker at the expiry date.
func (s *Service) ApplyScheduledClose(ctx context.Context, id primitive.ObjectID) (bool, error) {
	return s.store.TransitionStatus(ctx, id, models.StatusClosed, models.StatusPublished, models.StatusScheduled)
}

func (s *Service) scheduleClose(ctx context.Context, form *models.Form) {
	if err := s.sched.ScheduleClose(ctx, form.ID, *form.ExpiryDate); err != nil {
		logger.WithError(err).WithField("form", form.ID.Hex()).Warn("could not schedule close job")
	}
}

// CheckAccessCode passes when the form has no access code or code matches it.
func CheckAccessCode(form *models.Form, code string) error {
	if !form.AccessCode.Enabled {
		return nil
	}
	if code == "" || bcrypt.CompareHashAndPassword([]byte(form.AccessCode.CodeHash), []byte(code)) != nil {
		return ErrWrongPassword
	}
	return nil
}

func setAccessCode(form *models.Form, password string) error {
	if password == "" {
		form.AccessCode = models.AccessCode{}
		return nil
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return fmt.Errorf("hash access code: %w", err)
	}
	form.AccessCode = models.AccessCode{Enabled: true, CodeHash: string(hash)}
	return nil
}

// mergeSettings fills the fields a client left empty with their defaults.
func mergeSettings(in models.Settings) models.Settings {
	def := models.DefaultSettings()
	if in.ProgressBarStyle == "" {
		in.ProgressBarStyle = def.ProgressBarStyle
	}
	if strings.TrimSpace(in.SubmitButtonText) == "" {
		in.SubmitButtonText = def.SubmitButtonText
	}
	return in
}

func newUniqueURL() string {
	return strings.ReplaceAll(uuid.NewString(), "-", "")[:12]
}

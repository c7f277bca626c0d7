package jobs

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"formulate-backend/src/logger"
	"formulate-backend/src/models"
	"formulate-backend/src/services/forms"
	"formulate-backend/src/services/mail"
	"formulate-backend/src/services/responses"
	"formulate-backend/src/services/webhook"

	"github.com/hibiken/asynq"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// FormTransitions applies the status flips of scheduled forms.
type FormTransitions interface {
	ApplyScheduledPublish(ctx context.Context, id primitive.ObjectID) (bool, error)
	ApplyScheduledClose(ctx context.Context, id primitive.ObjectID) (bool, error)
}

type FormFinder interface {
	FindByID(ctx context.Context, id primitive.ObjectID) (*models.Form, error)
}

type ResponseStore interface {
	FindByID(ctx context.Context, id primitive.ObjectID) (*models.Response, error)
	StatusRecorder
}

// Handlers process the tasks this package enqueues.
type Handlers struct {
	Transitions FormTransitions
	Forms       FormFinder
	Responses   ResponseStore
	Sender      webhook.Sender
	// Mailer is nil when SMTP is not configured; email tasks are then dropped.
	Mailer      mail.MailSender
}

func (h *Handlers) Register(mux *asynq.ServeMux) {
	mux.HandleFunc(TypePublishForm, h.HandlePublishForm)
	mux.HandleFunc(TypeCloseForm, h.HandleCloseForm)
	mux.HandleFunc(TypeDeliverWebhook, h.HandleDeliverWebhook)
	mux.HandleFunc(TypeNotifyEmail, h.HandleNotifyEmail)
}

func (h *Handlers) HandlePublishForm(ctx context.Context, t *asynq.Task) error {
	return h.transition(ctx, t, "published", h.Transitions.ApplyScheduledPublish)
}

func (h *Handlers) HandleCloseForm(ctx context.Context, t *asynq.Task) error {
	return h.transition(ctx, t, "closed", h.Transitions.ApplyScheduledClose)
}

func (h *Handlers) transition(ctx context.Context, t *asynq.Task, to string, apply func(context.Context, primitive.ObjectID) (bool, error)) error {
	var payload FormPayload
	if err := json.Unmarshal(t.Payload(), &payload); err != nil {
		return fmt.Errorf("%w: %v", asynq.SkipRetry, err)
	}
	id, err := primitive.ObjectIDFromHex(payload.FormID)
	if err != nil {
		return fmt.Errorf("%w: %v", asynq.SkipRetry, err)
	}

	changed, err := apply(ctx, id)
	if err != nil {
		logger.WithError(err).WithField("form", payload.FormID).Error("scheduled transition failed")
		return err
	}
	if !changed {
		// Deleted, or moved on by hand since the task was scheduled.
		logger.WithField("form", payload.FormID).Info("scheduled transition skipped")
		return nil
	}
	logger.WithFields(logger.Fields{"form": payload.FormID, "status": to}).Info("form status changed by schedule")
	return nil
}

func (h *Handlers) HandleDeliverWebhook(ctx context.Context, t *asynq.Task) error {
	form, resp, err := h.load(ctx, t)
	if err != nil || form == nil || form.Settings.WebhookURL == "" {
		return err
	}
	retried, _ := asynq.GetRetryCount(ctx)
	return deliverAndRecord(ctx, h.Sender, h.Responses, form, resp, retried+1)
}

func (h *Handlers) HandleNotifyEmail(ctx context.Context, t *asynq.Task) error {
	if h.Mailer == nil {
		logger.Warnf("notification email task dropped: SMTP is not configured")
		return nil
	}
	form, resp, err := h.load(ctx, t)
	if err != nil || form == nil || len(form.Settings.NotificationEmails) == 0 {
		return err
	}
	return sendNotices(h.Mailer, form, resp)
}

// load resolves the payload of a response task. A nil form with a nil error
// means the form or response is gone and the task has nothing to do.
func (h *Handlers) load(ctx context.Context, t *asynq.Task) (*models.Form, *models.Response, error) {
	var payload ResponsePayload
	if err := json.Unmarshal(t.Payload(), &payload); err != nil {
		return nil, nil, fmt.Errorf("%w: %v", asynq.SkipRetry, err)
	}
	formID, err := primitive.ObjectIDFromHex(payload.FormID)
	if err != nil {
		return nil, nil, fmt.Errorf("%w: %v", asynq.SkipRetry, err)
	}
	responseID, err := primitive.ObjectIDFromHex(payload.ResponseID)
	if err != nil {
		return nil, nil, fmt.Errorf("%w: %v", asynq.SkipRetry, err)
	}

	resp, err := h.Responses.FindByID(ctx, responseID)
	if errors.Is(err, responses.ErrResponseNotFound) {
		return nil, nil, nil
	}
	if err != nil {
		return nil, nil, err
	}
	form, err := h.Forms.FindByID(ctx, formID)
	if errors.Is(err, forms.ErrFormNotFound) {
		return nil, nil, nil
	}
	if err != nil {
		return nil, nil, err
	}
	return form, resp, nil
}

// NewServer builds the asynq server that runs the handlers.
func NewServer(opt asynq.RedisClientOpt, concurrency int) *asynq.Server {
	return asynq.NewServer(opt, asynq.Config{
		Concurrency: concurrency,
		Logger:      logger.Logger,
		ErrorHandler: asynq.ErrorHandlerFunc(func(ctx context.Context, task *asynq.Task, err error) {
			logger.WithError(err).WithField("task", task.Type()).Warn("task failed")
		}),
	})
}

package jobs

import (
	"context"
	"errors"
	"fmt"

	"formulate-backend/src/logger"
	"formulate-backend/src/models"
	"formulate-backend/src/services/mail"
	"formulate-backend/src/services/webhook"

	"github.com/hibiken/asynq"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

const notifyMaxRetry = 3

// StatusRecorder stores the outcome of a webhook attempt on the response.
type StatusRecorder interface {
	SetWebhookStatus(ctx context.Context, id primitive.ObjectID, status models.WebhookStatus) error
}

// Notifier queues the webhook delivery and the notification emails of a new
// response. Without a queue it delivers once in the background instead.
type Notifier struct {
	client   Enqueuer
	sender   webhook.Sender
	recorder StatusRecorder
	mailer   mail.MailSender
}

// NewNotifier accepts a nil client and a nil mailer.
func NewNotifier(client Enqueuer, sender webhook.Sender, recorder StatusRecorder, mailer mail.MailSender) *Notifier {
	return &Notifier{client: client, sender: sender, recorder: recorder, mailer: mailer}
}

func (n *Notifier) Notify(ctx context.Context, form *models.Form, resp *models.Response) {
	log := logger.WithField("response", resp.ID.Hex())

	if form.Settings.WebhookURL != "" {
		err := n.enqueue(ctx, NewDeliverWebhookTask, WebhookTaskID, form, resp)
		if err != nil {
			if n.client != nil {
				log.WithError(err).Warn("could not queue webhook, delivering inline")
			}
			go func() {
				_ = deliverAndRecord(context.Background(), n.sender, n.recorder, form, resp, 1)
			}()
		}
	}

	if len(form.Settings.NotificationEmails) > 0 && n.mailer != nil {
		err := n.enqueue(ctx, NewNotifyEmailTask, EmailTaskID, form, resp)
		if err != nil {
			if n.client != nil {
				log.WithError(err).Warn("could not queue notification email, sending inline")
			}
			go func() {
				_ = sendNotices(n.mailer, form, resp)
			}()
		}
	}
}

var errNoQueue = errors.New("no task queue")

func (n *Notifier) enqueue(ctx context.Context, build func(formID, responseID string) (*asynq.Task, error), taskID func(string) string, form *models.Form, resp *models.Response) error {
	if n.client == nil {
		return errNoQueue
	}
	task, err := build(form.ID.Hex(), resp.ID.Hex())
	if err != nil {
		return err
	}
	_, err = n.client.EnqueueContext(ctx, task,
		asynq.TaskID(taskID(resp.ID.Hex())),
		asynq.MaxRetry(notifyMaxRetry),
	)
	return err
}

// deliverAndRecord returns an error when the delivery failed, so the task
// is retried.
func deliverAndRecord(ctx context.Context, sender webhook.Sender, recorder StatusRecorder, form *models.Form, resp *models.Response, attempt int) error {
	status := webhook.Deliver(ctx, sender, form, resp, attempt)
	if err := recorder.SetWebhookStatus(ctx, resp.ID, status); err != nil {
		logger.WithError(err).WithField("response", resp.ID.Hex()).Warn("could not record webhook status")
	}
	if !status.Sent {
		return fmt.Errorf("webhook attempt %d: %s", attempt, status.Error)
	}
	return nil
}

// sendNotices mails every notification address and joins the failures.
func sendNotices(mailer mail.MailSender, form *models.Form, resp *models.Response) error {
	subject, html, err := mail.RenderResponseEmail(form, resp)
	if err != nil {
		return fmt.Errorf("render notification: %w", err)
	}
	var errs []error
	for _, to := range form.Settings.NotificationEmails {
		if err := mailer.Send(to, subject, html); err != nil {
			logger.WithError(err).WithFields(logger.Fields{"form": form.ID.Hex(), "to": to}).Warn("notification email failed")
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

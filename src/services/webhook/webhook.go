// Package webhook posts completed responses to the URL configured on a form.
package webhook

import (
	"context"
	"fmt"
	"time"

	"formulate-backend/src/logger"
	"formulate-backend/src/models"

	"github.com/gofiber/fiber/v2"
)

const (
	SourceHeader = "X-Webhook-Source"
	SourceValue  = "Formulate"
	FormHeader   = "X-Form-ID"

	DefaultTimeout = 10 * time.Second
)

// Payload is the JSON body sent to the webhook.
type Payload struct {
	FormID          string          `json:"formId"`
	FormTitle       string          `json:"formTitle"`
	ResponseID      string          `json:"responseId"`
	CompletedAt     time.Time       `json:"completedAt"`
	RespondentEmail *string         `json:"respondentEmail"`
	Answers         []PayloadAnswer `json:"answers"`
}

type PayloadAnswer struct {
	FieldID    string           `json:"fieldId"`
	FieldLabel string           `json:"fieldLabel"`
	FieldType  models.FieldType `json:"fieldType"`
	Value      any              `json:"value"`
}

// BuildPayload labels answers from the live form, falling back to the label
// stored on the answer for fields that no longer exist.
func BuildPayload(form *models.Form, resp *models.Response) Payload {
	p := Payload{
		FormID:      form.ID.Hex(),
		FormTitle:   form.Title,
		ResponseID:  resp.ID.Hex(),
		CompletedAt: resp.CompletedAt,
		Answers:     make([]PayloadAnswer, 0, len(resp.Answers)),
	}
	if resp.RespondentEmail != "" {
		email := resp.RespondentEmail
		p.RespondentEmail = &email
	}
	for _, a := range resp.Answers {
		label := a.FieldLabel
		if f, ok := form.FieldByID(a.FieldID); ok {
			label = f.Label
		}
		p.Answers = append(p.Answers, PayloadAnswer{
			FieldID:    a.FieldID.Hex(),
			FieldLabel: label,
			FieldType:  a.FieldType,
			Value:      a.Value,
		})
	}
	return p
}

// Sender delivers a payload and returns the HTTP status code it got back.
type Sender interface {
	Send(ctx context.Context, url string, p Payload) (int, error)
}

// AgentSender posts with fiber's HTTP client.
type AgentSender struct {
	Timeout time.Duration
}

func NewAgentSender(timeout time.Duration) *AgentSender {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	return &AgentSender{Timeout: timeout}
}

func (s *AgentSender) Send(ctx context.Context, url string, p Payload) (int, error) {
	timeout := s.Timeout
	if deadline, ok := ctx.Deadline(); ok {
		if left := time.Until(deadline); left < timeout {
			timeout = left
		}
	}
	if timeout <= 0 {
		return 0, context.DeadlineExceeded
	}

	agent := fiber.Post(url)
	agent.Set(SourceHeader, SourceValue)
	agent.Set(FormHeader, p.FormID)
	agent.JSON(p)
	agent.Timeout(timeout)

	code, _, errs := agent.Bytes()
	if len(errs) > 0 {
		return code, errs[0]
	}
	if code < 200 || code >= 300 {
		return code, fmt.Errorf("webhook answered %d", code)
	}
	return code, nil
}

// Deliver sends the response's payload and returns the status to record on
// the response. attempt is 1 for the first try.
func Deliver(ctx context.Context, sender Sender, form *models.Form, resp *models.Response, attempt int) models.WebhookStatus {
	status := models.WebhookStatus{Attempts: attempt, LastAttempt: time.Now().UTC()}
	code, err := sender.Send(ctx, form.Settings.WebhookURL, BuildPayload(form, resp))
	status.StatusCode = code
	if err != nil {
		status.Error = err.Error()
		logger.WithError(err).WithFields(logger.Fields{"form": form.ID.Hex(), "response": resp.ID.Hex(), "attempt": attempt}).
			Warn("webhook delivery failed")
		return status
	}
	status.Sent = true
	logger.WithFields(logger.Fields{"form": form.ID.Hex(), "response": resp.ID.Hex(), "status": code}).Debug("webhook delivered")
	return status
}

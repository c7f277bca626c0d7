package jobs

import (
	"encoding/json"

	"github.com/hibiken/asynq"
)

const (
	TypePublishForm    = "form:publish"
	TypeCloseForm      = "form:close"
	TypeDeliverWebhook = "webhook:deliver"
	TypeNotifyEmail    = "email:response"
)

type FormPayload struct {
	FormID string `json:"form_id"`
}

// ResponsePayload points a task at one stored response.
type ResponsePayload struct {
	FormID     string `json:"form_id"`
	ResponseID string `json:"response_id"`
}

func NewPublishFormTask(formID string) (*asynq.Task, error) {
	return newTask(TypePublishForm, FormPayload{FormID: formID})
}

func NewCloseFormTask(formID string) (*asynq.Task, error) {
	return newTask(TypeCloseForm, FormPayload{FormID: formID})
}

func NewDeliverWebhookTask(formID, responseID string) (*asynq.Task, error) {
	return newTask(TypeDeliverWebhook, ResponsePayload{FormID: formID, ResponseID: responseID})
}

func NewNotifyEmailTask(formID, responseID string) (*asynq.Task, error) {
	return newTask(TypeNotifyEmail, ResponsePayload{FormID: formID, ResponseID: responseID})
}

func newTask(typename string, payload any) (*asynq.Task, error) {
	b, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(typename, b), nil
}

// Task ids are stable per form so a reschedule replaces the earlier task.
func PublishTaskID(formID string) string { return "publish-form-" + formID }
func CloseTaskID(formID string) string { return "close-form-" + formID }
func WebhookTaskID(responseID string) string {
	return "webhook-" + responseID
}

func EmailTaskID(responseID string) string {
	return "notify-email-" + responseID
}

package models

import "time"

// CreateFormRequest is the builder payload for a new form or a full update.
type CreateFormRequest struct {
	Title       string    `json:"title" validate:"required,max=200"`
	Description string    `json:"description" validate:"max=2000"`
	Pages       []Page    `json:"pages" validate:"dive"`
	Settings    *Settings `json:"settings"`
}

// PublishFormRequest optionally protects the form with a password.
type PublishFormRequest struct {
	Password string `json:"password" validate:"omitempty,min=4,max=128"`
}

// ScheduleFormRequest opens the form at PublishDate and closes it at ExpiryDate.
type ScheduleFormRequest struct {
	PublishDate time.Time  `json:"publishDate" validate:"required"`
	ExpiryDate  *time.Time `json:"expiryDate" validate:"omitempty,gtfield=PublishDate"`
	Password    string     `json:"password" validate:"omitempty,min=4,max=128"`
}

type VerifyPasswordRequest struct {
	Password string `json:"password" validate:"required"`
}

// AnswerInput is one answer as posted by the respondent flow.
type AnswerInput struct {
	FieldID string `json:"fieldId" validate:"required,hexadecimal,len=24"`
	Value   any    `json:"value"`
}

// SubmitResponseRequest is the public submission payload.
type SubmitResponseRequest struct {
	FormID          string         `json:"formId" validate:"required,hexadecimal,len=24"`
	Answers         []AnswerInput  `json:"answers" validate:"dive"`
	RespondentEmail string         `json:"respondentEmail" validate:"omitempty,max=254"`
	AccessCode      string         `json:"accessCode"`
	StartedAt       *time.Time     `json:"startedAt"`
	TimeSpentMs     int64          `json:"timeSpentMs" validate:"gte=0"`
	Status          ResponseStatus `json:"status" validate:"omitempty,oneof=complete partial draft"`
	PageProgress    int            `json:"pageProgress" validate:"gte=0"`
	Location        *Location      `json:"location"`
}

// ValidatePageRequest carries the answers entered so far in the respondent flow.
type ValidatePageRequest struct {
	Answers Answers `json:"answers"`
	Email   string  `json:"email"`
}

// ValidatePageResponse is the per-field outcome shown next to each input.
type ValidatePageResponse struct {
	Valid  bool              `json:"valid"`
	Errors map[string]string `json:"errors"`
}

// SubmitResponseResult is returned on a stored submission, or with Errors set
// when validation rejected it.
type SubmitResponseResult struct {
	Message    string            `json:"message"`
	ResponseID string            `json:"responseId,omitempty"`
	Errors     map[string]string `json:"errors,omitempty"`
}

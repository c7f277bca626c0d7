package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// ResponseStatus distinguishes finished submissions from saved progress.
type ResponseStatus string

const (
	ResponseComplete ResponseStatus = "complete"
	ResponsePartial  ResponseStatus = "partial"
	ResponseDraft    ResponseStatus = "draft"
)

// Device classes derived from the respondent's user agent.
const (
	DeviceDesktop = "desktop"
	DeviceMobile  = "mobile"
	DeviceTablet  = "tablet"
	DeviceUnknown = "unknown"
)

// Answer is the value given for one field, with the field's label and type
// copied at submission time so later form edits do not change its meaning.
type Answer struct {
	FieldID    primitive.ObjectID `bson:"fieldId" json:"fieldId"`
	FieldLabel string             `bson:"fieldLabel" json:"fieldLabel"`
	FieldType  FieldType          `bson:"fieldType" json:"fieldType"`
	Value      any                `bson:"value" json:"value"`
}

// Response is one respondent's submission to a form.
type Response struct {
	ID              primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	FormID          primitive.ObjectID `bson:"form" json:"formId"`
	Answers         []Answer           `bson:"answers" json:"answers"`
	RespondentEmail string             `bson:"respondentEmail,omitempty" json:"respondentEmail,omitempty"`
	Status          ResponseStatus     `bson:"status" json:"status"`
	CompletedAt     time.Time          `bson:"completedAt,omitempty" json:"completedAt,omitempty"`
	StartedAt       time.Time          `bson:"startedAt,omitempty" json:"startedAt,omitempty"`
	TimeSpentMs     int64              `bson:"timeSpentMs,omitempty" json:"timeSpentMs,omitempty"`
	PageProgress    int                `bson:"pageProgress,omitempty" json:"pageProgress,omitempty"`
	IPAddress       string             `bson:"ipAddress,omitempty" json:"ipAddress,omitempty"`
	UserAgent       string             `bson:"userAgent,omitempty" json:"userAgent,omitempty"`
	Device          string             `bson:"device" json:"device"`
	Browser         string             `bson:"browser,omitempty" json:"browser,omitempty"`
	OS              string             `bson:"os,omitempty" json:"os,omitempty"`
	Referrer        string             `bson:"referrer,omitempty" json:"referrer,omitempty"`
	Language        string             `bson:"language,omitempty" json:"language,omitempty"`
	Location        *Location          `bson:"location,omitempty" json:"location,omitempty"`
	WebhookStatus   *WebhookStatus     `bson:"webhookStatus,omitempty" json:"webhookStatus,omitempty"`
	CreatedAt       time.Time          `bson:"createdAt" json:"createdAt"`
}

type Location struct {
	Country string `bson:"country,omitempty" json:"country,omitempty"`
	Region  string `bson:"region,omitempty" json:"region,omitempty"`
	City    string `bson:"city,omitempty" json:"city,omitempty"`
}

// WebhookStatus records the last delivery attempt of the form's webhook.
type WebhookStatus struct {
	Sent        bool      `bson:"sent" json:"sent"`
	Attempts    int       `bson:"attempts" json:"attempts"`
	LastAttempt time.Time `bson:"lastAttempt" json:"lastAttempt"`
	StatusCode  int       `bson:"statusCode,omitempty" json:"statusCode,omitempty"`
	Error       string    `bson:"error,omitempty" json:"error,omitempty"`
}

// Answers is the answered-values map the respondent flow works on, keyed by
// field id in hex.
type Answers map[string]any

// AnswerMap indexes the response's answers by field id.
func (r *Response) AnswerMap() Answers {
	out := make(Answers, len(r.Answers))
	for _, a := range r.Answers {
		out[a.FieldID.Hex()] = a.Value
	}
	return out
}

// Lookup returns the value for a field and whether it was answered at all.
func (a Answers) Lookup(id primitive.ObjectID) (any, bool) {
	v, ok := a[id.Hex()]
	return v, ok
}

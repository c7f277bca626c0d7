package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// FormStatus is the lifecycle state of a form.
type FormStatus string

const (
	StatusDraft     FormStatus = "draft"
	StatusPublished FormStatus = "published"
	StatusScheduled FormStatus = "scheduled"
	StatusClosed    FormStatus = "closed"
)

// ProgressBarStyle controls how the respondent flow renders progress.
type ProgressBarStyle string

const (
	ProgressDefault    ProgressBarStyle = "default"
	ProgressNumbered   ProgressBarStyle = "numbered"
	ProgressPercentage ProgressBarStyle = "percentage"
)

// --- Form ---
type Form struct {
	ID            primitive.ObjectID `bson:"_id,omitempty" json:"id,omitempty"`
	Title         string             `bson:"title" json:"title"`
	Description   string             `bson:"description" json:"description"`
	Creator       primitive.ObjectID `bson:"creator,omitempty" json:"creator,omitempty"`
	Pages         []Page             `bson:"pages" json:"pages"`
	Status        FormStatus         `bson:"status" json:"status"`
	Settings      Settings           `bson:"settings" json:"settings"`
	AccessCode    AccessCode         `bson:"accessCode" json:"accessCode"`
	PublishDate   *time.Time         `bson:"publishDate,omitempty" json:"publishDate,omitempty"`
	ExpiryDate    *time.Time         `bson:"expiryDate,omitempty" json:"expiryDate,omitempty"`
	UniqueURL     string             `bson:"uniqueUrl,omitempty" json:"uniqueUrl,omitempty"`
	ResponseCount int64              `bson:"responseCount" json:"responseCount"`
	CreatedAt     time.Time          `bson:"createdAt" json:"createdAt"`
	UpdatedAt     time.Time          `bson:"updatedAt" json:"updatedAt"`
}

// --- Page ---
type Page struct {
	Title       string  `bson:"title" json:"title"`
	Description string  `bson:"description,omitempty" json:"description,omitempty"`
	Order       int     `bson:"order" json:"order"`
	Fields      []Field `bson:"fields" json:"fields"`
}

// Settings are the form-level switches of the respondent flow.
type Settings struct {
	CollectEmail                bool             `bson:"collectEmail" json:"collectEmail"`
	PreventDuplicateSubmissions bool             `bson:"preventDuplicateSubmissions" json:"preventDuplicateSubmissions"`
	ShowProgressBar             bool             `bson:"showProgressBar" json:"showProgressBar"`
	ProgressBarStyle            ProgressBarStyle `bson:"progressBarStyle" json:"progressBarStyle" validate:"omitempty,oneof=default numbered percentage"`
	AllowSavingDrafts           bool             `bson:"allowSavingDrafts" json:"allowSavingDrafts"`
	SubmitButtonText            string           `bson:"submitButtonText" json:"submitButtonText"`
	RedirectURL                 string           `bson:"redirectUrl" json:"redirectUrl" validate:"omitempty,url"`
	WebhookURL                  string           `bson:"webhookUrl" json:"webhookUrl" validate:"omitempty,url"`
	NotificationEmails          []string         `bson:"notificationEmails,omitempty" json:"notificationEmails,omitempty" validate:"omitempty,dive,email"`
}

// DefaultSettings mirrors the defaults a new form starts with.
func DefaultSettings() Settings {
	return Settings{
		PreventDuplicateSubmissions: true,
		ShowProgressBar:             true,
		ProgressBarStyle:            ProgressDefault,
		SubmitButtonText:            "Submit",
	}
}

// AccessCode is the optional password gate. The hash never leaves the server.
type AccessCode struct {
	Enabled  bool   `bson:"enabled" json:"enabled"`
	CodeHash string `bson:"codeHash,omitempty" json:"-"`
}

// Fields returns every field in page-then-field order.
func (f *Form) Fields() []Field {
	var out []Field
	for _, p := range f.Pages {
		out = append(out, p.Fields...)
	}
	return out
}

// FieldByID finds a live field by id.
func (f *Form) FieldByID(id primitive.ObjectID) (Field, bool) {
	for _, p := range f.Pages {
		for _, fd := range p.Fields {
			if fd.ID == id {
				return fd, true
			}
		}
	}
	return Field{}, false
}

// FieldByOrder returns the first field, scanning pages in order, whose order
// equals the given value.
func (f *Form) FieldByOrder(order int) (Field, bool) {
	for _, p := range f.Pages {
		for _, fd := range p.Fields {
			if fd.Order == order {
				return fd, true
			}
		}
	}
	return Field{}, false
}

// AcceptingResponses reports whether a respondent may submit at time now.
func (f *Form) AcceptingResponses(now time.Time) bool {
	if f.ExpiryDate != nil && now.After(*f.ExpiryDate) {
		return false
	}
	switch f.Status {
	case StatusPublished:
		return true
	case StatusScheduled:
		return f.PublishDate != nil && !now.Before(*f.PublishDate)
	}
	return false
}

// Editable reports whether pages and fields may be mutated.
func (f *Form) Editable() bool {
	return f.Status == StatusDraft || f.Status == StatusClosed
}

// PublicForm is what a respondent sees: no creator, no access-code hash.
type PublicForm struct {
	ID                primitive.ObjectID `json:"id"`
	Title             string             `json:"title"`
	Description       string             `json:"description"`
	Pages             []Page             `json:"pages"`
	Status            FormStatus         `json:"status"`
	PublishDate       *time.Time         `json:"publishDate,omitempty"`
	ExpiryDate        *time.Time         `json:"expiryDate,omitempty"`
	Settings          Settings           `json:"settings"`
	UniqueURL         string             `json:"uniqueUrl"`
	PasswordProtected bool               `json:"passwordProtected"`
}

// Public strips the form down to its respondent view.
func (f *Form) Public() PublicForm {
	settings := f.Settings
	settings.WebhookURL = ""
	settings.NotificationEmails = nil
	return PublicForm{
		ID:                f.ID,
		Title:             f.Title,
		Description:       f.Description,
		Pages:             f.Pages,
		Status:            f.Status,
		PublishDate:       f.PublishDate,
		ExpiryDate:        f.ExpiryDate,
		Settings:          settings,
		UniqueURL:         f.UniqueURL,
		PasswordProtected: f.AccessCode.Enabled,
	}
}

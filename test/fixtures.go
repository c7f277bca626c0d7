// Package test holds builders shared by package tests.
package test

import (
	"time"

	"formulate-backend/src/models"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// FieldOpt tweaks a field built by NewField.
type FieldOpt func(*models.Field)

// NewField returns a field with a fresh id.
func NewField(order int, t models.FieldType, label string, opts ...FieldOpt) models.Field {
	f := models.Field{
		ID:    primitive.NewObjectID(),
		Order: order,
		Type:  t,
		Label: label,
	}
	for _, opt := range opts {
		opt(&f)
	}
	return f
}

func Required() FieldOpt {
	return func(f *models.Field) { f.Required = true }
}

func Options(opts ...string) FieldOpt {
	return func(f *models.Field) { f.Options = opts }
}

func Bounds(min, max float64) FieldOpt {
	return func(f *models.Field) {
		f.Min = &min
		f.Max = &max
	}
}

// DependsOn makes the field conditional on the field with the given order.
func DependsOn(order int, cond models.Condition, value any) FieldOpt {
	return func(f *models.Field) {
		f.Conditional = models.Conditional{
			IsConditional: true,
			DependsOn:     &order,
			Condition:     cond,
			Value:         value,
		}
	}
}

// NewForm wraps pages into a published form with default settings.
func NewForm(pages ...models.Page) *models.Form {
	now := time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)
	return &models.Form{
		ID:        primitive.NewObjectID(),
		Title:     "Customer feedback",
		Pages:     pages,
		Status:    models.StatusPublished,
		Settings:  models.DefaultSettings(),
		UniqueURL: "feedback",
		CreatedAt: now,
		UpdatedAt: now,
	}
}

func NewPage(title string, order int, fields ...models.Field) models.Page {
	return models.Page{Title: title, Order: order, Fields: fields}
}

// NewResponse builds a complete response whose answers copy type and label
// from the given fields, pairing fields[i] with values[i].
func NewResponse(formID primitive.ObjectID, completedAt time.Time, fields []models.Field, values ...any) models.Response {
	answers := make([]models.Answer, 0, len(values))
	for i, v := range values {
		f := fields[i]
		answers = append(answers, models.Answer{
			FieldID:    f.ID,
			FieldLabel: f.Label,
			FieldType:  f.Type,
			Value:      v,
		})
	}
	return models.Response{
		ID:          primitive.NewObjectID(),
		FormID:      formID,
		Answers:     answers,
		Status:      models.ResponseComplete,
		CompletedAt: completedAt,
		Device:      models.DeviceDesktop,
		CreatedAt:   completedAt,
	}
}

// Day returns midnight UTC plus the given hour on a fixed date in March 2024.
func Day(day, hour int) time.Time {
	return time.Date(2024, 3, day, hour, 0, 0, 0, time.UTC)
}

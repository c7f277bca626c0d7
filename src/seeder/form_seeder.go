package seeder

import (
	"context"
	"fmt"

	"formulate-backend/src/logger"
	"formulate-backend/src/models"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// FormCreator is the part of forms.Service the seeder drives.
type FormCreator interface {
	List(ctx context.Context, creator primitive.ObjectID, params models.PaginationParams) (*models.PaginatedResponse[models.Form], error)
	Create(ctx context.Context, creator primitive.ObjectID, req models.CreateFormRequest) (*models.Form, error)
	Publish(ctx context.Context, creator, id primitive.ObjectID, password string) (*models.Form, error)
}

// SeedSampleForms creates and publishes the sample forms for creator. It does
// nothing when the creator already owns a form, and returns how many forms
// it created.
func SeedSampleForms(ctx context.Context, svc FormCreator, creator primitive.ObjectID) (int, error) {
	existing, err := svc.List(ctx, creator, models.PaginationParams{Page: 1, Limit: 1})
	if err != nil {
		return 0, fmt.Errorf("list forms: %w", err)
	}
	if existing.Total > 0 {
		logger.WithField("creator", creator.Hex()).Debug("creator already has forms, skipping seed")
		return 0, nil
	}

	created := 0
	for _, req := range SampleForms() {
		form, err := svc.Create(ctx, creator, req)
		if err != nil {
			return created, fmt.Errorf("seed %q: %w", req.Title, err)
		}
		if _, err := svc.Publish(ctx, creator, form.ID, ""); err != nil {
			return created, fmt.Errorf("publish %q: %w", req.Title, err)
		}
		created++
		logger.WithFields(logger.Fields{"form": form.ID.Hex(), "uniqueUrl": form.UniqueURL}).Info("sample form seeded")
	}
	return created, nil
}

// SampleForms covers every answer shape the dashboard charts: text, number,
// rating, single and multiple choice, and a conditional follow-up.
func SampleForms() []models.CreateFormRequest {
	return []models.CreateFormRequest{
		{
			Title:       "Customer Feedback",
			Description: "Tell us how we did.",
			Pages: []models.Page{
				{
					Title: "Your visit",
					Fields: []models.Field{
						{Order: 0, Type: models.FieldRating, Label: "How satisfied are you overall?", Required: true, Max: ptr(5)},
						{Order: 1, Type: models.FieldRadio, Label: "Would you recommend us to a friend?", Required: true, Options: []string{"Yes", "No"}},
						{
							Order:    2,
							Type:     models.FieldTextarea,
							Label:    "What should we improve?",
							Required: true,
							Conditional: models.Conditional{
								IsConditional: true,
								DependsOn:     intPtr(1),
								Condition:     models.CondEquals,
								Value:         "No",
							},
						},
						{Order: 3, Type: models.FieldCheckbox, Label: "Which services did you use?", Options: []string{"Delivery", "Pickup", "Dine-in"}},
					},
				},
				{
					Title: "Stay in touch",
					Fields: []models.Field{
						{Order: 4, Type: models.FieldText, Label: "Any other comments?"},
					},
				},
			},
			Settings: &models.Settings{CollectEmail: true, PreventDuplicateSubmissions: true, ShowProgressBar: true},
		},
		{
			Title:       "Event Registration",
			Description: "Register for the spring meetup.",
			Pages: []models.Page{
				{
					Title: "Attendee",
					Fields: []models.Field{
						{Order: 0, Type: models.FieldText, Label: "Full name", Required: true},
						{Order: 1, Type: models.FieldNumber, Label: "Age", Min: ptr(0), Max: ptr(120)},
						{Order: 2, Type: models.FieldDropdown, Label: "Ticket type", Required: true, Options: []string{"Standard", "Student", "Speaker"}},
						{
							Order: 3,
							Type:  models.FieldText,
							Label: "Student ID",
							Conditional: models.Conditional{
								IsConditional: true,
								DependsOn:     intPtr(2),
								Condition:     models.CondEquals,
								Value:         "Student",
							},
						},
					},
				},
			},
			Settings: &models.Settings{AllowSavingDrafts: true, ShowProgressBar: true, ProgressBarStyle: models.ProgressNumbered},
		},
	}
}

func ptr(f float64) *float64 { return &f }
func intPtr(i int) *int { return &i }

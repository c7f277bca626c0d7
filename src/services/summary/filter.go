package summary

import (
	"slices"
	"time"

	"formulate-backend/src/models"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Filter narrows the responses a dashboard summarizes. Zero values disable
// each criterion.
type Filter struct {
	Start   *time.Time
	End     *time.Time
	FieldID primitive.ObjectID
	Value   string
}

// Match reports whether r passes every criterion. A multi-valued answer
// matches when any of its elements equals Value.
func (f Filter) Match(r *models.Response) bool {
	at := r.CompletedAt
	if at.IsZero() {
		at = r.CreatedAt
	}
	if f.Start != nil && at.Before(*f.Start) {
		return false
	}
	if f.End != nil && at.After(*f.End) {
		return false
	}
	if f.FieldID.IsZero() || f.Value == "" {
		return true
	}
	v, ok := r.AnswerMap().Lookup(f.FieldID)
	return ok && slices.Contains(models.AsStrings(v), f.Value)
}

// Apply returns the responses that match, in input order.
func (f Filter) Apply(responses []models.Response) []models.Response {
	out := make([]models.Response, 0, len(responses))
	for i := range responses {
		if f.Match(&responses[i]) {
			out = append(out, responses[i])
		}
	}
	return out
}

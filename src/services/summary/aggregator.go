// Package summary turns a form's responses into the dashboard summary. It is
// a pure function of its inputs and safe to call concurrently.
package summary

import (
	"cmp"
	"math"
	"slices"
	"time"

	"formulate-backend/src/models"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

const dayLayout = "2006-01-02"

// Options tunes which responses are summarized.
type Options struct {
	// IncludePartial adds partial responses to the complete ones.
	IncludePartial bool
}

type fieldAcc struct {
	summary models.FieldSummary
	reducer reducer
}

// Summarize aggregates responses of form. The result does not depend on the
// order of responses.
func Summarize(form *models.Form, responses []models.Response, opts Options) models.Summary {
	if form == nil {
		panic("summary: nil form")
	}

	out := models.Summary{
		ResponseOverTime:       map[string]int{},
		FieldSummaries:         map[string]models.FieldSummary{},
		DeviceStats:            map[string]int{},
		GeographicDistribution: map[string]int{},
	}

	out.ResponseRate = Rate(responses)
	included := make([]*models.Response, 0, len(responses))
	for i := range responses {
		r := &responses[i]
		if r.Status == models.ResponseComplete || (opts.IncludePartial && r.Status == models.ResponsePartial) {
			included = append(included, r)
		}
	}
	slices.SortStableFunc(included, canonical)
	out.TotalResponses = len(included)

	live := make(map[primitive.ObjectID]models.Field)
	for _, f := range form.Fields() {
		if _, dup := live[f.ID]; !dup {
			live[f.ID] = f
		}
	}

	accs := make(map[primitive.ObjectID]*fieldAcc)
	var timed []float64
	for _, r := range included {
		if day, ok := responseDay(r); ok {
			out.ResponseOverTime[day]++
		}
		out.DeviceStats[deviceOf(r)]++
		if r.Location != nil && r.Location.Country != "" {
			out.GeographicDistribution[r.Location.Country]++
		}
		if r.TimeSpentMs > 0 {
			timed = append(timed, float64(r.TimeSpentMs)/1000)
		}

		for _, a := range r.Answers {
			field, ok := live[a.FieldID]
			if !ok {
				continue
			}
			acc := accs[a.FieldID]
			if acc == nil {
				t := a.FieldType
				if t == "" {
					t = field.Type
				}
				acc = &fieldAcc{
					summary: models.FieldSummary{FieldID: a.FieldID.Hex(), Label: field.Label, Type: t},
					reducer: newReducer(models.VariantOf(t, field)),
				}
				accs[a.FieldID] = acc
			}
			if models.IsMissing(a.Value) {
				continue
			}
			acc.summary.AnswerCount++
			acc.reducer.add(a.Value)
		}
	}

	for id, acc := range accs {
		acc.reducer.finish(&acc.summary)
		out.FieldSummaries[id.Hex()] = acc.summary
	}
	out.AverageCompletionTimeSeconds = mean(timed)
	return out
}

// Rate counts responses per status.
func Rate(responses []models.Response) models.ResponseRate {
	var rate models.ResponseRate
	for i := range responses {
		switch responses[i].Status {
		case models.ResponseComplete:
			rate.Complete++
		case models.ResponsePartial:
			rate.Partial++
		case models.ResponseDraft:
			rate.Draft++
		}
	}
	return rate
}

// canonical orders responses by completion time, then id. Responses that tie
// on both keep their input order.
func canonical(a, b *models.Response) int {
	if c := a.CompletedAt.Compare(b.CompletedAt); c != 0 {
		return c
	}
	return cmp.Compare(a.ID.Hex(), b.ID.Hex())
}

func responseDay(r *models.Response) (string, bool) {
	at := r.CompletedAt
	if at.IsZero() {
		at = r.CreatedAt
	}
	if at.IsZero() {
		return "", false
	}
	return DayKey(at), true
}

func deviceOf(r *models.Response) string {
	if r.Device == "" {
		return models.DeviceUnknown
	}
	return r.Device
}

// mean rounds to two decimals; it sums in sorted order.
func mean(values []float64) float64 {
	if len(values) == 0 {
		return 0
	}
	slices.Sort(values)
	var sum float64
	for _, v := range values {
		sum += v
	}
	return math.Round(sum/float64(len(values))*100) / 100
}

// DayKey formats t the way ResponseOverTime keys are written.
func DayKey(t time.Time) string {
	return t.UTC().Format(dayLayout)
}

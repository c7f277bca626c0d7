package summary

import (
	"math"
	"slices"

	"formulate-backend/src/models"
)

// reducer folds the answers of one field into its summary statistics. A new
// set of reducers is built for every Summarize call.
type reducer interface {
	add(value any)
	finish(fs *models.FieldSummary)
}

func newReducer(v models.Variant) reducer {
	switch v := v.(type) {
	case models.TextVariant:
		return &textReducer{words: newWordCounter(), values: []string{}}
	case models.NumberVariant:
		return &numberReducer{values: []float64{}}
	case models.ChoiceVariant:
		return newChoiceReducer(v)
	default:
		return opaqueReducer{}
	}
}

type textReducer struct {
	values []string
	words  *wordCounter
}

func (r *textReducer) add(value any) {
	s := models.AsString(value)
	r.values = append(r.values, s)
	r.words.add(s)
}

func (r *textReducer) finish(fs *models.FieldSummary) {
	fs.Text = &models.TextStats{
		Values:    r.values,
		WordCloud: r.words.top(wordCloudSize),
	}
}

// numberReducer keeps values in fold order; malformed values are dropped.
type numberReducer struct {
	values []float64
}

func (r *numberReducer) add(value any) {
	if n, ok := models.AsNumber(value); ok {
		r.values = append(r.values, n)
	}
}

func (r *numberReducer) finish(fs *models.FieldSummary) {
	stats := &models.NumericStats{
		Values:       r.values,
		Distribution: map[int]int{},
	}
	fs.Numeric = stats
	if len(r.values) == 0 {
		return
	}

	sorted := slices.Clone(r.values)
	slices.Sort(sorted)

	var sum float64
	for _, v := range sorted {
		sum += v
		stats.Distribution[int(math.Round(v))]++
	}
	n := len(sorted)
	stats.Min = sorted[0]
	stats.Max = sorted[n-1]
	stats.Average = sum / float64(n)
	if n%2 == 1 {
		stats.Median = sorted[n/2]
	} else {
		stats.Median = (sorted[n/2-1] + sorted[n/2]) / 2
	}
}

// choiceReducer counts selections of the declared options. Values outside
// the options are ignored.
type choiceReducer struct {
	options  []string
	multiple bool
	counts   map[string]int
}

func newChoiceReducer(v models.ChoiceVariant) *choiceReducer {
	counts := make(map[string]int, len(v.Options))
	for _, opt := range v.Options {
		counts[opt] = 0
	}
	return &choiceReducer{options: v.Options, multiple: v.Multiple, counts: counts}
}

func (r *choiceReducer) add(value any) {
	if !r.multiple {
		r.bump(models.AsString(value))
		return
	}
	for _, picked := range models.AsStrings(value) {
		r.bump(picked)
	}
}

func (r *choiceReducer) bump(option string) {
	if _, ok := r.counts[option]; ok {
		r.counts[option]++
	}
}

func (r *choiceReducer) finish(fs *models.FieldSummary) {
	stats := &models.ChoiceStats{Counts: r.counts}
	for _, opt := range r.options {
		c := r.counts[opt]
		if c == 0 {
			continue
		}
		if stats.MostSelected == nil || c > stats.MostSelected.Count {
			stats.MostSelected = &models.OptionCount{Option: opt, Count: c}
		}
		if stats.LeastSelected == nil || c < stats.LeastSelected.Count {
			stats.LeastSelected = &models.OptionCount{Option: opt, Count: c}
		}
	}
	fs.Choice = stats
}

type opaqueReducer struct{}

func (opaqueReducer) add(any)                     {}
func (opaqueReducer) finish(*models.FieldSummary) {}

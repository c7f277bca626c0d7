package models

import "encoding/json"

// Summary is the dashboard view of a form's responses. It is derived on demand
// and never stored.
type Summary struct {
	TotalResponses               int                     `json:"totalResponses"`
	ResponseOverTime             map[string]int          `json:"responseOverTime"`
	FieldSummaries               map[string]FieldSummary `json:"fieldSummaries"`
	ResponseRate                 ResponseRate            `json:"responseRate"`
	DeviceStats                  map[string]int          `json:"deviceStats"`
	AverageCompletionTimeSeconds float64                 `json:"averageCompletionTimeSeconds"`
	GeographicDistribution       map[string]int          `json:"geographicDistribution"`
}

// ResponseRate counts the supplied responses per status, before the
// complete-only restriction is applied.
type ResponseRate struct {
	Complete int `json:"complete"`
	Partial  int `json:"partial"`
	Draft    int `json:"draft"`
}

// FieldSummary is the per-field aggregate. At most one of the stats is set,
// chosen by the answered field type; opaque types carry none.
type FieldSummary struct {
	FieldID     string    `json:"fieldId"`
	Label       string    `json:"label"`
	Type        FieldType `json:"type"`
	AnswerCount int       `json:"answerCount"`

	Text    *TextStats    `json:"-"`
	Numeric *NumericStats `json:"-"`
	Choice  *ChoiceStats  `json:"-"`
}

// MarshalJSON flattens the stats of the summary's type next to the header
// fields, the shape the dashboard charts read.
func (s FieldSummary) MarshalJSON() ([]byte, error) {
	type header struct {
		FieldID     string    `json:"fieldId"`
		Label       string    `json:"label"`
		Type        FieldType `json:"type"`
		AnswerCount int       `json:"answerCount"`
	}
	head, err := json.Marshal(header{s.FieldID, s.Label, s.Type, s.AnswerCount})
	if err != nil {
		return nil, err
	}
	var stats any
	switch {
	case s.Text != nil:
		stats = s.Text
	case s.Numeric != nil:
		stats = s.Numeric
	case s.Choice != nil:
		stats = s.Choice
	default:
		return head, nil
	}
	body, err := json.Marshal(stats)
	if err != nil {
		return nil, err
	}
	out := append(head[:len(head)-1], ',')
	return append(out, body[1:]...), nil
}

type TextStats struct {
	Values    []string    `json:"values"`
	WordCloud []WordCount `json:"wordCloud"`
}

type WordCount struct {
	Word  string `json:"word"`
	Count int    `json:"count"`
}

type NumericStats struct {
	Values       []float64   `json:"values"`
	Min          float64     `json:"min"`
	Max          float64     `json:"max"`
	Average      float64     `json:"average"`
	Median       float64     `json:"median"`
	Distribution map[int]int `json:"distribution"`
}

type ChoiceStats struct {
	Counts        map[string]int `json:"counts"`
	MostSelected  *OptionCount   `json:"mostSelected"`
	LeastSelected *OptionCount   `json:"leastSelected"`
}

type OptionCount struct {
	Option string `json:"option"`
	Count  int    `json:"count"`
}

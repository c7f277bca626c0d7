package summary

import (
	"encoding/json"
	"fmt"
	"math/rand"
	"strings"
	"testing"
	"time"

	"formulate-backend/src/models"
	"formulate-backend/test"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

func TestSummarize(t *testing.T) {
	suite := test.NewSuiteResult("Summary Tests")
	defer suite.PrintSummary()

	t.Run("NoResponses", func(t *testing.T) {
		suite.Track(t, 50*time.Millisecond)
		form := test.NewForm(test.NewPage("One", 0, test.NewField(1, models.FieldText, "Name")))
		s := Summarize(form, nil, Options{})
		assert.Equal(t, 0, s.TotalResponses)
		assert.Empty(t, s.FieldSummaries)
		assert.Empty(t, s.ResponseOverTime)
		assert.Zero(t, s.AverageCompletionTimeSeconds)
	})

	t.Run("DropdownCounts", func(t *testing.T) {
		suite.Track(t, 50*time.Millisecond)
		pick := test.NewField(1, models.FieldDropdown, "Pick", test.Options("A", "B", "C"))
		form := test.NewForm(test.NewPage("One", 0, pick))
		fields := []models.Field{pick}
		responses := []models.Response{
			test.NewResponse(form.ID, test.Day(1, 9), fields, "A"),
			test.NewResponse(form.ID, test.Day(1, 10), fields, "A"),
			test.NewResponse(form.ID, test.Day(2, 9), fields, "B"),
		}

		fs := Summarize(form, responses, Options{}).FieldSummaries[pick.ID.Hex()]
		require.NotNil(t, fs.Choice)
		assert.Equal(t, map[string]int{"A": 2, "B": 1, "C": 0}, fs.Choice.Counts)
		assert.Equal(t, &models.OptionCount{Option: "A", Count: 2}, fs.Choice.MostSelected)
		assert.Equal(t, &models.OptionCount{Option: "B", Count: 1}, fs.Choice.LeastSelected)
		assert.Equal(t, 3, fs.AnswerCount)
	})

	t.Run("CheckboxMultiIncrement", func(t *testing.T) {
		suite.Track(t, 50*time.Millisecond)
		tags := test.NewField(1, models.FieldCheckbox, "Tags", test.Options("A", "B", "C"))
		form := test.NewForm(test.NewPage("One", 0, tags))
		fields := []models.Field{tags}
		responses := []models.Response{
			test.NewResponse(form.ID, test.Day(1, 9), fields, []any{"A", "B"}),
			test.NewResponse(form.ID, test.Day(1, 10), fields, primitive.A{"A"}),
		}

		fs := Summarize(form, responses, Options{}).FieldSummaries[tags.ID.Hex()]
		require.NotNil(t, fs.Choice)
		assert.Equal(t, map[string]int{"A": 2, "B": 1, "C": 0}, fs.Choice.Counts)
	})

	t.Run("TiesAndUnknownOptions", func(t *testing.T) {
		suite.Track(t, 50*time.Millisecond)
		pick := test.NewField(1, models.FieldRadio, "Pick", test.Options("X", "Y", "Z"))
		form := test.NewForm(test.NewPage("One", 0, pick))
		fields := []models.Field{pick}
		responses := []models.Response{
			test.NewResponse(form.ID, test.Day(1, 9), fields, "Y"),
			test.NewResponse(form.ID, test.Day(1, 10), fields, "X"),
			test.NewResponse(form.ID, test.Day(1, 11), fields, "other"),
		}

		fs := Summarize(form, responses, Options{}).FieldSummaries[pick.ID.Hex()]
		require.NotNil(t, fs.Choice)
		assert.Equal(t, "X", fs.Choice.MostSelected.Option)
		assert.Equal(t, "X", fs.Choice.LeastSelected.Option)
		assert.Equal(t, 0, fs.Choice.Counts["Z"])
		assert.NotContains(t, fs.Choice.Counts, "other")
	})

	t.Run("NoSelectionsLeavesExtremesEmpty", func(t *testing.T) {
		suite.Track(t, 50*time.Millisecond)
		pick := test.NewField(1, models.FieldRadio, "Pick", test.Options("X"))
		form := test.NewForm(test.NewPage("One", 0, pick))
		r := test.NewResponse(form.ID, test.Day(1, 9), []models.Field{pick}, "nope")

		fs := Summarize(form, []models.Response{r}, Options{}).FieldSummaries[pick.ID.Hex()]
		require.NotNil(t, fs.Choice)
		assert.Nil(t, fs.Choice.MostSelected)
		assert.Nil(t, fs.Choice.LeastSelected)
	})

	t.Run("NumericStats", func(t *testing.T) {
		suite.Track(t, 50*time.Millisecond)
		n := test.NewField(1, models.FieldNumber, "N")
		form := test.NewForm(test.NewPage("One", 0, n))
		fields := []models.Field{n}

		even := []models.Response{
			test.NewResponse(form.ID, test.Day(1, 1), fields, float64(4)),
			test.NewResponse(form.ID, test.Day(1, 2), fields, int32(1)),
			test.NewResponse(form.ID, test.Day(1, 3), fields, "3"),
			test.NewResponse(form.ID, test.Day(1, 4), fields, int64(2)),
			test.NewResponse(form.ID, test.Day(1, 5), fields, "not a number"),
		}
		fs := Summarize(form, even, Options{}).FieldSummaries[n.ID.Hex()]
		require.NotNil(t, fs.Numeric)
		assert.Equal(t, 2.5, fs.Numeric.Median)
		assert.Equal(t, 2.5, fs.Numeric.Average)
		assert.Equal(t, float64(1), fs.Numeric.Min)
		assert.Equal(t, float64(4), fs.Numeric.Max)
		assert.Equal(t, []float64{4, 1, 3, 2}, fs.Numeric.Values)
		assert.Equal(t, map[int]int{1: 1, 2: 1, 3: 1, 4: 1}, fs.Numeric.Distribution)
		assert.Equal(t, 5, fs.AnswerCount)

		odd := even[1:4]
		fs = Summarize(form, odd, Options{}).FieldSummaries[n.ID.Hex()]
		require.NotNil(t, fs.Numeric)
		assert.Equal(t, float64(2), fs.Numeric.Median)
	})

	t.Run("RatingDistributionRounds", func(t *testing.T) {
		suite.Track(t, 50*time.Millisecond)
		stars := test.NewField(1, models.FieldRating, "Stars")
		form := test.NewForm(test.NewPage("One", 0, stars))
		fields := []models.Field{stars}
		responses := []models.Response{
			test.NewResponse(form.ID, test.Day(1, 1), fields, 4.6),
			test.NewResponse(form.ID, test.Day(1, 2), fields, 5),
		}
		fs := Summarize(form, responses, Options{}).FieldSummaries[stars.ID.Hex()]
		require.NotNil(t, fs.Numeric)
		assert.Equal(t, map[int]int{5: 2}, fs.Numeric.Distribution)
	})

	t.Run("WordCloud", func(t *testing.T) {
		suite.Track(t, 50*time.Millisecond)
		note := test.NewField(1, models.FieldText, "Note")
		form := test.NewForm(test.NewPage("One", 0, note))
		fields := []models.Field{note}
		responses := []models.Response{
			test.NewResponse(form.ID, test.Day(1, 1), fields, "Great service, GREAT food!"),
			test.NewResponse(form.ID, test.Day(1, 2), fields, "Food was ok; an ok day"),
		}
		fs := Summarize(form, responses, Options{}).FieldSummaries[note.ID.Hex()]
		require.NotNil(t, fs.Text)
		assert.Equal(t, []models.WordCount{
			{Word: "great", Count: 2},
			{Word: "food", Count: 2},
			{Word: "service", Count: 1},
			{Word: "was", Count: 1},
			{Word: "day", Count: 1},
		}, fs.Text.WordCloud)
		assert.Len(t, fs.Text.Values, 2)
	})

	t.Run("WordCloudKeepsTopThirty", func(t *testing.T) {
		suite.Track(t, 50*time.Millisecond)
		note := test.NewField(1, models.FieldText, "Note")
		form := test.NewForm(test.NewPage("One", 0, note))
		var words []string
		for i := 0; i < 40; i++ {
			words = append(words, fmt.Sprintf("word%02d", i))
		}
		words = append(words, "word39")
		r := test.NewResponse(form.ID, test.Day(1, 1), []models.Field{note}, strings.Join(words, " "))

		fs := Summarize(form, []models.Response{r}, Options{}).FieldSummaries[note.ID.Hex()]
		require.NotNil(t, fs.Text)
		cloud := fs.Text.WordCloud
		require.Len(t, cloud, 30)
		assert.Equal(t, models.WordCount{Word: "word39", Count: 2}, cloud[0])
		for i, wc := range cloud[1:] {
			assert.Equal(t, models.WordCount{Word: fmt.Sprintf("word%02d", i), Count: 1}, wc)
		}
	})

	t.Run("OrphanedAnswersSkipped", func(t *testing.T) {
		suite.Track(t, 50*time.Millisecond)
		kept := test.NewField(1, models.FieldText, "Kept")
		removed := test.NewField(2, models.FieldNumber, "Removed")
		form := test.NewForm(test.NewPage("One", 0, kept))
		r := test.NewResponse(form.ID, test.Day(1, 1), []models.Field{kept, removed}, "hello there", 7)

		s := Summarize(form, []models.Response{r}, Options{})
		assert.Len(t, s.FieldSummaries, 1)
		assert.Contains(t, s.FieldSummaries, kept.ID.Hex())
	})

	t.Run("DenormalizedTypeWins", func(t *testing.T) {
		suite.Track(t, 50*time.Millisecond)
		f := test.NewField(1, models.FieldText, "Was a number")
		form := test.NewForm(test.NewPage("One", 0, f))
		r := test.NewResponse(form.ID, test.Day(1, 1), []models.Field{f}, 3)
		r.Answers[0].FieldType = models.FieldNumber

		fs := Summarize(form, []models.Response{r}, Options{}).FieldSummaries[f.ID.Hex()]
		assert.Equal(t, models.FieldNumber, fs.Type)
		assert.NotNil(t, fs.Numeric)
		assert.Nil(t, fs.Text)
	})

	t.Run("OpaqueTypesCountOnly", func(t *testing.T) {
		suite.Track(t, 50*time.Millisecond)
		when := test.NewField(1, models.FieldDate, "When")
		form := test.NewForm(test.NewPage("One", 0, when))
		r := test.NewResponse(form.ID, test.Day(1, 1), []models.Field{when}, "2024-03-01")

		fs := Summarize(form, []models.Response{r}, Options{}).FieldSummaries[when.ID.Hex()]
		assert.Equal(t, 1, fs.AnswerCount)
		assert.Nil(t, fs.Text)
		assert.Nil(t, fs.Numeric)
		assert.Nil(t, fs.Choice)
	})
}

func TestSummarizeStatusesAndTotals(t *testing.T) {
	name := test.NewField(1, models.FieldText, "Name")
	form := test.NewForm(test.NewPage("One", 0, name))
	fields := []models.Field{name}

	complete := test.NewResponse(form.ID, test.Day(1, 9), fields, "ann")
	complete.TimeSpentMs = 30000
	complete.Location = &models.Location{Country: "TH"}
	second := test.NewResponse(form.ID, test.Day(1, 23), fields, "bob")
	second.TimeSpentMs = 60000
	second.Device = models.DeviceMobile
	partial := test.NewResponse(form.ID, test.Day(2, 9), fields, "cat")
	partial.Status = models.ResponsePartial
	partial.Device = ""
	draft := test.NewResponse(form.ID, test.Day(3, 9), fields, "dan")
	draft.Status = models.ResponseDraft
	all := []models.Response{complete, second, partial, draft}

	s := Summarize(form, all, Options{})
	assert.Equal(t, 2, s.TotalResponses)
	assert.Equal(t, models.ResponseRate{Complete: 2, Partial: 1, Draft: 1}, s.ResponseRate)
	assert.Equal(t, map[string]int{"2024-03-01": 2}, s.ResponseOverTime)
	assert.Equal(t, map[string]int{models.DeviceDesktop: 1, models.DeviceMobile: 1}, s.DeviceStats)
	assert.Equal(t, map[string]int{"TH": 1}, s.GeographicDistribution)
	assert.Equal(t, 45.0, s.AverageCompletionTimeSeconds)

	s = Summarize(form, all, Options{IncludePartial: true})
	assert.Equal(t, 3, s.TotalResponses)
	assert.Equal(t, 1, s.ResponseOverTime["2024-03-02"])
	assert.Equal(t, 1, s.DeviceStats[models.DeviceUnknown])
}

func TestSummarizeIsDeterministic(t *testing.T) {
	pick := test.NewField(1, models.FieldDropdown, "Pick", test.Options("A", "B"))
	note := test.NewField(2, models.FieldText, "Note")
	score := test.NewField(3, models.FieldNumber, "Score")
	form := test.NewForm(test.NewPage("One", 0, pick, note, score))
	fields := []models.Field{pick, note, score}

	var responses []models.Response
	words := []string{"alpha beta", "beta gamma", "delta alpha", "gamma gamma"}
	for i := 0; i < 40; i++ {
		responses = append(responses, test.NewResponse(form.ID, test.Day(1+i%5, i%24), fields,
			[]string{"A", "B"}[i%2], words[i%len(words)], float64(i%7)+0.1))
	}

	first, err := json.Marshal(Summarize(form, responses, Options{}))
	require.NoError(t, err)

	shuffled := append([]models.Response(nil), responses...)
	rand.New(rand.NewSource(7)).Shuffle(len(shuffled), func(i, j int) {
		shuffled[i], shuffled[j] = shuffled[j], shuffled[i]
	})
	second, err := json.Marshal(Summarize(form, shuffled, Options{}))
	require.NoError(t, err)
	assert.JSONEq(t, string(first), string(second))

	again, err := json.Marshal(Summarize(form, responses, Options{}))
	require.NoError(t, err)
	assert.Equal(t, string(first), string(again))
}

func TestSummarizeTiesWithoutIDsKeepInputOrder(t *testing.T) {
	n := test.NewField(1, models.FieldNumber, "N")
	form := test.NewForm(test.NewPage("One", 0, n))
	fields := []models.Field{n}

	var responses []models.Response
	for _, v := range []float64{5, 1, 4, 2, 3} {
		r := test.NewResponse(form.ID, test.Day(1, 9), fields, v)
		r.ID = primitive.NilObjectID
		responses = append(responses, r)
	}

	fs := Summarize(form, responses, Options{}).FieldSummaries[n.ID.Hex()]
	require.NotNil(t, fs.Numeric)
	assert.Equal(t, []float64{5, 1, 4, 2, 3}, fs.Numeric.Values)
}

func TestFieldSummaryJSONIsFlat(t *testing.T) {
	fs := models.FieldSummary{
		FieldID:     "abc",
		Type:        models.FieldNumber,
		AnswerCount: 1,
		Numeric:     &models.NumericStats{Values: []float64{2}, Min: 2, Max: 2, Average: 2, Median: 2, Distribution: map[int]int{2: 1}},
	}
	raw, err := json.Marshal(fs)
	require.NoError(t, err)
	assert.JSONEq(t, `{"fieldId":"abc","label":"","type":"number","answerCount":1,
		"values":[2],"min":2,"max":2,"average":2,"median":2,"distribution":{"2":1}}`, string(raw))
}

func TestFilter(t *testing.T) {
	pick := test.NewField(1, models.FieldCheckbox, "Pick", test.Options("A", "B"))
	fields := []models.Field{pick}
	formID := primitive.NewObjectID()
	early := test.NewResponse(formID, test.Day(1, 9), fields, []any{"A"})
	late := test.NewResponse(formID, test.Day(5, 9), fields, []any{"A", "B"})

	start := test.Day(2, 0)
	assert.Equal(t, []models.Response{late}, Filter{Start: &start}.Apply([]models.Response{early, late}))

	end := test.Day(2, 0)
	assert.Equal(t, []models.Response{early}, Filter{End: &end}.Apply([]models.Response{early, late}))

	byValue := Filter{FieldID: pick.ID, Value: "B"}
	assert.False(t, byValue.Match(&early))
	assert.True(t, byValue.Match(&late))
	assert.True(t, Filter{FieldID: pick.ID}.Match(&early))
}

package validation

import (
	"testing"
	"time"

	"formulate-backend/src/models"
	"formulate-backend/test"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestValidatePage(t *testing.T) {
	suite := test.NewSuiteResult("Validation Tests")
	defer suite.PrintSummary()

	t.Run("RequiredTextMissing", func(t *testing.T) {
		suite.Track(t, 50*time.Millisecond)
		name := test.NewField(1, models.FieldText, "Name", test.Required())
		form := test.NewForm(test.NewPage("One", 0, name))

		res := ValidatePage(form, 0, models.Answers{}, "")
		assert.False(t, res.Valid)
		require.Len(t, res.Errors, 1)
		assert.Equal(t, MsgRequired, res.Errors[name.ID.Hex()])
	})

	t.Run("RequiredButHidden", func(t *testing.T) {
		suite.Track(t, 50*time.Millisecond)
		gate := test.NewField(1, models.FieldRadio, "More?", test.Options("Yes", "No"))
		detail := test.NewField(2, models.FieldText, "Details", test.Required(), test.DependsOn(1, models.CondEquals, "Yes"))
		form := test.NewForm(test.NewPage("One", 0, gate, detail))

		res := ValidatePage(form, 0, models.Answers{gate.ID.Hex(): "No"}, "")
		assert.True(t, res.Valid)
		assert.Empty(t, res.Errors)

		res = ValidatePage(form, 0, models.Answers{gate.ID.Hex(): "Yes"}, "")
		assert.False(t, res.Valid)
		assert.Equal(t, MsgRequired, res.Errors[detail.ID.Hex()])
	})

	t.Run("NumberBounds", func(t *testing.T) {
		suite.Track(t, 50*time.Millisecond)
		score := test.NewField(1, models.FieldNumber, "Score", test.Bounds(0, 10))
		form := test.NewForm(test.NewPage("One", 0, score))

		res := ValidatePage(form, 0, models.Answers{score.ID.Hex(): float64(15)}, "")
		assert.False(t, res.Valid)
		assert.Equal(t, "Value must be at most 10", res.Errors[score.ID.Hex()])

		res = ValidatePage(form, 0, models.Answers{score.ID.Hex(): float64(5)}, "")
		assert.True(t, res.Valid)
		assert.NotContains(t, res.Errors, score.ID.Hex())

		res = ValidatePage(form, 0, models.Answers{score.ID.Hex(): "-1"}, "")
		assert.Equal(t, "Value must be at least 0", res.Errors[score.ID.Hex()])

		res = ValidatePage(form, 0, models.Answers{score.ID.Hex(): "ten"}, "")
		assert.Equal(t, MsgInvalidNumber, res.Errors[score.ID.Hex()])
	})

	t.Run("OptionalNumberAbsent", func(t *testing.T) {
		suite.Track(t, 50*time.Millisecond)
		score := test.NewField(1, models.FieldNumber, "Score", test.Bounds(0, 10))
		form := test.NewForm(test.NewPage("One", 0, score))
		assert.True(t, ValidatePage(form, 0, models.Answers{score.ID.Hex(): ""}, "").Valid)
	})

	t.Run("EmailFieldShape", func(t *testing.T) {
		suite.Track(t, 50*time.Millisecond)
		contact := test.NewField(1, models.FieldEmail, "Contact")
		form := test.NewForm(test.NewPage("One", 0, contact))

		assert.True(t, ValidatePage(form, 0, models.Answers{}, "").Valid)
		assert.True(t, ValidatePage(form, 0, models.Answers{contact.ID.Hex(): "a@b.co"}, "").Valid)
		res := ValidatePage(form, 0, models.Answers{contact.ID.Hex(): "a@b"}, "")
		assert.Equal(t, MsgInvalidEmail, res.Errors[contact.ID.Hex()])
	})

	t.Run("CheckboxRequiredEmptyList", func(t *testing.T) {
		suite.Track(t, 50*time.Millisecond)
		tags := test.NewField(1, models.FieldCheckbox, "Tags", test.Required(), test.Options("A", "B"))
		form := test.NewForm(test.NewPage("One", 0, tags))

		res := ValidatePage(form, 0, models.Answers{tags.ID.Hex(): []any{}}, "")
		assert.Equal(t, MsgRequired, res.Errors[tags.ID.Hex()])
		assert.True(t, ValidatePage(form, 0, models.Answers{tags.ID.Hex(): []any{"A"}}, "").Valid)
	})

	t.Run("UndeclaredOptionOnlyFailsSubmission", func(t *testing.T) {
		suite.Track(t, 50*time.Millisecond)
		tags := test.NewField(1, models.FieldCheckbox, "Tags", test.Options("A", "B"))
		pick := test.NewField(2, models.FieldDropdown, "Pick", test.Options("X", "Y"))
		form := test.NewForm(test.NewPage("One", 0, tags, pick))
		answers := models.Answers{tags.ID.Hex(): []any{"A", "Z"}, pick.ID.Hex(): "W"}

		assert.True(t, ValidatePage(form, 0, answers, "").Valid)
		res := ValidateSubmission(form, answers, "")
		assert.Equal(t, MsgInvalidOption, res.Errors[tags.ID.Hex()])
		assert.Equal(t, MsgInvalidOption, res.Errors[pick.ID.Hex()])
		assert.True(t, ValidateSubmission(form, models.Answers{pick.ID.Hex(): "Y"}, "").Valid)
	})

	t.Run("CollectEmailOnFirstPageOnly", func(t *testing.T) {
		suite.Track(t, 50*time.Millisecond)
		form := test.NewForm(
			test.NewPage("One", 0, test.NewField(1, models.FieldText, "Name")),
			test.NewPage("Two", 1, test.NewField(1, models.FieldText, "City")),
		)
		form.Settings.CollectEmail = true

		res := ValidatePage(form, 0, models.Answers{}, "")
		assert.Equal(t, MsgEmailRequired, res.Errors[EmailKey])
		res = ValidatePage(form, 0, models.Answers{}, "not-an-email")
		assert.Equal(t, MsgInvalidEmail, res.Errors[EmailKey])
		res = ValidatePage(form, 0, models.Answers{}, "a b@c.d")
		assert.Equal(t, MsgInvalidEmail, res.Errors[EmailKey])
		assert.True(t, ValidatePage(form, 0, models.Answers{}, "jane@example.com").Valid)
		assert.True(t, ValidatePage(form, 1, models.Answers{}, "").Valid)
	})

	t.Run("OutOfRangePagePanics", func(t *testing.T) {
		form := test.NewForm(test.NewPage("One", 0))
		assert.Panics(t, func() { ValidatePage(form, 1, nil, "") })
		assert.Panics(t, func() { ValidatePage(form, -1, nil, "") })
		assert.Panics(t, func() { ValidatePage(nil, 0, nil, "") })
	})
}

func TestValidateSubmission(t *testing.T) {
	first := test.NewField(1, models.FieldText, "Name", test.Required())
	second := test.NewField(1, models.FieldRating, "Rating", test.Required())
	form := test.NewForm(test.NewPage("One", 0, first), test.NewPage("Two", 1, second))
	form.Settings.CollectEmail = true

	res := ValidateSubmission(form, models.Answers{first.ID.Hex(): "Jo", second.ID.Hex(): float64(9)}, "")
	assert.False(t, res.Valid)
	assert.Equal(t, MsgEmailRequired, res.Errors[EmailKey])
	assert.Equal(t, "Value must be at most 5", res.Errors[second.ID.Hex()])
	assert.NotContains(t, res.Errors, first.ID.Hex())

	res = ValidateSubmission(form, models.Answers{first.ID.Hex(): "Jo", second.ID.Hex(): int32(4)}, "jo@example.org")
	assert.True(t, res.Valid)
}

func TestStructAndFieldErrors(t *testing.T) {
	req := models.SubmitResponseRequest{
		FormID:  "nope",
		Answers: []models.AnswerInput{{FieldID: ""}},
		Status:  "finished",
	}
	errs := FieldErrors(Struct(req))
	assert.Contains(t, errs, "formId")
	assert.Equal(t, MsgRequired, errs["answers[0].fieldId"])
	assert.Equal(t, "Must be one of: complete partial draft", errs["status"])

	assert.Nil(t, FieldErrors(nil))
	assert.NoError(t, Struct(models.VerifyPasswordRequest{Password: "secret"}))
}

func TestIsEmail(t *testing.T) {
	for addr, want := range map[string]bool{
		"a@b.c":           true,
		"first.last@x.io": true,
		"a@@b.c":          false,
		"@b.c":            false,
		"a@b":             false,
		"":                false,
	} {
		assert.Equal(t, want, IsEmail(addr), addr)
	}
}

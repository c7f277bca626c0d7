// Package validation checks proposed answers against a form, one page at a
// time, skipping fields the visibility rules hide. Failures come back as a
// field -> message map; they are data, not errors.
package validation

import (
	"fmt"
	"slices"
	"strings"

	"formulate-backend/src/models"
	"formulate-backend/src/services/visibility"
)

// EmailKey is the error key of the respondent email on the first page.
const EmailKey = "email"

const (
	MsgRequired      = "This field is required"
	MsgInvalidEmail  = "Please enter a valid email address"
	MsgEmailRequired = "Email address is required"
	MsgInvalidNumber = "Please enter a valid number"
	MsgInvalidOption = "Please select one of the available options"
)

// Result is the outcome of validating a page or a whole submission.
type Result struct {
	Valid  bool              `json:"valid"`
	Errors map[string]string `json:"errors"`
}

func newResult() Result {
	return Result{Valid: true, Errors: map[string]string{}}
}

func (r *Result) fail(key, msg string) {
	if _, seen := r.Errors[key]; seen {
		return
	}
	r.Errors[key] = msg
	r.Valid = false
}

// ValidatePage validates the page at pageIndex. The form must be non-nil and
// the index in range; anything else is a caller bug and panics.
func ValidatePage(form *models.Form, pageIndex int, answers models.Answers, email string) Result {
	if form == nil {
		panic("validation: nil form")
	}
	if pageIndex < 0 || pageIndex >= len(form.Pages) {
		panic(fmt.Sprintf("validation: page index %d out of range [0,%d)", pageIndex, len(form.Pages)))
	}
	res := newResult()
	if pageIndex == 0 {
		checkEmail(form, email, &res)
	}
	checkPage(form.Pages[pageIndex], visibility.New(form, answers), answers, false, &res)
	return res
}

// ValidateSubmission validates every page at once, for the server side of a
// final submit. Unlike ValidatePage it also rejects choice answers that are
// not among the field's options.
func ValidateSubmission(form *models.Form, answers models.Answers, email string) Result {
	if form == nil {
		panic("validation: nil form")
	}
	res := newResult()
	checkEmail(form, email, &res)
	ev := visibility.New(form, answers)
	for _, page := range form.Pages {
		checkPage(page, ev, answers, true, &res)
	}
	return res
}

func checkEmail(form *models.Form, email string, res *Result) {
	if !form.Settings.CollectEmail {
		return
	}
	email = strings.TrimSpace(email)
	switch {
	case email == "":
		res.fail(EmailKey, MsgEmailRequired)
	case !IsEmail(email):
		res.fail(EmailKey, MsgInvalidEmail)
	}
}

func checkPage(page models.Page, ev *visibility.Evaluator, answers models.Answers, options bool, res *Result) {
	for _, field := range page.Fields {
		if !ev.IsVisible(field) {
			continue
		}
		value, _ := answers.Lookup(field.ID)
		msg := CheckField(field, value)
		if msg == "" && options {
			msg = CheckOptions(field, value)
		}
		if msg != "" {
			res.fail(field.ID.Hex(), msg)
		}
	}
}

// CheckField returns the message for the first failing rule of a visible
// field, or "" when the value is acceptable.
func CheckField(field models.Field, value any) string {
	if models.IsMissing(value) {
		if field.Required {
			return MsgRequired
		}
		return ""
	}

	switch v := field.Variant().(type) {
	case models.TextVariant:
		if v.Email && !IsEmail(strings.TrimSpace(models.AsString(value))) {
			return MsgInvalidEmail
		}
	case models.NumberVariant:
		n, ok := models.AsNumber(value)
		if !ok {
			return MsgInvalidNumber
		}
		if v.Min != nil && n < *v.Min {
			return "Value must be at least " + models.FormatNumber(*v.Min)
		}
		if v.Max != nil && n > *v.Max {
			return "Value must be at most " + models.FormatNumber(*v.Max)
		}
	}
	return ""
}

// CheckOptions rejects a choice answer naming a value the field does not
// declare. Fields without options accept anything.
func CheckOptions(field models.Field, value any) string {
	v, ok := field.Variant().(models.ChoiceVariant)
	if !ok || len(v.Options) == 0 || models.IsMissing(value) {
		return ""
	}
	for _, picked := range models.AsStrings(value) {
		if !slices.Contains(v.Options, picked) {
			return MsgInvalidOption
		}
	}
	return ""
}

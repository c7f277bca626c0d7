// Package visibility decides which fields of a form are shown for the answers
// entered so far. The same rules drive the respondent flow, the builder
// preview, server-side validation and the submission pipeline.
package visibility

import (
	"strings"

	"formulate-backend/src/logger"
	"formulate-backend/src/models"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Evaluator answers visibility questions for one form and one snapshot of
// answers. It memoizes per field id and is not safe for concurrent use; build
// one per request.
type Evaluator struct {
	form    *models.Form
	answers models.Answers
	memo    map[primitive.ObjectID]bool
	active  map[primitive.ObjectID]bool
}

// New panics on a nil form: that is a caller bug, not a runtime condition.
func New(form *models.Form, answers models.Answers) *Evaluator {
	if form == nil {
		panic("visibility: nil form")
	}
	return &Evaluator{
		form:    form,
		answers: answers,
		memo:    make(map[primitive.ObjectID]bool),
		active:  make(map[primitive.ObjectID]bool),
	}
}

// IsFieldVisible reports whether field should be shown given answers.
func IsFieldVisible(form *models.Form, field models.Field, answers models.Answers) bool {
	return New(form, answers).IsVisible(field)
}

// IsVisible applies the field's conditional rule. Rules that cannot be
// resolved never hide a field.
func (e *Evaluator) IsVisible(field models.Field) bool {
	rule := field.Conditional
	if !rule.HasDependency() {
		return true
	}

	tracked := !field.ID.IsZero()
	if tracked {
		if v, ok := e.memo[field.ID]; ok {
			return v
		}
		if e.active[field.ID] {
			logger.WithFields(logger.Fields{"field": field.ID.Hex(), "dependsOn": *rule.DependsOn}).
				Debug("visibility: conditional cycle, showing field")
			return true
		}
		e.active[field.ID] = true
		defer delete(e.active, field.ID)
	}

	visible := true
	dep, ok := e.form.FieldByOrder(*rule.DependsOn)
	if !ok {
		logger.WithFields(logger.Fields{"field": field.ID.Hex(), "dependsOn": *rule.DependsOn}).
			Debug("visibility: dependency not found, showing field")
	} else {
		visible = Evaluate(rule.Condition, e.valueOf(dep), rule.Value)
	}

	if tracked {
		e.memo[field.ID] = visible
	}
	return visible
}

// Visible returns the visibility of every field, keyed by field id in hex.
func (e *Evaluator) Visible() map[string]bool {
	out := make(map[string]bool)
	for _, f := range e.form.Fields() {
		out[f.ID.Hex()] = e.IsVisible(f)
	}
	return out
}

// valueOf is the dependency's answer, or nil when the dependency is hidden.
func (e *Evaluator) valueOf(dep models.Field) any {
	if !e.IsVisible(dep) {
		return nil
	}
	v, _ := e.answers.Lookup(dep.ID)
	return v
}

// Evaluate applies one condition to the dependency's value. An empty
// condition means equals; an unknown one keeps the field visible.
func Evaluate(cond models.Condition, value, target any) bool {
	switch cond {
	case models.CondEquals, "":
		return models.AsString(value) == models.AsString(target)
	case models.CondNotEquals:
		return models.AsString(value) != models.AsString(target)
	case models.CondContains:
		return strings.Contains(models.AsString(value), models.AsString(target))
	case models.CondNotContains:
		return !strings.Contains(models.AsString(value), models.AsString(target))
	case models.CondGreaterThan:
		a, b, ok := numbers(value, target)
		return ok && a > b
	case models.CondLessThan:
		a, b, ok := numbers(value, target)
		return ok && a < b
	case models.CondIsEmpty:
		return models.IsBlank(value)
	case models.CondIsNotEmpty:
		return !models.IsBlank(value)
	default:
		logger.Debugf("visibility: unknown condition %q, showing field", cond)
		return true
	}
}

func numbers(value, target any) (float64, float64, bool) {
	a, ok := models.AsNumber(value)
	if !ok {
		return 0, 0, false
	}
	b, ok := models.AsNumber(target)
	if !ok {
		return 0, 0, false
	}
	return a, b, true
}

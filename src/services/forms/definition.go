package forms

import (
	"fmt"

	"formulate-backend/src/logger"
	"formulate-backend/src/models"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// CheckDefinition normalizes pages in place and reports every structural
// problem at once. It assigns ids to new fields, renumbers pages, and
// defaults empty conditions to equals. A form without pages gets one empty
// page.
func CheckDefinition(pages []models.Page) ([]models.Page, error) {
	if len(pages) == 0 {
		return []models.Page{{Title: "Page 1", Order: 0, Fields: []models.Field{}}}, nil
	}

	problems := map[string]string{}
	seenIDs := map[primitive.ObjectID]bool{}

	// orders already used by a field earlier in flattened order
	earlier := map[int]bool{}

	for pi := range pages {
		page := &pages[pi]
		page.Order = pi
		if page.Fields == nil {
			page.Fields = []models.Field{}
		}
		orders := map[int]bool{}

		for fi := range page.Fields {
			field := &page.Fields[fi]
			path := fmt.Sprintf("pages[%d].fields[%d]", pi, fi)

			if field.ID.IsZero() || seenIDs[field.ID] {
				field.ID = primitive.NewObjectID()
			}
			seenIDs[field.ID] = true

			if !field.Type.Known() {
				problems[path+".type"] = fmt.Sprintf("unknown field type %q", field.Type)
			}
			if orders[field.Order] {
				problems[path+".order"] = fmt.Sprintf("order %d is used twice on this page", field.Order)
			}
			orders[field.Order] = true

			switch v := field.Variant().(type) {
			case models.ChoiceVariant:
				if len(v.Options) == 0 {
					problems[path+".options"] = "at least one option is required"
				}
			case models.NumberVariant:
				if v.Min != nil && v.Max != nil && *v.Min > *v.Max {
					problems[path+".min"] = "min must not be greater than max"
				}
			}

			rule := &field.Conditional
			if rule.Condition == "" {
				rule.Condition = models.CondEquals
			}
			if !rule.Condition.Valid() {
				problems[path+".conditional.condition"] = fmt.Sprintf("unknown condition %q", rule.Condition)
			}
			if rule.HasDependency() {
				switch {
				case earlier[*rule.DependsOn]:
				case dependsOnLater(pages, *rule.DependsOn, pi, fi):
					problems[path+".conditional.dependsOn"] = "a field can only depend on an earlier field"
				default:
					logger.WithFields(logger.Fields{"path": path, "dependsOn": *rule.DependsOn}).
						Debug("conditional refers to a missing field; it will always show")
				}
			}
			earlier[field.Order] = true
		}
	}

	if len(problems) > 0 {
		return pages, &DefinitionError{Problems: problems}
	}
	return pages, nil
}

// dependsOnLater reports whether order first resolves at or after the field
// at (pi, fi) in flattened order.
func dependsOnLater(pages []models.Page, order, pi, fi int) bool {
	for p := pi; p < len(pages); p++ {
		start := 0
		if p == pi {
			start = fi
		}
		for f := start; f < len(pages[p].Fields); f++ {
			if pages[p].Fields[f].Order == order {
				return true
			}
		}
	}
	return false
}

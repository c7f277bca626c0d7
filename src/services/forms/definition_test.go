package forms

import (
	"errors"
	"testing"

	"formulate-backend/src/models"
	"formulate-backend/test"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

func TestCheckDefinition(t *testing.T) {
	t.Run("EmptyGetsDefaultPage", func(t *testing.T) {
		pages, err := CheckDefinition(nil)
		require.NoError(t, err)
		require.Len(t, pages, 1)
		assert.Equal(t, "Page 1", pages[0].Title)
		assert.NotNil(t, pages[0].Fields)
	})

	t.Run("AssignsIDsAndDefaults", func(t *testing.T) {
		f := test.NewField(1, models.FieldText, "Name")
		f.ID = primitive.NilObjectID
		dup := test.NewField(2, models.FieldText, "Again")
		twin := test.NewField(3, models.FieldText, "Twin")
		twin.ID = dup.ID
		cond := test.NewField(4, models.FieldText, "Cond", test.DependsOn(1, "", "x"))

		pages, err := CheckDefinition([]models.Page{{Title: "A", Order: 7, Fields: []models.Field{f, dup, twin, cond}}})
		require.NoError(t, err)
		assert.Equal(t, 0, pages[0].Order)
		assert.False(t, pages[0].Fields[0].ID.IsZero())
		assert.NotEqual(t, pages[0].Fields[1].ID, pages[0].Fields[2].ID)
		assert.Equal(t, models.CondEquals, pages[0].Fields[3].Conditional.Condition)
	})

	t.Run("ReportsEveryProblem", func(t *testing.T) {
		noOptions := test.NewField(1, models.FieldDropdown, "Pick")
		badType := test.NewField(2, models.FieldType("slider"), "Slide")
		sameOrder := test.NewField(2, models.FieldText, "Clash")
		badBounds := test.NewField(3, models.FieldNumber, "N", test.Bounds(10, 1))
		badCond := test.NewField(4, models.FieldText, "C", test.DependsOn(1, models.Condition("around"), 1))
		forward := test.NewField(5, models.FieldText, "Fwd", test.DependsOn(6, models.CondEquals, "y"))
		later := test.NewField(6, models.FieldText, "Later")

		_, err := CheckDefinition([]models.Page{test.NewPage("One", 0, noOptions, badType, sameOrder, badBounds, badCond, forward, later)})
		var defErr *DefinitionError
		require.True(t, errors.As(err, &defErr))
		assert.Equal(t, map[string]string{
			"pages[0].fields[0].options":               "at least one option is required",
			"pages[0].fields[1].type":                  `unknown field type "slider"`,
			"pages[0].fields[2].order":                 "order 2 is used twice on this page",
			"pages[0].fields[3].min":                   "min must not be greater than max",
			"pages[0].fields[4].conditional.condition": `unknown condition "around"`,
			"pages[0].fields[5].conditional.dependsOn": "a field can only depend on an earlier field",
		}, defErr.Problems)
		assert.Contains(t, err.Error(), "invalid form definition")
	})

	t.Run("SelfReferenceRejected", func(t *testing.T) {
		self := test.NewField(1, models.FieldText, "Self", test.DependsOn(1, models.CondIsEmpty, nil))
		_, err := CheckDefinition([]models.Page{test.NewPage("One", 0, self)})
		assert.Error(t, err)
	})

	t.Run("DependencyOnEarlierPageAccepted", func(t *testing.T) {
		first := test.NewField(1, models.FieldRadio, "Q", test.Options("Yes", "No"))
		second := test.NewField(1, models.FieldText, "Why", test.DependsOn(1, models.CondEquals, "Yes"))
		_, err := CheckDefinition([]models.Page{test.NewPage("One", 0, first), test.NewPage("Two", 1, second)})
		assert.NoError(t, err)
	})

	t.Run("DanglingDependencyAccepted", func(t *testing.T) {
		f := test.NewField(1, models.FieldText, "Orphan", test.DependsOn(99, models.CondEquals, "Yes"))
		_, err := CheckDefinition([]models.Page{test.NewPage("One", 0, f)})
		assert.NoError(t, err)
	})
}

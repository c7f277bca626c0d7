package models

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// FieldType is the persisted question kind.
type FieldType string

const (
	FieldText      FieldType = "text"
	FieldEmail     FieldType = "email"
	FieldNumber    FieldType = "number"
	FieldDropdown  FieldType = "dropdown"
	FieldCheckbox  FieldType = "checkbox"
	FieldRadio     FieldType = "radio"
	FieldRating    FieldType = "rating"
	FieldDate      FieldType = "date"
	FieldTime      FieldType = "time"
	FieldTextarea  FieldType = "textarea"
	FieldPhone     FieldType = "phone"
	FieldURL       FieldType = "url"
	FieldFile      FieldType = "file"
	FieldRange     FieldType = "range"
	FieldColor     FieldType = "color"
	FieldSignature FieldType = "signature"
	FieldAddress   FieldType = "address"
	FieldMatrix    FieldType = "matrix"
)

var knownFieldTypes = map[FieldType]struct{}{
	FieldText: {}, FieldEmail: {}, FieldNumber: {}, FieldDropdown: {}, FieldCheckbox: {},
	FieldRadio: {}, FieldRating: {}, FieldDate: {}, FieldTime: {}, FieldTextarea: {},
	FieldPhone: {}, FieldURL: {}, FieldFile: {}, FieldRange: {}, FieldColor: {},
	FieldSignature: {}, FieldAddress: {}, FieldMatrix: {},
}

// Known reports whether t belongs to the persisted enum.
func (t FieldType) Known() bool {
	_, ok := knownFieldTypes[t]
	return ok
}

// DefaultRatingMax is used when a rating field has no explicit max.
const DefaultRatingMax = 5

// Condition is the comparison a conditional field applies to its dependency.
type Condition string

const (
	CondEquals      Condition = "equals"
	CondNotEquals   Condition = "not_equals"
	CondContains    Condition = "contains"
	CondNotContains Condition = "not_contains"
	CondGreaterThan Condition = "greater_than"
	CondLessThan    Condition = "less_than"
	CondIsEmpty     Condition = "is_empty"
	CondIsNotEmpty  Condition = "is_not_empty"
)

// Valid reports whether c is one of the supported conditions. The empty
// condition is valid and means equals.
func (c Condition) Valid() bool {
	switch c {
	case "", CondEquals, CondNotEquals, CondContains, CondNotContains,
		CondGreaterThan, CondLessThan, CondIsEmpty, CondIsNotEmpty:
		return true
	}
	return false
}

// Field is one question of a form as it is stored and exchanged over JSON.
type Field struct {
	ID          primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	Order       int                `bson:"order" json:"order"`
	Type        FieldType          `bson:"type" json:"type"`
	Label       string             `bson:"label" json:"label"`
	Placeholder string             `bson:"placeholder,omitempty" json:"placeholder,omitempty"`
	HelpText    string             `bson:"helpText,omitempty" json:"helpText,omitempty"`
	Required    bool               `bson:"required" json:"required"`
	Options     []string           `bson:"options,omitempty" json:"options,omitempty"`
	Min         *float64           `bson:"min,omitempty" json:"min,omitempty"`
	Max         *float64           `bson:"max,omitempty" json:"max,omitempty"`
	Step        *float64           `bson:"step,omitempty" json:"step,omitempty"`
	Conditional Conditional        `bson:"conditional" json:"conditional"`
}

// Conditional makes a field's visibility depend on another field's answer.
// DependsOn holds the order of the referenced field, not its id.
type Conditional struct {
	IsConditional bool      `bson:"isConditional" json:"isConditional"`
	DependsOn     *int      `bson:"dependsOn" json:"dependsOn"`
	Condition     Condition `bson:"condition" json:"condition"`
	Value         any       `bson:"value" json:"value"`
}

// UnmarshalJSON accepts dependsOn as a number, a numeric string, or the
// builder's "no dependency" sentinels ("" and null).
func (c *Conditional) UnmarshalJSON(data []byte) error {
	type alias Conditional
	var raw struct {
		alias
		DependsOn json.RawMessage `json:"dependsOn"`
	}
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	*c = Conditional(raw.alias)
	c.DependsOn = nil

	in := bytes.TrimSpace(raw.DependsOn)
	if len(in) == 0 || bytes.Equal(in, []byte("null")) {
		return nil
	}
	var text string
	if in[0] == '"' {
		if err := json.Unmarshal(in, &text); err != nil {
			return err
		}
	} else {
		text = string(in)
	}
	text = strings.TrimSpace(text)
	if text == "" {
		return nil
	}
	f, err := strconv.ParseFloat(text, 64)
	if err != nil {
		return fmt.Errorf("conditional: dependsOn %q is not a field order", text)
	}
	order := int(f)
	c.DependsOn = &order
	return nil
}

// HasDependency reports whether the rule is active and names a dependency.
func (c Conditional) HasDependency() bool {
	return c.IsConditional && c.DependsOn != nil
}

// Variant is the closed set of field shapes the core logic understands.
type Variant interface {
	variant()
}

// TextVariant covers free text answers; Email adds the email-shape rule.
type TextVariant struct {
	Email bool
}

// NumberVariant covers number and rating fields.
type NumberVariant struct {
	Min, Max, Step *float64
	Rating         bool
}

// ChoiceVariant covers dropdown, radio (single) and checkbox (multiple).
type ChoiceVariant struct {
	Options  []string
	Multiple bool
}

// OpaqueVariant is every persisted type the core does not interpret.
type OpaqueVariant struct {
	Type FieldType
}

func (TextVariant) variant()   {}
func (NumberVariant) variant() {}
func (ChoiceVariant) variant() {}
func (OpaqueVariant) variant() {}

// Variant narrows the field to the attributes relevant to its type.
func (f Field) Variant() Variant {
	return VariantOf(f.Type, f)
}

// VariantOf builds the variant for type t, taking attributes from f. It is used
// with an answer's denormalized type, which may disagree with the live field.
func VariantOf(t FieldType, f Field) Variant {
	switch t {
	case FieldText:
		return TextVariant{}
	case FieldEmail:
		return TextVariant{Email: true}
	case FieldNumber:
		return NumberVariant{Min: f.Min, Max: f.Max, Step: f.Step}
	case FieldRating:
		ceiling := f.Max
		if ceiling == nil {
			d := float64(DefaultRatingMax)
			ceiling = &d
		}
		return NumberVariant{Min: f.Min, Max: ceiling, Step: f.Step, Rating: true}
	case FieldDropdown, FieldRadio:
		return ChoiceVariant{Options: f.Options}
	case FieldCheckbox:
		return ChoiceVariant{Options: f.Options, Multiple: true}
	default:
		return OpaqueVariant{Type: t}
	}
}

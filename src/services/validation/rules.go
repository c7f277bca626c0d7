package validation

import (
	"errors"
	"fmt"
	"reflect"
	"regexp"
	"strings"
	"sync"

	"github.com/go-playground/validator/v10"
)

// SimpleEmailTag is the validator tag for the respondent-flow email shape:
// one "@", no whitespace, and a "." somewhere after the "@".
const SimpleEmailTag = "simple_email"

var emailShape = regexp.MustCompile(`^[^\s@]+@[^\s@]+\.[^\s@]+$`)

var (
	once     sync.Once
	validate *validator.Validate
)

// Validator returns the shared validator with the custom rules registered.
func Validator() *validator.Validate {
	once.Do(func() {
		v := validator.New(validator.WithRequiredStructEnabled())
		v.RegisterTagNameFunc(func(fld reflect.StructField) string {
			name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
			if name == "-" {
				return ""
			}
			return name
		})
		if err := v.RegisterValidation(SimpleEmailTag, func(fl validator.FieldLevel) bool {
			return emailShape.MatchString(fl.Field().String())
		}); err != nil {
			panic(err)
		}
		validate = v
	})
	return validate
}

// IsEmail reports whether s has the simple email shape.
func IsEmail(s string) bool {
	return Validator().Var(s, SimpleEmailTag) == nil
}

// Struct validates a request DTO.
func Struct(s any) error {
	return Validator().Struct(s)
}

// FieldErrors flattens validator errors into json-field -> message. Errors of
// any other kind come back under the "_" key.
func FieldErrors(err error) map[string]string {
	if err == nil {
		return nil
	}
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return map[string]string{"_": err.Error()}
	}
	out := make(map[string]string, len(verrs))
	for _, fe := range verrs {
		key := strings.TrimPrefix(fe.Namespace(), namespaceRoot(fe.Namespace()))
		if key == "" {
			key = fe.Field()
		}
		out[key] = describe(fe)
	}
	return out
}

func namespaceRoot(ns string) string {
	if i := strings.IndexByte(ns, '.'); i >= 0 {
		return ns[:i+1]
	}
	return ""
}

func describe(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return MsgRequired
	case "email", SimpleEmailTag:
		return MsgInvalidEmail
	case "url":
		return "Please enter a valid URL"
	case "oneof":
		return fmt.Sprintf("Must be one of: %s", fe.Param())
	case "min", "gte":
		return fmt.Sprintf("Must be at least %s", fe.Param())
	case "max", "lte":
		return fmt.Sprintf("Must be at most %s", fe.Param())
	case "len":
		return fmt.Sprintf("Must have length %s", fe.Param())
	case "hexadecimal":
		return "Must be a hexadecimal id"
	case "gtfield":
		return fmt.Sprintf("Must be after %s", fe.Param())
	default:
		return fmt.Sprintf("Failed the %q check", fe.Tag())
	}
}

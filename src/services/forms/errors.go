package forms

import (
	"errors"
	"fmt"
	"sort"
	"strings"
)

var (
	ErrFormNotFound         = errors.New("form not found")
	ErrForbidden            = errors.New("not authorized to access this form")
	ErrNotEditable          = errors.New("form can only be edited while in draft or closed")
	ErrNotPublished         = errors.New("this form is not yet published")
	ErrNotYetOpen           = errors.New("this form is not yet open for responses")
	ErrFormClosed           = errors.New("this form is no longer accepting responses")
	ErrNotPasswordProtected = errors.New("this form is not password protected")
	ErrWrongPassword        = errors.New("incorrect password")
	ErrInvalidSchedule      = errors.New("invalid schedule")
)

// DefinitionError lists every problem found in a form definition, keyed by
// the path of the offending element (for example "pages[0].fields[2].options").
type DefinitionError struct {
	Problems map[string]string
}

func (e *DefinitionError) Error() string {
	keys := make([]string, 0, len(e.Problems))
	for k := range e.Problems {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	parts := make([]string, len(keys))
	for i, k := range keys {
		parts[i] = fmt.Sprintf("%s: %s", k, e.Problems[k])
	}
	return "invalid form definition: " + strings.Join(parts, "; ")
}

package leads

import (
	"errors"
	"sort"
	"strings"
)

// User-facing validation messages.
const (
	MsgRequired      = "This field is required."
	MsgEmailRequired = "Email is required."
	MsgInvalidEmail  = "Please enter a valid email address."
)

var (
	// ErrFieldRequired is returned when a required field is blank
	ErrFieldRequired = errors.New("field is required")

	// ErrInvalidEmail is returned when the email does not look like local@domain.tld
	ErrInvalidEmail = errors.New("invalid email address")
)

// FieldError ties a validation failure to the field that caused it.
type FieldError struct {
	Field   string
	Message string
	Err     error
}

func (e *FieldError) Error() string {
	return e.Field + ": " + e.Message
}

func (e *FieldError) Unwrap() error {
	return e.Err
}

// ValidationErrors collects the failures of a whole-form validation, keyed
// by field name.
type ValidationErrors map[string]*FieldError

func (v ValidationErrors) Error() string {
	names := make([]string, 0, len(v))
	for name := range v {
		names = append(names, name)
	}
	sort.Strings(names)
	parts := make([]string, 0, len(names))
	for _, name := range names {
		parts = append(parts, v[name].Error())
	}
	return "validation failed: " + strings.Join(parts, "; ")
}

// Messages flattens the errors into field -> message.
func (v ValidationErrors) Messages() map[string]string {
	out := make(map[string]string, len(v))
	for name, fe := range v {
		out[name] = fe.Message
	}
	return out
}

package leads

import "regexp"

// emailPattern accepts local@domain.tld with no whitespace and a single @.
var emailPattern = regexp.MustCompile(`^[^\s@]+@[^\s@]+\.[^\s@]+$`)

// ValidEmail reports whether s is shaped like an email address.
func ValidEmail(s string) bool {
	return emailPattern.MatchString(s)
}

// CheckField fails when a required field is blank after trimming.
func CheckField(f Field) error {
	if f.Required && f.trimmed() == "" {
		return &FieldError{Field: f.Name, Message: MsgRequired, Err: ErrFieldRequired}
	}
	return nil
}

// CheckEmail validates an email field. A blank optional email passes.
func CheckEmail(f Field) error {
	email := f.trimmed()
	if email == "" {
		if f.Required {
			return &FieldError{Field: f.Name, Message: MsgEmailRequired, Err: ErrFieldRequired}
		}
		return nil
	}
	if !ValidEmail(email) {
		return &FieldError{Field: f.Name, Message: MsgInvalidEmail, Err: ErrInvalidEmail}
	}
	return nil
}

// Validate checks every required field and the email field of values.
// The email check runs last so its message wins for the email field.
func Validate(values map[string]string, required []string) ValidationErrors {
	errs := ValidationErrors{}
	isRequired := make(map[string]bool, len(required))
	for _, name := range required {
		isRequired[name] = true
		if err := CheckField(Field{Name: name, Value: values[name], Required: true}); err != nil {
			errs[name] = err.(*FieldError)
		}
	}
	email := Field{Name: FieldEmail, Value: values[FieldEmail], Required: isRequired[FieldEmail]}
	if err := CheckEmail(email); err != nil {
		errs[FieldEmail] = err.(*FieldError)
	}
	if len(errs) == 0 {
		return nil
	}
	return errs
}

package leads

import (
	"strings"
	"time"
)

// Form field names. They double as the JSON keys of a persisted Record.
const (
	FieldFirstName = "firstName"
	FieldLastName  = "lastName"
	FieldEmail     = "email"
	FieldCompany   = "company"
	FieldRole      = "role"
)

// DefaultRequiredFields are the fields a lead cannot be captured without.
var DefaultRequiredFields = []string{FieldFirstName, FieldLastName, FieldEmail}

// TimestampLayout matches the ISO-8601 form browsers emit: UTC with
// millisecond precision and a literal Z.
const TimestampLayout = "2006-01-02T15:04:05.000Z"

// Record is one captured lead. Records are never mutated after creation.
type Record struct {
	FirstName string `json:"firstName"`
	LastName  string `json:"lastName"`
	Email     string `json:"email"`
	Company   string `json:"company"`
	Role      string `json:"role"`
	Timestamp string `json:"timestamp"`
}

// NewRecord builds a record from raw form values, stamping it with now.
// Missing optional values default to the empty string.
func NewRecord(values map[string]string, now time.Time) Record {
	return Record{
		FirstName: values[FieldFirstName],
		LastName:  values[FieldLastName],
		Email:     values[FieldEmail],
		Company:   values[FieldCompany],
		Role:      values[FieldRole],
		Timestamp: FormatTimestamp(now),
	}
}

// FormatTimestamp renders t in TimestampLayout.
func FormatTimestamp(t time.Time) string {
	return t.UTC().Format(TimestampLayout)
}

// Time parses the record timestamp.
func (r Record) Time() (time.Time, error) {
	return time.Parse(TimestampLayout, r.Timestamp)
}

// Values returns the record as a field-name keyed map.
func (r Record) Values() map[string]string {
	return map[string]string{
		FieldFirstName: r.FirstName,
		FieldLastName:  r.LastName,
		FieldEmail:     r.Email,
		FieldCompany:   r.Company,
		FieldRole:      r.Role,
	}
}

// Field is a single form input as seen by the validator.
type Field struct {
	Name     string
	Value    string
	Required bool
}

// IsEmail reports whether the field carries the email address.
func (f Field) IsEmail() bool {
	return f.Name == FieldEmail
}

func (f Field) trimmed() string {
	return strings.TrimSpace(f.Value)
}

package leads

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestValidEmail(t *testing.T) {
	cases := []struct {
		in   string
		want bool
	}{
		{"user@example.com", true},
		{"a@b.c", true},
		{"first.last+tag@sub.example.co", true},
		{"abc", false},
		{"a@b", false},
		{"", false},
		{"a b@example.com", false},
		{"a@@example.com", false},
		{"@example.com", false},
		{"user@.", false},
	}
	for _, tc := range cases {
		assert.Equal(t, tc.want, ValidEmail(tc.in), "ValidEmail(%q)", tc.in)
	}
}

func TestCheckField_RequiredBlank(t *testing.T) {
	for _, value := range []string{"", "   ", "\t\n"} {
		err := CheckField(Field{Name: FieldFirstName, Value: value, Required: true})
		require.Error(t, err)
		assert.True(t, errors.Is(err, ErrFieldRequired))

		var fe *FieldError
		require.True(t, errors.As(err, &fe))
		assert.Equal(t, FieldFirstName, fe.Field)
		assert.Equal(t, MsgRequired, fe.Message)
	}
}

func TestCheckField_OptionalBlankPasses(t *testing.T) {
	assert.NoError(t, CheckField(Field{Name: FieldCompany, Value: ""}))
	assert.NoError(t, CheckField(Field{Name: FieldFirstName, Value: " Jane ", Required: true}))
}

func TestCheckEmail(t *testing.T) {
	err := CheckEmail(Field{Name: FieldEmail, Value: " ", Required: true})
	require.ErrorIs(t, err, ErrFieldRequired)
	assert.Contains(t, err.Error(), MsgEmailRequired)

	assert.NoError(t, CheckEmail(Field{Name: FieldEmail, Value: ""}))

	err = CheckEmail(Field{Name: FieldEmail, Value: "not-an-email", Required: true})
	require.ErrorIs(t, err, ErrInvalidEmail)
	assert.Contains(t, err.Error(), MsgInvalidEmail)

	assert.NoError(t, CheckEmail(Field{Name: FieldEmail, Value: "  jane@example.com ", Required: true}))
}

func TestValidate(t *testing.T) {
	ok := map[string]string{
		FieldFirstName: "Jane",
		FieldLastName:  "Doe",
		FieldEmail:     "jane@example.com",
	}
	assert.Empty(t, Validate(ok, DefaultRequiredFields))

	errs := Validate(map[string]string{FieldEmail: "nope"}, DefaultRequiredFields)
	require.Len(t, errs, 3)
	assert.Equal(t, MsgRequired, errs[FieldFirstName].Message)
	assert.Equal(t, MsgRequired, errs[FieldLastName].Message)
	assert.Equal(t, MsgInvalidEmail, errs[FieldEmail].Message)
	assert.Contains(t, errs.Error(), "validation failed")

	errs = Validate(map[string]string{FieldFirstName: "Jane", FieldLastName: "Doe"}, DefaultRequiredFields)
	require.Len(t, errs, 1)
	assert.Equal(t, MsgEmailRequired, errs.Messages()[FieldEmail])
}

func TestValidate_EmailOptionalWhenNotRequired(t *testing.T) {
	errs := Validate(map[string]string{FieldFirstName: "Jane"}, []string{FieldFirstName})
	assert.Empty(t, errs)

	errs = Validate(map[string]string{FieldFirstName: "Jane", FieldEmail: "bad"}, []string{FieldFirstName})
	require.Len(t, errs, 1)
	assert.ErrorIs(t, errs[FieldEmail], ErrInvalidEmail)
}

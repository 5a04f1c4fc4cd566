package validate

import (
	"errors"
	"testing"

	"github.com/and161185/geocam/internal/errs"
	"github.com/stretchr/testify/require"
)

func TestLoginForm(t *testing.T) {
	t.Parallel()

	require.NoError(t, LoginForm("user@test.com", "secret1"))

	err := LoginForm("not-an-email", "123")
	require.ErrorIs(t, err, errs.ErrValidation)
	var ve *Error
	require.True(t, errors.As(err, &ve))
	require.Equal(t, "please enter a valid email", ve.Fields[FieldEmail])
	require.Equal(t, "password must be at least 6 characters", ve.Fields[FieldPassword])

	err = LoginForm("", "")
	require.True(t, errors.As(err, &ve))
	require.Equal(t, "email is required", ve.Fields[FieldEmail])
	require.Equal(t, "password is required", ve.Fields[FieldPassword])
}

func TestRegisterForm(t *testing.T) {
	t.Parallel()

	require.NoError(t, RegisterForm("Al", "al@example.org", "longpass", "longpass"))

	cases := []struct {
		name                       string
		user, email, pass, confirm string
		field, msg                 string
	}{
		{"short name", "A", "a@b.co", "longpass", "longpass", FieldName, "name must be at least 2 characters"},
		{"bad email", "Ann", "a@b", "longpass", "longpass", FieldEmail, "please enter a valid email"},
		{"short password", "Ann", "a@b.co", "short12", "longpass", FieldPassword, "password must be at least 8 characters"},
		{"mismatch", "Ann", "a@b.co", "longpass", "longpas2", FieldPasswordConfirmation, "passwords do not match"},
		{"missing confirmation", "Ann", "a@b.co", "longpass", "", FieldPasswordConfirmation, "password confirmation is required"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			err := RegisterForm(tc.user, tc.email, tc.pass, tc.confirm)
			var ve *Error
			require.True(t, errors.As(err, &ve), "want *Error, got %v", err)
			require.Equal(t, tc.msg, ve.Fields[tc.field])
		})
	}

	err := RegisterForm("Ann", "a@b.co", "longpass", "longpas2")
	var ve *Error
	require.True(t, errors.As(err, &ve))
	require.Len(t, ve.Fields, 1)
}

func TestError_MessageIsStable(t *testing.T) {
	t.Parallel()

	e := &Error{Fields: map[string]string{"b": "two", "a": "one"}}
	require.Equal(t, "validation failed: a: one; b: two", e.Error())
}

func TestMinLen_CountsRunes(t *testing.T) {
	t.Parallel()

	r := MinLen(2, "short")
	require.Equal(t, "", r("çã", nil))
	require.Equal(t, "short", r("ç", nil))
}

// Package validate evaluates per-field rule tables shared by the client and the server.
package validate

import (
	"fmt"
	"regexp"
	"sort"
	"strings"
	"unicode/utf8"

	"github.com/and161185/geocam/internal/errs"
)

// Rule checks one value of a form and returns a user-facing message, or "" when it passes.
type Rule func(value string, form map[string]string) string

// Field binds a form field name to its ordered rules. The first failing rule wins.
type Field struct {
	Name  string
	Rules []Rule
}

// Schema is an ordered table of fields.
type Schema []Field

// Error carries one message per failing field.
type Error struct {
	Fields map[string]string
}

func (e *Error) Error() string {
	names := make([]string, 0, len(e.Fields))
	for n := range e.Fields {
		names = append(names, n)
	}
	sort.Strings(names)
	parts := make([]string, 0, len(names))
	for _, n := range names {
		parts = append(parts, n+": "+e.Fields[n])
	}
	return fmt.Sprintf("%s: %s", errs.ErrValidation, strings.Join(parts, "; "))
}

// Is makes errors.Is(err, errs.ErrValidation) hold.
func (e *Error) Is(target error) bool { return target == errs.ErrValidation }

// Check evaluates every field and returns *Error when any rule fails.
func (s Schema) Check(form map[string]string) error {
	var failed map[string]string
	for _, f := range s {
		v := form[f.Name]
		for _, r := range f.Rules {
			if msg := r(v, form); msg != "" {
				if failed == nil {
					failed = map[string]string{}
				}
				failed[f.Name] = msg
				break
			}
		}
	}
	if failed != nil {
		return &Error{Fields: failed}
	}
	return nil
}

var reEmail = regexp.MustCompile(`^[^\s@]+@[^\s@]+\.[^\s@]+$`)

// Required fails on an empty value.
func Required(msg string) Rule {
	return func(v string, _ map[string]string) string {
		if v == "" {
			return msg
		}
		return ""
	}
}

// Email fails on a syntactically invalid address.
func Email(msg string) Rule {
	return func(v string, _ map[string]string) string {
		if !reEmail.MatchString(v) {
			return msg
		}
		return ""
	}
}

// MinLen fails when the value has fewer than n characters.
func MinLen(n int, msg string) Rule {
	return func(v string, _ map[string]string) string {
		if utf8.RuneCountInString(v) < n {
			return msg
		}
		return ""
	}
}

// Matches fails unless the value equals the named field exactly.
func Matches(other, msg string) Rule {
	return func(v string, form map[string]string) string {
		if v != form[other] {
			return msg
		}
		return ""
	}
}

// Field names used by the login and registration forms.
const (
	FieldName                 = "name"
	FieldEmail                = "email"
	FieldPassword             = "password"
	FieldPasswordConfirmation = "password_confirmation"
)

// Login is the login form schema.
var Login = Schema{
	{Name: FieldEmail, Rules: []Rule{
		Required("email is required"),
		Email("please enter a valid email"),
	}},
	{Name: FieldPassword, Rules: []Rule{
		Required("password is required"),
		MinLen(6, "password must be at least 6 characters"),
	}},
}

// Register is the registration form schema.
var Register = Schema{
	{Name: FieldName, Rules: []Rule{
		Required("name is required"),
		MinLen(2, "name must be at least 2 characters"),
	}},
	{Name: FieldEmail, Rules: []Rule{
		Required("email is required"),
		Email("please enter a valid email"),
	}},
	{Name: FieldPassword, Rules: []Rule{
		Required("password is required"),
		MinLen(8, "password must be at least 8 characters"),
	}},
	{Name: FieldPasswordConfirmation, Rules: []Rule{
		Required("password confirmation is required"),
		MinLen(8, "password must be at least 8 characters"),
		Matches(FieldPassword, "passwords do not match"),
	}},
}

// LoginForm validates login input.
func LoginForm(email, password string) error {
	return Login.Check(map[string]string{FieldEmail: email, FieldPassword: password})
}

// RegisterForm validates registration input.
func RegisterForm(name, email, password, confirmation string) error {
	return Register.Check(map[string]string{
		FieldName:                 name,
		FieldEmail:                email,
		FieldPassword:             password,
		FieldPasswordConfirmation: confirmation,
	})
}

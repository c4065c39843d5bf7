package validation

import (
	"errors"
	"strings"
	"unicode"
	"unicode/utf8"
)

// ErrInvalid matches every policy failure via errors.Is.
var ErrInvalid = errors.New("invalid input")

// Error is a policy failure carrying a client-safe message.
type Error struct {
	Message string
}

func (e *Error) Error() string { return e.Message }

func (e *Error) Is(target error) bool { return target == ErrInvalid }

func fail(msg string) error { return &Error{Message: msg} }

// Messages returned by the policy.
const (
	MsgAllFields      = "All fields must be filled"
	MsgInvalidEmail   = "Email is not valid"
	MsgLowercaseEmail = "Email must start with a lowercase letter"
	MsgWeakPassword   = "Password is not strong enough. It must include uppercase, lowercase, numbers, special characters and be at least 6 characters long."
	MsgCodeRequired   = "Verification code is required"
	MsgEmailRequired  = "Email is required"
	MsgLoginFields    = "All fields must be provided."
	MsgResetFields    = "Reset token and new password must be provided."
)

// ValidateRegistration checks a signup request before anything is stored.
func ValidateRegistration(name, email, password string) error {
	if strings.TrimSpace(name) == "" || email == "" || password == "" {
		return fail(MsgAllFields)
	}
	if Engine().Var(email, "email") != nil {
		return fail(MsgInvalidEmail)
	}
	local := email[:strings.LastIndex(email, "@")]
	if first, _ := utf8.DecodeRuneInString(local); first != unicode.ToLower(first) {
		return fail(MsgLowercaseEmail)
	}
	return ValidatePasswordStrength(password)
}

// ValidatePasswordStrength requires at least six characters including an
// uppercase letter, a lowercase letter, a digit and a symbol.
func ValidatePasswordStrength(password string) error {
	if password == "" {
		return fail(MsgAllFields)
	}
	if Engine().Var(password, "strongpwd") != nil {
		return fail(MsgWeakPassword)
	}
	return nil
}

// ValidateVerificationCode only requires presence; the numeric shape comes
// from code generation.
func ValidateVerificationCode(code string) error {
	if code == "" {
		return fail(MsgCodeRequired)
	}
	return nil
}

// Require fails with msg when any value is empty.
func Require(msg string, values ...string) error {
	for _, v := range values {
		if v == "" {
			return fail(msg)
		}
	}
	return nil
}

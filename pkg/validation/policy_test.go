package validation

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func messageOf(t *testing.T, err error) string {
	t.Helper()
	var verr *Error
	require.True(t, errors.As(err, &verr), "expected *validation.Error, got %v", err)
	return verr.Message
}

func TestValidatePasswordStrength(t *testing.T) {
	tests := []struct {
		name     string
		password string
		wantMsg  string
	}{
		{name: "accepted", password: "Abc123!@"},
		{name: "minimum length with all classes", password: "Ab1!cd"},
		{name: "no symbol or uppercase", password: "abc12345", wantMsg: MsgWeakPassword},
		{name: "too short", password: "Ab1!c", wantMsg: MsgWeakPassword},
		{name: "no digit", password: "Abcdef!@", wantMsg: MsgWeakPassword},
		{name: "no lowercase", password: "ABC123!@", wantMsg: MsgWeakPassword},
		{name: "space counts as symbol", password: "Abc 123", wantMsg: ""},
		{name: "empty", password: "", wantMsg: MsgAllFields},
		{name: "non-ascii uppercase only", password: "Ébc12!", wantMsg: MsgWeakPassword},
		{name: "non-ascii lowercase only", password: "ABé12!", wantMsg: MsgWeakPassword},
		{name: "symbol outside the set", password: "Abc12€", wantMsg: MsgWeakPassword},
		{name: "pound sign is a symbol", password: "Abc12£"},
		{name: "backslash is a symbol", password: `Abc12\`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidatePasswordStrength(tt.password)
			if tt.wantMsg == "" {
				assert.NoError(t, err)
				return
			}
			assert.ErrorIs(t, err, ErrInvalid)
			assert.Equal(t, tt.wantMsg, messageOf(t, err))
		})
	}
}

func TestValidateRegistration(t *testing.T) {
	tests := []struct {
		name     string
		fullName string
		email    string
		password string
		wantMsg  string
	}{
		{name: "valid", fullName: "Ada", email: "ada@x.com", password: "Ada123!@"},
		{name: "digit first is allowed", fullName: "Ada", email: "1ada@x.com", password: "Ada123!@"},
		{name: "missing name", email: "ada@x.com", password: "Ada123!@", wantMsg: MsgAllFields},
		{name: "blank name", fullName: "  ", email: "ada@x.com", password: "Ada123!@", wantMsg: MsgAllFields},
		{name: "missing email", fullName: "Ada", password: "Ada123!@", wantMsg: MsgAllFields},
		{name: "missing password", fullName: "Ada", email: "ada@x.com", wantMsg: MsgAllFields},
		{name: "malformed email", fullName: "Ada", email: "ada.x.com", password: "Ada123!@", wantMsg: MsgInvalidEmail},
		{name: "uppercase first", fullName: "Ada", email: "Ada@x.com", password: "Ada123!@", wantMsg: MsgLowercaseEmail},
		{name: "weak password", fullName: "Ada", email: "ada@x.com", password: "abc12345", wantMsg: MsgWeakPassword},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateRegistration(tt.fullName, tt.email, tt.password)
			if tt.wantMsg == "" {
				assert.NoError(t, err)
				return
			}
			assert.Equal(t, tt.wantMsg, messageOf(t, err))
		})
	}
}

func TestValidateVerificationCode(t *testing.T) {
	assert.NoError(t, ValidateVerificationCode("123456"))
	assert.NoError(t, ValidateVerificationCode("not-numeric"))
	assert.Equal(t, MsgCodeRequired, messageOf(t, ValidateVerificationCode("")))
}

func TestRequire(t *testing.T) {
	assert.NoError(t, Require(MsgLoginFields, "a", "b"))
	assert.Equal(t, MsgLoginFields, messageOf(t, Require(MsgLoginFields, "a", "")))
}

func TestToDetails(t *testing.T) {
	assert.Nil(t, ToDetails(nil))
	assert.Equal(t, map[string]string{"payload": "invalid payload"}, ToDetails(errors.New("boom")))

	err := Engine().Struct(struct {
		Password string `validate:"strongpwd"`
	}{Password: "weak"})
	require.Error(t, err)
	assert.Equal(t, map[string]string{"Password": "failed on strongpwd"}, ToDetails(err))
}

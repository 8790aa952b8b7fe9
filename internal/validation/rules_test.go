package validation

import (
	"testing"

	"github.com/stretchr/testify/assert"

	apperrors "github.com/allisson/pubflow/internal/errors"
)

func TestPasswordStrength(t *testing.T) {
	rule := PasswordStrength{
		MinLength:      8,
		RequireUpper:   true,
		RequireLower:   true,
		RequireNumber:  true,
		RequireSpecial: true,
	}

	tests := []struct {
		name     string
		password interface{}
		errMsg   string
	}{
		{name: "valid password", password: "SecurePass123!"},
		{name: "valid with symbols", password: "MyP@ssw0rd!"},
		{name: "not a string", password: 42, errMsg: "must be a string"},
		{name: "too short", password: "Short1!", errMsg: "at least 8 characters"},
		{name: "missing uppercase", password: "securepass123!", errMsg: "uppercase letter"},
		{name: "missing lowercase", password: "SECUREPASS123!", errMsg: "lowercase letter"},
		{name: "missing number", password: "SecurePass!", errMsg: "number"},
		{name: "missing special char", password: "SecurePass123", errMsg: "special character"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := rule.Validate(tt.password)
			if tt.errMsg == "" {
				assert.NoError(t, err)
				return
			}
			assert.Error(t, err)
			assert.Contains(t, err.Error(), tt.errMsg)
		})
	}

	t.Run("length only", func(t *testing.T) {
		lengthOnly := PasswordStrength{MinLength: 10}
		assert.NoError(t, lengthOnly.Validate("tencharact"))
		assert.Error(t, lengthOnly.Validate("short"))
	})
}

func TestStringRules(t *testing.T) {
	assert.NoError(t, Email.Validate("first.last+tag@mail.example.com"))
	for _, email := range []string{"userexample.com", "user@", "@example.com", "user@example", "user @example.com"} {
		assert.Error(t, Email.Validate(email), email)
	}

	assert.NoError(t, NoWhitespace.Validate("valid string"))
	assert.Error(t, NoWhitespace.Validate(" leading"))
	assert.Error(t, NoWhitespace.Validate("trailing "))

	assert.NoError(t, NotBlank.Validate("x"))
	assert.Error(t, NotBlank.Validate(" \t\n "))
}

func TestWrapValidationError(t *testing.T) {
	assert.NoError(t, WrapValidationError(nil))

	err := WrapValidationError(assert.AnError)
	assert.ErrorIs(t, err, apperrors.ErrInvalidInput)
	assert.Contains(t, err.Error(), assert.AnError.Error())
}

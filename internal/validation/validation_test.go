package validation

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestValidateName(t *testing.T) {
	assert.NoError(t, ValidateName("Ada Lovelace"))
	assert.Error(t, ValidateName(""))
	assert.Error(t, ValidateName("   "))
	assert.Error(t, ValidateName(strings.Repeat("x", 129)))
	assert.NoError(t, ValidateName(strings.Repeat("x", 128)))
}

func TestValidateEmail(t *testing.T) {
	valid := []string{
		"ada@example.com",
		"first.last@sub.example.org",
		"user+tag@example.co",
	}
	for _, email := range valid {
		assert.NoError(t, ValidateEmail(email), email)
	}

	invalid := []string{
		"",
		"not-an-email",
		"@example.com",
		"user@",
		"user@host",
		"user @example.com",
	}
	for _, email := range invalid {
		assert.Error(t, ValidateEmail(email), email)
	}
}

func TestValidateGroup(t *testing.T) {
	assert.NoError(t, ValidateGroup(""))
	assert.NoError(t, ValidateGroup("engineering"))
	assert.NoError(t, ValidateGroup("team 42"))
	assert.NoError(t, ValidateGroup("ops-oncall"))

	assert.Error(t, ValidateGroup(" leading"))
	assert.Error(t, ValidateGroup("bad/slash"))
	assert.Error(t, ValidateGroup(strings.Repeat("g", 64)))
}

func TestValidateNotes(t *testing.T) {
	assert.NoError(t, ValidateNotes(""))
	assert.NoError(t, ValidateNotes(strings.Repeat("n", 4096)))
	assert.Error(t, ValidateNotes(strings.Repeat("n", 4097)))
}

func TestValidationErrorMessage(t *testing.T) {
	err := NewValidationError("email", "invalid email address format")
	assert.Equal(t, "email: invalid email address format", err.Error())
}

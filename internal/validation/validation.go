package validation

import (
	"regexp"
	"strings"
)

var (
	emailRegex = regexp.MustCompile(`^[a-zA-Z0-9._%+\-]+@[a-zA-Z0-9.\-]+\.[a-zA-Z]{2,}$`)
	groupRegex = regexp.MustCompile(`^[a-zA-Z0-9][a-zA-Z0-9 _\-]{0,62}$`)
)

// ValidationError represents a validation error
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return e.Field + ": " + e.Message
}

// NewValidationError creates a new validation error
func NewValidationError(field, message string) *ValidationError {
	return &ValidationError{
		Field:   field,
		Message: message,
	}
}

// ValidateName validates a contact display name
func ValidateName(name string) error {
	if strings.TrimSpace(name) == "" {
		return NewValidationError("name", "name is required")
	}
	if len(name) > 128 {
		return NewValidationError("name", "name must be at most 128 characters")
	}
	return nil
}

// ValidateEmail validates email address format
func ValidateEmail(email string) error {
	if email == "" {
		return NewValidationError("email", "email address is required")
	}
	if !emailRegex.MatchString(email) {
		return NewValidationError("email", "invalid email address format")
	}
	return nil
}

// ValidateGroup validates an optional contact group label
func ValidateGroup(group string) error {
	if group == "" {
		return nil
	}
	if !groupRegex.MatchString(group) {
		return NewValidationError("group", "invalid group name")
	}
	return nil
}

// ValidateNotes bounds free-form notes
func ValidateNotes(notes string) error {
	if len(notes) > 4096 {
		return NewValidationError("notes", "notes must be at most 4096 characters")
	}
	return nil
}

package model

import (
	"fmt"
	"net/mail"
	"strings"
	"unicode"
)

// ValidationError holds a list of field-level validation errors.
type ValidationError struct {
	Errors []FieldError
}

// FieldError represents a single validation failure on a named field.
type FieldError struct {
	Field   string
	Message string
}

// Error formats the validation error as a semicolon-separated list of field messages.
func (e *ValidationError) Error() string {
	parts := make([]string, len(e.Errors))
	for i, fe := range e.Errors {
		parts[i] = fe.Field + ": " + fe.Message
	}
	return "validation failed: " + strings.Join(parts, "; ")
}

// HasErrors reports whether the validation error contains any field errors.
func (e *ValidationError) HasErrors() bool {
	return len(e.Errors) > 0
}

// ValidateUnit checks a Unit for constraint violations.
// It returns a *ValidationError if any rules fail, or nil if the unit is valid.
func ValidateUnit(u *Unit) error {
	var ve ValidationError

	if strings.TrimSpace(u.Sigla) == "" {
		ve.Errors = append(ve.Errors, FieldError{Field: "sigla", Message: "is required"})
	} else if len([]rune(u.Sigla)) > 60 {
		ve.Errors = append(ve.Errors, FieldError{Field: "sigla", Message: "must be 60 characters or fewer"})
	}

	if !u.Type.IsValid() {
		ve.Errors = append(ve.Errors, FieldError{
			Field:   "tipo",
			Message: fmt.Sprintf("invalid value %q", u.Type),
		})
	}

	// A unit must not be its own parent. Deeper cycles are not enforced
	// here; the access evaluator tolerates them by refusing to revisit.
	if u.ParentID != nil && *u.ParentID == u.ID {
		ve.Errors = append(ve.Errors, FieldError{Field: "parent_id", Message: "must not reference the unit itself"})
	}

	if ve.HasErrors() {
		return &ve
	}
	return nil
}

// ValidateUser checks a User for constraint violations.
func ValidateUser(u *User) error {
	var ve ValidationError

	if strings.TrimSpace(u.Name) == "" {
		ve.Errors = append(ve.Errors, FieldError{Field: "nome", Message: "is required"})
	}

	if strings.TrimSpace(u.Email) == "" {
		ve.Errors = append(ve.Errors, FieldError{Field: "email", Message: "is required"})
	} else if _, err := mail.ParseAddress(u.Email); err != nil {
		ve.Errors = append(ve.Errors, FieldError{Field: "email", Message: "is not a valid address"})
	}

	if !u.Role.IsValid() {
		ve.Errors = append(ve.Errors, FieldError{
			Field:   "role",
			Message: fmt.Sprintf("invalid value %q", u.Role),
		})
	}

	if ve.HasErrors() {
		return &ve
	}
	return nil
}

// ValidateSchedule checks a Schedule before it reaches the repository.
// An invalid type here is a programming error in the handler wiring, but it
// is still reported as a field error so nothing unchecked reaches SQL.
func ValidateSchedule(s *Schedule) error {
	var ve ValidationError

	if !s.Type.IsValid() {
		ve.Errors = append(ve.Errors, FieldError{
			Field:   "tipo",
			Message: fmt.Sprintf("invalid value %q", s.Type),
		})
	}

	if strings.TrimSpace(s.UnitID) == "" {
		ve.Errors = append(ve.Errors, FieldError{Field: "unidade_id", Message: "is required"})
	}

	if s.Type != TypeDaily && (len(s.Personnel) > 0 || len(s.Hearings) > 0) {
		ve.Errors = append(ve.Errors, FieldError{
			Field:   "efetivo",
			Message: "line collections are only valid on the daily schedule",
		})
	}

	if ve.HasErrors() {
		return &ve
	}
	return nil
}

// ValidatePassword enforces the signup password policy: at least 8
// characters with upper case, lower case, a digit and a special character.
func ValidatePassword(pw string) error {
	var ve ValidationError

	add := func(msg string) {
		ve.Errors = append(ve.Errors, FieldError{Field: "senha", Message: msg})
	}

	if len(pw) < 8 {
		add("must be at least 8 characters")
	}
	var hasUpper, hasLower, hasDigit, hasSpecial bool
	for _, r := range pw {
		switch {
		case unicode.IsUpper(r):
			hasUpper = true
		case unicode.IsLower(r):
			hasLower = true
		case unicode.IsDigit(r):
			hasDigit = true
		default:
			hasSpecial = true
		}
	}
	if !hasUpper {
		add("must contain an upper-case letter")
	}
	if !hasLower {
		add("must contain a lower-case letter")
	}
	if !hasDigit {
		add("must contain a digit")
	}
	if !hasSpecial {
		add("must contain a special character")
	}

	if ve.HasErrors() {
		return &ve
	}
	return nil
}

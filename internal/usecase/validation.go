package usecase

import (
	"fmt"
	"net/mail"
	"regexp"
	"strings"

	"github.com/xavierca1/leadflow/internal/entity"
)

var reSimpleEmail = regexp.MustCompile(`^[^\s@]+@[^\s@]+\.[^\s@]+$`)

type ValidationError struct {
	Field   string
	Message string
}

func (e ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

func ValidateCreateLeadInput(input CreateLeadInput) []ValidationError {
	var errors []ValidationError

	if strings.TrimSpace(input.Name) == "" {
		errors = append(errors, ValidationError{"name", "is required"})
	} else if len(input.Name) > 200 {
		errors = append(errors, ValidationError{"name", "must not exceed 200 characters"})
	}

	if strings.TrimSpace(input.Email) == "" {
		errors = append(errors, ValidationError{"email", "is required"})
	} else if !isValidEmail(input.Email) {
		errors = append(errors, ValidationError{"email", "is invalid"})
	}

	if input.Phone != "" && !isValidPhoneNumber(input.Phone) {
		errors = append(errors, ValidationError{"phone", "must contain between 7 and 15 digits"})
	}

	if input.Status != "" && !entity.LeadStatus(input.Status).Valid() {
		errors = append(errors, ValidationError{"status", "must be New or Contacted"})
	}
	if input.Source != "" && !entity.LeadSource(input.Source).Valid() {
		errors = append(errors, ValidationError{"source", "must be Manual or Document"})
	}

	return errors
}

func ValidateUpdateLeadInput(input UpdateLeadInput) []ValidationError {
	var errors []ValidationError

	if input.Name != nil && strings.TrimSpace(*input.Name) == "" {
		errors = append(errors, ValidationError{"name", "must not be empty"})
	}
	if input.Email != nil && !isValidEmail(*input.Email) {
		errors = append(errors, ValidationError{"email", "is invalid"})
	}
	if input.Phone != nil && *input.Phone != "" && !isValidPhoneNumber(*input.Phone) {
		errors = append(errors, ValidationError{"phone", "must contain between 7 and 15 digits"})
	}
	if input.Status != nil && !entity.LeadStatus(*input.Status).Valid() {
		errors = append(errors, ValidationError{"status", "must be New or Contacted"})
	}

	return errors
}

func validationFailure(errs []ValidationError) *DomainError {
	parts := make([]string, 0, len(errs))
	details := make(map[string]string, len(errs))
	for _, e := range errs {
		parts = append(parts, e.Field+" ("+e.Message+")")
		details[e.Field] = e.Message
	}
	return &DomainError{
		Code:    CodeValidation,
		Message: "validation failed: " + strings.Join(parts, ", "),
		Details: details,
	}
}

func isValidEmail(email string) bool {
	email = strings.TrimSpace(email)
	if !reSimpleEmail.MatchString(email) {
		return false
	}
	addr, err := mail.ParseAddress(email)
	return err == nil && addr.Address == email
}

func isValidPhoneNumber(phone string) bool {
	n := countDigits(phone)
	return n >= 7 && n <= 15
}

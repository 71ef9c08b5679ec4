package usecase

import (
	"errors"
	"fmt"
)

const (
	CodeUnsupportedMediaType = "UNSUPPORTED_MEDIA_TYPE"
	CodePayloadTooLarge      = "PAYLOAD_TOO_LARGE"
	CodeExtractionFailed     = "EXTRACTION_FAILED"
	CodeNoTextFound          = "NO_TEXT_FOUND"
	CodeNoLeadsFound         = "NO_LEADS_FOUND"
	CodeDuplicateLead        = "DUPLICATE_LEAD"
	CodeNotFound             = "NOT_FOUND"
	CodeValidation           = "VALIDATION_ERROR"

	CodeDatabase           = "DATABASE_ERROR"
	CodeEmailFailed        = "EMAIL_FAILED"
	CodeEmailNotConfigured = "EMAIL_NOT_CONFIGURED"
	CodeQueueFailed        = "QUEUE_FAILED"
)

// DomainError is a user-facing failure the caller can act on.
type DomainError struct {
	Code    string
	Message string
	Details map[string]string
	Err     error
}

func (e *DomainError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *DomainError) Unwrap() error {
	return e.Err
}

func IsDomainError(err error) bool {
	var de *DomainError
	return errors.As(err, &de)
}

// TechnicalError is an infrastructure failure (store, smtp, broker).
type TechnicalError struct {
	Code    string
	Message string
	Err     error
}

func (e *TechnicalError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *TechnicalError) Unwrap() error {
	return e.Err
}

func IsTechnicalError(err error) bool {
	var te *TechnicalError
	return errors.As(err, &te)
}

// ErrorCode returns the code carried by err, or "" for plain errors.
func ErrorCode(err error) string {
	var de *DomainError
	if errors.As(err, &de) {
		return de.Code
	}
	var te *TechnicalError
	if errors.As(err, &te) {
		return te.Code
	}
	return ""
}

func newDomainError(code, msg string, cause error) *DomainError {
	return &DomainError{Code: code, Message: msg, Err: cause}
}

func databaseError(msg string, cause error) *TechnicalError {
	return &TechnicalError{Code: CodeDatabase, Message: msg, Err: cause}
}

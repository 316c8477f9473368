package domain

import "fmt"

// DomainError represents a domain-specific error
type DomainError struct {
	Code    string
	Message string
	Err     error
}

// Error implements the error interface
func (e *DomainError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("[%s] %s: %v", e.Code, e.Message, e.Err)
	}
	return fmt.Sprintf("[%s] %s", e.Code, e.Message)
}

// Unwrap returns the underlying error
func (e *DomainError) Unwrap() error {
	return e.Err
}

// NewDomainError creates a new DomainError
func NewDomainError(code, message string) *DomainError {
	return &DomainError{
		Code:    code,
		Message: message,
		Err:     nil,
	}
}

// NewDomainErrorWithCause creates a new DomainError with an underlying cause
func NewDomainErrorWithCause(code, message string, err error) *DomainError {
	return &DomainError{
		Code:    code,
		Message: message,
		Err:     err,
	}
}

// Common domain error codes
const (
	ErrCodeValidation      = "VALIDATION_ERROR"
	ErrCodeNotFound        = "NOT_FOUND"
	ErrCodeAlreadyExists   = "ALREADY_EXISTS"
	ErrCodeConflict        = "CONFLICT"
	ErrCodeUnprocessable   = "UNPROCESSABLE"
	ErrCodeProviderError   = "PROVIDER_ERROR"
	ErrCodeProviderTimeout = "PROVIDER_TIMEOUT"
	ErrCodeInternalError   = "INTERNAL_ERROR"
)

// Validation errors
var (
	ErrInvalidProcessingStatus = NewDomainError(ErrCodeValidation, "invalid processing status")
	ErrDimensionMismatch       = NewDomainError(ErrCodeValidation, "embedding dimensionality mismatch")
	ErrMissingRequiredField    = NewDomainError(ErrCodeValidation, "missing required field")
)

// Not found errors
var (
	ErrDocumentNotFound  = NewDomainError(ErrCodeNotFound, "source document not found")
	ErrSkillLinkNotFound = NewDomainError(ErrCodeNotFound, "skill source link not found")
	ErrUploadNotFound    = NewDomainError(ErrCodeNotFound, "pending document upload not found")
)

// Already exists errors
var (
	ErrSkillLinkAlreadyExists = NewDomainError(ErrCodeAlreadyExists, "source document already linked to skill")
)

// State machine errors
var (
	// ErrStaleTransition is returned when a guarded status update finds the
	// document in a different state than expected (another run won the race).
	ErrStaleTransition   = NewDomainError(ErrCodeConflict, "document status changed concurrently")
	ErrInvalidTransition = NewDomainError(ErrCodeConflict, "invalid processing status transition")
)

// Feedback pipeline errors (terminal for the current request; never retried
// inside the engine, and partial success is never returned as success).
var (
	ErrExtractionFailed   = NewDomainError(ErrCodeUnprocessable, "document could not be parsed as a PDF")
	ErrNoEligibleSources  = NewDomainError(ErrCodeUnprocessable, "no processed sources for this skill")
	ErrNoRelevantContent  = NewDomainError(ErrCodeUnprocessable, "no relevant content found in linked sources")
	ErrEmbeddingProvider  = NewDomainError(ErrCodeProviderError, "embedding provider request failed")
	ErrGenerationProvider = NewDomainError(ErrCodeProviderError, "generation provider request failed")
	ErrProviderTimeout    = NewDomainError(ErrCodeProviderTimeout, "provider request timed out")
)

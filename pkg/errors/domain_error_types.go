package errors

import (
	"fmt"
	"net/http"
	"strings"
)

// DomainErrorType represents the category of domain error
type DomainErrorType string

const (
	DomainValidationError     DomainErrorType = "VALIDATION_ERROR"
	DomainBusinessRuleError   DomainErrorType = "BUSINESS_RULE_ERROR"
	DomainNotFoundError       DomainErrorType = "NOT_FOUND"
	DomainConflictError       DomainErrorType = "CONFLICT"
	DomainInfrastructureError DomainErrorType = "INFRASTRUCTURE_ERROR"
	DomainUnavailableError    DomainErrorType = "UNAVAILABLE"
)

// DomainError is a named, catalogued rule violation
type DomainError struct {
	Type       DomainErrorType        `json:"type"`
	Code       string                 `json:"code"`
	Message    string                 `json:"message"`
	Details    map[string]interface{} `json:"details,omitempty"`
	Cause      error                  `json:"-"`
	Retryable  bool                   `json:"retryable"`
	StatusCode int                    `json:"status_code"`
}

// NewDomainError creates a new domain error
func NewDomainError(errorType DomainErrorType, code string, message string) *DomainError {
	return &DomainError{
		Type:       errorType,
		Code:       code,
		Message:    message,
		Details:    make(map[string]interface{}),
		StatusCode: domainErrorTypeToStatusCode(errorType),
	}
}

// Error implements the error interface
func (e *DomainError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("[%s:%s] %s: %v", e.Type, e.Code, e.Message, e.Cause)
	}
	return fmt.Sprintf("[%s:%s] %s", e.Type, e.Code, e.Message)
}

// With returns a copy of e carrying an extra detail. Catalogue entries are shared, so
// they are never mutated in place.
func (e *DomainError) With(key string, value interface{}) *DomainError {
	cp := *e
	cp.Details = make(map[string]interface{}, len(e.Details)+1)
	for k, v := range e.Details {
		cp.Details[k] = v
	}
	cp.Details[key] = value
	return &cp
}

// Because returns a copy of e wrapping cause
func (e *DomainError) Because(cause error) *DomainError {
	cp := *e
	cp.Cause = cause
	return &cp
}

// Is matches on type and code so copies made by With still match the catalogue entry
func (e *DomainError) Is(target error) bool {
	t, ok := target.(*DomainError)
	if !ok {
		return false
	}
	return e.Type == t.Type && e.Code == t.Code
}

// Unwrap returns the underlying cause
func (e *DomainError) Unwrap() error {
	return e.Cause
}

func domainErrorTypeToStatusCode(errorType DomainErrorType) int {
	switch errorType {
	case DomainValidationError:
		return http.StatusBadRequest
	case DomainBusinessRuleError:
		return http.StatusUnprocessableEntity
	case DomainNotFoundError:
		return http.StatusNotFound
	case DomainConflictError:
		return http.StatusConflict
	case DomainUnavailableError:
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

func retryable(e *DomainError) *DomainError {
	e.Retryable = true
	return e
}

// Knowledge graph errors
var (
	ErrNodeNotFound = NewDomainError(
		DomainNotFoundError,
		"NODE_NOT_FOUND",
		"The requested knowledge item is not part of the current graph",
	)

	ErrGraphNotReady = retryable(NewDomainError(
		DomainUnavailableError,
		"GRAPH_NOT_READY",
		"No graph has been built yet",
	))

	ErrStaleRefresh = NewDomainError(
		DomainConflictError,
		"STALE_REFRESH",
		"A newer refresh superseded this one",
	)

	ErrRebuildInProgress = retryable(NewDomainError(
		DomainConflictError,
		"REBUILD_IN_PROGRESS",
		"Another instance is rebuilding the knowledge base",
	))

	ErrNoPath = NewDomainError(
		DomainNotFoundError,
		"NO_PATH",
		"The two knowledge items are not connected",
	)
)

// Knowledge file errors
var (
	ErrKnowledgeFileNotFound = NewDomainError(
		DomainNotFoundError,
		"KNOWLEDGE_FILE_NOT_FOUND",
		"The knowledge file does not exist",
	)

	ErrInvalidFileName = NewDomainError(
		DomainValidationError,
		"INVALID_FILE_NAME",
		"File name must be a bare name without path separators",
	)

	ErrUnsupportedFileType = NewDomainError(
		DomainValidationError,
		"UNSUPPORTED_FILE_TYPE",
		"Only YAML knowledge files can be uploaded",
	)

	ErrEmptyFile = NewDomainError(
		DomainValidationError,
		"EMPTY_FILE",
		"The uploaded file is empty",
	)

	ErrFileTooLarge = NewDomainError(
		DomainValidationError,
		"FILE_TOO_LARGE",
		"The uploaded file exceeds the size limit",
	)

	ErrEmptyQuery = NewDomainError(
		DomainValidationError,
		"EMPTY_QUERY",
		"The question cannot be empty",
	)

	ErrQueryTooLong = NewDomainError(
		DomainValidationError,
		"QUERY_TOO_LONG",
		"The question exceeds the maximum length",
	)
)

// ValidationErrors aggregates multiple validation errors
type ValidationErrors struct {
	Errors []*DomainError `json:"errors"`
}

// NewValidationErrors creates a new validation errors collection
func NewValidationErrors() *ValidationErrors {
	return &ValidationErrors{
		Errors: make([]*DomainError, 0),
	}
}

// Add adds a validation error
func (v *ValidationErrors) Add(field string, message string) {
	v.Errors = append(v.Errors, NewDomainError(DomainValidationError, "FIELD_VALIDATION_ERROR", message).With("field", field))
}

// AddError adds a pre-existing domain error
func (v *ValidationErrors) AddError(err *DomainError) {
	v.Errors = append(v.Errors, err)
}

// HasErrors returns true if there are validation errors
func (v *ValidationErrors) HasErrors() bool {
	return len(v.Errors) > 0
}

// Error implements the error interface
func (v *ValidationErrors) Error() string {
	if len(v.Errors) == 0 {
		return ""
	}

	messages := make([]string, len(v.Errors))
	for i, err := range v.Errors {
		messages[i] = err.Message
	}
	return fmt.Sprintf("Validation failed: %s", strings.Join(messages, "; "))
}

// ToMap groups messages by field for JSON responses
func (v *ValidationErrors) ToMap() map[string][]string {
	result := make(map[string][]string)
	for _, err := range v.Errors {
		field, ok := err.Details["field"].(string)
		if !ok {
			field = "general"
		}
		result[field] = append(result[field], err.Message)
	}
	return result
}

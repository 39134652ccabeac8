// Package errors provides the standardized error taxonomy shared by the
// pipeline and its stages.
package errors

import (
	"errors"
	"fmt"
	"time"
)

// ErrorCode represents standardized internal error codes.
type ErrorCode string

const (
	ErrCodeSearchBackendFailed ErrorCode = "SEARCH_BACKEND_FAILED"
	ErrCodeSearchTimeout       ErrorCode = "SEARCH_TIMEOUT"

	ErrCodeLLMTimeout       ErrorCode = "LLM_TIMEOUT"
	ErrCodeLLMRateLimited   ErrorCode = "LLM_RATE_LIMITED"
	ErrCodeSummaryFailed    ErrorCode = "SUMMARY_FAILED"
	ErrCodeTranslationError ErrorCode = "TRANSLATION_FAILED"

	ErrCodeChartSearchFailed ErrorCode = "CHART_SEARCH_FAILED"

	ErrCodeDeliveryFailed ErrorCode = "DELIVERY_FAILED"
	ErrCodeEmptyMessage   ErrorCode = "EMPTY_MESSAGE"

	ErrCodeConfigInvalid ErrorCode = "CONFIG_INVALID"
	ErrCodeInternal      ErrorCode = "INTERNAL_ERROR"
)

// Category classifies how the pipeline reacts to an error.
type Category string

const (
	// CategoryTransport covers timeouts, connection errors, and non-success
	// statuses from collaborators. Stages absorb these and return degraded
	// output; a transport error never crosses a stage boundary.
	CategoryTransport Category = "transport"

	// CategoryValidation covers missing configuration and empty required
	// content. No safe default exists, so it is reported as a typed result:
	// it blocks pipeline construction or skips a single send.
	CategoryValidation Category = "validation"

	// CategoryUnexpected covers everything else. It escapes to the pipeline
	// and forces the Failed terminal state.
	CategoryUnexpected Category = "unexpected"
)

// StageError is a structured application error.
type StageError struct {
	Code      ErrorCode              `json:"code"`
	Category  Category               `json:"category"`
	Message   string                 `json:"message"`
	Details   string                 `json:"details,omitempty"`
	Metadata  map[string]interface{} `json:"metadata,omitempty"`
	Timestamp time.Time              `json:"timestamp"`
}

func (e *StageError) Error() string {
	return fmt.Sprintf("StageError[%s]: %s", e.Code, e.Message)
}

// NewTransportError wraps a failed collaborator call.
func NewTransportError(code ErrorCode, message string, err error) *StageError {
	details := ""
	if err != nil {
		details = err.Error()
	}
	return &StageError{
		Code:      code,
		Category:  CategoryTransport,
		Message:   message,
		Details:   details,
		Timestamp: time.Now().UTC(),
	}
}

// NewValidationError reports missing configuration or empty required content.
func NewValidationError(code ErrorCode, message, details string) *StageError {
	return &StageError{
		Code:      code,
		Category:  CategoryValidation,
		Message:   message,
		Details:   details,
		Timestamp: time.Now().UTC(),
	}
}

// NewInternalError marks a failure no component anticipated.
func NewInternalError(message string, err error) *StageError {
	details := ""
	if err != nil {
		details = err.Error()
	}
	return &StageError{
		Code:      ErrCodeInternal,
		Category:  CategoryUnexpected,
		Message:   message,
		Details:   details,
		Timestamp: time.Now().UTC(),
	}
}

// CategoryOf normalizes any error to a Category. Errors that are not
// StageErrors were not anticipated by a stage contract.
func CategoryOf(err error) Category {
	var stageErr *StageError
	if errors.As(err, &stageErr) {
		return stageErr.Category
	}
	return CategoryUnexpected
}

// CodeOf returns the error code, or INTERNAL_ERROR for untyped errors.
func CodeOf(err error) ErrorCode {
	var stageErr *StageError
	if errors.As(err, &stageErr) {
		return stageErr.Code
	}
	return ErrCodeInternal
}

// Package errors provides standardized error handling for the chat pipeline.
package errors

import (
	"errors"
	"fmt"
	"time"
)

// ErrorCode represents standardized internal error codes.
type ErrorCode string

const (
	// ErrCodeValidation covers bad or missing caller input: empty message,
	// empty audio payload, missing service description.
	ErrCodeValidation ErrorCode = "VALIDATION_ERROR"

	// ErrCodeClassification covers external replies that do not conform to
	// the intent/field contract: malformed JSON, schema violations, intent
	// values outside the recognized set.
	ErrCodeClassification ErrorCode = "CLASSIFICATION_ERROR"

	// ErrCodeTransport covers network, auth, rate-limit and timeout failures
	// talking to an external API.
	ErrCodeTransport ErrorCode = "TRANSPORT_ERROR"

	// ErrCodePersistence covers repository operation failures.
	ErrCodePersistence ErrorCode = "PERSISTENCE_ERROR"

	// ErrCodeConfiguration covers missing credentials or model identifiers,
	// detected at construction time and fatal for that gateway instance.
	ErrCodeConfiguration ErrorCode = "CONFIGURATION_ERROR"
)

// Stage identifies which pipeline stage produced a failure. It feeds the
// user-visible rendering: every failure names the stage that failed.
type Stage string

const (
	StageClassification Stage = "classification"
	StageTranscription  Stage = "transcription"
	StagePersistence    Stage = "persistence"
	StageInput          Stage = "input"
)

// StandardError represents a structured pipeline error.
type StandardError struct {
	Code      ErrorCode `json:"code"`
	Stage     Stage     `json:"stage"`
	Message   string    `json:"message"`
	Details   string    `json:"details,omitempty"`
	Retryable bool      `json:"retryable"`
	Timestamp time.Time `json:"timestamp"`
}

func (e *StandardError) Error() string {
	return fmt.Sprintf("%s[%s]: %s", e.Code, e.Stage, e.Message)
}

// NewValidationError creates a non-retryable caller-input error.
func NewValidationError(message string) *StandardError {
	return &StandardError{
		Code:      ErrCodeValidation,
		Stage:     StageInput,
		Message:   message,
		Retryable: false,
		Timestamp: time.Now().UTC(),
	}
}

// NewClassificationError creates a non-retryable contract violation error
// for a classification reply. Retrying won't change a malformed reply.
func NewClassificationError(details string) *StandardError {
	return &StandardError{
		Code:      ErrCodeClassification,
		Stage:     StageClassification,
		Message:   "classification reply does not conform to the intent contract",
		Details:   details,
		Retryable: false,
		Timestamp: time.Now().UTC(),
	}
}

// NewTransportError creates a retryable external-API transport error.
func NewTransportError(stage Stage, err error) *StandardError {
	return &StandardError{
		Code:      ErrCodeTransport,
		Stage:     stage,
		Message:   "external API call failed",
		Details:   err.Error(),
		Retryable: true,
		Timestamp: time.Now().UTC(),
	}
}

// NewPersistenceError creates a retryable repository error.
func NewPersistenceError(operation string, err error) *StandardError {
	return &StandardError{
		Code:      ErrCodePersistence,
		Stage:     StagePersistence,
		Message:   "repository operation failed",
		Details:   fmt.Sprintf("operation: %s, error: %s", operation, err.Error()),
		Retryable: true,
		Timestamp: time.Now().UTC(),
	}
}

// NewConfigurationError creates a non-retryable construction-time error.
// Gateways holding one should fail fast at startup rather than per call.
func NewConfigurationError(details string) *StandardError {
	return &StandardError{
		Code:      ErrCodeConfiguration,
		Stage:     StageInput,
		Message:   "gateway configuration incomplete",
		Details:   details,
		Retryable: false,
		Timestamp: time.Now().UTC(),
	}
}

// Code extracts the error code from any error, returning empty string for
// errors outside the taxonomy.
func Code(err error) ErrorCode {
	var stdErr *StandardError
	if errors.As(err, &stdErr) {
		return stdErr.Code
	}
	return ""
}

// StageOf extracts the pipeline stage from any error, returning empty string
// for errors outside the taxonomy.
func StageOf(err error) Stage {
	var stdErr *StandardError
	if errors.As(err, &stdErr) {
		return stdErr.Stage
	}
	return ""
}

// IsValidation reports whether err is a caller-input validation failure.
func IsValidation(err error) bool { return Code(err) == ErrCodeValidation }

// IsClassification reports whether err is a classification contract failure.
func IsClassification(err error) bool { return Code(err) == ErrCodeClassification }

// IsTransport reports whether err is an external transport failure.
func IsTransport(err error) bool { return Code(err) == ErrCodeTransport }

// IsRetryable reports whether a caller may reasonably retry the operation.
// Only transport and persistence failures qualify.
func IsRetryable(err error) bool {
	var stdErr *StandardError
	if errors.As(err, &stdErr) {
		return stdErr.Retryable
	}
	return false
}

// UserMessage renders the short, specific message shown to the end user:
// which stage failed and why, never a raw stack trace.
func UserMessage(err error) string {
	var stdErr *StandardError
	if !errors.As(err, &stdErr) {
		return "An unexpected error occurred while processing your request."
	}

	switch stdErr.Code {
	case ErrCodeValidation:
		return fmt.Sprintf("Invalid request: %s.", stdErr.Message)
	case ErrCodeClassification:
		return "Could not understand the request. Please rephrase and try again."
	case ErrCodeTransport:
		return fmt.Sprintf("The %s service is unavailable right now. Please try again shortly.", stdErr.Stage)
	case ErrCodePersistence:
		return "Saving or reading service records failed. Please try again shortly."
	case ErrCodeConfiguration:
		return fmt.Sprintf("The %s service is not configured.", stdErr.Stage)
	default:
		return "An unexpected error occurred while processing your request."
	}
}

/**
 * Structured error types for the mailroom worker.
 *
 * Every failure that crosses a package boundary carries a stable code so the
 * queue layer can persist it and the operator UI can render a retry prompt.
 */

package apperr

import (
	"fmt"
	"time"
)

// Code identifies a class of failure.
type Code string

const (
	// Resolution pipeline errors
	CodeRecognitionFailed Code = "RECOGNITION_FAILED"
	CodeImageDecodeFailed Code = "IMAGE_DECODE_FAILED"
	CodeInvalidRoster     Code = "INVALID_ROSTER"
	CodeProcessingTimeout Code = "PROCESSING_TIMEOUT"

	// Collaborator errors
	CodeStorageFailed Code = "STORAGE_FAILED"
)

// Error is a structured worker error.
type Error struct {
	Code      Code
	Message   string
	JobID     string
	Timestamp time.Time
	Details   map[string]interface{}
	Cause     error
}

func (e *Error) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %s (caused by: %v)", e.Code, e.Message, e.Cause)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func (e *Error) Unwrap() error {
	return e.Cause
}

// Factory functions for common errors

func NewRecognitionFailed(jobID, backend string, cause error) *Error {
	return &Error{
		Code:      CodeRecognitionFailed,
		Message:   fmt.Sprintf("text recognition failed (backend: %s)", backend),
		JobID:     jobID,
		Timestamp: time.Now(),
		Details: map[string]interface{}{
			"backend": backend,
		},
		Cause: cause,
	}
}

func NewInvalidRoster(reason string) *Error {
	return &Error{
		Code:      CodeInvalidRoster,
		Message:   fmt.Sprintf("tenant roster rejected: %s", reason),
		Timestamp: time.Now(),
	}
}

func NewProcessingTimeout(jobID string, timeout time.Duration, cause error) *Error {
	return &Error{
		Code:      CodeProcessingTimeout,
		Message:   fmt.Sprintf("resolution timed out after %v", timeout),
		JobID:     jobID,
		Timestamp: time.Now(),
		Details: map[string]interface{}{
			"timeout": timeout.String(),
		},
		Cause: cause,
	}
}

func NewStorageFailed(jobID string, cause error) *Error {
	return &Error{
		Code:      CodeStorageFailed,
		Message:   "failed to persist resolution result",
		JobID:     jobID,
		Timestamp: time.Now(),
		Cause:     cause,
	}
}

// ToMap converts the error to a map suitable for JSONB persistence.
func (e *Error) ToMap() map[string]interface{} {
	result := map[string]interface{}{
		"error_code": string(e.Code),
		"message":    e.Message,
		"timestamp":  e.Timestamp,
	}

	for k, v := range e.Details {
		result[k] = v
	}

	if e.Cause != nil {
		result["cause"] = e.Cause.Error()
	}

	return result
}

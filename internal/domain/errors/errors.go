// Package errors provides domain-specific errors for the sadhana application.
package errors

import (
	"errors"
	"fmt"
)

// Sentinel errors for common domain error conditions.
var (
	ErrKeyNotFound       = errors.New("key not found")
	ErrUsageUnavailable  = errors.New("storage usage estimation unavailable")
	ErrInvalidBackup     = errors.New("invalid backup file")
	ErrBackupRead        = errors.New("failed to read backup file")
	ErrSessionNotFound   = errors.New("session not found")
	ErrExerciseNotFound  = errors.New("breathing exercise not found")
	ErrSessionNoPoses    = errors.New("session has no poses")
	ErrPracticeNotPaused = errors.New("practice is not paused")
	ErrPracticeFinished  = errors.New("practice already completed")
)

// ErrorCode categorizes errors for handling and reporting.
type ErrorCode string

const (
	CodeValidation    ErrorCode = "VALIDATION"
	CodeNotFound      ErrorCode = "NOT_FOUND"
	CodeStorage       ErrorCode = "STORAGE"
	CodeBackup        ErrorCode = "BACKUP"
	CodeConfiguration ErrorCode = "CONFIG"
)

// SadhanaError wraps errors with additional context for debugging and handling.
type SadhanaError struct {
	Code    ErrorCode
	Message string
	Cause   error
}

// Error returns a formatted error string including the code, message, and cause if present.
func (e *SadhanaError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("[%s] %s: %v", e.Code, e.Message, e.Cause)
	}
	return fmt.Sprintf("[%s] %s", e.Code, e.Message)
}

// Unwrap returns the underlying cause error for use with errors.Is and errors.As.
func (e *SadhanaError) Unwrap() error {
	return e.Cause
}

// NewError creates a new SadhanaError with the given code, message, and optional cause.
func NewError(code ErrorCode, message string, cause error) *SadhanaError {
	return &SadhanaError{
		Code:    code,
		Message: message,
		Cause:   cause,
	}
}

// Is reports whether err matches target using errors.Is semantics.
func Is(err, target error) bool {
	return errors.Is(err, target)
}

// As finds the first error in err's chain that matches target.
func As(err error, target interface{}) bool {
	return errors.As(err, target)
}

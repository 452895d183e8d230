package common

import (
	"errors"
	"fmt"
)

// AppError represents application-specific errors
type AppError struct {
	Code    string
	Message string
	Cause   error
}

func (e *AppError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %s: %v", e.Code, e.Message, e.Cause)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func (e *AppError) Unwrap() error {
	return e.Cause
}

// Stage and application errors. Stage errors abort the current document.
var (
	ErrExtraction    = errors.New("extraction failed")
	ErrRecognition   = errors.New("entity recognition failed")
	ErrArtifact      = errors.New("artifact i/o failed")
	ErrStorage       = errors.New("storage error")
	ErrInputNotFound = errors.New("input path not found")
	ErrInvalidInput  = errors.New("invalid input")
)

// Error constructors
func NewAppError(code, message string, cause error) *AppError {
	return &AppError{
		Code:    code,
		Message: message,
		Cause:   cause,
	}
}

func WrapError(err error, message string) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("%s: %w", message, err)
}

// ExtractionError tags err as an extraction failure for path.
func ExtractionError(path string, err error) error {
	return &AppError{Code: "EXTRACTION_ERROR", Message: path, Cause: tag(ErrExtraction, err)}
}

// RecognitionError tags err as an entity recognition failure.
func RecognitionError(message string, err error) error {
	return &AppError{Code: "RECOGNITION_ERROR", Message: message, Cause: tag(ErrRecognition, err)}
}

func tag(sentinel, err error) error {
	if err == nil {
		return sentinel
	}
	return fmt.Errorf("%w: %w", sentinel, err)
}

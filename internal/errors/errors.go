// Package errors provides a lightweight structured error type (BuildError)
// for category-based classification of build failures in the CLI and logs.
package errors

import (
	"fmt"
)

// ErrorCategory represents the category of a build error for classification
type ErrorCategory string

const (
	// User-facing configuration and input errors
	CategoryConfig     ErrorCategory = "config"
	CategoryValidation ErrorCategory = "validation"

	// Per-page content errors
	CategoryParse    ErrorCategory = "parse"
	CategoryTemplate ErrorCategory = "template"
	CategoryMarkup   ErrorCategory = "markup"

	// Runtime and infrastructure errors
	CategoryIO       ErrorCategory = "io"
	CategoryWatch    ErrorCategory = "watch"
	CategoryInternal ErrorCategory = "internal"
)

// ErrorSeverity indicates how critical an error is
type ErrorSeverity string

const (
	SeverityFatal   ErrorSeverity = "fatal"   // Aborts the generation
	SeverityError   ErrorSeverity = "error"   // Error, but not fatal
	SeverityWarning ErrorSeverity = "warning" // Continues with degraded output
)

// BuildError is a structured error with category, severity, and context
type BuildError struct {
	Category ErrorCategory `json:"category"`
	Severity ErrorSeverity `json:"severity"`
	Message  string        `json:"message"`
	Cause    error         `json:"cause,omitempty"`
	Context  ContextFields `json:"context,omitempty"`
}

// ContextFields carries structured context for BuildError
type ContextFields map[string]any

// Error implements the error interface
func (e *BuildError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s (%s): %s: %v", e.Category, e.Severity, e.Message, e.Cause)
	}
	return fmt.Sprintf("%s (%s): %s", e.Category, e.Severity, e.Message)
}

// Unwrap implements error unwrapping for Go 1.13+ error handling
func (e *BuildError) Unwrap() error {
	return e.Cause
}

// WithContext adds context information to the error
func (e *BuildError) WithContext(key string, value any) *BuildError {
	if e.Context == nil {
		e.Context = make(ContextFields)
	}
	e.Context[key] = value
	return e
}

// New creates a new BuildError
func New(category ErrorCategory, severity ErrorSeverity, message string) *BuildError {
	return &BuildError{
		Category: category,
		Severity: severity,
		Message:  message,
	}
}

// Wrap creates a new BuildError that wraps an existing error
func Wrap(err error, category ErrorCategory, severity ErrorSeverity, message string) *BuildError {
	return &BuildError{
		Category: category,
		Severity: severity,
		Message:  message,
		Cause:    err,
	}
}

// IsCategory checks if an error belongs to a specific category
func IsCategory(err error, category ErrorCategory) bool {
	if be, ok := err.(*BuildError); ok {
		return be.Category == category
	}
	return false
}

// GetCategory extracts the category from an error, or returns CategoryInternal
// if it is not a BuildError
func GetCategory(err error) ErrorCategory {
	if be, ok := err.(*BuildError); ok {
		return be.Category
	}
	return CategoryInternal
}

// ConfigurationError creates a fatal configuration error (cyclic or
// unresolved layout/collection reference)
func ConfigurationError(message string) *BuildError {
	return New(CategoryConfig, SeverityFatal, message)
}

// ParseError creates a per-page frontmatter error; the page is excluded from
// the graph but the generation continues
func ParseError(path string, cause error) *BuildError {
	return Wrap(cause, CategoryParse, SeverityWarning, "page has malformed frontmatter").WithContext("path", path)
}

// TemplateError creates a fatal template expansion error
func TemplateError(path string, cause error) *BuildError {
	return Wrap(cause, CategoryTemplate, SeverityFatal, "template expansion failed").WithContext("path", path)
}

// MarkupError creates a fatal markup conversion error
func MarkupError(path string, cause error) *BuildError {
	return Wrap(cause, CategoryMarkup, SeverityFatal, "markup conversion failed").WithContext("path", path)
}

package errors

import (
	"fmt"
	"log/slog"
)

// CLIErrorAdapter handles error presentation and exit code determination for
// the command line entry point.
type CLIErrorAdapter struct {
	verbose bool
	logger  *slog.Logger
}

// NewCLIErrorAdapter creates a new CLI error adapter.
func NewCLIErrorAdapter(verbose bool, logger *slog.Logger) *CLIErrorAdapter {
	if logger == nil {
		logger = slog.Default()
	}
	return &CLIErrorAdapter{
		verbose: verbose,
		logger:  logger,
	}
}

// ExitCodeFor determines the appropriate exit code for an error.
func (a *CLIErrorAdapter) ExitCodeFor(err error) int {
	if err == nil {
		return 0
	}

	if be, ok := err.(*BuildError); ok {
		switch be.Category {
		case CategoryValidation:
			return 2 // Invalid usage
		case CategoryConfig:
			return 7 // Configuration error
		case CategoryParse, CategoryTemplate, CategoryMarkup:
			return 11 // Build error
		case CategoryIO, CategoryWatch:
			return 12 // Runtime error
		case CategoryInternal:
			return 10 // Internal error
		}
	}

	return 1 // General error
}

// FormatError formats an error for user-friendly display.
func (a *CLIErrorAdapter) FormatError(err error) string {
	if err == nil {
		return ""
	}

	be, ok := err.(*BuildError)
	if !ok {
		return fmt.Sprintf("Error: %v", err)
	}
	if a.verbose {
		return be.Error()
	}
	if be.Cause != nil {
		return fmt.Sprintf("%s error: %s (%v)", be.Category, be.Message, be.Cause)
	}
	return fmt.Sprintf("%s error: %s", be.Category, be.Message)
}

// Report logs the error with structured fields and returns its exit code.
func (a *CLIErrorAdapter) Report(err error) int {
	if err == nil {
		return 0
	}
	if be, ok := err.(*BuildError); ok {
		args := []any{"category", be.Category, "severity", be.Severity}
		for k, v := range be.Context {
			args = append(args, k, v)
		}
		if be.Cause != nil {
			args = append(args, "error", be.Cause)
		}
		a.logger.Error(be.Message, args...)
	} else {
		a.logger.Error("command failed", "error", err)
	}
	return a.ExitCodeFor(err)
}

// Package errhandling provides error types and classification for extraction
// runs. Every failure is fatal: the run stops at the first error, so the
// classification exists to name the failure precisely and to pick the exit
// code, not to drive retries.
package errhandling

import (
	"errors"
	"fmt"
	"io/fs"
	"strings"

	"github.com/kostasandrews/ExtractorFileTool/internal/delim"
)

// Category represents the type/category of an error.
type Category string

// Error categories for classification.
const (
	// CategoryConfiguration represents plan errors: unreadable or invalid
	// plan files, missing sections, and a sample file that cannot seed the
	// key set.
	CategoryConfiguration Category = "configuration"

	// CategoryDataFormat represents structural errors in the data files,
	// such as a key column that is absent from an input's header.
	CategoryDataFormat Category = "data_format"

	// CategoryExtraction represents I/O failures while reading inputs or
	// writing outputs during a step.
	CategoryExtraction Category = "extraction"

	// CategoryUnknown represents unclassified errors.
	CategoryUnknown Category = "unknown"
)

// NoStep marks errors that occurred before any step ran, such as during
// key set seeding.
const NoStep = -1

// PipelineError wraps an error with its category and the location of the
// failure: the step it happened in, the file involved, and the column when
// the failure is about one.
type PipelineError struct {
	// Category is the error classification category.
	Category Category

	// StepIndex is the position of the failing step in the plan, or NoStep
	// when the failure happened outside any step.
	StepIndex int

	// Path is the file involved in the failure ("" if none).
	Path string

	// Column is the header column involved in the failure ("" if none).
	Column string

	// Message is a human-readable error message.
	Message string

	// OriginalErr is the underlying error, if any.
	OriginalErr error
}

// Error implements the error interface.
func (e *PipelineError) Error() string {
	var b strings.Builder
	fmt.Fprintf(&b, "%s error: %s", e.Category, e.Message)
	var loc []string
	if e.StepIndex != NoStep {
		loc = append(loc, fmt.Sprintf("step %d", e.StepIndex))
	}
	if e.Path != "" {
		loc = append(loc, e.Path)
	}
	if e.Column != "" {
		loc = append(loc, fmt.Sprintf("column %s", e.Column))
	}
	if len(loc) > 0 {
		fmt.Fprintf(&b, " (%s)", strings.Join(loc, ", "))
	}
	if e.OriginalErr != nil {
		fmt.Fprintf(&b, ": %v", e.OriginalErr)
	}
	return b.String()
}

// Unwrap returns the original error for use with errors.Is and errors.As.
func (e *PipelineError) Unwrap() error {
	return e.OriginalErr
}

// NewConfigurationError creates a PipelineError for plan and seeding
// failures.
func NewConfigurationError(message string, originalErr error) *PipelineError {
	return &PipelineError{
		Category:    CategoryConfiguration,
		StepIndex:   NoStep,
		Message:     message,
		OriginalErr: originalErr,
	}
}

// NewDataFormatError creates a PipelineError for structural problems in a
// data file, such as a missing key column.
func NewDataFormatError(stepIndex int, path, column, message string) *PipelineError {
	return &PipelineError{
		Category:  CategoryDataFormat,
		StepIndex: stepIndex,
		Path:      path,
		Column:    column,
		Message:   message,
	}
}

// NewExtractionError creates a PipelineError for I/O failures during a
// step.
func NewExtractionError(stepIndex int, path, message string, originalErr error) *PipelineError {
	return &PipelineError{
		Category:    CategoryExtraction,
		StepIndex:   stepIndex,
		Path:        path,
		Message:     message,
		OriginalErr: originalErr,
	}
}

// ClassifyStepError classifies any error raised while executing a step.
// Already classified errors keep their classification; filesystem errors
// become extraction errors and missing-column errors become data format
// errors.
func ClassifyStepError(stepIndex int, path string, err error) *PipelineError {
	if err == nil {
		return nil
	}

	// Check if already classified
	var classified *PipelineError
	if errors.As(err, &classified) {
		return classified
	}

	if errors.Is(err, fs.ErrNotExist) || errors.Is(err, fs.ErrPermission) {
		return &PipelineError{
			Category:    CategoryExtraction,
			StepIndex:   stepIndex,
			Path:        path,
			Message:     "file access failed",
			OriginalErr: err,
		}
	}

	var missing *delim.MissingColumnError
	if errors.As(err, &missing) {
		return &PipelineError{
			Category:    CategoryDataFormat,
			StepIndex:   stepIndex,
			Path:        path,
			Column:      missing.Column,
			Message:     "row is missing a header column",
			OriginalErr: err,
		}
	}

	return &PipelineError{
		Category:    CategoryUnknown,
		StepIndex:   stepIndex,
		Path:        path,
		Message:     err.Error(),
		OriginalErr: err,
	}
}

// GetErrorCategory returns the error category for a given error.
// Returns CategoryUnknown for nil or unclassified errors.
func GetErrorCategory(err error) Category {
	if err == nil {
		return CategoryUnknown
	}

	var classified *PipelineError
	if errors.As(err, &classified) {
		return classified.Category
	}

	return CategoryUnknown
}

// IsConfiguration returns true if the error is a configuration error.
func IsConfiguration(err error) bool {
	return GetErrorCategory(err) == CategoryConfiguration
}

// IsDataFormat returns true if the error is a data format error.
func IsDataFormat(err error) bool {
	return GetErrorCategory(err) == CategoryDataFormat
}

// IsExtraction returns true if the error is an extraction error.
func IsExtraction(err error) bool {
	return GetErrorCategory(err) == CategoryExtraction
}

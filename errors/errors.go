package errors

import (
	"errors"
	"fmt"
	"time"
)

// ErrorCode identifies a failure category in the pipeline taxonomy.
type ErrorCode string

const (
	ErrorCode_SCHEMA_MISMATCH     ErrorCode = "SCHEMA_MISMATCH"
	ErrorCode_TEMPLATE_RESOLUTION ErrorCode = "TEMPLATE_RESOLUTION"
	ErrorCode_GENERATION_FAILURE  ErrorCode = "GENERATION_FAILURE"
	ErrorCode_ASSEMBLY_FAILURE    ErrorCode = "ASSEMBLY_FAILURE"
	ErrorCode_MODEL_UNAVAILABLE   ErrorCode = "MODEL_UNAVAILABLE"
	ErrorCode_CONFIG_INVALID      ErrorCode = "CONFIG_INVALID"
	ErrorCode_RUN_CANCELLED       ErrorCode = "RUN_CANCELLED"
	ErrorCode_INTERNAL            ErrorCode = "INTERNAL"
)

// String returns the code identifier.
func (c ErrorCode) String() string { return string(c) }

// Stage names the pipeline stage an error originated from.
type Stage string

const (
	StageLoad     Stage = "load"
	StageSelect   Stage = "select"
	StagePrompt   Stage = "prompt"
	StageGenerate Stage = "generate"
	StageAssemble Stage = "assemble"
	StageConfig   Stage = "config"
)

// AppError is the custom error type for the application
type AppError struct {
	Raw       error
	Stage     Stage
	Code      ErrorCode
	Message   string
	Details   map[string]string
	Timestamp time.Time
}

// Error implements error interface
func (e AppError) Error() string {
	if e.Raw != nil {
		return fmt.Sprintf("[%s] %s: %v", e.Code.String(), e.Message, e.Raw)
	}
	return fmt.Sprintf("[%s] %s", e.Code.String(), e.Message)
}

// Unwrap exposes the underlying cause to errors.Is / errors.As.
func (e AppError) Unwrap() error { return e.Raw }

// WithDetail adds a detail to the error
func (e AppError) WithDetail(key, value string) AppError {
	if e.Details == nil {
		e.Details = make(map[string]string)
	}
	e.Details[key] = value
	return e
}

// Detail returns a detail value, empty when unset.
func (e AppError) Detail(key string) string {
	return e.Details[key]
}

// CodeOf extracts the ErrorCode from err, or ErrorCode_INTERNAL when err is
// not an AppError.
func CodeOf(err error) ErrorCode {
	var app AppError
	if errors.As(err, &app) {
		return app.Code
	}
	return ErrorCode_INTERNAL
}

// IsCode reports whether err carries the given code.
func IsCode(err error, code ErrorCode) bool {
	var app AppError
	return errors.As(err, &app) && app.Code == code
}

// IsCancelled reports whether err is the normal cancelled-run outcome rather
// than a failure.
func IsCancelled(err error) bool {
	return IsCode(err, ErrorCode_RUN_CANCELLED)
}

// General Errors

func ErrInternal(err error) AppError {
	return AppError{
		Raw:       err,
		Code:      ErrorCode_INTERNAL,
		Message:   "Internal pipeline error",
		Timestamp: time.Now(),
	}
}

// Loader Errors

// ErrSchemaMismatch reports the first expected column missing from the source
// table. Fatal to the loader; surfaced before any model work begins.
func ErrSchemaMismatch(column string, found []string) AppError {
	e := AppError{
		Stage:     StageLoad,
		Code:      ErrorCode_SCHEMA_MISMATCH,
		Message:   fmt.Sprintf("Source table is missing required column %q", column),
		Timestamp: time.Now(),
	}.WithDetail("column", column)
	if len(found) > 0 {
		e = e.WithDetail("found_headers", fmt.Sprintf("%v", found))
	}
	return e
}

// ErrSourceUnreadable wraps a file open or parse failure on the input table.
func ErrSourceUnreadable(path string, err error) AppError {
	return AppError{
		Raw:       err,
		Stage:     StageLoad,
		Code:      ErrorCode_SCHEMA_MISMATCH,
		Message:   "Failed to read source table",
		Timestamp: time.Now(),
	}.WithDetail("path", path)
}

// Prompt Errors

// ErrTemplateResolution reports a placeholder whose key is absent from the
// substitution context. Fatal before any invocation.
func ErrTemplateResolution(template, key string) AppError {
	return AppError{
		Stage:     StagePrompt,
		Code:      ErrorCode_TEMPLATE_RESOLUTION,
		Message:   fmt.Sprintf("Template %q references unknown key %q", template, key),
		Timestamp: time.Now(),
	}.WithDetail("template", template).WithDetail("key", key)
}

// Engine Errors

// ErrGenerationFailure reports a model runtime error with the failing pass
// and, for pass 1, the item index.
func ErrGenerationFailure(pass int, itemIndex int, err error) AppError {
	e := AppError{
		Raw:       err,
		Stage:     StageGenerate,
		Code:      ErrorCode_GENERATION_FAILURE,
		Message:   fmt.Sprintf("Model invocation failed in pass %d", pass),
		Timestamp: time.Now(),
	}.WithDetail("pass", fmt.Sprintf("%d", pass))
	if itemIndex >= 0 {
		e = e.WithDetail("item_index", fmt.Sprintf("%d", itemIndex))
	}
	return e
}

// ErrModelUnavailable reports that the local model runtime is not reachable
// or not loaded.
func ErrModelUnavailable(err error) AppError {
	return AppError{
		Raw:       err,
		Stage:     StageGenerate,
		Code:      ErrorCode_MODEL_UNAVAILABLE,
		Message:   "Local model runtime is not available",
		Timestamp: time.Now(),
	}
}

// ErrRunCancelled is the terminal outcome of a user-requested cancellation.
// It is not a failure.
func ErrRunCancelled() AppError {
	return AppError{
		Stage:     StageGenerate,
		Code:      ErrorCode_RUN_CANCELLED,
		Message:   "Generation run cancelled",
		Timestamp: time.Now(),
	}
}

// Assembler Errors

// ErrAssemblyFailure reports a document build or write error. The assembler
// guarantees no partial document is left at the destination.
func ErrAssemblyFailure(path string, err error) AppError {
	return AppError{
		Raw:       err,
		Stage:     StageAssemble,
		Code:      ErrorCode_ASSEMBLY_FAILURE,
		Message:   "Failed to assemble output document",
		Timestamp: time.Now(),
	}.WithDetail("path", path)
}

// Config Errors

// ErrConfigInvalid reports an invalid run configuration value.
func ErrConfigInvalid(field string, err error) AppError {
	return AppError{
		Raw:       err,
		Stage:     StageConfig,
		Code:      ErrorCode_CONFIG_INVALID,
		Message:   fmt.Sprintf("Invalid configuration: %s", field),
		Timestamp: time.Now(),
	}.WithDetail("field", field)
}

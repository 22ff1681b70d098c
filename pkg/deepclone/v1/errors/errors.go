package errors

import (
	"errors"
	"fmt"
	"reflect"
)

// --- deepclone Error Types ---

// CloneErrorKind classifies a failure raised while walking an object graph.
type CloneErrorKind string

const (
	// AccessDenied means a field or element could not be read or written
	// through the active field accessor.
	AccessDenied CloneErrorKind = "AccessDenied"
	// UnsupportedShape means a value or container was found in a state the
	// engine cannot reproduce, e.g. a container modified while it was copied.
	UnsupportedShape CloneErrorKind = "UnsupportedShape"
)

// CloneError is returned by every clone entry point when the graph could not
// be copied. No partially built graph is ever returned alongside it.
type CloneError struct {
	Kind  CloneErrorKind
	Type  reflect.Type // type being cloned when the failure occurred, may be nil
	Field string       // field name, if the failure is tied to one
	Cause error
}

func NewCloneError(kind CloneErrorKind, t reflect.Type, field string, cause error) *CloneError {
	return &CloneError{Kind: kind, Type: t, Field: field, Cause: cause}
}

func (e *CloneError) Error() string {
	msg := fmt.Sprintf("clone error (%s)", e.Kind)
	if e.Type != nil {
		msg = fmt.Sprintf("%s on %s", msg, e.Type)
	}
	if e.Field != "" {
		msg = fmt.Sprintf("%s field '%s'", msg, e.Field)
	}
	if e.Cause != nil {
		return fmt.Sprintf("%s: %v", msg, e.Cause)
	}
	return msg
}
func (e *CloneError) Unwrap() error { return e.Cause }

// IsAccessDenied reports whether err carries a CloneError of kind AccessDenied.
func IsAccessDenied(err error) bool {
	var ce *CloneError
	return errors.As(err, &ce) && ce.Kind == AccessDenied
}

// IsUnsupportedShape reports whether err carries a CloneError of kind UnsupportedShape.
func IsUnsupportedShape(err error) bool {
	var ce *CloneError
	return errors.As(err, &ce) && ce.Kind == UnsupportedShape
}

// ConfigError represents a misconfigured registration or option, such as a
// duplicate fast-path handler or a constant field that does not exist.
type ConfigError struct {
	Message string
	Cause   error
}

func NewConfigError(message string, cause error) *ConfigError {
	return &ConfigError{Message: message, Cause: cause}
}
func (e *ConfigError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("configuration error: %s: %v", e.Message, e.Cause)
	}
	return fmt.Sprintf("configuration error: %s", e.Message)
}
func (e *ConfigError) Unwrap() error { return e.Cause }

// IsConfigError reports whether err wraps a ConfigError.
func IsConfigError(err error) bool {
	var ce *ConfigError
	return errors.As(err, &ce)
}

// ValidationError indicates that a clone policy document (structure, schema
// version, type names) failed validation checks.
type ValidationError struct {
	Message string
	Cause   error
}

func NewValidationError(message string, cause error) *ValidationError {
	return &ValidationError{Message: message, Cause: cause}
}
func (e *ValidationError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("validation error: %s: %v", e.Message, e.Cause)
	}
	return fmt.Sprintf("validation error: %s", e.Message)
}
func (e *ValidationError) Unwrap() error { return e.Cause }

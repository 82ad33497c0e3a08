package render

import (
	"errors"
	"fmt"
)

var (
	// ErrCompile marks a construct that cannot be expressed in the target dialect.
	ErrCompile = errors.New("compile error")
	// ErrUnsupportedType marks a column type the dialect cannot represent.
	ErrUnsupportedType = errors.New("unsupported type")
	// ErrInvalidValue marks a value rejected by a bind or result conversion.
	ErrInvalidValue = errors.New("invalid value")
)

// UnsupportedFeatureError indicates a feature not supported by the dialect.
type UnsupportedFeatureError struct {
	Feature string
	Dialect string
	Hint    string
}

func (e UnsupportedFeatureError) Error() string {
	if e.Hint != "" {
		return fmt.Sprintf("%s: %s is not supported: %s", e.Dialect, e.Feature, e.Hint)
	}
	return fmt.Sprintf("%s: %s is not supported", e.Dialect, e.Feature)
}

// NewUnsupportedFeatureError creates a new unsupported feature error.
func NewUnsupportedFeatureError(dialect, feature string, hint ...string) error {
	err := UnsupportedFeatureError{Feature: feature, Dialect: dialect}
	if len(hint) > 0 {
		err.Hint = hint[0]
	}
	return err
}

// CompileErrorf wraps ErrCompile with a formatted message.
func CompileErrorf(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrCompile, fmt.Sprintf(format, args...))
}

// UnsupportedTypeErrorf wraps both ErrCompile and ErrUnsupportedType.
func UnsupportedTypeErrorf(format string, args ...any) error {
	return fmt.Errorf("%w: %w: %s", ErrCompile, ErrUnsupportedType, fmt.Sprintf(format, args...))
}

// InvalidValueErrorf wraps ErrInvalidValue with a formatted message.
func InvalidValueErrorf(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrInvalidValue, fmt.Sprintf(format, args...))
}

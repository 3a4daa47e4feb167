package constraints

import (
	"errors"
	"fmt"
)

// Sentinel errors for the caller-facing failure classes. Per-item evaluation
// failures are never errors: Update counts them and Report surfaces them.
var (
	// ErrConfiguration marks an invalid constraint construction: conflicting
	// or missing operand shapes, bad BETWEEN bounds, unknown summary fields.
	ErrConfiguration = errors.New("invalid constraint configuration")

	// ErrIncompatibleMerge marks a merge between constraints or collections
	// whose identity fields differ. It indicates mismatched pipeline
	// configuration across shards.
	ErrIncompatibleMerge = errors.New("incompatible constraint merge")

	// ErrFormat marks a malformed serialized constraint document.
	ErrFormat = errors.New("malformed constraint message")
)

// TypeMismatchError reports a reference-set input that cannot be coerced to a
// set. It unwraps to ErrConfiguration.
type TypeMismatchError struct {
	TypeName string
}

func (e *TypeMismatchError) Error() string {
	return fmt.Sprintf("%v: reference set input of type %s is not set coercible", ErrConfiguration, e.TypeName)
}

func (e *TypeMismatchError) Unwrap() error {
	return ErrConfiguration
}

func configErrorf(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrConfiguration, fmt.Sprintf(format, args...))
}

func mergeErrorf(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrIncompatibleMerge, fmt.Sprintf(format, args...))
}

func formatErrorf(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrFormat, fmt.Sprintf(format, args...))
}

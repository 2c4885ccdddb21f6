// Package errs defines the error taxonomy shared by every stage of the
// command → scene → patch pipeline.
//
// Stages wrap one of the sentinels below with fmt.Errorf("...: %w") so the
// shell can classify a failure with [errors.Is] or [Kind] while still showing
// the full human-readable chain.
package errs

import (
	"errors"
	"fmt"
)

var (
	// ErrInvalidCommand indicates an unparseable, unknown or ambiguous command.
	ErrInvalidCommand = errors.New("atomscene: invalid command")

	// ErrInvalidReference indicates a dangling atom index, bond set, colormap or name.
	ErrInvalidReference = errors.New("atomscene: invalid reference")

	// ErrMissingProperty indicates a field lookup on data lacking the named property.
	ErrMissingProperty = errors.New("atomscene: missing property")

	// ErrDegenerateCell indicates a singular cell matrix with periodicity requested.
	ErrDegenerateCell = errors.New("atomscene: degenerate cell")

	// ErrEmptyConfiguration indicates a configuration with no atoms.
	ErrEmptyConfiguration = errors.New("atomscene: empty configuration")

	// ErrIOFailure indicates a file that could not be read, written or decoded.
	ErrIOFailure = errors.New("atomscene: i/o failure")

	// ErrExpression indicates a label expression that failed to compile or evaluate.
	ErrExpression = errors.New("atomscene: expression error")
)

var taxonomy = []struct {
	err  error
	name string
}{
	{ErrInvalidCommand, "InvalidCommand"},
	{ErrInvalidReference, "InvalidReference"},
	{ErrMissingProperty, "MissingProperty"},
	{ErrDegenerateCell, "DegenerateCell"},
	{ErrEmptyConfiguration, "EmptyConfiguration"},
	{ErrIOFailure, "IOFailure"},
	{ErrExpression, "ExpressionError"},
}

// Kind returns the taxonomy name of err, or "Error" when it is unclassified.
func Kind(err error) string {
	for _, t := range taxonomy {
		if errors.Is(err, t.err) {
			return t.name
		}
	}
	return "Error"
}

// IOError records a failed file operation together with its path and cause.
type IOError struct {
	Op   string
	Path string
	Err  error
}

func (e *IOError) Error() string {
	return fmt.Sprintf("%s %s: %v", e.Op, e.Path, e.Err)
}

func (e *IOError) Unwrap() error {
	return e.Err
}

// Is reports IOError as an ErrIOFailure regardless of the wrapped cause.
func (e *IOError) Is(target error) bool {
	return target == ErrIOFailure
}

// IO wraps err as an IOError, or returns nil when err is nil.
func IO(op, path string, err error) error {
	if err == nil {
		return nil
	}
	return &IOError{Op: op, Path: path, Err: err}
}

// Invalid returns an ErrInvalidCommand carrying a formatted detail.
func Invalid(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrInvalidCommand, fmt.Sprintf(format, args...))
}

// Reference returns an ErrInvalidReference carrying a formatted detail.
func Reference(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrInvalidReference, fmt.Sprintf(format, args...))
}

// Missing returns an ErrMissingProperty naming the absent property.
func Missing(name string) error {
	return fmt.Errorf("%w: %q", ErrMissingProperty, name)
}

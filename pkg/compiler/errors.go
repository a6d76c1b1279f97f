package compiler

import (
	"errors"
	"fmt"
)

var (
	// ErrNoDictionary indicates a compiler configured without a dictionary.
	ErrNoDictionary = errors.New("comparator dictionary is required")

	// ErrNegationCollision indicates a negation key that is also a comparator
	// name.
	ErrNegationCollision = errors.New("negation key collides with a comparator name")

	// ErrUnknownComparator matches compile errors of kind UnknownComparator.
	ErrUnknownComparator = errors.New("unknown comparator")

	// ErrMalformedDescriptor matches compile errors of kind MalformedDescriptor.
	ErrMalformedDescriptor = errors.New("malformed descriptor")

	// ErrInvalidArgument matches compile errors of kind InvalidArgument.
	ErrInvalidArgument = errors.New("invalid comparator argument")
)

// ErrorKind classifies a CompileError.
type ErrorKind string

const (
	// UnknownComparator is a condition map entry naming no registered
	// comparator.
	UnknownComparator ErrorKind = "unknown_comparator"

	// MalformedDescriptor is a descriptor value that is neither a condition
	// map, a nested descriptor nor a sequence.
	MalformedDescriptor ErrorKind = "malformed_descriptor"

	// InvalidArgument is an expected argument the comparator rejected.
	InvalidArgument ErrorKind = "invalid_argument"
)

// CompileError describes why a descriptor could not be compiled.
type CompileError struct {
	Kind ErrorKind
	// Path locates the offending entry, "$" being the descriptor root.
	Path string
	// Key is the offending key, if any.
	Key        string
	Message    string
	Suggestion string
	Err        error
}

// Error returns the error message.
func (e *CompileError) Error() string {
	msg := fmt.Sprintf("%s at %s", e.Message, e.Path)
	if e.Suggestion != "" {
		msg += " (" + e.Suggestion + ")"
	}
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

// Unwrap returns the underlying cause.
func (e *CompileError) Unwrap() error {
	return e.Err
}

// Is matches the sentinel error of the error's kind.
func (e *CompileError) Is(target error) bool {
	switch target {
	case ErrUnknownComparator:
		return e.Kind == UnknownComparator
	case ErrMalformedDescriptor:
		return e.Kind == MalformedDescriptor
	case ErrInvalidArgument:
		return e.Kind == InvalidArgument
	default:
		return false
	}
}

func malformed(path, key, format string, args ...interface{}) *CompileError {
	return &CompileError{
		Kind:    MalformedDescriptor,
		Path:    path,
		Key:     key,
		Message: fmt.Sprintf(format, args...),
	}
}

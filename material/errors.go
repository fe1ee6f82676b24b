package material

import (
	"errors"
	"fmt"
)

// ErrorKind categorizes material failures.
type ErrorKind uint8

const (
	// FileError means the material file could not be read.
	FileError ErrorKind = iota
	// SyntaxError means the material text is malformed.
	SyntaxError
	// CompileError means the backend rejected a stage source.
	CompileError
	// LinkError means the backend failed to link a program. It is fatal.
	LinkError
	// UnsupportedError means the backend lacks a required capability.
	UnsupportedError
)

func (kind ErrorKind) String() string {
	switch kind {
	case FileError:
		return "FileError"
	case SyntaxError:
		return "SyntaxError"
	case CompileError:
		return "CompileError"
	case LinkError:
		return "LinkError"
	case UnsupportedError:
		return "UnsupportedError"
	default:
		return "Unknown"
	}
}

// Error is the single failure type returned by the material compiler.
type Error struct {
	Kind ErrorKind
	// Shader is the name of the SHADER block being processed, if any.
	Shader  string
	Message string
	// Err is the underlying cause, if any.
	Err error
}

func (e *Error) Error() string { return e.Message }

func (e *Error) Unwrap() error { return e.Err }

// Fatal reports whether the failure should stop all further compilation,
// as opposed to skipping a single shader.
func (e *Error) Fatal() bool { return e.Kind == LinkError }

func newError(kind ErrorKind, shader, format string, args ...interface{}) *Error {
	return &Error{Kind: kind, Shader: shader, Message: fmt.Sprintf(format, args...)}
}

// IsFatal reports whether err carries a fatal material failure.
func IsFatal(err error) bool {
	var merr *Error
	return errors.As(err, &merr) && merr.Fatal()
}

// KindOf returns the kind of a material failure and whether err was one.
func KindOf(err error) (ErrorKind, bool) {
	var merr *Error
	if !errors.As(err, &merr) {
		return 0, false
	}
	return merr.Kind, true
}

// Message renders err for callers that want a plain string:
// empty on success, human-readable otherwise.
func Message(err error) string {
	if err == nil {
		return ""
	}
	return err.Error()
}

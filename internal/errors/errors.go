package errors

import (
	stderrors "errors"
	"fmt"
)

type ErrorType string

const (
	ErrorTypeAlreadyInitialized ErrorType = "ALREADY_INITIALIZED"
	ErrorTypeNotFound           ErrorType = "NOT_FOUND"
	ErrorTypeCorruptState       ErrorType = "CORRUPT_STATE"
	ErrorTypeMissingWorkingFile ErrorType = "MISSING_WORKING_FILE"
	ErrorTypeHeadConflict       ErrorType = "HEAD_CONFLICT"
)

type Error struct {
	Type    ErrorType `json:"type"`
	Message string    `json:"message"`
	Err     error     `json:"-"`
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *Error) Unwrap() error {
	return e.Err
}

// IsType reports whether err (or anything it wraps) is an *Error of the
// given type.
func IsType(err error, t ErrorType) bool {
	var e *Error
	if stderrors.As(err, &e) {
		return e.Type == t
	}
	return false
}

func AlreadyInitialized(root string) *Error {
	return &Error{
		Type:    ErrorTypeAlreadyInitialized,
		Message: fmt.Sprintf("repository already initialized at %s", root),
	}
}

func NotFound(digest string) *Error {
	return &Error{
		Type:    ErrorTypeNotFound,
		Message: fmt.Sprintf("object %s not found", digest),
	}
}

func CorruptState(what string, err error) *Error {
	return &Error{
		Type:    ErrorTypeCorruptState,
		Message: fmt.Sprintf("corrupt %s", what),
		Err:     err,
	}
}

func MissingWorkingFile(path string, err error) *Error {
	return &Error{
		Type:    ErrorTypeMissingWorkingFile,
		Message: fmt.Sprintf("cannot read working file %s", path),
		Err:     err,
	}
}

func HeadConflict(want, got string) *Error {
	return &Error{
		Type:    ErrorTypeHeadConflict,
		Message: fmt.Sprintf("head moved during commit (expected %q, found %q)", want, got),
	}
}

// Package errors defines the error kinds shared by the message model,
// the streams behind it and the collaborators around the pipeline.
package errors

import (
	stderrors "errors"
	"fmt"
)

// ErrorType represents the category of a failure
type ErrorType int

const (
	// ErrorTypeInvalidArgument: malformed URI, out-of-range port, bad cache key, unknown mode
	ErrorTypeInvalidArgument ErrorType = iota
	// ErrorTypeStreamUnusable: operation on a detached/closed stream or one lacking the capability
	ErrorTypeStreamUnusable
	// ErrorTypeStreamIO: the underlying read, write, seek or open failed
	ErrorTypeStreamIO
	// ErrorTypeMalformedMessage: wire text that is not an HTTP message
	ErrorTypeMalformedMessage
	// ErrorTypeNetwork: the request could not be sent or no response arrived
	ErrorTypeNetwork
)

// String returns the kind name
func (t ErrorType) String() string {
	switch t {
	case ErrorTypeInvalidArgument:
		return "invalid argument"
	case ErrorTypeStreamUnusable:
		return "stream unusable"
	case ErrorTypeStreamIO:
		return "stream i/o failure"
	case ErrorTypeMalformedMessage:
		return "malformed message"
	case ErrorTypeNetwork:
		return "network unreachable"
	default:
		return "unknown"
	}
}

// Error represents a structured failure
type Error struct {
	Type    ErrorType
	Message string
	Context string // Operation that failed, e.g. "uri.Parse" or "stream.Read"
	Err     error  // Underlying cause, may be nil
}

func (e *Error) Error() string {
	msg := e.Message
	if msg == "" {
		msg = e.Type.String()
	}
	if e.Context != "" {
		msg = fmt.Sprintf("%s (context: %s)", msg, e.Context)
	}
	if e.Err != nil {
		return fmt.Sprintf("httpmessage: %s: %v", msg, e.Err)
	}
	return "httpmessage: " + msg
}

func (e *Error) Unwrap() error {
	return e.Err
}

// Is reports whether target is an *Error of the same kind.
// It lets callers write errors.Is(err, ErrStreamUnusable).
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	return t.Type == e.Type
}

// Sentinels for kind matching with errors.Is
var (
	ErrInvalidArgument  = &Error{Type: ErrorTypeInvalidArgument}
	ErrStreamUnusable   = &Error{Type: ErrorTypeStreamUnusable}
	ErrStreamIO         = &Error{Type: ErrorTypeStreamIO}
	ErrMalformedMessage = &Error{Type: ErrorTypeMalformedMessage}
	ErrNetwork          = &Error{Type: ErrorTypeNetwork}
)

// NewError creates a new Error
func NewError(errType ErrorType, message, context string, cause error) *Error {
	return &Error{
		Type:    errType,
		Message: message,
		Context: context,
		Err:     cause,
	}
}

// InvalidArgument creates an ErrorTypeInvalidArgument error
func InvalidArgument(message, context string) *Error {
	return NewError(ErrorTypeInvalidArgument, message, context, nil)
}

// StreamUnusable creates an ErrorTypeStreamUnusable error
func StreamUnusable(message, context string) *Error {
	return NewError(ErrorTypeStreamUnusable, message, context, nil)
}

// StreamIO creates an ErrorTypeStreamIO error wrapping cause
func StreamIO(message, context string, cause error) *Error {
	return NewError(ErrorTypeStreamIO, message, context, cause)
}

// Malformed creates an ErrorTypeMalformedMessage error
func Malformed(message, context string) *Error {
	return NewError(ErrorTypeMalformedMessage, message, context, nil)
}

// Kinded is implemented by errors that belong to one of the kinds above
// without being an *Error themselves, such as the client's NetworkError.
type Kinded interface {
	error
	Kind() ErrorType
}

// Kind returns the error kind
func (e *Error) Kind() ErrorType {
	return e.Type
}

// TypeOf returns the kind of err if it is, or wraps, a Kinded error
func TypeOf(err error) (ErrorType, bool) {
	var k Kinded
	if stderrors.As(err, &k) {
		return k.Kind(), true
	}
	return 0, false
}

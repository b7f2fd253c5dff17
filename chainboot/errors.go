package chainboot

import (
	"errors"
	"fmt"
)

// Error represents a chainboot protocol error.
type Error struct {
	// Type is the error type
	Type ErrorType

	// Message is a human-readable error message
	Message string

	// Offset is the image offset at which the error occurred, or -1 if
	// the error is not tied to a position in the transfer.
	Offset int64

	// Cause is the underlying transport error, if any
	Cause error
}

// ErrorType categorizes chainboot errors.
type ErrorType int

const (
	// ErrNegotiation indicates the device rejected the announced image
	// size. Recoverable: the session ends and the host waits for the
	// next ready signal.
	ErrNegotiation ErrorType = iota

	// ErrIntegrity indicates a chunk echo did not match what was sent.
	// Fatal to the session: the two sides are desynchronized and the
	// protocol has no resynchronization procedure.
	ErrIntegrity

	// ErrCompletion indicates an unexpected completion tag
	ErrCompletion

	// ErrTimeout indicates a timeout occurred
	ErrTimeout

	// ErrIO indicates a transport error
	ErrIO

	// ErrCancelled indicates the session was cancelled
	ErrCancelled
)

func (e *Error) Error() string {
	if e.Offset >= 0 {
		return fmt.Sprintf("chainboot %s: %s (offset %d)", e.Type, e.Message, e.Offset)
	}
	return fmt.Sprintf("chainboot %s: %s", e.Type, e.Message)
}

func (e *Error) Unwrap() error {
	return e.Cause
}

func (t ErrorType) String() string {
	switch t {
	case ErrNegotiation:
		return "negotiation error"
	case ErrIntegrity:
		return "integrity error"
	case ErrCompletion:
		return "completion error"
	case ErrTimeout:
		return "timeout"
	case ErrIO:
		return "I/O error"
	case ErrCancelled:
		return "cancelled"
	default:
		return "unknown error"
	}
}

// NewError creates a new chainboot error.
func NewError(errType ErrorType, message string) *Error {
	return &Error{
		Type:    errType,
		Message: message,
		Offset:  -1,
	}
}

// NewOffsetError creates a new chainboot error tied to an image offset.
func NewOffsetError(errType ErrorType, message string, offset int64) *Error {
	return &Error{
		Type:    errType,
		Message: message,
		Offset:  offset,
	}
}

// wrapIO wraps a transport error, preserving an existing *Error.
func wrapIO(err error, message string) *Error {
	var ce *Error
	if errors.As(err, &ce) {
		return ce
	}
	return &Error{
		Type:    ErrIO,
		Message: message,
		Offset:  -1,
		Cause:   err,
	}
}

// errType reports whether err is a chainboot error of the given type.
func errType(err error, t ErrorType) bool {
	var ce *Error
	if errors.As(err, &ce) {
		return ce.Type == t
	}
	return false
}

// IsNegotiation checks if an error is a size-negotiation error.
func IsNegotiation(err error) bool { return errType(err, ErrNegotiation) }

// IsIntegrity checks if an error is a chunk-echo integrity error.
func IsIntegrity(err error) bool { return errType(err, ErrIntegrity) }

// IsCompletion checks if an error is a completion-tag error.
func IsCompletion(err error) bool { return errType(err, ErrCompletion) }

// IsTimeout checks if an error is a timeout error.
func IsTimeout(err error) bool { return errType(err, ErrTimeout) }

// IsCancelled checks if an error indicates cancellation.
func IsCancelled(err error) bool { return errType(err, ErrCancelled) }

// recoverable reports whether the session run loop may resume waiting for
// the next ready signal after err. Transport failures and cancellation
// terminate the loop; protocol-level failures end only the session.
func recoverable(err error) bool {
	var ce *Error
	if !errors.As(err, &ce) {
		return false
	}
	switch ce.Type {
	case ErrNegotiation, ErrIntegrity, ErrCompletion:
		return ce.Cause == nil
	default:
		return false
	}
}

package errors

import "fmt"

// ErrorCode represents a unique identifier for specific failure conditions in
// the transition controller.
type ErrorCode int

const (
	ErrCodeUnknown       ErrorCode = 1000
	ErrCodeConfigInvalid ErrorCode = 1001

	// Startup: vehicle link bootstrap
	ErrCodeConnectionFailed ErrorCode = 2001

	// In-flight: control loop I/O
	ErrCodeTelemetryTimeout ErrorCode = 3001
	ErrCodeCommandRejected  ErrorCode = 3002

	// Failsafe exit path
	ErrCodeFailsafeAbort ErrorCode = 4001
)

// TransitionError is a custom error type that provides structured error
// information, including an error code, the operation being performed, and the
// underlying cause.
type TransitionError struct {
	// Code is the specific error code.
	Code ErrorCode
	// Msg is a human-readable description of the error.
	Msg string
	// Operation describes the action being performed when the error occurred.
	Operation string
	// Err is the underlying error that caused this error, if any.
	Err error
}

// Error returns a formatted string representation of the error.
func (e *TransitionError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("[%d] %s: %s (cause: %v)", e.Code, e.Operation, e.Msg, e.Err)
	}
	return fmt.Sprintf("[%d] %s: %s", e.Code, e.Operation, e.Msg)
}

// Unwrap returns the underlying error.
func (e *TransitionError) Unwrap() error {
	return e.Err
}

// New creates a new TransitionError with the specified code, operation,
// message, and underlying error.
func New(code ErrorCode, op, msg string, err error) error {
	return &TransitionError{
		Code:      code,
		Msg:       msg,
		Operation: op,
		Err:       err,
	}
}

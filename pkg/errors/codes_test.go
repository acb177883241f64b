package errors

import (
	"errors"
	"testing"
)

func TestTransitionError_Error(t *testing.T) {
	err := New(ErrCodeConfigInvalid, "LoadConfig", "max_throttle out of range", nil)
	expected := "[1001] LoadConfig: max_throttle out of range"
	if err.Error() != expected {
		t.Errorf("Expected %q, got %q", expected, err.Error())
	}

	cause := errors.New("file not found")
	errWithCause := New(ErrCodeConfigInvalid, "LoadConfig", "cannot read config", cause)
	expectedWithCause := "[1001] LoadConfig: cannot read config (cause: file not found)"
	if errWithCause.Error() != expectedWithCause {
		t.Errorf("Expected %q, got %q", expectedWithCause, errWithCause.Error())
	}
}

func TestTransitionError_Unwrap(t *testing.T) {
	cause := errors.New("connection refused")
	err := New(ErrCodeConnectionFailed, "Connect", "vehicle link unavailable", cause)

	unwrapped := errors.Unwrap(err)
	if unwrapped != cause {
		t.Errorf("Expected cause %v, got %v", cause, unwrapped)
	}

	errNoCause := New(ErrCodeConnectionFailed, "Connect", "vehicle link unavailable", nil)
	if errors.Unwrap(errNoCause) != nil {
		t.Errorf("Expected nil cause, got %v", errors.Unwrap(errNoCause))
	}
}

func TestTransitionError_Fields(t *testing.T) {
	err := New(ErrCodeCommandRejected, "SendSetpoint", "rejected twice", nil).(*TransitionError)
	if err.Code != ErrCodeCommandRejected {
		t.Errorf("Expected code %v, got %v", ErrCodeCommandRejected, err.Code)
	}
	if err.Operation != "SendSetpoint" {
		t.Errorf("Expected operation %q, got %q", "SendSetpoint", err.Operation)
	}
	if err.Msg != "rejected twice" {
		t.Errorf("Expected message %q, got %q", "rejected twice", err.Msg)
	}
}

package req

import (
	"errors"
	"fmt"
	"testing"
)

func TestErrorPredicates(t *testing.T) {
	cause := errors.New("underlying")

	tests := []struct {
		name  string
		err   error
		check func(error) bool
		retry bool
	}{
		{"connection", NewConnectionError(cause), IsConnection, true},
		{"timeout", NewTimeoutError(cause), IsTimeout, true},
		{"protocol", NewProtocolError(cause), IsProtocol, false},
		{"incomplete_body", NewIncompleteBodyError(cause), IsIncompleteBody, false},
		{"decode", NewDecodeError(cause), IsDecode, false},
		{"closed", NewClosedError("stream"), IsClosed, false},
		{"validation", NewValidationError("bad url"), IsValidation, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if !tt.check(tt.err) {
				t.Errorf("predicate rejected its own error: %v", tt.err)
			}
			if IsRetryable(tt.err) != tt.retry {
				t.Errorf("expected retryable=%v for %v", tt.retry, tt.err)
			}
		})
	}
}

func TestError_UnwrapPreservesCause(t *testing.T) {
	cause := errors.New("dial tcp: refused")
	err := NewConnectionError(cause)

	if !errors.Is(err, cause) {
		t.Error("errors.Is must reach the cause")
	}

	wrapped := fmt.Errorf("sending request: %w", err)
	if !IsConnection(wrapped) {
		t.Error("predicate must see through fmt.Errorf wrapping")
	}
	if !IsRetryable(wrapped) {
		t.Error("retryability must survive wrapping")
	}
}

func TestErrorPredicates_RejectOthers(t *testing.T) {
	if IsTimeout(NewConnectionError(errors.New("x"))) {
		t.Error("connection error must not be a timeout")
	}
	if IsConnection(errors.New("plain")) {
		t.Error("plain error must not match")
	}
	if IsRetryable(nil) {
		t.Error("nil must not be retryable")
	}
}

package status

import (
	"errors"
	"fmt"
	"testing"
)

func TestError_Error(t *testing.T) {
	err := Errorf(SignalTooLarge, "payload is %d bytes", 70000)

	if got := err.Error(); got != "signal_too_large: payload is 70000 bytes" {
		t.Errorf("Unexpected message: %q", got)
	}

	if got := New(NotConnected, "").Error(); got != "not_connected" {
		t.Errorf("Expected bare code name, got %q", got)
	}
}

func TestCodeOf(t *testing.T) {
	if got := CodeOf(nil); got != OK {
		t.Errorf("Expected OK for nil, got %v", got)
	}

	if got := CodeOf(New(TerminalNotFound, "no such terminal")); got != TerminalNotFound {
		t.Errorf("Expected TerminalNotFound, got %v", got)
	}

	wrapped := fmt.Errorf("outer context: %w", New(ConnectionTimeout, "handshake"))
	if got := CodeOf(wrapped); got != ConnectionTimeout {
		t.Errorf("Expected ConnectionTimeout through wrapping, got %v", got)
	}

	if got := CodeOf(errors.New("plain")); got != InternalError {
		t.Errorf("Expected InternalError for foreign errors, got %v", got)
	}
}

func TestCode_String(t *testing.T) {
	if got := AlreadyInitialized.String(); got != "already_initialized" {
		t.Errorf("Unexpected name: %q", got)
	}
	if got := Code(99).String(); got != "code(99)" {
		t.Errorf("Unexpected fallback: %q", got)
	}
}
